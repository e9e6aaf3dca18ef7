// Package connectivity owns the device's network link.
//
// A [Manager] wraps a [Radio] and the credentials it joins with. It holds
// all link state itself, so a control loop passes the Manager around
// instead of reaching for globals:
//
//	m, err := connectivity.New(connectivity.NewHostRadio(), creds)
//	for {
//		if connected, _ := m.TryConnect(); connected {
//			// enqueue and process downloads
//		}
//		// other device work
//	}
//
// TryConnect never blocks. While an association attempt is pending it is
// re-issued at most once per retry interval.
package connectivity
