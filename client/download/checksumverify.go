package download

import (
	"encoding/hex"
	"fmt"
	"hash"
)

// checksumVerifier hashes each chunk as it is appended to the file. A sum
// only means something once every downloaded byte reached the hash, so
// verify compares the hashed count with the response's byte count first.
type checksumVerifier struct {
	hash     hash.Hash
	expected string
	hashed   int64
}

// append records a chunk that was written to the destination file.
func (v *checksumVerifier) append(p []byte) {
	if v == nil {
		return
	}
	v.hash.Write(p)
	v.hashed += int64(len(p))
}

// verify checks the file against the expected sum once the response is
// done. downloaded is the response's final byte count.
func (v *checksumVerifier) verify(downloaded int64) error {
	if v == nil {
		return nil
	}

	if v.hashed != downloaded {
		return &Error{
			Err:    ErrChecksumMismatch,
			Detail: fmt.Sprintf("only %d of %d downloaded bytes reached the file", v.hashed, downloaded),
		}
	}

	if actual := hex.EncodeToString(v.hash.Sum(nil)); actual != v.expected {
		return &Error{
			Err:    ErrChecksumMismatch,
			Detail: fmt.Sprintf("expected %s, got %s", v.expected, actual),
		}
	}

	return nil
}
