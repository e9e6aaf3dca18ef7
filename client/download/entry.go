package download

import (
	"log/slog"

	"github.com/adamwoolhether/pollhttp/client"
)

// entry is one registered download.
type entry struct {
	id        int
	path      string
	url       string
	client    *client.Client
	resp      *client.Response
	redirects int

	checksum *checksumVerifier
	progress *progress
	log      *slog.Logger

	// err is the first write or verification failure.
	err     error
	settled bool
}

func (e *entry) info() Info {
	return Info{
		ID:            e.id,
		Path:          e.path,
		URL:           e.url,
		StatusCode:    e.resp.StatusCode(),
		Downloaded:    e.resp.Downloaded(),
		ContentLength: e.resp.ContentLength(),
		Done:          e.resp.Done(),
		Redirects:     e.redirects,
		Err:           e.failure(),
	}
}

func (e *entry) failure() error {
	if e.err != nil {
		return e.err
	}
	return e.resp.Err()
}

func (e *entry) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

// written records bytes that reached the destination file.
func (e *entry) written(data []byte) {
	e.checksum.append(data)
	e.progress.add(len(data))
}

// settle runs once the response is done.
func (e *entry) settle() {
	if e.settled || !e.resp.Done() {
		return
	}
	e.settled = true

	if e.resp.OK() && e.resp.Err() == nil {
		if err := e.checksum.verify(e.resp.Downloaded()); err != nil {
			e.fail(err)
		}
	}

	if err := e.failure(); err != nil {
		e.log.Warn("download failed", "status", e.resp.StatusCode(), "downloaded", e.resp.Downloaded(), "error", err)
		return
	}

	e.progress.done()
	e.log.Info("download finished", "status", e.resp.StatusCode(), "downloaded", e.resp.Downloaded())
}

func (e *entry) close() {
	if err := e.client.Close(); err != nil {
		e.log.Debug("closing download connection", "error", err)
	}
}
