package download

import (
	"fmt"
	"log/slog"
	"time"
)

// progress logs how far a download got, at most once per second.
type progress struct {
	logger      *slog.Logger
	transferred int64
	total       int64
	startTime   time.Time
	lastLog     time.Time
}

func newProgress(logger *slog.Logger, total int64) *progress {
	return &progress{
		logger:    logger,
		total:     total,
		startTime: time.Now(),
	}
}

func (p *progress) add(n int) {
	if p == nil {
		return
	}
	p.transferred += int64(n)

	if time.Since(p.lastLog) >= time.Second {
		p.lastLog = time.Now()
		p.log("downloading")
	}
}

func (p *progress) done() {
	if p == nil {
		return
	}
	p.log("download complete")
}

func (p *progress) log(msg string) {
	elapsed := time.Since(p.startTime)
	attrs := []any{
		"elapsed", elapsed.Round(time.Millisecond),
		"transferred", p.transferred,
		"total", p.total,
		"mbps", fmt.Sprintf("%.2f", float64(p.transferred)/elapsed.Seconds()/(1024*1024)),
	}
	if p.total > 0 {
		attrs = append(attrs, "progress", fmt.Sprintf("%.1f%%", float64(p.transferred)/float64(p.total)*100))
	}
	p.logger.Info(msg, attrs...)
}
