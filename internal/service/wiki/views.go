package wiki

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"wikicore/internal/domain"
	wikiRepo "wikicore/internal/domain/repositories/wiki"
	"wikicore/internal/metrics"
)

const viewFlushTimeout = 5 * time.Second

// viewRecorder coalesces view-count increments in the background. Record
// never blocks: when the buffer is full the view is dropped.
type viewRecorder struct {
	docs     wikiRepo.DocumentRepository
	interval time.Duration
	logger   *slog.Logger

	views     chan string
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func newViewRecorder(docs wikiRepo.DocumentRepository, interval time.Duration, buffer int, logger *slog.Logger) *viewRecorder {
	v := &viewRecorder{
		docs:     docs,
		interval: interval,
		logger:   logger,
		views:    make(chan string, buffer),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go v.run()
	return v
}

// Record enqueues one view of documentID.
func (v *viewRecorder) Record(documentID string) {
	select {
	case <-v.stop:
		return
	default:
	}
	select {
	case v.views <- documentID:
	default:
		metrics.ViewUpdatesDropped.Inc()
	}
}

// Close flushes what is buffered and stops the worker. Safe to call twice.
func (v *viewRecorder) Close() {
	v.closeOnce.Do(func() {
		close(v.stop)
		<-v.done
	})
}

func (v *viewRecorder) run() {
	defer close(v.done)

	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()

	pending := make(map[string]int64)
	for {
		select {
		case id := <-v.views:
			pending[id]++
		case <-ticker.C:
			v.flush(pending)
			pending = make(map[string]int64)
		case <-v.stop:
		drain:
			for {
				select {
				case id := <-v.views:
					pending[id]++
				default:
					break drain
				}
			}
			v.flush(pending)
			return
		}
	}
}

func (v *viewRecorder) flush(pending map[string]int64) {
	if len(pending) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), viewFlushTimeout)
	defer cancel()

	for id, delta := range pending {
		err := v.docs.IncrementViews(ctx, id, delta)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrNotFound):
			v.logger.Debug("view count skipped for deleted document", "document_id", id)
		default:
			metrics.ViewUpdatesDropped.Add(float64(delta))
			v.logger.Warn("failed to flush view count",
				"document_id", id,
				"views", delta,
				"error", err,
			)
		}
	}
}
