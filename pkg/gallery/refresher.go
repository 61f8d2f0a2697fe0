package gallery

import (
	"context"
	"sync"
	"time"

	"pixgallery/pkg/log"
)

// DefaultRefreshInterval is how often the library refreshes in the background.
const DefaultRefreshInterval = 30 * time.Second

// Refresher refreshes a library on a fixed wall-clock interval until stopped.
type Refresher struct {
	library  *Library
	interval time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewRefresher creates a refresher; interval <= 0 means DefaultRefreshInterval.
func NewRefresher(library *Library, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Refresher{
		library:  library,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the refresh loop. The first refresh happens one interval later.
func (r *Refresher) Start(ctx context.Context) {
	r.wg.Add(1)
	go r.loop(ctx)

	log.Debug().Dur("interval", r.interval).Msg("Refresher started")
}

// Stop ends the loop and waits for an in-flight refresh to return.
func (r *Refresher) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	r.wg.Wait()
	log.Debug().Msg("Refresher stopped")
}

func (r *Refresher) loop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Refresher) tick(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Stop cancels a refresh that is still running.
	go func() {
		select {
		case <-r.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := r.library.Refresh(ctx); err != nil && !IsCanceled(err) {
		log.Debug().Err(err).Msg("Background refresh failed, keeping stale data")
	}
}
