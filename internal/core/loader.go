package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSuperseded is returned for a fetch that a newer Load replaced.
// Callers drop the result without rendering or notifying.
var ErrSuperseded = errors.New("fetch superseded by a newer request")

// DefaultFetchTimeout bounds a single Load when none is configured.
const DefaultFetchTimeout = 15 * time.Second

// Loader fetches pages for one feature grid. A new Load cancels the one in
// flight, so only the latest state's rows are ever delivered. On failure it
// falls back to the last page that loaded.
type Loader struct {
	source  Source
	feature Feature
	timeout time.Duration

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	last   *Page
	stale  bool
}

// NewLoader creates a loader. A non-positive timeout selects
// DefaultFetchTimeout.
func NewLoader(source Source, f Feature, timeout time.Duration) *Loader {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Loader{source: source, feature: f, timeout: timeout}
}

// Load fetches q. On a source error it returns the last good page (or an
// empty one) together with the error. A load overtaken by a newer one
// returns ErrSuperseded and a nil page.
func (l *Loader) Load(ctx context.Context, q Query) (*Page, error) {
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	gen := l.gen
	fetchCtx, cancel := context.WithTimeout(ctx, l.timeout)
	l.cancel = cancel
	l.mu.Unlock()
	defer cancel()

	log := slog.With("feature", l.feature.Key, "fetch_id", uuid.NewString())
	start := time.Now()
	page, err := l.source.Fetch(fetchCtx, l.feature, q)

	l.mu.Lock()
	defer l.mu.Unlock()

	if gen != l.gen {
		log.Debug("fetch superseded", "duration", time.Since(start))
		return nil, ErrSuperseded
	}
	l.cancel = nil

	if err != nil {
		log.Warn("fetch failed", "error", err, "stale_fallback", l.stale, "duration", time.Since(start))
		fallback := l.last
		if fallback == nil {
			fallback = &Page{}
		}
		return fallback, fmt.Errorf("fetch %s: %w", l.feature.Key, err)
	}

	log.Debug("fetch complete", "rows", len(page.Rows), "total", page.Total, "duration", time.Since(start))
	l.last = page
	l.stale = false
	return page, nil
}

// Last returns the most recent successfully loaded page, or nil.
func (l *Loader) Last() *Page {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last
}

// MarkStale records that rows may have changed since the last page loaded.
// The page stays the failure fallback until a fetch succeeds.
func (l *Loader) MarkStale() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stale = l.last != nil
}

// Stale reports whether the last page predates a mutation.
func (l *Loader) Stale() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stale
}

// Stop cancels any fetch in flight.
func (l *Loader) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.gen++
}
