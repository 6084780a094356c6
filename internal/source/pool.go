package source

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ragulg06/RAP-HeadLine-HQ/pkg/models"
	"github.com/ragulg06/RAP-HeadLine-HQ/pkg/utils"
)

// Pool issues one fetch per configured source, concurrently, each wrapped
// with an individual deadline. The pool itself never fails: every outcome is
// captured as a SourceResult, and sources still pending when the pool-wide
// deadline elapses are recorded with status timeout.
type Pool struct {
	sources          []Source
	perSourceTimeout time.Duration
	poolDeadline     time.Duration
	logger           *log.Logger

	// flight collapses concurrent fetches for the same source+company+window
	// into a single upstream call.
	flight singleflight.Group
}

// NewPool creates a fetcher pool over the given sources.
func NewPool(sources []Source, perSourceTimeout, poolDeadline time.Duration) *Pool {
	return &Pool{
		sources:          sources,
		perSourceTimeout: perSourceTimeout,
		poolDeadline:     poolDeadline,
		logger:           log.New(log.Writer(), "[pool] ", log.LstdFlags),
	}
}

// Sources returns the configured sources.
func (p *Pool) Sources() []Source { return p.sources }

// SourceIDs returns the IDs of all configured sources.
func (p *Pool) SourceIDs() []string {
	ids := make([]string, len(p.sources))
	for i, s := range p.sources {
		ids[i] = s.ID()
	}
	return ids
}

// FetchAll fans out one fetch per source and collects every outcome. The
// returned slice always has one SourceResult per configured source, in
// configuration order.
func (p *Pool) FetchAll(ctx context.Context, company string, window utils.Window) []models.SourceResult {
	type settled struct {
		idx    int
		result models.SourceResult
	}

	ch := make(chan settled, len(p.sources))
	for i, src := range p.sources {
		go func(idx int, src Source) {
			ch <- settled{idx: idx, result: p.fetchOne(ctx, src, company, window)}
		}(i, src)
	}

	deadline := time.NewTimer(p.poolDeadline)
	defer deadline.Stop()

	results := make([]models.SourceResult, len(p.sources))
	done := make([]bool, len(p.sources))
	remaining := len(p.sources)

collect:
	for remaining > 0 {
		select {
		case s := <-ch:
			results[s.idx] = s.result
			done[s.idx] = true
			remaining--
		case <-deadline.C:
			break collect
		case <-ctx.Done():
			break collect
		}
	}

	// Sources still pending at the pool deadline count as timed out. Their
	// goroutines finish in the background and drain into the buffered channel.
	now := time.Now()
	for i, ok := range done {
		if !ok {
			results[i] = models.SourceResult{
				SourceID:    p.sources[i].ID(),
				Status:      models.SourceTimeout,
				ErrorDetail: "pool deadline elapsed",
				FetchedAt:   now,
			}
		}
	}

	return results
}

// fetchOne runs a single source fetch under its own deadline, mapping every
// failure mode onto a SourceResult status.
func (p *Pool) fetchOne(ctx context.Context, src Source, company string, window utils.Window) (result models.SourceResult) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.perSourceTimeout)
	defer cancel()

	result = models.SourceResult{
		SourceID:  src.ID(),
		FetchedAt: time.Now(),
	}

	// A panicking source must not take the pool down with it.
	defer func() {
		if r := recover(); r != nil {
			p.logger.Printf("source %s panicked: %v", src.ID(), r)
			result.Status = models.SourceError
			result.ErrorDetail = fmt.Sprintf("panic: %v", r)
			result.Items = nil
		}
	}()

	flightKey := src.ID() + ":" + Key(company, window)
	v, err, _ := p.flight.Do(flightKey, func() (interface{}, error) {
		return src.Fetch(fetchCtx, company, window)
	})
	var items []models.RawItem
	if v != nil {
		items = v.([]models.RawItem)
	}
	result.FetchedAt = time.Now()

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(fetchCtx.Err(), context.DeadlineExceeded):
		result.Status = models.SourceTimeout
		result.ErrorDetail = "source timeout"
	case errors.Is(err, ErrNoResults) || (err == nil && len(items) == 0):
		result.Status = models.SourceEmpty
		result.ErrorDetail = "no items returned"
	case err != nil:
		p.logger.Printf("source %s failed: %v", src.ID(), err)
		result.Status = models.SourceError
		result.ErrorDetail = err.Error()
	default:
		result.Status = models.SourceOK
		result.Items = items
	}

	return result
}
