package app

import (
	"context"
	"sort"
	"sync"

	"github.com/spencerjibz/optionbook/business/options/domain"
	"github.com/spencerjibz/optionbook/internal/logger"
)

// VenueRuntime bundles one venue's live ingestion loop and the book it
// feeds. Instrument-asset canonicalization (spec.md §4.7's
// to_singular_asset reconciliation) happens inside Ingestion itself
// before an instrument ever reaches Book, so every registered venue's
// book is keyed consistently and a single instrument value works for
// OrderBook.MatchOrders' lookup on both sides.
type VenueRuntime struct {
	Venue     string
	Book      *domain.OrderBook
	Ingestion *Ingestion
}

// Coordinator holds one OrderBook and Ingestion per venue (built by the
// caller and passed in as VenueRuntimes), runs one ingestion task per
// venue, and invokes cross-venue matching whenever either side
// finishes a batch, using the peer's book as external liquidity.
type Coordinator struct {
	runtimes map[string]*VenueRuntime
	log      logger.LoggerInterface
}

// NewCoordinator constructs a Coordinator over the given venue runtimes.
func NewCoordinator(log logger.LoggerInterface, runtimes ...*VenueRuntime) *Coordinator {
	c := &Coordinator{
		runtimes: make(map[string]*VenueRuntime, len(runtimes)),
		log:      log,
	}
	for _, rt := range runtimes {
		c.runtimes[rt.Venue] = rt
		rt.Ingestion.MatchWith = c.matchAgainstPeers(rt.Venue)
	}
	return c
}

// matchAgainstPeers returns a MatchFunc that runs instrument's matching
// pass on venue's book against every other registered venue's book.
// AB/BA deadlock safety does not come from the order peers are iterated
// in here: OrderBook.MatchOrders itself always locks the two books it
// touches in a fixed global order (by ExchangeName), regardless of which
// is the receiver, so two venues finishing a batch concurrently can never
// lock out of order against each other.
func (c *Coordinator) matchAgainstPeers(venue string) MatchFunc {
	return func(ctx context.Context, book *domain.OrderBook, instrument domain.Instrument) ([]domain.MatchEvent, error) {
		peers := c.peerNames(venue)

		var all []domain.MatchEvent
		for _, peerName := range peers {
			peer := c.runtimes[peerName]
			peer.Book.AddAsset(instrument)

			events, err := book.MatchOrders(instrument, peer.Book)
			if err != nil {
				return all, err
			}
			all = append(all, events...)
		}

		if len(peers) == 0 {
			return book.MatchOrders(instrument, nil)
		}
		return all, nil
	}
}

// peerNames returns every registered venue other than venue, sorted for
// deterministic iteration order (logging/testing), not lock safety.
func (c *Coordinator) peerNames(venue string) []string {
	names := make([]string, 0, len(c.runtimes)-1)
	for name := range c.runtimes {
		if name != venue {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Run starts every venue's ingestion loop and blocks until ctx is
// cancelled or every loop has exited.
func (c *Coordinator) Run(ctx context.Context, symbols map[string]string) error {
	var wg sync.WaitGroup
	errs := make(chan error, len(c.runtimes))

	for venue, rt := range c.runtimes {
		venue, rt := venue, rt
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := rt.Ingestion.Subscribe(ctx, symbols[venue]); err != nil {
				c.log.Error(ctx, "subscription failed", "venue", venue, "error", err)
				errs <- err
				return
			}
			if err := rt.Ingestion.Run(ctx); err != nil && ctx.Err() == nil {
				c.log.Error(ctx, "ingestion loop terminated", "venue", venue, "error", err)
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
