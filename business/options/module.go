// Package options implements the multi-exchange options order-book
// aggregation and cross-venue matching bounded context.
package options

import (
	"context"
	"fmt"
	"time"

	"github.com/spencerjibz/optionbook/business/options/app"
	optionsDI "github.com/spencerjibz/optionbook/business/options/di"
	"github.com/spencerjibz/optionbook/business/options/domain"
	"github.com/spencerjibz/optionbook/business/options/infra/deribit"
	"github.com/spencerjibz/optionbook/business/options/infra/okx"
	"github.com/spencerjibz/optionbook/business/options/infra/transport"
	"github.com/spencerjibz/optionbook/internal/circuit"
	"github.com/spencerjibz/optionbook/internal/config"
	"github.com/spencerjibz/optionbook/internal/di"
	"github.com/spencerjibz/optionbook/internal/logger"
	"github.com/spencerjibz/optionbook/internal/monolith"
	"github.com/spencerjibz/optionbook/internal/ratelimit"
	"github.com/spencerjibz/optionbook/internal/wsconn"
)

// Module implements the options bounded context. The same *Module value
// must be passed to both RegisterServices and Startup (monolith.New's
// RegisterModules/StartModules do this), since the per-venue transports
// built during registration are recovered from the receiver at startup.
type Module struct {
	wirings []*venueWiring
}

// venueWiring bundles everything built for one venue so Startup can reach
// back into it to dial the connection and kick off the subscription.
type venueWiring struct {
	venue   string
	adapter app.VenueAdapter
	client  *transport.WSClient
	runtime *app.VenueRuntime
	symbol  string
}

// RegisterServices wires the exchange registry, one OrderBook and
// Ingestion per venue, and the cross-venue Coordinator into the DI
// container. Network connections are not opened here; that happens in
// Startup, matching the teacher's "construct eagerly, connect lazily"
// split.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, optionsDI.Registry, func(sr di.ServiceRegistry) *app.Registry {
		reg := app.NewRegistry()
		reg.Register("deribit", deribit.New())
		reg.Register("okex", okx.New())
		return reg
	})

	di.RegisterToken(c, optionsDI.Coordinator, func(sr di.ServiceRegistry) *app.Coordinator {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		wirings, err := buildVenueWirings(cfg, log)
		if err != nil {
			panic("failed to wire options venues: " + err.Error())
		}

		runtimes := make([]*app.VenueRuntime, 0, len(wirings))
		for _, w := range wirings {
			runtimes = append(runtimes, w.runtime)
		}

		m.wirings = wirings
		return app.NewCoordinator(log, runtimes...)
	})

	return nil
}

func buildVenueWirings(cfg *config.Config, log logger.LoggerInterface) ([]*venueWiring, error) {
	deribitSymbol, okexSymbol := firstAssetsFor(cfg.Aggregator.Assets)

	deribitWiring, err := buildVenue(venueParams{
		venue:      "deribit",
		adapter:    deribit.New(),
		wsCfg:      cfg.Deribit,
		canonical:  nil, // Deribit's asset form is already canonical
		resubPerMn: cfg.Aggregator.ResubscribePerMinute,
		log:        log,
		symbol:     deribitSymbol,
	})
	if err != nil {
		return nil, fmt.Errorf("wire deribit venue: %w", err)
	}

	okexWiring, err := buildVenue(venueParams{
		venue:   "okex",
		adapter: okx.New(),
		wsCfg:   cfg.Okex,
		canonical: func(i domain.Instrument) domain.Instrument {
			return i.ToSingularAsset()
		},
		resubPerMn: cfg.Aggregator.ResubscribePerMinute,
		log:        log,
		symbol:     okexSymbol,
	})
	if err != nil {
		return nil, fmt.Errorf("wire okex venue: %w", err)
	}

	return []*venueWiring{deribitWiring, okexWiring}, nil
}

// firstAssetsFor picks the configured symbol for each venue. The
// aggregator's one external knob (spec §6) is a flat symbol list; the
// first entry is used for both venues until per-venue overrides are
// introduced.
func firstAssetsFor(assets []string) (deribitSymbol, okexSymbol string) {
	if len(assets) == 0 {
		return "", ""
	}
	return assets[0], assets[0]
}

type venueParams struct {
	venue      string
	adapter    app.VenueAdapter
	wsCfg      config.VenueConfig
	canonical  func(domain.Instrument) domain.Instrument
	resubPerMn int
	log        logger.LoggerInterface
	symbol     string
}

func buildVenue(p venueParams) (*venueWiring, error) {
	wsCfg := wsconn.DefaultConfig(p.wsCfg.URL, p.venue)
	if p.wsCfg.ReconnectMinWait > 0 {
		wsCfg.InitialBackoff = p.wsCfg.ReconnectMinWait
	}
	if p.wsCfg.ReconnectMaxWait > 0 {
		wsCfg.MaxBackoff = p.wsCfg.ReconnectMaxWait
	}
	if p.wsCfg.KeepAliveEvery > 0 {
		wsCfg.PingInterval = p.wsCfg.KeepAliveEvery
	}
	if p.wsCfg.HandshakeTimeout > 0 {
		wsCfg.ReadTimeout = p.wsCfg.HandshakeTimeout
	}

	client, err := transport.NewWSClient(wsCfg)
	if err != nil {
		return nil, fmt.Errorf("new ws client: %w", err)
	}

	book := domain.NewOrderBook(p.venue)
	breaker := circuit.NewBreaker(p.venue, circuit.DefaultConfig(), p.log)
	limiter := ratelimit.New(p.resubPerMn)
	clock := app.NewSystemClock()

	ingestion, err := app.NewIngestion(p.venue, p.adapter, book, client, client, clock, breaker, limiter, p.log, nil)
	if err != nil {
		return nil, fmt.Errorf("new ingestion: %w", err)
	}
	ingestion.Canonicalize = p.canonical

	return &venueWiring{
		venue:   p.venue,
		adapter: p.adapter,
		client:  client,
		symbol:  p.symbol,
		runtime: &app.VenueRuntime{Venue: p.venue, Book: book, Ingestion: ingestion},
	}, nil
}

// Startup dials every venue's websocket connection and starts the
// coordinator's ingestion loops in the background. It does not block
// startup on a slow or unreachable venue: each connection dials with its
// own retry/backoff in a goroutine.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	if len(m.wirings) == 0 {
		return fmt.Errorf("options: Startup called before RegisterServices wired any venues")
	}

	log := mono.Logger()
	coordinator := di.MustGet[*app.Coordinator](mono.Services(), optionsDI.Coordinator)

	symbols := make(map[string]string, len(m.wirings))
	for _, w := range m.wirings {
		symbols[w.venue] = w.symbol
	}

	for _, w := range m.wirings {
		w := w
		go func() {
			connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			defer cancel()
			if err := w.client.Connect(connectCtx); err != nil {
				log.Warn(ctx, "venue connect failed, retrying in background", "venue", w.venue, "error", err)
				if err := w.client.Connect(ctx); err != nil {
					log.Error(ctx, "venue connect abandoned", "venue", w.venue, "error", err)
					return
				}
			}
		}()
	}

	go func() {
		if err := coordinator.Run(ctx, symbols); err != nil && ctx.Err() == nil {
			log.Error(ctx, "options coordinator exited", "error", err)
		}
	}()

	log.Info(ctx, "options module started", "venues", len(m.wirings))
	return nil
}
