package app

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/spencerjibz/optionbook/business/options/domain"
	"github.com/spencerjibz/optionbook/internal/apperror"
	"github.com/spencerjibz/optionbook/internal/circuit"
	"github.com/spencerjibz/optionbook/internal/logger"
	"github.com/spencerjibz/optionbook/internal/ratelimit"
)

const (
	tracerName = "github.com/spencerjibz/optionbook/business/options/app"
	meterName  = "github.com/spencerjibz/optionbook/business/options/app"
)

// ingestionMetrics holds OTEL metric instruments for one venue's loop.
type ingestionMetrics struct {
	framesDecoded    metric.Int64Counter
	framesSkipped    metric.Int64Counter
	ordersCompleted  metric.Int64Counter
	ordersPartial    metric.Int64Counter
	arbitrageFills   metric.Int64Counter
	subscriptionSend metric.Int64Counter
}

// MatchFunc runs a matching pass for instrument once a batch of orders has
// been applied to the venue's own book, against whatever counterparty
// book the coordinator has chosen for cross-venue matching (nil for
// single-book self-matching).
type MatchFunc func(ctx context.Context, book *domain.OrderBook, instrument domain.Instrument) ([]domain.MatchEvent, error)

// Ingestion runs the per-venue ingestion loop described in spec §4.6: it
// subscribes, decodes frames into Snapshots, applies them to the venue's
// book and invokes the matching engine after each batch.
type Ingestion struct {
	Venue     string
	Adapter   VenueAdapter
	Book      *domain.OrderBook
	Source    MessageSource
	Writer    SubscriptionWriter
	Clock     Clock
	Breaker   *circuit.Breaker
	Limiter   *ratelimit.Limiter
	Log       logger.LoggerInterface
	MatchWith MatchFunc

	// Canonicalize reconciles this venue's native instrument-asset form
	// with the cross-venue canonical form before the instrument is
	// registered in Book, so that a peer venue disagreeing on the asset
	// shape (e.g. Okex's "BTC-USD" vs Deribit's "BTC") still keys both
	// books' tables identically for OrderBook.MatchOrders' single-key
	// lookup. Nil means this venue's native form is already canonical.
	Canonicalize func(domain.Instrument) domain.Instrument

	tracer  trace.Tracer
	metrics *ingestionMetrics
}

// NewIngestion constructs an Ingestion runtime and initializes its OTEL
// instruments. Breaker/Limiter may be nil, in which case subscription
// writes and resubscription are not wrapped.
func NewIngestion(venue string, adapter VenueAdapter, book *domain.OrderBook, source MessageSource, writer SubscriptionWriter, clock Clock, breaker *circuit.Breaker, limiter *ratelimit.Limiter, log logger.LoggerInterface, matchWith MatchFunc) (*Ingestion, error) {
	in := &Ingestion{
		Venue:     venue,
		Adapter:   adapter,
		Book:      book,
		Source:    source,
		Writer:    writer,
		Clock:     clock,
		Breaker:   breaker,
		Limiter:   limiter,
		Log:       log,
		MatchWith: matchWith,
		tracer:    otel.Tracer(tracerName),
	}
	if err := in.initMetrics(); err != nil {
		return nil, fmt.Errorf("init ingestion metrics: %w", err)
	}
	return in, nil
}

func (in *Ingestion) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	in.metrics = &ingestionMetrics{}

	if in.metrics.framesDecoded, err = meter.Int64Counter(
		"options_ingestion_frames_decoded_total",
		metric.WithDescription("Frames successfully decoded into a snapshot"),
	); err != nil {
		return err
	}
	if in.metrics.framesSkipped, err = meter.Int64Counter(
		"options_ingestion_frames_skipped_total",
		metric.WithDescription("Frames skipped due to a parse error"),
	); err != nil {
		return err
	}
	if in.metrics.ordersCompleted, err = meter.Int64Counter(
		"options_ingestion_orders_completed_total",
		metric.WithDescription("Orders that reached Completed status during matching"),
	); err != nil {
		return err
	}
	if in.metrics.ordersPartial, err = meter.Int64Counter(
		"options_ingestion_orders_partial_total",
		metric.WithDescription("Orders that reached Partial status during matching"),
	); err != nil {
		return err
	}
	if in.metrics.arbitrageFills, err = meter.Int64Counter(
		"options_ingestion_arbitrage_fills_total",
		metric.WithDescription("Fills flagged as arbitrage (cross-venue exchange tag)"),
	); err != nil {
		return err
	}
	if in.metrics.subscriptionSend, err = meter.Int64Counter(
		"options_ingestion_subscription_sends_total",
		metric.WithDescription("Subscription template writes attempted"),
	); err != nil {
		return err
	}
	return nil
}

// Subscribe acquires the venue's subscription template (optionally
// targeting instrumentOverride) and writes it through the subscription
// writer, wrapped in the circuit breaker when configured.
func (in *Ingestion) Subscribe(ctx context.Context, instrumentOverride string) error {
	ctx, span := in.tracer.Start(ctx, "ingestion.subscribe",
		trace.WithAttributes(attribute.String("venue", in.Venue)))
	defer span.End()

	if in.Limiter != nil {
		if err := in.Limiter.Wait(ctx); err != nil {
			return fmt.Errorf("subscribe %s: rate limit wait: %w", in.Venue, err)
		}
	}

	payload, err := in.Adapter.SubscriptionFor(instrumentOverride)
	if err != nil {
		return apperror.New(apperror.CodeSerializationError,
			apperror.WithCause(err), apperror.WithContext(in.Venue))
	}

	send := func() error { return in.Writer.Write(ctx, payload) }
	if in.Breaker != nil {
		err = in.Breaker.Execute(send)
	} else {
		err = send()
	}
	in.metrics.subscriptionSend.Add(ctx, 1)
	return err
}

// Run drives the ingestion loop until the message source terminates or
// ctx is cancelled: decode each frame, apply it to the venue's book,
// then invoke the matching engine for the instrument the frame named.
func (in *Ingestion) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-in.Source.Messages():
			if !ok {
				if err := in.Source.Err(); err != nil {
					return apperror.New(apperror.CodeTransportError,
						apperror.WithCause(err), apperror.WithContext(in.Venue))
				}
				return nil
			}
			in.handleFrame(ctx, frame)
		}
	}
}

func (in *Ingestion) handleFrame(ctx context.Context, frame []byte) {
	ctx, span := in.tracer.Start(ctx, "ingestion.handle_frame",
		trace.WithAttributes(attribute.String("venue", in.Venue)))
	defer span.End()

	snap, err := in.Adapter.Decode(frame)
	if err != nil {
		in.metrics.framesSkipped.Add(ctx, 1)
		in.Log.Warn(ctx, "skipping unparseable frame", "venue", in.Venue, "error", err)
		return
	}
	if snap == nil {
		return // heartbeat
	}
	in.metrics.framesDecoded.Add(ctx, 1)

	instrument := snap.Instrument
	if in.Canonicalize != nil {
		instrument = in.Canonicalize(instrument)
	}

	in.Book.AddAsset(instrument)
	for _, lvl := range snap.Asks {
		order := domain.NewOrder(in.Clock.NowMillis(), lvl.Price, lvl.Qty, domain.Ask)
		if err := in.Book.AddOrder(instrument, order); err != nil {
			in.Log.Warn(ctx, "add order failed", "venue", in.Venue, "error", err)
		}
	}
	for _, lvl := range snap.Bids {
		order := domain.NewOrder(in.Clock.NowMillis(), lvl.Price, lvl.Qty, domain.Bid)
		if err := in.Book.AddOrder(instrument, order); err != nil {
			in.Log.Warn(ctx, "add order failed", "venue", in.Venue, "error", err)
		}
	}

	events, err := in.MatchWith(ctx, in.Book, instrument)
	if err != nil {
		in.Log.Warn(ctx, "matching pass failed", "venue", in.Venue, "instrument", snap.Instrument, "error", err)
		return
	}
	in.logMatchEvents(ctx, events)
}

func (in *Ingestion) logMatchEvents(ctx context.Context, events []domain.MatchEvent) {
	for _, ev := range events {
		switch ev.Kind {
		case domain.MatchCompleted:
			in.metrics.ordersCompleted.Add(ctx, 1)
			in.Log.Info(ctx, "order completed",
				"venue", in.Venue, "order_id", ev.Order.ID, "quantity", ev.Order.Quantity)
			if ev.Order.IsArbitrage {
				in.metrics.arbitrageFills.Add(ctx, 1)
				in.Log.Info(ctx, "arbitrage detected",
					"venue", in.Venue, "order_id", ev.Order.ID, "filled_with", ev.Order.FilledWith)
			}
		case domain.MatchPartial:
			in.metrics.ordersPartial.Add(ctx, 1)
			in.Log.Info(ctx, "order partially filled",
				"venue", in.Venue, "order_id", ev.Order.ID, "remaining_qty", ev.Order.RemainingQty)
		}
	}
}
