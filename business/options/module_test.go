package options

import (
	"io"
	"testing"

	"github.com/spencerjibz/optionbook/internal/config"
	"github.com/spencerjibz/optionbook/internal/logger"
)

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func TestFirstAssetsFor_Empty(t *testing.T) {
	d, o := firstAssetsFor(nil)
	if d != "" || o != "" {
		t.Fatalf("expected empty symbols, got %q/%q", d, o)
	}
}

func TestFirstAssetsFor_UsesFirstAssetForBothVenues(t *testing.T) {
	d, o := firstAssetsFor([]string{"BTC", "ETH"})
	if d != "BTC" || o != "BTC" {
		t.Fatalf("expected both venues to get BTC, got %q/%q", d, o)
	}
}

func TestBuildVenueWirings_WiresDeribitAndOkex(t *testing.T) {
	cfg := &config.Config{
		Aggregator: config.AggregatorConfig{Assets: []string{"BTC"}, ResubscribePerMinute: 60},
		Deribit:    config.VenueConfig{URL: "wss://www.deribit.com/ws/api/v2"},
		Okex:       config.VenueConfig{URL: "wss://ws.okx.com:8443/ws/v5/public"},
	}

	wirings, err := buildVenueWirings(cfg, testLogger())
	if err != nil {
		t.Fatalf("buildVenueWirings: %v", err)
	}
	if len(wirings) != 2 {
		t.Fatalf("expected 2 venue wirings, got %d", len(wirings))
	}

	byVenue := make(map[string]*venueWiring, len(wirings))
	for _, w := range wirings {
		byVenue[w.venue] = w
	}

	deribit, ok := byVenue["deribit"]
	if !ok {
		t.Fatal("missing deribit wiring")
	}
	if deribit.runtime == nil || deribit.runtime.Book == nil || deribit.runtime.Ingestion == nil {
		t.Fatal("deribit wiring missing runtime components")
	}
	if deribit.symbol != "BTC" {
		t.Fatalf("expected deribit symbol BTC, got %q", deribit.symbol)
	}

	okex, ok := byVenue["okex"]
	if !ok {
		t.Fatal("missing okex wiring")
	}
	if okex.runtime == nil || okex.runtime.Book == nil || okex.runtime.Ingestion == nil {
		t.Fatal("okex wiring missing runtime components")
	}
	if okex.runtime.Ingestion.Canonicalize == nil {
		t.Fatal("expected okex ingestion to carry a canonicalization func")
	}
}

func TestModule_Startup_ErrorsWithoutPriorRegisterServices(t *testing.T) {
	m := &Module{}
	err := m.Startup(nil, nil)
	if err == nil {
		t.Fatal("expected error when Startup is called before RegisterServices wires any venues")
	}
}
