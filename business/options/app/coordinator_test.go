package app

import (
	"context"
	"testing"

	"github.com/spencerjibz/optionbook/business/options/domain"
)

func newTestRuntime(t *testing.T, venue string) *VenueRuntime {
	t.Helper()
	book := domain.NewOrderBook(venue)
	source := newFakeSource()
	source.closeWith(nil)
	in, err := NewIngestion(venue, &fakeAdapter{name: venue}, book, source, &fakeWriter{}, &fakeClock{}, nil, nil, testLogger(), nil)
	if err != nil {
		t.Fatalf("new ingestion: %v", err)
	}
	return &VenueRuntime{Venue: venue, Book: book, Ingestion: in}
}

func TestCoordinator_PeerNames_ExcludesSelfAndSorts(t *testing.T) {
	c := NewCoordinator(testLogger(), newTestRuntime(t, "okx"), newTestRuntime(t, "deribit"), newTestRuntime(t, "bybit"))

	peers := c.peerNames("deribit")
	want := []string{"bybit", "okx"}
	if len(peers) != len(want) {
		t.Fatalf("peers = %v, want %v", peers, want)
	}
	for i := range want {
		if peers[i] != want[i] {
			t.Fatalf("peers = %v, want %v", peers, want)
		}
	}
}

func TestCoordinator_MatchAgainstPeers_RegistersInstrumentOnPeerBook(t *testing.T) {
	deribit := newTestRuntime(t, "deribit")
	okx := newTestRuntime(t, "okx")
	c := NewCoordinator(testLogger(), deribit, okx)

	instrument := testInstrument()
	deribit.Book.AddAsset(instrument)
	deribit.Book.AddOrder(instrument, domain.NewOrder(1, 0.72, 30, domain.Ask))

	events, err := deribit.Ingestion.MatchWith(context.Background(), deribit.Book, instrument)
	if err != nil {
		t.Fatalf("match against peers: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no fills with empty peer book, got %d", len(events))
	}

	if _, ok := okx.Book.Columns(instrument); !ok {
		t.Fatal("expected instrument to be registered on peer book as a side effect of matching")
	}
}

func TestCoordinator_MatchAgainstPeers_NoPeersSelfMatches(t *testing.T) {
	solo := newTestRuntime(t, "solo")
	c := NewCoordinator(testLogger(), solo)

	instrument := testInstrument()
	solo.Book.AddAsset(instrument)
	solo.Book.AddOrder(instrument, domain.NewOrder(1, 0.72, 30, domain.Ask))
	solo.Book.AddOrder(instrument, domain.NewOrder(2, 0.90, 30, domain.Bid))

	events, err := c.matchAgainstPeers("solo")(context.Background(), solo.Book, instrument)
	if err != nil {
		t.Fatalf("match against peers: %v", err)
	}
	if len(events) == 0 {
		t.Fatal("expected self-match to produce at least one fill event")
	}
}
