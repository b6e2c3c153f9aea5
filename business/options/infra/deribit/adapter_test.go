package deribit

import (
	"encoding/json"
	"testing"
)

func TestSubscriptionFor_BuildsChannelTemplate(t *testing.T) {
	a := New()
	payload, err := a.SubscriptionFor("BTC-27APR24-56000-C")
	if err != nil {
		t.Fatalf("subscription for: %v", err)
	}

	var got subscribeRequest
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if got.Method != "public/subscribe" {
		t.Fatalf("method = %q", got.Method)
	}
	want := "book.BTC-27APR24-56000-C.none.20.100ms"
	if len(got.Params.Channels) != 1 || got.Params.Channels[0] != want {
		t.Fatalf("channels = %v, want [%s]", got.Params.Channels, want)
	}
}

func TestDecode_HeartbeatIsNilNil(t *testing.T) {
	a := New()
	snap, err := a.Decode([]byte(`{"jsonrpc":"2.0","method":"heartbeat"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap != nil {
		t.Fatalf("expected nil snapshot for heartbeat, got %+v", snap)
	}
}

func TestDecode_BookNotification(t *testing.T) {
	a := New()
	frame := []byte(`{
		"params": {
			"data": {
				"bids": [[0.90, 50], [0.80, 10]],
				"asks": [[0.72, 30]],
				"instrument_name": "BTC-27APR24-56000-C"
			}
		}
	}`)

	snap, err := a.Decode(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap == nil {
		t.Fatal("expected non-nil snapshot")
	}
	if snap.Instrument.Asset != "BTC" {
		t.Fatalf("asset = %q", snap.Instrument.Asset)
	}
	if len(snap.Bids) != 2 || len(snap.Asks) != 1 {
		t.Fatalf("bids/asks lengths = %d/%d", len(snap.Bids), len(snap.Asks))
	}
	if snap.Asks[0].Price != 0.72 || snap.Asks[0].Qty != 30 {
		t.Fatalf("unexpected ask level: %+v", snap.Asks[0])
	}
}

func TestDecode_UnparseableInstrumentReturnsError(t *testing.T) {
	a := New()
	frame := []byte(`{"params":{"data":{"bids":[],"asks":[],"instrument_name":"BTC-27APR24-56000-X"}}}`)
	if _, err := a.Decode(frame); err == nil {
		t.Fatal("expected parse error for unsupported instrument type")
	}
}
