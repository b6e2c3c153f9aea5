package okx

import (
	"encoding/json"
	"testing"
)

func TestSubscriptionFor_BuildsArgsTemplate(t *testing.T) {
	a := New()
	payload, err := a.SubscriptionFor("BTC-USD-240427-56000-C")
	if err != nil {
		t.Fatalf("subscription for: %v", err)
	}

	var got subscribeRequest
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if got.Op != "subscribe" {
		t.Fatalf("op = %q", got.Op)
	}
	if len(got.Args) != 1 || got.Args[0].Channel != "books" || got.Args[0].InstID != "BTC-USD-240427-56000-C" {
		t.Fatalf("args = %+v", got.Args)
	}
}

func TestDecode_NoDataIsNilNil(t *testing.T) {
	a := New()
	snap, err := a.Decode([]byte(`{"event":"subscribe","arg":{"channel":"books","instId":"BTC-USD-240427-56000-C"}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap != nil {
		t.Fatalf("expected nil snapshot, got %+v", snap)
	}
}

func TestDecode_BookNotificationParsesNumericStrings(t *testing.T) {
	a := New()
	frame := []byte(`{
		"arg": {"channel": "books", "instId": "BTC-USD-240427-56000-C"},
		"data": [{
			"bids": [["0.90", "50", "0", "1"]],
			"asks": [["0.72", "30", "0", "1"]]
		}]
	}`)

	snap, err := a.Decode(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap == nil {
		t.Fatal("expected non-nil snapshot")
	}
	if snap.Instrument.Asset != "BTC-USD" {
		t.Fatalf("asset = %q", snap.Instrument.Asset)
	}
	if len(snap.Bids) != 1 || snap.Bids[0].Price != 0.90 || snap.Bids[0].Qty != 50 {
		t.Fatalf("unexpected bid level: %+v", snap.Bids)
	}
}

func TestDecode_MalformedLevelAbortsWholeFrame(t *testing.T) {
	a := New()
	frame := []byte(`{
		"arg": {"channel": "books", "instId": "BTC-USD-240427-56000-C"},
		"data": [{"bids": [["not-a-number", "50"]], "asks": []}]
	}`)
	if _, err := a.Decode(frame); err == nil {
		t.Fatal("expected decode error for malformed numeric string")
	}
}
