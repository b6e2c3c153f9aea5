package app

import (
	"errors"
	"testing"

	"github.com/spencerjibz/optionbook/business/options/domain"
	"github.com/spencerjibz/optionbook/internal/apperror"
)

var errBoom = errors.New("boom")

func TestRegistry_GetUnknownVenue(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Get("nope"); !apperror.IsAppError(err) {
		t.Fatalf("expected AppError, got %v", err)
	}
}

func TestRegistry_SubscriptionForRoundtrips(t *testing.T) {
	r := NewRegistry()
	r.Register("test", &fakeAdapter{name: "test", dialect: domain.DialectDeribit})

	payload, err := r.SubscriptionFor("test", "BTC-27APR24-56000-C")
	if err != nil {
		t.Fatalf("subscription for: %v", err)
	}
	if string(payload) != `{"sub":"BTC-27APR24-56000-C"}` {
		t.Fatalf("unexpected payload: %s", payload)
	}
}

func TestRegistry_DecodeWrapsParseErrorAsAppError(t *testing.T) {
	r := NewRegistry()
	r.Register("test", &fakeAdapter{
		name:   "test",
		decode: func([]byte) (*Snapshot, error) { return nil, errBoom },
	})

	_, err := r.Decode("test", []byte(`bad`))
	if !apperror.IsAppError(err) {
		t.Fatalf("expected AppError, got %v", err)
	}
	if apperror.GetCode(err) != apperror.CodeParseError {
		t.Fatalf("expected CodeParseError, got %v", apperror.GetCode(err))
	}
}

func TestRegistry_DecodeUnknownVenue(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Decode("nope", []byte(`{}`)); apperror.GetCode(err) != apperror.CodeUnknownExchange {
		t.Fatalf("expected CodeUnknownExchange, got %v", err)
	}
}
