// Package domain contains the core domain types and algorithms for the
// options order-book aggregator: instruments, price ladders, order books
// and the cross-venue matching engine.
package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// InstrumentType is the option side: call or put.
type InstrumentType int

const (
	Call InstrumentType = iota
	Put
)

func (t InstrumentType) String() string {
	if t == Put {
		return "Put"
	}
	return "Call"
}

func parseInstrumentType(s string) (InstrumentType, error) {
	switch strings.ToUpper(s) {
	case "C":
		return Call, nil
	case "P":
		return Put, nil
	default:
		return 0, fmt.Errorf("unsupported instrument type %s", s)
	}
}

func instrumentTypeChar(t InstrumentType) (string, error) {
	switch t {
	case Call:
		return "C", nil
	case Put:
		return "P", nil
	default:
		return "", fmt.Errorf("unsupported instrument type value %d", t)
	}
}

// Instrument identifies a specific tradable option contract. It is
// comparable (all fields are value types) so it can be used directly as
// a map key and compared with ==.
type Instrument struct {
	Asset          string
	StrikePrice    int64
	ExpirationDate time.Time // truncated to the calendar date, UTC midnight
	InstrumentType InstrumentType
}

// ToSingularAsset strips everything after the first hyphen in Asset,
// yielding e.g. "BTC" from "BTC-USD". This is the canonical form used to
// reconcile symbols across venues that disagree on the asset string's
// shape (see the Dialect grammars below).
func (i Instrument) ToSingularAsset() Instrument {
	out := i
	if idx := strings.IndexByte(i.Asset, '-'); idx >= 0 {
		out.Asset = i.Asset[:idx]
	}
	return out
}

// Dialect selects which venue's instrument-string grammar to parse or
// format against.
type Dialect int

const (
	// DialectDeribit is the four-part grammar:
	// {asset}-{DDMONYY}-{strike}-{C|P}, formatted upper-case.
	DialectDeribit Dialect = iota
	// DialectOkex is the five-part grammar:
	// {base}-{quote}-{YYMMDD}-{strike}-{C|P}, case preserved.
	DialectOkex
)

var monthAbbrev = map[string]time.Month{
	"JAN": time.January, "FEB": time.February, "MAR": time.March, "APR": time.April,
	"MAY": time.May, "JUN": time.June, "JUL": time.July, "AUG": time.August,
	"SEP": time.September, "OCT": time.October, "NOV": time.November, "DEC": time.December,
}

// ParseInstrument parses an exchange-specific symbol string into a
// canonical Instrument using the given dialect's grammar.
func ParseInstrument(s string, d Dialect) (Instrument, error) {
	switch d {
	case DialectDeribit:
		return parseDialectDeribit(s)
	case DialectOkex:
		return parseDialectOkex(s)
	default:
		return Instrument{}, fmt.Errorf("unknown instrument dialect %d", d)
	}
}

// FormatInstrument is the exact inverse of ParseInstrument per dialect.
func FormatInstrument(i Instrument, d Dialect) (string, error) {
	switch d {
	case DialectDeribit:
		return formatDialectDeribit(i)
	case DialectOkex:
		return formatDialectOkex(i)
	default:
		return "", fmt.Errorf("unknown instrument dialect %d", d)
	}
}

func parseDialectDeribit(s string) (Instrument, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 4 {
		return Instrument{}, fmt.Errorf("deribit instrument %q: expected 4 hyphen-separated parts, got %d", s, len(parts))
	}

	date, err := parseDDMONYY(parts[1])
	if err != nil {
		return Instrument{}, fmt.Errorf("deribit instrument %q: %w", s, err)
	}

	strike, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return Instrument{}, fmt.Errorf("deribit instrument %q: invalid strike: %w", s, err)
	}

	itype, err := parseInstrumentType(parts[3])
	if err != nil {
		return Instrument{}, err
	}

	return Instrument{
		Asset:          parts[0],
		StrikePrice:    strike,
		ExpirationDate: date,
		InstrumentType: itype,
	}, nil
}

func parseDDMONYY(s string) (time.Time, error) {
	if len(s) != 7 {
		return time.Time{}, fmt.Errorf("invalid date %q: expected DDMONYY", s)
	}
	day, err := strconv.Atoi(s[0:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day in %q: %w", s, err)
	}
	month, ok := monthAbbrev[strings.ToUpper(s[2:5])]
	if !ok {
		return time.Time{}, fmt.Errorf("invalid month abbreviation in %q", s)
	}
	year, err := strconv.Atoi(s[5:7])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid year in %q: %w", s, err)
	}
	return time.Date(2000+year, month, day, 0, 0, 0, 0, time.UTC), nil
}

func formatDialectDeribit(i Instrument) (string, error) {
	typeChar, err := instrumentTypeChar(i.InstrumentType)
	if err != nil {
		return "", err
	}
	dateStr := fmt.Sprintf("%02d%s%02d", i.ExpirationDate.Day(), strings.ToUpper(i.ExpirationDate.Month().String()[:3]), i.ExpirationDate.Year()%100)
	s := fmt.Sprintf("%s-%s-%d-%s", i.Asset, dateStr, i.StrikePrice, typeChar)
	return strings.ToUpper(s), nil
}

func parseDialectOkex(s string) (Instrument, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 5 {
		return Instrument{}, fmt.Errorf("okex instrument %q: expected 5 hyphen-separated parts, got %d", s, len(parts))
	}

	date, err := parseYYMMDD(parts[2])
	if err != nil {
		return Instrument{}, fmt.Errorf("okex instrument %q: %w", s, err)
	}

	strike, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return Instrument{}, fmt.Errorf("okex instrument %q: invalid strike: %w", s, err)
	}

	itype, err := parseInstrumentType(parts[4])
	if err != nil {
		return Instrument{}, err
	}

	return Instrument{
		Asset:          parts[0] + "-" + parts[1],
		StrikePrice:    strike,
		ExpirationDate: date,
		InstrumentType: itype,
	}, nil
}

func parseYYMMDD(s string) (time.Time, error) {
	if len(s) != 6 {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYMMDD", s)
	}
	year, err := strconv.Atoi(s[0:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid year in %q: %w", s, err)
	}
	month, err := strconv.Atoi(s[2:4])
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("invalid month in %q", s)
	}
	day, err := strconv.Atoi(s[4:6])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day in %q: %w", s, err)
	}
	return time.Date(2000+year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

func formatDialectOkex(i Instrument) (string, error) {
	typeChar, err := instrumentTypeChar(i.InstrumentType)
	if err != nil {
		return "", err
	}
	base, quote := i.Asset, ""
	if idx := strings.IndexByte(i.Asset, '-'); idx >= 0 {
		base, quote = i.Asset[:idx], i.Asset[idx+1:]
	}
	dateStr := fmt.Sprintf("%02d%02d%02d", i.ExpirationDate.Year()%100, int(i.ExpirationDate.Month()), i.ExpirationDate.Day())
	return fmt.Sprintf("%s-%s-%s-%d-%s", base, quote, dateStr, i.StrikePrice, typeChar), nil
}
