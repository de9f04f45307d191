// Package timeparse normalizes the date and time representations found in
// IRIS payloads and dashboard URLs into a single canonical instant.
//
// Every parse yields an Instant, which is either a millisecond timestamp or
// Unknown. Malformed input never produces a sentinel number; it is Unknown,
// and ParseStrict reports why.
package timeparse

import (
	"encoding/json"
	"strconv"
	"time"
)

// Instant is a point in time with millisecond precision, or Unknown.
// The zero value is Unknown. A known instant at the epoch is distinct from
// Unknown.
type Instant struct {
	ms    int64
	known bool
}

// Unknown returns the instant used for absent or unparseable input.
func Unknown() Instant {
	return Instant{}
}

// FromUnixMilli returns a known instant at ms milliseconds since the epoch.
func FromUnixMilli(ms int64) Instant {
	return Instant{ms: ms, known: true}
}

// FromTime returns a known instant for t. A zero time.Time is Unknown.
func FromTime(t time.Time) Instant {
	if t.IsZero() {
		return Unknown()
	}
	return FromUnixMilli(t.UnixMilli())
}

// Known reports whether the instant carries a timestamp.
func (i Instant) Known() bool {
	return i.known
}

// UnixMilli returns the timestamp and whether it is known.
func (i Instant) UnixMilli() (int64, bool) {
	return i.ms, i.known
}

// OrZero returns the timestamp, or 0 for Unknown.
func (i Instant) OrZero() int64 {
	if !i.known {
		return 0
	}
	return i.ms
}

// Time returns the instant in loc, or the zero time.Time for Unknown.
func (i Instant) Time(loc *time.Location) time.Time {
	if !i.known {
		return time.Time{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.UnixMilli(i.ms).In(loc)
}

// Before reports whether i is known and strictly earlier than t.
func (i Instant) Before(t time.Time) bool {
	return i.known && i.ms < t.UnixMilli()
}

func (i Instant) String() string {
	if !i.known {
		return "unknown"
	}
	return time.UnixMilli(i.ms).UTC().Format(time.RFC3339Nano)
}

// MarshalJSON encodes a known instant as epoch milliseconds and Unknown as null.
func (i Instant) MarshalJSON() ([]byte, error) {
	if !i.known {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, i.ms, 10), nil
}

// UnmarshalJSON accepts anything Parse accepts.
func (i *Instant) UnmarshalJSON(data []byte) error {
	var v Value
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*i = Parse(v)
	return nil
}
