package timeparse

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Value holds a temporal field exactly as it arrived on the wire, so the
// payload can be passed through unchanged and parsed lazily.
type Value struct {
	raw any
}

// NewValue wraps raw. Strings, numbers, time.Time and Instant are meaningful;
// anything else parses as Unknown.
func NewValue(raw any) Value {
	if v, ok := raw.(Value); ok {
		return v
	}
	return Value{raw: raw}
}

// Raw returns the wrapped representation.
func (v Value) Raw() any {
	return v.raw
}

// IsZero reports whether the value is absent. It backs the omitzero tag.
func (v Value) IsZero() bool {
	return isAbsent(v.raw)
}

// Instant parses the value in Berlin.
func (v Value) Instant() Instant {
	return Parse(v.raw)
}

func (v Value) String() string {
	if v.raw == nil {
		return ""
	}
	return fmt.Sprint(v.raw)
}

// UnmarshalJSON keeps numbers as json.Number so large epoch milliseconds
// survive without float rounding.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decoding temporal value: %w", err)
	}
	v.raw = raw
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch raw := v.raw.(type) {
	case Instant:
		return raw.MarshalJSON()
	case *Instant:
		if raw == nil {
			return []byte("null"), nil
		}
		return raw.MarshalJSON()
	}
	return json.Marshal(v.raw)
}
