package timeparse

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// maxMillis bounds representable timestamps to ±100,000,000 days around the
// epoch, the range ECMAScript dates cover and the upstream API emits.
const maxMillis = 8.64e15

// dateCodeLen is the length of the compact YYMMDD date code.
const dateCodeLen = 6

// Layouts carrying an explicit zone.
var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05Z07:00",
}

// Layouts without a zone, read as wall-clock time in the parse location.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// MalformedError reports input that looked like a timestamp but could not be
// read as one.
type MalformedError struct {
	Input  string
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed temporal value %q: %s", e.Input, e.Reason)
}

// Parse normalizes raw to an Instant, interpreting zone-less input in Berlin.
// Absent and malformed input are both Unknown.
func Parse(raw any) Instant {
	i, _ := ParseStrictIn(raw, Berlin)
	return i
}

// ParseIn is Parse with an explicit location for zone-less input.
func ParseIn(raw any, loc *time.Location) Instant {
	i, _ := ParseStrictIn(raw, loc)
	return i
}

// ParseStrict is Parse, additionally returning a *MalformedError when raw was
// present but unreadable. Absent input is Unknown with a nil error.
func ParseStrict(raw any) (Instant, error) {
	return ParseStrictIn(raw, Berlin)
}

// ParseStrictIn is ParseStrict with an explicit location for zone-less input.
//
// Rules, first match wins:
//   - absent (nil, "", zero numbers, zero time.Time) is Unknown
//   - time.Time and Instant pass through
//   - a 6 character string is a YYMMDD date code at local midnight
//   - other strings are ISO-8601, numbers are epoch milliseconds
//   - any other type is Unknown
func ParseStrictIn(raw any, loc *time.Location) (Instant, error) {
	if loc == nil {
		loc = Berlin
	}
	if isAbsent(raw) {
		return Unknown(), nil
	}

	switch v := raw.(type) {
	case Value:
		return ParseStrictIn(v.raw, loc)
	case *Value:
		return ParseStrictIn(v.raw, loc)
	case Instant:
		return v, nil
	case *Instant:
		return *v, nil
	case time.Time:
		return FromTime(v), nil
	case *time.Time:
		return FromTime(*v), nil
	case string:
		return parseString(v, loc)
	case json.Number:
		return parseNumber(v)
	case int:
		return fromInt(int64(v))
	case int8:
		return fromInt(int64(v))
	case int16:
		return fromInt(int64(v))
	case int32:
		return fromInt(int64(v))
	case int64:
		return fromInt(v)
	case uint:
		return fromUint(uint64(v))
	case uint8:
		return fromUint(uint64(v))
	case uint16:
		return fromUint(uint64(v))
	case uint32:
		return fromUint(uint64(v))
	case uint64:
		return fromUint(v)
	case float32:
		return fromFloat(float64(v))
	case float64:
		return fromFloat(v)
	}
	return Unknown(), nil
}

// TimestampOrZero returns the epoch milliseconds of raw, or 0 when Unknown.
func TimestampOrZero(raw any) int64 {
	return Parse(raw).OrZero()
}

// ParseDateCode reads a YYMMDD code as midnight in loc. Years are 2000-2099.
func ParseDateCode(code string, loc *time.Location) (time.Time, error) {
	if len(code) != dateCodeLen {
		return time.Time{}, &MalformedError{Input: code, Reason: "date code must have 6 characters"}
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return time.Time{}, &MalformedError{Input: code, Reason: "date code must be numeric"}
		}
	}
	if loc == nil {
		loc = Berlin
	}
	expanded := "20" + code[0:2] + "-" + code[2:4] + "-" + code[4:6]
	t, err := time.ParseInLocation(time.DateOnly, expanded, loc)
	if err != nil {
		return time.Time{}, &MalformedError{Input: code, Reason: err.Error()}
	}
	return t, nil
}

func parseString(s string, loc *time.Location) (Instant, error) {
	if len(s) == dateCodeLen {
		t, err := ParseDateCode(s, loc)
		if err != nil {
			return Unknown(), err
		}
		return FromTime(t), nil
	}

	trimmed := strings.TrimSpace(s)
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return checkRange(s, t.UnixMilli())
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, trimmed, loc); err == nil {
			return checkRange(s, t.UnixMilli())
		}
	}
	return Unknown(), &MalformedError{Input: s, Reason: "not an ISO-8601 date or date-time"}
}

func parseNumber(n json.Number) (Instant, error) {
	if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		return fromInt(i)
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return Unknown(), &MalformedError{Input: string(n), Reason: "not a number"}
	}
	return fromFloat(f)
}

func fromInt(ms int64) (Instant, error) {
	return checkRange(strconv.FormatInt(ms, 10), ms)
}

func fromUint(ms uint64) (Instant, error) {
	if ms > math.MaxInt64 {
		return Unknown(), &MalformedError{Input: strconv.FormatUint(ms, 10), Reason: "timestamp out of range"}
	}
	return fromInt(int64(ms))
}

func fromFloat(f float64) (Instant, error) {
	input := strconv.FormatFloat(f, 'g', -1, 64)
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > maxMillis {
		return Unknown(), &MalformedError{Input: input, Reason: "timestamp out of range"}
	}
	return checkRange(input, int64(math.Trunc(f)))
}

func checkRange(input string, ms int64) (Instant, error) {
	if ms > maxMillis || ms < -maxMillis {
		return Unknown(), &MalformedError{Input: input, Reason: "timestamp out of range"}
	}
	return FromUnixMilli(ms), nil
}

func isAbsent(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case Value:
		return isAbsent(v.raw)
	case *Value:
		return v == nil || isAbsent(v.raw)
	case *Instant:
		return v == nil
	case *time.Time:
		return v == nil || v.IsZero()
	case time.Time:
		return v.IsZero()
	case string:
		return v == ""
	case bool:
		return !v
	case json.Number:
		f, err := strconv.ParseFloat(string(v), 64)
		return err == nil && (f == 0 || math.IsNaN(f))
	case int:
		return v == 0
	case int8:
		return v == 0
	case int16:
		return v == 0
	case int32:
		return v == 0
	case int64:
		return v == 0
	case uint:
		return v == 0
	case uint8:
		return v == 0
	case uint16:
		return v == 0
	case uint32:
		return v == 0
	case uint64:
		return v == 0
	case float32:
		return v == 0 || math.IsNaN(float64(v))
	case float64:
		return v == 0 || math.IsNaN(v)
	}
	return false
}
