package timeparse

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_AbsentInputIsUnknown(t *testing.T) {
	var nilTime *time.Time
	var nilValue *Value

	tests := []struct {
		name string
		raw  any
	}{
		{"nil", nil},
		{"empty string", ""},
		{"zero int", 0},
		{"zero float", 0.0},
		{"NaN", math.NaN()},
		{"zero json number", json.Number("0")},
		{"zero time", time.Time{}},
		{"nil time pointer", nilTime},
		{"nil value pointer", nilValue},
		{"empty value", Value{}},
		{"false", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i, err := ParseStrict(tt.raw)
			assert.NoError(t, err)
			assert.False(t, i.Known())
			assert.Equal(t, int64(0), TimestampOrZero(tt.raw))
		})
	}
}

func TestParse_CanonicalPassThrough(t *testing.T) {
	ts := time.Date(2024, 3, 10, 7, 45, 12, 345_000_000, time.UTC)

	assert.Equal(t, ts.UnixMilli(), Parse(ts).OrZero())
	assert.Equal(t, ts.UnixMilli(), Parse(&ts).OrZero())

	instant := FromUnixMilli(42)
	assert.Equal(t, instant, Parse(instant))
	assert.Equal(t, instant, Parse(&instant))

	// A known instant at the epoch is not the same as unknown.
	epoch := FromUnixMilli(0)
	assert.True(t, Parse(epoch).Known())
	assert.NotEqual(t, Unknown(), Parse(epoch))
}

func TestParse_DateCode(t *testing.T) {
	i, err := ParseStrict("240115")
	require.NoError(t, err)

	want := time.Date(2024, 1, 15, 0, 0, 0, 0, Berlin)
	assert.Equal(t, want.UnixMilli(), i.OrZero())
	assert.Equal(t, time.Date(2024, 1, 14, 23, 0, 0, 0, time.UTC).UnixMilli(), i.OrZero())

	summer := Parse("240701")
	assert.Equal(t, time.Date(2024, 6, 30, 22, 0, 0, 0, time.UTC).UnixMilli(), summer.OrZero())

	// The century is always 20xx.
	assert.Equal(t, 2099, Parse("991231").Time(Berlin).Year())
	assert.Equal(t, 2000, Parse("000101").Time(Berlin).Year())
}

func TestParse_DateCodeInOtherLocation(t *testing.T) {
	i := ParseIn("240115", time.UTC)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC).UnixMilli(), i.OrZero())
}

func TestParse_MalformedIsUnknown(t *testing.T) {
	tests := []struct {
		name string
		raw  any
	}{
		{"invalid month in date code", "241345"},
		{"non leap day", "230229"},
		{"letters in date code", "abcdef"},
		{"six chars with spaces", " 2401 "},
		{"garbage string", "not a date"},
		{"numeric string", "1705312800000"},
		{"infinite number", math.Inf(1)},
		{"huge number", 1e17},
		{"out of range int", int64(9_000_000_000_000_000)},
		{"bad json number", json.Number("12e")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i, err := ParseStrict(tt.raw)
			assert.False(t, i.Known())

			var malformed *MalformedError
			require.ErrorAs(t, err, &malformed)
			assert.NotEmpty(t, malformed.Input)

			assert.False(t, Parse(tt.raw).Known())
			assert.Equal(t, int64(0), TimestampOrZero(tt.raw))
		})
	}
}

func TestParse_UnsupportedTypeIsUnknown(t *testing.T) {
	for _, raw := range []any{true, struct{}{}, []string{"240115"}, map[string]int{"a": 1}} {
		i, err := ParseStrict(raw)
		assert.NoError(t, err)
		assert.False(t, i.Known())
	}
}

func TestParse_ISOStrings(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"utc", "2024-01-15T10:30:00Z", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"offset", "2024-07-01T08:00:00+02:00", time.Date(2024, 7, 1, 6, 0, 0, 0, time.UTC)},
		{"fraction", "2024-01-15T10:30:00.250Z", time.Date(2024, 1, 15, 10, 30, 0, 250_000_000, time.UTC)},
		{"naive date-time is Berlin", "2024-01-15T10:30:00", time.Date(2024, 1, 15, 10, 30, 0, 0, Berlin)},
		{"naive without seconds", "2024-01-15T10:30", time.Date(2024, 1, 15, 10, 30, 0, 0, Berlin)},
		{"space separated", "2024-01-15 10:30:00", time.Date(2024, 1, 15, 10, 30, 0, 0, Berlin)},
		{"date only", "2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, Berlin)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i, err := ParseStrict(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want.UnixMilli(), i.OrZero())
		})
	}
}

func TestParse_Numbers(t *testing.T) {
	const ms = int64(1705312800000)

	assert.Equal(t, ms, Parse(ms).OrZero())
	assert.Equal(t, ms, Parse(int(ms)).OrZero())
	assert.Equal(t, ms, Parse(uint64(ms)).OrZero())
	assert.Equal(t, ms, Parse(float64(ms)+0.7).OrZero())
	assert.Equal(t, ms, Parse(json.Number("1705312800000")).OrZero())
	assert.Equal(t, ms, Parse(json.Number("1.7053128e12")).OrZero())
	assert.Equal(t, int64(-1000), Parse(-1000).OrZero())
}

func TestParse_Deterministic(t *testing.T) {
	inputs := []any{"240115", "2024-01-15T10:30:00", 1705312800000, nil, "garbage"}
	for _, raw := range inputs {
		assert.Equal(t, Parse(raw), Parse(raw))
	}
}

func TestParseDateCode(t *testing.T) {
	d, err := ParseDateCode("240229", Berlin)
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 2, 29, 0, 0, 0, 0, Berlin).Equal(d))

	_, err = ParseDateCode("2402", Berlin)
	assert.Error(t, err)

	_, err = ParseDateCode("24-2-1", Berlin)
	assert.Error(t, err)
}

func TestInstant_JSON(t *testing.T) {
	b, err := json.Marshal(FromUnixMilli(1705312800000))
	require.NoError(t, err)
	assert.Equal(t, "1705312800000", string(b))

	b, err = json.Marshal(Unknown())
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))

	var i Instant
	require.NoError(t, json.Unmarshal([]byte(`"240115"`), &i))
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, Berlin).UnixMilli(), i.OrZero())
}

func TestInstant_Before(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	assert.True(t, FromTime(now.Add(-time.Minute)).Before(now))
	assert.False(t, FromTime(now).Before(now))
	assert.False(t, Unknown().Before(now))
}

func TestValue_UnmarshalJSON(t *testing.T) {
	var movement struct {
		Planned Value `json:"planned"`
		Current Value `json:"current"`
		Missing Value `json:"missing"`
	}
	data := `{"planned": "2024-01-15T10:30:00", "current": 1705312800000, "missing": null}`
	require.NoError(t, json.Unmarshal([]byte(data), &movement))

	assert.Equal(t, "2024-01-15T10:30:00", movement.Planned.Raw())
	assert.Equal(t, json.Number("1705312800000"), movement.Current.Raw())
	assert.True(t, movement.Missing.IsZero())
	assert.False(t, movement.Planned.IsZero())

	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, Berlin).UnixMilli(), movement.Planned.Instant().OrZero())
	assert.Equal(t, int64(1705312800000), Parse(movement.Current).OrZero())
}

func TestValue_MarshalKeepsWireForm(t *testing.T) {
	v := NewValue("2024-01-15T10:30:00")
	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `"2024-01-15T10:30:00"`, string(b))

	b, err = json.Marshal(Value{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}

func TestParse_DateCodeIsLocalMidnight(t *testing.T) {
	i := Parse("240615")
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, Berlin).UnixMilli(), i.OrZero())

	// Reparsing a parsed instant is a no-op.
	assert.Equal(t, i, Parse(i))
	assert.Equal(t, i, Parse(Parse(i)))
	assert.Equal(t, i, Parse(NewValue(i)))
}
