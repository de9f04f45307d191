package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"irisboard.dev/internal/timeparse"
)

const trainPayload = `{
  "id": "1234-240115",
  "operator": null,
  "category": "ICE",
  "number": "1234",
  "line": null,
  "date": "2024-01-15",
  "next_stop": null,
  "past_stops": [
    {
      "id": "s1", "train_id": "1234-240115", "station_id": 8000105,
      "arrival": null,
      "departure": {"platform": "7", "planned": "2024-01-15T10:30:00", "planned_path": ["Mannheim Hbf"]}
    }
  ],
  "next_stops": [
    {
      "id": "s2", "train_id": "1234-240115", "station_id": 8000244,
      "arrival": {"platform": null, "planned": "2024-01-15T11:05:00", "current": "2024-01-15T11:09:00"},
      "departure": null
    }
  ]
}`

func TestTrainDecodesUpstreamPayload(t *testing.T) {
	var train Train
	require.NoError(t, json.Unmarshal([]byte(trainPayload), &train))

	assert.Equal(t, "ICE", train.Category)
	assert.Nil(t, train.Line)
	require.Len(t, train.PastStops, 1)
	require.Len(t, train.NextStops, 1)

	past := train.PastStops[0]
	assert.Nil(t, past.Arrival)
	require.NotNil(t, past.Departure)
	assert.Equal(t, "7", *past.Departure.Platform)
	assert.Equal(t, []string{"Mannheim Hbf"}, past.Departure.PlannedPath)
	assert.True(t, past.Departure.Current.IsZero())

	next := train.NextStops[0]
	assert.Equal(t,
		time.Date(2024, 1, 15, 11, 9, 0, 0, timeparse.Berlin).UnixMilli(),
		next.Arrival.Current.Instant().OrZero())

	stops := train.Stops()
	assert.Equal(t, []*Stop{next, past}, stops)
}

func TestMovementOmitsAbsentCurrent(t *testing.T) {
	m := Movement{Planned: timeparse.NewValue("2024-01-15T10:30:00")}
	data, err := json.Marshal(m)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"planned":"2024-01-15T10:30:00"`)
	assert.NotContains(t, string(data), "current")
}

func TestTrainID(t *testing.T) {
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, timeparse.Berlin)
	assert.Equal(t, "1234-240115", TrainID("1234", date))
}

func TestStationHasCoordinates(t *testing.T) {
	lat, lon := 49.47, 8.47
	assert.True(t, (&Station{Lat: &lat, Lon: &lon}).HasCoordinates())
	assert.False(t, (&Station{Lat: &lat}).HasCoordinates())

	var nilStation *Station
	assert.False(t, nilStation.HasCoordinates())
}
