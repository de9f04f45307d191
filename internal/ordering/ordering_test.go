package ordering

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"irisboard.dev/internal/models"
	"irisboard.dev/internal/timeparse"
)

func at(hhmm string) timeparse.Value {
	return timeparse.NewValue("2024-06-15T" + hhmm + ":00")
}

func movement(hhmm string) *models.Movement {
	if hhmm == "" {
		return nil
	}
	return &models.Movement{Planned: at(hhmm)}
}

func stop(id, arrival, departure string) *models.Stop {
	return &models.Stop{
		ID:        id,
		TrainID:   id,
		Arrival:   movement(arrival),
		Departure: movement(departure),
	}
}

func ids(stops []*models.Stop) []string {
	out := make([]string, 0, len(stops))
	for _, s := range stops {
		out = append(out, s.ID)
	}
	return out
}

func trainIDs(trains []*models.Train) []string {
	out := make([]string, 0, len(trains))
	for _, t := range trains {
		out = append(out, t.ID)
	}
	return out
}

func berlin(hour, minute int) time.Time {
	return time.Date(2024, 6, 15, hour, minute, 0, 0, timeparse.Berlin)
}

// The arrival ordering looks at the departure first. Train timetables depend
// on this, so it is pinned here explicitly.
func TestArrivalKey_PrefersDeparture(t *testing.T) {
	s := stop("a", "09:00", "09:05")
	assert.Equal(t, berlin(9, 5).UnixMilli(), ArrivalKey(s))
	assert.Equal(t, berlin(9, 0).UnixMilli(), DepartureKey(s))
}

func TestKeys_FallBack(t *testing.T) {
	arrivalOnly := stop("a", "10:00", "")
	departureOnly := stop("d", "", "11:00")
	neither := stop("n", "", "")

	assert.Equal(t, berlin(10, 0).UnixMilli(), ArrivalKey(arrivalOnly))
	assert.Equal(t, berlin(10, 0).UnixMilli(), DepartureKey(arrivalOnly))
	assert.Equal(t, berlin(11, 0).UnixMilli(), ArrivalKey(departureOnly))
	assert.Equal(t, berlin(11, 0).UnixMilli(), DepartureKey(departureOnly))
	assert.Equal(t, int64(0), ArrivalKey(neither))
	assert.Equal(t, int64(0), DepartureKey(neither))
	assert.Equal(t, int64(0), ArrivalKey(nil))
}

func TestKeys_MalformedPlannedFallsBack(t *testing.T) {
	s := &models.Stop{
		Arrival:   &models.Movement{Planned: at("08:00")},
		Departure: &models.Movement{Planned: timeparse.NewValue("garbage")},
	}
	assert.Equal(t, berlin(8, 0).UnixMilli(), ArrivalKey(s))
}

func TestCompareByArrival_Properties(t *testing.T) {
	stops := []*models.Stop{
		stop("a", "09:00", "09:05"),
		stop("b", "08:00", ""),
		stop("c", "", "10:00"),
		stop("d", "", ""),
	}

	for _, a := range stops {
		assert.Equal(t, 0, CompareByArrival(a, a), "reflexive for %s", a.ID)
		assert.Equal(t, 0, CompareByDeparture(a, a), "reflexive for %s", a.ID)
		for _, b := range stops {
			assert.Equal(t, -CompareByArrival(b, a), CompareByArrival(a, b), "antisymmetric for %s/%s", a.ID, b.ID)
			assert.Equal(t, -CompareByDeparture(b, a), CompareByDeparture(a, b), "antisymmetric for %s/%s", a.ID, b.ID)
		}
	}

	assert.Negative(t, CompareByArrival(stops[1], stops[0]))
	assert.Positive(t, CompareByArrival(stops[2], stops[0]))
}

func TestCompare_ArrivalAndDepartureDisagree(t *testing.T) {
	// a arrives first but b leaves first.
	a := stop("a", "09:00", "09:30")
	b := stop("b", "09:10", "09:20")

	assert.Positive(t, CompareByArrival(a, b))
	assert.Negative(t, CompareByDeparture(a, b))
}

func TestSortByArrival_Stable(t *testing.T) {
	stops := []*models.Stop{
		stop("B", "", "10:00"),
		stop("A", "", "09:00"),
		stop("C", "", "09:00"),
	}
	SortByArrival(stops)
	assert.Equal(t, []string{"A", "C", "B"}, ids(stops))
}

func TestSortByArrival_UnknownSortsFirst(t *testing.T) {
	stops := []*models.Stop{
		stop("late", "12:00", ""),
		stop("none", "", ""),
		stop("early", "", "06:00"),
	}
	SortByArrival(stops)
	assert.Equal(t, []string{"none", "early", "late"}, ids(stops))
}

func TestSortByDeparture(t *testing.T) {
	stops := []*models.Stop{
		stop("a", "09:00", "09:30"),
		stop("b", "09:10", "09:20"),
		stop("c", "08:00", ""),
	}
	SortByDeparture(stops)
	assert.Equal(t, []string{"c", "a", "b"}, ids(stops))

	SortByArrival(stops)
	assert.Equal(t, []string{"c", "b", "a"}, ids(stops))
}

func TestIndexByTrain_LastWins(t *testing.T) {
	first := &models.Stop{ID: "s1", TrainID: "t1"}
	second := &models.Stop{ID: "s2", TrainID: "t1"}
	other := &models.Stop{ID: "s3", TrainID: "t2"}

	idx := IndexByTrain([]*models.Stop{first, nil, other, second})
	require.Len(t, idx, 2)

	got, ok := idx.For(&models.Train{ID: "t1"})
	assert.True(t, ok)
	assert.Same(t, second, got)

	_, ok = idx.For(&models.Train{ID: "missing"})
	assert.False(t, ok)
	_, ok = idx.For(nil)
	assert.False(t, ok)
}

func boardFixture() ([]*models.Train, StopIndex) {
	trains := []*models.Train{{ID: "t10"}, {ID: "t08"}, {ID: "t09"}}
	idx := IndexByTrain([]*models.Stop{
		{ID: "s10", TrainID: "t10", Arrival: movement("10:00")},
		{ID: "s08", TrainID: "t08", Arrival: movement("08:00")},
		{ID: "s09", TrainID: "t09", Departure: movement("09:00")},
	})
	return trains, idx
}

func TestSortTrains(t *testing.T) {
	trains, idx := boardFixture()

	sorted := SortTrains(trains, idx, nil)
	assert.Equal(t, []string{"t08", "t09", "t10"}, trainIDs(sorted))
	assert.Equal(t, []string{"t10", "t08", "t09"}, trainIDs(trains), "input must not be reordered")
}

// Trains on a board are ordered by their planned arrival at the station,
// unlike stop timetables which look at the departure first.
func TestSortTrains_ArrivalBeforeDeparture(t *testing.T) {
	trains := []*models.Train{{ID: "B"}, {ID: "A"}}
	idx := IndexByTrain([]*models.Stop{
		{ID: "sa", TrainID: "A", Arrival: movement("09:00"), Departure: movement("09:30")},
		{ID: "sb", TrainID: "B", Arrival: movement("09:10"), Departure: movement("09:20")},
	})

	sorted := SortTrains(trains, idx, nil)
	assert.Equal(t, []string{"A", "B"}, trainIDs(sorted))

	current := SelectCurrentTrain(sorted, idx, berlin(9, 5))
	require.NotNil(t, current)
	assert.Equal(t, "A", current.ID)

	current = SelectCurrentTrain(sorted, idx, berlin(9, 15))
	require.NotNil(t, current)
	assert.Equal(t, "B", current.ID)
}

func TestCompareTrains_MissingStopIsNeutral(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	compare := CompareTrains(StopIndex{}, logger)

	assert.NotPanics(t, func() {
		assert.Equal(t, 0, compare(&models.Train{ID: "a"}, &models.Train{ID: "b"}))
	})
	assert.Contains(t, buf.String(), "missing stop data")
	assert.Contains(t, buf.String(), "level=WARN")
}

func TestSortTrains_WithMissingStops(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	trains, idx := boardFixture()
	trains = append(trains, &models.Train{ID: "orphan"})

	var sorted []*models.Train
	assert.NotPanics(t, func() {
		sorted = SortTrains(trains, idx, logger)
	})
	assert.ElementsMatch(t, []string{"t08", "t09", "t10", "orphan"}, trainIDs(sorted))
	assert.NotEmpty(t, buf.String())
}

func TestSelectCurrentTrain(t *testing.T) {
	trains, idx := boardFixture()
	sorted := SortTrains(trains, idx, nil)

	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"between trains", berlin(9, 30), "t09"},
		{"before all", berlin(7, 0), ""},
		{"after all", berlin(23, 0), "t10"},
		{"exactly at departure is not past", berlin(9, 0), "t08"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectCurrentTrain(sorted, idx, tt.now)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.ID)
		})
	}
}

func TestSelectCurrentTrain_SkipsTrainsWithoutStops(t *testing.T) {
	trains, idx := boardFixture()
	sorted := SortTrains(trains, idx, nil)
	sorted = append(sorted, &models.Train{ID: "orphan"})

	got := SelectCurrentTrain(sorted, idx, berlin(23, 0))
	require.NotNil(t, got)
	assert.Equal(t, "t10", got.ID)
}

func TestSelectCurrentTrain_IsDeterministic(t *testing.T) {
	trains, idx := boardFixture()
	sorted := SortTrains(trains, idx, nil)
	now := berlin(9, 30)

	assert.Same(t, SelectCurrentTrain(sorted, idx, now), SelectCurrentTrain(sorted, idx, now))
}

func TestSplitStops(t *testing.T) {
	stops := []*models.Stop{
		stop("c", "11:00", "11:02"),
		stop("a", "", "09:00"),
		stop("b", "10:00", "10:05"),
		stop("d", "12:00", ""),
	}

	split := SplitStops(stops, berlin(10, 3))
	assert.Equal(t, []string{"a"}, ids(split.Past))
	assert.Equal(t, []string{"b", "c", "d"}, ids(split.Next))
	require.NotNil(t, split.NextStop)
	assert.Equal(t, "b", split.NextStop.ID)

	assert.Equal(t, []string{"c", "a", "b", "d"}, ids(stops), "input must not be reordered")
}

func TestSplitStops_Finished(t *testing.T) {
	split := SplitStops([]*models.Stop{stop("a", "", "09:00"), stop("b", "10:00", "")}, berlin(22, 0))
	assert.Empty(t, split.Next)
	assert.Nil(t, split.NextStop)
	assert.Equal(t, []string{"a", "b"}, ids(split.Past))
}

func TestSplitStops_UntimedStopIsNeverNext(t *testing.T) {
	stops := []*models.Stop{
		stop("b", "10:00", "10:05"),
		stop("x", "", ""),
		stop("a", "", "09:00"),
	}

	split := SplitStops(stops, berlin(9, 30))
	assert.Equal(t, []string{"a"}, ids(split.Past))
	assert.Equal(t, []string{"x", "b"}, ids(split.Next))
	require.NotNil(t, split.NextStop)
	assert.Equal(t, "b", split.NextStop.ID)

	split = SplitStops(stops, berlin(22, 0))
	assert.Equal(t, []string{"x"}, ids(split.Next))
	assert.Nil(t, split.NextStop)
}
