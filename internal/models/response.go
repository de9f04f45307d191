package models

import (
	"net/http"
	"time"

	"irisboard.dev/internal/clock"
	"irisboard.dev/internal/timeparse"
)

// ResponseModel is the envelope every JSON endpoint answers with.
type ResponseModel struct {
	Code        int    `json:"code"`
	CurrentTime int64  `json:"currentTime"`
	Data        any    `json:"data,omitempty"`
	Text        string `json:"text"`
	Version     int    `json:"version"`
}

// References carries entities that entries point at by id, so each is sent
// once per response.
type References struct {
	Stations    []Station    `json:"stations"`
	StatusCodes []StatusCode `json:"statusCodes"`
}

func NewEmptyReferences() References {
	return References{
		Stations:    []Station{},
		StatusCodes: []StatusCode{},
	}
}

type EntryData struct {
	Entry      any        `json:"entry"`
	References References `json:"references"`
}

type ListData struct {
	List          any        `json:"list"`
	LimitExceeded bool       `json:"limitExceeded"`
	References    References `json:"references"`
}

type CurrentTimeData struct {
	Time         int64  `json:"time"`
	ReadableTime string `json:"readableTime"`
	DateCode     string `json:"dateCode"`
}

func NewCurrentTimeData(t time.Time) EntryData {
	return EntryData{
		Entry: CurrentTimeData{
			Time:         t.UnixMilli(),
			ReadableTime: t.Format(time.RFC3339),
			DateCode:     timeparse.FormatDateCode(t),
		},
		References: NewEmptyReferences(),
	}
}

// ResponseCurrentTime is the envelope timestamp in Unix milliseconds.
func ResponseCurrentTime(c clock.Clock) int64 {
	if c == nil {
		return time.Now().UnixMilli()
	}
	return c.NowUnixMilli()
}

func NewOKResponse(data any, c clock.Clock) ResponseModel {
	return NewResponse(http.StatusOK, data, "OK", c)
}

func NewResponse(code int, data any, text string, c clock.Clock) ResponseModel {
	return ResponseModel{
		Code:        code,
		CurrentTime: ResponseCurrentTime(c),
		Data:        data,
		Text:        text,
		Version:     2,
	}
}

func NewEntryResponse(entry any, references References, c clock.Clock) ResponseModel {
	return NewOKResponse(EntryData{Entry: entry, References: references}, c)
}

func NewListResponse(list any, references References, limitExceeded bool, c clock.Clock) ResponseModel {
	return NewOKResponse(ListData{List: list, LimitExceeded: limitExceeded, References: references}, c)
}
