package timeparse

import "time"

const (
	dateLayout     = "02.01.2006"
	dateTimeLayout = "02.01.2006 15:04"
	clockLayout    = "15:04"
	dateCodeLayout = "060102"
)

// FormatDate renders raw as DD.MM.YYYY in Berlin. It returns false when raw
// is absent or unparseable.
func FormatDate(raw any) (string, bool) {
	return format(raw, dateLayout)
}

// FormatDateTime renders raw as DD.MM.YYYY HH:MM in Berlin.
func FormatDateTime(raw any) (string, bool) {
	return format(raw, dateTimeLayout)
}

// FormatClock renders raw as HH:MM in Berlin.
func FormatClock(raw any) (string, bool) {
	return format(raw, clockLayout)
}

// FormatDateCode renders t as a YYMMDD code in Berlin, the key format of the
// upstream date-addressed endpoints.
func FormatDateCode(t time.Time) string {
	return t.In(Berlin).Format(dateCodeLayout)
}

func format(raw any, layout string) (string, bool) {
	i := Parse(raw)
	if !i.Known() {
		return "", false
	}
	return i.Time(Berlin).Format(layout), true
}
