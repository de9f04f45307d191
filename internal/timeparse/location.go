package timeparse

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// Berlin is the zone the dashboard renders and interprets local times in.
var Berlin *time.Location

func init() {
	var err error
	Berlin, err = time.LoadLocation("Europe/Berlin")
	if err != nil {
		panic(fmt.Errorf("failed to load Europe/Berlin timezone: %w", err))
	}
}
