package timeutil

import (
	"fmt"
	"time"
)

// DefaultZoneName is the shop's local time zone. Calendar days (and therefore
// business days) are counted in this zone.
const DefaultZoneName = "Europe/Copenhagen"

// Zone is the service time zone (defaults to Europe/Copenhagen)
var Zone *time.Location

func init() {
	var err error
	Zone, err = time.LoadLocation(DefaultZoneName)
	if err != nil {
		// Fallback: create fixed zone if tzdata is not available
		Zone = time.FixedZone("CET", 1*60*60) // UTC+1
	}
}

// SetZone switches the service time zone. Call once during startup.
func SetZone(name string) error {
	if name == "" {
		return nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("load time zone %q: %w", name, err)
	}
	Zone = loc
	return nil
}

// Now returns the current time in the service zone
func Now() time.Time {
	return time.Now().In(Zone)
}

// ToZone converts any time to the service zone
func ToZone(t time.Time) time.Time {
	return t.In(Zone)
}

// ParseInZone parses a time string in the service zone
func ParseInZone(layout, value string) (time.Time, error) {
	return time.ParseInLocation(layout, value, Zone)
}

// StartOfDay returns 00:00:00 in the service zone for the given time
func StartOfDay(t time.Time) time.Time {
	local := t.In(Zone)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, Zone)
}

// Common layouts
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
	DisplayLayout  = "02-01-2006 15:04"
)
