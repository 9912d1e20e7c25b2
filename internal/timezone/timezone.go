package timezone

import (
	"strings"
	"time"
	_ "time/tzdata"
)

const DisplayLayout = "3:04 PM on Mon, Jan 02"

var airportTimezones = map[string]string{
	// North America
	"SEA": "America/Los_Angeles", // Seattle-Tacoma
	"SFO": "America/Los_Angeles", // San Francisco
	"LAX": "America/Los_Angeles", // Los Angeles
	"YVR": "America/Vancouver",   // Vancouver
	"JFK": "America/New_York",    // New York - JFK
	"EWR": "America/New_York",    // Newark
	"ORD": "America/Chicago",     // Chicago - O'Hare

	// Europe
	"MXP": "Europe/Rome",      // Milan - Malpensa
	"LIN": "Europe/Rome",      // Milan - Linate
	"FCO": "Europe/Rome",      // Rome - Fiumicino
	"FRA": "Europe/Berlin",    // Frankfurt
	"MUC": "Europe/Berlin",    // Munich
	"CDG": "Europe/Paris",     // Paris - Charles de Gaulle
	"AMS": "Europe/Amsterdam", // Amsterdam - Schiphol
	"LHR": "Europe/London",    // London - Heathrow
	"ZRH": "Europe/Zurich",    // Zurich
	"IST": "Europe/Istanbul",  // Istanbul

	// Middle East / Asia
	"DXB": "Asia/Dubai",   // Dubai
	"AUH": "Asia/Dubai",   // Abu Dhabi
	"DOH": "Asia/Qatar",   // Doha
	"HYD": "Asia/Kolkata", // Hyderabad
	"BOM": "Asia/Kolkata", // Mumbai
	"DEL": "Asia/Kolkata", // Delhi
	"BLR": "Asia/Kolkata", // Bengaluru
}

func GetTimezoneByAirport(code string) string {
	code = strings.ToUpper(code)
	if tz, ok := airportTimezones[code]; ok {
		return tz
	}
	return "UTC"
}

func GetLocationByAirport(code string) *time.Location {
	loc, err := time.LoadLocation(GetTimezoneByAirport(code))
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseTimeWithOffset accepts RFC 3339 and the offset-less local timestamps
// providers use for departures and arrivals.
func ParseTimeWithOffset(timeStr string, tzName string) (time.Time, error) {
	formats := []string{
		time.RFC3339,
		"2006-01-02T15:04:05-0700", // Without colon
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
	}

	loc := time.UTC
	if tzName != "" {
		if l, err := time.LoadLocation(tzName); err == nil {
			loc = l
		}
	}

	for _, format := range formats {
		if t, err := time.ParseInLocation(format, timeStr, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, &time.ParseError{
		Value:   timeStr,
		Message: "unable to parse time string",
	}
}

// FormatDisplay renders a provider timestamp as local wall time at the
// airport. Unparseable input is returned unchanged.
func FormatDisplay(timeStr string, airportCode string) string {
	if timeStr == "" {
		return ""
	}
	t, err := ParseTimeWithOffset(timeStr, GetTimezoneByAirport(airportCode))
	if err != nil {
		return timeStr
	}
	return ConvertToTimezone(t, airportCode).Format(DisplayLayout)
}

func ConvertToTimezone(t time.Time, airportCode string) time.Time {
	return t.In(GetLocationByAirport(airportCode))
}

// Gap is the wall-clock time between two provider timestamps.
func Gap(from, to string) (time.Duration, bool) {
	if from == "" || to == "" {
		return 0, false
	}
	start, err := ParseTimeWithOffset(from, "")
	if err != nil {
		return 0, false
	}
	end, err := ParseTimeWithOffset(to, "")
	if err != nil {
		return 0, false
	}
	return end.Sub(start), true
}
