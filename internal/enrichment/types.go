package enrichment

import (
	"math"
	"strconv"
	"strings"
)

const (
	// UnknownTemperature is shown when the weather provider could not be reached.
	UnknownTemperature = "Unknown"
	// UnknownLocation is used when no address field names a place.
	UnknownLocation = "Unknown Location"
)

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// String renders "lat, lon" using the shortest exact decimal form.
func (c Coordinates) String() string {
	return formatFloat(c.Latitude) + ", " + formatFloat(c.Longitude)
}

// WeatherSnapshot is the current weather at a point. A nil Temperature means
// the value is unknown.
type WeatherSnapshot struct {
	Temperature *float64 `json:"temperature"`
	Condition   string   `json:"condition"`
	Code        int      `json:"code"`
}

// Known reports whether the snapshot carries a temperature.
func (w WeatherSnapshot) Known() bool {
	return w.Temperature != nil
}

// TemperatureLabel renders e.g. "27.5°C", or "Unknown".
func (w WeatherSnapshot) TemperatureLabel() string {
	if w.Temperature == nil {
		return UnknownTemperature
	}
	s := formatFloat(*w.Temperature)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s + "°C"
}

// RoundedTemperature rounds half to even, or returns 0 when unknown.
func (w WeatherSnapshot) RoundedTemperature() int {
	if w.Temperature == nil {
		return 0
	}
	return int(math.RoundToEven(*w.Temperature))
}

// LocationName is a best-effort human place name.
type LocationName struct {
	City   string `json:"city"`
	Region string `json:"region,omitempty"`
}

// String renders "City, Region", or just "City" without a region.
func (l LocationName) String() string {
	if l.Region == "" {
		return l.City
	}
	return l.City + ", " + l.Region
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
