// Package travel gathers destination information from Wikipedia, Google Maps
// and OpenWeatherMap. Failures never surface as errors: every lookup returns a
// Report whose Status tells callers what happened and whose String form is the
// text shown to the user.
package travel

import (
	"strings"

	"travelrag/internal/domain"
)

const (
	noWikiData     = "No data available."
	noPlaces       = "No places found."
	noLocation     = "Could not determine the exact location."
	noWeather      = "Weather data not available."
	placesHeading  = "Top Attractions:"
	topAttractions = "top attractions in %s"
)

// Report is the tagged outcome of a single lookup.
type Report struct {
	Status domain.Status
	// Lines holds one entry per result when the lookup returns a list.
	Lines []string
	// Text is the rendered result or, for Empty and Failed, the fallback message.
	Text string
	Err  error
}

func (r Report) String() string { return r.Text }

// OK reports whether the lookup produced data.
func (r Report) OK() bool { return r.Status == domain.StatusOK }

func okText(text string) Report {
	return Report{Status: domain.StatusOK, Text: text}
}

func okLines(lines []string) Report {
	return Report{Status: domain.StatusOK, Lines: lines, Text: strings.Join(lines, "\n")}
}

func empty(fallback string) Report {
	return Report{Status: domain.StatusEmpty, Text: fallback}
}

func failed(fallback string, err error) Report {
	return Report{Status: domain.StatusFailed, Text: fallback, Err: err}
}
