package travel

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/ternarybob/arbor"
)

// Weather reads current conditions from OpenWeatherMap.
type Weather struct {
	baseURL string
	apiKey  string
	c       *client
}

// NewWeather creates a client for baseURL, e.g. http://api.openweathermap.org/data/2.5.
func NewWeather(baseURL, apiKey string, timeout time.Duration, rps float64, logger arbor.ILogger) *Weather {
	return &Weather{baseURL: baseURL, apiKey: apiKey, c: newClient(timeout, rps, logger)}
}

type weatherResponse struct {
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main *struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
}

// Current returns "{Description}, {temp}°C" for city in metric units.
func (w *Weather) Current(ctx context.Context, city string) Report {
	if w.apiKey == "" {
		return failed(noWeather, errors.New("weather API key is not set"))
	}
	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", w.apiKey)
	params.Set("units", "metric")

	var resp weatherResponse
	if err := w.c.getJSON(ctx, join(w.baseURL, "weather"), params, &resp); err != nil {
		w.c.logger.Warn().Err(err).Str("city", city).Msg("Weather lookup failed")
		return failed(noWeather, err)
	}
	if len(resp.Weather) == 0 || resp.Main == nil {
		return empty(noWeather)
	}
	temp := strconv.FormatFloat(resp.Main.Temp, 'f', -1, 64)
	return okText(fmt.Sprintf("%s, %s°C", capitalize(resp.Weather[0].Description), temp))
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
