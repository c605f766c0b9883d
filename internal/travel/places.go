package travel

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"
)

// Category selects what a nearby search looks for.
type Category int

const (
	Attractions Category = iota
	Restaurants
	Hotels
)

func (c Category) String() string {
	switch c {
	case Attractions:
		return "attractions"
	case Restaurants:
		return "restaurants"
	case Hotels:
		return "hotels"
	default:
		return "unknown"
	}
}

type categorySpec struct {
	placeType string
	radius    int
	none      string
}

var categories = map[Category]categorySpec{
	Attractions: {placeType: "tourist_attraction", radius: 10000, none: "No tourist attractions found."},
	Restaurants: {placeType: "restaurant", radius: 5000, none: "No restaurants found."},
	Hotels:      {placeType: "lodging", radius: 5000, none: "No hotels found."},
}

var restaurantKeywords = map[string]string{
	"Leisure":   "casual dining",
	"Business":  "fine dining",
	"Family":    "family-friendly",
	"Adventure": "unique cuisine",
	"Romantic":  "romantic restaurant",
}

// RestaurantKeyword maps a trip purpose to the restaurant search keyword.
func RestaurantKeyword(purpose string) string {
	if k, ok := restaurantKeywords[purpose]; ok {
		return k
	}
	return "restaurant"
}

// Location is a latitude/longitude pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (l Location) String() string {
	return strconv.FormatFloat(l.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(l.Lng, 'f', -1, 64)
}

// Places wraps the Google Places and Geocoding APIs.
type Places struct {
	baseURL string
	apiKey  string
	c       *client
}

// NewPlaces creates a client for baseURL, e.g. https://maps.googleapis.com/maps/api.
func NewPlaces(baseURL, apiKey string, timeout time.Duration, rps float64, logger arbor.ILogger) *Places {
	return &Places{baseURL: baseURL, apiKey: apiKey, c: newClient(timeout, rps, logger)}
}

type placeResult struct {
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	Rating           *float64 `json:"rating"`
	Geometry         struct {
		Location Location `json:"location"`
	} `json:"geometry"`
}

type placesResponse struct {
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message"`
	Results      []placeResult `json:"results"`
}

func (r placesResponse) err() error {
	if r.Status == "" || r.Status == "OK" || r.Status == "ZERO_RESULTS" {
		return nil
	}
	if r.ErrorMessage != "" {
		return fmt.Errorf("maps API error: %s - %s", r.Status, r.ErrorMessage)
	}
	return fmt.Errorf("maps API error: %s", r.Status)
}

func (p *Places) get(ctx context.Context, endpoint string, params url.Values) (placesResponse, error) {
	var resp placesResponse
	if p.apiKey == "" {
		return resp, errors.New("maps API key is not set")
	}
	params.Set("key", p.apiKey)
	if err := p.c.getJSON(ctx, join(p.baseURL, endpoint), params, &resp); err != nil {
		return resp, err
	}
	return resp, resp.err()
}

// TopAttractions runs a text search for "top attractions in {destination}" and
// lists up to n results as "{name} - {address}".
func (p *Places) TopAttractions(ctx context.Context, destination string, n int) Report {
	params := url.Values{}
	params.Set("query", fmt.Sprintf(topAttractions, destination))
	resp, err := p.get(ctx, "place/textsearch/json", params)
	if err != nil {
		p.c.logger.Warn().Err(err).Str("destination", destination).Msg("Places text search failed")
		return failed(noPlaces, err)
	}
	lines := make([]string, 0, n)
	for _, r := range limit(resp.Results, n) {
		addr := r.FormattedAddress
		if addr == "" {
			addr = "No address"
		}
		lines = append(lines, r.Name+" - "+addr)
	}
	if len(lines) == 0 {
		return empty(noPlaces)
	}
	return okLines(lines)
}

// Geocode resolves address to coordinates. ok is false when nothing matched
// or the request failed.
func (p *Places) Geocode(ctx context.Context, address string) (Location, bool) {
	params := url.Values{}
	params.Set("address", address)
	resp, err := p.get(ctx, "geocode/json", params)
	if err != nil {
		p.c.logger.Warn().Err(err).Str("address", address).Msg("Geocoding failed")
		return Location{}, false
	}
	if len(resp.Results) == 0 {
		return Location{}, false
	}
	loc := resp.Results[0].Geometry.Location
	if loc.Lat == 0 || loc.Lng == 0 {
		return Location{}, false
	}
	return loc, true
}

// Nearby geocodes location and lists up to n places of the given category
// around it as "{name} ({rating}⭐)". purpose picks the keyword for restaurants.
func (p *Places) Nearby(ctx context.Context, location string, cat Category, purpose string, n int) Report {
	spec, ok := categories[cat]
	if !ok {
		return failed(noPlaces, fmt.Errorf("unknown category %d", cat))
	}
	loc, ok := p.Geocode(ctx, location)
	if !ok {
		return empty(noLocation)
	}

	params := url.Values{}
	params.Set("location", loc.String())
	params.Set("radius", strconv.Itoa(spec.radius))
	params.Set("type", spec.placeType)
	if cat == Restaurants {
		params.Set("keyword", RestaurantKeyword(purpose))
	}
	resp, err := p.get(ctx, "place/nearbysearch/json", params)
	if err != nil {
		p.c.logger.Warn().Err(err).Str("location", location).Str("category", cat.String()).Msg("Nearby search failed")
		return failed(spec.none, err)
	}

	lines := make([]string, 0, n)
	for _, r := range limit(resp.Results, n) {
		rating := "No rating"
		if r.Rating != nil {
			rating = strconv.FormatFloat(*r.Rating, 'f', -1, 64)
		}
		lines = append(lines, fmt.Sprintf("%s (%s⭐)", r.Name, rating))
	}
	if len(lines) == 0 {
		return empty(spec.none)
	}
	return okLines(lines)
}

func limit(results []placeResult, n int) []placeResult {
	if n > 0 && len(results) > n {
		return results[:n]
	}
	return results
}
