package flights

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"travelrag/internal/domain"
)

const offersJSON = `{"data":[
 {"price":{"total":"450.00","currency":"EUR"},"itineraries":[
   {"duration":"PT7H30M","segments":[{"carrierCode":"AF","departure":{"at":"2025-05-01T10:00:00"},"arrival":{"at":"2025-05-01T13:00:00"}},
                                      {"carrierCode":"AF","departure":{"at":"2025-05-01T14:00:00"},"arrival":{"at":"2025-05-01T17:30:00"}}]},
   {"duration":"PT8H","segments":[{"carrierCode":"AF","departure":{"at":"2025-05-05T09:00:00"},"arrival":{"at":"2025-05-05T17:00:00"}}]}]},
 {"price":{"total":"30000.00","currency":"EUR"},"itineraries":[
   {"duration":"PT6H","segments":[{"carrierCode":"LH","departure":{"at":"2025-05-01T08:00:00"},"arrival":{"at":"2025-05-01T14:00:00"}}]}]},
 {"price":{"total":"390.50","currency":"EUR"},"itineraries":[
   {"duration":"PT6H5M","segments":[{"carrierCode":"BA","departure":{"at":"2025-05-01T07:00:00"},"arrival":{"at":"2025-05-01T13:05:00"}}]}]}
]}`

type amadeusFake struct {
	srv         *httptest.Server
	tokenCalls  atomic.Int32
	offersQuery atomic.Value
	offers      string
}

func newAmadeusFake(t *testing.T, offers string) *amadeusFake {
	t.Helper()
	f := &amadeusFake{offers: offers}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/security/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		assert.Equal(t, "id", r.Form.Get("client_id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":1799}`))
	})
	mux.HandleFunc("/v1/reference-data/locations", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "AIRPORT", r.URL.Query().Get("subType"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("keyword") {
		case "Paris":
			_, _ = w.Write([]byte(`{"data":[{"subType":"CITY","iataCode":"PAR"},{"subType":"AIRPORT","iataCode":"CDG"}]}`))
		case "New York":
			_, _ = w.Write([]byte(`{"data":[{"subType":"AIRPORT","iataCode":"JFK"}]}`))
		default:
			_, _ = w.Write([]byte(`{"data":[]}`))
		}
	})
	mux.HandleFunc("/v2/shopping/flight-offers", func(w http.ResponseWriter, r *http.Request) {
		f.offersQuery.Store(r.URL.Query().Encode())
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("departureDate") == "yesterday" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"errors":[{"status":400,"code":425,"title":"INVALID DATE","detail":"Date/Time is in the past"}]}`))
			return
		}
		_, _ = w.Write([]byte(f.offers))
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

type mapNamer map[string]string

func (m mapNamer) AirlineName(_ context.Context, code string) string {
	if n, ok := m[code]; ok {
		return n
	}
	return code
}

func newTestClient(t *testing.T, f *amadeusFake, namer AirlineNamer) *Client {
	t.Helper()
	c, err := NewClient(context.Background(), Config{BaseURL: f.srv.URL, ClientID: "id", ClientSecret: "secret"}, namer, arbor.NewLogger())
	require.NoError(t, err)
	return c
}

var names = mapNamer{"AF": "Air France", "BA": "British Airways", "LH": "Lufthansa"}

func TestAirportCode(t *testing.T) {
	f := newAmadeusFake(t, offersJSON)
	c := newTestClient(t, f, nil)

	code, err := c.AirportCode(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Equal(t, "CDG", code)

	_, err = c.AirportCode(context.Background(), "Atlantis")
	assert.True(t, errors.Is(err, ErrAirportNotFound))
	assert.Equal(t, int32(1), f.tokenCalls.Load())
}

func TestSearchFiltersByPrice(t *testing.T) {
	f := newAmadeusFake(t, offersJSON)
	c := newTestClient(t, f, names)

	res, err := c.Search(context.Background(), Query{Origin: "New York", Destination: "Paris", DepartureDate: "2025-05-01", ReturnDate: "2025-05-05"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Found)
	require.Len(t, res.Offers, 2)

	af := res.Offers[0]
	assert.Equal(t, "Air France", af.Airline)
	assert.Equal(t, "450.00", af.Price)
	assert.Equal(t, Leg{Departure: "2025-05-01T10:00:00", Arrival: "2025-05-01T17:30:00", Duration: "7 hours 30 minutes"}, af.Outbound)
	require.NotNil(t, af.Return)
	assert.Equal(t, "8 hours 0 minutes", af.Return.Duration)
	assert.Nil(t, res.Offers[1].Return)

	q := f.offersQuery.Load().(string)
	assert.Contains(t, q, "originLocationCode=JFK")
	assert.Contains(t, q, "destinationLocationCode=CDG")
	assert.Contains(t, q, "adults=1")
	assert.Contains(t, q, "maxPrice=20000")
	assert.Contains(t, q, "returnDate=2025-05-05")
}

func TestSearchFractionalBudgetRoundsUp(t *testing.T) {
	f := newAmadeusFake(t, offersJSON)
	c := newTestClient(t, f, names)

	res, err := c.Search(context.Background(), Query{Origin: "New York", Destination: "Paris", DepartureDate: "2025-05-01", MaxPrice: 390.5})
	require.NoError(t, err)
	require.Len(t, res.Offers, 1)
	assert.Equal(t, "390.50", res.Offers[0].Price)
	assert.Contains(t, f.offersQuery.Load().(string), "maxPrice=391")
}

func TestSearchAirlineFilter(t *testing.T) {
	f := newAmadeusFake(t, offersJSON)
	c := newTestClient(t, f, names)

	res, err := c.Search(context.Background(), Query{Origin: "New York", Destination: "Paris", DepartureDate: "2025-05-01", Airline: "british"})
	require.NoError(t, err)
	require.Len(t, res.Offers, 1)
	assert.Equal(t, "BA", res.Offers[0].AirlineCode)
}

func TestDetailsRendering(t *testing.T) {
	f := newAmadeusFake(t, offersJSON)
	c := newTestClient(t, f, names)
	ctx := context.Background()

	out := c.Details(ctx, Query{Origin: "New York", Destination: "Paris", DepartureDate: "2025-05-01", ReturnDate: "2025-05-05", MaxPrice: 400})
	assert.Equal(t,
		"Airline: British Airways\nPrice: $390.50\nDeparture: 2025-05-01T07:00:00\nArrival: 2025-05-01T13:05:00\nDuration: 6 hours 5 minutes\n"+separator,
		out)

	out = c.Details(ctx, Query{Origin: "New York", Destination: "Paris", DepartureDate: "2025-05-01", MaxPrice: 100})
	assert.Equal(t, "No flights found within the budget.", out)

	out = c.Details(ctx, Query{Origin: "New York", Destination: "Paris", DepartureDate: "yesterday"})
	assert.True(t, strings.HasPrefix(out, "An error occurred: "))
	assert.Contains(t, out, "Date/Time is in the past")
}

func TestDetailsNoOffers(t *testing.T) {
	f := newAmadeusFake(t, `{"data":[]}`)
	c := newTestClient(t, f, nil)
	out := c.Details(context.Background(), Query{Origin: "New York", Destination: "Paris", DepartureDate: "2025-05-01"})
	assert.Equal(t, "No flights found.", out)
}

func TestRenderRoundTrip(t *testing.T) {
	out := Render(Result{Found: 1, Offers: []Offer{{
		Airline:  "Iberia",
		Price:    "99.00",
		Outbound: Leg{Departure: "d1", Arrival: "a1", Duration: "1 hours 0 minutes"},
		Return:   &Leg{Departure: "d2", Arrival: "a2", Duration: "2 hours 0 minutes"},
	}}})
	assert.Equal(t, "Airline: Iberia\nPrice: $99.00\nDeparture: d1\nArrival: a1\nDuration: 1 hours 0 minutes"+
		"\nReturn Departure: d2\nReturn Arrival: a2\nReturn Duration: 2 hours 0 minutes\n\n"+separator, out)
}

func TestFormatDuration(t *testing.T) {
	cases := map[string]string{
		"PT2H5M":  "2 hours 5 minutes",
		"PT45M":   "0 hours 45 minutes",
		"PT11H":   "11 hours 0 minutes",
		"P1DT2H":  "26 hours 0 minutes",
		"garbage": "0 hours 0 minutes",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatDuration(in), in)
	}
}

func TestAirlineMatches(t *testing.T) {
	assert.True(t, airlineMatches("Air France", ""))
	assert.True(t, airlineMatches("Air France", "air france klm"))
	assert.True(t, airlineMatches("British Airways", "British"))
	assert.False(t, airlineMatches("Lufthansa", "Delta"))
}

type countingCompleter struct {
	calls int
	text  string
	err   error
}

func (c *countingCompleter) Name() string { return "counting" }

func (c *countingCompleter) Complete(_ context.Context, prompt string) (domain.Completion, error) {
	c.calls++
	if !strings.Contains(prompt, "'AF'") {
		return domain.Completion{}, errors.New("unexpected prompt")
	}
	return domain.Completion{Text: c.text}, c.err
}

func TestLLMNamer(t *testing.T) {
	comp := &countingCompleter{text: "  Air France \n"}
	n := NewLLMNamer(comp, arbor.NewLogger())
	ctx := context.Background()

	assert.Equal(t, "Air France", n.AirlineName(ctx, "AF"))
	assert.Equal(t, "Air France", n.AirlineName(ctx, "AF"))
	assert.Equal(t, 1, comp.calls)

	failing := NewLLMNamer(&countingCompleter{err: errors.New("down")}, arbor.NewLogger())
	assert.Equal(t, "AF", failing.AirlineName(ctx, "AF"))

	blank := NewLLMNamer(&countingCompleter{}, arbor.NewLogger())
	assert.Equal(t, "AF", blank.AirlineName(ctx, "AF"))
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(context.Background(), Config{BaseURL: "http://x"}, nil, arbor.NewLogger())
	assert.Error(t, err)
}
