package flights

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	noFlights       = "No flights found."
	noFlightsBudget = "No flights found within the budget."
	separator       = "----------------------------------------"
)

// Query describes a flight search. Origin and Destination are city names.
// ReturnDate makes it a round trip; Airline keeps only matching carriers.
type Query struct {
	Origin        string
	Destination   string
	DepartureDate string
	ReturnDate    string
	MaxPrice      float64
	Airline       string
}

// Leg is one direction of an offer.
type Leg struct {
	Departure string
	Arrival   string
	Duration  string
}

// Offer is a flight offer that passed the price and airline filters.
type Offer struct {
	Airline     string
	AirlineCode string
	Price       string
	Outbound    Leg
	Return      *Leg
}

// Result holds the offers kept by Search and how many the API returned.
type Result struct {
	Found  int
	Offers []Offer
}

type offersResponse struct {
	Data []struct {
		Price struct {
			Total    string `json:"total"`
			Currency string `json:"currency"`
		} `json:"price"`
		Itineraries []itinerary `json:"itineraries"`
	} `json:"data"`
}

type itinerary struct {
	Duration string `json:"duration"`
	Segments []struct {
		CarrierCode string `json:"carrierCode"`
		Departure   struct {
			At string `json:"at"`
		} `json:"departure"`
		Arrival struct {
			At string `json:"at"`
		} `json:"arrival"`
	} `json:"segments"`
}

func (it itinerary) leg() (Leg, bool) {
	if len(it.Segments) == 0 {
		return Leg{}, false
	}
	return Leg{
		Departure: it.Segments[0].Departure.At,
		Arrival:   it.Segments[len(it.Segments)-1].Arrival.At,
		Duration:  FormatDuration(it.Duration),
	}, true
}

// Search resolves both cities to airports and looks at the first offers for
// one adult, keeping those within the price limit and airline filter.
func (c *Client) Search(ctx context.Context, q Query) (Result, error) {
	maxPrice := q.MaxPrice
	if maxPrice <= 0 {
		maxPrice = c.maxPrice
	}
	origin, err := c.AirportCode(ctx, q.Origin)
	if err != nil {
		return Result{}, err
	}
	dest, err := c.AirportCode(ctx, q.Destination)
	if err != nil {
		return Result{}, err
	}

	params := url.Values{}
	params.Set("originLocationCode", origin)
	params.Set("destinationLocationCode", dest)
	params.Set("departureDate", q.DepartureDate)
	params.Set("adults", "1")
	params.Set("maxPrice", strconv.Itoa(int(math.Ceil(maxPrice))))
	if q.ReturnDate != "" {
		params.Set("returnDate", q.ReturnDate)
	}

	var resp offersResponse
	if err := c.get(ctx, "/v2/shopping/flight-offers", params, &resp); err != nil {
		return Result{}, err
	}

	res := Result{Found: len(resp.Data)}
	data := resp.Data
	if len(data) > c.maxOffers {
		data = data[:c.maxOffers]
	}
	for _, d := range data {
		price, err := strconv.ParseFloat(d.Price.Total, 64)
		if err != nil || price > maxPrice || len(d.Itineraries) == 0 {
			continue
		}
		out, ok := d.Itineraries[0].leg()
		if !ok {
			continue
		}
		code := d.Itineraries[0].Segments[0].CarrierCode
		airline := c.namer.AirlineName(ctx, code)
		if !airlineMatches(airline, q.Airline) {
			continue
		}
		offer := Offer{Airline: airline, AirlineCode: code, Price: d.Price.Total, Outbound: out}
		if q.ReturnDate != "" && len(d.Itineraries) > 1 {
			if back, ok := d.Itineraries[1].leg(); ok {
				offer.Return = &back
			}
		}
		res.Offers = append(res.Offers, offer)
	}
	c.logger.Info().
		Str("origin", origin).
		Str("destination", dest).
		Int("found", res.Found).
		Int("kept", len(res.Offers)).
		Msg("Flight search completed")
	return res, nil
}

// Details runs Search and renders the outcome, turning errors into
// "An error occurred: ..." text.
func (c *Client) Details(ctx context.Context, q Query) string {
	res, err := c.Search(ctx, q)
	if err != nil {
		return fmt.Sprintf("An error occurred: %v", err)
	}
	return Render(res)
}

// Render formats offers as blocks separated by blank lines.
func Render(res Result) string {
	if res.Found == 0 {
		return noFlights
	}
	if len(res.Offers) == 0 {
		return noFlightsBudget
	}
	blocks := make([]string, len(res.Offers))
	for i, o := range res.Offers {
		var b strings.Builder
		fmt.Fprintf(&b, "Airline: %s\nPrice: $%s\nDeparture: %s\nArrival: %s\nDuration: %s",
			o.Airline, o.Price, o.Outbound.Departure, o.Outbound.Arrival, o.Outbound.Duration)
		if o.Return != nil {
			fmt.Fprintf(&b, "\nReturn Departure: %s\nReturn Arrival: %s\nReturn Duration: %s\n",
				o.Return.Departure, o.Return.Arrival, o.Return.Duration)
		}
		b.WriteString("\n" + separator)
		blocks[i] = b.String()
	}
	return strings.Join(blocks, "\n\n")
}

// airlineMatches compares case-insensitively; either name containing the other is a match.
func airlineMatches(airline, want string) bool {
	if want == "" || airline == "" {
		return true
	}
	a, w := strings.ToLower(airline), strings.ToLower(want)
	return strings.Contains(w, a) || strings.Contains(a, w)
}
