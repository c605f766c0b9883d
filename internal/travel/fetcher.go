package travel

import (
	"context"
	"fmt"
)

// Fetcher combines the Wikipedia summary and top attractions into the text
// that gets indexed for a destination.
type Fetcher struct {
	Wiki   *Wikipedia
	Places *Places
	TopN   int
}

// Fetch returns "{summary}\n\nTop Attractions:\n{places}". Either half may be
// its fallback message; Fetch itself never fails.
func (f *Fetcher) Fetch(ctx context.Context, destination string) string {
	wiki := f.Wiki.Summary(ctx, destination)
	places := f.Places.TopAttractions(ctx, destination, f.TopN)
	return fmt.Sprintf("%s\n\n%s\n%s", wiki, placesHeading, places)
}
