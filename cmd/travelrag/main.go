// Command travelrag indexes destination information and generates travel
// itineraries and stories from it.
//
// Usage:
//
//	travelrag [--config config.yaml] <command> [args]
//
// Commands:
//
//	index        fetch and index one or more destinations
//	plan, story  write an itinerary or story using indexed context
//	retrieve     show the documents nearest to a query
//	weather, attractions, restaurants, hotels, flights
//	             live lookups that do not touch the index
//	tui          interactive query screen
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
