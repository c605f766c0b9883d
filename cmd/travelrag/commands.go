package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"travelrag/internal/domain"
	"travelrag/internal/flights"
	"travelrag/internal/narrative"
	"travelrag/internal/rag"
	"travelrag/internal/travel"
	"travelrag/internal/tui"
)

var cfgPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "travelrag",
		Short:         "Travel planning assistant backed by a local retrieval index",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to YAML config file (default ./config.yaml or ~/.config/travelrag/config.yaml)")

	root.AddCommand(
		newIndexCmd(),
		newNarrativeCmd(narrative.Itinerary),
		newNarrativeCmd(narrative.Story),
		newRetrieveCmd(),
		newWeatherCmd(),
		newPlacesCmd(travel.Attractions),
		newPlacesCmd(travel.Restaurants),
		newPlacesCmd(travel.Hotels),
		newFlightsCmd(),
		newTUICmd(),
	)
	return root
}

// withApp loads config and runs fn, closing whatever fn opened.
func withApp(quiet bool, fn func(a *app) error) error {
	a, err := newApp(cfgPath, quiet)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}

func newIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index <destination>...",
		Short: "Fetch travel data for destinations and add it to the index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(false, func(a *app) error {
				svc, err := a.ragService(cmd.Context())
				if err != nil {
					return err
				}
				for _, dest := range args {
					out, err := svc.IndexDestination(cmd.Context(), dest)
					if err != nil {
						return fmt.Errorf("index %s: %w", dest, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Indexed %s as document %s\n", out.Destination, out.Document.ID)
					if out.Rebuilt {
						fmt.Fprintf(cmd.OutOrStdout(), "Index rebuilt for a new embedding dimension; %d documents dropped\n", out.Discarded)
					}
					if out.Digest != "" {
						fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", out.Digest)
					}
				}
				return nil
			})
		},
	}
}

func newNarrativeCmd(kind narrative.Kind) *cobra.Command {
	var (
		req     = narrative.Request{Kind: kind}
		refresh bool
	)
	use, short := "plan", "Generate a travel itinerary"
	if kind == narrative.Story {
		use, short = "story", "Generate a travel story"
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(false, func(a *app) error {
				ctx := cmd.Context()
				svc, err := a.ragService(ctx)
				if err != nil {
					return err
				}
				if refresh {
					if _, err := svc.IndexDestination(ctx, req.Destination); err != nil {
						return err
					}
				}
				completer, err := a.llm(ctx)
				if err != nil {
					return err
				}
				out, err := narrative.NewGenerator(svc, completer, svc.DefaultK(), a.logger).Generate(ctx, req)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Origin, "from", "", "Origin city")
	f.StringVar(&req.Destination, "to", "", "Destination")
	f.StringVar(&req.StartDate, "start", "", "Start date")
	f.StringVar(&req.EndDate, "end", "", "End date")
	f.StringVar(&req.Purpose, "purpose", "Leisure", "Trip purpose (Leisure, Business, Family, Adventure, Romantic)")
	f.BoolVar(&refresh, "refresh", true, "Fetch and index the destination before generating")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newRetrieveCmd() *cobra.Command {
	var k int
	cmd := &cobra.Command{
		Use:   "retrieve <query>",
		Short: "Show the indexed documents nearest to a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(false, func(a *app) error {
				svc, err := a.ragService(cmd.Context())
				if err != nil {
					return err
				}
				res, err := svc.Retrieve(cmd.Context(), strings.Join(args, " "), k)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if res.Status == domain.StatusEmpty {
					fmt.Fprintln(w, narrative.NoContext)
					return nil
				}
				for _, h := range res.Hits {
					fmt.Fprintf(w, "[%s] %v  distance=%.4f\n%s\n\n", h.Document.ID, h.Document.Metadata[rag.MetaDestination], h.Distance, h.Document.Text)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&k, "k", "k", 0, "Number of documents (0 uses the configured default)")
	return cmd
}

func newWeatherCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weather <city>",
		Short: "Show current weather",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(false, func(a *app) error {
				fmt.Fprintln(cmd.OutOrStdout(), a.weather().Current(cmd.Context(), strings.Join(args, " ")))
				return nil
			})
		},
	}
}

func newPlacesCmd(cat travel.Category) *cobra.Command {
	var purpose string
	cmd := &cobra.Command{
		Use:   cat.String() + " <location>",
		Short: "List nearby " + cat.String(),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(false, func(a *app) error {
				r := a.places().Nearby(cmd.Context(), strings.Join(args, " "), cat, purpose, a.cfg.Travel.TopN)
				fmt.Fprintln(cmd.OutOrStdout(), r)
				return nil
			})
		},
	}
	if cat == travel.Restaurants {
		cmd.Flags().StringVar(&purpose, "purpose", "", "Trip purpose used to pick the cuisine keyword")
	}
	return cmd
}

func newFlightsCmd() *cobra.Command {
	var q flights.Query
	cmd := &cobra.Command{
		Use:   "flights",
		Short: "Search flight offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(false, func(a *app) error {
				client, err := a.flights(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), client.Details(cmd.Context(), q))
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&q.Origin, "from", "", "Origin city")
	f.StringVar(&q.Destination, "to", "", "Destination city")
	f.StringVar(&q.DepartureDate, "depart", "", "Departure date (YYYY-MM-DD)")
	f.StringVar(&q.ReturnDate, "return", "", "Return date for round trips")
	f.Float64Var(&q.MaxPrice, "max-price", 0, "Maximum total price (0 uses the configured default)")
	f.StringVar(&q.Airline, "airline", "", "Only show this airline")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("depart")
	return cmd
}

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Interactive query screen over the index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(true, func(a *app) error {
				svc, err := a.ragService(cmd.Context())
				if err != nil {
					return err
				}
				m := tui.New(cmd.Context(), svc, svc.DefaultK(), svc.Len())
				if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
					return fmt.Errorf("tui failed: %w", err)
				}
				return nil
			})
		},
	}
}
