package main

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"

	"travelrag/internal/config"
	"travelrag/internal/digest"
	"travelrag/internal/domain"
	"travelrag/internal/embedding"
	"travelrag/internal/flights"
	"travelrag/internal/indexstore"
	"travelrag/internal/llm"
	"travelrag/internal/logging"
	"travelrag/internal/rag"
	"travelrag/internal/travel"
	"travelrag/internal/vectorindex"
)

// app wires components on demand so live lookups never open the index.
type app struct {
	cfg    *config.AppConfig
	logger arbor.ILogger

	store     *indexstore.Store
	rag       *rag.Service
	completer domain.Completer
}

func newApp(cfgPath string, quiet bool) (*app, error) {
	var (
		cfg *config.AppConfig
		err error
	)
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logCfg := cfg.Logging
	if quiet {
		logCfg = logging.Quiet(logCfg)
	}
	return &app{cfg: cfg, logger: logging.New(logCfg)}, nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to close index store")
		}
	}
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func (a *app) wikipedia() *travel.Wikipedia {
	t := a.cfg.Travel
	return travel.NewWikipedia(t.WikipediaURL, seconds(t.TimeoutSecs), t.RequestsPerSecond, a.logger)
}

func (a *app) places() *travel.Places {
	t := a.cfg.Travel
	return travel.NewPlaces(t.MapsURL, config.Secret(t.MapsAPIKeyEnv), seconds(t.TimeoutSecs), t.RequestsPerSecond, a.logger)
}

func (a *app) weather() *travel.Weather {
	t := a.cfg.Travel
	return travel.NewWeather(t.WeatherURL, config.Secret(t.WeatherAPIKeyEnv), seconds(t.TimeoutSecs), t.RequestsPerSecond, a.logger)
}

func (a *app) ragService(ctx context.Context) (*rag.Service, error) {
	if a.rag != nil {
		return a.rag, nil
	}
	policy, err := vectorindex.ParsePolicy(a.cfg.VectorIndex.OnDimensionChange)
	if err != nil {
		return nil, err
	}
	emb, err := embedding.New(ctx, a.cfg.Embedder)
	if err != nil {
		return nil, err
	}
	store, err := indexstore.Open(indexstore.Options{Dir: a.cfg.VectorIndex.Path}, a.logger)
	if err != nil {
		return nil, err
	}
	a.store = store

	svc, err := rag.NewService(ctx, emb, store, rag.Options{
		Policy:   policy,
		DefaultK: a.cfg.VectorIndex.DefaultK,
		Fetcher: &travel.Fetcher{
			Wiki:   a.wikipedia(),
			Places: a.places(),
			TopN:   a.cfg.Travel.TopN,
		},
		Digester: digest.New(),
	}, a.logger)
	if err != nil {
		return nil, err
	}
	a.rag = svc
	return svc, nil
}

func (a *app) llm(ctx context.Context) (domain.Completer, error) {
	if a.completer != nil {
		return a.completer, nil
	}
	c, err := llm.New(ctx, a.cfg.LLM, a.logger)
	if err != nil {
		return nil, err
	}
	a.completer = c
	return c, nil
}

func (a *app) flights(ctx context.Context) (*flights.Client, error) {
	f := a.cfg.Flights
	var namer flights.AirlineNamer
	if c, err := a.llm(ctx); err == nil {
		namer = flights.NewLLMNamer(c, a.logger)
	} else {
		a.logger.Warn().Err(err).Msg("No language model for airline names, showing carrier codes")
	}
	return flights.NewClient(ctx, flights.Config{
		BaseURL:           f.BaseURL,
		ClientID:          config.Secret(f.APIKeyEnv),
		ClientSecret:      config.Secret(f.APISecretEnv),
		MaxPrice:          f.MaxPrice,
		MaxOffers:         f.MaxOffers,
		RequestsPerSecond: f.RequestsPerSecond,
		Timeout:           seconds(f.TimeoutSecs),
	}, namer, a.logger)
}
