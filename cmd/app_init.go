package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vantage-os/vantage-cli/internal/agenda"
	"github.com/vantage-os/vantage-cli/internal/assemble"
	"github.com/vantage-os/vantage-cli/internal/assistant"
	"github.com/vantage-os/vantage-cli/internal/feeds"
	"github.com/vantage-os/vantage-cli/internal/pdftext"
	"github.com/vantage-os/vantage-cli/internal/relay"
	"github.com/vantage-os/vantage-cli/internal/scan"
	"github.com/vantage-os/vantage-cli/internal/session"
	"github.com/vantage-os/vantage-cli/internal/store"
	"github.com/vantage-os/vantage-cli/pkg/gemini"
)

// appEnv holds the initialized store and services shared by the commands.
type appEnv struct {
	Store   store.Store
	Manager *session.Manager
	Drive   *scan.DriveScanner
	Gateway *assistant.Gateway
	Feeds   *feeds.Monitor
	Agenda  *agenda.Service
	Fetcher relay.Fetcher
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Manager != nil {
		e.Manager.Close()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initStore opens the configured store backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store)
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initApp sets up the store, relay chain, scanners, and session manager.
// Callers should defer env.Close().
func initApp(ctx context.Context) (*appEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	chain, err := relay.Build(cfg.Relay)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	extractor := pdftext.NewExtractor(chain, cfg.PDF.PageCap)

	drive := scan.NewDriveScanner(chain, cfg.Drive)
	scanners := []scan.Scanner{
		scan.NewLegisScanner(chain, extractor, cfg.Legis),
		scan.NewSummaryScanner(chain, cfg.Legis),
		drive,
	}

	gw := assistant.New(
		gemini.NewClient(cfg.Gemini.Key,
			gemini.WithBaseURL(cfg.Gemini.BaseURL),
			gemini.WithModel(cfg.Gemini.Model),
		),
		cfg.Gemini.MaxAttempts,
		time.Duration(cfg.Gemini.BackoffMillis)*time.Millisecond,
	)

	mgr := session.NewManager(session.Deps{
		Store:         st,
		Sheet:         scan.NewSheetScanner(chain, cfg.Sheet),
		Scanners:      scanners,
		Extractor:     extractor,
		Fetcher:       chain,
		Generator:     gw,
		Assembler:     assemble.New(cfg.Context.PerDocCap, cfg.Context.TotalCap, cfg.Context.MinContent),
		AutosaveQuiet: time.Duration(cfg.Autosave.QuietMillis) * time.Millisecond,
	})

	zap.L().Info("app initialized",
		zap.String("store", cfg.Store.Driver),
		zap.Strings("relays", cfg.Relay.Order),
	)

	return &appEnv{
		Store:   st,
		Manager: mgr,
		Drive:   drive,
		Gateway: gw,
		Feeds:   feeds.New(chain, cfg.Feeds),
		Agenda:  agenda.New(chain, cfg.Agenda),
		Fetcher: chain,
	}, nil
}
