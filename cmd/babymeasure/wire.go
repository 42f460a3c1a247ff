package main

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	adapthttp "babymeasure/internal/adapter/http"
	"babymeasure/internal/adapter/memory"
	"babymeasure/internal/adapter/postgres"
	"babymeasure/internal/adapter/publish"
	"babymeasure/internal/adapter/render"
	"babymeasure/internal/adapter/sqlite"
	"babymeasure/internal/adapter/sqlstore"
	"babymeasure/internal/app"
	"babymeasure/internal/config"
	"babymeasure/internal/domain"
	"babymeasure/internal/extract"
)

// stores bundles the repositories of one storage backend.
type stores struct {
	measurements domain.MeasurementRepository
	users        domain.UserRepository
	sessions     domain.SessionRepository
	pairings     domain.PairingRepository
	close        func() error
}

func openStores(cfg config.StoreConfig) (*stores, error) {
	var (
		st  *sqlstore.Store
		err error
	)
	switch cfg.Driver {
	case "memory":
		db := memory.New()
		return &stores{
			measurements: db,
			users:        db,
			sessions:     db.NewSessionRepo(),
			pairings:     db,
			close:        func() error { return nil },
		}, nil
	case "postgres":
		st, err = postgres.Open(cfg.DSN)
	case "sqlite":
		st, err = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("%s open: %w", cfg.Driver, err)
	}
	return &stores{
		measurements: st,
		users:        st,
		sessions:     sqlstore.NewSessionRepo(st),
		pairings:     st,
		close:        st.Close,
	}, nil
}

// application is the wired object graph shared by the commands.
type application struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	stores   *stores
	chat     *app.ChatService
	pairing  *app.PairingService
	queue    *app.PublishQueue // nil when publishing is disabled
	services adapthttp.Services
}

func newApplication(cfg *config.Config, logger *zap.Logger) (*application, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	st, err := openStores(cfg.Store)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := app.NewMetrics(reg)

	charts := app.NewChartsService(st.measurements, render.New(), loc, cfg.Chatbot.PlotDefaultDays, cfg.Chatbot.PlotPadding)

	var (
		queue *app.PublishQueue
		enq   app.Enqueuer
	)
	if cfg.Publish.Enabled {
		pubCfg := publish.Config{Dir: cfg.Publish.Dir, PageURL: cfg.Publish.PageURL}
		if g := cfg.Publish.Git; g.Enabled {
			pubCfg.Git = &publish.GitConfig{
				Remote:      g.Remote,
				Branch:      g.Branch,
				Token:       g.Token,
				AuthorName:  g.AuthorName,
				AuthorEmail: g.AuthorEmail,
			}
		}
		pub := publish.New(pubCfg, charts, logger.Named("publish"))
		queue = app.NewPublishQueue(pub, cfg.Publish.Timeout, logger.Named("publish"), metrics)
		enq = queue
	}

	edits := app.NewEditService(st.measurements, loc, enq)
	status := app.NewStatusService(version, time.Now())
	dispatcher := app.NewDispatcher(
		app.DispatcherConfig{
			Location:        loc,
			PlotPadding:     cfg.Chatbot.PlotPadding,
			PlotDefaultDays: cfg.Chatbot.PlotDefaultDays,
		},
		app.DispatcherDeps{
			Store:   st.measurements,
			Charts:  charts,
			Editor:  edits,
			Queue:   enq,
			Status:  status,
			Metrics: metrics,
			Logger:  logger.Named("dispatcher"),
		},
	)
	ex := extract.New(extract.Options{
		Greetings:       cfg.Chatbot.Greetings,
		Location:        loc,
		PlotDefaultDays: cfg.Chatbot.PlotDefaultDays,
	})
	chat := app.NewChatService(ex, dispatcher, logger.Named("chat"), metrics)

	a := &application{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		stores:   st,
		chat:     chat,
		queue:    queue,
		services: adapthttp.Services{
			Chat:         chat,
			Measurements: app.NewMeasurementService(st.measurements, loc, enq),
			Edits:        edits,
			Charts:       charts,
			Auth:         app.NewAuthService(st.users, st.sessions, 0),
			Status:       status,
			Publish:      queue,
		},
	}
	if cfg.Telegram.Enabled {
		a.pairing = app.NewPairingService(st.pairings, cfg.Telegram.Secret, cfg.Telegram.MaxAttempts)
	}
	return a, nil
}

func (a *application) Close() error {
	return a.stores.close()
}
