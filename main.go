package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wrenvoice/voice-scheduler/agent/assistant"
	roomx "github.com/wrenvoice/voice-scheduler/agent/room"
	"github.com/wrenvoice/voice-scheduler/agent/session"
	summaryx "github.com/wrenvoice/voice-scheduler/agent/summary"
	toolx "github.com/wrenvoice/voice-scheduler/agent/tool"
	configx "github.com/wrenvoice/voice-scheduler/pkg/config"
	groqx "github.com/wrenvoice/voice-scheduler/pkg/groq"
	livekitx "github.com/wrenvoice/voice-scheduler/pkg/livekit"
	_ "github.com/wrenvoice/voice-scheduler/pkg/logger/autoload"
	"github.com/wrenvoice/voice-scheduler/scheduler"
	serverx "github.com/wrenvoice/voice-scheduler/server"
	"github.com/wrenvoice/voice-scheduler/store"
)

type AppConfig struct {
	// SeedSlotDays is how many upcoming days get hourly slots created at
	// startup. Existing slots are never touched.
	SeedSlotDays int `envconfig:"SEED_SLOT_DAYS" split_words:"true" default:"7"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appCfg := configx.MustNew[AppConfig]("")

	st, closeStore := newStore(ctx)
	defer closeStore()
	seedSlots(ctx, st, appCfg.SeedSlotDays)

	sched, err := scheduler.New(st)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build scheduler")
	}

	groqCfg := configx.MustNew[groqx.Config]("GROQ")
	var completer summaryx.ChatCompleter
	if c := groqx.NewClient(*groqCfg); c != nil {
		completer = c
	}
	generator := summaryx.NewGenerator(completer)

	lkClient := newLiveKit()

	var factory serverx.CallFactory
	if lkClient != nil {
		factory = func(ctx context.Context, roomName string) (*assistant.Assistant, error) {
			rm, err := roomx.NewLiveKit(lkClient, roomName)
			if err != nil {
				return nil, err
			}
			disp, err := toolx.NewDispatcher(sched, session.New(), rm, generator, toolx.DispatcherConfig{})
			if err != nil {
				return nil, err
			}
			chatModel, err := groqCfg.New(ctx)
			if err != nil {
				return nil, err
			}
			return assistant.New(ctx, chatModel, disp)
		}
	} else {
		log.Warn().Msg("livekit is not configured, voice call endpoints disabled")
	}

	srv, err := serverx.New(sched, lkClient, factory)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build server")
	}

	serverCfg := configx.MustNew[serverx.Config]("SERVER")
	httpServer := &http.Server{
		Addr:         serverCfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  serverCfg.ReadTimeout,
		WriteTimeout: serverCfg.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", serverCfg.Addr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}
}

// newStore picks Postgres when a DSN is configured and the in-memory store
// otherwise, so the service runs without external infrastructure in
// development.
func newStore(ctx context.Context) (store.Store, func()) {
	pgCfg := configx.MustNew[store.PostgresConfig]("POSTGRES")
	if strings.TrimSpace(pgCfg.DSN) == "" {
		log.Warn().Msg("no postgres dsn configured, using in-memory store")
		return store.NewMemory(), func() {}
	}

	pg, err := store.NewPostgres(*pgCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure schema")
	}
	return pg, func() {
		if err := pg.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close postgres")
		}
	}
}

// newLiveKit returns nil when the LiveKit environment is incomplete; the
// REST surface still runs, only room features are disabled.
func newLiveKit() *livekitx.Client {
	cfg, err := configx.New[livekitx.Config]("LIVEKIT")
	if err != nil {
		log.Warn().Err(err).Msg("livekit config incomplete")
		return nil
	}
	client, err := livekitx.NewClient(*cfg)
	if err != nil {
		log.Warn().Err(err).Msg("failed to build livekit client")
		return nil
	}
	return client
}

type slotSeeder interface {
	CreateSlots(ctx context.Context, slots []store.Slot) error
}

// seedSlots creates hourly 09:00-16:00 slots for the next days so a fresh
// deployment has something to book.
func seedSlots(ctx context.Context, st store.Store, days int) {
	seeder, ok := st.(slotSeeder)
	if !ok || days <= 0 {
		return
	}

	var slots []store.Slot
	now := time.Now()
	for d := 1; d <= days; d++ {
		date := now.AddDate(0, 0, d).Format("2006-01-02")
		for hour := 9; hour <= 16; hour++ {
			slots = append(slots, store.Slot{
				Date: date,
				Time: time.Date(0, 1, 1, hour, 0, 0, 0, time.UTC).Format("15:04"),
			})
		}
	}

	if err := seeder.CreateSlots(ctx, slots); err != nil {
		log.Error().Err(err).Msg("failed to seed slots")
		return
	}
	log.Info().Int("slots", len(slots)).Int("days", days).Msg("seeded appointment slots")
}
