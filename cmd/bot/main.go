package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"careline/internal/bot"
	"careline/internal/clinicapi"
	"careline/internal/config"
	"careline/internal/credstore"
	"careline/internal/events"
	"careline/internal/google"
	"careline/internal/metrics"
	"careline/internal/payment"
	"careline/internal/reminders"
	"careline/internal/session"
)

func main() {
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("CARELINE_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Telegram.BotToken == "" || cfg.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		logger.Fatal().Msg("set telegram.bot_token in config")
	}
	if cfg.API.BaseURL == "" {
		logger.Fatal().Msg("set api.base_url in config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	sqliteStore, err := credstore.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("open session store")
	}
	defer sqliteStore.Close()

	store := credstore.NewFailoverStore(credstore.NewRedisStore(rdb), sqliteStore, &logger)

	client := clinicapi.New(cfg.API.BaseURL, store, &logger)
	if cfg.API.CacheTTLSeconds > 0 {
		client.UseRedisCache(rdb, cfg.CacheTTL())
	}

	bus := events.NewBus()
	sessions := session.NewManager(client, store, bus, &logger)
	client.OnUnauthorized(sessions.Invalidate)

	payCfg := payment.Config{
		ReturnBaseURL: cfg.Payment.ReturnBaseURL,
		SuccessMarker: cfg.Payment.SuccessMarker,
		CancelMarker:  cfg.Payment.CancelMarker,
	}
	handoff := payment.NewHandoff(client, payCfg, &logger)
	watcher := payment.NewRedirectWatcher(cfg.Payment.CallbackAddress, payCfg, &logger)
	go func() {
		if err := watcher.Start(); err != nil {
			logger.Error().Err(err).Msg("redirect watcher error")
		}
	}()
	defer func() {
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = watcher.Shutdown(ctxShutdown)
	}()

	opts := bot.Options{
		SlotInterval:      cfg.SlotInterval(),
		OTPResendCooldown: cfg.OTPResendCooldown(),
		RateLimit:         rate.Limit(cfg.Bot.RateLimitPerSecond),
		RateBurst:         cfg.Bot.RateBurst,
	}
	b, err := bot.New(cfg.Telegram.BotToken, client, sessions, handoff, watcher, bus, opts, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("create bot error")
	}

	if cfg.Google.Enabled {
		cal, err := google.NewCalendarService(ctx, cfg.Google.CredentialsPath, cfg.Google.CalendarID, cfg.Google.Timezone, &logger)
		if err != nil {
			logger.Error().Err(err).Msg("calendar mirror disabled")
		} else {
			b.SetBookingMirror(cal)
		}
	}

	if cfg.Reminders.Enabled {
		remCfg := reminders.DefaultConfig()
		remCfg.CheckInterval = cfg.ReminderCheckInterval()
		if cfg.Reminders.HoursBefore > 0 {
			remCfg.HoursBefore = cfg.Reminders.HoursBefore
		}
		rem := reminders.NewService(remCfg, sessions, client, b, &logger)
		rem.Start()
		defer rem.Stop()
	}

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, sqliteStore, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	logger.Info().Msg("careline bot started")
	b.Start(ctx)
}

func startHealthServer(ctx context.Context, port int, store *credstore.SQLiteStore, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := store.PingContext(ctxPing); err != nil {
			http.Error(w, "session store not ready", http.StatusServiceUnavailable)
			return
		}
		if err := rdb.Ping(ctxPing).Err(); err != nil {
			http.Error(w, "redis not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
