package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/panyeroa1/orbit-translator/internal/bus"
	"github.com/panyeroa1/orbit-translator/internal/config"
	"github.com/panyeroa1/orbit-translator/internal/natsserver"
	"github.com/panyeroa1/orbit-translator/internal/protocol"
	"github.com/panyeroa1/orbit-translator/internal/speech"
	"github.com/panyeroa1/orbit-translator/internal/store"
	"github.com/panyeroa1/orbit-translator/internal/transcript"
	"github.com/panyeroa1/orbit-translator/internal/voice"
	"github.com/panyeroa1/orbit-translator/internal/watcher"
)

// Runtime wires the bus, source store, bridge and watcher together and
// exposes health, readiness, metrics and the transcript snapshot over HTTP.
type Runtime struct {
	cfg    config.Config
	logger *slog.Logger
	ready  atomic.Bool
	wg     sync.WaitGroup
}

func New(cfg config.Config, logger *slog.Logger) *Runtime {
	return &Runtime{
		cfg:    cfg,
		logger: logger,
	}
}

func (r *Runtime) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownTelemetry, metricsHandler, err := setupTelemetry(r.cfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}

	embedded, err := natsserver.Start(r.cfg.Bus, r.logger)
	if err != nil {
		return fmt.Errorf("failed to start embedded bus: %w", err)
	}
	defer embedded.Shutdown()

	busClient, err := bus.Connect(ctx, r.cfg.Bus, r.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to bus: %w", err)
	}
	defer busClient.Close()

	st, err := store.Open(ctx, r.cfg.Store, r.logger)
	if err != nil {
		return fmt.Errorf("failed to open source store: %w", err)
	}
	defer st.Close()

	log := transcript.NewLog(transcript.BusPublisher(busClient, r.logger))

	style, err := speech.ParseStyle(r.cfg.Speech.Style)
	if err != nil {
		return err
	}
	settings := speech.NewSettings(style)

	var session voice.Session
	switch r.cfg.Voice.Mode {
	case "mock":
		session = voice.NewMockSession()
	default:
		session = voice.NewNATSSession(busClient, r.logger)
	}

	bridge := speech.New(ctx, r.cfg.Speech, r.cfg.Voice.SessionID, session, log, settings, r.logger)
	defer bridge.Close()

	watch := watcher.NewService(ctx, r.cfg.Watcher, busClient, st, bridge, r.logger)
	if err := watch.Start(); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watch.Close()

	styleSub, err := r.subscribeStyleUpdates(busClient, settings)
	if err != nil {
		return fmt.Errorf("failed to subscribe to style updates: %w", err)
	}
	defer func() { _ = styleSub.Drain() }()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", r.handleHealth)
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if r.ready.Load() && busClient.Healthy() && watch.Healthy() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
	})
	mux.HandleFunc("/transcript", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(log.Turns())
	})
	if metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}

	addr := fmt.Sprintf("%s:%d", r.cfg.HTTP.Bind, r.cfg.HTTP.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error("http server failed", slog.String("error", err.Error()))
		}
	}()

	r.ready.Store(true)
	r.logger.Info("bridge runtime started", slog.String("addr", addr))

	<-ctx.Done()
	r.logger.Info("bridge runtime stopping")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("http shutdown error", slog.String("error", err.Error()))
	}
	r.wg.Wait()

	if shutdownTelemetry != nil {
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			r.logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
		}
	}

	return nil
}

// subscribeStyleUpdates switches the active speaking style on bus messages.
// Only segments not yet dispatched pick up the new style.
func (r *Runtime) subscribeStyleUpdates(busClient *bus.Client, settings *speech.Settings) (*nats.Subscription, error) {
	return busClient.Conn().Subscribe(protocol.SubjectStyleUpdate, func(msg *nats.Msg) {
		var update protocol.StyleUpdate
		if err := json.Unmarshal(msg.Data, &update); err != nil {
			r.logger.Warn("failed to decode style update", slog.String("error", err.Error()))
			return
		}
		style, err := speech.ParseStyle(update.Style)
		if err != nil {
			r.logger.Warn("ignoring style update", slog.String("error", err.Error()))
			return
		}
		settings.SetStyle(style)
		r.logger.Info("speaking style changed", slog.String("style", update.Style))
	})
}

func (r *Runtime) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
