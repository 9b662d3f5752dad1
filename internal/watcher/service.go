// Package watcher keeps the bridge fed with the freshest source record.
package watcher

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/panyeroa1/orbit-translator/internal/bus"
	"github.com/panyeroa1/orbit-translator/internal/config"
	"github.com/panyeroa1/orbit-translator/internal/protocol"
	"github.com/panyeroa1/orbit-translator/internal/speech"
	"github.com/panyeroa1/orbit-translator/internal/store"
)

// Service watches the source table through two redundant triggers: a push
// subscription on the bus and a poll timer on its own goroutine. Both feed
// the bridge's idempotent ingestion path, so a race between them costs one
// suppressed duplicate, never a double enqueue.
type Service struct {
	cfg    config.WatcherConfig
	bus    *bus.Client
	store  *store.Store
	bridge *speech.Bridge
	logger *slog.Logger
	sub    *nats.Subscription
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewService(parent context.Context, cfg config.WatcherConfig, busClient *bus.Client, st *store.Store, bridge *speech.Bridge, logger *slog.Logger) *Service {
	ctx, cancel := context.WithCancel(parent)
	return &Service{
		cfg:    cfg,
		bus:    busClient,
		store:  st,
		bridge: bridge,
		logger: logger.With(slog.String("component", "watcher")),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Service) Start() error {
	if !s.cfg.Enabled {
		return nil
	}
	sub, err := s.bus.Conn().Subscribe(protocol.SubjectRecordChanged, s.handleChange)
	if err != nil {
		return err
	}
	s.sub = sub

	s.wg.Add(1)
	go s.pollLoop()
	return nil
}

// Close cancels the push subscription and stops the poll timer. The
// bridge's queue and dedup state are untouched, so segments queued before
// a disconnect resume draining once the gate reopens.
func (s *Service) Close() {
	s.cancel()
	if s.sub != nil {
		_ = s.sub.Drain()
	}
	s.wg.Wait()
}

func (s *Service) Healthy() bool {
	return !s.cfg.Enabled || s.sub != nil
}

func (s *Service) handleChange(msg *nats.Msg) {
	var change protocol.RecordChange
	if err := json.Unmarshal(msg.Data, &change); err != nil {
		s.logger.Warn("failed to decode record change", slogError(err))
		return
	}
	rec, err := store.NormalizeChange(change)
	if err != nil {
		s.logger.Warn("failed to normalize changed row", slogError(err))
		return
	}
	s.bridge.Ingest(rec)
}

func (s *Service) pollLoop() {
	defer s.wg.Done()
	interval := time.Duration(s.cfg.PollIntervalMS) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.pollOnce()
		}
	}
}

// pollOnce fetches the most recent record and hands it to the bridge. Fetch
// errors are transient by taxonomy; the next tick retries naturally. The
// tick also nudges a halted drain loop back to life after a reconnect.
func (s *Service) pollOnce() {
	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	defer cancel()

	rec, err := s.store.FetchLatest(ctx)
	if err != nil {
		s.logger.Warn("poll fetch failed", slogError(err))
		return
	}
	if rec != nil {
		s.bridge.Ingest(rec)
	}
	s.bridge.Resume()
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
