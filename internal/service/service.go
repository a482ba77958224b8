// Package service hosts the background side of the engine: the initial
// notification rebuild on startup and the periodic expiry sweep.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"remindd/internal/coordinator"
	"remindd/internal/storage"
	logx "remindd/pkg/logx"
)

type Config struct {
	SweepSpec string
	Timezone  string
}

type Service struct {
	log   logx.Logger
	coord *coordinator.Coordinator
	rec   *coordinator.Reconciler
	store storage.Store

	parser cron.Parser

	mu      sync.Mutex
	cfg     Config
	c       *cron.Cron
	baseCtx context.Context
}

func New(cfg Config, coord *coordinator.Coordinator, rec *coordinator.Reconciler, store storage.Store, log logx.Logger) *Service {
	return &Service{
		log:    log,
		coord:  coord,
		rec:    rec,
		store:  store,
		cfg:    cfg,
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

// Start rebuilds the outstanding notification set from storage and
// begins the periodic sweep. ctx bounds the lifetime of sweep runs.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return errors.New("service already started")
	}
	s.baseCtx = ctx

	active, err := s.store.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active reminders: %w", err)
	}
	if err := s.coord.RescheduleAll(ctx, active); err != nil {
		// Partial failures are not fatal; the next sweep or edit retries.
		s.log.Warn("startup reschedule incomplete", logx.Err(err))
	}
	s.log.Info("notifications rebuilt", logx.Int("active", len(active)))

	return s.startCronLocked()
}

func (s *Service) startCronLocked() error {
	loc := time.Local
	if tz := strings.TrimSpace(s.cfg.Timezone); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return fmt.Errorf("load timezone %q: %w", tz, err)
		}
		loc = l
	}

	c := cron.New(cron.WithParser(s.parser), cron.WithLocation(loc))
	if _, err := c.AddFunc(s.cfg.SweepSpec, s.sweep); err != nil {
		return fmt.Errorf("sweep spec %q: %w", s.cfg.SweepSpec, err)
	}
	c.Start()
	s.c = c
	s.log.Debug("sweep scheduled",
		logx.String("spec", s.cfg.SweepSpec),
		logx.String("tz", loc.String()))
	return nil
}

func (s *Service) sweep() {
	s.mu.Lock()
	ctx := s.baseCtx
	s.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}
	if err := s.rec.Sweep(ctx); err != nil {
		s.log.Warn("expiry sweep failed", logx.Err(err))
	}
}

// Apply swaps in a new sweep schedule. The running cron is drained
// before the replacement starts.
func (s *Service) Apply(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg == s.cfg && s.c != nil {
		return nil
	}
	old := s.c
	s.cfg = cfg
	if old == nil {
		return nil
	}
	<-old.Stop().Done()
	s.c = nil
	return s.startCronLocked()
}

// Stop halts the sweep and waits for an in-flight run to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}
