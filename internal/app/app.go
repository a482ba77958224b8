// Package app assembles the daemon: config, logging, storage, holiday
// calendar, notification sink, coordinator, reconciler and the sweep
// service, wired in dependency order and torn down in reverse.
package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"remindd/internal/clock"
	"remindd/internal/config"
	"remindd/internal/coordinator"
	"remindd/internal/holiday"
	"remindd/internal/notify"
	"remindd/internal/service"
	"remindd/internal/storage"
	"remindd/internal/trigger"
	logx "remindd/pkg/logx"
)

const telegramTokenEnv = "REMINDD_TELEGRAM_TOKEN"

type App struct {
	cfgMgr *config.Manager
	logSvc *logx.Service
	log    logx.Logger

	store storage.Store
	cal   *holiday.Calendar
	sink  *notify.TimerSink
	coord *coordinator.Coordinator
	rec   *coordinator.Reconciler
	svc   *service.Service

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New loads the config file and brings up logging. Everything else
// starts in Start.
func New(cfgPath string) (*App, error) {
	mgr := config.NewManager(cfgPath)
	cfg, err := mgr.Load()
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", cfgPath, err)
	}

	logSvc, log := logx.New(cfg.Logging.Logx())
	mgr.SetLogger(log)

	return &App{cfgMgr: mgr, logSvc: logSvc, log: log}, nil
}

func (a *App) Logger() logx.Logger { return a.log }

// Coordinator exposes the engine to frontends once Start returned.
func (a *App) Coordinator() *coordinator.Coordinator { return a.coord }

func (a *App) Store() storage.Store { return a.store }

func (a *App) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	cfg := a.cfgMgr.Get()

	storageCfg, err := cfg.Storage.ToStorage()
	if err != nil {
		return err
	}
	store, err := storage.Open(ctx, storageCfg, a.log)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	a.store = store

	cal, err := holiday.Open(cfg.Holidays.Path, a.log)
	if err != nil {
		return fmt.Errorf("open holiday calendar: %w", err)
	}
	a.cal = cal
	if cfg.Holidays.Watch && cfg.Holidays.Path != "" {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := cal.Watch(ctx); err != nil {
				a.log.Warn("holiday watch stopped", logx.Err(err))
			}
		}()
	}

	delivery, err := a.buildDelivery(cfg)
	if err != nil {
		return err
	}
	a.sink = notify.NewTimerSink(delivery, cfg.Notify.Rate(), a.log)

	snooze, err := cfg.Notify.SnoozeDuration()
	if err != nil {
		return err
	}
	a.coord = coordinator.New(
		trigger.NewCalculator(cal),
		a.sink,
		store,
		clock.System(),
		a.log,
		coordinator.WithSnoozeInterval(snooze),
	)
	a.rec = coordinator.NewReconciler(a.coord, a.log)

	a.svc = service.New(service.Config{
		SweepSpec: cfg.Sweep.SpecOrDefault(),
		Timezone:  cfg.Sweep.Timezone,
	}, a.coord, a.rec, store, a.log)
	if err := a.svc.Start(ctx); err != nil {
		return err
	}

	if cfg.Notify.StartupTest {
		p := notify.Payload{Title: "remindd", Body: "Notification delivery is working."}
		if err := a.sink.Test(ctx, p); err != nil {
			a.log.Warn("startup test notification failed", logx.Err(err))
		}
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		_ = a.cfgMgr.Watch(ctx)
	}()
	updates := a.cfgMgr.Subscribe(1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.cfgMgr.Unsubscribe(updates)
		for {
			select {
			case <-ctx.Done():
				return
			case next, ok := <-updates:
				if !ok {
					return
				}
				a.applyConfig(ctx, next)
			}
		}
	}()

	a.log.Info("remindd started",
		logx.String("storage", storageCfg.Driver),
		logx.Bool("telegram", cfg.Notify.Telegram != nil))
	return nil
}

// applyConfig handles the reloadable subset: log level, sweep schedule
// and a notification rebuild. Storage and transport changes need a
// restart.
func (a *App) applyConfig(ctx context.Context, cfg *config.Config) {
	a.logSvc.Apply(cfg.Logging.Logx())
	if err := a.svc.Apply(service.Config{
		SweepSpec: cfg.Sweep.SpecOrDefault(),
		Timezone:  cfg.Sweep.Timezone,
	}); err != nil {
		a.log.Warn("sweep config rejected", logx.Err(err))
	}

	active, err := a.store.ListActive(ctx)
	if err != nil {
		a.log.Warn("config reload: list active failed", logx.Err(err))
		return
	}
	if err := a.coord.RescheduleAll(ctx, active); err != nil {
		a.log.Warn("config reload: reschedule incomplete", logx.Err(err))
	}
}

func (a *App) buildDelivery(cfg *config.Config) (notify.Delivery, error) {
	tg := cfg.Notify.Telegram
	if tg == nil {
		return notify.NewLogDelivery(a.log), nil
	}
	token := strings.TrimSpace(tg.Token)
	if token == "" {
		token = strings.TrimSpace(os.Getenv(telegramTokenEnv))
	}
	if token == "" {
		return nil, fmt.Errorf("telegram configured but no token (set notify.telegram.token or %s)", telegramTokenEnv)
	}
	d, err := notify.NewTelegramDelivery(token, tg.ChatID)
	if err != nil {
		return nil, fmt.Errorf("telegram delivery: %w", err)
	}
	return d, nil
}

// Stop tears down in reverse start order and waits for goroutines.
func (a *App) Stop() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.svc != nil {
		a.svc.Stop()
	}
	if a.sink != nil {
		a.sink.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("storage close failed", logx.Err(err))
		}
	}
	a.wg.Wait()
	if a.logSvc != nil {
		_ = a.logSvc.Close()
	}
}
