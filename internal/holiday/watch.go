package holiday

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	logx "remindd/pkg/logx"
)

// Watch reloads the calendar whenever its file changes. It blocks until
// ctx is done. Editors write in multiple events, so reloads are
// debounced; a failed reload keeps the previous tables.
func (c *Calendar) Watch(ctx context.Context) error {
	if c.path == "" {
		<-ctx.Done()
		return nil
	}

	dir := filepath.Dir(c.path)
	file := filepath.Base(c.path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	debounce := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(250*time.Millisecond, func() {
			if err := c.Reload(); err != nil {
				c.log.Warn("holiday calendar reload failed",
					logx.String("path", c.path), logx.Err(err))
			}
		})
	}

	c.log.Debug("holiday calendar watcher started", logx.String("path", c.path))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if strings.EqualFold(filepath.Base(ev.Name), file) {
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					debounce()
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				c.log.Warn("holiday calendar watch error", logx.Err(err))
			}
		}
	}
}
