// Package holiday implements the holiday oracle backed by a YAML
// calendar file. Entries marked recurring match the same month/day every
// year; others match their exact date. The file can be edited while the
// daemon runs; Watch reloads it on change.
package holiday

import (
	"fmt"
	"os"
	"sync"
	"time"

	yaml "go.yaml.in/yaml/v3"

	logx "remindd/pkg/logx"
)

// Entry is one holiday in the calendar file.
type Entry struct {
	Name      string `yaml:"name"`
	Date      string `yaml:"date"` // 2006-01-02
	Recurring bool   `yaml:"recurring,omitempty"`
	Type      string `yaml:"type,omitempty"` // national, traditional, international, custom
}

type calendarFile struct {
	Name     string  `yaml:"name,omitempty"`
	Country  string  `yaml:"country,omitempty"`
	Holidays []Entry `yaml:"holidays"`
}

// Calendar answers IsHoliday lookups. Safe for concurrent use; reloads
// swap the lookup tables atomically under the lock.
type Calendar struct {
	path string
	log  logx.Logger

	mu        sync.RWMutex
	exact     map[string]string // "2006-01-02" -> name
	recurring map[string]string // "01-02" -> name
}

// Open loads the calendar at path. An empty path yields a calendar with
// no holidays, so callers can wire the oracle unconditionally.
func Open(path string, log logx.Logger) (*Calendar, error) {
	c := &Calendar{
		path:      path,
		log:       log,
		exact:     map[string]string{},
		recurring: map[string]string{},
	}
	if path == "" {
		return c, nil
	}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the calendar file and replaces the lookup tables.
// Invalid entries are skipped with a warning, not fatal: a typo in one
// line should not drop the whole calendar.
func (c *Calendar) Reload() error {
	if c.path == "" {
		return nil
	}
	b, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("holiday calendar: %w", err)
	}
	var f calendarFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("holiday calendar %s: %w", c.path, err)
	}

	exact := make(map[string]string, len(f.Holidays))
	recurring := map[string]string{}
	for _, e := range f.Holidays {
		d, err := time.Parse("2006-01-02", e.Date)
		if err != nil {
			c.log.Warn("skipping holiday with bad date",
				logx.String("name", e.Name), logx.String("date", e.Date))
			continue
		}
		if e.Recurring {
			recurring[d.Format("01-02")] = e.Name
		} else {
			exact[d.Format("2006-01-02")] = e.Name
		}
	}

	c.mu.Lock()
	c.exact = exact
	c.recurring = recurring
	c.mu.Unlock()

	c.log.Debug("holiday calendar loaded",
		logx.String("path", c.path),
		logx.Int("exact", len(exact)), logx.Int("recurring", len(recurring)))
	return nil
}

// IsHoliday reports whether the calendar date of t is a holiday. Only
// the date component matters.
func (c *Calendar) IsHoliday(t time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.exact[t.Format("2006-01-02")]; ok {
		return true
	}
	_, ok := c.recurring[t.Format("01-02")]
	return ok
}

// Lookup returns the holiday name for a date, if any.
func (c *Calendar) Lookup(t time.Time) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if name, ok := c.exact[t.Format("2006-01-02")]; ok {
		return name, true
	}
	name, ok := c.recurring[t.Format("01-02")]
	return name, ok
}
