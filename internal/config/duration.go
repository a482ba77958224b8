package config

import (
	"fmt"
	"strings"
	"time"
)

// durationOr reads an optional duration setting. A blank value means
// "use the built-in default"; anything else must parse with
// time.ParseDuration and be positive, since every interval in this
// daemon (busy timeout, snooze delay) counts forward.
func durationOr(key, raw string, def time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	switch {
	case err != nil:
		return 0, fmt.Errorf("%s: %q is not a duration: %w", key, raw, err)
	case d <= 0:
		return 0, fmt.Errorf("%s: %q must be a positive duration", key, raw)
	}
	return d, nil
}
