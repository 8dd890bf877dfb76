// FilePath: internal/models/models.time.go
package models

import (
	"fmt"
	"strings"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp. A trailing "Z" means UTC and
// timestamps without an offset are taken as UTC. Query strings turn "+" into
// a space, so a space before the offset is accepted too.
func ParseTimestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	candidates := []string{s}
	if i := strings.LastIndex(s, " "); i > 10 {
		candidates = append(candidates, s[:i]+"+"+s[i+1:])
	}
	for _, c := range candidates {
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, c); err == nil {
				return t.UTC(), nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
}
