package models

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/consolecache/internal/normalize"
)

// TimeLayout is the layout of timestamps substituted for missing times.
const TimeLayout = "2006-01-02T15:04:05"

// Placeholders used when a field cannot be resolved.
const (
	NotAvailable = "N/A"
	Unknown      = "Unknown"
)

var nowFunc = time.Now

func nowPlaceholder() string {
	return nowFunc().UTC().Format(TimeLayout)
}

// NormalizeAll flattens payload and normalizes every record with fn. The
// returned slice is never nil.
func NormalizeAll[T any](payload any, fn func(map[string]any) (T, normalize.Report)) ([]T, normalize.Report) {
	raws := normalize.Flatten(payload)
	out := make([]T, 0, len(raws))

	var report normalize.Report
	for _, raw := range raws {
		rec, r := fn(raw)
		report.Merge(r)
		out = append(out, rec)
	}
	return out, report
}

// canonicalStatus lowercases s and joins words with underscores, then maps
// it through aliases.
func canonicalStatus(s string, aliases map[string]string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	if c, ok := aliases[s]; ok {
		return c
	}
	return s
}

// SameEmail compares two principals the way the API does: trimmed and
// case-insensitive.
func SameEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
