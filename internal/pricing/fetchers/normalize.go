package fetchers

import (
	"strconv"
	"strings"
	"time"
)

// Candidate field names tried in order per value; the first present key
// wins. Missing values resolve to nil, never zero.
var (
	dateFields   = []string{"effective_date", "date", "tanggal", "tanggal_berlaku", "periode"}
	intiFields   = []string{"price_inti", "harga_inti", "inti", "kernel_price"}
	plasmaFields = []string{"price_plasma", "harga_plasma", "plasma", "plasma_price"}
	umumFields   = []string{"price_umum", "harga_umum", "umum", "harga_pasar", "market_price"}
)

var dateLayouts = []string{"2006-01-02", "02-01-2006", "2006/01/02", time.RFC3339}

// pickNumber returns the first candidate field present in raw that
// parses as a number.
func pickNumber(raw map[string]any, candidates []string) *float64 {
	for _, key := range candidates {
		v, ok := raw[key]
		if !ok {
			continue
		}
		if n, ok := toNumber(v); ok {
			return &n
		}
	}
	return nil
}

// pickDate returns the first candidate field that parses as a date,
// truncated to midnight UTC, or fallback when none does.
func pickDate(raw map[string]any, candidates []string, fallback time.Time) time.Time {
	for _, key := range candidates {
		s, ok := raw[key].(string)
		if !ok {
			continue
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			}
		}
	}
	return time.Date(fallback.Year(), fallback.Month(), fallback.Day(), 0, 0, 0, 0, time.UTC)
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(n, ",", ""))
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
