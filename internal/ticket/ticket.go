// Package ticket builds the human-readable sequential identifiers
// printed on queue slips and weighbridge tickets. All functions are
// pure; the daily sequence number must come from an atomic counter in
// the calling context.
package ticket

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// now is swapped out in tests to pin the year segment.
var now = time.Now

// legalPrefixes are stripped from entity names before deriving the
// two-letter code. Matching is case-insensitive.
var legalPrefixes = map[string]struct{}{
	"pt":       {},
	"cv":       {},
	"ud":       {},
	"pd":       {},
	"ptpn":     {},
	"koperasi": {},
	"kud":      {},
	"tbk":      {},
}

const placeholder = 'X'

// TicketNumber formats a 4-segment weighbridge ticket number:
// sequence/entityCode/productCode/year, e.g. "0007/AG/I/26".
func TicketNumber(seq int, entityName, productType string) string {
	return fmt.Sprintf("%04d/%s/%s/%s", seq, EntityCode(entityName), ProductCode(productType), yearSegment())
}

// QueueNumber formats a 3-segment queue number without the product
// segment, e.g. "0001/JM/26".
func QueueNumber(seq int, entityName string) string {
	return fmt.Sprintf("%04d/%s/%s", seq, EntityCode(entityName), yearSegment())
}

// EntityCode derives a two-letter code from an entity name: legal
// prefixes are stripped, then the first letters of the first two words
// are taken. A single-word name falls back to its first two letters,
// padding with 'X' when the name is too short.
func EntityCode(name string) string {
	words := strings.Fields(name)
	for len(words) > 0 {
		if _, ok := legalPrefixes[strings.ToLower(words[0])]; !ok {
			break
		}
		words = words[1:]
	}

	first, second := placeholder, placeholder
	if len(words) > 0 {
		runes := []rune(words[0])
		if len(runes) > 0 {
			first = runes[0]
		}
		if len(words) > 1 {
			if r := []rune(words[1]); len(r) > 0 {
				second = r[0]
			}
		} else if len(runes) > 1 {
			second = runes[1]
		}
	}

	return string([]rune{unicode.ToUpper(first), unicode.ToUpper(second)})
}

// ProductCode maps a free-text product type to its single-letter ticket
// code: kernel-family products map to "I", shell-family to "C",
// everything else (fresh fruit / CPO intake) to "S".
func ProductCode(productType string) string {
	switch strings.ToLower(strings.TrimSpace(productType)) {
	case "inti", "kernel":
		return "I"
	case "cangkang", "shell":
		return "C"
	default:
		return "S"
	}
}

func yearSegment() string {
	return fmt.Sprintf("%02d", now().Year()%100)
}
