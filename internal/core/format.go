package core

// format.go provides the normalization contract shared by both export paths.
//
// Every value that lands in the CSV goes through one of these functions
// (remote path) or through the SQL expression derived from the same rule
// (relational path, see dbexport/query.go):
//   - Text: trimmed of ASCII whitespace and NFC composed; empty means missing
//   - Booleans: literal True/False
//   - Floats: shortest decimal, never an exponent, always a fractional part
//   - Timestamps: YYYY-MM-DD HH:MM:SS, dates: YYYY-MM-DD
//   - Tags: sorted, de-duplicated, joined by TagSeparator

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

const (
	// TrimSet is the whitespace stripped from both ends of every text value.
	// The relational path passes the same set to btrim().
	TrimSet = " \t\n\v\f\r"

	// TagSeparator joins the tag labels of one lead.
	TagSeparator = " | "

	// TimestampLayout is the rendering of datetime fields.
	TimestampLayout = "2006-01-02 15:04:05"

	// DateLayout is the rendering of date-only fields.
	DateLayout = "2006-01-02"

	// DefaultLocale is the translation key used when no other key is known.
	DefaultLocale = "en_US"
)

// BOM is the UTF-8 byte-order-mark written at the start of every export.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// NormalizeText trims TrimSet from both ends and composes to NFC.
// Returns "" for blank input.
func NormalizeText(s string) string {
	s = strings.Trim(s, TrimSet)
	if s == "" {
		return ""
	}
	return norm.NFC.String(s)
}

// FormatBool renders a boolean as True or False.
func FormatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// FormatInt renders an identifier. Zero ids are absent in the source data and
// render empty.
func FormatInt(i int64) string {
	if i == 0 {
		return ""
	}
	return strconv.FormatInt(i, 10)
}

// FormatFloat renders a float in its shortest round-trip decimal form without
// an exponent, always with at least one digit after the decimal point.
// NaN and infinities are not representable in the source and render empty.
func FormatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	if f == 0 {
		// Covers negative zero.
		return "0.0"
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// FormatTimestamp renders a datetime, or "" for the zero time.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimestampLayout)
}

// FormatDate renders a date, or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// timestampLayouts are accepted source renderings of datetime values.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
}

// NormalizeTimestamp re-renders a source datetime string using
// TimestampLayout, truncating fractional seconds. Unparseable input renders
// empty.
func NormalizeTimestamp(s string) string {
	s = strings.Trim(s, TrimSet)
	if s == "" {
		return ""
	}
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return FormatTimestamp(t.UTC())
		}
	}
	return ""
}

// NormalizeDate re-renders a source date string using DateLayout. A datetime
// is accepted and truncated to its date. Unparseable input renders empty.
func NormalizeDate(s string) string {
	s = strings.Trim(s, TrimSet)
	if s == "" {
		return ""
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return FormatDate(t)
	}
	if ts := NormalizeTimestamp(s); ts != "" {
		return ts[:len(DateLayout)]
	}
	return ""
}

// JoinTags normalizes each label, drops blanks and duplicates, sorts and
// joins with TagSeparator. The result does not depend on the order of the
// input.
//
// Sorting is by byte order of the UTF-8 text, not case-folded: "Zeta" sorts
// before "alpha". The relational path sorts with COLLATE "C", which is the
// same order, so both paths agree regardless of database collation.
func JoinTags(labels []string) string {
	if len(labels) == 0 {
		return ""
	}

	seen := make(map[string]struct{}, len(labels))
	uniq := make([]string, 0, len(labels))
	for _, l := range labels {
		l = NormalizeText(l)
		if l == "" {
			continue
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		uniq = append(uniq, l)
	}

	sort.Strings(uniq)
	return strings.Join(uniq, TagSeparator)
}
