package grid

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// listSeparator joins list items under a single query key.
const listSeparator = ","

// dateLayout is the wire format of date-range bounds.
const dateLayout = time.DateOnly

// The URL is user-editable, so every decoder falls back to a default instead
// of failing. Encoders return ok=false when the key should be omitted.

// EncodeText encodes a scalar. Empty strings are omitted.
func EncodeText(v string) (string, bool) {
	if v == "" {
		return "", false
	}
	return v, true
}

// DecodeText returns the value of key, or def when the key is missing.
func DecodeText(q url.Values, key, def string) string {
	if _, ok := q[key]; !ok {
		return def
	}
	return q.Get(key)
}

// EncodeList joins items with commas. Items are escaped so values that
// contain commas survive the round trip. Empty lists are omitted.
func EncodeList(items []string) (string, bool) {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		if it == "" {
			continue
		}
		parts = append(parts, escapeItem(it))
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, listSeparator), true
}

// DecodeList splits a comma-joined value, dropping empty segments. Items
// are kept byte for byte, surrounding spaces included, so they match what
// EncodeList wrote. A list that decodes to nothing is nil, same as absent.
func DecodeList(q url.Values, key string) []string {
	raw := q.Get(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, seg := range strings.Split(raw, listSeparator) {
		seg = unescapeItem(seg)
		if seg == "" {
			continue
		}
		out = append(out, seg)
	}
	return out
}

func escapeItem(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	return strings.ReplaceAll(s, listSeparator, "%2C")
}

func unescapeItem(s string) string {
	s = strings.ReplaceAll(s, "%2C", listSeparator)
	s = strings.ReplaceAll(s, "%2c", listSeparator)
	return strings.ReplaceAll(s, "%25", "%")
}

// EncodePage converts a zero-based page index to its one-based URL form.
func EncodePage(pageIndex int) string {
	if pageIndex < 0 {
		pageIndex = 0
	}
	return strconv.Itoa(pageIndex + 1)
}

// DecodePage reads a one-based page number and returns the zero-based index.
// def is the zero-based index used when the value is missing or invalid.
func DecodePage(q url.Values, key string, def int) int {
	page := DecodeInt(q, key, def+1, 1, maxPageNumber)
	return page - 1
}

// maxPageNumber bounds page numbers well below int overflow.
const maxPageNumber = 1 << 30

// DecodeInt parses an integer in [min, max]. Missing, non-numeric and
// out-of-bound values decode to def.
func DecodeInt(q url.Values, key string, def, min, max int) int {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min || n > max {
		return def
	}
	return n
}

// EncodeDateRange writes "from" or "from,to". Empty ranges are omitted.
func EncodeDateRange(r DateRange) (string, bool) {
	if r.IsEmpty() {
		return "", false
	}
	s := r.From.Format(dateLayout)
	if r.HasTo && !r.To.IsZero() {
		s += listSeparator + r.To.Format(dateLayout)
	}
	return s, true
}

// DecodeDateRange parses "from" or "from,to". Malformed values decode as
// absent. A To before From is dropped.
func DecodeDateRange(q url.Values, key string) (DateRange, bool) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return DateRange{}, false
	}
	parts := strings.SplitN(raw, listSeparator, 2)
	from, err := time.Parse(dateLayout, strings.TrimSpace(parts[0]))
	if err != nil {
		return DateRange{}, false
	}
	r := DateRange{From: from}
	if len(parts) == 2 && strings.TrimSpace(parts[1]) != "" {
		to, err := time.Parse(dateLayout, strings.TrimSpace(parts[1]))
		if err == nil && !to.Before(from) {
			r.To = to
			r.HasTo = true
		}
	}
	return r, true
}

// ParseDate parses a single date-range bound in wire format.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, strings.TrimSpace(s))
}

// FormatDate formats a date-range bound in wire format.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
