package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

const (
	// MaxLimit caps how many items a single page can carry.
	MaxLimit = 1000

	cursorPrefix = "o:"
)

// Params holds page inputs parsed from the query string. A zero Limit returns
// everything after the cursor.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor marks where the next page starts within the visible list.
type Cursor struct {
	Offset int
}

// NormalizeLimit clamps limit to MaxLimit; non-positive values mean no limit.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return 0
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// EncodeCursor builds an opaque, query-safe cursor string.
func EncodeCursor(cursor Cursor) string {
	return base64.RawURLEncoding.EncodeToString([]byte(cursorPrefix + strconv.Itoa(cursor.Offset)))
}

// ParseCursor decodes a cursor string; an empty value yields nil.
func ParseCursor(value string) (*Cursor, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	raw, ok := strings.CutPrefix(string(decoded), cursorPrefix)
	if !ok {
		return nil, fmt.Errorf("invalid cursor format")
	}
	offset, err := strconv.Atoi(raw)
	if err != nil || offset < 0 {
		return nil, fmt.Errorf("invalid cursor offset")
	}
	return &Cursor{Offset: offset}, nil
}

// Page slices items according to params and returns the cursor for the following
// page, or "" when the window reaches the end. Cursors past the end yield an empty page.
func Page[T any](items []T, params Params) ([]T, string, error) {
	cursor, err := ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	offset := 0
	if cursor != nil {
		offset = min(cursor.Offset, len(items))
	}

	limit := NormalizeLimit(params.Limit)
	if limit == 0 || offset+limit >= len(items) {
		return items[offset:], "", nil
	}
	end := offset + limit
	return items[offset:end], EncodeCursor(Cursor{Offset: end}), nil
}
