// Package pagination implements the forward-only opaque cursor shared by
// every list endpoint: feeds, comments, followers, likes, messages and the
// inbox.
//
// A cursor is the URL-safe base64 encoding of the sort key's canonical text
// form: RFC 3339 with nanoseconds for timestamps, base-10 for integer keys.
// The literal "0" (or an absent cursor) means "first page". Queries fetch
// limit+1 rows; when the extra row comes back the page is trimmed to limit
// and the next cursor encodes the sort key of the last row actually
// returned, so the strict < filter of the following request resumes exactly
// one row past it.
package pagination

import (
	"encoding/base64"
	"errors"
	"strconv"
	"time"
)

// First is the cursor value requesting the first page.
const First = "0"

// ErrInvalidCursor is returned for a cursor that does not decode to a valid
// sort key. Handlers convert it into a 400 response.
var ErrInvalidCursor = errors.New("invalid cursor")

// IsFirst reports whether the cursor requests the first page.
func IsFirst(cursor string) bool {
	return cursor == "" || cursor == First
}

// EncodeTime encodes a timestamp sort key.
func EncodeTime(t time.Time) string {
	return encode(t.UTC().Format(time.RFC3339Nano))
}

// DecodeTime decodes a timestamp sort key.
func DecodeTime(cursor string) (time.Time, error) {
	raw, err := decode(cursor)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, ErrInvalidCursor
	}
	return t, nil
}

// EncodeInt encodes an integer sort key (a user id or a rank sequence).
func EncodeInt(n int64) string {
	return encode(strconv.FormatInt(n, 10))
}

// DecodeInt decodes an integer sort key.
func DecodeInt(cursor string) (int64, error) {
	raw, err := decode(cursor)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, ErrInvalidCursor
	}
	return n, nil
}

// Trim applies the limit+1 window convention: given the rows of an
// over-fetched query it returns at most limit rows and whether another page
// exists. The caller encodes the last returned row's key as the next cursor.
func Trim[T any](rows []T, limit int) ([]T, bool) {
	if len(rows) > limit {
		return rows[:limit], true
	}
	return rows, false
}

func encode(raw string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decode(cursor string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", ErrInvalidCursor
	}
	return string(raw), nil
}
