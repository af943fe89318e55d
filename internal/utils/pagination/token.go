// Package pagination implements the opaque next-page tokens used by list
// endpoints. A token encodes the timestamp of the last row on the current
// page; the next query resumes strictly before it.
package pagination

import (
	"encoding/base64"
	"fmt"
	"time"
)

const timeFormat = time.RFC3339Nano // Use a precise time format

// EncodeTimeToken creates a base64 encoded token from the timestamp of the
// last row included on a page.
func EncodeTimeToken(t time.Time) string {
	return base64.StdEncoding.EncodeToString([]byte(t.Format(timeFormat)))
}

// DecodeTimeToken parses a base64 encoded token back into a timestamp.
func DecodeTimeToken(token string) (time.Time, error) {
	decodedBytes, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}

	t, err := time.Parse(timeFormat, string(decodedBytes))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid pagination token format (timestamp parse): %w", err)
	}

	return t, nil
}
