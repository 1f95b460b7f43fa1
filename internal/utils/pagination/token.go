package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

const timeFormat = time.RFC3339Nano

// EncodeToken creates an opaque cursor from a submission time and a row id.
// Both list queries order by (submitted_at, exeat_id), so the pair uniquely
// positions the cursor even when timestamps collide.
func EncodeToken(submittedAt time.Time, exeatID string) string {
	tokenStr := fmt.Sprintf("%s|%s", submittedAt.Format(timeFormat), exeatID)
	return base64.StdEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeToken parses an opaque cursor back into submission time and row id.
func DecodeToken(token string) (time.Time, string, error) {
	decodedBytes, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	parts := strings.SplitN(string(decodedBytes), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, "", fmt.Errorf("invalid pagination token format (split)")
	}

	submittedAt, err := time.Parse(timeFormat, parts[0])
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid pagination token format (time parse): %w", err)
	}

	return submittedAt, parts[1], nil
}
