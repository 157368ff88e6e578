package shopify

import (
	"fmt"
	"strconv"
	"strings"
)

// GID builds a platform global id from a resource name and numeric id.
func GID(resource string, id int64) string {
	return fmt.Sprintf("gid://shopify/%s/%d", resource, id)
}

// NumericID extracts the trailing numeric id from a gid.
func NumericID(gid string) (int64, error) {
	idx := strings.LastIndex(gid, "/")
	if idx < 0 || idx == len(gid)-1 {
		return 0, fmt.Errorf("malformed gid %q", gid)
	}
	id, err := strconv.ParseInt(gid[idx+1:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed gid %q: %w", gid, err)
	}
	return id, nil
}

// IsGID reports whether the value looks like a platform global id.
func IsGID(value string) bool {
	return strings.HasPrefix(value, "gid://shopify/")
}
