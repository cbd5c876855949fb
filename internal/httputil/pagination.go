package httputil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// DefaultPageLimit is the page size used when no limit is given.
	DefaultPageLimit = 50
	// MaxPageLimit caps a single page of ledger entries or documents.
	MaxPageLimit = 500
)

// ParsePagination reads the offset and limit query parameters. Missing values
// fall back to 0 and DefaultPageLimit.
func ParsePagination(c *gin.Context) (offset, limit int, err error) {
	offset, err = queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		return 0, 0, errors.New("invalid offset parameter: must be a non-negative integer")
	}

	limit, err = queryInt(c, "limit", DefaultPageLimit)
	if err != nil || limit < 1 || limit > MaxPageLimit {
		return 0, 0, fmt.Errorf("invalid limit parameter: must be between 1 and %d", MaxPageLimit)
	}

	return offset, limit, nil
}

func queryInt(c *gin.Context, name string, fallback int) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return fallback, nil
	}
	return strconv.Atoi(strings.TrimSpace(raw))
}

// ParseTimeQuery parses an optional time query parameter. RFC 3339 timestamps
// and plain dates (YYYY-MM-DD, midnight UTC) are accepted. An absent parameter
// yields nil.
func ParseTimeQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid %s parameter: must be an RFC 3339 timestamp or YYYY-MM-DD date", name)
}
