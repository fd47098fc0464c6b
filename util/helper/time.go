package helper_util

import (
	"time"

	"github.com/gin-gonic/gin"
)

// ParseTime parses an RFC3339 timestamp.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// TimeQuery reads an RFC3339 query parameter, returning def when it is absent.
func TimeQuery(c *gin.Context, key string, def time.Time) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return ParseTime(raw)
}
