package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// NewID returns a fresh record id.
func NewID() string {
	return uuid.New().String()
}

// tempPrefix marks ids minted locally before the server has assigned one.
const tempPrefix = "tmp-"

// NewTempID returns an id for an optimistically inserted record.
func NewTempID() string {
	return tempPrefix + uuid.New().String()
}

// IsTempID reports whether id was minted by NewTempID.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, tempPrefix)
}

// NormalizeID coerces an id of any primitive kind to its string key, so that
// 42, 42.0 and "42" all address the same record.
func NormalizeID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(id)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	case int32:
		return strconv.FormatInt(int64(id), 10)
	case uint64:
		return strconv.FormatUint(id, 10)
	case float64:
		if id == math.Trunc(id) && math.Abs(id) < 1e15 {
			return strconv.FormatInt(int64(id), 10)
		}
		return strconv.FormatFloat(id, 'f', -1, 64)
	case fmt.Stringer:
		return id.String()
	}
	return fmt.Sprint(v)
}
