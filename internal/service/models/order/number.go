package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewNumber builds a human readable order number from the creation time.
// The random suffix keeps numbers created in the same millisecond apart.
func NewNumber(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])

	return fmt.Sprintf("ORD-%08d-%s", at.UnixMilli()%100_000_000, suffix)
}
