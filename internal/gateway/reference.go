package gateway

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReferenceSource mints request references that are unique under concurrency.
// A bare timestamp collides when two requests land in the same millisecond, so
// a random component is appended.
type ReferenceSource struct{}

// Next returns a fresh reference with the given prefix.
func (ReferenceSource) Next(prefix string) string {
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixMilli(), uuid.NewString()[:8])
}
