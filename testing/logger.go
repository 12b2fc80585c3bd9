package testing

import (
	"testing"

	"github.com/jcvera13/radiology-worklist/internal/logger"
	"github.com/jcvera13/radiology-worklist/types"
)

// NewTestLogger returns a Logger that routes engine output through t.Logf, so
// log lines interleave with test output and only show on failure or -v.
// Fatal maps to t.Fatalf and fails the test.
func NewTestLogger(t *testing.T) types.Logger {
	return logger.NewTest(t)
}
