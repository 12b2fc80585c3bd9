// Package testing provides test utilities for the worklist engine.
//
// This package offers helpers for setting up test environments: embedded NATS
// servers for broadcast integration tests and miniredis instances for the
// Redis-backed coordination store. It follows Go's convention of providing
// testing utilities in a dedicated package (similar to net/http/httptest).
//
// Key utilities:
//   - StartEmbeddedNATS: Single in-process NATS server
//   - StartMiniredis: In-process Redis plus a connected coordination store
//   - NewTestLogger: Logger that writes to testing.T
//
// Example usage:
//
//	import (
//	    "testing"
//	    wltest "github.com/jcvera13/radiology-worklist/testing"
//	)
//
//	func TestMyComponent(t *testing.T) {
//	    _, nc := wltest.StartEmbeddedNATS(t)
//	    // Use nc for your tests
//	}
package testing
