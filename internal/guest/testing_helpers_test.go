package guest

import (
	"testing"

	"github.com/dev-console/fetchbridge/internal/bridge"
	"github.com/dev-console/fetchbridge/internal/streams"
)

// newTestRuntime returns a freshly installed Runtime over a new Registry and
// Marshaller, the shape every guest package test builds against.
func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	return New(streams.NewRegistry(), bridge.NewMarshaller())
}

// mustEval runs src as an expression and returns its exported Go value,
// failing the test on error. RunScript drains the job queue after
// evaluating src, so promise jobs src schedules run before mustEval
// returns; the returned value is src's completion value from before that
// drain.
func mustEval(t *testing.T, r *Runtime, src string) any {
	t.Helper()
	v, err := r.RunScript("test.js", src)
	if err != nil {
		t.Fatalf("eval %q: %v", src, err)
	}
	return v.Export()
}
