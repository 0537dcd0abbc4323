package httpapi

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestIncrementUnavailable_IncrementsCounter(t *testing.T) {
	baseline := testutil.ToFloat64(unavailableTotal.WithLabelValues("insufficient_memory"))
	IncrementUnavailable("insufficient_memory")
	IncrementUnavailable("insufficient_memory")
	got := testutil.ToFloat64(unavailableTotal.WithLabelValues("insufficient_memory"))
	if got < baseline+2 {
		t.Fatalf("expected counter >= %v, got %v", baseline+2, got)
	}

	// Empty reason should default to "unspecified"
	before := testutil.ToFloat64(unavailableTotal.WithLabelValues("unspecified"))
	IncrementUnavailable("")
	after := testutil.ToFloat64(unavailableTotal.WithLabelValues("unspecified"))
	if after < before+1 {
		t.Fatalf("expected unspecified reason to increment: before=%v after=%v", before, after)
	}
}
