package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRecommend(t *testing.T) {
	before := testutil.ToFloat64(RecommendRequests.WithLabelValues("personalized", "ok"))
	RecordRecommend("personalized", "ok", 12, 3*time.Millisecond)
	after := testutil.ToFloat64(RecommendRequests.WithLabelValues("personalized", "ok"))
	if after != before+1 {
		t.Errorf("requests = %v, want %v", after, before+1)
	}
}

func TestRecordRefresh(t *testing.T) {
	before := testutil.ToFloat64(EmbeddingFailures)
	RecordRefresh("success", 2, time.Second)
	if got := testutil.ToFloat64(EmbeddingFailures); got != before+2 {
		t.Errorf("failures = %v, want %v", got, before+2)
	}
	if got := testutil.ToFloat64(RefreshRuns.WithLabelValues("success")); got < 1 {
		t.Errorf("runs = %v", got)
	}
}

func TestSetIndex(t *testing.T) {
	SetIndex(42, 7)
	if got := testutil.ToFloat64(IndexSize); got != 42 {
		t.Errorf("size = %v", got)
	}
	if got := testutil.ToFloat64(IndexVersion); got != 7 {
		t.Errorf("version = %v", got)
	}
}
