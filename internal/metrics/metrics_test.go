package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestBackendWriteMetrics(t *testing.T) {
	led := "metrics-test-led"

	RecordBackendWrite(led, 2, nil)
	RecordBackendWrite(led, 0, errors.New("io error"))

	if v := testutil.ToFloat64(backendWrites.WithLabelValues(led, "ok")); v != 1 {
		t.Errorf("ok writes = %v, want 1", v)
	}
	if v := testutil.ToFloat64(backendWrites.WithLabelValues(led, "error")); v != 1 {
		t.Errorf("error writes = %v, want 1", v)
	}
	// A failed write doesn't change the owning priority.
	if v := testutil.ToFloat64(ledPriority.WithLabelValues(led)); v != 2 {
		t.Errorf("priority = %v, want 2", v)
	}
}

func TestLEDLocked(t *testing.T) {
	led := "metrics-lock-led"

	SetLEDLocked(led, true)
	if v := testutil.ToFloat64(ledLocked.WithLabelValues(led)); v != 1 {
		t.Errorf("locked = %v, want 1", v)
	}
	SetLEDLocked(led, false)
	if v := testutil.ToFloat64(ledLocked.WithLabelValues(led)); v != 0 {
		t.Errorf("locked = %v, want 0", v)
	}
}

func TestFlashTicksAndRequests(t *testing.T) {
	RecordFlashTick("metrics-flash-led")
	RecordFlashTick("metrics-flash-led")
	if v := testutil.ToFloat64(flashTicks.WithLabelValues("metrics-flash-led")); v != 2 {
		t.Errorf("ticks = %v, want 2", v)
	}

	before := testutil.ToFloat64(requests.WithLabelValues("metrics-test-op", "error"))
	RecordRequest("metrics-test-op", errors.New("boom"))
	if v := testutil.ToFloat64(requests.WithLabelValues("metrics-test-op", "error")); v != before+1 {
		t.Errorf("requests = %v, want %v", v, before+1)
	}
}

func TestPatternMetrics(t *testing.T) {
	playing := testutil.ToFloat64(patternsPlaying)

	RecordPatternStarted("metrics-beacon")
	if v := testutil.ToFloat64(patternsPlaying); v != playing+1 {
		t.Errorf("playing = %v, want %v", v, playing+1)
	}
	RecordPatternStopped("metrics-beacon")
	if v := testutil.ToFloat64(patternsPlaying); v != playing {
		t.Errorf("playing = %v, want %v", v, playing)
	}
	if v := testutil.ToFloat64(patternStarts.WithLabelValues("metrics-beacon")); v != 1 {
		t.Errorf("starts = %v, want 1", v)
	}
	if v := testutil.ToFloat64(patternStops.WithLabelValues("metrics-beacon")); v != 1 {
		t.Errorf("stops = %v, want 1", v)
	}

	RecordReload(nil)
	if v := testutil.ToFloat64(definitionReloads.WithLabelValues("ok")); v < 1 {
		t.Errorf("reloads = %v, want >= 1", v)
	}
}

func TestHandler(t *testing.T) {
	RecordFlashTick("metrics-handler-led")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ledd_flash_ticks_total") {
		t.Error("metrics output missing ledd_flash_ticks_total")
	}
}
