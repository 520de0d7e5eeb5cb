package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStepDuration("hugo", time.Second)
	r.IncStepResult("hugo", "SUCCESS")
	r.ObserveRunDuration(time.Second)
	r.IncRunOutcome("SUCCESS")
	r.SetLastRun("SUCCESS", time.Now())
}

func TestPrometheusRecorder(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.ObserveStepDuration("hugo", 1500*time.Millisecond)
	pr.IncStepResult("hugo", "SUCCESS")
	pr.IncStepResult("hugo-git-publish", "FAILURE")
	pr.IncStepResult("hugo-git-publish", "FAILURE")
	pr.ObserveRunDuration(3 * time.Second)
	pr.IncRunOutcome("FAILURE")
	pr.SetLastRun("FAILURE", time.Unix(1700000000, 0))

	mfs, err := pr.Registry().Gather()
	require.NoError(t, err)
	require.Len(t, mfs, 5)

	values := map[string]float64{}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			for _, lp := range m.GetLabel() {
				key += "," + lp.GetName() + "=" + lp.GetValue()
			}
			switch {
			case m.GetCounter() != nil:
				values[key] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[key] = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				values[key] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	assert.InDelta(t, 1, values["hugoci_step_results_total,result=SUCCESS,step=hugo"], 0)
	assert.InDelta(t, 2, values["hugoci_step_results_total,result=FAILURE,step=hugo-git-publish"], 0)
	assert.InDelta(t, 1700000000, values["hugoci_last_run_timestamp_seconds,result=FAILURE"], 0)
	assert.InDelta(t, 1, values["hugoci_step_duration_seconds,step=hugo"], 0)
}

func TestWriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncRunOutcome("SUCCESS")

	path := filepath.Join(t.TempDir(), "textfile", "hugoci.prom")
	require.NoError(t, WriteTextfile(pr.Registry(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `hugoci_run_outcomes_total{result="SUCCESS"} 1`)
}

func TestHTTPHandler(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncStepResult("hugo", "SUCCESS")

	srv := httptest.NewServer(HTTPHandler(pr.Registry()))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "hugoci_step_results_total"))
}
