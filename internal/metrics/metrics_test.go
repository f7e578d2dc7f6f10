package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndreyAkinshin/stochval/internal/tests"
)

func TestRecorder_Verdicts(t *testing.T) {
	t.Parallel()
	r := New()

	r.ObserveVerdict(tests.Pass("a", ""))
	r.ObserveVerdict(tests.Pass("b", ""))
	r.ObserveVerdict(tests.Fail("c", "Mean mismatch"))

	assert.Equal(t, 2.0, testutil.ToFloat64(r.verdicts.WithLabelValues("pass")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.verdicts.WithLabelValues("fail")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.verdicts.WithLabelValues("skip")))
}

func TestRecorder_Invocations(t *testing.T) {
	t.Parallel()
	r := New()

	r.ObserveInvocation("target", 200*time.Millisecond, nil)
	r.ObserveInvocation("reference", time.Second, errors.New("exit 1"))

	assert.Equal(t, 2, testutil.CollectAndCount(r.invocations))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.failures.WithLabelValues("reference")))
}

func TestRecorder_WriteTextfile(t *testing.T) {
	t.Parallel()
	r := New()
	r.ObserveVerdict(tests.Skip("a", "no distribution"))
	path := filepath.Join(t.TempDir(), "stochval.prom")

	require.NoError(t, r.WriteTextfile(path, time.Unix(1700000000, 0)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, `stochval_verdicts_total{status="skip"} 1`), text)
	assert.Contains(t, text, "stochval_last_run_timestamp_seconds 1.7e+09")
}
