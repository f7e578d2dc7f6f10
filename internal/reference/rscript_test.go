package reference

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndreyAkinshin/stochval/internal/procexec"
)

// fakeRscript writes a shell script standing in for Rscript and an empty
// validator script; the fake ignores the script path ($1).
func fakeRscript(t *testing.T, body string) (*Rscript, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "Rscript")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"+body+"\n"), 0o755))

	validators := filepath.Join(dir, "validators")
	require.NoError(t, os.MkdirAll(validators, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(validators, "mc.R"), []byte("# stub\n"), 0o644))

	return NewRscript(bin, validators), "mc.R"
}

func TestRscript_Validate_Success(t *testing.T) {
	t.Parallel()

	r, id := fakeRscript(t, `[ "$2" = --json ] || exit 7
echo '{"validator":"monte_carlo","version":"4.3.2","success":true,"results":{"mean":100.1,"sd":14.9,"percentiles":{"5":75.4}},"error":null}'`)

	res, err := r.Validate(context.Background(), Request{Validator: id, Distribution: "normal", Params: map[string]float64{"mean": 100, "sd": 15}, Seed: 42, Iterations: 100})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "4.3.2", res.Version)

	s, err := ParseStats(res.Results)
	require.NoError(t, err)
	assert.Equal(t, 14.9, *s.Std)
}

func TestRscript_Validate_PassesRequestJSON(t *testing.T) {
	t.Parallel()

	r, id := fakeRscript(t, `case "$3" in
  *'"seed":42'*) echo '{"success":true,"results":{"mean":1,"std":1}}' ;;
  *) exit 5 ;;
esac`)

	res, err := r.Validate(context.Background(), Request{Validator: id, Distribution: "normal", Params: map[string]float64{}, Seed: 42, Iterations: 10})
	require.NoError(t, err)
	assert.True(t, res.Success, res.Error)
}

func TestRscript_Validate_NonZeroExit(t *testing.T) {
	t.Parallel()

	r, id := fakeRscript(t, `echo '{"success":true}'; echo "there is no package called 'triangle'" >&2; exit 1`)

	res, err := r.Validate(context.Background(), Request{Validator: id})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "R script failed (exit 1): there is no package called 'triangle'", res.Error)
}

func TestRscript_Validate_StructuredFailure(t *testing.T) {
	t.Parallel()

	r, id := fakeRscript(t, `echo '{"validator":"mc","success":false,"results":null,"error":"unsupported distribution"}'`)

	res, err := r.Validate(context.Background(), Request{Validator: id})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "unsupported distribution", res.Failure())
}

func TestRscript_Validate_BadJSON(t *testing.T) {
	t.Parallel()

	r, id := fakeRscript(t, `echo 'Loading required package: stats'`)

	_, err := r.Validate(context.Background(), Request{Validator: id})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse R validator JSON")
}

func TestRscript_Validate_MissingScript(t *testing.T) {
	t.Parallel()

	r := NewRscript("Rscript", t.TempDir())
	_, err := r.Validate(context.Background(), Request{Validator: "absent.R"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "R validator not found")
}

func TestRscript_Validate_Timeout(t *testing.T) {
	t.Parallel()

	r, id := fakeRscript(t, `sleep 5`)
	r.Timeout = 50 * time.Millisecond

	_, err := r.Validate(context.Background(), Request{Validator: id})
	assert.True(t, procexec.IsTimeout(err), "error = %v", err)
}

func TestRscript_CheckAvailable(t *testing.T) {
	t.Parallel()

	r, _ := fakeRscript(t, `echo "Rscript (R) version 4.3.2 (2023-10-31)" >&2`)
	v, err := r.CheckAvailable(context.Background())
	require.NoError(t, err)
	assert.Contains(t, v, "4.3.2")
}

func TestRscript_CheckPackage(t *testing.T) {
	t.Parallel()

	r, _ := fakeRscript(t, `case "$2" in
  *triangle*) printf TRUE ;;
  *) printf FALSE ;;
esac`)

	ok, err := r.CheckPackage(context.Background(), "triangle")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.CheckPackage(context.Background(), "mc2d")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = r.CheckPackage(context.Background(), "x'); system('rm")
	assert.Error(t, err)
}
