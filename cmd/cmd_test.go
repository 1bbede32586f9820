package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yqhp/fractal-engine/internal/config"
	"yqhp/fractal-engine/internal/output"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--quiet"))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func smallConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Grid.Width = 12
	cfg.Grid.Height = 5
	cfg.Fractal.Kind = "mandelbrot"
	cfg.Fractal.MaxIter = 64
	cfg.Master.Workers = 2
	return cfg
}

func TestSeqRejectsBadMultiplier(t *testing.T) {
	for _, args := range [][]string{
		{"seq"},
		{"seq", "1", "2"},
		{"seq", "0"},
		{"seq", "-3"},
		{"seq", "abc"},
	} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			out, err := execute(t, args...)
			require.Error(t, err)
			assert.Contains(t, out, "Usage:")
		})
	}
}

func TestSeqRunAndCompare(t *testing.T) {
	dir := t.TempDir()
	seqPath := filepath.Join(dir, "seq.dat")
	runPath := filepath.Join(dir, "run.dat")

	out, err := execute(t, "seq", "2",
		"--set", "grid.base_width=8",
		"--height", "4",
		"--fractal", "mandelbrot",
		"--max-iter", "50",
		"--output", seqPath)
	require.NoError(t, err)
	assert.Contains(t, out, "elapsed:")

	g, meta, err := output.ReadFile(seqPath)
	require.NoError(t, err)
	assert.Equal(t, 16, meta.Width)
	assert.Equal(t, 4, meta.Height)
	assert.True(t, g.Complete())

	for _, mode := range []string{"lightweight", "precomputed"} {
		t.Run(mode, func(t *testing.T) {
			_, err := execute(t, "run",
				"--width", "16",
				"--height", "4",
				"--fractal", "mandelbrot",
				"--max-iter", "50",
				"--workers", "3",
				"--mode", mode,
				"--output", runPath)
			require.NoError(t, err)

			out, err := execute(t, "compare", seqPath, runPath)
			require.NoError(t, err)
			assert.Contains(t, out, "identical: 16x4")
		})
	}
}

func TestCompareMismatch(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.dat")
	b := filepath.Join(dir, "b.dat")

	seq := func(path, height string) {
		_, err := execute(t, "seq", "1", "--set", "grid.base_width=6", "--height", height,
			"--fractal", "mandelbrot", "--max-iter", "20", "--output", path)
		require.NoError(t, err)
	}
	seq(a, "3")
	seq(b, "4")

	out, err := execute(t, "compare", a, b)
	assert.ErrorIs(t, err, errMismatch)
	assert.Contains(t, out, "dimensions differ: 6x3 vs 6x4")

	_, err = execute(t, "compare", a, filepath.Join(dir, "missing.dat"))
	assert.Error(t, err)
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	_, err := execute(t, "run", "--width=-1")
	require.Error(t, err)

	_, err = execute(t, "run", "--fractal", "julia")
	require.Error(t, err)

	_, err = execute(t, "run", "--set", "grid.nope=1")
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "fractal-engine "+Version))
}

func TestWorkerConfigDefaults(t *testing.T) {
	cfg := config.DefaultConfig()
	wc := workerConfig(cfg)
	assert.True(t, strings.HasPrefix(wc.ID, "worker-"))
	assert.Positive(t, wc.Parallelism)

	cfg.Worker.ID = "w-7"
	cfg.Worker.Parallelism = 3
	wc = workerConfig(cfg)
	assert.Equal(t, "w-7", wc.ID)
	assert.Equal(t, 3, wc.Parallelism)
}

func TestMasterAndRemoteWorkers(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := smallConfig()
	cfg.Output.Path = filepath.Join(t.TempDir(), "dist.dat")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	cfg.Worker.MasterAddr = ln.Addr().String()

	type masterResult struct {
		err error
	}
	done := make(chan masterResult, 1)
	go func() {
		_, err := runMaster(ctx, cfg, ln)
		done <- masterResult{err: err}
	}()

	var wg sync.WaitGroup
	rows := make([]int64, cfg.Master.Workers)
	errs := make([]error, cfg.Master.Workers)
	for i := range cfg.Master.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wcfg := *cfg
			wcfg.Worker.ID = fmt.Sprintf("remote-%d", i)
			wcfg.Worker.Parallelism = 2
			rows[i], errs[i] = runWorker(ctx, &wcfg)
		}()
	}
	wg.Wait()

	res := <-done
	require.NoError(t, res.err)
	for i := range errs {
		require.NoError(t, errs[i])
	}
	assert.Equal(t, int64(cfg.Grid.Height), rows[0]+rows[1])

	dist, distMeta, err := output.ReadFile(cfg.Output.Path)
	require.NoError(t, err)

	seqPath := filepath.Join(t.TempDir(), "seq.dat")
	_, err = execute(t, "seq", "1",
		"--set", fmt.Sprintf("grid.base_width=%d", cfg.Grid.Width),
		"--height", fmt.Sprint(cfg.Grid.Height),
		"--fractal", cfg.Fractal.Kind,
		"--max-iter", fmt.Sprint(cfg.Fractal.MaxIter),
		"--output", seqPath)
	require.NoError(t, err)
	seq, seqMeta, err := output.ReadFile(seqPath)
	require.NoError(t, err)

	assert.True(t, output.Compare(seq, seqMeta, dist, distMeta).Equal())
}

func TestConfigShowRoundTrips(t *testing.T) {
	out, err := execute(t, "config", "show", "--fractal", "mandelbrot", "--max-iter", "77", "--set", "master.workers=6")
	require.NoError(t, err)
	assert.Contains(t, out, "kind: mandelbrot")
	assert.Contains(t, out, "max_iter: 77")

	path := filepath.Join(t.TempDir(), "shown.yaml")
	require.NoError(t, os.WriteFile(path, []byte(out), 0o644))
	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "mandelbrot", cfg.Fractal.Kind)
	assert.Equal(t, 77, cfg.Fractal.MaxIter)
	assert.Equal(t, 6, cfg.Master.Workers)

	again, err := execute(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestConfigShowRejectsInvalid(t *testing.T) {
	out, err := execute(t, "config", "show", "--max-iter=-5")
	require.Error(t, err)
	assert.Contains(t, out, "max_iter: -5")
}

func TestMissingConfigFileFails(t *testing.T) {
	_, err := execute(t, "config", "show", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
