// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package stage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/walteh/dirpipe/pkg/pipeline"
	"github.com/walteh/dirpipe/pkg/process"
	"github.com/walteh/dirpipe/pkg/template"
)

// 🔧 mockRunner is a mock implementation of process.Runner
type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, cmd process.Command) (*process.Result, error) {
	args := m.Called(ctx, cmd)
	res, _ := args.Get(0).(*process.Result)
	return res, args.Error(1)
}

// copyRunner copies args[1] to args[2] and fails for inputs containing "bad".
func copyRunner(t *testing.T) process.Runner {
	return process.RunnerFunc(func(ctx context.Context, cmd process.Command) (*process.Result, error) {
		require.Len(t, cmd.Args, 3, "noop takes an input and an output")
		if strings.Contains(filepath.Base(cmd.Args[1]), "bad") {
			return &process.Result{ExitCode: 2, Stderr: []byte("cannot convert")}, &process.ExecutionError{
				Args:     cmd.Args,
				ExitCode: 2,
				Stderr:   "cannot convert",
				Err:      errors.New("exit status 2"),
			}
		}
		data, err := os.ReadFile(cmd.Args[1])
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(cmd.Args[2], data, 0o644); err != nil {
			return nil, err
		}
		return &process.Result{ExitCode: 0}, nil
	})
}

func testContext(t *testing.T) context.Context {
	return zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
}

// newStage creates a saved single-stage pipeline with the given input files.
func newStage(t *testing.T, command string, files ...string) pipeline.Stage {
	t.Helper()
	ctx := testContext(t)

	p, err := pipeline.New(ctx, t.TempDir())
	require.NoError(t, err)
	st, err := p.AddStage(ctx, "convert", command)
	require.NoError(t, err)
	require.NoError(t, pipeline.Save(ctx, p))

	for _, name := range files {
		require.NoError(t, os.WriteFile(filepath.Join(st.InDir, name), []byte("data:"+name), 0o644))
	}
	return st
}

func dirFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

func TestExecutor_DrainsInputOnSuccess(t *testing.T) {
	tests := []struct {
		name  string
		files []string
	}{
		{name: "no_files"},
		{name: "one_file", files: []string{"a.dat"}},
		{name: "three_files", files: []string{"a.dat", "b.dat", "c.dat"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext(t)
			st := newStage(t, "noop {in_file_path} {out_dir}/{in_file_name}.txt", tt.files...)

			exec, err := NewExecutor(copyRunner(t), Options{})
			require.NoError(t, err)

			res, err := exec.Run(ctx, 0, st, nil)
			require.NoError(t, err)

			assert.True(t, res.Succeeded(), "stage should succeed")
			assert.Equal(t, StateSucceeded, res.State())
			assert.Equal(t, len(tt.files), res.Total)
			assert.Equal(t, len(tt.files), res.Processed)
			assert.Equal(t, len(tt.files), res.Removed, "every input should be removed")
			assert.Equal(t, []string{pipeline.MarkerName}, dirFiles(t, st.InDir), "only the marker should remain")
			assert.DirExists(t, st.OutDir, "stage directories are kept")

			var want []string
			for _, f := range tt.files {
				name, _ := template.SplitName(f)
				want = append(want, name+".txt")
			}
			assert.Equal(t, want, dirFiles(t, st.OutDir))
		})
	}
}

func TestExecutor_FailureContainment(t *testing.T) {
	tests := []struct {
		name          string
		failFast      bool
		wantProcessed int
	}{
		{name: "continue_after_failure", failFast: false, wantProcessed: 2},
		{name: "fail_fast", failFast: true, wantProcessed: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext(t)
			files := []string{"a.dat", "b_bad.dat", "c.dat"}
			st := newStage(t, "noop {in_file_path} {out_dir}/{in_file_name}.txt", files...)

			exec, err := NewExecutor(copyRunner(t), Options{FailFast: tt.failFast})
			require.NoError(t, err)

			res, err := exec.Run(ctx, 0, st, nil)
			require.NoError(t, err)

			assert.False(t, res.Succeeded(), "stage should fail")
			assert.Equal(t, StateFailed, res.State())
			assert.Equal(t, tt.wantProcessed, res.Processed)
			require.Len(t, res.Failed, 1)
			assert.Equal(t, "b_bad.dat", res.Failed[0].Entry.Name)
			assert.Equal(t, 2, res.Failed[0].ExitCode)
			assert.Equal(t, tt.wantProcessed, res.Removed, "outputs of the succeeded files are removed")

			assert.Empty(t, dirFiles(t, st.OutDir), "output should be discarded")
			assert.Equal(t, append([]string{pipeline.MarkerName}, files...), dirFiles(t, st.InDir), "input should be untouched")
		})
	}
}

func TestExecutor_ExpandsAndRunsInWorkdir(t *testing.T) {
	ctx := testContext(t)
	st := newStage(t, "tool --ext {in_file_ext} {in_file_path} {out_dir}", "Photo.JPG")
	workdir := t.TempDir()

	runner := &mockRunner{}
	runner.On("Run", mock.Anything, process.Command{
		Args: []string{"prefix", "tool", "--ext", "jpg", filepath.Join(st.InDir, "Photo.JPG"), st.OutDir},
		Dir:  workdir,
	}).Return(&process.Result{ExitCode: 0}, nil).Once()

	exec, err := NewExecutor(runner, Options{Workdir: workdir, Prefix: "prefix"})
	require.NoError(t, err)

	res, err := exec.Run(ctx, 0, st, nil)
	require.NoError(t, err)
	assert.True(t, res.Succeeded())
	runner.AssertExpectations(t)
}

func TestExecutor_TemplateErrorIsFileFailure(t *testing.T) {
	ctx := testContext(t)
	st := newStage(t, "noop {in_file_path}", "a.dat")
	// bypass AddStage validation to simulate a hand-edited config
	st.Command = `noop "{in_file_path}`

	runner := &mockRunner{}
	exec, err := NewExecutor(runner, Options{})
	require.NoError(t, err)

	res, err := exec.Run(ctx, 0, st, nil)
	require.NoError(t, err)

	require.Len(t, res.Failed, 1)
	var synErr *template.SyntaxError
	assert.True(t, errors.As(res.Failed[0].Err, &synErr), "failure should carry the template error")
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
	assert.Contains(t, dirFiles(t, st.InDir), "a.dat")
}

func TestExecutor_NonZeroExitWithoutError(t *testing.T) {
	ctx := testContext(t)
	st := newStage(t, "noop {in_file_path}", "a.dat")

	runner := &mockRunner{}
	runner.On("Run", mock.Anything, mock.Anything).Return(&process.Result{ExitCode: 7, Stderr: []byte("nope")}, nil)

	exec, err := NewExecutor(runner, Options{})
	require.NoError(t, err)

	res, err := exec.Run(ctx, 0, st, nil)
	require.NoError(t, err)

	require.Len(t, res.Failed, 1)
	var execErr *process.ExecutionError
	require.True(t, errors.As(res.Failed[0].Err, &execErr))
	assert.Equal(t, 7, execErr.ExitCode)
	assert.Equal(t, "nope", execErr.Stderr)
}

func TestExecutor_IgnorePatterns(t *testing.T) {
	ctx := testContext(t)
	st := newStage(t, "noop {in_file_path} {out_dir}/{in_file_name}.txt", "a.dat", "partial.tmp", ".DS_Store")

	exec, err := NewExecutor(copyRunner(t), Options{Ignore: []string{"*.tmp", ".DS_Store"}})
	require.NoError(t, err)

	res, err := exec.Run(ctx, 0, st, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Total)
	assert.True(t, res.Succeeded())
	assert.Equal(t, []string{".DS_Store", pipeline.MarkerName, "partial.tmp"}, dirFiles(t, st.InDir), "ignored files stay queued")
}

func TestExecutor_InvalidIgnorePattern(t *testing.T) {
	_, err := NewExecutor(copyRunner(t), Options{Ignore: []string{"[unclosed"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid ignore pattern")
}

func TestExecutor_ReportsProgress(t *testing.T) {
	ctx := testContext(t)
	st := newStage(t, "noop {in_file_path} {out_dir}/{in_file_name}.txt", "a.dat", "b.dat", "c.dat", "d.dat")

	exec, err := NewExecutor(copyRunner(t), Options{})
	require.NoError(t, err)

	var got []float64
	_, err = exec.Run(ctx, 0, st, func(p float64) { got = append(got, p) })
	require.NoError(t, err)

	assert.Equal(t, []float64{25, 50, 75, 100}, got)
}

func TestExecutor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(testContext(t))
	cancel()

	st := newStage(t, "noop {in_file_path} {out_dir}/{in_file_name}.txt", "a.dat")

	runner := &mockRunner{}
	exec, err := NewExecutor(runner, Options{})
	require.NoError(t, err)

	res, err := exec.Run(ctx, 0, st, nil)
	require.NoError(t, err)

	assert.True(t, res.Cancelled)
	assert.False(t, res.Succeeded(), "a cancelled stage never succeeds")
	assert.Equal(t, 0, res.Processed)
	assert.Contains(t, dirFiles(t, st.InDir), "a.dat")
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

// 📝 recordingObserver keeps every notification in order
type recordingObserver struct {
	events []string
}

func (r *recordingObserver) StageStarted(index int, st pipeline.Stage, files int) {
	r.events = append(r.events, "start:"+st.Label())
}

func (r *recordingObserver) FileFinished(index int, st pipeline.Stage, file FileResult) {
	status := "ok"
	if !file.OK() {
		status = "failed"
	}
	r.events = append(r.events, file.Entry.Name+":"+status)
}

func (r *recordingObserver) StageFinished(res *Result) {
	r.events = append(r.events, "finish:"+res.State().String())
}

func TestExecutor_NotifiesObserver(t *testing.T) {
	ctx := testContext(t)
	st := newStage(t, "noop {in_file_path} {out_dir}/{in_file_name}.txt", "a.dat", "bad.dat")

	obs := &recordingObserver{}
	exec, err := NewExecutor(copyRunner(t), Options{Observer: obs})
	require.NoError(t, err)

	_, err = exec.Run(ctx, 0, st, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"start:0_convert", "a.dat:ok", "bad.dat:failed", "finish:failed"}, obs.events)
}

func TestExecutor_MissingInputDir(t *testing.T) {
	ctx := testContext(t)
	st := pipeline.Stage{
		InDir:   filepath.Join(t.TempDir(), "missing"),
		OutDir:  t.TempDir(),
		Command: "noop {in_file_path}",
	}

	exec, err := NewExecutor(copyRunner(t), Options{})
	require.NoError(t, err)

	_, err = exec.Run(ctx, 0, st, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing stage input")
}
