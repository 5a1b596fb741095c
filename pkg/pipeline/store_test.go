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

package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := testContext(t)
	p, err := New(ctx, t.TempDir())
	require.NoError(t, err)

	_, err = p.AddStage(ctx, "to_png", `convert "{in_file_path}" -od {out_dir} -f png`)
	require.NoError(t, err)
	_, err = p.AddStage(ctx, "thumb", "resize {in_file_path} {out_dir}/{in_file_name}_small.{in_file_ext}")
	require.NoError(t, err)

	require.NoError(t, Save(ctx, p))

	loaded, err := Load(ctx, p.Root)
	require.NoError(t, err)
	assert.Equal(t, p, loaded)

	entries, err := os.ReadDir(p.Root)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temp file %s left behind", e.Name())
	}
}

func TestSave_Format(t *testing.T) {
	ctx := testContext(t)
	p, err := New(ctx, t.TempDir())
	require.NoError(t, err)
	_, err = p.AddStage(ctx, "copy", "cp {in_file_path} {out_dir}")
	require.NoError(t, err)
	require.NoError(t, Save(ctx, p))

	data, err := os.ReadFile(p.MarkerPath())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, p.Root, raw["folder"])

	stages, ok := raw["stages"].([]any)
	require.True(t, ok)
	require.Len(t, stages, 1)
	assert.Equal(t, map[string]any{
		"in_dir":  p.Root,
		"out_dir": filepath.Join(p.Root, "0_copy"),
		"command": "cp {in_file_path} {out_dir}",
	}, stages[0])
}

func TestSave_Overwrites(t *testing.T) {
	ctx := testContext(t)
	p, err := New(ctx, t.TempDir())
	require.NoError(t, err)
	require.NoError(t, Save(ctx, p))

	_, err = p.AddStage(ctx, "copy", "cp {in_file_path} {out_dir}")
	require.NoError(t, err)
	require.NoError(t, Save(ctx, p))

	loaded, err := Load(ctx, p.Root)
	require.NoError(t, err)
	assert.Len(t, loaded.Stages, 1)
}

func TestSave_RejectsInvalid(t *testing.T) {
	ctx := testContext(t)
	root := t.TempDir()
	p := &Pipeline{Root: root, Stages: []Stage{{InDir: "/elsewhere", OutDir: filepath.Join(root, "0_a"), Command: "a"}}}

	err := Save(ctx, p)
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(root, MarkerName))
}

func TestLoad_NotFound(t *testing.T) {
	ctx := testContext(t)

	tests := []struct {
		name string
		root func(t *testing.T) string
	}{
		{
			name: "missing_root",
			root: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope") },
		},
		{
			name: "missing_marker",
			root: func(t *testing.T) string { return t.TempDir() },
		},
		{
			name: "root_is_file",
			root: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "file")
				require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
				return path
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(ctx, tt.root(t))
			require.Error(t, err)

			var notFound *ConfigNotFoundError
			assert.True(t, errors.As(err, &notFound), "error should be a *ConfigNotFoundError, got %T", err)
		})
	}
}

func TestLoad_Corrupt(t *testing.T) {
	tests := []struct {
		name        string
		content     func(root string) string
		errContains string
	}{
		{
			name:        "malformed_json",
			content:     func(root string) string { return `{"folder": ` },
			errContains: "parsing JSON",
		},
		{
			name:        "wrong_type",
			content:     func(root string) string { return `{"folder": 3, "stages": []}` },
			errContains: "parsing JSON",
		},
		{
			name: "unknown_field",
			content: func(root string) string {
				return `{"folder": "` + root + `", "stages": [], "extra": true}`
			},
			errContains: "unknown field",
		},
		{
			name:        "missing_folder",
			content:     func(root string) string { return `{"stages": []}` },
			errContains: "folder is required",
		},
		{
			name: "missing_command",
			content: func(root string) string {
				return `{"folder": "` + root + `", "stages": [{"in_dir": "` + root + `", "out_dir": "` + root + `/0_a"}]}`
			},
			errContains: "command is required",
		},
		{
			name: "broken_chain",
			content: func(root string) string {
				return `{"folder": "` + root + `", "stages": [{"in_dir": "/other", "out_dir": "` + root + `/0_a", "command": "a"}]}`
			},
			errContains: "does not match",
		},
		{
			name: "trailing_data",
			content: func(root string) string {
				return `{"folder": "` + root + `", "stages": []}}}} not json`
			},
			errContains: "unexpected data after the pipeline object",
		},
		{
			name: "second_object",
			content: func(root string) string {
				return `{"folder": "` + root + `", "stages": []}{"folder": "` + root + `", "stages": []}`
			},
			errContains: "unexpected data after the pipeline object",
		},
		{
			name: "relative_paths",
			content: func(root string) string {
				return `{"folder": "p", "stages": [{"in_dir": "p", "out_dir": "p/0_x", "command": "a"}]}`
			},
			errContains: "must be an absolute path",
		},
		{
			name: "out_dir_outside_root",
			content: func(root string) string {
				return `{"folder": "` + root + `", "stages": [{"in_dir": "` + root + `", "out_dir": "` + filepath.Dir(root) + `/0_a", "command": "a"}]}`
			},
			errContains: "is outside",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext(t)
			root := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(root, MarkerName), []byte(tt.content(root)), 0o644))

			_, err := Load(ctx, root)
			require.Error(t, err)

			var corrupt *ConfigCorruptError
			require.True(t, errors.As(err, &corrupt), "error should be a *ConfigCorruptError, got %T", err)
			assert.Equal(t, filepath.Join(root, MarkerName), corrupt.Path)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestLoad_EmptyStages(t *testing.T) {
	ctx := testContext(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, MarkerName), []byte(`{"folder": "`+root+`"}`), 0o644))

	p, err := Load(ctx, root)
	require.NoError(t, err)
	assert.NotNil(t, p.Stages)
	assert.Empty(t, p.Stages)
}

func TestLoad_TrustsRecordedFolder(t *testing.T) {
	ctx := testContext(t)
	original, err := New(ctx, t.TempDir())
	require.NoError(t, err)
	_, err = original.AddStage(ctx, "copy", "cp {in_file_path} {out_dir}")
	require.NoError(t, err)
	require.NoError(t, Save(ctx, original))

	// a copy of the marker elsewhere still points at the original folder
	moved := t.TempDir()
	data, err := os.ReadFile(original.MarkerPath())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(moved, MarkerName), data, 0o644))

	loaded, err := Load(ctx, moved)
	require.NoError(t, err)
	assert.Equal(t, original.Root, loaded.Root)
}
