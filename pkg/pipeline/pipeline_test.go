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
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) context.Context {
	return zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
}

func TestNew(t *testing.T) {
	ctx := testContext(t)
	base := t.TempDir()
	t.Setenv("DIRPIPE_PIPELINE_BASE", base)

	p, err := New(ctx, "$DIRPIPE_PIPELINE_BASE/a/b")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, "a", "b"), p.Root)
	assert.NotNil(t, p.Stages)
	assert.Empty(t, p.Stages)
	assert.DirExists(t, p.Root)
	assert.Equal(t, filepath.Join(p.Root, MarkerName), p.MarkerPath())

	_, err = New(ctx, "  ")
	require.Error(t, err)
}

func TestAddStage(t *testing.T) {
	ctx := testContext(t)
	p, err := New(ctx, t.TempDir())
	require.NoError(t, err)

	first, err := p.AddStage(ctx, " to_png ", "convert {in_file_path} {out_dir}")
	require.NoError(t, err)
	assert.Equal(t, p.Root, first.InDir)
	assert.Equal(t, filepath.Join(p.Root, "0_to_png"), first.OutDir)
	assert.Equal(t, "0_to_png", first.Label())
	assert.DirExists(t, first.OutDir)

	second, err := p.AddStage(ctx, "thumb", "resize {in_file_path} {out_dir}")
	require.NoError(t, err)
	assert.Equal(t, first.OutDir, second.InDir)
	assert.Equal(t, filepath.Join(p.Root, "1_thumb"), second.OutDir)

	require.NoError(t, p.Validate())
}

func TestAddStage_Invalid(t *testing.T) {
	tests := []struct {
		name        string
		label       string
		command     string
		errContains string
	}{
		{name: "empty_label", label: "", command: "cp {in_file_path} {out_dir}", errContains: "label is required"},
		{name: "dot_label", label: "..", command: "cp {in_file_path} {out_dir}", errContains: "invalid stage label"},
		{name: "slash_label", label: "a/b", command: "cp {in_file_path} {out_dir}", errContains: "path separator"},
		{name: "backslash_label", label: `a\b`, command: "cp {in_file_path} {out_dir}", errContains: "path separator"},
		{name: "unterminated_quote", label: "a", command: `cp "{in_file_path}`, errContains: "validating command"},
		{name: "blank_command", label: "a", command: "", errContains: "validating command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext(t)
			p, err := New(ctx, t.TempDir())
			require.NoError(t, err)

			_, err = p.AddStage(ctx, tt.label, tt.command)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
			assert.Empty(t, p.Stages, "a rejected stage is not appended")

			entries, err := os.ReadDir(p.Root)
			require.NoError(t, err)
			assert.Empty(t, entries, "no stage directory is created")
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		pipeline    Pipeline
		errContains string
	}{
		{
			name:     "no_stages",
			pipeline: Pipeline{Root: "/p"},
		},
		{
			name: "chained",
			pipeline: Pipeline{Root: "/p", Stages: []Stage{
				{InDir: "/p", OutDir: "/p/0_a", Command: "a"},
				{InDir: "/p/0_a/", OutDir: "/p/1_b", Command: "b"},
			}},
		},
		{
			name:        "missing_root",
			pipeline:    Pipeline{},
			errContains: "folder is required",
		},
		{
			name:        "missing_command",
			pipeline:    Pipeline{Root: "/p", Stages: []Stage{{InDir: "/p", OutDir: "/p/0_a"}}},
			errContains: "command is required",
		},
		{
			name:        "missing_in_dir",
			pipeline:    Pipeline{Root: "/p", Stages: []Stage{{OutDir: "/p/0_a", Command: "a"}}},
			errContains: "in_dir is required",
		},
		{
			name:        "missing_out_dir",
			pipeline:    Pipeline{Root: "/p", Stages: []Stage{{InDir: "/p", Command: "a"}}},
			errContains: "out_dir is required",
		},
		{
			name: "broken_chain",
			pipeline: Pipeline{Root: "/p", Stages: []Stage{
				{InDir: "/p", OutDir: "/p/0_a", Command: "a"},
				{InDir: "/p", OutDir: "/p/1_b", Command: "b"},
			}},
			errContains: "stage 1: in_dir /p does not match /p/0_a",
		},
		{
			name:        "first_stage_not_root",
			pipeline:    Pipeline{Root: "/p", Stages: []Stage{{InDir: "/q", OutDir: "/p/0_a", Command: "a"}}},
			errContains: "stage 0: in_dir",
		},
		{
			name:        "out_equals_in",
			pipeline:    Pipeline{Root: "/p", Stages: []Stage{{InDir: "/p", OutDir: "/p", Command: "a"}}},
			errContains: "out_dir must differ",
		},
		{
			name:        "relative_folder",
			pipeline:    Pipeline{Root: "p"},
			errContains: "folder p must be an absolute path",
		},
		{
			name:        "relative_in_dir",
			pipeline:    Pipeline{Root: "/p", Stages: []Stage{{InDir: "p", OutDir: "/p/0_a", Command: "a"}}},
			errContains: "stage 0: in_dir p must be an absolute path",
		},
		{
			name:        "relative_out_dir",
			pipeline:    Pipeline{Root: "/p", Stages: []Stage{{InDir: "/p", OutDir: "p/0_a", Command: "a"}}},
			errContains: "stage 0: out_dir p/0_a must be an absolute path",
		},
		{
			name:        "out_dir_outside_root",
			pipeline:    Pipeline{Root: "/p", Stages: []Stage{{InDir: "/p", OutDir: "/q/0_a", Command: "a"}}},
			errContains: "outside /p",
		},
		{
			name:        "out_dir_escapes_root",
			pipeline:    Pipeline{Root: "/p", Stages: []Stage{{InDir: "/p", OutDir: "/p/../0_a", Command: "a"}}},
			errContains: "outside /p",
		},
		{
			name:        "out_dir_sibling_prefix",
			pipeline:    Pipeline{Root: "/p", Stages: []Stage{{InDir: "/p", OutDir: "/pp/0_a", Command: "a"}}},
			errContains: "outside /p",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pipeline.Validate()
			if tt.errContains == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestIsMarker(t *testing.T) {
	assert.True(t, IsMarker(MarkerName))
	assert.False(t, IsMarker("dirpipe.json"))
	assert.False(t, IsMarker("a.jpg"))
}
