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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/dirpipe/pkg/template"
	"gitlab.com/tozd/go/errors"
)

// MarkerName is the reserved file inside the pipeline root that holds the
// pipeline configuration. It is never treated as work by any stage.
const MarkerName = ".dirpipe.json"

// IsMarker reports whether name is the reserved marker filename.
func IsMarker(name string) bool {
	return name == MarkerName
}

// 📦 Stage is one step of the pipeline
type Stage struct {
	InDir   string `json:"in_dir"`  // Directory the stage consumes
	OutDir  string `json:"out_dir"` // Directory the stage writes into
	Command string `json:"command"` // Command template applied to every input file
}

// Label returns the directory name of the stage output, e.g. "0_convert".
func (s Stage) Label() string {
	return filepath.Base(s.OutDir)
}

// 📚 Pipeline is an ordered list of stages rooted at one directory
type Pipeline struct {
	Root   string  `json:"folder"`
	Stages []Stage `json:"stages"`
}

// 🏭 New prepares a pipeline rooted at dir. Environment variables in dir are
// expanded, the path is made absolute and the directory is created.
func New(ctx context.Context, dir string) (*Pipeline, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("pipeline folder is required")
	}

	root, err := filepath.Abs(os.ExpandEnv(dir))
	if err != nil {
		return nil, errors.Errorf("resolving pipeline folder: %w", err)
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Errorf("creating pipeline folder: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("root", root).Msg("pipeline folder ready")

	return &Pipeline{
		Root:   root,
		Stages: []Stage{},
	}, nil
}

// MarkerPath returns the absolute path of the marker file.
func (p *Pipeline) MarkerPath() string {
	return filepath.Join(p.Root, MarkerName)
}

// ➕ AddStage appends a stage consuming the previous stage's output (or the
// root for the first stage). The output directory is created immediately.
func (p *Pipeline) AddStage(ctx context.Context, label, command string) (Stage, error) {
	label = strings.TrimSpace(label)
	if err := validateLabel(label); err != nil {
		return Stage{}, err
	}

	if err := template.Validate(command); err != nil {
		return Stage{}, errors.Errorf("validating command: %w", err)
	}

	outDir := filepath.Join(p.Root, fmt.Sprintf("%d_%s", len(p.Stages), label))
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Stage{}, errors.Errorf("creating stage directory: %w", err)
	}

	inDir := p.Root
	if len(p.Stages) > 0 {
		inDir = p.Stages[len(p.Stages)-1].OutDir
	}

	st := Stage{
		InDir:   inDir,
		OutDir:  outDir,
		Command: command,
	}
	p.Stages = append(p.Stages, st)

	zerolog.Ctx(ctx).Info().
		Str("stage", st.Label()).
		Str("out_dir", outDir).
		Msg("pipeline stage created")

	return st, nil
}

func validateLabel(label string) error {
	switch {
	case label == "":
		return errors.New("stage label is required")
	case label == "." || label == "..":
		return errors.Errorf("invalid stage label %q", label)
	case strings.ContainsAny(label, `/\`) || strings.ContainsRune(label, filepath.Separator):
		return errors.Errorf("stage label %q must not contain a path separator", label)
	}
	return nil
}

// ✅ Validate checks the required fields and the directory chain:
// the first stage reads the root and every other stage reads the output of
// the stage before it. Every path must be absolute and every output
// directory must live under the root.
func (p *Pipeline) Validate() error {
	if p.Root == "" {
		return errors.New("folder is required")
	}
	if !filepath.IsAbs(p.Root) {
		return errors.Errorf("folder %s must be an absolute path", p.Root)
	}

	prev := p.Root
	for i, st := range p.Stages {
		switch {
		case st.InDir == "":
			return errors.Errorf("stage %d: in_dir is required", i)
		case st.OutDir == "":
			return errors.Errorf("stage %d: out_dir is required", i)
		case st.Command == "":
			return errors.Errorf("stage %d: command is required", i)
		case !filepath.IsAbs(st.InDir):
			return errors.Errorf("stage %d: in_dir %s must be an absolute path", i, st.InDir)
		case !filepath.IsAbs(st.OutDir):
			return errors.Errorf("stage %d: out_dir %s must be an absolute path", i, st.OutDir)
		}

		if filepath.Clean(st.InDir) != filepath.Clean(prev) {
			return errors.Errorf("stage %d: in_dir %s does not match %s", i, st.InDir, prev)
		}
		if filepath.Clean(st.OutDir) == filepath.Clean(st.InDir) {
			return errors.Errorf("stage %d: out_dir must differ from in_dir", i)
		}
		if !within(p.Root, st.OutDir) {
			return errors.Errorf("stage %d: out_dir %s is outside %s", i, st.OutDir, p.Root)
		}
		prev = st.OutDir
	}

	return nil
}

// within reports whether path is strictly below root.
func within(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
