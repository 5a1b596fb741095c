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

package status

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/walteh/dirpipe/pkg/pipeline"
	"github.com/walteh/dirpipe/pkg/stage"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentListings bounds how many directories are read at once.
const maxConcurrentListings = 8

// 📊 StageStatus is the queue of one stage at the time it was inspected
type StageStatus struct {
	Index   int
	Stage   pipeline.Stage
	Pending int   // files waiting in the stage input
	Err     error // set when the input could not be listed
}

// 📚 PipelineStatus is a read-only snapshot of every stage queue
type PipelineStatus struct {
	Root    string
	Stages  []StageStatus
	Results int // files in the output of the last stage
}

// Pending returns the number of files waiting across all stages.
func (p *PipelineStatus) Pending() int {
	n := 0
	for _, s := range p.Stages {
		n += s.Pending
	}
	return n
}

// 🔍 Inspect counts the files queued for every stage of p. Nothing is run
// or removed. Directories are listed concurrently; a stage whose input
// cannot be listed reports the error in its StageStatus.
func Inspect(ctx context.Context, p *pipeline.Pipeline, ignore []string) (*PipelineStatus, error) {
	logger := zerolog.Ctx(ctx)

	status := &PipelineStatus{
		Root:   p.Root,
		Stages: make([]StageStatus, len(p.Stages)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentListings)

	for i, st := range p.Stages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			s := StageStatus{Index: i, Stage: st}
			m, err := stage.Snapshot(st.InDir, ignore)
			if err != nil {
				logger.Warn().Err(err).Str("dir", st.InDir).Msg("listing stage input")
				s.Err = err
			} else {
				s.Pending = m.Len()
			}
			// each goroutine owns its own slot
			status.Stages[i] = s
			return nil
		})
	}

	if n := len(p.Stages); n > 0 {
		last := p.Stages[n-1].OutDir
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m, err := stage.Snapshot(last, ignore)
			if err != nil {
				logger.Warn().Err(err).Str("dir", last).Msg("listing pipeline results")
				return nil
			}
			status.Results = m.Len()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Debug().Int("pending", status.Pending()).Int("results", status.Results).Msg("inspected pipeline")
	return status, nil
}
