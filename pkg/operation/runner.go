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

package operation

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🏃 OperationRunner executes operations
type OperationRunner struct {
	logger *zerolog.Logger
}

// 🏗️ NewRunner creates a new runner
func NewRunner(logger *zerolog.Logger) *OperationRunner {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &OperationRunner{logger: logger}
}

// 🏃 Run executes an operation and blocks until it returns, stage cleanup
// included, even when ctx is cancelled.
func (r *OperationRunner) Run(ctx context.Context, op Operation) error {
	logger := r.logger.With().Str("operation", op.Name()).Logger()
	ctx = logger.WithContext(ctx)

	start := time.Now()
	logger.Debug().Msg("starting operation")

	err := op.Execute(ctx)

	ev := logger.Debug()
	if err != nil {
		ev = logger.Error().Err(err)
	}
	ev.Dur("duration", time.Since(start)).Msg("operation finished")

	if err != nil {
		if ctx.Err() != nil {
			return errors.Errorf("operation cancelled: %w", err)
		}
		return errors.Errorf("running %s: %w", op.Name(), err)
	}
	return nil
}
