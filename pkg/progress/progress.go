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

// Package progress folds per-stage file progress into one pipeline-wide value.
package progress

import "sync"

// Func receives a percentage in [0, 100].
type Func func(percent float64)

// Nop discards progress.
func Nop(float64) {}

// 📊 Global maps the progress of one stage onto the whole pipeline:
//
//	100 * (stageIndex + fileProgress/100) / stagesTotal
//
// fileProgress is clamped to [0, 100] and the result never exceeds 100.
func Global(stageIndex, stagesTotal int, fileProgress float64) float64 {
	if stagesTotal <= 0 {
		return 100
	}

	fileProgress = clamp(fileProgress)
	return clamp(100 * (float64(stageIndex) + fileProgress/100) / float64(stagesTotal))
}

// Scale returns a Func for stage stageIndex that forwards the global value to fn.
func Scale(stageIndex, stagesTotal int, fn Func) Func {
	if fn == nil {
		return Nop
	}
	return func(percent float64) {
		fn(Global(stageIndex, stagesTotal, percent))
	}
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

// 📈 Tracker forwards only values that do not go backwards
type Tracker struct {
	mu   sync.Mutex
	last float64
	fn   Func
}

// NewTracker wraps fn.
func NewTracker(fn Func) *Tracker {
	if fn == nil {
		fn = Nop
	}
	return &Tracker{fn: fn}
}

// Report forwards percent when it is not lower than the last forwarded value.
func (t *Tracker) Report(percent float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	percent = clamp(percent)
	if percent < t.last {
		return
	}
	t.last = percent
	t.fn(percent)
}

// Last returns the last forwarded value.
func (t *Tracker) Last() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}
