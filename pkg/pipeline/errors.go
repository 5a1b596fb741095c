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
	"fmt"
)

// 🔍 ConfigNotFoundError is returned by Load when the pipeline root or its
// marker file does not exist.
type ConfigNotFoundError struct {
	Path string // marker path that was looked up
	Err  error
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("pipeline config not found at %s: %v", e.Path, e.Err)
}

func (e *ConfigNotFoundError) Unwrap() error { return e.Err }

// 💥 ConfigCorruptError is returned by Load when the marker exists but cannot
// be decoded into a valid pipeline.
type ConfigCorruptError struct {
	Path string
	Err  error
}

func (e *ConfigCorruptError) Error() string {
	return fmt.Sprintf("pipeline config at %s is corrupt: %v", e.Path, e.Err)
}

func (e *ConfigCorruptError) Unwrap() error { return e.Err }
