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

package template

import "fmt"

// ❌ SyntaxError is returned when a command template cannot be tokenized,
// for example because of an unbalanced quote. No process is spawned for a
// template that fails this way.
type SyntaxError struct {
	Template string
	Err      error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid command template %q: %v", e.Template, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }
