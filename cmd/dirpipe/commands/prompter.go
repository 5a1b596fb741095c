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

package commands

import (
	"strings"

	"github.com/pterm/pterm"
	"github.com/walteh/dirpipe/pkg/operation"
	"github.com/walteh/dirpipe/pkg/template"
	"gitlab.com/tozd/go/errors"
)

// 💬 ptermPrompter asks questions on the terminal
type ptermPrompter struct{}

var _ operation.Prompter = ptermPrompter{}

func (ptermPrompter) Text(prompt string) (string, error) {
	answer, err := pterm.DefaultInteractiveTextInput.Show(prompt)
	if err != nil {
		return "", errors.Errorf("reading answer: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

func (ptermPrompter) Confirm(prompt string, defaultValue bool) (bool, error) {
	answer, err := pterm.DefaultInteractiveConfirm.WithDefaultValue(defaultValue).Show(prompt)
	if err != nil {
		return false, errors.Errorf("reading answer: %w", err)
	}
	return answer, nil
}

func (ptermPrompter) Help(text string) {
	pterm.Println(text)
}

// placeholderTable renders the placeholders a command template may use
func placeholderTable() (string, error) {
	data := pterm.TableData{{"Placeholder", "Description", "Example"}}
	for _, h := range template.Placeholders() {
		data = append(data, []string{h.Placeholder.String(), h.Description, h.Example})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
}

// placeholderList is the plain text variant used in help output
func placeholderList() string {
	var b strings.Builder
	for _, h := range template.Placeholders() {
		b.WriteString("  ")
		b.WriteString(h.Placeholder.String())
		b.WriteString(strings.Repeat(" ", 16-len(h.Placeholder.String())))
		b.WriteString(h.Description)
		b.WriteString("\n")
	}
	return b.String()
}
