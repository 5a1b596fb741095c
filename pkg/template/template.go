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

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"
	"gitlab.com/tozd/go/errors"
)

// 🏷️ Placeholder identifies one of the substitutable tokens
type Placeholder int

const (
	InFilePath Placeholder = iota // {in_file_path}
	InFileName                    // {in_file_name}
	InFileExt                     // {in_file_ext}
	InDir                         // {in_dir}
	OutDir                        // {out_dir}
)

var placeholderNames = [...]string{
	InFilePath: "in_file_path",
	InFileName: "in_file_name",
	InFileExt:  "in_file_ext",
	InDir:      "in_dir",
	OutDir:     "out_dir",
}

// String returns the placeholder as it is written in a template, braces included.
func (p Placeholder) String() string {
	if p < 0 || int(p) >= len(placeholderNames) {
		return "{unknown}"
	}
	return "{" + placeholderNames[p] + "}"
}

// 📖 PlaceholderHelp documents a placeholder for users building templates
type PlaceholderHelp struct {
	Placeholder Placeholder
	Description string
	Example     string
}

// Placeholders lists every recognized placeholder in template order.
func Placeholders() []PlaceholderHelp {
	return []PlaceholderHelp{
		{InFilePath, "Path of the file currently processed by the stage", "/home/alice/pipeline/my_file.jpg"},
		{InFileName, "Name of the input file, without extension", "my_file"},
		{InFileExt, "Lower-cased extension of the input file, without the dot", "jpg"},
		{InDir, "Input directory of the stage (output of the previous stage)", "/home/alice/pipeline"},
		{OutDir, "Output directory of the current stage", "/home/alice/pipeline/0_to_png"},
	}
}

// 🔗 Binding is the set of values a template is expanded against
type Binding struct {
	File   string // absolute path of the input file
	InDir  string
	OutDir string
	// Prefix is tokenized in front of the template, e.g. the program every
	// stage command is handed to. Empty means the template names the program.
	Prefix string
}

func (b Binding) value(p Placeholder) string {
	switch p {
	case InFilePath:
		return b.File
	case InFileName:
		name, _ := SplitName(filepath.Base(b.File))
		return name
	case InFileExt:
		_, ext := SplitName(filepath.Base(b.File))
		return strings.ToLower(ext)
	case InDir:
		return b.InDir
	case OutDir:
		return b.OutDir
	}
	return ""
}

// SplitName splits a base filename into its stem and extension (without the
// dot). Only the last extension is split off, and a leading dot does not start
// an extension: "a.tar.gz" gives ("a.tar", "gz") and ".env" gives (".env", "").
func SplitName(base string) (string, string) {
	idx := strings.LastIndexByte(base, '.')
	if idx <= 0 || idx == len(base)-1 {
		return base, ""
	}
	return base[:idx], base[idx+1:]
}

// ✅ Validate checks that tmpl can be tokenized and names a program.
func Validate(tmpl string) error {
	_, err := lex("", tmpl)
	return err
}

// 🔄 Expand tokenizes tmpl with shell quoting rules and substitutes the
// placeholders of every token. Tokens holding a path separator after
// substitution are cleaned.
func Expand(tmpl string, b Binding) ([]string, error) {
	tokens, err := lex(b.Prefix, tmpl)
	if err != nil {
		return nil, err
	}

	args := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		tok = substitute(tok, b)
		if strings.ContainsAny(tok, `/\`) || strings.ContainsRune(tok, filepath.Separator) {
			tok = filepath.Clean(tok)
		}
		args = append(args, tok)
	}

	return args, nil
}

func lex(prefix, tmpl string) ([]string, error) {
	line := tmpl
	if strings.TrimSpace(prefix) != "" {
		line = fmt.Sprintf("%s %s", prefix, tmpl)
	}

	tokens, err := shellquote.Split(line)
	if err != nil {
		return nil, &SyntaxError{Template: tmpl, Err: err}
	}
	if len(tokens) == 0 {
		return nil, &SyntaxError{Template: tmpl, Err: errors.New("command is empty")}
	}

	return tokens, nil
}

// substitute scans tok once, replacing exact {name} occurrences of the known
// placeholders. Replaced values are copied verbatim and never rescanned.
// Unknown brace sequences are kept as written.
func substitute(tok string, b Binding) string {
	if !strings.Contains(tok, "{") {
		return tok
	}

	var sb strings.Builder
	sb.Grow(len(tok))

	for i := 0; i < len(tok); {
		if tok[i] == '{' {
			if p, n, ok := matchPlaceholder(tok[i:]); ok {
				sb.WriteString(b.value(p))
				i += n
				continue
			}
		}
		sb.WriteByte(tok[i])
		i++
	}

	return sb.String()
}

// matchPlaceholder reports the placeholder starting at s[0] == '{' and the
// number of bytes it spans.
func matchPlaceholder(s string) (Placeholder, int, bool) {
	end := strings.IndexByte(s, '}')
	if end < 0 {
		return 0, 0, false
	}
	name := s[1:end]
	for i, candidate := range placeholderNames {
		if name == candidate {
			return Placeholder(i), end + 1, true
		}
	}
	return 0, 0, false
}
