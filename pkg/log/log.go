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

package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/walteh/dirpipe/pkg/pipeline"
	"github.com/walteh/dirpipe/pkg/process"
	"github.com/walteh/dirpipe/pkg/stage"
	"gitlab.com/tozd/go/errors"
)

// 📢 UserLogger prints user facing feedback with pterm and mirrors every
// line to zerolog. It implements stage.Observer.
type UserLogger struct {
	log     zerolog.Logger
	console io.Writer
	mu      sync.Mutex
}

var _ stage.Observer = (*UserLogger)(nil)

// 🏭 NewUserLogger creates a user logger writing to console. A nil console
// writes to stdout.
func NewUserLogger(ctx context.Context, console io.Writer) *UserLogger {
	if console == nil {
		console = os.Stdout
	}
	return &UserLogger{
		log:     *zerolog.Ctx(ctx),
		console: console,
	}
}

// Console returns the writer user facing lines go to.
func (u *UserLogger) Console() io.Writer {
	return u.console
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 NewContext adds the user logger to context
func NewContext(ctx context.Context, u *UserLogger) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// 🎯 FromContext gets the user logger from context, or a stdout logger when
// there is none.
func FromContext(ctx context.Context) *UserLogger {
	if u, ok := ctx.Value(contextKey{}).(*UserLogger); ok {
		return u
	}
	return NewUserLogger(ctx, nil)
}

func (u *UserLogger) printer(base pterm.PrefixPrinter, prefix string) *pterm.PrefixPrinter {
	return base.WithPrefix(pterm.Prefix{Text: prefix, Style: base.Prefix.Style}).WithWriter(u.console)
}

// 📝 Header prints a bold banner for the command being run
func (u *UserLogger) Header(msg string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("dirpipe")
	fmt.Fprintf(u.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	u.log.Info().Msg(msg)
}

// 📊 LogStateChange logs a change to the pipeline
func (u *UserLogger) LogStateChange(description string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.printer(pterm.Info, "📦").Println(description)
	u.log.Info().Msg(description)
}

// 🔍 LogValidation logs validation results
func (u *UserLogger) LogValidation(valid bool, description string, err error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if valid {
		u.printer(pterm.Success, "✅").Println(description)
		u.log.Info().Msg(description)
		return
	}
	if err != nil {
		u.printer(pterm.Error, "❌").Println(description)
		pterm.Error.WithWriter(u.console).Println(err)
		u.log.Error().Err(err).Msg(description)
		return
	}
	u.printer(pterm.Warning, "⚠️").Println(description)
	u.log.Warn().Msg(description)
}

// ▶️ StageStarted implements stage.Observer
func (u *UserLogger) StageStarted(index int, st pipeline.Stage, files int) {
	u.mu.Lock()
	defer u.mu.Unlock()

	msg := fmt.Sprintf("Stage %s: %d file(s) queued", st.Label(), files)
	u.printer(pterm.Info, "▶️").Println(msg)
	u.log.Info().Int("stage", index).Int("files", files).Msg(msg)
}

// 📄 FileFinished implements stage.Observer
func (u *UserLogger) FileFinished(index int, st pipeline.Stage, file stage.FileResult) {
	u.mu.Lock()
	defer u.mu.Unlock()

	name := filepath.Base(file.Entry.Path)

	if file.OK() {
		msg := fmt.Sprintf("Processed %s (%s)", name, file.Duration.Round(time.Millisecond))
		u.printer(pterm.Success, "✨").Println(msg)
		u.log.Debug().Int("stage", index).Str("file", file.Entry.Path).Msg(msg)
		return
	}

	msg := fmt.Sprintf("Failed %s", name)
	if file.ExitCode >= 0 {
		msg += fmt.Sprintf(" (exit code %d)", file.ExitCode)
	}
	u.printer(pterm.Error, "❌").Println(msg)

	var execErr *process.ExecutionError
	if errors.As(file.Err, &execErr) {
		pterm.Error.WithWriter(u.console).Println(execErr.CommandLine())
		if stderr := strings.TrimSpace(execErr.Stderr); stderr != "" {
			pterm.Error.WithWriter(u.console).Println(stderr)
		}
	} else {
		pterm.Error.WithWriter(u.console).Println(file.Err)
	}
	u.log.Error().Err(file.Err).Int("stage", index).Str("file", file.Entry.Path).Msg(msg)
}

// 🏁 StageFinished implements stage.Observer
func (u *UserLogger) StageFinished(res *stage.Result) {
	u.mu.Lock()
	defer u.mu.Unlock()

	label := res.Stage.Label()

	switch {
	case res.Succeeded():
		msg := fmt.Sprintf("Stage %s done: %d file(s) processed, %d input(s) removed", label, res.Processed, res.Removed)
		u.printer(pterm.Success, "✅").Println(msg)
		u.log.Info().Int("stage", res.Index).Msg(msg)
	case res.Cancelled:
		msg := fmt.Sprintf("Stage %s cancelled: output discarded (%d file(s) removed), input kept", label, res.Removed)
		u.printer(pterm.Warning, "⏹️").Println(msg)
		u.log.Warn().Int("stage", res.Index).Msg(msg)
	default:
		msg := fmt.Sprintf("Stage %s failed: %d of %d file(s) failed, output discarded (%d file(s) removed)", label, len(res.Failed), res.Total, res.Removed)
		u.printer(pterm.Error, "🗑️").Println(msg)
		u.log.Error().Int("stage", res.Index).Msg(msg)
	}
}
