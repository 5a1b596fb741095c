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
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// 🎨 Display configuration
const (
	stageIndent = 2  // spaces to indent stage entries
	labelWidth  = 28 // width for the stage label
	countWidth  = 4  // width for the queue count
)

// 🎯 FormatStage formats one stage queue for display
func FormatStage(s StageStatus) string {
	var prefix, state string
	switch {
	case s.Err != nil:
		prefix = color.RedString("✗")
		state = color.RedString("unreadable: %v", s.Err)
	case s.Pending > 0:
		prefix = color.YellowString("⏳")
		state = color.YellowString("queued")
	default:
		prefix = color.GreenString("✓")
		state = color.HiBlackString("empty")
	}

	return fmt.Sprintf("%s%s %s %s %s",
		strings.Repeat(" ", stageIndent),
		prefix,
		fmt.Sprintf("%-*s", labelWidth, s.Stage.Label()),
		fmt.Sprintf("%*d file(s)", countWidth, s.Pending),
		state,
	)
}

// 📝 FormatPipeline formats the whole pipeline status, one line per stage
func FormatPipeline(p *PipelineStatus) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", color.New(color.Bold).Sprint("pipeline"), color.CyanString(p.Root))
	if len(p.Stages) == 0 {
		fmt.Fprintf(&b, "%s%s\n", strings.Repeat(" ", stageIndent), color.HiBlackString("no stages"))
		return b.String()
	}

	for _, s := range p.Stages {
		b.WriteString(FormatStage(s))
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%s%s %d pending, %d result(s)\n",
		strings.Repeat(" ", stageIndent),
		color.New(color.Faint).Sprint("•"),
		p.Pending(),
		p.Results,
	)
	return b.String()
}

// FormatProgress formats a progress message with percentage
func FormatProgress(current, total int) string {
	var percentage float64
	if total == 0 {
		percentage = 0
		if current > 0 {
			percentage = 100
		}
	} else {
		percentage = float64(current) / float64(total) * 100
	}

	if current >= total {
		return fmt.Sprintf("✅ Progress: %d/%d (%.0f%%)", current, total, percentage)
	}
	return fmt.Sprintf("⏳ Progress: %d/%d (%.0f%%)", current, total, percentage)
}

// FormatStageDetails formats the directories and command of one stage
func FormatStageDetails(s StageStatus) string {
	indent := strings.Repeat(" ", stageIndent+2)
	return fmt.Sprintf("%s\n%s%s %s\n%s%s %s\n%s%s %s\n",
		color.New(color.Bold).Sprint(s.Stage.Label()),
		indent, color.HiBlackString("in: "), s.Stage.InDir,
		indent, color.HiBlackString("out:"), s.Stage.OutDir,
		indent, color.HiBlackString("cmd:"), s.Stage.Command,
	)
}
