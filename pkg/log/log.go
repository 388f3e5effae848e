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
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/walteh/resub/pkg/config"
	"github.com/walteh/resub/pkg/status"
)

// 🎨 Display configuration
const (
	fileIndent   = 4 // spaces to indent file entries
	detailIndent = 2 // spaces to indent detail block lines
	diffContext  = 3 // unchanged lines around each content hunk
)

// 🎯 Logger prints run progress for humans and mirrors it to zerolog
type Logger struct {
	zlog   zerolog.Logger
	stdout io.Writer
	stderr io.Writer
	mu     sync.Mutex
}

// 🏭 New creates a new logger. Warnings and errors go to stderr, everything else to stdout.
func New(stdout, stderr io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:   zlog,
		stdout: stdout,
		stderr: stderr,
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("resub")
	fmt.Fprintf(l.stdout, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.stderr, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.stderr, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 FileRow prints one table row, padded to the widest paths seen so far
func (l *Logger) FileRow(stats *status.RunStats, o *status.FileOutcome) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintln(l.stdout, formatFileRow(stats, o))

	l.zlog.Info().
		Str("input", o.Input).
		Str("output", o.Output).
		Str("status", o.Status.String()).
		Int("name_changes", o.NameChanges).
		Int("content_changes", o.ContentChanges).
		Msg("file processed")
}

// 📝 formatFileRow formats a file outcome for display
func formatFileRow(stats *status.RunStats, o *status.FileOutcome) string {
	var symbol rune
	var symbolColor color.Attribute
	switch o.Status {
	case status.StatusFailed:
		symbol = '✗'
		symbolColor = color.FgRed
	case status.StatusChanged:
		symbol = '⟳'
		symbolColor = color.FgBlue
	default:
		symbol = '-'
		symbolColor = color.FgYellow
	}

	return fmt.Sprintf("%s%s %s → %s %s",
		strings.Repeat(" ", fileIndent),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", stats.MaxInputLen, o.Input),
		fmt.Sprintf("%-*s", stats.MaxOutputLen, o.Output),
		describeCounts(o))
}

func describeCounts(o *status.FileOutcome) string {
	switch {
	case o.Status == status.StatusFailed:
		return color.New(color.FgRed).Sprint("failed")
	case !o.Changed():
		return color.New(color.Faint).Sprint("unchanged")
	}
	return fmt.Sprintf("names=%d contents=%d", o.NameChanges, o.ContentChanges)
}

// 📝 FileDetail prints a block with the name diff and a unified content diff
func (l *Logger) FileDetail(o *status.FileOutcome) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprint(l.stdout, formatFileDetail(o))

	l.zlog.Info().
		Str("input", o.Input).
		Str("output", o.Output).
		Str("status", o.Status.String()).
		Int("name_changes", o.NameChanges).
		Int("content_changes", o.ContentChanges).
		Str("mode", o.Mode.String()).
		Msg("file processed")
}

func formatFileDetail(o *status.FileOutcome) string {
	var buf bytes.Buffer
	indent := strings.Repeat(" ", detailIndent)

	header := pterm.Info.WithPrefix(pterm.Prefix{Text: "FILE", Style: pterm.Info.Prefix.Style})
	buf.WriteString(header.Sprintln(o.Input))

	fmt.Fprintf(&buf, "%sname     %s (%s)\n", indent, nameDiff(o.Input, o.Output), plural(o.NameChanges, "change"))
	fmt.Fprintf(&buf, "%scontent  %s\n", indent, plural(o.ContentChanges, "change"))
	fmt.Fprintf(&buf, "%smode     %s\n", indent, o.Mode.Perm())
	fmt.Fprintf(&buf, "%sstatus   %s\n", indent, o.Status)

	var notes []string
	if o.DirCreated {
		notes = append(notes, "directory created")
	}
	if o.Overwrite {
		notes = append(notes, "overwrites existing file")
	}
	if o.Renamed {
		notes = append(notes, "original removed")
	}
	if len(notes) > 0 {
		fmt.Fprintf(&buf, "%snotes    %s\n", indent, strings.Join(notes, ", "))
	}

	if o.ContentChanges > 0 {
		buf.WriteString(contentDiff(o))
	}
	buf.WriteString("\n")
	return buf.String()
}

// nameDiff marks deleted runs as [-x-] and inserted runs as {+x+}
func nameDiff(before, after string) string {
	if before == after {
		return before
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(before, after, false))

	var sb strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			sb.WriteString(color.New(color.FgRed).Sprintf("[-%s-]", d.Text))
		case diffmatchpatch.DiffInsert:
			sb.WriteString(color.New(color.FgGreen).Sprintf("{+%s+}", d.Text))
		default:
			sb.WriteString(d.Text)
		}
	}
	return sb.String()
}

func contentDiff(o *status.FileOutcome) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(o.OriginalContent)),
		B:        difflib.SplitLines(string(o.NewContent)),
		FromFile: o.Input,
		ToFile:   o.Output,
		Context:  diffContext,
	})
	if err != nil || diff == "" {
		return ""
	}

	var sb strings.Builder
	for _, line := range strings.SplitAfter(diff, "\n") {
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			sb.WriteString(color.New(color.Bold).Sprint(line))
		case strings.HasPrefix(line, "@@"):
			sb.WriteString(color.New(color.FgCyan).Sprint(line))
		case strings.HasPrefix(line, "+"):
			sb.WriteString(color.New(color.FgGreen).Sprint(line))
		case strings.HasPrefix(line, "-"):
			sb.WriteString(color.New(color.FgRed).Sprint(line))
		default:
			sb.WriteString(line)
		}
	}
	return sb.String()
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// 📝 Summary prints the run configuration and totals as a key/value table
func (l *Logger) Summary(opts *config.Options, stats *status.RunStats, sum status.Summary) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprint(l.stdout, formatSummary(opts, stats, sum))

	l.zlog.Info().
		Int("files", sum.Files).
		Int("files_changed", sum.FilesChanged).
		Int("files_with_name_changes", sum.FilesWithNameChanges).
		Int("files_with_content_changes", sum.FilesWithContentChanges).
		Int("total_content_changes", sum.TotalContentChanges).
		Int("directories_created", sum.DirectoriesCreated).
		Dur("elapsed", sum.Elapsed).
		Bool("dry_run", opts.DryRun).
		Msg("run summary")
}

func formatSummary(opts *config.Options, stats *status.RunStats, sum status.Summary) string {
	var buf bytes.Buffer

	pattern := opts.Pattern
	if stats != nil && stats.Pattern != nil {
		pattern = stats.Pattern.String()
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "(in place)"
	}

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Setting", "Value"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)

	table.AppendBulk([][]string{
		{"Pattern", pattern},
		{"Replacement", opts.Replacement},
		{"Mode", mode(opts)},
		{"Prefix", prefix},
		{"Dry run", fmt.Sprintf("%t", opts.DryRun)},
		{"Files", fmt.Sprintf("%d", sum.Files)},
		{"Files changed", fmt.Sprintf("%d", sum.FilesChanged)},
		{"Files with name changes", fmt.Sprintf("%d", sum.FilesWithNameChanges)},
		{"Files with content changes", fmt.Sprintf("%d", sum.FilesWithContentChanges)},
		{"Total content changes", fmt.Sprintf("%d", sum.TotalContentChanges)},
		{"Directories created", fmt.Sprintf("%d", sum.DirectoriesCreated)},
		{"Avg changes per file", fmt.Sprintf("%.2f", sum.AvgChangesPerFile)},
		{"Elapsed", sum.Elapsed.Round(time.Microsecond).String()},
		{"Time per file", sum.TimePerFile.Round(time.Microsecond).String()},
	})
	table.Render()

	return buf.String()
}

func mode(opts *config.Options) string {
	switch {
	case opts.ContentsOnly && opts.FilenamesOnly:
		return "nothing (contents-only and filenames-only)"
	case opts.ContentsOnly:
		return "contents only"
	case opts.FilenamesOnly:
		return "filenames only"
	default:
		return "filenames and contents"
	}
}
