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
	"time"

	"github.com/walteh/resub/pkg/text"
)

// 📊 FileStatus represents what happened to a single file
type FileStatus int

const (
	StatusUnknown   FileStatus = iota
	StatusChanged              // name or content was substituted
	StatusUnchanged            // pattern did not match
	StatusSkipped              // file vanished before it could be read
	StatusFailed               // write or permission restore failed
)

// String returns a string representation of FileStatus
func (s FileStatus) String() string {
	switch s {
	case StatusChanged:
		return "changed"
	case StatusUnchanged:
		return "unchanged"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// 📈 RunStats accumulates per-file outcomes for one invocation.
// It is owned by the sequential file loop and is not safe for concurrent use.
type RunStats struct {
	FilesChanged            int
	FilesWithNameChanges    int
	FilesWithContentChanges int
	TotalContentChanges     int
	DirectoriesCreated      int

	Pattern *text.Pattern
	Start   time.Time

	// display width hints for table alignment
	MaxInputLen  int
	MaxOutputLen int

	written map[string]struct{}
}

// 🏭 New creates an empty RunStats for a run starting at start
func New(pattern *text.Pattern, start time.Time) *RunStats {
	return &RunStats{
		Pattern: pattern,
		Start:   start,
		written: make(map[string]struct{}),
	}
}

// AddNameChange records a file whose output path was rewritten
func (s *RunStats) AddNameChange() {
	s.FilesWithNameChanges++
}

// AddContentChanges records a file whose content had n substitutions. n <= 0 is ignored.
func (s *RunStats) AddContentChanges(n int) {
	if n <= 0 {
		return
	}
	s.FilesWithContentChanges++
	s.TotalContentChanges += n
}

// AddFileChanged records a file with any name or content change
func (s *RunStats) AddFileChanged() {
	s.FilesChanged++
}

// AddDirectoryCreated records a directory created for an output file
func (s *RunStats) AddDirectoryCreated() {
	s.DirectoriesCreated++
}

// MarkWritten remembers that path was written (or would have been, in a dry run)
func (s *RunStats) MarkWritten(path string) {
	if s.written == nil {
		s.written = make(map[string]struct{})
	}
	s.written[path] = struct{}{}
}

// WasWritten reports whether path was already written during this run
func (s *RunStats) WasWritten(path string) bool {
	_, ok := s.written[path]
	return ok
}

// ObservePaths widens the display hints to fit in and out
func (s *RunStats) ObservePaths(in, out string) {
	if len(in) > s.MaxInputLen {
		s.MaxInputLen = len(in)
	}
	if len(out) > s.MaxOutputLen {
		s.MaxOutputLen = len(out)
	}
}

// 📋 Summary is the final, read-only view of a run
type Summary struct {
	Files                   int
	FilesChanged            int
	FilesWithNameChanges    int
	FilesWithContentChanges int
	TotalContentChanges     int
	DirectoriesCreated      int
	AvgChangesPerFile       float64
	Elapsed                 time.Duration
	TimePerFile             time.Duration
}

// Summary computes run totals for files processed files. files must be at least 1.
func (s *RunStats) Summary(files int, now time.Time) Summary {
	elapsed := now.Sub(s.Start)
	sum := Summary{
		Files:                   files,
		FilesChanged:            s.FilesChanged,
		FilesWithNameChanges:    s.FilesWithNameChanges,
		FilesWithContentChanges: s.FilesWithContentChanges,
		TotalContentChanges:     s.TotalContentChanges,
		DirectoriesCreated:      s.DirectoriesCreated,
		Elapsed:                 elapsed,
	}
	if files > 0 {
		sum.AvgChangesPerFile = float64(s.TotalContentChanges) / float64(files)
		sum.TimePerFile = elapsed / time.Duration(files)
	}
	return sum
}
