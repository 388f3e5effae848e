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
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/walteh/resub/pkg/config"
	"github.com/walteh/resub/pkg/resolve"
	"github.com/walteh/resub/pkg/status"
	"github.com/walteh/resub/pkg/text"
)

// 🔄 Transformer applies one compiled pattern to the name and content of each file
type Transformer struct {
	files   *fileManager
	pattern *text.Pattern
	opts    *config.Options
	stats   *status.RunStats
	warner  resolve.Warner

	// directories a dry run would have created
	plannedDirs map[string]struct{}
}

// 🏭 NewTransformer creates a Transformer that records into stats
func NewTransformer(fs afero.Fs, pattern *text.Pattern, opts *config.Options, stats *status.RunStats, warner resolve.Warner) *Transformer {
	return &Transformer{
		files:       &fileManager{fs: fs},
		pattern:     pattern,
		opts:        opts,
		stats:       stats,
		warner:      warner,
		plannedDirs: make(map[string]struct{}),
	}
}

// 🎯 Transform substitutes the name and content of one file and writes the result,
// unless this is a dry run. Failures are warned about and never returned.
//
// A file that cannot be stat'ed or read is dropped with StatusSkipped and is not
// counted anywhere in the run stats.
func (t *Transformer) Transform(ctx context.Context, pair resolve.FilePair) *status.FileOutcome {
	logger := zerolog.Ctx(ctx).With().Str("input", pair.Input).Logger()

	out := &status.FileOutcome{
		Input:  pair.Input,
		Output: pair.Output,
		Status: status.StatusUnchanged,
	}

	info, err := t.files.stat(pair.Input)
	if err != nil {
		logger.Debug().Err(err).Msg("input vanished, skipping")
		out.Status = status.StatusSkipped
		return out
	}
	out.Mode = info.Mode().Perm()

	if !t.opts.ContentsOnly {
		out.Output, out.NameChanges = t.pattern.Subn(pair.Output)
	}

	var pattern *text.Pattern
	if !t.opts.FilenamesOnly {
		pattern = t.pattern
	}
	res, err := t.files.read(ctx, pair.Input, pattern)
	if err != nil {
		logger.Debug().Err(err).Msg("input unreadable, skipping")
		out.Status = status.StatusSkipped
		return out
	}
	out.OriginalContent = res.OriginalContent
	out.NewContent = res.ModifiedContent
	out.ContentChanges = res.ReplacementCount

	if out.NameChanges > 0 {
		t.stats.AddNameChange()
	}
	t.stats.AddContentChanges(out.ContentChanges)

	if t.opts.DryRun {
		t.simulate(out)
	} else {
		t.apply(ctx, pair, out)
	}

	if out.Changed() {
		t.stats.AddFileChanged()
		if out.Status != status.StatusFailed {
			out.Status = status.StatusChanged
		}
	}

	t.stats.ObservePaths(out.Input, out.Output)

	logger.Debug().
		Str("output", out.Output).
		Int("name_changes", out.NameChanges).
		Int("content_changes", out.ContentChanges).
		Str("status", out.Status.String()).
		Msg("transformed file")

	return out
}

// simulate records what apply would do without touching the filesystem
func (t *Transformer) simulate(out *status.FileOutcome) {
	dir := filepath.Dir(out.Output)
	if t.wouldCreate(dir) {
		t.stats.AddDirectoryCreated()
		out.DirCreated = true
	}

	if t.opts.Prefix != "" && (t.files.exists(out.Output) || t.stats.WasWritten(out.Output)) {
		out.Overwrite = true
		if !t.opts.NoWarn {
			t.warn(fmt.Sprintf("%s would be overwritten", out.Output))
		}
	}

	t.stats.MarkWritten(out.Output)
}

// wouldCreate reports whether writing into dir needs a directory that neither
// exists nor was already planned, and plans dir and its missing parents
func (t *Transformer) wouldCreate(dir string) bool {
	if dir == "" || dir == "." {
		return false
	}
	if _, ok := t.plannedDirs[dir]; ok {
		return false
	}
	if ok, err := afero.DirExists(t.files.fs, dir); err == nil && ok {
		return false
	}
	for d := dir; d != "" && d != "." && d != filepath.Dir(d); d = filepath.Dir(d) {
		t.plannedDirs[d] = struct{}{}
	}
	return true
}

func (t *Transformer) apply(ctx context.Context, pair resolve.FilePair, out *status.FileOutcome) {
	created, err := t.files.ensureDir(ctx, filepath.Dir(out.Output))
	if err != nil {
		t.fail(out, err)
		return
	}
	if created {
		t.stats.AddDirectoryCreated()
		out.DirCreated = true
	}

	if t.opts.Prefix != "" && t.files.exists(out.Output) {
		out.Overwrite = true
		if !t.opts.NoWarn {
			t.warn(fmt.Sprintf("overwriting %s", out.Output))
		}
	}

	if err := t.files.writeFile(out.Output, out.NewContent, out.Mode); err != nil {
		t.fail(out, err)
		return
	}

	if err := t.files.chmod(out.Output, out.Mode); err != nil {
		t.fail(out, err)
		return
	}

	// an in-place rename leaves the old name behind until it is removed here
	if t.opts.Prefix == "" && !t.files.sameFile(pair.Input, out.Output) {
		if err := t.files.remove(pair.Input); err != nil {
			t.fail(out, err)
			return
		}
		out.Renamed = true
	}
}

func (t *Transformer) fail(out *status.FileOutcome, err error) {
	out.Status = status.StatusFailed
	t.warn(fmt.Sprintf("cannot write %s: %v", out.Output, err))
}

func (t *Transformer) warn(msg string) {
	if t.warner != nil {
		t.warner.Warning(msg)
	}
}
