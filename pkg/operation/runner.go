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
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/resub/pkg/config"
	"github.com/walteh/resub/pkg/resolve"
	"github.com/walteh/resub/pkg/status"
	"github.com/walteh/resub/pkg/text"
)

// 📣 Reporter receives everything a run has to say
type Reporter interface {
	resolve.Warner

	// FileRow prints one aligned table row for a processed file
	FileRow(stats *status.RunStats, outcome *status.FileOutcome)

	// FileDetail prints the name and content diff of a processed file
	FileDetail(outcome *status.FileOutcome)

	// Summary prints the configuration and final totals
	Summary(opts *config.Options, stats *status.RunStats, sum status.Summary)
}

// 🏃 Runner resolves files and transforms them one after another
type Runner struct {
	fs       afero.Fs
	glob     resolve.GlobFunc
	reporter Reporter
	now      func() time.Time
}

// RunnerOption customizes a Runner
type RunnerOption func(*Runner)

// WithFs sets the filesystem used for every stat, read and write
func WithFs(fs afero.Fs) RunnerOption {
	return func(r *Runner) { r.fs = fs }
}

// WithGlob sets the glob expander used to resolve file arguments
func WithGlob(glob resolve.GlobFunc) RunnerOption {
	return func(r *Runner) { r.glob = glob }
}

// WithClock sets the time source for elapsed time reporting
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// 🏭 NewRunner creates a Runner over the real filesystem unless overridden
func NewRunner(reporter Reporter, opts ...RunnerOption) *Runner {
	r := &Runner{
		fs:       afero.NewOsFs(),
		glob:     resolve.FilepathGlob,
		reporter: reporter,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.reporter == nil {
		r.reporter = nopReporter{}
	}
	return r
}

type nopReporter struct{}

func (nopReporter) Warning(string) {}
func (nopReporter) FileRow(*status.RunStats, *status.FileOutcome) {}
func (nopReporter) FileDetail(*status.FileOutcome) {}
func (nopReporter) Summary(*config.Options, *status.RunStats, status.Summary) {}

// 🎯 Run executes one invocation. The error is non-nil only for an unusable
// invocation detected before any file is touched; per-file problems are warnings.
func (r *Runner) Run(ctx context.Context, opts *config.Options) (*status.RunStats, error) {
	logger := zerolog.Ctx(ctx)

	if err := opts.Validate(); err != nil {
		return nil, errors.Errorf("validating options: %w", err)
	}

	pattern, err := text.Compile(opts.Pattern, opts.Replacement, opts.CompileOptions())
	if err != nil {
		return nil, errors.Errorf("compiling pattern: %w", err)
	}

	stats := status.New(pattern, r.now())

	pairs, err := resolve.NewWithFs(r.fs, r.glob, r.reporter).Resolve(ctx, opts.Files, opts.Prefix)
	if err != nil {
		return nil, errors.Errorf("resolving files: %w", err)
	}

	if len(pairs) == 0 {
		r.reporter.Warning("no files to process")
		return stats, nil
	}

	for _, p := range pairs {
		stats.ObservePaths(p.Input, p.Output)
	}

	logger.Debug().
		Str("options", opts.String()).
		Int("files", len(pairs)).
		Msg("starting run")

	transformer := NewTransformer(r.fs, pattern, opts, stats, r.reporter)
	for _, pair := range pairs {
		outcome := transformer.Transform(ctx, pair)
		if outcome.Skipped() {
			continue
		}
		switch {
		case opts.Verbosity >= 3:
			r.reporter.FileDetail(outcome)
		case opts.Verbosity == 2:
			r.reporter.FileRow(stats, outcome)
		}
	}

	if opts.Verbosity >= 1 {
		r.reporter.Summary(opts, stats, stats.Summary(len(pairs), r.now()))
	}

	logger.Debug().
		Int("files_changed", stats.FilesChanged).
		Int("content_changes", stats.TotalContentChanges).
		Msg("run complete")

	return stats, nil
}

// Run executes one invocation against the real filesystem
func Run(ctx context.Context, opts *config.Options, reporter Reporter) (*status.RunStats, error) {
	return NewRunner(reporter).Run(ctx, opts)
}
