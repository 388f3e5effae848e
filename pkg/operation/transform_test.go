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

package operation_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/resub/pkg/config"
	"github.com/walteh/resub/pkg/operation"
	"github.com/walteh/resub/pkg/resolve"
	"github.com/walteh/resub/pkg/status"
	"github.com/walteh/resub/pkg/text"
)

// 📝 recordingWarner keeps every warning it receives
type recordingWarner struct {
	msgs []string
}

func (w *recordingWarner) Warning(msg string) {
	w.msgs = append(w.msgs, msg)
}

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background())
}

// 🧪 newTransformer compiles pattern and wires a Transformer over fs
func newTransformer(t *testing.T, fs afero.Fs, pattern, replacement string, opts *config.Options) (*operation.Transformer, *status.RunStats, *recordingWarner) {
	t.Helper()
	p, err := text.Compile(pattern, replacement, opts.CompileOptions())
	require.NoError(t, err)
	stats := status.New(p, time.Now())
	warner := &recordingWarner{}
	return operation.NewTransformer(fs, p, opts, stats, warner), stats, warner
}

func TestTransform(t *testing.T) {
	tests := []struct {
		name          string
		pattern       string
		replacement   string
		opts          config.Options
		path          string
		content       string
		wantOutput    string
		wantContent   string
		wantNames     int
		wantContents  int
		wantStatus    status.FileStatus
		wantInputGone bool
	}{
		{
			name:          "name_and_content",
			pattern:       "foo",
			replacement:   "bar",
			path:          "/w/foo.txt",
			content:       "foo foo",
			wantOutput:    "/w/bar.txt",
			wantContent:   "bar bar",
			wantNames:     1,
			wantContents:  2,
			wantStatus:    status.StatusChanged,
			wantInputGone: true,
		},
		{
			name:         "word_boundary",
			pattern:      `\bfoo\b`,
			replacement:  "FOO",
			path:         "/w/a.txt",
			content:      "foo foobar foo",
			wantOutput:   "/w/a.txt",
			wantContent:  "FOO foobar FOO",
			wantContents: 2,
			wantStatus:   status.StatusChanged,
		},
		{
			name:         "backreference",
			pattern:      `(\w+)@(\w+)`,
			replacement:  `\2 at \1`,
			path:         "/w/mail.txt",
			content:      "me@home",
			wantOutput:   "/w/mail.txt",
			wantContent:  "home at me",
			wantContents: 1,
			wantStatus:   status.StatusChanged,
		},
		{
			name:         "contents_only",
			pattern:      "foo",
			replacement:  "bar",
			opts:         config.Options{ContentsOnly: true},
			path:         "/w/foo.txt",
			content:      "foo",
			wantOutput:   "/w/foo.txt",
			wantContent:  "bar",
			wantContents: 1,
			wantStatus:   status.StatusChanged,
		},
		{
			name:          "filenames_only",
			pattern:       "foo",
			replacement:   "bar",
			opts:          config.Options{FilenamesOnly: true},
			path:          "/w/foo.txt",
			content:       "foo foo",
			wantOutput:    "/w/bar.txt",
			wantContent:   "foo foo",
			wantNames:     1,
			wantStatus:    status.StatusChanged,
			wantInputGone: true,
		},
		{
			name:        "both_only_flags",
			pattern:     "foo",
			replacement: "bar",
			opts:        config.Options{ContentsOnly: true, FilenamesOnly: true},
			path:        "/w/foo.txt",
			content:     "foo",
			wantOutput:  "/w/foo.txt",
			wantContent: "foo",
			wantStatus:  status.StatusUnchanged,
		},
		{
			name:        "no_match",
			pattern:     "zzz",
			replacement: "y",
			path:        "/w/a.txt",
			content:     "abc",
			wantOutput:  "/w/a.txt",
			wantContent: "abc",
			wantStatus:  status.StatusUnchanged,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, tt.path, []byte(tt.content), 0640))

			opts := tt.opts
			tr, stats, warner := newTransformer(t, fs, tt.pattern, tt.replacement, &opts)

			out := tr.Transform(testContext(t), resolve.FilePair{Input: tt.path, Output: tt.path, Abs: tt.path})

			assert.Equal(t, tt.wantStatus, out.Status, "status should match")
			assert.Equal(t, tt.wantOutput, out.Output, "output path should match")
			assert.Equal(t, tt.wantNames, out.NameChanges, "name changes should match")
			assert.Equal(t, tt.wantContents, out.ContentChanges, "content changes should match")
			assert.Equal(t, tt.content, string(out.OriginalContent))
			assert.Equal(t, tt.wantContent, string(out.NewContent))
			assert.Empty(t, warner.msgs)

			got, err := afero.ReadFile(fs, tt.wantOutput)
			require.NoError(t, err)
			assert.Equal(t, tt.wantContent, string(got), "written content should match")

			info, err := fs.Stat(tt.wantOutput)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0640), info.Mode().Perm(), "permissions should be restored")

			inputExists, err := afero.Exists(fs, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantInputGone, !inputExists, "input removal should match")
			assert.Equal(t, tt.wantInputGone, out.Renamed)

			changed := 0
			if out.Changed() {
				changed = 1
			}
			assert.Equal(t, changed, stats.FilesChanged)
			assert.Equal(t, tt.wantContents, stats.TotalContentChanges)
		})
	}
}

func TestTransform_Prefix(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src/a/one.txt", []byte("foo"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/src/a/two.txt", []byte("foo"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/out/a/two.txt", []byte("old"), 0644))

	opts := &config.Options{Prefix: "/out/"}
	tr, stats, warner := newTransformer(t, fs, "foo", "bar", opts)
	ctx := testContext(t)

	first := tr.Transform(ctx, resolve.FilePair{Input: "/src/a/one.txt", Output: "/out/a/one.txt"})
	assert.False(t, first.DirCreated, "existing directory should not count")
	assert.False(t, first.Overwrite)
	assert.False(t, first.Renamed, "prefixed runs never remove inputs")

	second := tr.Transform(ctx, resolve.FilePair{Input: "/src/a/two.txt", Output: "/out/a/two.txt"})
	assert.True(t, second.Overwrite)
	require.Len(t, warner.msgs, 1)
	assert.Contains(t, warner.msgs[0], "overwriting /out/a/two.txt")

	got, err := afero.ReadFile(fs, "/out/a/two.txt")
	require.NoError(t, err)
	assert.Equal(t, "bar", string(got))

	src, err := afero.ReadFile(fs, "/src/a/one.txt")
	require.NoError(t, err)
	assert.Equal(t, "foo", string(src), "inputs are untouched under a prefix")

	assert.Equal(t, 0, stats.DirectoriesCreated)
	assert.Equal(t, 2, stats.FilesChanged)
}

func TestTransform_DirectoriesCreated(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src/a/b/one.txt", []byte("x"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/src/a/two.txt", []byte("x"), 0644))

	opts := &config.Options{Prefix: "/out/"}
	tr, stats, _ := newTransformer(t, fs, "zzz", "y", opts)
	ctx := testContext(t)

	first := tr.Transform(ctx, resolve.FilePair{Input: "/src/a/b/one.txt", Output: "/out/b/one.txt"})
	assert.True(t, first.DirCreated)
	second := tr.Transform(ctx, resolve.FilePair{Input: "/src/a/two.txt", Output: "/out/two.txt"})
	assert.False(t, second.DirCreated, "parent was created by the first file")

	assert.Equal(t, 1, stats.DirectoriesCreated, "one mkdir event per missing parent")
	assert.Equal(t, 0, stats.FilesChanged)

	exists, err := afero.Exists(fs, "/out/b/one.txt")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestTransform_NoWarn(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src/x.txt", []byte("x"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/out/x.txt", []byte("x"), 0644))

	for _, dry := range []bool{false, true} {
		opts := &config.Options{Prefix: "/out/", NoWarn: true, DryRun: dry}
		tr, _, warner := newTransformer(t, fs, "zzz", "y", opts)

		out := tr.Transform(testContext(t), resolve.FilePair{Input: "/src/x.txt", Output: "/out/x.txt"})
		assert.True(t, out.Overwrite, "overwrite is still detected")
		assert.Empty(t, warner.msgs, "no_warn silences overwrite warnings")
	}
}

func TestTransform_DryRun(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src/foo.txt", []byte("foo"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/src/bar.txt", []byte("bar"), 0644))

	opts := &config.Options{Prefix: "/out/", DryRun: true}
	tr, stats, warner := newTransformer(t, fs, "foo", "bar", opts)
	ctx := testContext(t)

	first := tr.Transform(ctx, resolve.FilePair{Input: "/src/foo.txt", Output: "/out/foo.txt"})
	assert.Equal(t, "/out/bar.txt", first.Output)
	assert.True(t, first.DirCreated, "a dry run still counts the directory it would create")
	assert.Empty(t, warner.msgs)

	// bar.txt maps onto the destination foo.txt was renamed to
	second := tr.Transform(ctx, resolve.FilePair{Input: "/src/bar.txt", Output: "/out/bar.txt"})
	assert.True(t, second.Overwrite)
	assert.False(t, second.DirCreated)
	require.Len(t, warner.msgs, 1)
	assert.Contains(t, warner.msgs[0], "/out/bar.txt would be overwritten")

	exists, err := afero.DirExists(fs, "/out")
	require.NoError(t, err)
	assert.False(t, exists, "dry run must not create directories")

	src, err := afero.ReadFile(fs, "/src/foo.txt")
	require.NoError(t, err)
	assert.Equal(t, "foo", string(src))

	assert.Equal(t, 1, stats.FilesChanged)
	assert.Equal(t, 1, stats.FilesWithNameChanges)
	assert.Equal(t, 1, stats.TotalContentChanges)
	assert.Equal(t, 1, stats.DirectoriesCreated)
	assert.True(t, stats.WasWritten("/out/bar.txt"))
}

// 🚫 openFailFs can stat files but never open them for reading
type openFailFs struct {
	afero.Fs
}

func (openFailFs) Open(name string) (afero.File, error) {
	return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
}

func TestTransform_Vanished(t *testing.T) {
	tests := []struct {
		name string
		fs   func() afero.Fs
	}{
		{
			name: "stat_fails",
			fs:   afero.NewMemMapFs,
		},
		{
			name: "read_fails",
			fs: func() afero.Fs {
				fs := afero.NewMemMapFs()
				_ = afero.WriteFile(fs, "/w/foo.txt", []byte("foo"), 0644)
				return openFailFs{Fs: fs}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := tt.fs()
			opts := &config.Options{Prefix: "/out/"}
			tr, stats, warner := newTransformer(t, fs, "foo", "bar", opts)

			out := tr.Transform(testContext(t), resolve.FilePair{Input: "/w/foo.txt", Output: "/out/foo.txt"})

			assert.True(t, out.Skipped())
			assert.Empty(t, warner.msgs, "a vanished file is dropped silently")

			// the drop is untracked: nothing in the run stats reflects it
			assert.Equal(t, 0, stats.FilesChanged)
			assert.Equal(t, 0, stats.FilesWithNameChanges)
			assert.Equal(t, 0, stats.FilesWithContentChanges)
			assert.Equal(t, 0, stats.DirectoriesCreated)

			exists, err := afero.Exists(fs, "/out/foo.txt")
			require.NoError(t, err)
			assert.False(t, exists)
		})
	}
}

// 💥 failingWriteFs creates files normally but fails every write to them
type failingWriteFs struct {
	afero.Fs
}

func (f failingWriteFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	file, err := f.Fs.OpenFile(name, flag, perm)
	if err != nil || flag&(os.O_WRONLY|os.O_RDWR) == 0 {
		return file, err
	}
	return failingWriteFile{File: file}, nil
}

type failingWriteFile struct {
	afero.File
}

func (failingWriteFile) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestTransform_WriteFailures(t *testing.T) {
	tests := []struct {
		name       string
		wrap       func(afero.Fs) afero.Fs
		wantWarn   string
		wantExists bool
	}{
		{
			name:     "read_only_filesystem",
			wrap:     afero.NewReadOnlyFs,
			wantWarn: "cannot write /out/bar.txt",
		},
		{
			name:     "partial_output_removed",
			wrap:     func(fs afero.Fs) afero.Fs { return failingWriteFs{Fs: fs} },
			wantWarn: "disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(base, "/src/foo.txt", []byte("foo foo"), 0644))
			require.NoError(t, base.MkdirAll("/out", 0755))

			opts := &config.Options{Prefix: "/out/"}
			tr, stats, warner := newTransformer(t, tt.wrap(base), "foo", "bar", opts)

			out := tr.Transform(testContext(t), resolve.FilePair{Input: "/src/foo.txt", Output: "/out/foo.txt"})

			assert.Equal(t, status.StatusFailed, out.Status)
			require.Len(t, warner.msgs, 1)
			assert.Contains(t, warner.msgs[0], tt.wantWarn)

			exists, err := afero.Exists(base, "/out/bar.txt")
			require.NoError(t, err)
			assert.Equal(t, tt.wantExists, exists)

			// counts describe the substitution, not whether it reached the disk
			assert.Equal(t, 1, stats.FilesChanged)
			assert.Equal(t, 2, stats.TotalContentChanges)
		})
	}
}
