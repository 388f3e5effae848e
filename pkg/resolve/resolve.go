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

// Package resolve turns file and glob arguments into input/output path pairs.
//
// Every resolved file contributes its parent directory to a running common
// ancestor. When an output prefix is set, each output path is the prefix
// followed by the input's path relative to that ancestor, so the relative
// layout of the inputs is reproduced under the prefix.
package resolve

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

// 📄 FilePair is one input file and the path its result is written to
type FilePair struct {
	Input  string // path as matched, possibly relative
	Output string // destination path
	Abs    string // absolute input path
}

// ⚠️ Warner receives non-fatal resolution problems
type Warner interface {
	Warning(msg string)
}

// GlobFunc expands a single file argument
type GlobFunc func(pattern string) ([]string, error)

// 🎯 Resolver expands file arguments into FilePairs
type Resolver struct {
	fs     afero.Fs
	glob   GlobFunc
	warner Warner
}

// 🏭 New creates a Resolver over the real filesystem
func New(warner Warner) *Resolver {
	return NewWithFs(afero.NewOsFs(), FilepathGlob, warner)
}

// 🏭 NewWithFs creates a Resolver with an explicit filesystem and glob expander
func NewWithFs(fs afero.Fs, glob GlobFunc, warner Warner) *Resolver {
	return &Resolver{
		fs:     fs,
		glob:   glob,
		warner: warner,
	}
}

// FilepathGlob expands pattern against the OS filesystem, with ** support
func FilepathGlob(pattern string) ([]string, error) {
	return doublestar.FilepathGlob(pattern)
}

// 🔍 Resolve expands args and pairs each file with its output path.
// A nil error with an empty slice means nothing matched.
func (r *Resolver) Resolve(ctx context.Context, args []string, prefix string) ([]FilePair, error) {
	logger := zerolog.Ctx(ctx)

	var pairs []FilePair
	var common []string
	seen := make(map[string]struct{})

	for _, arg := range args {
		matches, err := r.glob(arg)
		if err != nil {
			r.warn(fmt.Sprintf("skipping %q: %v", arg, err))
			continue
		}
		if len(matches) == 0 {
			r.warn(fmt.Sprintf("no files match %q", arg))
			continue
		}

		for _, match := range matches {
			info, err := r.fs.Stat(match)
			if err != nil {
				r.warn(fmt.Sprintf("skipping %s: does not exist", match))
				continue
			}
			if !info.Mode().IsRegular() {
				r.warn(fmt.Sprintf("skipping %s: not a regular file", match))
				continue
			}

			abs, err := filepath.Abs(match)
			if err != nil {
				return nil, errors.Errorf("getting absolute path of %s: %w", match, err)
			}
			if _, dup := seen[abs]; dup {
				continue
			}
			seen[abs] = struct{}{}

			segments := splitDir(filepath.Dir(abs))
			if len(pairs) == 0 {
				common = segments
			} else {
				common = sharedPrefix(common, segments)
			}

			pairs = append(pairs, FilePair{Input: match, Abs: abs})
		}
	}

	commonDir := joinDir(common)
	for i := range pairs {
		if prefix == "" {
			pairs[i].Output = pairs[i].Input
		} else {
			pairs[i].Output = OutputPath(prefix, commonDir, pairs[i].Abs)
		}
	}

	logger.Debug().
		Int("files", len(pairs)).
		Str("common_dir", commonDir).
		Str("prefix", prefix).
		Msg("resolved input files")

	return pairs, nil
}

// CommonDir returns the deepest directory containing every one of the absolute paths
func CommonDir(paths []string) string {
	var common []string
	for i, p := range paths {
		segments := splitDir(filepath.Dir(p))
		if i == 0 {
			common = segments
			continue
		}
		common = sharedPrefix(common, segments)
	}
	return joinDir(common)
}

// OutputPath strips commonDir from abs and prepends prefix.
// The prefix is concatenated as is, so "out/" yields a directory and "bak_" a name prefix.
func OutputPath(prefix, commonDir, abs string) string {
	rel := strings.TrimPrefix(abs, commonDir)
	rel = strings.TrimLeft(rel, string(filepath.Separator))
	return prefix + rel
}

func (r *Resolver) warn(msg string) {
	if r.warner != nil {
		r.warner.Warning(msg)
	}
}

func splitDir(dir string) []string {
	return strings.Split(filepath.Clean(dir), string(filepath.Separator))
}

func joinDir(segments []string) string {
	if len(segments) == 1 && segments[0] == "" {
		return string(filepath.Separator)
	}
	return strings.Join(segments, string(filepath.Separator))
}

func sharedPrefix(a, b []string) []string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}
