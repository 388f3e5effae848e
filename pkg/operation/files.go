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
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/resub/pkg/text"
)

// 💾 fileManager performs every filesystem access a transform needs
type fileManager struct {
	fs afero.Fs
}

func (m *fileManager) stat(path string) (os.FileInfo, error) {
	info, err := m.fs.Stat(path)
	if err != nil {
		return nil, errors.Errorf("stat %s: %w", path, err)
	}
	return info, nil
}

func (m *fileManager) exists(path string) bool {
	ok, err := afero.Exists(m.fs, path)
	return err == nil && ok
}

// read loads path and, when pattern is non-nil, substitutes its content
func (m *fileManager) read(ctx context.Context, path string, pattern *text.Pattern) (*text.ReplacementResult, error) {
	f, err := m.fs.Open(path)
	if err != nil {
		return nil, errors.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if pattern != nil {
		return text.ReplaceText(ctx, f, pattern)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", path, err)
	}
	return &text.ReplacementResult{
		OriginalContent: content,
		ModifiedContent: content,
	}, nil
}

// ensureDir creates dir and any missing parents. created is false when dir already existed.
func (m *fileManager) ensureDir(ctx context.Context, dir string) (created bool, err error) {
	if dir == "" || dir == "." {
		return false, nil
	}
	if ok, err := afero.DirExists(m.fs, dir); err == nil && ok {
		return false, nil
	}
	if err := m.fs.MkdirAll(dir, 0755); err != nil {
		return false, errors.Errorf("creating directory %s: %w", dir, err)
	}
	zerolog.Ctx(ctx).Debug().Str("dir", dir).Msg("created directory")
	return true, nil
}

// writeFile replaces path with content. A destination that did not exist
// before the call is removed again when the write fails.
func (m *fileManager) writeFile(path string, content []byte, mode os.FileMode) (err error) {
	existed := m.exists(path)

	f, err := m.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return errors.Errorf("opening destination: %w", err)
	}

	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Errorf("closing destination: %w", cerr)
		}
		if err != nil && !existed {
			_ = m.fs.Remove(path)
		}
	}()

	if _, err = f.Write(content); err != nil {
		return errors.Errorf("writing destination: %w", err)
	}
	return nil
}

func (m *fileManager) chmod(path string, mode os.FileMode) error {
	if err := m.fs.Chmod(path, mode.Perm()); err != nil {
		return errors.Errorf("restoring permissions: %w", err)
	}
	return nil
}

func (m *fileManager) remove(path string) error {
	if err := m.fs.Remove(path); err != nil {
		return errors.Errorf("removing %s: %w", path, err)
	}
	return nil
}

// sameFile reports whether a and b name the same file on disk, as they do
// when a rename only changes letter case on a case-insensitive filesystem
func (m *fileManager) sameFile(a, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	ai, err := m.fs.Stat(a)
	if err != nil {
		return false
	}
	bi, err := m.fs.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}
