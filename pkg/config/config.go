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

package config

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/walteh/resub/pkg/text"
)

// DefaultVerbosity prints the run summary and nothing per file
const DefaultVerbosity = 1

// DefaultFiles are the preset names looked up in the working directory, in order
var DefaultFiles = []string{".resub.yaml", ".resub.yml", ".resub.hcl", ".resub.json"}

// 🔌 Parser is the interface for preset parsers
type Parser interface {
	// 📝 Parse parses a preset from bytes
	Parse(ctx context.Context, data []byte) (*Options, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📚 Options is everything one run needs, resolved before any file is processed
type Options struct {
	Pattern       string
	Replacement   string
	Files         []string
	ContentsOnly  bool
	FilenamesOnly bool
	DryRun        bool
	NoWarn        bool
	Prefix        string
	Verbosity     int
	Literal       bool
	IgnoreCase    bool
	DotAll        bool
}

// 🏭 Defaults returns Options with every default applied
func Defaults() *Options {
	return &Options{Verbosity: DefaultVerbosity}
}

// preset is the on-disk schema shared by every parser
type preset struct {
	Pattern       *string  `json:"pattern,omitempty" yaml:"pattern,omitempty" hcl:"pattern,optional"`
	Replacement   *string  `json:"replacement,omitempty" yaml:"replacement,omitempty" hcl:"replacement,optional"`
	Files         []string `json:"files,omitempty" yaml:"files,omitempty" hcl:"files,optional"`
	ContentsOnly  *bool    `json:"contents_only,omitempty" yaml:"contents_only,omitempty" hcl:"contents_only,optional"`
	FilenamesOnly *bool    `json:"filenames_only,omitempty" yaml:"filenames_only,omitempty" hcl:"filenames_only,optional"`
	DryRun        *bool    `json:"dry_run,omitempty" yaml:"dry_run,omitempty" hcl:"dry_run,optional"`
	NoWarn        *bool    `json:"no_warn,omitempty" yaml:"no_warn,omitempty" hcl:"no_warn,optional"`
	Prefix        *string  `json:"prefix,omitempty" yaml:"prefix,omitempty" hcl:"prefix,optional"`
	Verbosity     *int     `json:"verbosity,omitempty" yaml:"verbosity,omitempty" hcl:"verbosity,optional"`
	Literal       *bool    `json:"literal,omitempty" yaml:"literal,omitempty" hcl:"literal,optional"`
	IgnoreCase    *bool    `json:"ignore_case,omitempty" yaml:"ignore_case,omitempty" hcl:"ignore_case,optional"`
	DotAll        *bool    `json:"dotall,omitempty" yaml:"dotall,omitempty" hcl:"dotall,optional"`
}

// toOptions applies the preset on top of the defaults
func (p *preset) toOptions() *Options {
	opts := Defaults()
	setString(&opts.Pattern, p.Pattern)
	setString(&opts.Replacement, p.Replacement)
	setString(&opts.Prefix, p.Prefix)
	setBool(&opts.ContentsOnly, p.ContentsOnly)
	setBool(&opts.FilenamesOnly, p.FilenamesOnly)
	setBool(&opts.DryRun, p.DryRun)
	setBool(&opts.NoWarn, p.NoWarn)
	setBool(&opts.Literal, p.Literal)
	setBool(&opts.IgnoreCase, p.IgnoreCase)
	setBool(&opts.DotAll, p.DotAll)
	if p.Verbosity != nil {
		opts.Verbosity = *p.Verbosity
	}
	if len(p.Files) > 0 {
		opts.Files = append([]string(nil), p.Files...)
	}
	return opts
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// 🎯 Load reads a preset file, choosing the parser from its name
func Load(ctx context.Context, path string) (*Options, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading preset")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading preset file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	opts, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing preset %s: %w", path, err)
	}

	return opts, nil
}

// 🔍 FindDefault returns the first default preset present in dir, or "" when there is none
func FindDefault(dir string) string {
	for _, name := range DefaultFiles {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path
		}
	}
	return ""
}

// 🔍 Validate checks that the options describe a runnable invocation
func (o *Options) Validate() error {
	if o.Pattern == "" {
		return errors.Errorf("pattern is required")
	}
	if len(o.Files) == 0 {
		return errors.Errorf("at least one file or glob is required")
	}
	if o.Verbosity < 0 {
		return errors.Errorf("verbosity must not be negative, got %d", o.Verbosity)
	}
	return nil
}

// CompileOptions returns the pattern flags for text.Compile
func (o *Options) CompileOptions() text.CompileOptions {
	return text.CompileOptions{
		Literal:    o.Literal,
		IgnoreCase: o.IgnoreCase,
		DotAll:     o.DotAll,
	}
}

// 📝 String returns a one-line representation of the options
func (o *Options) String() string {
	mode := "names+contents"
	switch {
	case o.ContentsOnly && o.FilenamesOnly:
		mode = "none"
	case o.ContentsOnly:
		mode = "contents"
	case o.FilenamesOnly:
		mode = "names"
	}
	out := "in-place"
	if o.Prefix != "" {
		out = "prefix " + o.Prefix
	}
	return fmt.Sprintf("s/%s/%s/ on %d args (%s, %s, dry-run=%t)", o.Pattern, o.Replacement, len(o.Files), mode, out, o.DryRun)
}

// 🔧 YAMLParser implements the Parser interface for YAML files
type YAMLParser struct{}

func init() {
	Register(&YAMLParser{})
}

func (p *YAMLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml")
}

func (p *YAMLParser) Parse(ctx context.Context, data []byte) (*Options, error) {
	var pre preset
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&pre); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return pre.toOptions(), nil
}
