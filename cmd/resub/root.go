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

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/walteh/resub/pkg/config"
	"github.com/walteh/resub/pkg/log"
	"github.com/walteh/resub/pkg/operation"
)

// flag names double as viper keys; env vars are RESUB_ plus the name with - as _
const (
	contentsOnlyFlagName  = "contents-only"
	filenamesOnlyFlagName = "filenames-only"
	dryRunFlagName        = "dry-run"
	noWarnFlagName        = "no-warn"
	prefixFlagName        = "prefix"
	verboseFlagName       = "verbose"
	quietFlagName         = "quiet"
	literalFlagName       = "literal"
	ignoreCaseFlagName    = "ignore-case"
	dotAllFlagName        = "dotall"
	configFlagName        = "config"
	debugFlagName         = "debug"
	logFileFlagName       = "log-file"

	envPrefix = "RESUB"
)

const rootLongDescription = `resub rewrites file names and file contents with one regular expression.

The pattern uses Go regexp syntax. The replacement may refer to groups as
\1 through \99 or \g<name>. Without --prefix files are rewritten in place;
with --prefix each result is written to the prefix followed by the file's
path relative to the deepest directory containing every input.

Settings may also come from a preset file (--config, or .resub.yaml,
.resub.yml, .resub.hcl or .resub.json in the working directory) and from
RESUB_* environment variables. Flags win over the environment, which wins
over the preset.`

// 🎯 rootCommand owns the viper instance every flag is bound to
type rootCommand struct {
	v *viper.Viper
}

func newRootCmd() *cobra.Command {
	r := &rootCommand{v: viper.New()}
	r.v.SetEnvPrefix(envPrefix)
	r.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	r.v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "resub [flags] PATTERN REPLACEMENT FILE_OR_GLOB...",
		Short:         "Regex substitution across file names and contents",
		Long:          rootLongDescription,
		Version:       Version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          r.run,
	}
	cmd.SetVersionTemplate(FormatVersion())

	r.configureFlags(cmd.Flags())
	return cmd
}

func (r *rootCommand) configureFlags(flags *pflag.FlagSet) {
	flags.BoolP(contentsOnlyFlagName, "c", false, "only substitute file contents")
	flags.BoolP(filenamesOnlyFlagName, "f", false, "only substitute file names")
	flags.BoolP(dryRunFlagName, "n", false, "report what would change without writing anything")
	flags.BoolP(noWarnFlagName, "W", false, "do not warn about overwriting existing files")
	flags.StringP(prefixFlagName, "p", "", "write results under this prefix instead of in place")
	flags.CountP(verboseFlagName, "v", "print more per file (repeatable)")
	flags.BoolP(quietFlagName, "q", false, "print nothing but warnings")
	flags.BoolP(literalFlagName, "l", false, "treat the pattern and replacement as plain text")
	flags.BoolP(ignoreCaseFlagName, "i", false, "match case-insensitively")
	flags.Bool(dotAllFlagName, false, "let . match newlines")
	flags.String(configFlagName, "", "preset file (.yaml, .yml, .hcl or .json)")
	flags.Bool(debugFlagName, false, "enable debug logging")
	flags.String(logFileFlagName, "", "also write JSON logs to this rotating file")

	flags.VisitAll(func(f *pflag.Flag) {
		r.bindFlagToConfig(f, f.Name)
	})
}

// bindFlagToConfig wires a Cobra flag to a Viper key so env values feed the flag
func (r *rootCommand) bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(r.v.BindPFlag(key, flag))
}

func (r *rootCommand) run(cmd *cobra.Command, args []string) error {
	zlog, closer := r.newZerolog(cmd.ErrOrStderr())
	defer closer.Close()

	ctx := zlog.WithContext(cmd.Context())
	ctx = log.NewContext(ctx, log.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), zlog))

	opts, err := r.resolveOptions(ctx, args)
	if err != nil {
		return err
	}

	console := log.FromContext(ctx)
	if opts.DryRun && opts.Verbosity >= 1 {
		console.Header("dry run, nothing will be written")
	}

	if _, err := operation.Run(ctx, opts, console); err != nil {
		return err
	}
	return nil
}

// resolveOptions layers defaults, the preset, positional args, env and flags
func (r *rootCommand) resolveOptions(ctx context.Context, args []string) (*config.Options, error) {
	logger := zerolog.Ctx(ctx)

	opts := config.Defaults()

	path := r.v.GetString(configFlagName)
	if path == "" {
		if wd, err := os.Getwd(); err == nil {
			path = config.FindDefault(wd)
		}
	}
	if path != "" {
		loaded, err := config.Load(ctx, path)
		if err != nil {
			return nil, errors.Errorf("loading preset: %w", err)
		}
		opts = loaded
		logger.Debug().Str("preset", path).Msg("using preset")
	}

	switch {
	case len(args) == 1:
		return nil, errors.Errorf("expected PATTERN REPLACEMENT FILE_OR_GLOB..., got only %q", args[0])
	case len(args) >= 2:
		opts.Pattern, opts.Replacement = args[0], args[1]
		if len(args) > 2 {
			opts.Files = args[2:]
		}
	}

	bools := map[string]*bool{
		contentsOnlyFlagName:  &opts.ContentsOnly,
		filenamesOnlyFlagName: &opts.FilenamesOnly,
		dryRunFlagName:        &opts.DryRun,
		noWarnFlagName:        &opts.NoWarn,
		literalFlagName:       &opts.Literal,
		ignoreCaseFlagName:    &opts.IgnoreCase,
		dotAllFlagName:        &opts.DotAll,
	}
	for key, dst := range bools {
		if r.v.IsSet(key) {
			*dst = r.v.GetBool(key)
		}
	}
	if r.v.IsSet(prefixFlagName) {
		opts.Prefix = r.v.GetString(prefixFlagName)
	}

	opts.Verbosity += r.v.GetInt(verboseFlagName)
	if r.v.GetBool(quietFlagName) {
		opts.Verbosity = 0
	}

	logger.Debug().Str("options", opts.String()).Int("verbosity", opts.Verbosity).Msg("resolved options")
	return opts, nil
}

// newZerolog builds the structured logger: console output with --debug, JSON
// to a rotating file with --log-file, and nothing otherwise
func (r *rootCommand) newZerolog(stderr io.Writer) (zerolog.Logger, io.Closer) {
	var writers []io.Writer
	var closer io.Closer = nopCloser{}
	level := zerolog.InfoLevel

	if r.v.GetBool(debugFlagName) {
		writers = append(writers, zerolog.ConsoleWriter{Out: stderr})
		level = zerolog.DebugLevel
	}

	if file := r.v.GetString(logFileFlagName); file != "" {
		lj := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		writers = append(writers, lj)
		closer = lj
	}

	if len(writers) == 0 {
		return zerolog.Nop(), closer
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(level).With().Timestamp().Logger(), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
