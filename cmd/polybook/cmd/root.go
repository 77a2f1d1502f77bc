// Copyright 2021 The polybook Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bpowers/polybook"
)

// Config is the CLI configuration, read from flags, POLYBOOK_*
// environment variables and an optional polybook.yaml.
type Config struct {
	Book     string `mapstructure:"book"`
	Backend  string `mapstructure:"backend"`
	LogLevel string `mapstructure:"log-level"`
}

type app struct {
	v *viper.Viper
}

// NewRootCmd builds the command tree.  Each call gets its own viper
// instance, so commands can be built repeatedly in tests.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "polybook",
		Short: "Inspect Polyglot opening books",
		Long: `polybook reads Polyglot (.bin) opening books: it looks up the moves
recorded for a position key, dumps or verifies whole books, and
summarizes them.  Books compressed with zstd (.zst) or lz4 (.lz4)
are read transparently.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			return a.loadConfig(configPath)
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default: ./polybook.yaml if present)")
	flags.StringP("book", "b", "", "path to the opening book")
	flags.String("backend", "auto", "how to read the book: auto, mmap, file or memory")
	flags.String("log-level", "warn", "log level: debug, info, warn or error")
	for _, name := range []string{"book", "backend", "log-level"} {
		_ = a.v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(
		newInfoCmd(a),
		newProbeCmd(a),
		newDumpCmd(a),
		newVerifyCmd(a),
	)
	return root
}

// Execute runs the root command.  It is called by main.main.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) loadConfig(configPath string) error {
	v := a.v
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("polybook")
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix("polybook")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

func (a *app) config() (Config, error) {
	var c Config
	if err := a.v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return c, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("bad log level %q: %w", s, err)
	}
	return level, nil
}

// openBook opens the configured book, logging to w.
func (a *app) openBook(w io.Writer) (*polybook.Book, error) {
	c, err := a.config()
	if err != nil {
		return nil, err
	}
	if c.Book == "" {
		return nil, errors.New("no book given: use --book or POLYBOOK_BOOK")
	}
	backend, err := polybook.ParseBackend(c.Backend)
	if err != nil {
		return nil, err
	}
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	return polybook.Open(c.Book, polybook.WithBackend(backend), polybook.WithLogger(logger))
}

// parseKey accepts decimal or 0x-prefixed hex keys.  A bare key is read
// as hex only if it has a digit in a-f, the way keys print in dumps;
// otherwise it is decimal.
func parseKey(s string) (uint64, error) {
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "0x") && strings.ContainsAny(lower, "abcdef") {
		k, err := strconv.ParseUint(s, 16, 64)
		if err != nil {
			return 0, fmt.Errorf("bad key %q: %w", s, err)
		}
		return k, nil
	}
	k, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("bad key %q: %w", s, err)
	}
	return k, nil
}
