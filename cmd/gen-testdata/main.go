// Copyright 2021 The polybook Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// gen-testdata writes a random, correctly sorted Polyglot book to
// stdout, for benchmarking against books larger than the test fixtures.
package main

import (
	"bufio"
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"github.com/spf13/cobra"

	"github.com/bpowers/polybook/internal/booktest"
)

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		var seedBytes [8]byte
		if _, err := crand.Read(seedBytes[:]); err != nil {
			panic(err)
		}
		seed = int64(binary.LittleEndian.Uint64(seedBytes[:]))
	}
	return rand.New(rand.NewSource(seed))
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	var (
		records   int
		positions int
		seed      int64
	)
	cmd := &cobra.Command{
		Use:          "gen-testdata",
		Short:        "Write a random sorted Polyglot book to stdout",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if positions <= 0 || records < 0 {
				return errors.New("need --positions > 0 and --records >= 0")
			}
			data := booktest.Encode(booktest.Random(newRand(seed), records, positions))

			w := bufio.NewWriterSize(cmd.OutOrStdout(), 4*1024*1024)
			if _, err := w.Write(data); err != nil {
				return fmt.Errorf("write: %w", err)
			}
			if err := w.Flush(); err != nil {
				return fmt.Errorf("flush: %w", err)
			}
			logger.Info("wrote book", "records", records, "positions", positions, "bytes", len(data))
			return nil
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&records, "records", 1000000, "number of records to write")
	flags.IntVar(&positions, "positions", 250000, "number of distinct position keys")
	flags.Int64Var(&seed, "seed", 0, "random seed (0 picks one)")
	return cmd
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cmd := newRootCmd(logger)
	cmd.SilenceErrors = true
	if err := cmd.Execute(); err != nil {
		logger.Error("gen-testdata failed", "err", err)
		os.Exit(1)
	}
}
