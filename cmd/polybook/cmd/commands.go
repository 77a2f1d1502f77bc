// Copyright 2021 The polybook Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package cmd

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bpowers/polybook"
)

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Summarize a book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			book, err := a.openBook(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = book.Close() }()

			stats, err := book.Stats()
			if err != nil {
				return err
			}
			digest, err := book.Digest()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "path:        %s\n", book.Path())
			fmt.Fprintf(out, "backend:     %s\n", book.Backend())
			fmt.Fprintf(out, "digest:      %016x\n", digest)
			fmt.Fprintf(out, "records:     %d\n", stats.Records)
			fmt.Fprintf(out, "positions:   %d\n", stats.Positions)
			fmt.Fprintf(out, "longest run: %d (key %016x)\n", stats.LongestRun, stats.LongestKey)
			return nil
		},
	}
}

func newProbeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <key>...",
		Short: "List the moves recorded for position keys",
		Long: `List the moves recorded for one or more position keys, with each
move's share of the total weight for its position.

Example:
  polybook probe --book performance.bin 0x463b96181691fc9c`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := make([]uint64, len(args))
			for i, arg := range args {
				k, err := parseKey(arg)
				if err != nil {
					return err
				}
				keys[i] = k
			}

			book, err := a.openBook(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = book.Close() }()

			out := cmd.OutOrStdout()
			for _, key := range keys {
				entries, err := book.Lookup(key)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%016x: %d moves\n", key, len(entries))
				var total uint64
				for _, e := range entries {
					total += uint64(e.Weight)
				}
				for _, e := range entries {
					share := 0.0
					if total > 0 {
						share = 100 * float64(e.Weight) / float64(total)
					}
					fmt.Fprintf(out, "  %-5s weight=%-5d %5.1f%% learn=%d\n", e.MoveText, e.Weight, share, e.Learn)
				}
			}
			return nil
		},
	}
}

func newDumpCmd(a *app) *cobra.Command {
	var reverse bool
	c := &cobra.Command{
		Use:   "dump",
		Short: "Print every record in the book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			book, err := a.openBook(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = book.Close() }()

			var it *polybook.Iter
			if reverse {
				it = book.ReverseIter()
			} else {
				it = book.Iter()
			}

			w := bufio.NewWriter(cmd.OutOrStdout())
			for {
				e, ok := it.Next()
				if !ok {
					break
				}
				fmt.Fprintln(w, e.String())
			}
			if err := it.Err(); err != nil {
				_ = w.Flush()
				return err
			}
			return w.Flush()
		},
	}
	c.Flags().BoolVarP(&reverse, "reverse", "r", false, "print records last to first")
	return c
}

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that a book is sorted and every record decodes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			book, err := a.openBook(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = book.Close() }()

			if err := book.Verify(); err != nil {
				return err
			}
			// decode everything, so undefined promotion codes are caught too
			if _, err := book.Stats(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d records\n", book.Len())
			return nil
		},
	}
}
