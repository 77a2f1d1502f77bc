// Copyright 2021 The polybook Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/polybook/internal/booktest"
	"github.com/bpowers/polybook/internal/entry"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func testBook(t *testing.T) string {
	t.Helper()
	return booktest.WriteBook(t, []booktest.Record{
		{Key: 0x10, Move: entry.NewMove(4, 1, 4, 3, entry.NoPiece), Weight: 3, Learn: 1},
		{Key: 0x10, Move: entry.NewMove(3, 1, 3, 3, entry.NoPiece), Weight: 1},
		{Key: 0x20, Move: entry.NewMove(4, 6, 4, 7, entry.Queen), Weight: 9},
	})
}

func TestProbe(t *testing.T) {
	path := testBook(t)

	out, err := run(t, "probe", "--book", path, "0x10", "32", "0x30")
	require.NoError(t, err)
	assert.Contains(t, out, "0000000000000010: 2 moves")
	assert.Contains(t, out, "e2e4")
	assert.Contains(t, out, "75.0%")
	assert.Contains(t, out, "d2d4")
	assert.Contains(t, out, "0000000000000020: 1 moves")
	assert.Contains(t, out, "e7e8q")
	assert.Contains(t, out, "0000000000000030: 0 moves")

	_, err = run(t, "probe", "--book", path, "not-a-key")
	assert.Error(t, err)
}

func TestDump(t *testing.T) {
	path := testBook(t)

	out, err := run(t, "dump", "--book", path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "0000000000000010 e2e4"))
	assert.True(t, strings.HasPrefix(lines[2], "0000000000000020 e7e8q"))

	out, err = run(t, "dump", "--reverse", "--book", path)
	require.NoError(t, err)
	reversed := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, reversed, 3)
	assert.Equal(t, lines[0], reversed[2])
	assert.Equal(t, lines[2], reversed[0])
}

func TestInfoAndVerify(t *testing.T) {
	path := testBook(t)

	out, err := run(t, "info", "--book", path, "--backend", "file")
	require.NoError(t, err)
	assert.Contains(t, out, "backend:     file")
	assert.Contains(t, out, "records:     3")
	assert.Contains(t, out, "positions:   2")

	out, err = run(t, "verify", "--book", path)
	require.NoError(t, err)
	assert.Equal(t, "ok: 3 records\n", out)

	unsorted := booktest.WriteBook(t, booktest.Keys(3, 2, 1))
	_, err = run(t, "verify", "--book", unsorted)
	assert.Error(t, err)
}

func TestConfigSources(t *testing.T) {
	path := testBook(t)

	// environment
	t.Setenv("POLYBOOK_BOOK", path)
	out, err := run(t, "verify")
	require.NoError(t, err)
	assert.Equal(t, "ok: 3 records\n", out)

	// config file
	t.Setenv("POLYBOOK_BOOK", "")
	cfg := filepath.Join(t.TempDir(), "polybook.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("book: "+path+"\nbackend: memory\n"), 0644))
	out, err = run(t, "info", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "backend:     memory")

	_, err = run(t, "info", "--book", path, "--backend", "tape")
	assert.Error(t, err)
	_, err = run(t, "info", "--book", path, "--log-level", "loud")
	assert.Error(t, err)
}

func TestMissingBook(t *testing.T) {
	_, err := run(t, "info")
	assert.Error(t, err)

	_, err = run(t, "info", "--book", filepath.Join(t.TempDir(), "nope.bin"))
	assert.Error(t, err)
}

func TestParseKey(t *testing.T) {
	for s, expected := range map[string]uint64{
		"16":                 16,
		"0x10":               16,
		"463b96181691fc9c":   0x463b96181691fc9c,
		"0x463b96181691fc9c": 0x463b96181691fc9c,
		"0X463B96181691FC9C": 0x463b96181691fc9c,
		"463B96181691FC9C":   0x463b96181691fc9c,
		"1000000000000000":   1000000000000000,
		"0x1000000000000000": 0x1000000000000000,
	} {
		k, err := parseKey(s)
		require.NoError(t, err, s)
		assert.Equal(t, expected, k, s)
	}
	for _, s := range []string{"zz", "", "abcdefg", "-1"} {
		_, err := parseKey(s)
		assert.Error(t, err, s)
	}
}
