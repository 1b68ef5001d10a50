// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestFlags(t *testing.T) {
	chk := require.New(t)
	out, err := run(t, "--tasks", "500", "--workers", "2", "--pool", "fast", "--top", "1")
	chk.NoError(err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	chk.Len(lines, 3)
	chk.Contains(lines[0], "fast")
	chk.Contains(lines[0], "workers=2")
	chk.Contains(lines[0], "tasks=500")
	chk.Contains(lines[1], "stolen=")
	chk.Contains(lines[2], "task ")
}

func TestEnvironment(t *testing.T) {
	chk := require.New(t)
	t.Setenv("WSPBENCH_POOL", "naive")
	t.Setenv("WSPBENCH_WORK_ITERATIONS", "5")
	out, err := run(t, "--tasks", "100", "--workers", "1")
	chk.NoError(err)
	chk.True(strings.HasPrefix(out, "naive "))
	chk.NotContains(out, "fast")
}

func TestFlagBeatsEnvironment(t *testing.T) {
	chk := require.New(t)
	t.Setenv("WSPBENCH_POOL", "naive")
	out, err := run(t, "--tasks", "100", "--workers", "1", "--pool", "priority")
	chk.NoError(err)
	chk.True(strings.HasPrefix(out, "priority "))
}

func TestConfigFile(t *testing.T) {
	chk := require.New(t)
	path := filepath.Join(t.TempDir(), "bench.toml")
	chk.NoError(os.WriteFile(path, []byte("pool = \"fast\"\ntasks = 50\nworkers = 2\n"), 0o644))

	out, err := run(t, "--config", path)
	chk.NoError(err)
	chk.True(strings.HasPrefix(out, "fast "))
	chk.Contains(out, "tasks=50 ")

	chk.NoError(os.WriteFile(path, []byte("bogus = 1\n"), 0o644))
	_, err = run(t, "--config", path)
	chk.ErrorContains(err, "invalid option in configuration file: bogus")
}

func TestInvalidInput(t *testing.T) {
	_, err := run(t, "--tasks", "10", "--pool", "slow")
	require.ErrorContains(t, err, `unknown pool kind "slow"`)

	_, err = run(t, "--tasks", "10", "--log-level", "loud")
	require.Error(t, err)
}
