package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLogs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	logs := map[string]string{
		"a.log":        "1 INFO a\n4 ERROR a\n",
		"b.log":        "2 ERROR b\n5 INFO b\n",
		"nested/c.log": "3 INFO c\n6 ERROR c\n",
	}
	for name, content := range logs {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}

func TestRun(t *testing.T) {
	dir := writeLogs(t)
	tmp := filepath.Join(t.TempDir(), "tmp")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "glob",
			args: []string{filepath.Join(dir, "**", "*.log")},
			want: "1 INFO a\n2 ERROR b\n3 INFO c\n4 ERROR a\n5 INFO b\n6 ERROR c\n",
		},
		{
			name: "grep",
			args: []string{"--grep", "ERROR", filepath.Join(dir, "**", "*.log")},
			want: "2 ERROR b\n4 ERROR a\n6 ERROR c\n",
		},
		{
			name: "inverted grep",
			args: []string{"--grep", "ERROR", "--invert", filepath.Join(dir, "*.log")},
			want: "1 INFO a\n5 INFO b\n",
		},
		{
			name: "tournament with compression",
			args: []string{"--strategy", "tournament", "--compress", "zstd", "--ordinal", filepath.Join(dir, "**", "*.log")},
			want: "1 INFO a\n2 ERROR b\n3 INFO c\n4 ERROR a\n5 INFO b\n6 ERROR c\n",
		},
		{
			name: "duplicates are merged once",
			args: []string{filepath.Join(dir, "a.log"), filepath.Join(dir, "a.log")},
			want: "1 INFO a\n4 ERROR a\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			args := append([]string{"--temp-dir", tmp}, tt.args...)

			code := run(context.Background(), args, &stdout, &stderr)
			require.Equal(t, 0, code, stderr.String())
			assert.Equal(t, tt.want, stdout.String())
		})
	}
}

func TestRun_OutputFileAndProgress(t *testing.T) {
	dir := writeLogs(t)
	out := filepath.Join(t.TempDir(), "merged.log")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"--temp-dir", filepath.Join(t.TempDir(), "tmp"),
		"--progress",
		"-o", out,
		filepath.Join(dir, "**", "*.log"),
	}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	assert.Empty(t, stdout.String())
	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(got)), "\n"), 6)
	assert.Contains(t, stderr.String(), "progress:  50%")
	assert.Contains(t, stderr.String(), "progress: 100%")
}

func TestRun_TempDirFromEnvironment(t *testing.T) {
	dir := writeLogs(t)
	tmp := filepath.Join(t.TempDir(), "from-env")
	t.Setenv("XMERGE_TEMP_DIR", tmp)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{filepath.Join(dir, "*.log")}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.DirExists(t, tmp)
}

func TestRun_Errors(t *testing.T) {
	dir := writeLogs(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "no files", args: nil},
		{name: "unknown strategy", args: []string{"--strategy", "bubble", filepath.Join(dir, "a.log")}},
		{name: "bad log level", args: []string{"--log-level", "loud", filepath.Join(dir, "a.log")}},
		{name: "bad regexp", args: []string{"--grep", "(", filepath.Join(dir, "a.log")}},
		{name: "missing file", args: []string{filepath.Join(dir, "missing.log"), filepath.Join(dir, "a.log")}},
		{name: "glob without matches", args: []string{filepath.Join(dir, "*.txt")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			args := append([]string{"--temp-dir", filepath.Join(t.TempDir(), "tmp")}, tt.args...)
			assert.Equal(t, 1, run(context.Background(), args, &stdout, &stderr))
			assert.NotEmpty(t, stderr.String())
		})
	}
}

func TestRun_Help(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, run(context.Background(), []string{"--help"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "--temp-dir")
}

func TestExpand(t *testing.T) {
	dir := writeLogs(t)

	files, err := expand([]string{
		filepath.Join(dir, "b.log"),
		filepath.Join(dir, "**", "*.log"),
		filepath.Join(dir, "plain.log"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "b.log"),
		filepath.Join(dir, "a.log"),
		filepath.Join(dir, "nested", "c.log"),
		filepath.Join(dir, "plain.log"),
	}, files)
}
