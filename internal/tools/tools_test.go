package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dispatch(t *testing.T, r *Registry, name string, args map[string]any) Result {
	t.Helper()
	res, err := r.Dispatch(context.Background(), name, args)
	require.NoError(t, err)
	return res
}

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewDefaultRegistry(ShellOptions{})
	require.NoError(t, err)
	return r
}

func TestListTool(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	r := newRegistry(t)

	res := dispatch(t, r, "list", map[string]any{"path": dir})
	assert.False(t, res.IsError)
	assert.Equal(t, "a.txt\nb.txt\nsub/", res.Content)

	res = dispatch(t, r, "list", map[string]any{"path": filepath.Join(dir, "missing")})
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content, "Error executing list")

	res = dispatch(t, r, "list", map[string]any{"path": filepath.Join(dir, "a.txt")})
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content, "is not a directory")
}

func TestReadTool_Missing(t *testing.T) {
	r := newRegistry(t)

	res := dispatch(t, r, "read", map[string]any{"path": filepath.Join(t.TempDir(), "missing.txt")})
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content, "failed to access file")
}

func TestReadTool_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("line one\nline two\n"), 0644))

	r := newRegistry(t)
	first := dispatch(t, r, "read", map[string]any{"path": path})
	second := dispatch(t, r, "read", map[string]any{"path": path})

	assert.Equal(t, first, second)
	assert.Equal(t, "line one\nline two\n", first.Content)
}

func TestReadTool_RejectsDirectoryAndBinary(t *testing.T) {
	dir := t.TempDir()
	binary := filepath.Join(dir, "blob.bin")
	require.NoError(t, os.WriteFile(binary, []byte{0xff, 0xfe, 0x00, 0x81}, 0644))

	r := newRegistry(t)

	res := dispatch(t, r, "read", map[string]any{"path": dir})
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content, "directory")

	res = dispatch(t, r, "read", map[string]any{"path": binary})
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content, "not a text file")
}

func TestWriteThenRead_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "out.txt")
	content := "héllo\r\n\twörld\n\n  trailing spaces  "

	r := newRegistry(t)

	res := dispatch(t, r, "write", map[string]any{"path": path, "content": content})
	require.False(t, res.IsError, res.Content)
	assert.Contains(t, res.Content, "File written to")

	res = dispatch(t, r, "read", map[string]any{"path": path})
	require.False(t, res.IsError, res.Content)
	assert.Equal(t, content, res.Content)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte(content), raw)
}

func TestWriteTool_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("old content that is longer"), 0644))

	r := newRegistry(t)
	dispatch(t, r, "write", map[string]any{"path": path, "content": "new"})

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(raw))
}

func TestWriteTool_MissingArgument(t *testing.T) {
	r := newRegistry(t)
	res := dispatch(t, r, "write", map[string]any{"path": filepath.Join(t.TempDir(), "x")})
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content, "missing required field")
}

func TestWriteTool_Explain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	tool := NewWriteTool()

	assert.Contains(t, tool.Explain(map[string]any{"path": path, "content": "abc"}), "Will create")

	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\n"), 0644))
	explanation := tool.Explain(map[string]any{"path": path, "content": "one\nthree\n"})
	assert.Contains(t, explanation, "- two")
	assert.Contains(t, explanation, "+ three")
	assert.Contains(t, explanation, "  one")

	assert.Contains(t, tool.Explain(map[string]any{"path": path, "content": "one\ntwo\n"}), "unchanged")
}

func TestShellTool(t *testing.T) {
	r := newRegistry(t)

	tests := []struct {
		name    string
		command string
		want    string
		isError bool
	}{
		{
			name:    "stdout only",
			command: "printf hello",
			want:    "hello",
		},
		{
			name:    "stderr is labelled before stdout",
			command: "printf out; printf err >&2",
			want:    "STDERR:\nerr\nSTDOUT:\nout",
		},
		{
			name:    "non-zero exit keeps output",
			command: "printf partial; exit 3",
			want:    "partial\nExit code: 3",
		},
		{
			name:    "empty command",
			command: "",
			want:    "Error executing run: command is empty",
			isError: true,
		},
		{
			name:    "blank command",
			command: "   ",
			want:    "Error executing run: command is empty",
			isError: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := dispatch(t, r, "run", map[string]any{"command": tc.command})
			assert.Equal(t, tc.want, res.Content)
			assert.Equal(t, tc.isError, res.IsError)
		})
	}
}

func TestShellTool_DrainsLargeOutputOnBothStreams(t *testing.T) {
	r := newRegistry(t)

	// well past a pipe buffer on each stream
	command := "i=0; while [ $i -lt 20000 ]; do echo outoutoutoutoutout; echo errerrerrerrerr >&2; i=$((i+1)); done"

	done := make(chan Result, 1)
	go func() {
		res, _ := r.Dispatch(context.Background(), "run", map[string]any{"command": command})
		done <- res
	}()

	select {
	case res := <-done:
		require.True(t, strings.HasPrefix(res.Content, "STDERR:\n"))
		assert.Equal(t, 20000, strings.Count(res.Content, "outoutoutoutoutout"))
		assert.Equal(t, 20000, strings.Count(res.Content, "errerrerrerrerr"))
	case <-time.After(30 * time.Second):
		t.Fatal("run tool deadlocked on full pipes")
	}
}

func TestShellTool_Timeout(t *testing.T) {
	tool := NewShellTool(ShellOptions{Timeout: 200 * time.Millisecond})

	tests := []struct {
		name    string
		command string
	}{
		{name: "single command", command: "sleep 5"},
		{name: "shell keeps a child", command: "printf started; sleep 5; echo done"},
		{name: "background child holds the pipes", command: "sleep 5 & wait"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			start := time.Now()
			out, err := tool.Execute(context.Background(), map[string]any{"command": tc.command})
			elapsed := time.Since(start)

			require.NoError(t, err)
			assert.Contains(t, out, "Command timed out after 200ms")
			assert.NotContains(t, out, "done")
			assert.Less(t, elapsed, 3*time.Second)
		})
	}
}

func TestShellTool_SpawnFailure(t *testing.T) {
	tool := NewShellTool(ShellOptions{Shell: filepath.Join(t.TempDir(), "no-such-shell")})

	_, err := tool.Execute(context.Background(), map[string]any{"command": "true"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "starting command")
}
