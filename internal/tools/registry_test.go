package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recrsn/nanocoder/internal/schema"
)

// stubTool is a configurable Tool for registry tests
type stubTool struct {
	name    string
	execute func(args map[string]any) (string, error)
}

func (s *stubTool) Descriptor() Descriptor {
	return Descriptor{
		Name:        s.name,
		Description: "stub " + s.name,
		InputSchema: schema.Object(map[string]schema.Property{
			"value": schema.String("anything"),
		}),
	}
}

func (s *stubTool) Execute(_ context.Context, args map[string]any) (string, error) {
	return s.execute(args)
}

func echoTool(name string) *stubTool {
	return &stubTool{name: name, execute: func(args map[string]any) (string, error) {
		v, _ := args["value"].(string)
		return name + ":" + v, nil
	}}
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("a")))

	err := r.Register(echoTool("a"))
	var dup *DuplicateToolError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "a", dup.Name)
}

func TestRegistry_RegisterRejectsEmptyName(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register(echoTool("")))
	assert.Error(t, r.Register(nil))
}

func TestRegistry_SchemasSealRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("b")))
	require.NoError(t, r.Register(echoTool("a")))

	schemas := r.Schemas()
	require.Len(t, schemas, 2)
	assert.Equal(t, "a", schemas[0].Name)
	assert.Equal(t, "b", schemas[1].Name)
	assert.Equal(t, "stub a", schemas[0].Description)

	assert.ErrorIs(t, r.Register(echoTool("c")), ErrRegistrySealed)

	// callers cannot mutate the published set
	schemas[0].Name = "changed"
	assert.Equal(t, "a", r.Schemas()[0].Name)
}

func TestRegistry_SchemaNamesMatchDispatchKeys(t *testing.T) {
	r, err := NewDefaultRegistry(ShellOptions{})
	require.NoError(t, err)

	var names []string
	for _, s := range r.Schemas() {
		names = append(names, s.Name)
	}
	assert.Equal(t, r.Names(), names)
	assert.Equal(t, []string{"list", "read", "run", "write"}, names)
}

func TestRegistry_DispatchUnknownTool(t *testing.T) {
	r := NewRegistry()

	_, err := r.Dispatch(context.Background(), "nope", nil)
	var unknown *UnknownToolError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "Unknown tool: nope", ToolResultContent(err))
}

func TestRegistry_Dispatch(t *testing.T) {
	failing := &stubTool{name: "fail", execute: func(map[string]any) (string, error) {
		return "", errors.New("disk on fire")
	}}
	panicking := &stubTool{name: "panic", execute: func(map[string]any) (string, error) {
		panic("boom")
	}}

	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo")))
	require.NoError(t, r.Register(failing))
	require.NoError(t, r.Register(panicking))

	tests := []struct {
		name    string
		tool    string
		args    map[string]any
		want    string
		isError bool
	}{
		{
			name: "success",
			tool: "echo",
			args: map[string]any{"value": "hi"},
			want: "echo:hi",
		},
		{
			name:    "tool error becomes content",
			tool:    "fail",
			args:    map[string]any{},
			want:    "Error executing fail: disk on fire",
			isError: true,
		},
		{
			name:    "panic becomes content",
			tool:    "panic",
			args:    map[string]any{},
			want:    "Error executing panic: panic: boom",
			isError: true,
		},
		{
			name:    "schema violation becomes content",
			tool:    "echo",
			args:    map[string]any{"value": 42.0},
			want:    `Error executing echo: invalid argument "value": must be a string`,
			isError: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := r.Dispatch(context.Background(), tc.tool, tc.args)
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.Content)
			assert.Equal(t, tc.isError, res.IsError)
		})
	}
}

func TestRegistry_Explain(t *testing.T) {
	r, err := NewDefaultRegistry(ShellOptions{})
	require.NoError(t, err)

	assert.Equal(t, "Shell(ls)", r.Explain("run", map[string]any{"command": "ls"}))
	assert.Empty(t, r.Explain("list", map[string]any{"path": "."}))
	assert.Empty(t, r.Explain("missing", nil))
}
