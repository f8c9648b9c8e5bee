package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hattiebot/conduit/internal/core"
)

func echoTool(name string) Tool {
	return Tool{
		Def: core.ToolDefinition{
			Name:        name,
			Description: "echoes " + name,
			InputSchema: core.Object(map[string]*core.Schema{"text": core.String("text to echo")}, "text"),
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			return name + ":" + args["text"].(string), nil
		},
	}
}

func TestNewRegistry_DuplicateNameFails(t *testing.T) {
	_, err := NewRegistry(echoTool("a"), echoTool("b"), echoTool("a"))
	require.Error(t, err)
	var dup *core.DuplicateToolError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "a", dup.Name)
}

func TestNewRegistry_RejectsEmptyNameAndNilHandler(t *testing.T) {
	_, err := NewRegistry(echoTool(""))
	require.Error(t, err)

	noHandler := echoTool("x")
	noHandler.Handler = nil
	_, err = NewRegistry(noHandler)
	require.Error(t, err)
}

func TestRegistry_LookupIsIdempotent(t *testing.T) {
	reg, err := NewRegistry(echoTool("a"), echoTool("b"))
	require.NoError(t, err)

	first, ok := reg.Lookup("a")
	require.True(t, ok)
	second, ok := reg.Lookup("a")
	require.True(t, ok)

	assert.Equal(t, first.Def.Name, second.Def.Name)
	assert.Equal(t, first.Def.Description, second.Def.Description)
	assert.Same(t, first.Def.InputSchema, second.Def.InputSchema)

	_, ok = reg.Lookup("missing")
	assert.False(t, ok)
}

func TestRegistry_DefinitionsInOrderAndCopied(t *testing.T) {
	reg, err := NewRegistry(echoTool("b"), echoTool("a"))
	require.NoError(t, err)

	defs := reg.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "b", defs[0].Name)
	assert.Equal(t, "a", defs[1].Name)

	defs[0].Name = "mutated"
	names := reg.Names()
	names[1] = "mutated"
	assert.Equal(t, []string{"b", "a"}, reg.Names())
	assert.Equal(t, "b", reg.Definitions()[0].Name)
	assert.Equal(t, 2, reg.Len())
}

func TestNewRegistry_DefaultsEmptySchema(t *testing.T) {
	tool := echoTool("bare")
	tool.Def.InputSchema = nil
	reg, err := NewRegistry(tool)
	require.NoError(t, err)
	got, _ := reg.Lookup("bare")
	require.NotNil(t, got.Def.InputSchema)
	assert.Equal(t, "object", got.Def.InputSchema.Type)
}
