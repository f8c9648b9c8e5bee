package builtin

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hattiebot/conduit/internal/config"
)

func TestRegistry_AllToolsUnique(t *testing.T) {
	reg, err := Registry(config.Tools{}, http.DefaultClient)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"get_weather",
		"generate_song",
		"search_confluence",
		"get_confluence_page",
		"generate_image",
		"get_collection",
		"search_postman_network",
		"get_workspace_collections",
		"get_all_elements_and_folders",
		"generate_tool",
	}, reg.Names())
}

func TestCatalog_SchemasCompile(t *testing.T) {
	for _, tl := range Catalog(config.Tools{}, http.DefaultClient) {
		def := tl.Def
		require.NotEmpty(t, def.Description, def.Name)
		require.Equal(t, "object", def.InputSchema.Type, def.Name)
		// Validation of an empty object only fails on required fields, never on the schema itself.
		if err := def.InputSchema.Validate(nil); err != nil {
			assert.Contains(t, err.Error(), "invalid arguments", def.Name)
		}
	}
}
