package postman

import (
	"context"
	"errors"

	"github.com/hattiebot/conduit/internal/core"
	"github.com/hattiebot/conduit/internal/tools"
)

type toolgenConfig struct {
	Language       string `json:"language"`
	AgentFramework string `json:"agentFramework"`
}

type toolgenInput struct {
	CollectionID string        `json:"collectionId"`
	RequestID    string        `json:"requestId"`
	Config       toolgenConfig `json:"config"`
}

type toolgenResponse struct {
	Data *struct {
		Text string `json:"text"`
	} `json:"data"`
}

func (c *client) toolgenTool() tools.Tool {
	cfgSchema := core.Object(map[string]*core.Schema{
		"language":       core.Enum("The programming language to use for the generated request.", "javascript", "typescript"),
		"agentFramework": core.Enum("The AI agent framework to use.", "openai", "mistral", "gemini", "anthropic", "langchain", "autogen"),
	}, "language", "agentFramework")
	cfgSchema.Description = "Generation settings."

	return tools.Tool{
		Def: core.ToolDefinition{
			Name:        "generate_tool",
			Description: "Generates code for an AI agent tool using a collection and request from the Public API Network.",
			InputSchema: core.Object(map[string]*core.Schema{
				"collectionId": core.String("The Public API Network collection's UID, example format: 24483689-91984890-1198-4573-8c9f-a66db81927de"),
				"requestId":    core.String("The public request UID, example format: 41094746-ab513ced-796f-4b08-946e-bef868534d10"),
				"config":       cfgSchema,
			}, "collectionId", "requestId", "config"),
		},
		Handler: c.generateTool,
	}
}

func (c *client) generateTool(ctx context.Context, args map[string]any) (string, error) {
	in, err := tools.Decode[toolgenInput](args)
	if err != nil {
		return "", err
	}
	if err := c.requireKey(); err != nil {
		return "", err
	}
	var resp toolgenResponse
	if err := c.api.Post(ctx, "/postbot/generations/tool", in, &resp); err != nil {
		return "", describe(err)
	}
	if resp.Data == nil {
		return "", errors.New("postman: generation response has no data")
	}
	return "Generated tool code:\n\n" + resp.Data.Text, nil
}
