package registry

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prashantdagar001/automation-api/config"
	"github.com/stretchr/testify/require"
)

func TestNewMCPClientRequiresTarget(t *testing.T) {
	_, err := newMCPClient(config.MCPServer{})
	require.Error(t, err)
}

func TestNewMCPClientStreamableHTTP(t *testing.T) {
	// Construction only; nothing is dialed until Start.
	client, err := newMCPClient(config.MCPServer{URL: "http://localhost:1/mcp"})
	require.NoError(t, err)
	require.NotNil(t, client)
	require.NoError(t, client.Close())
}

func TestMCPFunctionParameters(t *testing.T) {
	fn := &mcpFunction{
		serverName: "filesystem",
		tool: mcp.Tool{
			Name:        "read_file",
			Description: "Read a file from disk.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"path":     map[string]any{"type": "string"},
					"encoding": map[string]any{"type": "string", "default": "utf-8"},
					"offset":   map[string]any{"type": "integer"},
				},
				Required: []string{"path", "encoding"},
			},
		},
	}

	require.Equal(t, "read_file", fn.Name())
	require.Equal(t, "Read a file from disk.", fn.Description())

	specs := fn.Parameters()
	require.Len(t, specs, 3)

	// Sorted by name; a declared default clears the required flag.
	require.Equal(t, "encoding", specs[0].Name)
	require.Equal(t, "utf-8", specs[0].Default)
	require.False(t, specs[0].Required)

	require.Equal(t, "offset", specs[1].Name)
	require.Equal(t, "integer", specs[1].Type)
	require.False(t, specs[1].Required)

	require.Equal(t, "path", specs[2].Name)
	require.True(t, specs[2].Required)
}

func TestContentToText(t *testing.T) {
	text := contentToText([]mcp.Content{
		mcp.TextContent{Type: "text", Text: "  hello"},
		mcp.TextContent{Type: "text", Text: " world  "},
	})
	require.Equal(t, "hello world", text)
}
