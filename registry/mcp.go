package registry

import (
	"context"
	"sort"
	"strings"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prashantdagar001/automation-api/config"
	"github.com/prashantdagar001/automation-api/errors"
	"github.com/prashantdagar001/automation-api/internal/mylog"
	"github.com/samber/lo"
)

type (
	// MCPModule imports the tools of one MCP server as registerable
	// functions. It is the replacement for dynamic module import: the
	// server advertises its tools and each becomes a Function whose Call
	// forwards the invocation over the MCP client.
	MCPModule struct {
		name      string
		client    *mcpclient.Client
		functions []Function
	}

	mcpFunction struct {
		serverName string
		client     *mcpclient.Client
		tool       mcp.Tool
	}
)

var (
	_ Module   = (*MCPModule)(nil)
	_ Function = (*mcpFunction)(nil)
)

func NewMCPModule(ctx context.Context, name string, server config.MCPServer, logger *mylog.Logger) (*MCPModule, error) {
	client, err := newMCPClient(server)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrImportFailure, "failed to create MCP client %s: %v", name, err)
	}

	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    "automation-api",
		Version: "1.0.0",
	}
	if err := client.Start(ctx); err != nil {
		return nil, errors.Wrapf(errors.ErrImportFailure, "failed to start MCP client %s: %v", name, err)
	}
	if _, err := client.Initialize(ctx, initRequest); err != nil {
		return nil, errors.Wrapf(errors.ErrImportFailure, "failed to initialize MCP client %s: %v", name, err)
	}

	listToolsResult, err := client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrImportFailure, "failed to list tools of %s: %v", name, err)
	}

	module := &MCPModule{name: name, client: client}
	for _, tool := range listToolsResult.Tools {
		module.functions = append(module.functions, &mcpFunction{
			serverName: name,
			client:     client,
			tool:       tool,
		})
		logger.Info("imported MCP tool", "server", name, "tool", tool.Name)
	}

	return module, nil
}

func newMCPClient(server config.MCPServer) (*mcpclient.Client, error) {
	if server.URL != "" {
		return mcpclient.NewStreamableHttpClient(server.URL)
	}
	if server.Command == "" {
		return nil, errors.New("either url or command is required")
	}

	envs := lo.MapToSlice(server.Env, func(key, value string) string {
		return key + "=" + value
	})
	sort.Strings(envs)

	return mcpclient.NewStdioMCPClient(server.Command, envs, server.Args...)
}

func (m *MCPModule) Name() string          { return m.name }
func (m *MCPModule) Functions() []Function { return m.functions }

func (m *MCPModule) Close() error {
	return m.client.Close()
}

func (f *mcpFunction) Name() string        { return f.tool.Name }
func (f *mcpFunction) Description() string { return f.tool.Description }

func (f *mcpFunction) Parameters() []ParameterSpec {
	required := make(map[string]bool, len(f.tool.InputSchema.Required))
	for _, name := range f.tool.InputSchema.Required {
		required[name] = true
	}

	specs := make([]ParameterSpec, 0, len(f.tool.InputSchema.Properties))
	for name, prop := range f.tool.InputSchema.Properties {
		spec := ParameterSpec{Name: name, Required: required[name]}
		if propMap, ok := prop.(map[string]any); ok {
			if t, ok := propMap["type"].(string); ok {
				spec.Type = t
			}
			spec.Default = propMap["default"]
			if spec.Default != nil {
				spec.Required = false
			}
		}
		specs = append(specs, spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })

	return specs
}

func (f *mcpFunction) Call(ctx context.Context, params map[string]any) (any, error) {
	req := mcp.CallToolRequest{
		Request: mcp.Request{
			Method: "tools/call",
		},
	}
	req.Params.Name = f.tool.Name
	req.Params.Arguments = params

	result, err := f.client.CallTool(ctx, req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to call MCP tool %s", f.tool.Name)
	}

	text := contentToText(result.Content)
	if result.IsError {
		return nil, errors.Errorf("MCP tool %s failed: %s", f.tool.Name, text)
	}

	return text, nil
}

func contentToText(contents []mcp.Content) string {
	var sb strings.Builder
	for _, c := range contents {
		if t, ok := c.(mcp.TextContent); ok {
			sb.WriteString(t.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}
