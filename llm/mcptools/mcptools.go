// Package mcptools launches MCP servers as stdio subprocesses and exposes
// their tools to eino agents.
package mcptools

import (
	"context"
	"errors"
	"fmt"
	"time"

	einomcp "github.com/cloudwego/eino-ext/components/tool/mcp"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"newsletter-agent/config"
	"newsletter-agent/logging"
)

const defaultCallTimeout = 30 * time.Second

// ServerConfig describes one MCP server subprocess.
type ServerConfig struct {
	Name    string
	Command string
	Args    []string
	// Env is appended to the parent environment.
	Env []string
	// ExcludeEnv names parent variables the server must not see.
	ExcludeEnv []string
	// Timeout bounds every tool call.
	Timeout time.Duration
}

// FromConfig builds a server description from the YAML section.
func FromConfig(name string, c config.MCPServerConfig) ServerConfig {
	return ServerConfig{
		Name:       name,
		Command:    c.Command,
		Args:       append([]string(nil), c.Args...),
		ExcludeEnv: append([]string(nil), c.ExcludeEnv...),
		Timeout:    c.Timeout,
	}
}

// Validate checks the fields required to spawn the server.
func (c ServerConfig) Validate() error {
	if c.Name == "" {
		return errors.New("server name is required")
	}
	if c.Command == "" {
		return fmt.Errorf("mcp server %s: command is required", c.Name)
	}
	return nil
}

// Environ returns the variables handed to the subprocess. The stdio
// transport appends them to the parent environment and the last entry for a
// key wins, so excluded keys are blanked out by an empty assignment.
func (c ServerConfig) Environ() []string {
	env := make([]string, 0, len(c.Env)+len(c.ExcludeEnv))
	env = append(env, c.Env...)
	for _, key := range c.ExcludeEnv {
		if key != "" {
			env = append(env, key+"=")
		}
	}
	return env
}

// Toolset is a running MCP server and the tools it advertised.
type Toolset struct {
	name   string
	client *client.Client
	tools  []tool.BaseTool
}

// Connect starts the server, performs the MCP handshake and lists its tools.
func Connect(ctx context.Context, cfg ServerConfig, logger *zap.Logger) (*Toolset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger = logging.OrNop(logger)

	cli, err := client.NewStdioMCPClient(cfg.Command, cfg.Environ(), cfg.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP client %s: %w", cfg.Name, err)
	}
	if err := cli.Start(ctx); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("failed to start MCP client %s: %w", cfg.Name, err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "newsletter-agent",
		Version: "0.1.0",
	}
	if _, err := cli.Initialize(ctx, initReq); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("failed to initialize MCP server %s: %w", cfg.Name, err)
	}

	listed, err := einomcp.GetTools(ctx, &einomcp.Config{Cli: cli})
	if err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("failed to list tools of %s: %w", cfg.Name, err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	wrapped := make([]tool.BaseTool, 0, len(listed))
	for _, t := range listed {
		wrapped = append(wrapped, WithTimeout(t, timeout))
	}

	logger.Info("MCP server connected",
		zap.String("server", cfg.Name),
		zap.Int("tools", len(wrapped)),
		zap.Duration("timeout", timeout))

	return &Toolset{name: cfg.Name, client: cli, tools: wrapped}, nil
}

// Name is the configured server name.
func (t *Toolset) Name() string {
	if t == nil {
		return ""
	}
	return t.name
}

// Tools returns the server tools. A nil toolset has none.
func (t *Toolset) Tools() []tool.BaseTool {
	if t == nil {
		return nil
	}
	return t.tools
}

// Close stops the subprocess.
func (t *Toolset) Close() error {
	if t == nil || t.client == nil {
		return nil
	}
	return t.client.Close()
}

type timeoutTool struct {
	tool.InvokableTool
	timeout time.Duration
}

// WithTimeout bounds every invocation of t. Tools that cannot be invoked
// directly are returned unchanged.
func WithTimeout(t tool.BaseTool, timeout time.Duration) tool.BaseTool {
	inv, ok := t.(tool.InvokableTool)
	if !ok || timeout <= 0 {
		return t
	}
	return &timeoutTool{InvokableTool: inv, timeout: timeout}
}

func (t *timeoutTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return t.InvokableTool.Info(ctx)
}

func (t *timeoutTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	out, err := t.InvokableTool.InvokableRun(ctx, argumentsInJSON, opts...)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("tool call timed out after %s: %w", t.timeout, err)
	}
	return out, err
}
