// Package mcp exposes the conversion agents as MCP tools so editor and
// chat clients can drive one-shot conversions without the session workflow.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"convert2ansible/backend/internal/services"
	"convert2ansible/backend/internal/workflow"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type Server struct {
	mcpServer *server.MCPServer
	agents    services.AgentClient
}

func NewServer(agents services.AgentClient) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"Convert2Ansible",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		agents: agents,
	}

	s.registerTools()
	return s
}

func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"analyze_code",
			mcp.WithDescription("Classify an infrastructure-as-code snippet and judge convertibility"),
			mcp.WithString("code", mcp.Required(), mcp.Description("The source code to analyze")),
		),
		s.handleAnalyzeCode,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"query_context",
			mcp.WithDescription("Retrieve reference documentation chunks for a snippet"),
			mcp.WithString("code", mcp.Required(), mcp.Description("The source code to find context for")),
		),
		s.handleQueryContext,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"generate_playbook",
			mcp.WithDescription("Convert an infrastructure-as-code snippet into an Ansible playbook"),
			mcp.WithString("code", mcp.Required(), mcp.Description("The source code to convert")),
		),
		s.handleGeneratePlaybook,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"generate_spec",
			mcp.WithDescription("Write a prose specification of an infrastructure-as-code snippet"),
			mcp.WithString("code", mcp.Required(), mcp.Description("The source code to describe")),
		),
		s.handleGenerateSpec,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"validate_playbook",
			mcp.WithDescription("Lint an Ansible playbook and report findings"),
			mcp.WithString("playbook", mcp.Required(), mcp.Description("The playbook YAML to validate")),
		),
		s.handleValidatePlaybook,
	)
}

func stringArg(request mcp.CallToolRequest, name string) (string, *mcp.CallToolResult) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return "", mcp.NewToolResultError("Invalid arguments type")
	}
	value, ok := args[name].(string)
	if !ok || value == "" {
		return "", mcp.NewToolResultError("Missing required parameter: " + name)
	}
	return value, nil
}

func (s *Server) handleAnalyzeCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, errResult := stringArg(request, "code")
	if errResult != nil {
		return errResult, nil
	}

	outcome, err := s.agents.Classify(ctx, code)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to analyze: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(outcome)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleQueryContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, errResult := stringArg(request, "code")
	if errResult != nil {
		return errResult, nil
	}

	outcome, err := s.agents.QueryContext(ctx, code)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to query context: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(outcome)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// handleGeneratePlaybook runs retrieval and generation back to back, the
// same shortcut the original exposes to non-wizard clients.
func (s *Server) handleGeneratePlaybook(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, errResult := stringArg(request, "code")
	if errResult != nil {
		return errResult, nil
	}

	var chunks []workflow.ContextChunk
	if contextOutcome, err := s.agents.QueryContext(ctx, code); err == nil {
		chunks = contextOutcome.Chunks
	}

	outcome, err := s.agents.Generate(ctx, code, chunks)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to generate: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(outcome)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleGenerateSpec(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, errResult := stringArg(request, "code")
	if errResult != nil {
		return errResult, nil
	}

	specText, err := s.agents.GenerateSpec(ctx, code, "")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to generate spec: %v", err)), nil
	}

	return mcp.NewToolResultText(specText), nil
}

func (s *Server) handleValidatePlaybook(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	playbook, errResult := stringArg(request, "playbook")
	if errResult != nil {
		return errResult, nil
	}

	outcome, err := s.agents.Validate(ctx, playbook)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to validate: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(outcome)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer) {
	// Use SSE server for /mcp/sse and /mcp/message endpoints
	sseServer := server.NewSSEServer(mcpServer, server.WithStaticBasePath("/mcp"))

	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		// Direct POST for tool calls
		if r.Method == http.MethodPost {
			sseServer.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	// SSE endpoints
	mux.HandleFunc("/mcp/sse", sseServer.ServeHTTP)
	mux.HandleFunc("/mcp/message", sseServer.ServeHTTP)
}
