// Package mcp exposes the engine as a Model Context Protocol server, so
// agent hosts can list and run stored workflows as tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	weft "github.com/weftworks/weft"
	"github.com/weftworks/weft/pkg/domain"
	"github.com/weftworks/weft/pkg/ports"
)

// RunResult is the structured payload returned by the run_workflow tool.
type RunResult struct {
	RunID         string         `json:"runId" jsonschema_description:"Identifier of the finished run"`
	Status        string         `json:"status" jsonschema_description:"Final run status: completed or failed"`
	FailureReason string         `json:"failureReason,omitempty" jsonschema_description:"Reason when status is failed"`
	Output        any            `json:"output,omitempty" jsonschema_description:"Output of the last executed node"`
	NodeOutputs   map[string]any `json:"nodeOutputs,omitempty" jsonschema_description:"All node outputs keyed by node id"`
}

// Engine is the slice of the facade the MCP surface needs.
type Engine interface {
	RunStored(ctx context.Context, graphID string, input map[string]any, opts ...weft.RunOption) (*domain.State, error)
	Graphs() ports.GraphStore
}

// Server wraps the engine and exposes it as an MCP server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
}

// NewServer creates the MCP server and registers its tools and resources.
func NewServer(engine Engine) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("weft-mcp", strings.TrimSpace(weft.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE transport and
// blocks until the context is cancelled or the listener fails.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	runTool := mcp.NewTool("run_workflow",
		mcp.WithDescription("Run a stored workflow by id against an input document and return its final state."),
		mcp.WithString("workflow_id", mcp.Required(), mcp.Description("Id of the stored workflow to run")),
		mcp.WithString("input", mcp.Description("JSON object with the run's input document (optional)")),
		mcp.WithString("start_node", mcp.Description("Node id to start from (optional, overrides start resolution)")),
		mcp.WithOutputSchema[RunResult](),
	)
	s.mcpServer.AddTool(runTool, mcp.NewStructuredToolHandler(s.handleRunWorkflow))

	s.mcpServer.AddTool(mcp.NewTool("list_workflows",
		mcp.WithDescription("List the stored workflow definitions."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		defs, err := s.loadAll(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		type summary struct {
			ID          string `json:"id"`
			Name        string `json:"name,omitempty"`
			Description string `json:"description,omitempty"`
		}
		out := make([]summary, 0, len(defs))
		for _, d := range defs {
			out = append(out, summary{ID: d.ID, Name: d.Name, Description: d.Description})
		}
		jsonBytes, _ := json.Marshal(out)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("get_workflow",
		mcp.WithDescription("Get a stored workflow definition by id."),
		mcp.WithString("workflow_id", mcp.Required(), mcp.Description("Id of the workflow")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := request.GetString("workflow_id", "")
		def, err := s.engine.Graphs().Load(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(def)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) handleRunWorkflow(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (RunResult, error) {
	workflowID, _ := args["workflow_id"].(string)
	if workflowID == "" {
		return RunResult{}, fmt.Errorf("workflow_id is required")
	}

	input := map[string]any{}
	if inputStr, ok := args["input"].(string); ok && inputStr != "" {
		if err := json.Unmarshal([]byte(inputStr), &input); err != nil {
			return RunResult{}, fmt.Errorf("input must be a JSON object: %w", err)
		}
	}

	var opts []weft.RunOption
	if start, ok := args["start_node"].(string); ok && start != "" {
		opts = append(opts, weft.WithStartNode(start))
	}

	state, err := s.engine.RunStored(ctx, workflowID, input, opts...)
	if err != nil && state == nil {
		return RunResult{}, fmt.Errorf("run failed: %w", err)
	}

	return RunResult{
		RunID:         state.RunID,
		Status:        string(state.Status()),
		FailureReason: state.FailureReason(),
		Output:        state.Output(),
		NodeOutputs:   state.NodeOutputs(),
	}, nil
}

// loadAll resolves every stored id to its definition. Ids that vanish
// between List and Load are skipped.
func (s *Server) loadAll(ctx context.Context) ([]*domain.Definition, error) {
	ids, err := s.engine.Graphs().List(ctx)
	if err != nil {
		return nil, err
	}
	defs := make([]*domain.Definition, 0, len(ids))
	for _, id := range ids {
		def, err := s.engine.Graphs().Load(ctx, id)
		if err != nil {
			continue
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("weft://workflows", "Stored Workflow Definitions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		defs, err := s.loadAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list workflows: %w", err)
		}
		jsonBytes, _ := json.Marshal(defs)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "weft://workflows",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
