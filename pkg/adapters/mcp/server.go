package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/intentflow"
	"github.com/aretw0/intentflow/internal/logging"
	"github.com/aretw0/intentflow/internal/validator"
	"github.com/aretw0/intentflow/pkg/codec"
	"github.com/aretw0/intentflow/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// GraphURI is the resource exposing the default bot's graph.
const GraphURI = "intentflow://graph"

// Workspace resolves bots to their editing sessions.
type Workspace interface {
	Get(ctx context.Context, bot string) (*intentflow.Editor, error)
}

// Server exposes a workspace of intent graphs as an MCP Server.
type Server struct {
	workspace  Workspace
	defaultBot string
	mcpServer  *server.MCPServer
	logger     *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance. Tools act on defaultBot
// unless the caller names another bot.
func NewServer(ws Workspace, defaultBot string, opts ...Option) *Server {
	mcpServer := server.NewMCPServer("intentflow-mcp", strings.TrimSpace(intentflow.Version),
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)
	s := &Server{
		workspace:  ws,
		defaultBot: defaultBot,
		mcpServer:  mcpServer,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://localhost" + addr
	if !strings.HasPrefix(addr, ":") {
		baseURL = "http://" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutdown signal received, shutting down MCP server")
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
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// botArgs is embedded in every tool's arguments.
type botArgs struct {
	Bot string `json:"bot,omitempty"`
}

type intentArgs struct {
	botArgs
	ID string `json:"id"`
}

type editArgs struct {
	botArgs
	ID              string    `json:"id,omitempty"`
	Label           *string   `json:"label,omitempty"`
	TrainingPhrases *[]string `json:"training_phrases,omitempty"`
	Responses       *[]string `json:"responses,omitempty"`
	X               *float64  `json:"x,omitempty"`
	Y               *float64  `json:"y,omitempty"`
}

func (a editArgs) patch(current domain.Node) domain.NodePatch {
	p := domain.NodePatch{
		Label:           a.Label,
		TrainingPhrases: a.TrainingPhrases,
		Responses:       a.Responses,
	}
	if a.X != nil || a.Y != nil {
		pos := current.Position
		if a.X != nil {
			pos.X = *a.X
		}
		if a.Y != nil {
			pos.Y = *a.Y
		}
		p.Position = &pos
	}
	return p
}

type connectArgs struct {
	botArgs
	Source string `json:"source"`
	Target string `json:"target"`
}

type exportArgs struct {
	botArgs
	Format string `json:"format,omitempty"`
}

// RemoveResponse reports the outcome of remove_intent.
type RemoveResponse struct {
	ID      string `json:"id"`
	Removed bool   `json:"removed" jsonschema_description:"False when the intent is protected"`
}

// HistoryResponse reports the outcome of undo and redo.
type HistoryResponse struct {
	Changed bool `json:"changed" jsonschema_description:"False at the baseline (undo) or head (redo)"`
	Undo    int  `json:"undo"`
	Redo    int  `json:"redo"`
}

// LintResponse lists authoring issues.
type LintResponse struct {
	Issues []validator.Issue `json:"issues"`
}

func botOption() mcp.ToolOption {
	return mcp.WithString("bot", mcp.Description("Bot to edit (optional, defaults to the server's bot)"))
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the intents and transitions of the bot."),
		botOption(),
		mcp.WithOutputSchema[domain.Graph](),
	), mcp.NewStructuredToolHandler(s.handleGetGraph))

	s.mcpServer.AddTool(mcp.NewTool("create_intent",
		mcp.WithDescription("Create a new unprotected intent, optionally filling its fields."),
		botOption(),
		mcp.WithString("label", mcp.Description("Display name")),
		mcp.WithArray("training_phrases", mcp.Description("Phrases that trigger the intent"), mcp.WithStringItems()),
		mcp.WithArray("responses", mcp.Description("Candidate replies"), mcp.WithStringItems()),
		mcp.WithOutputSchema[domain.Node](),
	), mcp.NewStructuredToolHandler(s.handleCreate))

	s.mcpServer.AddTool(mcp.NewTool("update_intent",
		mcp.WithDescription("Update fields of an intent. Omitted fields are left unchanged."),
		botOption(),
		mcp.WithString("id", mcp.Required(), mcp.Description("Intent ID")),
		mcp.WithString("label", mcp.Description("Display name")),
		mcp.WithArray("training_phrases", mcp.Description("Replaces the training phrases"), mcp.WithStringItems()),
		mcp.WithArray("responses", mcp.Description("Replaces the responses"), mcp.WithStringItems()),
		mcp.WithNumber("x", mcp.Description("Canvas x coordinate")),
		mcp.WithNumber("y", mcp.Description("Canvas y coordinate")),
		mcp.WithOutputSchema[domain.Node](),
	), mcp.NewStructuredToolHandler(s.handleUpdate))

	s.mcpServer.AddTool(mcp.NewTool("duplicate_intent",
		mcp.WithDescription("Copy an intent into a new unprotected intent."),
		botOption(),
		mcp.WithString("id", mcp.Required(), mcp.Description("Intent ID to copy")),
		mcp.WithOutputSchema[domain.Node](),
	), mcp.NewStructuredToolHandler(s.handleDuplicate))

	s.mcpServer.AddTool(mcp.NewTool("remove_intent",
		mcp.WithDescription("Delete an intent and its transitions. Protected intents are kept."),
		botOption(),
		mcp.WithString("id", mcp.Required(), mcp.Description("Intent ID")),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithOutputSchema[RemoveResponse](),
	), mcp.NewStructuredToolHandler(s.handleRemove))

	s.mcpServer.AddTool(mcp.NewTool("connect_intents",
		mcp.WithDescription("Add a transition from one intent to another."),
		botOption(),
		mcp.WithString("source", mcp.Required(), mcp.Description("Source intent ID")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Target intent ID")),
		mcp.WithOutputSchema[domain.Edge](),
	), mcp.NewStructuredToolHandler(s.handleConnect))

	s.mcpServer.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Restore the previous recorded graph."),
		botOption(),
		mcp.WithOutputSchema[HistoryResponse](),
	), mcp.NewStructuredToolHandler(s.handleUndo))

	s.mcpServer.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Re-apply the last undone graph."),
		botOption(),
		mcp.WithOutputSchema[HistoryResponse](),
	), mcp.NewStructuredToolHandler(s.handleRedo))

	s.mcpServer.AddTool(mcp.NewTool("lint_graph",
		mcp.WithDescription("Report unreachable intents and intents without phrases or responses."),
		botOption(),
		mcp.WithOutputSchema[LintResponse](),
	), mcp.NewStructuredToolHandler(s.handleLint))

	s.mcpServer.AddTool(mcp.NewTool("export_graph",
		mcp.WithDescription("Export the bot as a versioned JSON or YAML snapshot."),
		botOption(),
		mcp.WithString("format", mcp.Description("json (default) or yaml"), mcp.Enum("json", "yaml")),
	), s.handleExport)
}

func (s *Server) editor(ctx context.Context, args botArgs) (*intentflow.Editor, error) {
	bot := args.Bot
	if bot == "" {
		bot = s.defaultBot
	}
	return s.workspace.Get(ctx, bot)
}

func (s *Server) handleGetGraph(ctx context.Context, _ mcp.CallToolRequest, args botArgs) (domain.Graph, error) {
	ed, err := s.editor(ctx, args)
	if err != nil {
		return domain.Graph{}, err
	}
	return ed.Graph(), nil
}

func (s *Server) handleCreate(ctx context.Context, _ mcp.CallToolRequest, args editArgs) (domain.Node, error) {
	ed, err := s.editor(ctx, args.botArgs)
	if err != nil {
		return domain.Node{}, err
	}
	node, err := ed.Create()
	if err != nil {
		return domain.Node{}, err
	}
	if patch := args.patch(node); !patch.IsEmpty() {
		return ed.Update(node.ID, patch)
	}
	return node, nil
}

func (s *Server) handleUpdate(ctx context.Context, _ mcp.CallToolRequest, args editArgs) (domain.Node, error) {
	ed, err := s.editor(ctx, args.botArgs)
	if err != nil {
		return domain.Node{}, err
	}
	current, ok := ed.Node(args.ID)
	if !ok {
		return domain.Node{}, fmt.Errorf("%w: node %q", domain.ErrNotFound, args.ID)
	}
	return ed.Update(args.ID, args.patch(current))
}

func (s *Server) handleDuplicate(ctx context.Context, _ mcp.CallToolRequest, args intentArgs) (domain.Node, error) {
	ed, err := s.editor(ctx, args.botArgs)
	if err != nil {
		return domain.Node{}, err
	}
	return ed.Duplicate(args.ID)
}

// The tool call is the confirmation: agents decide before invoking it.
func (s *Server) handleRemove(ctx context.Context, _ mcp.CallToolRequest, args intentArgs) (RemoveResponse, error) {
	ed, err := s.editor(ctx, args.botArgs)
	if err != nil {
		return RemoveResponse{}, err
	}
	if _, ok := ed.Node(args.ID); !ok {
		return RemoveResponse{}, fmt.Errorf("%w: node %q", domain.ErrNotFound, args.ID)
	}
	return RemoveResponse{ID: args.ID, Removed: ed.Remove(args.ID)}, nil
}

func (s *Server) handleConnect(ctx context.Context, _ mcp.CallToolRequest, args connectArgs) (domain.Edge, error) {
	ed, err := s.editor(ctx, args.botArgs)
	if err != nil {
		return domain.Edge{}, err
	}
	return ed.Connect(args.Source, args.Target)
}

func (s *Server) handleUndo(ctx context.Context, _ mcp.CallToolRequest, args botArgs) (HistoryResponse, error) {
	ed, err := s.editor(ctx, args)
	if err != nil {
		return HistoryResponse{}, err
	}
	return travel(ed, ed.Undo)
}

func (s *Server) handleRedo(ctx context.Context, _ mcp.CallToolRequest, args botArgs) (HistoryResponse, error) {
	ed, err := s.editor(ctx, args)
	if err != nil {
		return HistoryResponse{}, err
	}
	return travel(ed, ed.Redo)
}

func travel(ed *intentflow.Editor, step func() (bool, error)) (HistoryResponse, error) {
	changed, err := step()
	if err != nil {
		return HistoryResponse{}, err
	}
	undo, redo := ed.History()
	return HistoryResponse{Changed: changed, Undo: undo, Redo: redo}, nil
}

func (s *Server) handleLint(ctx context.Context, _ mcp.CallToolRequest, args botArgs) (LintResponse, error) {
	ed, err := s.editor(ctx, args)
	if err != nil {
		return LintResponse{}, err
	}
	g := ed.Graph()
	issues := validator.Lint(g, validator.StartID(g))
	if issues == nil {
		issues = []validator.Issue{}
	}
	return LintResponse{Issues: issues}, nil
}

func (s *Server) handleExport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args exportArgs
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	f, err := codec.ParseFormat(args.Format)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ed, err := s.editor(ctx, args.botArgs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := ed.ExportBytes(f)
	if err != nil {
		s.logger.Error("MCP export failed", "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("export failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Current Intent Graph",
		mcp.WithResourceDescription("Intents and transitions of the default bot"),
		mcp.WithMIMEType("application/json"),
	), s.readGraph)
}

func (s *Server) readGraph(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	ed, err := s.workspace.Get(ctx, s.defaultBot)
	if err != nil {
		return nil, fmt.Errorf("failed to open bot: %w", err)
	}
	jsonBytes, err := json.Marshal(ed.Graph())
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      GraphURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}
