package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/intentflow"
	"github.com/aretw0/intentflow/internal/logging"
	"github.com/aretw0/intentflow/internal/presentation/graph"
	"github.com/aretw0/intentflow/internal/validator"
	"github.com/aretw0/intentflow/pkg/codec"
	"github.com/aretw0/intentflow/pkg/domain"
	"github.com/aretw0/intentflow/pkg/keyboard"
	"github.com/aretw0/intentflow/pkg/session"
	"github.com/go-chi/chi/v5"
)

// maxBody caps request bodies, imports included.
const maxBody = 4 << 20

// Workspace resolves bots to their editing sessions.
type Workspace interface {
	Get(ctx context.Context, bot string) (*intentflow.Editor, error)
	List(ctx context.Context) ([]string, error)
}

// Server serves the editing API of every bot in a workspace.
type Server struct {
	Workspace Workspace
	Streams   *StreamManager
	logger    *slog.Logger

	locks sync.Map // bot -> *sync.Mutex
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates a new HTTP handler for the workspace.
func NewHandler(ws Workspace, opts ...Option) http.Handler {
	server := &Server{
		Workspace: ws,
		Streams:   NewStreamManager(),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}
	server.Streams.logger = server.logger
	return enableCORS(server.Routes())
}

// Routes builds the router without middleware, so hosts can mount it.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/bots", s.ListBots)

	r.Route("/bots/{bot}", func(r chi.Router) {
		r.Get("/graph", s.withEditor(s.GetGraph))
		r.Get("/graph.mmd", s.withEditor(s.GetMermaid))
		r.Get("/lint", s.withEditor(s.GetLint))
		r.Get("/events", s.SubscribeEvents)

		r.Post("/intents", s.mutate(s.CreateIntent))
		r.Patch("/intents/{id}", s.mutate(s.UpdateIntent))
		r.Put("/intents/{id}/position", s.mutate(s.MoveIntent))
		r.Post("/intents/{id}/duplicate", s.mutate(s.DuplicateIntent))
		r.Get("/intents/{id}/removable", s.withEditor(s.GetRemovable))
		r.Delete("/intents/{id}", s.mutate(s.RemoveIntent))
		r.Post("/edges", s.mutate(s.Connect))

		r.Get("/history", s.withEditor(s.GetHistory))
		r.Post("/history/undo", s.mutate(s.Undo))
		r.Post("/history/redo", s.mutate(s.Redo))

		r.Get("/export", s.withEditor(s.Export))
		r.Post("/import", s.mutate(s.Import))
		r.Post("/keys", s.mutate(s.Keys))
		r.Get("/metadata", s.withEditor(s.GetMetadata))
		r.Put("/metadata", s.withEditor(s.PutMetadata))
		r.Post("/save", s.withEditor(s.Save))
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type editorHandler func(w http.ResponseWriter, r *http.Request, ed *intentflow.Editor)

func (s *Server) editor(w http.ResponseWriter, r *http.Request) (*intentflow.Editor, bool) {
	ed, err := s.Workspace.Get(r.Context(), chi.URLParam(r, "bot"))
	if err != nil {
		s.fail(w, "open bot", err)
		return nil, false
	}
	return ed, true
}

func (s *Server) withEditor(h editorHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ed, ok := s.editor(w, r); ok {
			h(w, r, ed)
		}
	}
}

// mutate runs h and broadcasts the resulting graph diff to subscribers.
// Mutations of one bot are serialized so each diff covers one request.
func (s *Server) mutate(h editorHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, ok := s.editor(w, r)
		if !ok {
			return
		}
		bot := chi.URLParam(r, "bot")
		mu := s.botLock(bot)
		mu.Lock()
		defer mu.Unlock()

		before := ed.Graph()
		h(w, r, ed)
		after := ed.Graph()

		if diff := domain.Diff(&before, &after); diff != nil {
			s.logger.Debug("graph diff calculated", "bot", bot, "diff", diff)
			if bytes, err := json.Marshal(diff); err == nil {
				s.Streams.Broadcast(bot, string(bytes))
			}
		}
	}
}

func (s *Server) botLock(bot string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(bot, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":            "intentflow-http",
		"version":        strings.TrimSpace(intentflow.Version),
		"schema_version": codec.SchemaVersion,
	})
}

// ListBots handles the GET /bots request.
func (s *Server) ListBots(w http.ResponseWriter, r *http.Request) {
	names, err := s.Workspace.List(r.Context())
	if err != nil {
		s.fail(w, "list bots", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"bots": names})
}

// GetGraph handles the GET /bots/{bot}/graph request.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request, ed *intentflow.Editor) {
	s.writeJSON(w, http.StatusOK, ed.Graph())
}

// GetMermaid renders the graph as a Mermaid flowchart. The optional
// selected query parameter highlights one intent.
func (s *Server) GetMermaid(w http.ResponseWriter, r *http.Request, ed *intentflow.Editor) {
	g := ed.Graph()
	overlay := &graph.Overlay{
		Selected: r.URL.Query().Get("selected"),
		Issues:   validator.Flagged(validator.Lint(g, validator.StartID(g))),
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, graph.GenerateMermaid(g, overlay))
}

// GetLint reports authoring issues in the current graph.
func (s *Server) GetLint(w http.ResponseWriter, r *http.Request, ed *intentflow.Editor) {
	g := ed.Graph()
	issues := validator.Lint(g, validator.StartID(g))
	if issues == nil {
		issues = []validator.Issue{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]validator.Issue{"issues": issues})
}

// CreateIntent handles the POST /bots/{bot}/intents request.
func (s *Server) CreateIntent(w http.ResponseWriter, r *http.Request, ed *intentflow.Editor) {
	node, err := ed.Create()
	if err != nil {
		s.fail(w, "create", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, node)
}

// UpdateIntent handles the PATCH /bots/{bot}/intents/{id} request.
func (s *Server) UpdateIntent(w http.ResponseWriter, r *http.Request, ed *intentflow.Editor) {
	var patch domain.NodePatch
	if !s.decode(w, r, &patch) {
		return
	}
	node, err := ed.Update(chi.URLParam(r, "id"), patch)
	if err != nil {
		s.fail(w, "update", err)
		return
	}
	s.writeJSON(w, http.StatusOK, node)
}

// MoveIntent handles the PUT /bots/{bot}/intents/{id}/position request.
func (s *Server) MoveIntent(w http.ResponseWriter, r *http.Request, ed *intentflow.Editor) {
	var pos domain.Position
	if !s.decode(w, r, &pos) {
		return
	}
	node, err := ed.Move(chi.URLParam(r, "id"), pos)
	if err != nil {
		s.fail(w, "move", err)
		return
	}
	s.writeJSON(w, http.StatusOK, node)
}

// DuplicateIntent handles the POST /bots/{bot}/intents/{id}/duplicate request.
func (s *Server) DuplicateIntent(w http.ResponseWriter, r *http.Request, ed *intentflow.Editor) {
	node, err := ed.Duplicate(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "duplicate", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, node)
}

// GetRemovable tells clients whether to prompt for a deletion.
func (s *Server) GetRemovable(w http.ResponseWriter, r *http.Request, ed *intentflow.Editor) {
	s.writeJSON(w, http.StatusOK, map[string]bool{"removable": ed.CanRemove(chi.URLParam(r, "id"))})
}

// RemoveIntent handles the DELETE /bots/{bot}/intents/{id} request. Clients
// call it after the user confirmed.
func (s *Server) RemoveIntent(w http.ResponseWriter, r *http.Request, ed *intentflow.Editor) {
	id := chi.URLParam(r, "id")
	node, ok := ed.Node(id)
	switch {
	case !ok:
		s.fail(w, "remove", fmt.Errorf("%w: node %q", domain.ErrNotFound, id))
	case node.IsProtected:
		http.Error(w, fmt.Sprintf("intent %q is protected", id), http.StatusConflict)
	case !ed.Remove(id):
		http.Error(w, fmt.Sprintf("intent %q was not removed", id), http.StatusConflict)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

type connectRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Connect handles the POST /bots/{bot}/edges request.
func (s *Server) Connect(w http.ResponseWriter, r *http.Request, ed *intentflow.Editor) {
	var body connectRequest
	if !s.decode(w, r, &body) {
		return
	}
	edge, err := ed.Connect(body.Source, body.Target)
	if err != nil {
		s.fail(w, "connect", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, edge)
}

type historyResponse struct {
	Changed bool `json:"changed"`
	Undo    int  `json:"undo"`
	Redo    int  `json:"redo"`
}

// GetHistory reports the undo and redo depths.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request, ed *intentflow.Editor) {
	undo, redo := ed.History()
	s.writeJSON(w, http.StatusOK, historyResponse{Undo: undo, Redo: redo})
}

// Undo handles the POST /bots/{bot}/history/undo request.
func (s *Server) Undo(w http.ResponseWriter, r *http.Request, ed *intentflow.Editor) {
	s.travel(w, "undo", ed, ed.Undo)
}

// Redo handles the POST /bots/{bot}/history/redo request.
func (s *Server) Redo(w http.ResponseWriter, r *http.Request, ed *intentflow.Editor) {
	s.travel(w, "redo", ed, ed.Redo)
}

func (s *Server) travel(w http.ResponseWriter, op string, ed *intentflow.Editor, step func() (bool, error)) {
	changed, err := step()
	if err != nil {
		s.fail(w, op, err)
		return
	}
	undo, redo := ed.History()
	s.writeJSON(w, http.StatusOK, historyResponse{Changed: changed, Undo: undo, Redo: redo})
}

// Export handles the GET /bots/{bot}/export?format= request.
func (s *Server) Export(w http.ResponseWriter, r *http.Request, ed *intentflow.Editor) {
	f, err := codec.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	data, err := ed.ExportBytes(f)
	if err != nil {
		s.fail(w, "export", err)
		return
	}
	w.Header().Set("Content-Type", contentType(f))
	w.Write(data)
}

// Import handles the POST /bots/{bot}/import request. The format comes from
// the format query parameter or the Content-Type header.
func (s *Server) Import(w http.ResponseWriter, r *http.Request, ed *intentflow.Editor) {
	name := r.URL.Query().Get("format")
	if name == "" && strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		name = string(codec.FormatYAML)
	}
	f, err := codec.ParseFormat(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := ed.Import(data, f); err != nil {
		s.fail(w, "import", err)
		return
	}
	s.writeJSON(w, http.StatusOK, ed.Graph())
}

type keyRequest struct {
	Chord    string `json:"chord"`
	Focus    string `json:"focus"`
	Selected string `json:"selected"`
}

// Keys handles the POST /bots/{bot}/keys request. A deletion is never
// performed here: the outcome asks the client to confirm and call DELETE.
func (s *Server) Keys(w http.ResponseWriter, r *http.Request, ed *intentflow.Editor) {
	var body keyRequest
	if !s.decode(w, r, &body) {
		return
	}
	focus, err := keyboard.ParseFocus(body.Focus)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	d := keyboard.New(ed, keyboard.WithLogger(s.logger))
	out, err := d.Dispatch(r.Context(), keyboard.Chord(body.Chord), focus, body.Selected)
	if err != nil {
		s.fail(w, "keys", err)
		return
	}
	s.writeJSON(w, http.StatusOK, out)
}

// GetMetadata handles the GET /bots/{bot}/metadata request.
func (s *Server) GetMetadata(w http.ResponseWriter, r *http.Request, ed *intentflow.Editor) {
	s.writeJSON(w, http.StatusOK, ed.Metadata())
}

// PutMetadata handles the PUT /bots/{bot}/metadata request.
func (s *Server) PutMetadata(w http.ResponseWriter, r *http.Request, ed *intentflow.Editor) {
	var meta domain.Metadata
	if !s.decode(w, r, &meta) {
		return
	}
	ed.SetMetadata(meta)
	s.writeJSON(w, http.StatusOK, meta)
}

// Save handles the POST /bots/{bot}/save request.
func (s *Server) Save(w http.ResponseWriter, r *http.Request, ed *intentflow.Editor) {
	if err := ed.Save(r.Context()); err != nil {
		s.fail(w, "save", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// -- Helpers --

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("invalid request body", "path", r.URL.Path, "err", err)
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "op", op, "err", err)
	} else {
		s.logger.Debug("request rejected", "op", op, "status", status, "err", err)
	}
	http.Error(w, err.Error(), status)
}

// statusOf maps editor errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrSnapshotNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrParse), errors.Is(err, domain.ErrSchema), errors.Is(err, session.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidGraph), errors.Is(err, domain.ErrDuplicateID), errors.Is(err, domain.ErrDanglingReference):
		return http.StatusUnprocessableEntity
	case errors.Is(err, intentflow.ErrNoSnapshotStore):
		return http.StatusNotImplemented
	case errors.Is(err, intentflow.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func contentType(f codec.Format) string {
	if f == codec.FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}
