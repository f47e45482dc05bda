package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/intentflow"
	"github.com/aretw0/intentflow/internal/logging"
	"github.com/aretw0/intentflow/internal/testutils"
	"github.com/aretw0/intentflow/pkg/adapters/memory"
	"github.com/aretw0/intentflow/pkg/domain"
	"github.com/aretw0/intentflow/pkg/history"
	"github.com/aretw0/intentflow/pkg/keyboard"
	"github.com/aretw0/intentflow/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	handler   http.Handler
	server    *Server
	manager   *session.Manager
	snapshots *memory.Store
	clock     *testutils.FakeClock
}

func newFixture(t *testing.T, opts ...intentflow.Option) *fixture {
	t.Helper()
	clock := testutils.NewFakeClock()
	snapshots := memory.NewStore()
	opts = append([]intentflow.Option{intentflow.WithClock(clock)}, opts...)
	m := session.NewManager(snapshots, session.WithEditorOptions(opts...))
	t.Cleanup(func() { _ = m.Close() })

	s := &Server{Workspace: m, Streams: NewStreamManager(), logger: logging.NewNop()}
	return &fixture{handler: enableCORS(s.Routes()), server: s, manager: m, snapshots: snapshots, clock: clock}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestServer_Health(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody[map[string]string](t, w)["status"])

	w = f.do(t, "GET", "/info", nil)
	assert.Equal(t, intentflow.Version, decodeBody[map[string]string](t, w)["version"])

	w = f.do(t, "OPTIONS", "/bots/pizza/graph", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_EditingFlow(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "GET", "/bots/pizza/graph", nil)
	require.Equal(t, http.StatusOK, w.Code)
	g := decodeBody[domain.Graph](t, w)
	assert.True(t, domain.NewSeedGraph().Equal(g))

	w = f.do(t, "POST", "/bots/pizza/intents", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	node := decodeBody[domain.Node](t, w)

	w = f.do(t, "PATCH", "/bots/pizza/intents/"+node.ID, map[string]any{
		"label":           "Order",
		"trainingPhrases": []string{"pizza please"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decodeBody[domain.Node](t, w)
	assert.Equal(t, "Order", updated.Label)
	assert.Equal(t, []string{"pizza please"}, updated.TrainingPhrases)

	w = f.do(t, "PUT", "/bots/pizza/intents/"+node.ID+"/position", domain.Position{X: 10, Y: 20})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.Position{X: 10, Y: 20}, decodeBody[domain.Node](t, w).Position)

	w = f.do(t, "POST", "/bots/pizza/edges", map[string]string{"source": domain.GreetID, "target": node.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	edge := decodeBody[domain.Edge](t, w)
	assert.Equal(t, node.ID, edge.Target)

	w = f.do(t, "POST", "/bots/pizza/intents/"+node.ID+"/duplicate", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	dup := decodeBody[domain.Node](t, w)
	assert.Equal(t, "Order"+domain.CopySuffix, dup.Label)

	w = f.do(t, "GET", "/bots/pizza/intents/"+domain.GreetID+"/removable", nil)
	assert.False(t, decodeBody[map[string]bool](t, w)["removable"])
	w = f.do(t, "GET", "/bots/pizza/intents/"+node.ID+"/removable", nil)
	assert.True(t, decodeBody[map[string]bool](t, w)["removable"])

	w = f.do(t, "DELETE", "/bots/pizza/intents/"+domain.GreetID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, "DELETE", "/bots/pizza/intents/"+node.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, "GET", "/bots/pizza/graph", nil)
	g = decodeBody[domain.Graph](t, w)
	assert.Len(t, g.Nodes, 3)
	assert.Empty(t, g.Edges, "transitions of a removed intent are removed")

	w = f.do(t, "DELETE", "/bots/pizza/intents/"+node.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_Errors(t *testing.T) {
	f := newFixture(t)

	tests := map[string]struct {
		method, path string
		body         any
		want         int
	}{
		"Unknown Intent":     {"PATCH", "/bots/pizza/intents/ghost", map[string]string{"label": "x"}, http.StatusNotFound},
		"Dangling Edge":      {"POST", "/bots/pizza/edges", map[string]string{"source": "greet", "target": "ghost"}, http.StatusUnprocessableEntity},
		"Malformed Body":     {"POST", "/bots/pizza/edges", "{", http.StatusBadRequest},
		"Unknown Field":      {"PATCH", "/bots/pizza/intents/greet", map[string]any{"isProtected": false}, http.StatusBadRequest},
		"Bad Export Format":  {"GET", "/bots/pizza/export?format=xml", nil, http.StatusBadRequest},
		"Bad Focus":          {"POST", "/bots/pizza/keys", map[string]string{"chord": "ctrl+z", "focus": "sidebar"}, http.StatusBadRequest},
		"Unknown Duplicate":  {"POST", "/bots/pizza/intents/ghost/duplicate", nil, http.StatusNotFound},
		"Unparsable Import":  {"POST", "/bots/pizza/import", "{\"name\":", http.StatusBadRequest},
		"Wrong Shape Import": {"POST", "/bots/pizza/import", `{"name":"x"}`, http.StatusBadRequest},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			w := f.do(t, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}
}

func TestServer_History(t *testing.T) {
	f := newFixture(t)

	f.do(t, "POST", "/bots/pizza/intents", nil)
	f.clock.Advance(history.DefaultDelay)

	w := f.do(t, "GET", "/bots/pizza/history", nil)
	assert.Equal(t, historyResponse{Undo: 2}, decodeBody[historyResponse](t, w))

	w = f.do(t, "POST", "/bots/pizza/history/undo", nil)
	assert.Equal(t, historyResponse{Changed: true, Undo: 1, Redo: 1}, decodeBody[historyResponse](t, w))

	w = f.do(t, "POST", "/bots/pizza/history/undo", nil)
	assert.Equal(t, historyResponse{Changed: false, Undo: 1, Redo: 1}, decodeBody[historyResponse](t, w))

	w = f.do(t, "POST", "/bots/pizza/history/redo", nil)
	assert.Equal(t, historyResponse{Changed: true, Undo: 2, Redo: 0}, decodeBody[historyResponse](t, w))
}

func TestServer_ExportImport(t *testing.T) {
	f := newFixture(t)

	f.do(t, "PUT", "/bots/pizza/metadata", domain.Metadata{Name: "Pizzabot", Avatar: "🍕", Personality: "cheerful"})
	f.do(t, "POST", "/bots/pizza/intents", nil)

	w := f.do(t, "GET", "/bots/pizza/export?format=yaml", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/yaml", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "name: Pizzabot")
	exported := w.Body.String()

	req := httptest.NewRequest("POST", "/bots/copy/import", strings.NewReader(exported))
	req.Header.Set("Content-Type", "application/yaml")
	w = httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decodeBody[domain.Graph](t, w).Nodes, 3)

	w = f.do(t, "GET", "/bots/copy/metadata", nil)
	assert.Equal(t, "Pizzabot", decodeBody[domain.Metadata](t, w).Name)

	w = f.do(t, "GET", "/bots/copy/export", nil)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `"version": "1.0"`)
}

func TestServer_Keys(t *testing.T) {
	f := newFixture(t)
	node := decodeBody[domain.Node](t, f.do(t, "POST", "/bots/pizza/intents", nil))

	t.Run("Guarded By Text Focus", func(t *testing.T) {
		w := f.do(t, "POST", "/bots/pizza/keys", keyRequest{Chord: "backspace", Focus: "text", Selected: node.ID})
		out := decodeBody[keyboard.Outcome](t, w)
		assert.False(t, out.Handled)
	})

	t.Run("Delete Awaits Confirmation", func(t *testing.T) {
		w := f.do(t, "POST", "/bots/pizza/keys", keyRequest{Chord: "delete", Selected: node.ID})
		out := decodeBody[keyboard.Outcome](t, w)
		assert.True(t, out.AwaitingConfirmation)
		assert.False(t, out.Changed)

		g := decodeBody[domain.Graph](t, f.do(t, "GET", "/bots/pizza/graph", nil))
		_, ok := g.Node(node.ID)
		assert.True(t, ok)
	})

	t.Run("Duplicate", func(t *testing.T) {
		w := f.do(t, "POST", "/bots/pizza/keys", keyRequest{Chord: "ctrl+d", Selected: node.ID})
		out := decodeBody[keyboard.Outcome](t, w)
		assert.True(t, out.Changed)
		assert.NotEqual(t, node.ID, out.NodeID)
	})
}

func TestServer_KeysSaveRecordsHistory(t *testing.T) {
	f := newFixture(t)
	f.do(t, "POST", "/bots/pizza/intents", nil)

	w := f.do(t, "POST", "/bots/pizza/keys", keyRequest{Chord: "ctrl+s"})
	out := decodeBody[keyboard.Outcome](t, w)
	require.True(t, out.Handled)

	h := decodeBody[historyResponse](t, f.do(t, "GET", "/bots/pizza/history", nil))
	assert.Equal(t, 2, h.Undo, "the pending edit is recorded on save")
}

func TestServer_SaveAndList(t *testing.T) {
	f := newFixture(t)
	f.do(t, "POST", "/bots/pizza/intents", nil)

	w := f.do(t, "POST", "/bots/pizza/save", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	names, err := f.snapshots.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"pizza"}, names)

	w = f.do(t, "GET", "/bots", nil)
	assert.Equal(t, []string{"pizza"}, decodeBody[map[string][]string](t, w)["bots"])
}

func TestServer_LintAndMermaid(t *testing.T) {
	f := newFixture(t)
	node := decodeBody[domain.Node](t, f.do(t, "POST", "/bots/pizza/intents", nil))

	w := f.do(t, "GET", "/bots/pizza/lint", nil)
	issues := decodeBody[map[string][]map[string]string](t, w)["issues"]
	var flagged bool
	for _, is := range issues {
		if is["node_id"] == node.ID {
			flagged = true
		}
	}
	assert.True(t, flagged, "a fresh intent is unreachable")

	w = f.do(t, "GET", "/bots/pizza/graph.mmd?selected="+domain.GreetID, nil)
	assert.True(t, strings.HasPrefix(w.Body.String(), "graph TD"))
}

func TestServer_LintCustomSeed(t *testing.T) {
	seed := domain.Graph{
		Nodes: []domain.Node{
			{ID: "welcome", Label: "Welcome", TrainingPhrases: []string{}, Responses: []string{"hi"}, IsProtected: true},
			{ID: "help", Label: "Help", TrainingPhrases: []string{}, Responses: []string{"sorry"}, IsProtected: true},
			{ID: "menu", Label: "Menu", TrainingPhrases: []string{"menu"}, Responses: []string{"here"}},
		},
		Edges: []domain.Edge{{ID: "e1", Source: "welcome", Target: "menu"}},
	}
	f := newFixture(t, intentflow.WithSeed(seed))

	w := f.do(t, "GET", "/bots/pizza/lint", nil)
	assert.Empty(t, decodeBody[map[string][]map[string]string](t, w)["issues"])

	w = f.do(t, "GET", "/bots/pizza/graph.mmd", nil)
	assert.NotContains(t, w.Body.String(), "class menu issue;")
}

func TestServer_ConcurrentDiffs(t *testing.T) {
	f := newFixture(t)
	f.do(t, "GET", "/bots/pizza/graph", nil)
	ch, cancel := f.server.Streams.Subscribe("pizza")
	defer cancel()

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.do(t, "POST", "/bots/pizza/intents", nil)
		}()
	}
	wg.Wait()

	seen := map[string]bool{}
	for i := 0; i < n; i++ {
		var diff domain.GraphDiff
		require.NoError(t, json.Unmarshal([]byte(<-ch), &diff))
		require.Len(t, diff.AddedNodes, 1, "each diff covers one request")
		seen[diff.AddedNodes[0]] = true
	}
	assert.Len(t, seen, n)
}

func TestSubscribeEvents(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/bots/pizza/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 16)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	next := func(prefix string) string {
		t.Helper()
		timeout := time.After(2 * time.Second)
		for {
			select {
			case l, ok := <-lines:
				if !ok {
					t.Fatalf("stream closed before %q", prefix)
				}
				if strings.HasPrefix(l, prefix) {
					return l
				}
			case <-timeout:
				t.Fatalf("timed out waiting for %q", prefix)
			}
		}
	}

	assert.Equal(t, "event: snapshot", next("event: snapshot"))
	snapshot := next("data: ")
	assert.Contains(t, snapshot, domain.GreetID)

	require.Eventually(t, func() bool { return f.server.Streams.Subscribers("pizza") == 1 }, time.Second, 5*time.Millisecond)
	created := decodeBody[domain.Node](t, f.do(t, "POST", "/bots/pizza/intents", nil))

	next("event: diff")
	var diff domain.GraphDiff
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(next("data: "), "data: ")), &diff))
	assert.Equal(t, []string{created.ID}, diff.AddedNodes)
}
