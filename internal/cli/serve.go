package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/rinzool/datahub/pkg/lineage"
	"github.com/rinzool/datahub/pkg/observability"
	"github.com/rinzool/datahub/pkg/registry"
	"github.com/rinzool/datahub/pkg/render"
	"github.com/rinzool/datahub/pkg/snapshot"
)

// serveCommand creates the serve command exposing a graph over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr         string
		registryPath string
	)

	cmd := &cobra.Command{
		Use:   "serve [graph.json]",
		Short: "Serve a lineage graph over an HTTP API",
		Long: `Serve a lineage graph over an HTTP API.

The serve command loads a graph file (produced by 'build') and exposes it:

  GET  /healthz                     liveness probe
  GET  /api/graph                   the full graph as JSON
  GET  /api/graph.dot               the graph in Graphviz DOT form
  GET  /api/nodes/{id}              a single node
  GET  /api/nodes/{id}/closure      the hierarchy closure of a node
  POST /api/nodes/{id}/toggle       toggle the node's selection cascade

The closure endpoint accepts ?direction=upstream|downstream and an optional
?stop=N level to stop at.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), args[0], registryPath, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&registryPath, "registry", "", "entity registry TOML file (default: built-in)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, input, registryPath, addr string) error {
	reg, err := loadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}

	doc, err := snapshot.ImportGraph(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}
	g, err := snapshot.ToGraph(doc, reg)
	if err != nil {
		return fmt.Errorf("rebuild graph: %w", err)
	}

	srv := newServer(g, reg, c.Logger)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	c.Logger.Info("serving lineage graph", "addr", addr, "nodes", g.NodeCount())
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// server wraps a graph behind a mutex: the graph itself is single-actor, so
// every request takes the lock.
type server struct {
	mu     sync.Mutex
	graph  *lineage.Graph
	reg    *registry.Registry
	logger *log.Logger
}

func newServer(g *lineage.Graph, reg *registry.Registry, logger *log.Logger) *server {
	if logger == nil {
		logger = log.Default()
	}
	return &server{graph: g, reg: reg, logger: logger}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/graph", s.handleGraph)
		r.Get("/graph.dot", s.handleGraphDOT)
		r.Route("/nodes/{id}", func(r chi.Router) {
			r.Get("/", s.handleNode)
			r.Get("/closure", s.handleClosure)
			r.Post("/toggle", s.handleToggle)
		})
	})
	return r
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		r = r.WithContext(withLogger(r.Context(), s.logger))
		next.ServeHTTP(w, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleGraph(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	doc, err := snapshot.FromGraph(s.graph)
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *server) handleGraphDOT(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	dot := render.ToDOT(s.graph, render.Options{})
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/vnd.graphviz")
	_, _ = w.Write([]byte(dot))
}

func (s *server) handleNode(w http.ResponseWriter, r *http.Request) {
	id, ok := nodeID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	n, found := s.graph.NodeByID(id)
	var out snapshot.Node
	if found {
		doc, err := snapshot.FromGraph(s.graph)
		if err != nil {
			s.mu.Unlock()
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		for _, sn := range doc.Nodes {
			if sn.ID == n.ID {
				out = sn
				break
			}
		}
	}
	s.mu.Unlock()

	if !found {
		writeError(w, http.StatusNotFound, fmt.Errorf("node %d: %w", id, lineage.ErrNodeNotFound))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// closureResponse lists a node's hierarchy closure in traversal order.
// Converging paths may repeat an id; the order and duplicates mirror the
// traversal exactly.
type closureResponse struct {
	Root      int    `json:"root"`
	Direction string `json:"direction"`
	Nodes     []int  `json:"nodes"`
}

func (s *server) handleClosure(w http.ResponseWriter, r *http.Request) {
	id, ok := nodeID(w, r)
	if !ok {
		return
	}

	direction := r.URL.Query().Get("direction")
	if direction == "" {
		direction = "upstream"
	}
	if direction != "upstream" && direction != "downstream" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("direction must be upstream or downstream"))
		return
	}
	// Upstream neighbors are a node's ancestors, reached via parents.
	towardRoot := direction == "upstream"

	stop := 0
	if v := r.URL.Query().Get("stop"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid stop level %q", v))
			return
		}
		stop = parsed
	}

	s.mu.Lock()
	n, found := s.graph.NodeByID(id)
	var ids []int
	if found {
		for _, m := range s.graph.HierarchyClosure(n, towardRoot, stop) {
			ids = append(ids, m.ID)
		}
	}
	s.mu.Unlock()

	if !found {
		writeError(w, http.StatusNotFound, fmt.Errorf("node %d: %w", id, lineage.ErrNodeNotFound))
		return
	}
	writeJSON(w, http.StatusOK, closureResponse{Root: id, Direction: direction, Nodes: ids})
}

// toggleResponse reports the selection state of every node after a toggle.
type toggleResponse struct {
	ID       int          `json:"id"`
	Selected map[int]bool `json:"selected"`
}

func (s *server) handleToggle(w http.ResponseWriter, r *http.Request) {
	id, ok := nodeID(w, r)
	if !ok {
		return
	}

	start := time.Now()
	s.mu.Lock()
	err := s.graph.Toggle(id)
	selected := make(map[int]bool)
	affected := 0
	if err == nil {
		for _, n := range s.graph.Nodes() {
			selected[n.ID] = n.Selected
			if n.Selected {
				affected++
			}
		}
	}
	s.mu.Unlock()

	if err == nil {
		observability.Graph().OnToggle(r.Context(), id, affected, time.Since(start))
	}
	loggerFromContext(r.Context()).Debug("toggled selection", "id", id, "err", err)

	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, lineage.ErrNodeNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, toggleResponse{ID: id, Selected: selected})
}

func nodeID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid node id %q", chi.URLParam(r, "id")))
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
