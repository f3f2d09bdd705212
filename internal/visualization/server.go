package visualization

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anon96881/PythiaEvolution/internal/config"
	"github.com/anon96881/PythiaEvolution/internal/logging"
	"github.com/anon96881/PythiaEvolution/internal/metrics"
	"github.com/anon96881/PythiaEvolution/internal/neuron"
	"github.com/anon96881/PythiaEvolution/internal/store"
)

// Server serves the interactive dashboard and its JSON API.
type Server struct {
	cache  *store.Cache
	cfg    *config.Config
	logger *slog.Logger
	page   *template.Template

	httpServer *http.Server
	listener   net.Listener
	mu         sync.Mutex
	addr       string
}

// NewServer creates a dashboard server reading datasets through cache.
func NewServer(cache *store.Cache, cfg *config.Config, logger *slog.Logger) *Server {
	return &Server{
		cache:  cache,
		cfg:    cfg,
		logger: logging.Component(logger, "dashboard"),
		page:   template.Must(parsePage("dashboard")),
	}
}

// Addr returns the address the server is listening on (e.g., "localhost:PORT").
// Returns empty string if the server hasn't started yet.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Handler returns the dashboard router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.observe)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/models", s.handleModels)
		r.Get("/neurons", s.handleNeurons)
		r.Get("/panel", s.handlePanel)
	})
	return r
}

// ListenAndServe starts the HTTP server on the configured address and blocks
// until the context is cancelled. Returns nil on clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.mu.Lock()
	s.listener = ln
	s.addr = ln.Addr().String()
	s.httpServer = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	s.mu.Unlock()

	s.logger.Info("dashboard listening", "addr", s.addr)

	// Graceful shutdown when context is cancelled.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	err = s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// observe records request metrics and logs each request at DEBUG.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())

		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
	})
}

// selection is a parsed model/neuron/step query.
type selection struct {
	model   config.ModelVariant
	id      neuron.ID
	step    int
	hasStep bool
}

// parseSelection reads model, layer, neuron and step query parameters.
// Missing values default to the first model, L0N0 and the first checkpoint.
func (s *Server) parseSelection(r *http.Request) (selection, error) {
	q := r.URL.Query()
	var sel selection

	if name := q.Get("model"); name != "" {
		m, ok := s.cfg.Model(name)
		if !ok {
			return sel, fmt.Errorf("%w %q", store.ErrUnknownModel, name)
		}
		sel.model = m
	} else {
		sel.model = s.cfg.Models[0]
	}

	if raw := q.Get("id"); raw != "" {
		id, err := neuron.ParseID(raw)
		if err != nil {
			return sel, err
		}
		sel.id = id
	} else {
		var err error
		if sel.id.Layer, err = intParam(q.Get("layer")); err != nil {
			return sel, fmt.Errorf("layer: %w", err)
		}
		if sel.id.Index, err = intParam(q.Get("neuron")); err != nil {
			return sel, fmt.Errorf("neuron: %w", err)
		}
	}

	if raw := q.Get("step"); raw != "" {
		step, err := strconv.Atoi(raw)
		if err != nil {
			return sel, fmt.Errorf("step: %w", err)
		}
		sel.step, sel.hasStep = step, true
	}
	return sel, nil
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("must not be negative, got %d", v)
	}
	return v, nil
}

// panelView is one side of the comparison: a panel or the reason it is missing.
type panelView struct {
	Step  int    `json:"step"`
	Panel *Panel `json:"panel,omitempty"`
	Error string `json:"error,omitempty"`
}

// view is the resolved state of one dashboard selection.
type view struct {
	Model      string            `json:"model"`
	ID         string            `json:"id"`
	Steps      []int             `json:"steps"`
	Checkpoint panelView         `json:"checkpoint"`
	Reference  panelView         `json:"reference"`
	LoadErrors []store.LoadError `json:"load_errors"`
}

// resolve builds both panels for sel. The returned error wraps ErrNoData or
// ErrNeuronNotFound when there is nothing to show; a missing checkpoint is
// reported on its panel only.
func (s *Server) resolve(ctx context.Context, sel selection) (*view, error) {
	v := &view{Model: sel.model.Key, ID: sel.id.String(), Steps: make([]int, 0), LoadErrors: make([]store.LoadError, 0)}

	ds, err := s.cache.Load(ctx, sel.model)
	if ds != nil {
		v.LoadErrors = ds.LoadErrors
	}
	if err != nil {
		return v, err
	}

	series, err := ds.Lookup(sel.id)
	if err != nil {
		metrics.ObservePanel("dashboard", "missing_neuron")
		return v, err
	}
	v.Steps = series.Steps()

	step := sel.step
	if !sel.hasStep && len(v.Steps) > 0 {
		step = v.Steps[0]
	}
	opts := OptionsFrom(s.cfg.Render)

	v.Checkpoint.Step = step
	if rec, err := ds.Checkpoint(sel.id, step); err != nil {
		v.Checkpoint.Error = "No data available for this checkpoint"
		metrics.ObservePanel("dashboard", "missing_checkpoint")
	} else {
		p := BuildPanel(rec, false, opts)
		v.Checkpoint.Panel = &p
		metrics.ObservePanel("dashboard", "ok")
	}

	v.Reference.Step = s.cfg.Render.ReferenceStep
	if rec, err := ds.Reference(sel.id, s.cfg.Render.ReferenceStep); err != nil {
		v.Reference.Error = "No final data available"
		metrics.ObservePanel("dashboard", "missing_checkpoint")
	} else {
		p := BuildPanel(rec, true, opts)
		v.Reference.Step = rec.Step
		v.Reference.Panel = &p
		metrics.ObservePanel("dashboard", "ok")
	}
	return v, nil
}

// dashboardPage is the data passed to the dashboard template.
type dashboardPage struct {
	Models     []config.ModelVariant
	Model      config.ModelVariant
	Layer      int
	Neuron     int
	View       *view
	Fatal      string
	Unselected string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sel, err := s.parseSelection(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	page := dashboardPage{
		Models: s.cfg.Models,
		Model:  sel.model,
		Layer:  sel.id.Layer,
		Neuron: sel.id.Index,
	}

	v, err := s.resolve(r.Context(), sel)
	page.View = v
	switch {
	case errors.Is(err, store.ErrNoData):
		page.Fatal = fmt.Sprintf("No neuron data found for %s. Please make sure the results directory exists and contains the required files.", sel.model.Name)
	case errors.Is(err, store.ErrNeuronNotFound):
		page.Unselected = "No data available for " + sel.id.String()
	case err != nil:
		s.logger.Error("failed to load dataset", "model", sel.model.Key, "error", err)
		http.Error(w, "load error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, page); err != nil {
		s.logger.Error("failed to render dashboard", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// modelInfo is the API form of a model variant.
type modelInfo struct {
	Key        string `json:"key"`
	Name       string `json:"name"`
	MaxLayer   int    `json:"max_layer"`
	MaxNeuron  int    `json:"max_neuron"`
	NeuronStep int    `json:"neuron_step"`
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	out := make([]modelInfo, 0, len(s.cfg.Models))
	for _, m := range s.cfg.Models {
		out = append(out, modelInfo{Key: m.Key, Name: m.Name, MaxLayer: m.MaxLayer, MaxNeuron: m.MaxNeuron, NeuronStep: m.NeuronStep})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"models": out})
}

func (s *Server) handleNeurons(w http.ResponseWriter, r *http.Request) {
	sel, err := s.parseSelection(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ds, err := s.cache.Load(r.Context(), sel.model)
	if err != nil && !errors.Is(err, store.ErrNoData) {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if ds == nil {
		ds = store.NewDataset(sel.model)
	}

	ids := make([]string, 0, len(ds.IDs))
	for _, id := range ds.IDs {
		ids = append(ids, id.String())
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"model":       sel.model.Key,
		"neurons":     ids,
		"load_errors": ds.LoadErrors,
	})
}

func (s *Server) handlePanel(w http.ResponseWriter, r *http.Request) {
	sel, err := s.parseSelection(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	v, err := s.resolve(r.Context(), sel)
	switch {
	case errors.Is(err, store.ErrNoData):
		writeError(w, http.StatusNotFound, fmt.Sprintf("No neuron data found for %s", sel.model.Name))
		return
	case errors.Is(err, store.ErrNeuronNotFound):
		writeError(w, http.StatusNotFound, "No data available for "+sel.id.String())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
