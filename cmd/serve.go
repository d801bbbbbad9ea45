package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lifelens/lifelens-cli/internal/engine"
	"github.com/lifelens/lifelens-cli/internal/forecast"
	"github.com/lifelens/lifelens-cli/internal/model"
	"github.com/lifelens/lifelens-cli/internal/refiner"
	"github.com/lifelens/lifelens-cli/internal/scenario"
	"github.com/lifelens/lifelens-cli/internal/store"
)

var servePort int

// cachePruneInterval is how often expired card cache rows are deleted.
const cachePruneInterval = time.Hour

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		gen := initGenerator()
		api := &apiServer{
			store:      st,
			refiner:    buildRefiner(gen, st, false),
			local:      refiner.Local{},
			forecaster: buildForecaster(gen),
			palette:    cfg.Refiner.Palette,
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(api, cfg.Server.AllowedOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go pruneCardCache(ctx, st, cachePruneInterval)

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// pruneCardCache deletes expired cache rows now and then every interval
// until ctx is done.
func pruneCardCache(ctx context.Context, st store.Store, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		n, err := st.DeleteExpiredCards(ctx)
		if err != nil {
			zap.L().Warn("prune card cache failed", zap.Error(err))
		} else if n > 0 {
			zap.L().Debug("pruned card cache", zap.Int("deleted", n))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// apiServer holds the dependencies of the HTTP handlers.
type apiServer struct {
	store      store.Store
	refiner    refiner.Refiner
	local      refiner.Refiner
	forecaster *forecast.Forecaster
	palette    string
}

// newRouter builds the chi router for the HTTP API.
func newRouter(s *apiServer, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/assess", s.handleAssess)
		r.Post("/cards", s.handleCards)
		r.Post("/forecast", s.handleForecast)

		r.Get("/scenarios", s.handleListScenarios)
		r.Get("/scenarios/{name}", s.handleGetScenario)

		r.Get("/todos", s.handleListTodos)
		r.Post("/todos", s.handleAddTodo)
		r.Delete("/todos", s.handleClearTodos)
		r.Post("/todos/{actionID}/toggle", s.handleToggleTodo)
		r.Delete("/todos/{actionID}", s.handleRemoveTodo)

		r.Get("/assessments", s.handleListAssessments)
		r.Get("/assessments/{id}", s.handleGetAssessment)
	})

	return r
}

// inputRequest names the health input either inline or by scenario.
type inputRequest struct {
	Input    *model.RawHealthInput `json:"input,omitempty"`
	Scenario string                `json:"scenario,omitempty"`
}

func (req inputRequest) resolve() (model.RawHealthInput, error) {
	switch {
	case req.Input != nil && req.Scenario != "":
		return model.RawHealthInput{}, eris.New("use either input or scenario, not both")
	case req.Input != nil:
		return *req.Input, nil
	case req.Scenario != "":
		return scenario.Get(req.Scenario)
	default:
		return model.RawHealthInput{}, eris.New("input or scenario is required")
	}
}

type assessRequest struct {
	inputRequest
	Save bool `json:"save"`
}

type assessResponse struct {
	model.EngineOutput
	AssessmentID string `json:"assessment_id,omitempty"`
}

func (s *apiServer) handleAssess(w http.ResponseWriter, r *http.Request) {
	var req assessRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.resolve()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := assessResponse{EngineOutput: engine.Run(in)}
	if req.Save {
		a, err := s.store.SaveAssessment(r.Context(), in, resp.EngineOutput)
		if err != nil {
			s.internalError(w, "save assessment", err)
			return
		}
		resp.AssessmentID = a.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

type cardsRequest struct {
	inputRequest
	Palette string            `json:"palette,omitempty"`
	Offline bool              `json:"offline,omitempty"`
	Prior   *model.AppPayload `json:"prior,omitempty"`
}

type cardsResponse struct {
	Payload   model.AppPayload    `json:"payload"`
	Partition refiner.Partitioned `json:"partition"`
}

func (s *apiServer) handleCards(w http.ResponseWriter, r *http.Request) {
	var req cardsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.resolve()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	palette := req.Palette
	if palette == "" {
		palette = s.palette
	}
	rf := s.refiner
	if req.Offline {
		rf = s.local
	}

	todos, err := s.store.ListTodos(r.Context())
	if err != nil {
		s.internalError(w, "list todos", err)
		return
	}

	payload, err := refiner.Serialize(r.Context(), rf, engine.Run(in), palette, req.Prior, todos)
	if err != nil {
		s.internalError(w, "refine cards", err)
		return
	}
	writeJSON(w, http.StatusOK, cardsResponse{Payload: payload, Partition: refiner.Partition(payload)})
}

type forecastRequest struct {
	inputRequest
	HorizonMonths int `json:"horizon_months"`
}

func (s *apiServer) handleForecast(w http.ResponseWriter, r *http.Request) {
	req := forecastRequest{HorizonMonths: forecast.DefaultHorizonMonths}
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.resolve()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	f, err := s.forecaster.Simulate(r.Context(), forecast.Request{
		TodayMetrics:  forecast.TodayMetrics(engine.DeriveDrivers(in)),
		HorizonMonths: req.HorizonMonths,
	})
	if err != nil {
		s.internalError(w, "forecast", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *apiServer) handleListScenarios(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"scenarios": scenario.Names()})
}

func (s *apiServer) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	in, err := scenario.Get(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, in)
}

func (s *apiServer) handleListTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := s.store.ListTodos(r.Context())
	if err != nil {
		s.internalError(w, "list todos", err)
		return
	}
	writeJSON(w, http.StatusOK, todos)
}

func (s *apiServer) handleAddTodo(w http.ResponseWriter, r *http.Request) {
	var card model.Card
	if !decodeJSON(w, r, &card) {
		return
	}
	todos, err := s.store.AddTodoFromCard(r.Context(), card)
	if errors.Is(err, store.ErrNoActionID) {
		writeError(w, http.StatusBadRequest, "actionId is required")
		return
	}
	if err != nil {
		s.internalError(w, "add todo", err)
		return
	}
	writeJSON(w, http.StatusOK, todos)
}

func (s *apiServer) handleClearTodos(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ClearTodos(r.Context()); err != nil {
		s.internalError(w, "clear todos", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleToggleTodo(w http.ResponseWriter, r *http.Request) {
	todos, err := s.store.ToggleTodo(r.Context(), chi.URLParam(r, "actionID"))
	if err != nil {
		s.internalError(w, "toggle todo", err)
		return
	}
	writeJSON(w, http.StatusOK, todos)
}

func (s *apiServer) handleRemoveTodo(w http.ResponseWriter, r *http.Request) {
	todos, err := s.store.RemoveTodo(r.Context(), chi.URLParam(r, "actionID"))
	if err != nil {
		s.internalError(w, "remove todo", err)
		return
	}
	writeJSON(w, http.StatusOK, todos)
}

func (s *apiServer) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	list, err := s.store.ListAssessments(r.Context(), limit)
	if err != nil {
		s.internalError(w, "list assessments", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *apiServer) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.GetAssessment(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "assessment not found")
		return
	}
	if err != nil {
		s.internalError(w, "get assessment", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *apiServer) internalError(w http.ResponseWriter, action string, err error) {
	zap.L().Error("api: "+action, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

// writeJSON writes v as a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// decodeJSON decodes the request body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
