package restserver

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/chrissnell/hydrosim/internal/hydro"
	"github.com/chrissnell/hydrosim/internal/storage"
	"github.com/chrissnell/hydrosim/pkg/config"
	"github.com/chrissnell/hydrosim/pkg/responseformat"
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

func (h *Handlers) respond(w http.ResponseWriter, req *http.Request, status int, data any) {
	if err := h.formatter.WriteResponse(w, req, status, data); err != nil {
		h.controller.logger.Errorf("error encoding response: %v", err)
	}
}

// respondError maps an error to a status code and writes an ErrorResponse
func (h *Handlers) respondError(w http.ResponseWriter, req *http.Request, err error) {
	status, body := h.errorResponse(err)
	h.respond(w, req, status, body)
}

func (h *Handlers) errorResponse(err error) (int, ErrorResponse) {
	body := ErrorResponse{Error: err.Error()}
	status := http.StatusInternalServerError

	computeErrs := hydro.ComputeErrors(err)
	switch {
	case len(computeErrs) > 0:
		status = http.StatusUnprocessableEntity
		first := computeErrs[0]
		body.Kind = string(first.Kind)
		body.Op = first.Op
		body.Period = periodOf(first)
		for _, ce := range computeErrs {
			body.Errors = append(body.Errors, ComputeErrorDetail{
				Kind:   string(ce.Kind),
				Op:     ce.Op,
				Period: periodOf(ce),
				Detail: ce.Detail,
			})
		}
	case errors.Is(err, hydro.ErrInvalidInput), errors.Is(err, hydro.ErrDivisionByZero):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, storage.ErrRunNotFound), errors.Is(err, config.ErrScenarioNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		h.controller.logger.Errorf("request failed: %v", err)
	}
	return status, body
}

func periodOf(ce *hydro.ComputeError) *int {
	if ce.Period < 0 {
		return nil
	}
	period := ce.Period
	return &period
}

func (h *Handlers) badRequest(w http.ResponseWriter, req *http.Request, msg string) {
	h.respond(w, req, http.StatusBadRequest, ErrorResponse{Error: msg})
}

// resolveParameters picks the request's parameters, falling back to the
// named scenario's
func (h *Handlers) resolveParameters(r *SimulateRequest) (hydro.Parameters, error) {
	if r.Parameters != nil {
		return *r.Parameters, nil
	}
	if r.Scenario == "" {
		return hydro.Parameters{}, fmt.Errorf("%w: parameters or scenario required", hydro.ErrInvalidInput)
	}

	cfg, err := h.controller.configProvider.LoadConfig()
	if err != nil {
		return hydro.Parameters{}, fmt.Errorf("error loading configuration: %w", err)
	}
	sc, err := cfg.FindScenario(r.Scenario)
	if err != nil {
		return hydro.Parameters{}, err
	}
	return sc.Parameters.Model(), nil
}

// Simulate runs the model over the posted periods
func (h *Handlers) Simulate(w http.ResponseWriter, req *http.Request) {
	var body SimulateRequest
	if err := h.formatter.DecodeRequest(req, &body); err != nil {
		h.badRequest(w, req, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	params, err := h.resolveParameters(&body)
	if err != nil {
		h.respondError(w, req, err)
		return
	}

	started := time.Now()
	res, runErr := hydro.Run(params, body.Periods)
	elapsed := time.Since(started)

	var idx *hydro.Indices
	if runErr == nil {
		idx = &res.Indices
	}
	h.controller.metrics.ObserveRun(body.Scenario, len(body.Periods), elapsed, idx, runErr)

	var runID string
	if body.Save {
		record := storage.NewRunRecord(body.Scenario, started, params, body.Periods, res, runErr)
		if err := h.controller.store.SaveRun(req.Context(), record); err != nil {
			h.respondError(w, req, fmt.Errorf("could not save run: %w", err))
			return
		}
		runID = record.ID.String()
	}

	if runErr != nil {
		status, errBody := h.errorResponse(runErr)
		// A run that simulated but could not be scored still returns its storages.
		if len(res.Outputs) > 0 {
			errBody.Periods = newSimulateResponse(res).Periods
			errBody.RunID = runID
		}
		h.respond(w, req, status, errBody)
		return
	}

	resp := newSimulateResponse(res)
	resp.RunID = runID
	resp.Scenario = body.Scenario
	resp.Parameters = params
	resp.Duration = elapsed
	h.respond(w, req, http.StatusOK, resp)
}

// GetScenarios lists the configured scenarios
func (h *Handlers) GetScenarios(w http.ResponseWriter, req *http.Request) {
	scenarios, err := h.controller.configProvider.GetScenarios()
	if err != nil {
		h.respondError(w, req, fmt.Errorf("error loading scenarios: %w", err))
		return
	}
	if scenarios == nil {
		scenarios = []config.ScenarioData{}
	}
	h.respond(w, req, http.StatusOK, scenarios)
}

// GetRuns lists stored runs, optionally filtered by ?scenario=
func (h *Handlers) GetRuns(w http.ResponseWriter, req *http.Request) {
	runs, err := h.controller.store.ListRuns(req.Context(), req.URL.Query().Get("scenario"))
	if err != nil {
		h.respondError(w, req, err)
		return
	}
	if runs == nil {
		runs = []storage.RunSummary{}
	}
	h.respond(w, req, http.StatusOK, runs)
}

// GetRun returns one stored run with its period data
func (h *Handlers) GetRun(w http.ResponseWriter, req *http.Request) {
	id, err := uuid.Parse(mux.Vars(req)["id"])
	if err != nil {
		h.badRequest(w, req, "invalid run id")
		return
	}

	run, err := h.controller.store.GetRun(req.Context(), id)
	if err != nil {
		h.respondError(w, req, err)
		return
	}
	h.respond(w, req, http.StatusOK, run)
}

// GetHealth reports whether the result store is reachable and, for
// migrated backends, its schema version
func (h *Handlers) GetHealth(w http.ResponseWriter, req *http.Request) {
	body := map[string]any{"status": "ok"}
	if sv, ok := h.controller.store.(storage.SchemaVersioner); ok {
		if current, latest, err := sv.SchemaVersion(req.Context()); err == nil {
			body["schema_version"] = current
			body["schema_latest"] = latest
		}
	}
	if hc, ok := h.controller.store.(storage.HealthChecker); ok {
		if err := hc.CheckHealth(req.Context()); err != nil {
			body["status"] = "unhealthy"
			body["error"] = err.Error()
			h.respond(w, req, http.StatusServiceUnavailable, body)
			return
		}
	}
	h.respond(w, req, http.StatusOK, body)
}
