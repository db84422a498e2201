package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/creditlens/creditlens/server/internal/metrics"
	"github.com/creditlens/creditlens/server/internal/model"
	"github.com/creditlens/creditlens/server/internal/scoring"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// maxBodyBytes caps the size of a /predict request body.
const maxBodyBytes = 1 << 20

// Options holds the optional collaborators of a Handler.
type Options struct {
	// Info describes the loaded artifact for GET /api/v1/model.
	Info model.Info

	// Metrics records prediction outcomes. Nil disables instrumentation.
	Metrics *metrics.Metrics

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Handler is the HTTP handler for the scoring routes.
type Handler struct {
	scorer  *scoring.Scorer
	info    model.Info
	metrics *metrics.Metrics
	logger  *slog.Logger
	mux     *http.ServeMux
}

// New creates a Handler backed by scorer and registers all routes.
func New(scorer *scoring.Scorer, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		scorer:  scorer,
		info:    opts.Info,
		metrics: opts.Metrics,
		logger:  logger,
		mux:     http.NewServeMux(),
	}

	h.mux.HandleFunc("/predict", h.predict)
	h.mux.HandleFunc("/healthz", h.health)
	h.mux.HandleFunc("/api/v1/model", h.modelInfo)

	return h
}

// ServeHTTP tags the request with an ID and dispatches it.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, id)
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// predict handles POST /predict.
func (h *Handler) predict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	start := time.Now()
	log := h.logger.With("request_id", w.Header().Get(RequestIDHeader))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.metrics.ObserveFailure(metrics.StageValidation, time.Since(start))
		log.Warn("predict: read body", "err", err)
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	fv, err := scoring.Decode(body)
	if err != nil {
		h.metrics.ObserveFailure(metrics.StageValidation, time.Since(start))
		var ve *scoring.ValidationError
		if errors.As(err, &ve) {
			log.Info("predict: rejected request", "fields", len(ve.Errors))
			jsonResp(w, http.StatusUnprocessableEntity, ValidationResponse{Detail: ve.Errors})
			return
		}
		jsonErr(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	res, err := h.scorer.Score(r.Context(), fv)
	if err != nil {
		h.metrics.ObserveFailure(metrics.StageScoring, time.Since(start))
		log.Warn("predict: scoring failed", "err", err)
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	h.metrics.ObservePrediction(res.Rating, time.Since(start))
	log.Debug("predict: scored",
		"prediction", res.Prediction,
		"rating", res.Rating,
		"duration", time.Since(start),
	)
	jsonResp(w, http.StatusOK, res)
}

// health handles GET /healthz. The service only serves once the artifact is
// loaded, so reaching this handler means it is ready.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// modelInfo handles GET /api/v1/model.
func (h *Handler) modelInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	names := h.info.FeatureNames
	if len(names) == 0 {
		names = scoring.FieldNames()
	}
	jsonResp(w, http.StatusOK, ModelResponse{
		Kind:             h.info.Kind,
		Name:             h.info.Name,
		FeatureNames:     names,
		NumFeatures:      h.info.NumFeatures,
		Classes:          h.info.Classes,
		HasProbabilities: h.scorer.HasProbabilities(),
	})
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Detail: msg})
}
