// Package http provides HTTP handlers for the gradecli API.
package http

import (
	"bytes"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"gradecli/internal/config"
	apierrors "gradecli/internal/errors"
	"gradecli/internal/infrastructure"
	"gradecli/internal/services"
)

// ModerationHandler handles gradebook upload, moderation, and export requests
type ModerationHandler struct {
	service  *services.ModerationService
	cfg      *config.Config
	logger   *slog.Logger
	validate *validator.Validate
}

// NewModerationHandler creates a new moderation handler
func NewModerationHandler(service *services.ModerationService, cfg *config.Config, logger *slog.Logger) *ModerationHandler {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &ModerationHandler{
		service:  service,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "moderation_handler")),
		validate: validator.New(),
	}
}

// Routes returns the router for gradebook endpoints
func (h *ModerationHandler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Post("/", h.Upload)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Post("/moderate", h.Moderate)
		r.Get("/export", h.Export)
	})

	return r
}

// Upload handles POST /api/gradebook with a multipart file field named "file"
func (h *ModerationHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := infrastructure.LoggerWithContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Server.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.cfg.Server.MaxUploadBytes); err != nil {
		logger.WarnContext(ctx, "multipart parse failed", slog.String("error", err.Error()))
		apierrors.WriteError(w, apierrors.InvalidRequestWithError(err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.WriteError(w, apierrors.NewWithDetails(
			http.StatusBadRequest, "MISSING_PARAMETER", "multipart field 'file' is required", err.Error()))
		return
	}
	defer file.Close()

	info, err := h.service.Upload(ctx, file, header.Filename)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, info)
}

// Get handles GET /api/gradebook/{id}
func (h *ModerationHandler) Get(w http.ResponseWriter, r *http.Request) {
	gb, err := h.service.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	render.JSON(w, r, gb)
}

// moderateRequest is the wire shape of a moderation request. Targets are
// pointers so omitted values fall back to the configured defaults.
type moderateRequest struct {
	Column            string   `json:"column"`
	MaxPoints         *float64 `json:"max_points"`
	TargetMean        *float64 `json:"target_mean"`
	TargetStd         *float64 `json:"target_std"`
	Policy            string   `json:"policy"`
	SoftFailThreshold float64  `json:"soft_fail_threshold"`
	GentleBoostDelta  float64  `json:"gentle_boost_delta"`
	CuspRule          string   `json:"cusp_rule"`
}

// Moderate handles POST /api/gradebook/{id}/moderate
func (h *ModerationHandler) Moderate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req moderateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		apierrors.WriteError(w, apierrors.InvalidRequestWithError(err))
		return
	}

	params := services.ModerateParams{
		Column:            req.Column,
		MaxPoints:         req.MaxPoints,
		TargetMean:        h.cfg.Moderation.DefaultTargetMean,
		TargetStd:         h.cfg.Moderation.DefaultTargetStd,
		Policy:            req.Policy,
		SoftFailThreshold: req.SoftFailThreshold,
		GentleBoostDelta:  req.GentleBoostDelta,
		CuspRule:          req.CuspRule,
	}
	if req.TargetMean != nil {
		params.TargetMean = *req.TargetMean
	}
	if req.TargetStd != nil {
		params.TargetStd = *req.TargetStd
	}

	if err := h.validate.Struct(params); err != nil {
		apierrors.WriteError(w, validationError(err))
		return
	}

	result, err := h.service.Moderate(ctx, id, params)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, result)
}

// Export handles GET /api/gradebook/{id}/export?format=csv|xlsx
func (h *ModerationHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	format := r.URL.Query().Get("format")

	// Buffer the export so errors surface before any bytes hit the wire
	var buf bytes.Buffer
	filename, err := h.service.Export(ctx, id, format, &buf)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	contentType := "text/csv; charset=utf-8"
	if format == "xlsx" {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, &buf); err != nil {
		h.logger.WarnContext(ctx, "export write interrupted", slog.String("error", err.Error()))
	}
}

// writeServiceError maps service and pipeline errors onto API errors
func (h *ModerationHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	logger := infrastructure.LoggerWithContext(r.Context())

	switch {
	case stderrors.Is(err, services.ErrGradebookNotFound):
		apierrors.WriteError(w, apierrors.ErrGradebookNotFound)
	case stderrors.Is(err, services.ErrNotModerated):
		apierrors.WriteError(w, apierrors.New(
			http.StatusConflict, "NOT_MODERATED", "gradebook has not been moderated yet"))
	case stderrors.Is(err, services.ErrInvalidFormat):
		apierrors.WriteError(w, apierrors.New(
			http.StatusBadRequest, "INVALID_PARAMETER", "export format must be csv or xlsx"))
	case apierrors.IsType(err, apierrors.ErrTypeParsing):
		apierrors.WriteError(w, apierrors.ParseFailedError(err))
	case apierrors.IsType(err, apierrors.ErrTypeNoScoredColumns):
		apierrors.WriteError(w, apierrors.ErrNoScoredColumns)
	case apierrors.IsType(err, apierrors.ErrTypeValidation):
		apierrors.WriteError(w, apierrors.NewValidationError(err.Error()))
	default:
		logger.ErrorContext(r.Context(), "moderation request failed", slog.String("error", err.Error()))
		apierrors.WriteError(w, apierrors.ModerationFailedError(err))
	}
}

// validationError flattens validator.ValidationErrors into an API error
func validationError(err error) *apierrors.APIError {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return apierrors.NewValidationError(err.Error())
	}

	fields := make([]apierrors.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: fe.Tag(),
		})
	}
	return apierrors.NewValidationErrors(fields)
}
