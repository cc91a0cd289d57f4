package api

import (
	"context"
	"errors"
	"net/http"

	"UpliftAPI/internal/domain/models"
	xhttp "UpliftAPI/pkg/http"
	xlogger "UpliftAPI/pkg/logger"

	"github.com/labstack/echo/v4"
)

const (
	codeScoringFailed     = "ERR_SCORING_FAILED"
	codeModelsUnavailable = "ERR_MODELS_UNAVAILABLE"
)

// Recommender scores one customer.
type Recommender interface {
	Recommend(ctx context.Context, c models.CustomerFeatures) (*models.PredictResponse, error)
}

// ModelStatus reports model readiness.
type ModelStatus interface {
	Ready() bool
	LoadError() error
	Info() []models.ModelInfo
}

// PredictEchoHandler serves the scoring and probe endpoints.
type PredictEchoHandler struct {
	logger *xlogger.Logger
	rec    Recommender
	status ModelStatus
	lazy   bool
}

func NewPredictEchoHandler(logger *xlogger.Logger, rec Recommender, status ModelStatus, lazy bool) *PredictEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &PredictEchoHandler{logger: logger, rec: rec, status: status, lazy: lazy}
}

func (h *PredictEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/predict", h.Predict)
	e.GET("/health", h.Health)
	e.GET("/ready", h.Ready)
}

// Predict scores the posted customer and returns the decision with both estimates.
func (h *PredictEchoHandler) Predict(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.UnprocessableEntityResponse(c, verr)
	}

	res, err := h.rec.Recommend(c.Request().Context(), req.Customer())
	if err != nil {
		return h.predictError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *PredictEchoHandler) predictError(c echo.Context, err error) error {
	var se *models.ScoringError
	switch {
	case errors.Is(err, models.ErrModelsUnavailable):
		h.logger.Warn("predict rejected: models unavailable", xlogger.Error(err))
		return xhttp.AppErrorResponse(c,
			xhttp.ServiceUnavailableError(codeModelsUnavailable, "models are not available").WithError(err))
	case errors.As(err, &se):
		return xhttp.AppErrorResponse(c,
			xhttp.InternalError(codeScoringFailed, "scoring failed").
				WithParam("model", se.Model).
				WithParam("branch", se.Branch).
				WithError(err))
	default:
		h.logger.Error("predict failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
}

// Health is a liveness probe.
func (h *PredictEchoHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type readyResponse struct {
	Status string             `json:"status"`
	Models []models.ModelInfo `json:"models"`
}

// Ready reports 200 once both models are loaded. In lazy mode a host that has
// not loaded yet is still ready, since the first request loads it.
func (h *PredictEchoHandler) Ready(c echo.Context) error {
	res := readyResponse{Status: "ready", Models: h.status.Info()}
	if h.status.Ready() {
		return c.JSON(http.StatusOK, res)
	}
	if h.lazy && h.status.LoadError() == nil {
		res.Status = "pending"
		return c.JSON(http.StatusOK, res)
	}
	res.Status = "unavailable"
	return c.JSON(http.StatusServiceUnavailable, res)
}
