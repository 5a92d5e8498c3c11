package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type timetableConfigurator interface {
	CreateConfig(ctx context.Context, req dto.CreateTimetableConfigRequest) (*models.TimetableConfig, error)
	ActiveConfig(ctx context.Context) (*models.TimetableConfig, error)
	ActivateConfig(ctx context.Context, id string) (*models.TimetableConfig, error)
}

// TimetableConfigHandler manages timetable grid configurations.
type TimetableConfigHandler struct {
	service timetableConfigurator
}

// NewTimetableConfigHandler constructs the handler.
func NewTimetableConfigHandler(svc timetableConfigurator) *TimetableConfigHandler {
	return &TimetableConfigHandler{service: svc}
}

// Create godoc
// @Summary Create timetable config
// @Description Omitted periodsPerDay, daysOfWeek and periodDurationMinutes fall back to server defaults.
// @Tags Timetable Configs
// @Accept json
// @Produce json
// @Param payload body dto.CreateTimetableConfigRequest true "Config payload"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /timetable-configs [post]
func (h *TimetableConfigHandler) Create(c *gin.Context) {
	var req dto.CreateTimetableConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid timetable config payload"))
		return
	}
	cfg, err := h.service.CreateConfig(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cfg)
}

// Active godoc
// @Summary Get active timetable config
// @Tags Timetable Configs
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable-configs/active [get]
func (h *TimetableConfigHandler) Active(c *gin.Context) {
	cfg, err := h.service.ActiveConfig(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg)
}

// Activate godoc
// @Summary Activate timetable config
// @Tags Timetable Configs
// @Produce json
// @Param id path string true "Config ID"
// @Success 200 {object} response.Envelope
// @Router /timetable-configs/{id}/activate [post]
func (h *TimetableConfigHandler) Activate(c *gin.Context) {
	cfg, err := h.service.ActivateConfig(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg)
}
