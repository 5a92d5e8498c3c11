package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type timetableEngine interface {
	CreateTimetable(ctx context.Context, req dto.CreateTimetableRequest) (*models.TimetableDetail, error)
	GetTimetable(ctx context.Context, id string) (*models.TimetableDetail, error)
	Generate(ctx context.Context, actor string, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
	DetectConflicts(ctx context.Context, timetableID string) (*dto.ConflictReport, error)
	PlaceManualEntry(ctx context.Context, actor string, req dto.ManualEntryRequest) (*models.TimetableEntry, error)
	DeleteEntry(ctx context.Context, actor string, req dto.DeleteEntryRequest) error
	SwapEntries(ctx context.Context, actor string, req dto.SwapEntriesRequest) (*dto.SwapEntriesResponse, error)
}

type timetableVersioner interface {
	ListVersions(ctx context.Context, timetableID string) ([]models.TimetableVersion, error)
	CreateManualVersion(ctx context.Context, actor string, req dto.CreateVersionRequest) (*models.TimetableVersion, error)
	ListChanges(ctx context.Context, timetableID, versionID string) ([]models.TimetableChangeLog, error)
	AddChange(ctx context.Context, timetableID, actor string, req dto.RecordChangeRequest) (*models.TimetableChangeLog, error)
}

type timetableExporter interface {
	Export(ctx context.Context, req dto.ExportTimetableRequest) (*dto.ExportResult, error)
}

// TimetableHandler exposes timetable generation, conflict and versioning endpoints.
type TimetableHandler struct {
	engine   timetableEngine
	versions timetableVersioner
	exporter timetableExporter
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(engine timetableEngine, versions timetableVersioner, exporter timetableExporter) *TimetableHandler {
	return &TimetableHandler{engine: engine, versions: versions, exporter: exporter}
}

// Create godoc
// @Summary Create timetable
// @Description Creates a timetable, optionally with an initial conflict-free set of entries.
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.CreateTimetableRequest true "Timetable payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetables [post]
func (h *TimetableHandler) Create(c *gin.Context) {
	var req dto.CreateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid timetable payload"))
		return
	}
	detail, err := h.engine.CreateTimetable(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// Get godoc
// @Summary Get timetable with entries
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/{id} [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	detail, err := h.engine.GetTimetable(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail)
}

// Generate godoc
// @Summary Generate timetable
// @Description Replaces every unlocked entry with a fresh conflict-free placement and records a new active version. The body is optional.
// @Tags Timetables
// @Accept json
// @Produce json
// @Param id path string true "Timetable ID"
// @Param payload body dto.GenerateTimetableRequest false "Generate payload"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /timetables/{id}/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	req.TimetableID = c.Param("id")
	result, err := h.engine.Generate(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, map[string]interface{}{"skippedCount": result.SkippedCount})
}

// Conflicts godoc
// @Summary Detect timetable conflicts
// @Description Lists every teacher or class booked twice in the same slot.
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/conflicts [get]
func (h *TimetableHandler) Conflicts(c *gin.Context) {
	report, err := h.engine.DetectConflicts(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, map[string]interface{}{"count": len(report.Conflicts)})
}

// CreateEntry godoc
// @Summary Place entry manually
// @Tags Timetables
// @Accept json
// @Produce json
// @Param id path string true "Timetable ID"
// @Param payload body dto.ManualEntryRequest true "Entry payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetables/{id}/entries [post]
func (h *TimetableHandler) CreateEntry(c *gin.Context) {
	var req dto.ManualEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid entry payload"))
		return
	}
	req.TimetableID = c.Param("id")
	req.EntryID = ""
	entry, err := h.engine.PlaceManualEntry(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// UpdateEntry godoc
// @Summary Move or update entry
// @Tags Timetables
// @Accept json
// @Produce json
// @Param id path string true "Timetable ID"
// @Param entryId path string true "Entry ID"
// @Param payload body dto.ManualEntryRequest true "Entry payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetables/{id}/entries/{entryId} [put]
func (h *TimetableHandler) UpdateEntry(c *gin.Context) {
	var req dto.ManualEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid entry payload"))
		return
	}
	req.TimetableID = c.Param("id")
	req.EntryID = c.Param("entryId")
	entry, err := h.engine.PlaceManualEntry(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry)
}

// DeleteEntry godoc
// @Summary Delete entry
// @Tags Timetables
// @Param id path string true "Timetable ID"
// @Param entryId path string true "Entry ID"
// @Param logChange query bool false "Record a change log under the active version"
// @Param reason query string false "Change reason"
// @Success 204
// @Router /timetables/{id}/entries/{entryId} [delete]
func (h *TimetableHandler) DeleteEntry(c *gin.Context) {
	req := dto.DeleteEntryRequest{
		TimetableID: c.Param("id"),
		EntryID:     c.Param("entryId"),
	}
	if raw := c.Query("logChange"); raw != "" {
		logChange, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "logChange must be a boolean"))
			return
		}
		req.LogChange = logChange
	}
	if reason := c.Query("reason"); reason != "" {
		req.Reason = &reason
	}
	if err := h.engine.DeleteEntry(c.Request.Context(), actorFromContext(c), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SwapEntries godoc
// @Summary Swap the slots of two entries
// @Tags Timetables
// @Accept json
// @Produce json
// @Param id path string true "Timetable ID"
// @Param payload body dto.SwapEntriesRequest true "Swap payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetables/{id}/entries/swap [post]
func (h *TimetableHandler) SwapEntries(c *gin.Context) {
	var req dto.SwapEntriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid swap payload"))
		return
	}
	req.TimetableID = c.Param("id")
	result, err := h.engine.SwapEntries(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// ListVersions godoc
// @Summary List timetable versions
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/versions [get]
func (h *TimetableHandler) ListVersions(c *gin.Context) {
	versions, err := h.versions.ListVersions(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, versions)
}

// CreateVersion godoc
// @Summary Record a manual version marker
// @Tags Timetables
// @Accept json
// @Produce json
// @Param id path string true "Timetable ID"
// @Param payload body dto.CreateVersionRequest false "Version payload"
// @Success 201 {object} response.Envelope
// @Router /timetables/{id}/versions [post]
func (h *TimetableHandler) CreateVersion(c *gin.Context) {
	var req dto.CreateVersionRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid version payload"))
		return
	}
	req.TimetableID = c.Param("id")
	version, err := h.versions.CreateManualVersion(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, version)
}

// ListChanges godoc
// @Summary List change logs of a version
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable ID"
// @Param versionId path string true "Version ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/versions/{versionId}/changes [get]
func (h *TimetableHandler) ListChanges(c *gin.Context) {
	logs, err := h.versions.ListChanges(c.Request.Context(), c.Param("id"), c.Param("versionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs)
}

// RecordChange godoc
// @Summary Append a change log to a version
// @Tags Timetables
// @Accept json
// @Produce json
// @Param id path string true "Timetable ID"
// @Param versionId path string true "Version ID"
// @Param payload body dto.RecordChangeRequest true "Change payload"
// @Success 201 {object} response.Envelope
// @Router /timetables/{id}/versions/{versionId}/changes [post]
func (h *TimetableHandler) RecordChange(c *gin.Context) {
	var req dto.RecordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid change payload"))
		return
	}
	req.VersionID = c.Param("versionId")
	log, err := h.versions.AddChange(c.Request.Context(), c.Param("id"), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, log)
}

// Export godoc
// @Summary Export timetable grid
// @Tags Timetables
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Timetable ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /timetables/{id}/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	result, err := h.exporter.Export(c.Request.Context(), dto.ExportTimetableRequest{
		TimetableID: c.Param("id"),
		Format:      c.DefaultQuery("format", "csv"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Body)
}

// bindOptionalJSON binds a JSON body when one is present.
func bindOptionalJSON(c *gin.Context, dest interface{}) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(dest); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
