package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	internalmiddleware "github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type timetableEngineMock struct {
	generateReq   dto.GenerateTimetableRequest
	generateActor string
	entryReq      dto.ManualEntryRequest
	deleteReq     dto.DeleteEntryRequest
	entryErr      error
}

func (m *timetableEngineMock) CreateTimetable(ctx context.Context, req dto.CreateTimetableRequest) (*models.TimetableDetail, error) {
	return &models.TimetableDetail{Timetable: models.Timetable{ID: "tt-1", Name: req.Name}}, nil
}

func (m *timetableEngineMock) GetTimetable(ctx context.Context, id string) (*models.TimetableDetail, error) {
	if id != "tt-1" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
	}
	return &models.TimetableDetail{Timetable: models.Timetable{ID: id}}, nil
}

func (m *timetableEngineMock) Generate(ctx context.Context, actor string, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	m.generateReq = req
	m.generateActor = actor
	return &dto.GenerateTimetableResponse{SkippedCount: 2, VersionNumber: 3}, nil
}

func (m *timetableEngineMock) DetectConflicts(ctx context.Context, timetableID string) (*dto.ConflictReport, error) {
	return &dto.ConflictReport{TimetableID: timetableID, Conflicts: []models.TimetableConflict{{Type: models.ConflictTypeTeacher, EntityID: "t1"}}}, nil
}

func (m *timetableEngineMock) PlaceManualEntry(ctx context.Context, actor string, req dto.ManualEntryRequest) (*models.TimetableEntry, error) {
	m.entryReq = req
	if m.entryErr != nil {
		return nil, m.entryErr
	}
	return &models.TimetableEntry{ID: "e1", TimetableID: req.TimetableID, Day: req.Day, Period: req.Period}, nil
}

func (m *timetableEngineMock) DeleteEntry(ctx context.Context, actor string, req dto.DeleteEntryRequest) error {
	m.deleteReq = req
	return nil
}

func (m *timetableEngineMock) SwapEntries(ctx context.Context, actor string, req dto.SwapEntriesRequest) (*dto.SwapEntriesResponse, error) {
	return &dto.SwapEntriesResponse{}, nil
}

type exporterMock struct {
	req dto.ExportTimetableRequest
}

func (m *exporterMock) Export(ctx context.Context, req dto.ExportTimetableRequest) (*dto.ExportResult, error) {
	m.req = req
	return &dto.ExportResult{Filename: "timetable.csv", ContentType: "text/csv; charset=utf-8", Body: []byte("Period,Mon\n")}, nil
}

func newTimetableRouter(engine *timetableEngineMock, exporter *exporterMock, claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewTimetableHandler(engine, nil, exporter)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if claims != nil {
			c.Set(internalmiddleware.ContextUserKey, claims)
		}
		c.Next()
	})
	router.GET("/timetables/:id", handler.Get)
	router.POST("/timetables/:id/generate", handler.Generate)
	router.GET("/timetables/:id/conflicts", handler.Conflicts)
	router.POST("/timetables/:id/entries", handler.CreateEntry)
	router.PUT("/timetables/:id/entries/:entryId", handler.UpdateEntry)
	router.DELETE("/timetables/:id/entries/:entryId", handler.DeleteEntry)
	router.GET("/timetables/:id/export", handler.Export)
	return router
}

func TestTimetableHandlerGenerateWithoutBody(t *testing.T) {
	engine := &timetableEngineMock{}
	router := newTimetableRouter(engine, nil, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/timetables/tt-1/generate", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tt-1", engine.generateReq.TimetableID)
	assert.Nil(t, engine.generateReq.Assignments)
	assert.Equal(t, "admin-1", engine.generateActor)

	var body struct {
		Data dto.GenerateTimetableResponse `json:"data"`
		Meta map[string]interface{}        `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Data.VersionNumber)
	assert.EqualValues(t, 2, body.Meta["skippedCount"])
}

func TestTimetableHandlerGenerateBindsAssignments(t *testing.T) {
	engine := &timetableEngineMock{}
	router := newTimetableRouter(engine, nil, nil)

	payload := []byte(`{"configId":"cfg-1","assignments":[{"teacherId":"t1","classId":"c1","subjectId":"math","periodsPerWeek":3}]}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/timetables/tt-1/generate", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cfg-1", engine.generateReq.ConfigID)
	require.Len(t, engine.generateReq.Assignments, 1)
	assert.Equal(t, 3, engine.generateReq.Assignments[0].PeriodsPerWeek)
}

func TestTimetableHandlerEntryConflictReturnsDetails(t *testing.T) {
	conflicts := []models.TimetableConflict{{Type: models.ConflictTypeClass, EntityID: "c1", Day: "Mon", Period: 1}}
	engine := &timetableEngineMock{entryErr: appErrors.WithDetails(appErrors.ErrSlotConflict, "slot Mon/1 is already taken", conflicts)}
	router := newTimetableRouter(engine, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/timetables/tt-1/entries/e9", bytes.NewReader([]byte(`{"day":"Mon","period":1,"classId":"c1"}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "e9", engine.entryReq.EntryID)

	var body struct {
		Error struct {
			Code    string                     `json:"code"`
			Details []models.TimetableConflict `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "SLOT_CONFLICT", body.Error.Code)
	require.Len(t, body.Error.Details, 1)
	assert.Equal(t, "c1", body.Error.Details[0].EntityID)
}

func TestTimetableHandlerCreateEntryRejectsMalformedBody(t *testing.T) {
	router := newTimetableRouter(&timetableEngineMock{}, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/timetables/tt-1/entries", bytes.NewReader([]byte(`{"day":`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerDeleteEntryReadsQuery(t *testing.T) {
	engine := &timetableEngineMock{}
	router := newTimetableRouter(engine, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/timetables/tt-1/entries/e1?logChange=true&reason=cancelled", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, engine.deleteReq.LogChange)
	require.NotNil(t, engine.deleteReq.Reason)
	assert.Equal(t, "cancelled", *engine.deleteReq.Reason)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/timetables/tt-1/entries/e1?logChange=maybe", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerGetNotFound(t *testing.T) {
	router := newTimetableRouter(&timetableEngineMock{}, nil, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/timetables/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTimetableHandlerExportAttachment(t *testing.T) {
	exporter := &exporterMock{}
	router := newTimetableRouter(&timetableEngineMock{}, exporter, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/timetables/tt-1/export", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", exporter.req.Format)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "timetable.csv")
	assert.Equal(t, "Period,Mon\n", w.Body.String())
}

func TestTimetableHandlerConflictsMeta(t *testing.T) {
	router := newTimetableRouter(&timetableEngineMock{}, nil, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/timetables/tt-1/conflicts", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
}

func TestJWTMiddlewareRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	validator := internalmiddleware.NewTokenValidator("secret", "sma")
	router := gin.New()
	router.POST("/generate",
		internalmiddleware.JWT(validator),
		internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin),
		func(c *gin.Context) { c.String(http.StatusOK, actorFromContext(c)) },
	)

	sign := func(role models.UserRole, secret string) string {
		claims := models.JWTClaims{
			UserID: "user-1",
			Role:   role,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "sma",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return token
	}
	call := func(header string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/generate", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, call("").Code)
	assert.Equal(t, http.StatusUnauthorized, call("Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer "+sign(models.RoleAdmin, "other")).Code)
	assert.Equal(t, http.StatusForbidden, call("Bearer "+sign(models.RoleTeacher, "secret")).Code)

	ok := call("Bearer " + sign(models.RoleAdmin, "secret"))
	assert.Equal(t, http.StatusOK, ok.Code)
	assert.Equal(t, "user-1", ok.Body.String())
}
