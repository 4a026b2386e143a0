package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/coach-periodization-api/internal/dto"
	"github.com/noah-isme/coach-periodization-api/internal/middleware"
	"github.com/noah-isme/coach-periodization-api/internal/models"
	"github.com/noah-isme/coach-periodization-api/internal/service"
	appErrors "github.com/noah-isme/coach-periodization-api/pkg/errors"
	"github.com/noah-isme/coach-periodization-api/pkg/response"
)

type periodizationService interface {
	GetSession(ctx context.Context, planID string) (*dto.PlanSessionView, error)
	CreatePeriod(ctx context.Context, planID string, req dto.CreatePeriodRequest) (*dto.PeriodView, error)
	RenamePeriod(ctx context.Context, planID, periodID string, req dto.RenamePeriodRequest) (*dto.PeriodView, error)
	ResizePeriod(ctx context.Context, planID, periodID string, req dto.ResizePeriodRequest) (*dto.PeriodView, error)
	DeletePeriod(ctx context.Context, planID, periodID string) error
	AssignExercise(ctx context.Context, planID, periodID string, req dto.AssignExerciseRequest) (*dto.PeriodView, error)
	RemoveAssignment(ctx context.Context, planID, periodID, exerciseID string) (*dto.PeriodView, error)
	RefreshOneRepMax(ctx context.Context, planID, exerciseID string) (*dto.OneRepMaxRefreshResponse, error)
	Refresh(ctx context.Context, planID string) (*dto.PlanSessionView, error)
	Loads(ctx context.Context, planID string) (*dto.LoadTable, bool, error)
	WorkingWeight(ctx context.Context, planID, periodID, exerciseID string) (*dto.WorkingWeightResponse, error)
	ListExercises(ctx context.Context, planID string) ([]models.Exercise, error)
}

type loadExporter interface {
	Export(ctx context.Context, planID, format string) (*service.ExportResult, error)
}

// PeriodizationHandler exposes the period editor of a training plan.
type PeriodizationHandler struct {
	service  periodizationService
	exporter loadExporter
}

// NewPeriodizationHandler builds a new handler.
func NewPeriodizationHandler(service periodizationService, exporter loadExporter) *PeriodizationHandler {
	return &PeriodizationHandler{service: service, exporter: exporter}
}

// Session godoc
// @Summary Get plan session
// @Description Periods in plan order with week/day coordinates and derived loads.
// @Tags Periodization
// @Produce json
// @Param planId path string true "Plan ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /plans/{planId}/session [get]
func (h *PeriodizationHandler) Session(c *gin.Context) {
	view, err := h.service.GetSession(c.Request.Context(), c.Param("planId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// CreatePeriod godoc
// @Summary Create period
// @Tags Periodization
// @Accept json
// @Produce json
// @Param planId path string true "Plan ID"
// @Param payload body dto.CreatePeriodRequest true "Period payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /plans/{planId}/periods [post]
func (h *PeriodizationHandler) CreatePeriod(c *gin.Context) {
	var req dto.CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid period payload"))
		return
	}
	view, err := h.service.CreatePeriod(c.Request.Context(), c.Param("planId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// RenamePeriod godoc
// @Summary Rename period
// @Tags Periodization
// @Accept json
// @Produce json
// @Param planId path string true "Plan ID"
// @Param periodId path string true "Period ID"
// @Param payload body dto.RenamePeriodRequest true "Rename payload"
// @Success 200 {object} response.Envelope
// @Router /plans/{planId}/periods/{periodId} [patch]
func (h *PeriodizationHandler) RenamePeriod(c *gin.Context) {
	var req dto.RenamePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rename payload"))
		return
	}
	view, err := h.service.RenamePeriod(c.Request.Context(), c.Param("planId"), c.Param("periodId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// ResizePeriod godoc
// @Summary Move one period boundary by a day
// @Tags Periodization
// @Accept json
// @Produce json
// @Param planId path string true "Plan ID"
// @Param periodId path string true "Period ID"
// @Param payload body dto.ResizePeriodRequest true "Resize payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /plans/{planId}/periods/{periodId}/resize [post]
func (h *PeriodizationHandler) ResizePeriod(c *gin.Context) {
	var req dto.ResizePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid resize payload"))
		return
	}
	view, err := h.service.ResizePeriod(c.Request.Context(), c.Param("planId"), c.Param("periodId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// DeletePeriod godoc
// @Summary Delete period
// @Tags Periodization
// @Param planId path string true "Plan ID"
// @Param periodId path string true "Period ID"
// @Success 204 {string} string "No Content"
// @Router /plans/{planId}/periods/{periodId} [delete]
func (h *PeriodizationHandler) DeletePeriod(c *gin.Context) {
	if err := h.service.DeletePeriod(c.Request.Context(), c.Param("planId"), c.Param("periodId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AssignExercise godoc
// @Summary Assign exercise to period
// @Description Adds the exercise or replaces its percentage and adjustment.
// @Tags Periodization
// @Accept json
// @Produce json
// @Param planId path string true "Plan ID"
// @Param periodId path string true "Period ID"
// @Param payload body dto.AssignExerciseRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Router /plans/{planId}/periods/{periodId}/assignments [put]
func (h *PeriodizationHandler) AssignExercise(c *gin.Context) {
	var req dto.AssignExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	view, err := h.service.AssignExercise(c.Request.Context(), c.Param("planId"), c.Param("periodId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// RemoveAssignment godoc
// @Summary Remove exercise from period
// @Tags Periodization
// @Produce json
// @Param planId path string true "Plan ID"
// @Param periodId path string true "Period ID"
// @Param exerciseId path string true "Exercise ID"
// @Success 200 {object} response.Envelope
// @Router /plans/{planId}/periods/{periodId}/assignments/{exerciseId} [delete]
func (h *PeriodizationHandler) RemoveAssignment(c *gin.Context) {
	view, err := h.service.RemoveAssignment(c.Request.Context(), c.Param("planId"), c.Param("periodId"), c.Param("exerciseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Loads godoc
// @Summary Derived load table
// @Tags Periodization
// @Produce json
// @Param planId path string true "Plan ID"
// @Success 200 {object} response.Envelope
// @Router /plans/{planId}/loads [get]
func (h *PeriodizationHandler) Loads(c *gin.Context) {
	table, hit, err := h.service.Loads(c.Request.Context(), c.Param("planId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, table, nil, middleware.ExtractMeta(c))
}

// WorkingWeight godoc
// @Summary Working weight of one assignment
// @Tags Periodization
// @Produce json
// @Param planId path string true "Plan ID"
// @Param periodId path string true "Period ID"
// @Param exerciseId path string true "Exercise ID"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /plans/{planId}/periods/{periodId}/loads/{exerciseId} [get]
func (h *PeriodizationHandler) WorkingWeight(c *gin.Context) {
	weight, err := h.service.WorkingWeight(c.Request.Context(), c.Param("planId"), c.Param("periodId"), c.Param("exerciseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, weight, nil)
}

// ExportLoads godoc
// @Summary Download load sheet
// @Tags Periodization
// @Produce text/csv
// @Produce application/pdf
// @Param planId path string true "Plan ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /plans/{planId}/loads/export [get]
func (h *PeriodizationHandler) ExportLoads(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "load export is not configured"))
		return
	}
	result, err := h.exporter.Export(c.Request.Context(), c.Param("planId"), strings.TrimSpace(c.Query("format")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, result.Filename, result.ContentType, result.Payload)
}

// RefreshOneRepMax godoc
// @Summary Re-read an exercise's one-rep max
// @Tags Periodization
// @Produce json
// @Param planId path string true "Plan ID"
// @Param exerciseId path string true "Exercise ID"
// @Success 200 {object} response.Envelope
// @Router /plans/{planId}/one-rep-max/{exerciseId}/refresh [post]
func (h *PeriodizationHandler) RefreshOneRepMax(c *gin.Context) {
	resp, err := h.service.RefreshOneRepMax(c.Request.Context(), c.Param("planId"), c.Param("exerciseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Refresh godoc
// @Summary Rebuild the plan session from storage
// @Tags Periodization
// @Produce json
// @Param planId path string true "Plan ID"
// @Success 200 {object} response.Envelope
// @Router /plans/{planId}/refresh [post]
func (h *PeriodizationHandler) Refresh(c *gin.Context) {
	view, err := h.service.Refresh(c.Request.Context(), c.Param("planId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Exercises godoc
// @Summary List plan exercises
// @Tags Periodization
// @Produce json
// @Param planId path string true "Plan ID"
// @Success 200 {object} response.Envelope
// @Router /plans/{planId}/exercises [get]
func (h *PeriodizationHandler) Exercises(c *gin.Context) {
	exercises, err := h.service.ListExercises(c.Request.Context(), c.Param("planId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exercises, nil)
}

// Register mounts the editor routes on a router group.
func (h *PeriodizationHandler) Register(group *gin.RouterGroup) {
	plans := group.Group("/plans/:planId")
	plans.GET("/session", h.Session)
	plans.POST("/refresh", h.Refresh)
	plans.GET("/exercises", h.Exercises)
	plans.GET("/loads", h.Loads)
	plans.GET("/loads/export", h.ExportLoads)
	plans.POST("/one-rep-max/:exerciseId/refresh", h.RefreshOneRepMax)
	plans.POST("/periods", h.CreatePeriod)
	plans.PATCH("/periods/:periodId", h.RenamePeriod)
	plans.DELETE("/periods/:periodId", h.DeletePeriod)
	plans.POST("/periods/:periodId/resize", h.ResizePeriod)
	plans.PUT("/periods/:periodId/assignments", h.AssignExercise)
	plans.DELETE("/periods/:periodId/assignments/:exerciseId", h.RemoveAssignment)
	plans.GET("/periods/:periodId/loads/:exerciseId", h.WorkingWeight)
}
