package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hilop/internal/models/request_models"
	"hilop/internal/models/response_models"
	"hilop/internal/services"
	"hilop/pkg/localized"
	"hilop/pkg/middleware"
	"hilop/pkg/utils"
)

type ConsultationController struct {
	consultationService services.ConsultationServiceInterface
	recordService       services.ConsultationRecordServiceInterface
}

func NewConsultationController(
	consultationService services.ConsultationServiceInterface,
	recordService services.ConsultationRecordServiceInterface) *ConsultationController {
	return &ConsultationController{
		consultationService: consultationService,
		recordService:       recordService,
	}
}

// localeOf prefers ?lang= over Accept-Language.
func localeOf(c *gin.Context) localized.Locale {
	if lang := c.Query("lang"); lang != "" {
		return localized.ParseLocale(lang)
	}
	return localized.ParseLocale(c.GetHeader("Accept-Language"))
}

// respondFlow renders the flow view, attaching it to the error envelope on
// failure so the page can keep showing the current step.
func respondFlow(c *gin.Context, view response_models.FlowResponse, err error, message string) {
	if err != nil {
		if view.FlowID == "" {
			utils.HandleServiceError(c, err)
			return
		}
		utils.HandleServiceError(c, err, view)
		return
	}
	utils.RespondSuccess(c, view, message)
}

// ListTests godoc
// @Summary List assessments
// @Tags Consultation
// @Produce json
// @Param lang query string false "en or hi"
// @Success 200 {object} utils.APIResponse
// @Failure 502 {object} utils.APIResponse
// @Router /consultation/tests [get]
func (cc *ConsultationController) ListTests(c *gin.Context) {
	tests, err := cc.consultationService.ListTests(c.Request.Context(), middleware.SessionFrom(c), localeOf(c))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, tests, "Tests fetched successfully")
}

// CreateFlow godoc
// @Summary Start a consultation flow
// @Description Creates a flow in the test selection step
// @Tags Consultation
// @Produce json
// @Success 201 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Router /consultation/flows [post]
func (cc *ConsultationController) CreateFlow(c *gin.Context) {
	view := cc.consultationService.CreateFlow(middleware.SessionFrom(c), localeOf(c))
	utils.RespondStatus(c, http.StatusCreated, view, "Consultation started")
}

// GetFlow godoc
// @Summary Get the current step of a flow
// @Tags Consultation
// @Produce json
// @Param id path string true "Flow ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /consultation/flows/{id} [get]
func (cc *ConsultationController) GetFlow(c *gin.Context) {
	view, err := cc.consultationService.GetFlow(c.Param("id"), middleware.SessionFrom(c), localeOf(c))
	respondFlow(c, view, err, "Consultation fetched successfully")
}

// SelectTest godoc
// @Summary Choose the assessment and load its questions
// @Tags Consultation
// @Accept json
// @Produce json
// @Param id path string true "Flow ID"
// @Param request body request_models.SelectTestRequest true "Test"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Failure 502 {object} utils.APIResponse
// @Router /consultation/flows/{id}/test [post]
func (cc *ConsultationController) SelectTest(c *gin.Context) {
	var req request_models.SelectTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	view, err := cc.consultationService.SelectTest(c.Request.Context(), c.Param("id"), middleware.SessionFrom(c), req, localeOf(c))
	respondFlow(c, view, err, "Questions loaded")
}

// Answer godoc
// @Summary Answer the current question
// @Description Sends answer_id, or bmi {feet, inches, weight} for the BMI question.
// @Description The flow advances only after the backend accepted the answer; the last answer completes the consultation.
// @Tags Consultation
// @Accept json
// @Produce json
// @Param id path string true "Flow ID"
// @Param request body request_models.AnswerRequest true "Answer"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Failure 422 {object} utils.APIResponse
// @Failure 502 {object} utils.APIResponse
// @Router /consultation/flows/{id}/answer [post]
func (cc *ConsultationController) Answer(c *gin.Context) {
	var req request_models.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	view, err := cc.consultationService.Answer(c.Request.Context(), c.Param("id"), middleware.SessionFrom(c), req, localeOf(c))
	respondFlow(c, view, err, "Answer saved")
}

// Back godoc
// @Summary Go to the previous question
// @Tags Consultation
// @Produce json
// @Param id path string true "Flow ID"
// @Success 200 {object} utils.APIResponse
// @Router /consultation/flows/{id}/back [post]
func (cc *ConsultationController) Back(c *gin.Context) {
	view, err := cc.consultationService.Back(c.Param("id"), middleware.SessionFrom(c), localeOf(c))
	respondFlow(c, view, err, "Moved back")
}

// CloseFlow godoc
// @Summary Abandon a flow
// @Tags Consultation
// @Param id path string true "Flow ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /consultation/flows/{id} [delete]
func (cc *ConsultationController) CloseFlow(c *gin.Context) {
	if err := cc.consultationService.CloseFlow(c.Param("id"), middleware.SessionFrom(c)); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Consultation closed")
}

// History godoc
// @Summary Completed consultations of the signed-in user
// @Tags Consultation
// @Produce json
// @Param limit query int false "Max entries" default(20) minimum(1) maximum(100)
// @Success 200 {object} utils.APIResponse
// @Router /consultation/history [get]
func (cc *ConsultationController) History(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		utils.RespondError(c, http.StatusBadRequest, "Invalid limit (must be 1-100)")
		return
	}

	records, err := cc.recordService.History(c.Request.Context(), middleware.SessionFrom(c), limit)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, records, "History fetched successfully")
}
