package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hilop/internal/bmi"
	"hilop/internal/consultation"
	"hilop/internal/models/request_models"
	"hilop/pkg/utils"
)

type BMIController struct{}

func NewBMIController() *BMIController {
	return &BMIController{}
}

// Calculate godoc
// @Summary Calculate BMI
// @Description Height in feet and inches, weight in kg. Out of range values come back as field errors.
// @Tags BMI
// @Accept json
// @Produce json
// @Param request body request_models.BMIRequest true "Measurements"
// @Success 200 {object} utils.APIResponse
// @Failure 422 {object} utils.APIResponse
// @Router /bmi [post]
func (b *BMIController) Calculate(c *gin.Context) {
	var req request_models.BMIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	res, err := bmi.Calculate(bmi.Input{Feet: req.Feet, Inches: req.Inches, WeightKg: req.Weight})
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, consultation.RenderBMI(res), "BMI calculated")
}
