package request_models

type SelectTestRequest struct {
	TestID string `json:"test_id" binding:"required"`
}

// BMIRequest is range-checked by the bmi package, not by binding tags,
// because zero inches is a valid height.
type BMIRequest struct {
	Feet   int     `json:"feet"`
	Inches int     `json:"inches"`
	Weight float64 `json:"weight"`
}

// AnswerRequest carries either an answer id or, for the BMI question, the
// measurements.
type AnswerRequest struct {
	AnswerID string      `json:"answer_id"`
	BMI      *BMIRequest `json:"bmi,omitempty"`
}
