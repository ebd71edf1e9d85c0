package response_models

type TestResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type AnswerResponse struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type QuestionResponse struct {
	ID      string           `json:"id"`
	Text    string           `json:"text"`
	Image   string           `json:"image,omitempty"`
	IsBMI   bool             `json:"is_bmi"`
	Answers []AnswerResponse `json:"answers"`
}

type BMIResponse struct {
	BMI      float64 `json:"bmi"`
	Category string  `json:"category"`
	HeightCm int     `json:"height_cm"`
	WeightKg float64 `json:"weight"`
}

// PlanSummary is what the result modal shows: the first treatment plan
// exactly as the backend returned it.
type PlanSummary struct {
	ID          string `json:"id"`
	ProductName string `json:"product_name"`
	Image       string `json:"image"`
	TotalMonths int    `json:"total_months"`
}

type ConsultationResult struct {
	Presentation   string       `json:"presentation"` // "modal" or "redirect"
	RedirectTo     string       `json:"redirect_to,omitempty"`
	Plan           *PlanSummary `json:"plan,omitempty"`
	AddedProductID string       `json:"added_product_id,omitempty"`
	AnswersCount   int          `json:"answers_count"`
	BMIValue       *float64     `json:"bmi_value,omitempty"`
}

type FlowResponse struct {
	FlowID           string              `json:"flow_id"`
	State            string              `json:"state"`
	Loading          bool                `json:"loading"`
	Error            string              `json:"error,omitempty"`
	Test             *TestResponse       `json:"test,omitempty"`
	Question         *QuestionResponse   `json:"question,omitempty"`
	QuestionIndex    int                 `json:"question_index"`
	TotalQuestions   int                 `json:"total_questions"`
	SelectedAnswerID string              `json:"selected_answer_id,omitempty"`
	TestResultID     string              `json:"test_result_id,omitempty"`
	BMI              *BMIResponse        `json:"bmi,omitempty"`
	Result           *ConsultationResult `json:"result,omitempty"`
}

type ConsultationRecordResponse struct {
	ID                   string   `json:"id"`
	TestID               string   `json:"test_id"`
	TestResultID         string   `json:"test_result_id"`
	AnswersCount         int      `json:"answers_count"`
	BMIValue             *float64 `json:"bmi_value,omitempty"`
	RecommendedProductID string   `json:"recommended_product_id,omitempty"`
	Presentation         string   `json:"presentation,omitempty"`
	PlanIDs              []string `json:"plan_ids"`
	CompletedAt          string   `json:"completed_at"`
}
