package backend

import (
	"fmt"

	"github.com/tidwall/gjson"

	"hilop/pkg/localized"
)

// ID accepts both string and numeric identifiers from the backend.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	r := gjson.ParseBytes(b)
	switch r.Type {
	case gjson.String:
		*id = ID(r.Str)
	case gjson.Number:
		*id = ID(r.Raw)
	case gjson.Null:
		*id = ""
	default:
		return fmt.Errorf("%w: unexpected id %s", ErrMalformed, string(b))
	}
	return nil
}

func (id ID) String() string { return string(id) }

type Test struct {
	ID    ID             `json:"id"`
	Title localized.Text `json:"title"`
}

type Answer struct {
	ID   ID             `json:"id"`
	Text localized.Text `json:"answer"`
}

type Question struct {
	ID      ID             `json:"id"`
	Text    localized.Text `json:"question"`
	Answers []Answer       `json:"answers"`
	IsBMI   bool           `json:"is_bmi"`
	Image   string         `json:"image,omitempty"`
}

func (q Question) HasAnswer(id ID) bool {
	for _, a := range q.Answers {
		if a.ID == id {
			return true
		}
	}
	return false
}

// TestDetail carries the questions in server order.
type TestDetail struct {
	ID        ID             `json:"id"`
	Title     localized.Text `json:"title"`
	Questions []Question     `json:"questions"`
}

type StartTestRequest struct {
	TestID     ID       `json:"test_id"`
	QuestionID ID       `json:"question_id"`
	AnswerID   ID       `json:"answer_id"`
	HeightCm   string   `json:"height_cm,omitempty"`
	Weight     string   `json:"weight,omitempty"`
	BMIValue   *float64 `json:"bmi_value,omitempty"`
}

type SubmitAnswerRequest struct {
	TestResultID ID       `json:"test_result_id"`
	TestID       ID       `json:"test_id"`
	QuestionID   ID       `json:"question_id"`
	AnswerID     ID       `json:"answer_id"`
	HeightCm     string   `json:"height_cm,omitempty"`
	Weight       string   `json:"weight,omitempty"`
	BMIValue     *float64 `json:"bmi_value,omitempty"`
}

type Product struct {
	ID    ID      `json:"id"`
	Name  string  `json:"name"`
	Image string  `json:"image,omitempty"`
	Price float64 `json:"price,omitempty"`
}

type TreatmentPlan struct {
	ID          ID      `json:"id"`
	TotalMonths int     `json:"total_months"`
	Product     Product `json:"product"`
}

type CompletionData struct {
	IsCompleted          bool            `json:"is_completed"`
	AnswersCount         int             `json:"answers_count"`
	BMIValue             *float64        `json:"bmi_value,omitempty"`
	RecommendedProductID ID              `json:"recommended_product_id,omitempty"`
	RecommendedProducts  []Product       `json:"recommended_products,omitempty"`
	TreatmentPlans       []TreatmentPlan `json:"treatment_plans"`
}

type AddToCartRequest struct {
	ProductID ID  `json:"product_id"`
	Quantity  int `json:"quantity"`
}
