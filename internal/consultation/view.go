package consultation

import (
	"hilop/internal/backend"
	"hilop/internal/bmi"
	"hilop/internal/models/response_models"
	"hilop/pkg/localized"
)

// View renders the flow for locale.
func (f *Flow) View(locale localized.Locale) response_models.FlowResponse {
	f.mu.Lock()
	defer f.mu.Unlock()

	v := response_models.FlowResponse{
		FlowID:        f.id,
		State:         string(f.state),
		Loading:       f.loading,
		Error:         f.errMsg,
		QuestionIndex: f.index,
		TestResultID:  f.testResultID.String(),
	}

	if f.test != nil {
		v.Test = &response_models.TestResponse{ID: f.test.ID.String(), Title: f.test.Title.Get(locale)}
		v.TotalQuestions = len(f.test.Questions)
		if f.state == StateAnsweringQuestions {
			q := f.test.Questions[f.index]
			v.Question = RenderQuestion(q, locale)
			v.SelectedAnswerID = f.answers[q.ID].String()
		}
	} else if f.testID != "" {
		v.Test = &response_models.TestResponse{ID: f.testID.String()}
	}

	if f.lastBMI != nil {
		v.BMI = RenderBMI(*f.lastBMI)
	}

	if f.completion != nil && f.outcome != nil {
		v.Result = resultResponse(f.completion, f.outcome)
	}
	return v
}

func RenderTest(t backend.Test, locale localized.Locale) response_models.TestResponse {
	return response_models.TestResponse{ID: t.ID.String(), Title: t.Title.Get(locale)}
}

func RenderQuestion(q backend.Question, locale localized.Locale) *response_models.QuestionResponse {
	answers := make([]response_models.AnswerResponse, 0, len(q.Answers))
	for _, a := range q.Answers {
		answers = append(answers, response_models.AnswerResponse{ID: a.ID.String(), Text: a.Text.Get(locale)})
	}
	return &response_models.QuestionResponse{
		ID:      q.ID.String(),
		Text:    q.Text.Get(locale),
		Image:   q.Image,
		IsBMI:   q.IsBMI,
		Answers: answers,
	}
}

func RenderBMI(r bmi.Result) *response_models.BMIResponse {
	return &response_models.BMIResponse{
		BMI:      r.BMI,
		Category: string(bmi.CategoryOf(r.BMI)),
		HeightCm: r.HeightCm,
		WeightKg: r.WeightKg,
	}
}

func resultResponse(data *backend.CompletionData, out *Outcome) *response_models.ConsultationResult {
	res := &response_models.ConsultationResult{
		Presentation:   string(out.Presentation),
		RedirectTo:     out.RedirectTo,
		AddedProductID: out.AddedProductID.String(),
		AnswersCount:   data.AnswersCount,
		BMIValue:       data.BMIValue,
	}
	if out.Plan != nil {
		res.Plan = &response_models.PlanSummary{
			ID:          out.Plan.ID.String(),
			ProductName: out.Plan.Product.Name,
			Image:       out.Plan.Product.Image,
			TotalMonths: out.Plan.TotalMonths,
		}
	}
	return res
}
