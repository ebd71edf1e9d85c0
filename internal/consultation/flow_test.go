package consultation

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hilop/internal/backend"
	"hilop/internal/bmi"
	"hilop/pkg/localized"
	"hilop/pkg/utils"
)

func newTestFlow(b *fakeBackend, rec *fakeRecorder) *Flow {
	deps := Deps{Backend: b}
	if rec != nil {
		deps.Recorder = rec
	}
	return NewFlow("flow-1", "user-1", deps)
}

func selectTest(t *testing.T, f *Flow) {
	t.Helper()
	require.NoError(t, f.SelectTest(context.Background(), testSess, "t1"))
}

func answer(f *Flow, id backend.ID) error {
	return f.Answer(context.Background(), testSess, AnswerInput{AnswerID: id})
}

func TestSelectTestLoadsQuestions(t *testing.T) {
	f := newTestFlow(newFakeBackend(), nil)
	defer f.Close()

	assert.Equal(t, StateSelectingTest, f.State())
	selectTest(t, f)

	assert.Equal(t, StateAnsweringQuestions, f.State())
	v := f.View(localized.English)
	assert.False(t, v.Loading)
	assert.Equal(t, 2, v.TotalQuestions)
	require.NotNil(t, v.Question)
	assert.Equal(t, "q1", v.Question.ID)
}

func TestSelectTestRequiresID(t *testing.T) {
	f := newTestFlow(newFakeBackend(), nil)
	defer f.Close()
	assert.ErrorIs(t, f.SelectTest(context.Background(), testSess, ""), ErrMissingTest)
}

func TestSelectTestFetchFailure(t *testing.T) {
	b := newFakeBackend()
	b.getTest = func(context.Context, backend.ID) (*backend.TestDetail, error) { return nil, backend.ErrConnection }
	f := newTestFlow(b, nil)
	defer f.Close()

	err := f.SelectTest(context.Background(), testSess, "t1")
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusBadGateway, utils.StatusOf(err))
	assert.Equal(t, msgFetchFailed, f.View(localized.English).Error)
}

func TestSelectTestWithoutQuestionsIsAFetchError(t *testing.T) {
	b := newFakeBackend()
	b.getTest = func(context.Context, backend.ID) (*backend.TestDetail, error) {
		return &backend.TestDetail{ID: "t1"}, nil
	}
	f := newTestFlow(b, nil)
	defer f.Close()

	err := f.SelectTest(context.Background(), testSess, "t1")
	var fe *FetchError
	assert.True(t, errors.As(err, &fe))
	assert.ErrorIs(t, f.Answer(context.Background(), testSess, AnswerInput{AnswerID: "a1"}), ErrInvalidState)
}

func TestFirstAnswerStartsTestAndLaterAnswersSubmit(t *testing.T) {
	b := newFakeBackend()
	f := newTestFlow(b, nil)
	defer f.Close()
	selectTest(t, f)

	require.NoError(t, answer(f, "a2"))
	assert.Equal(t, backend.ID("tr-1"), f.TestResultID())
	assert.Equal(t, 1, f.Index())
	require.Len(t, b.starts, 1)
	assert.Equal(t, backend.StartTestRequest{TestID: "t1", QuestionID: "q1", AnswerID: "a2"}, b.starts[0])

	require.NoError(t, answer(f, "b1"))
	require.Len(t, b.submits, 1)
	assert.Equal(t, backend.SubmitAnswerRequest{TestResultID: "tr-1", TestID: "t1", QuestionID: "q2", AnswerID: "b1"}, b.submits[0])
	assert.Equal(t, StateCompleted, f.State())
}

func TestAnswerRejectsForeignAnswer(t *testing.T) {
	b := newFakeBackend()
	f := newTestFlow(b, nil)
	defer f.Close()
	selectTest(t, f)

	assert.ErrorIs(t, answer(f, "b1"), ErrInvalidAnswer)
	assert.ErrorIs(t, answer(f, ""), ErrInvalidAnswer)
	starts, _, _, _ := b.counts()
	assert.Zero(t, starts)
}

func TestAnswerBeforeSelectingTest(t *testing.T) {
	f := newTestFlow(newFakeBackend(), nil)
	defer f.Close()
	assert.ErrorIs(t, answer(f, "a1"), ErrInvalidState)
}

func TestStartFailureIsSilent(t *testing.T) {
	b := newFakeBackend()
	b.start = func(context.Context, backend.StartTestRequest) (backend.ID, error) { return "", errBoom }
	f := newTestFlow(b, nil)
	defer f.Close()
	selectTest(t, f)

	assert.NoError(t, answer(f, "a1"))
	assert.Equal(t, 0, f.Index())
	assert.Empty(t, f.TestResultID())
	assert.Empty(t, f.View(localized.English).Error)
}

func TestSubmitFailureKeepsQuestion(t *testing.T) {
	b := newFakeBackend()
	b.submit = func(context.Context, backend.SubmitAnswerRequest) error {
		return &backend.StatusError{Operation: "submit_answer", Status: http.StatusBadRequest, Message: "Invalid answer"}
	}
	threeStep := &backend.TestDetail{ID: "t1", Questions: append(append([]backend.Question{}, twoStepTest.Questions...),
		backend.Question{ID: "q3", Answers: []backend.Answer{{ID: "c1"}}})}
	b.getTest = func(context.Context, backend.ID) (*backend.TestDetail, error) { return threeStep, nil }
	f := newTestFlow(b, nil)
	defer f.Close()
	selectTest(t, f)
	require.NoError(t, answer(f, "a1"))

	err := answer(f, "b1")
	var se *SubmissionError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))
	assert.Equal(t, 1, f.Index())
	assert.Equal(t, "Invalid answer", f.View(localized.English).Error)
}

func TestBMIQuestionSendsMeasurements(t *testing.T) {
	b := newFakeBackend()
	b.getTest = func(context.Context, backend.ID) (*backend.TestDetail, error) {
		return &backend.TestDetail{ID: "t1", Questions: []backend.Question{
			{ID: "q1", Answers: []backend.Answer{{ID: "a1"}}},
			{ID: "q2", IsBMI: true, Answers: []backend.Answer{{ID: "bmi-placeholder"}}},
			{ID: "q3", Answers: []backend.Answer{{ID: "c1"}}},
		}}, nil
	}
	f := newTestFlow(b, nil)
	defer f.Close()
	selectTest(t, f)
	require.NoError(t, answer(f, "a1"))

	var ve *bmi.ValidationError
	assert.True(t, errors.As(answer(f, ""), &ve))

	err := f.Answer(context.Background(), testSess, AnswerInput{BMI: &bmi.Input{Feet: 2, Inches: 0, WeightKg: 70}})
	assert.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.FieldMessages(), bmi.FieldFeet)

	require.NoError(t, f.Answer(context.Background(), testSess, AnswerInput{BMI: &bmi.Input{Feet: 5, Inches: 7, WeightKg: 70}}))
	require.Len(t, b.submits, 1)
	req := b.submits[0]
	assert.Equal(t, backend.ID("bmi-placeholder"), req.AnswerID)
	assert.Equal(t, "170", req.HeightCm)
	assert.Equal(t, "70", req.Weight)
	require.NotNil(t, req.BMIValue)
	assert.Equal(t, 24.2, *req.BMIValue)

	v := f.View(localized.English)
	require.NotNil(t, v.BMI)
	assert.Equal(t, 24.2, v.BMI.BMI)
	assert.Equal(t, string(bmi.Normal), v.BMI.Category)
}

func TestBMIOnFirstQuestionGoesIntoStart(t *testing.T) {
	b := newFakeBackend()
	b.getTest = func(context.Context, backend.ID) (*backend.TestDetail, error) {
		return &backend.TestDetail{ID: "t1", Questions: []backend.Question{
			{ID: "q1", IsBMI: true, Answers: []backend.Answer{{ID: "x"}}},
			{ID: "q2", Answers: []backend.Answer{{ID: "a1"}}},
		}}, nil
	}
	f := newTestFlow(b, nil)
	defer f.Close()
	selectTest(t, f)

	require.NoError(t, f.Answer(context.Background(), testSess, AnswerInput{BMI: &bmi.Input{Feet: 5, Inches: 7, WeightKg: 70}}))
	require.Len(t, b.starts, 1)
	assert.Equal(t, "170", b.starts[0].HeightCm)
	require.NotNil(t, b.starts[0].BMIValue)
}

func TestCompletionWithPlansShowsModal(t *testing.T) {
	b := newFakeBackend()
	b.complete = func(context.Context, backend.ID) (*backend.CompletionData, error) {
		return &backend.CompletionData{
			IsCompleted:          true,
			AnswersCount:         2,
			RecommendedProductID: "p-12",
			TreatmentPlans: []backend.TreatmentPlan{
				{ID: "plan-1", TotalMonths: 3, Product: backend.Product{ID: "p-12", Name: "Minoxidil"}},
				{ID: "plan-2", TotalMonths: 6},
			},
		}, nil
	}
	rec := &fakeRecorder{}
	f := newTestFlow(b, rec)
	defer f.Close()
	selectTest(t, f)
	require.NoError(t, answer(f, "a1"))
	require.NoError(t, answer(f, "b2"))

	assert.Equal(t, []backend.AddToCartRequest{{ProductID: "p-12", Quantity: 1}}, b.carts)

	v := f.View(localized.English)
	assert.Equal(t, string(StateCompleted), v.State)
	require.NotNil(t, v.Result)
	assert.Equal(t, string(PresentationModal), v.Result.Presentation)
	require.NotNil(t, v.Result.Plan)
	assert.Equal(t, "plan-1", v.Result.Plan.ID)
	assert.Equal(t, "Minoxidil", v.Result.Plan.ProductName)
	assert.Equal(t, "p-12", v.Result.AddedProductID)

	recs := rec.all()
	require.Len(t, recs, 1)
	assert.Equal(t, backend.ID("tr-1"), recs[0].TestResultID)
	assert.Equal(t, "user-1", recs[0].Owner)
	assert.Empty(t, recs[0].CartError)
}

func TestCompletionWithoutPlansRedirectsToCart(t *testing.T) {
	b := newFakeBackend()
	f := newTestFlow(b, nil)
	defer f.Close()
	selectTest(t, f)
	require.NoError(t, answer(f, "a1"))
	require.NoError(t, answer(f, "b1"))

	_, _, _, carts := b.counts()
	assert.Zero(t, carts)

	v := f.View(localized.English)
	require.NotNil(t, v.Result)
	assert.Equal(t, string(PresentationRedirect), v.Result.Presentation)
	assert.Equal(t, CartPath, v.Result.RedirectTo)
	assert.Nil(t, v.Result.Plan)
}

func TestCompletionHappensOnce(t *testing.T) {
	b := newFakeBackend()
	f := newTestFlow(b, nil)
	defer f.Close()
	selectTest(t, f)
	require.NoError(t, answer(f, "a1"))
	require.NoError(t, answer(f, "b1"))

	assert.ErrorIs(t, answer(f, "b1"), ErrInvalidState)
	assert.ErrorIs(t, f.Back(), ErrInvalidState)
	_, _, completes, _ := b.counts()
	assert.Equal(t, 1, completes)
}

func TestCompletionRetryDoesNotResubmitAnswer(t *testing.T) {
	b := newFakeBackend()
	calls := 0
	b.complete = func(context.Context, backend.ID) (*backend.CompletionData, error) {
		calls++
		if calls == 1 {
			return nil, errBoom
		}
		return &backend.CompletionData{IsCompleted: true}, nil
	}
	f := newTestFlow(b, nil)
	defer f.Close()
	selectTest(t, f)
	require.NoError(t, answer(f, "a1"))

	err := answer(f, "b1")
	var se *SubmissionError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, msgCompleteFailed, f.View(localized.English).Error)
	assert.Equal(t, StateAnsweringQuestions, f.State())

	require.NoError(t, answer(f, "b1"))
	_, submits, completes, _ := b.counts()
	assert.Equal(t, 1, submits)
	assert.Equal(t, 2, completes)
	assert.Equal(t, StateCompleted, f.State())
}

func TestCartFailureHaltsSuccessPath(t *testing.T) {
	b := newFakeBackend()
	b.complete = func(context.Context, backend.ID) (*backend.CompletionData, error) {
		return &backend.CompletionData{RecommendedProductID: "p-1", TreatmentPlans: []backend.TreatmentPlan{{ID: "plan-1"}}}, nil
	}
	b.addCart = func(context.Context, backend.AddToCartRequest) error { return backend.ErrConnection }
	rec := &fakeRecorder{}
	f := newTestFlow(b, rec)
	defer f.Close()
	selectTest(t, f)
	require.NoError(t, answer(f, "a1"))

	err := answer(f, "b1")
	var ce *CartError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, backend.ID("p-1"), ce.ProductID)

	v := f.View(localized.English)
	assert.Nil(t, v.Result)
	assert.Equal(t, msgCartFailed, v.Error)
	require.Len(t, rec.all(), 1)
	assert.Equal(t, msgCartFailed, rec.all()[0].CartError)
}

func TestRecorderFailureDoesNotFailCompletion(t *testing.T) {
	rec := &fakeRecorder{err: errBoom}
	f := newTestFlow(newFakeBackend(), rec)
	defer f.Close()
	selectTest(t, f)
	require.NoError(t, answer(f, "a1"))
	assert.NoError(t, answer(f, "b1"))
}

func TestBackNavigation(t *testing.T) {
	b := newFakeBackend()
	f := newTestFlow(b, nil)
	defer f.Close()

	assert.NoError(t, f.Back())
	assert.Equal(t, StateSelectingTest, f.State())

	selectTest(t, f)
	require.NoError(t, answer(f, "a2"))
	assert.Equal(t, 1, f.Index())

	require.NoError(t, f.Back())
	assert.Equal(t, 0, f.Index())
	v := f.View(localized.English)
	assert.Equal(t, "a2", v.SelectedAnswerID)
	assert.Equal(t, "tr-1", v.TestResultID)

	require.NoError(t, f.Back())
	assert.Equal(t, StateSelectingTest, f.State())
	assert.Empty(t, f.TestResultID())
	assert.Nil(t, f.View(localized.English).Test)
}

func TestAnswerWhileBusy(t *testing.T) {
	b := newFakeBackend()
	entered := make(chan struct{})
	release := make(chan struct{})
	b.start = func(context.Context, backend.StartTestRequest) (backend.ID, error) {
		close(entered)
		<-release
		return "tr-1", nil
	}
	f := newTestFlow(b, nil)
	defer f.Close()
	selectTest(t, f)

	errc := make(chan error, 1)
	go func() { errc <- answer(f, "a1") }()
	<-entered

	assert.ErrorIs(t, answer(f, "a1"), ErrBusy)
	assert.ErrorIs(t, f.SelectTest(context.Background(), testSess, "t1"), ErrBusy)

	close(release)
	require.NoError(t, <-errc)
	assert.Equal(t, 1, f.Index())
}

func TestBackDiscardsInFlightResponse(t *testing.T) {
	b := newFakeBackend()
	entered := make(chan struct{})
	b.submit = func(ctx context.Context, _ backend.SubmitAnswerRequest) error {
		close(entered)
		<-ctx.Done()
		return ctx.Err()
	}
	threeStep := &backend.TestDetail{ID: "t1", Questions: append(append([]backend.Question{}, twoStepTest.Questions...),
		backend.Question{ID: "q3", Answers: []backend.Answer{{ID: "c1"}}})}
	b.getTest = func(context.Context, backend.ID) (*backend.TestDetail, error) { return threeStep, nil }
	f := newTestFlow(b, nil)
	defer f.Close()
	selectTest(t, f)
	require.NoError(t, answer(f, "a1"))

	errc := make(chan error, 1)
	go func() { errc <- answer(f, "b1") }()
	<-entered

	require.NoError(t, f.Back())
	assert.ErrorIs(t, <-errc, ErrStale)
	assert.Equal(t, 0, f.Index())
	assert.Empty(t, f.View(localized.English).Error)
}

func TestBackDuringLoadingReturnsToSelection(t *testing.T) {
	b := newFakeBackend()
	entered := make(chan struct{})
	b.getTest = func(ctx context.Context, _ backend.ID) (*backend.TestDetail, error) {
		close(entered)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	f := newTestFlow(b, nil)
	defer f.Close()

	errc := make(chan error, 1)
	go func() { errc <- f.SelectTest(context.Background(), testSess, "t1") }()
	<-entered
	assert.True(t, f.View(localized.English).Loading)

	require.NoError(t, f.Back())
	assert.ErrorIs(t, <-errc, ErrStale)
	assert.Equal(t, StateSelectingTest, f.State())
	assert.False(t, f.View(localized.English).Loading)
}

func TestCloseCancelsInFlightWork(t *testing.T) {
	b := newFakeBackend()
	entered := make(chan struct{})
	b.start = func(ctx context.Context, _ backend.StartTestRequest) (backend.ID, error) {
		close(entered)
		<-ctx.Done()
		return "", ctx.Err()
	}
	f := newTestFlow(b, nil)
	selectTest(t, f)

	errc := make(chan error, 1)
	go func() { errc <- answer(f, "a1") }()
	<-entered

	f.Close()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrStale)
	case <-time.After(2 * time.Second):
		t.Fatal("answer did not return after Close")
	}
	assert.ErrorIs(t, answer(f, "a1"), ErrClosed)
	assert.ErrorIs(t, f.Back(), ErrClosed)
	f.Close()
}

func TestRequestCancellationAbortsCall(t *testing.T) {
	b := newFakeBackend()
	b.getTest = func(ctx context.Context, _ backend.ID) (*backend.TestDetail, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	f := newTestFlow(b, nil)
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := f.SelectTest(ctx, testSess, "t1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The flow is usable again afterwards.
	b.getTest = func(context.Context, backend.ID) (*backend.TestDetail, error) { return twoStepTest, nil }
	assert.NoError(t, f.SelectTest(context.Background(), testSess, "t1"))
}
