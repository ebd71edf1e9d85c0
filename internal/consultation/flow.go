// Package consultation runs the assessment wizard: test selection, one
// question at a time, completion and the hand-off to the cart.
package consultation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"hilop/internal/backend"
	"hilop/internal/bmi"
	"hilop/pkg/metrics"
	"hilop/pkg/session"
)

type State string

const (
	StateSelectingTest      State = "selecting_test"
	StateAnsweringQuestions State = "answering_questions"
	StateCompleted          State = "completed"
)

type Backend interface {
	GetTest(ctx context.Context, sess session.Session, testID backend.ID) (*backend.TestDetail, error)
	StartTest(ctx context.Context, sess session.Session, req backend.StartTestRequest) (backend.ID, error)
	SubmitAnswer(ctx context.Context, sess session.Session, req backend.SubmitAnswerRequest) error
	CompleteTest(ctx context.Context, sess session.Session, testResultID backend.ID) (*backend.CompletionData, error)
	CartAdder
}

// Completion is handed to the recorder once per completed test result.
type Completion struct {
	FlowID       string
	Owner        string
	TestID       backend.ID
	TestResultID backend.ID
	Data         backend.CompletionData
	Outcome      *Outcome
	CartError    string
}

type CompletionRecorder interface {
	RecordCompletion(ctx context.Context, c Completion) error
}

type Deps struct {
	Backend  Backend
	Recorder CompletionRecorder
	Logger   *zap.Logger
}

type AnswerInput struct {
	AnswerID backend.ID
	BMI      *bmi.Input
}

// Flow is one user's pass through the wizard. Every method is safe for
// concurrent use; at most one network-bound operation runs at a time and
// responses that arrive after Back, SelectTest or Close are dropped.
type Flow struct {
	id       string
	owner    string
	backend  Backend
	bridge   *Bridge
	recorder CompletionRecorder
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	gen      uint64
	busy     bool
	opCancel context.CancelFunc
	closed   bool

	state        State
	loading      bool
	errMsg       string
	testID       backend.ID
	test         *backend.TestDetail
	index        int
	answers      map[backend.ID]backend.ID
	testResultID backend.ID
	completedFor backend.ID
	completion   *backend.CompletionData
	outcome      *Outcome
	lastBMI      *bmi.Result
}

func NewFlow(id, owner string, deps Deps) *Flow {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Flow{
		id:       id,
		owner:    owner,
		backend:  deps.Backend,
		bridge:   NewBridge(deps.Backend, logger),
		recorder: deps.Recorder,
		logger:   logger.With(zap.String("flow_id", id)),
		ctx:      ctx,
		cancel:   cancel,
		state:    StateSelectingTest,
		answers:  map[backend.ID]backend.ID{},
	}
}

func (f *Flow) ID() string    { return f.id }
func (f *Flow) Owner() string { return f.owner }

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) Index() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.index
}

func (f *Flow) TestResultID() backend.ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.testResultID
}

// begin marks the flow busy and returns a context cancelled by the caller's
// context, by Close and by invalidation.
func (f *Flow) begin(ctx context.Context) (context.Context, func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, nil, ErrClosed
	}
	if f.busy {
		return nil, nil, ErrBusy
	}

	opCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(f.ctx, cancel)
	f.busy = true
	f.opCancel = cancel

	done := func() {
		stop()
		cancel()
		f.mu.Lock()
		f.busy = false
		f.opCancel = nil
		f.mu.Unlock()
	}
	return opCtx, done, nil
}

// invalidateLocked makes every in-flight response stale.
func (f *Flow) invalidateLocked() {
	f.gen++
	if f.opCancel != nil {
		f.opCancel()
	}
}

func (f *Flow) resetLocked() {
	f.testID = ""
	f.test = nil
	f.index = 0
	f.answers = map[backend.ID]backend.ID{}
	f.testResultID = ""
	f.completion = nil
	f.outcome = nil
	f.lastBMI = nil
	f.loading = false
	f.errMsg = ""
}

func (f *Flow) abandonLocked() {
	if f.testResultID != "" && f.state != StateCompleted {
		f.logger.Info("abandoning test result", zap.String("test_result_id", f.testResultID.String()))
		metrics.RecordConsultationEvent("abandoned")
	}
}

// SelectTest starts over with testID and loads its questions.
func (f *Flow) SelectTest(ctx context.Context, sess session.Session, testID backend.ID) error {
	if testID == "" {
		return ErrMissingTest
	}

	opCtx, done, err := f.begin(ctx)
	if err != nil {
		return err
	}
	defer done()

	f.mu.Lock()
	f.abandonLocked()
	f.resetLocked()
	f.gen++
	gen := f.gen
	f.state = StateAnsweringQuestions
	f.testID = testID
	f.loading = true
	f.mu.Unlock()

	detail, err := f.backend.GetTest(opCtx, sess, testID)

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.gen {
		return ErrStale
	}
	f.loading = false

	if err == nil && (detail == nil || len(detail.Questions) == 0) {
		err = fmt.Errorf("%w: test %s has no questions", backend.ErrMalformed, testID)
	}
	if err != nil {
		fe := &FetchError{TestID: testID, Message: backend.UserMessage(err, msgFetchFailed), Err: err}
		f.errMsg = fe.Message
		f.logger.Warn("loading questions failed", zap.String("test_id", testID.String()), zap.Error(err))
		return fe
	}

	f.test = detail
	metrics.RecordConsultationEvent("test_selected")
	return nil
}

type pendingAnswer struct {
	gen          uint64
	testID       backend.ID
	question     backend.Question
	index        int
	last         bool
	answerID     backend.ID
	measure      *bmi.Result
	testResultID backend.ID
	resubmit     bool
}

func (p pendingAnswer) bmiFields() (height, weight string, value *float64) {
	if p.measure == nil {
		return "", "", nil
	}
	payload := p.measure.Payload()
	return payload.HeightCm, payload.Weight, &payload.BMIValue
}

// Answer submits the answer for the current question and advances only once
// the backend confirmed it. The last answer also completes the test.
func (f *Flow) Answer(ctx context.Context, sess session.Session, in AnswerInput) error {
	opCtx, done, err := f.begin(ctx)
	if err != nil {
		return err
	}
	defer done()

	p, err := f.prepareAnswer(in)
	if err != nil {
		return err
	}

	switch {
	case p.testResultID == "":
		req := backend.StartTestRequest{TestID: p.testID, QuestionID: p.question.ID, AnswerID: p.answerID}
		req.HeightCm, req.Weight, req.BMIValue = p.bmiFields()

		id, err := f.backend.StartTest(opCtx, sess, req)

		f.mu.Lock()
		if p.gen != f.gen {
			f.mu.Unlock()
			return ErrStale
		}
		if err != nil {
			// The wizard stays on the first question without a message.
			f.mu.Unlock()
			f.logger.Warn("start test failed", zap.String("test_id", p.testID.String()), zap.Error(err))
			metrics.RecordConsultationEvent("start_failed")
			return nil
		}
		f.testResultID = id
		p.testResultID = id
		f.mu.Unlock()
		metrics.RecordConsultationEvent("started")

	case !p.resubmit:
		req := backend.SubmitAnswerRequest{
			TestResultID: p.testResultID,
			TestID:       p.testID,
			QuestionID:   p.question.ID,
			AnswerID:     p.answerID,
		}
		req.HeightCm, req.Weight, req.BMIValue = p.bmiFields()

		err := f.backend.SubmitAnswer(opCtx, sess, req)

		f.mu.Lock()
		if p.gen != f.gen {
			f.mu.Unlock()
			return ErrStale
		}
		if err != nil {
			se := &SubmissionError{Op: "submit_answer", Message: backend.UserMessage(err, msgSubmitFailed), Err: err}
			f.errMsg = se.Message
			f.mu.Unlock()
			return se
		}
		f.mu.Unlock()
	}

	f.mu.Lock()
	if p.gen != f.gen {
		f.mu.Unlock()
		return ErrStale
	}
	f.answers[p.question.ID] = p.answerID
	if p.measure != nil {
		f.lastBMI = p.measure
	}
	if !p.last {
		f.index = p.index + 1
		f.mu.Unlock()
		return nil
	}
	f.mu.Unlock()

	return f.complete(opCtx, sess, p)
}

func (f *Flow) prepareAnswer(in AnswerInput) (pendingAnswer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateAnsweringQuestions || f.test == nil || f.loading {
		return pendingAnswer{}, ErrInvalidState
	}

	q := f.test.Questions[f.index]
	p := pendingAnswer{
		gen:          f.gen,
		testID:       f.testID,
		question:     q,
		index:        f.index,
		last:         f.index == len(f.test.Questions)-1,
		testResultID: f.testResultID,
	}

	if q.IsBMI {
		if in.BMI == nil {
			return pendingAnswer{}, &bmi.ValidationError{Fields: map[string]string{
				"bmi": "Height and weight are required",
			}}
		}
		res, err := bmi.Calculate(*in.BMI)
		if err != nil {
			return pendingAnswer{}, err
		}
		if len(q.Answers) == 0 {
			return pendingAnswer{}, fmt.Errorf("%w: BMI question %s has no answer option", ErrInvalidAnswer, q.ID)
		}
		p.answerID = q.Answers[0].ID
		p.measure = &res
	} else {
		if in.AnswerID == "" || !q.HasAnswer(in.AnswerID) {
			return pendingAnswer{}, ErrInvalidAnswer
		}
		p.answerID = in.AnswerID
	}

	// Retrying completion after a failure must not resend the same final answer.
	prev, answered := f.answers[q.ID]
	p.resubmit = p.last && answered && prev == p.answerID && p.testResultID != "" && p.measure == nil

	f.errMsg = ""
	return p, nil
}

func (f *Flow) complete(ctx context.Context, sess session.Session, p pendingAnswer) error {
	f.mu.Lock()
	if f.completedFor == p.testResultID {
		f.mu.Unlock()
		return ErrAlreadyCompleted
	}
	f.mu.Unlock()

	data, err := f.backend.CompleteTest(ctx, sess, p.testResultID)

	f.mu.Lock()
	if p.gen != f.gen {
		f.mu.Unlock()
		return ErrStale
	}
	if err != nil {
		se := &SubmissionError{Op: "complete_test", Message: backend.UserMessage(err, msgCompleteFailed), Err: err}
		f.errMsg = se.Message
		f.mu.Unlock()
		f.logger.Warn("completing test failed", zap.String("test_result_id", p.testResultID.String()), zap.Error(err))
		return se
	}
	if data == nil {
		data = &backend.CompletionData{}
	}
	f.completedFor = p.testResultID
	f.completion = data
	f.state = StateCompleted
	f.mu.Unlock()
	metrics.RecordConsultationEvent("completed")

	outcome, cartErr := f.bridge.Resolve(ctx, sess, data)

	rec := Completion{
		FlowID:       f.id,
		Owner:        f.owner,
		TestID:       p.testID,
		TestResultID: p.testResultID,
		Data:         *data,
		Outcome:      outcome,
	}

	f.mu.Lock()
	if cartErr != nil {
		msg := cartErrorMessage(cartErr)
		f.errMsg = msg
		rec.CartError = msg
	} else {
		f.outcome = outcome
	}
	f.mu.Unlock()

	f.record(ctx, rec)
	return cartErr
}

// cartErrorMessage is the user-facing text for a failed cart hand-off.
func cartErrorMessage(err error) string {
	var ce *CartError
	if errors.As(err, &ce) {
		return ce.Message
	}
	return err.Error()
}

func (f *Flow) record(ctx context.Context, rec Completion) {
	if f.recorder == nil {
		return
	}
	if err := f.recorder.RecordCompletion(context.WithoutCancel(ctx), rec); err != nil {
		f.logger.Error("recording completion failed", zap.String("test_result_id", rec.TestResultID.String()), zap.Error(err))
	}
}

// Back moves to the previous question, or from the first question back to
// test selection. A test result already created upstream is abandoned.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}

	switch f.state {
	case StateAnsweringQuestions:
		f.invalidateLocked()
		f.errMsg = ""
		f.loading = false
		if f.test != nil && f.index > 0 {
			f.index--
			return nil
		}
		f.abandonLocked()
		f.resetLocked()
		f.state = StateSelectingTest
		return nil
	case StateSelectingTest:
		return nil
	default:
		return ErrInvalidState
	}
}

// Close cancels whatever is in flight; the flow accepts nothing afterwards.
func (f *Flow) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.invalidateLocked()
	f.mu.Unlock()
	f.cancel()
}
