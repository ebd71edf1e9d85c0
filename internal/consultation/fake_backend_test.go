package consultation

import (
	"context"
	"errors"
	"sync"

	"hilop/internal/backend"
	"hilop/pkg/session"
)

var (
	errBoom     = errors.New("boom")
	testSess    = session.Session{Token: "tok", Subject: "user-1"}
	twoStepTest = &backend.TestDetail{
		ID: "t1",
		Questions: []backend.Question{
			{ID: "q1", Answers: []backend.Answer{{ID: "a1"}, {ID: "a2"}}},
			{ID: "q2", Answers: []backend.Answer{{ID: "b1"}, {ID: "b2"}}},
		},
	}
)

type fakeBackend struct {
	mu sync.Mutex

	getTest  func(ctx context.Context, id backend.ID) (*backend.TestDetail, error)
	start    func(ctx context.Context, req backend.StartTestRequest) (backend.ID, error)
	submit   func(ctx context.Context, req backend.SubmitAnswerRequest) error
	complete func(ctx context.Context, id backend.ID) (*backend.CompletionData, error)
	addCart  func(ctx context.Context, req backend.AddToCartRequest) error

	starts    []backend.StartTestRequest
	submits   []backend.SubmitAnswerRequest
	completes []backend.ID
	carts     []backend.AddToCartRequest
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		getTest: func(context.Context, backend.ID) (*backend.TestDetail, error) { return twoStepTest, nil },
		start:   func(context.Context, backend.StartTestRequest) (backend.ID, error) { return "tr-1", nil },
		submit:  func(context.Context, backend.SubmitAnswerRequest) error { return nil },
		complete: func(context.Context, backend.ID) (*backend.CompletionData, error) {
			return &backend.CompletionData{IsCompleted: true}, nil
		},
		addCart: func(context.Context, backend.AddToCartRequest) error { return nil },
	}
}

func (b *fakeBackend) GetTest(ctx context.Context, _ session.Session, id backend.ID) (*backend.TestDetail, error) {
	return b.getTest(ctx, id)
}

func (b *fakeBackend) StartTest(ctx context.Context, _ session.Session, req backend.StartTestRequest) (backend.ID, error) {
	b.mu.Lock()
	b.starts = append(b.starts, req)
	b.mu.Unlock()
	return b.start(ctx, req)
}

func (b *fakeBackend) SubmitAnswer(ctx context.Context, _ session.Session, req backend.SubmitAnswerRequest) error {
	b.mu.Lock()
	b.submits = append(b.submits, req)
	b.mu.Unlock()
	return b.submit(ctx, req)
}

func (b *fakeBackend) CompleteTest(ctx context.Context, _ session.Session, id backend.ID) (*backend.CompletionData, error) {
	b.mu.Lock()
	b.completes = append(b.completes, id)
	b.mu.Unlock()
	return b.complete(ctx, id)
}

func (b *fakeBackend) AddToCart(ctx context.Context, _ session.Session, req backend.AddToCartRequest) error {
	b.mu.Lock()
	b.carts = append(b.carts, req)
	b.mu.Unlock()
	return b.addCart(ctx, req)
}

func (b *fakeBackend) counts() (starts, submits, completes, carts int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.starts), len(b.submits), len(b.completes), len(b.carts)
}

type fakeRecorder struct {
	mu   sync.Mutex
	recs []Completion
	err  error
}

func (r *fakeRecorder) RecordCompletion(_ context.Context, c Completion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, c)
	return r.err
}

func (r *fakeRecorder) all() []Completion {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Completion(nil), r.recs...)
}
