package consultation

import (
	"context"

	"go.uber.org/zap"

	"hilop/internal/backend"
	"hilop/pkg/session"
)

type Presentation string

const (
	PresentationModal    Presentation = "modal"
	PresentationRedirect Presentation = "redirect"

	CartPath = "/cart"
)

type CartAdder interface {
	AddToCart(ctx context.Context, sess session.Session, req backend.AddToCartRequest) error
}

// Outcome is what the frontend does after a successful completion.
type Outcome struct {
	Presentation   Presentation
	RedirectTo     string
	Plan           *backend.TreatmentPlan
	AddedProductID backend.ID
}

// Bridge turns completion data into a cart side effect and a presentation.
type Bridge struct {
	cart   CartAdder
	logger *zap.Logger
}

func NewBridge(cart CartAdder, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{cart: cart, logger: logger}
}

// Resolve adds the recommended product (quantity 1) when there is one and
// picks the modal when treatment plans came back, the cart otherwise. A
// cart failure stops here with a *CartError and no outcome.
func (b *Bridge) Resolve(ctx context.Context, sess session.Session, data *backend.CompletionData) (*Outcome, error) {
	out := &Outcome{}

	if id := data.RecommendedProductID; id != "" {
		err := b.cart.AddToCart(ctx, sess, backend.AddToCartRequest{ProductID: id, Quantity: 1})
		if err != nil {
			b.logger.Warn("adding recommended product failed", zap.String("product_id", id.String()), zap.Error(err))
			return nil, &CartError{
				ProductID: id,
				Message:   backend.UserMessage(err, msgCartFailed),
				Err:       err,
			}
		}
		out.AddedProductID = id
	}

	if len(data.TreatmentPlans) > 0 {
		plan := data.TreatmentPlans[0]
		out.Presentation = PresentationModal
		out.Plan = &plan
		return out, nil
	}

	out.Presentation = PresentationRedirect
	out.RedirectTo = CartPath
	return out, nil
}
