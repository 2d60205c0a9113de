package checkout

import (
	"time"

	"github.com/blackgym/storefront/internal/models"
	"github.com/blackgym/storefront/internal/payment"
)

// Step is the checkout state machine position. Transitions are linear with
// no backward moves except explicit cancel and retry.
type Step string

const (
	StepForm       Step = "form"
	StepPayment    Step = "payment"
	StepProcessing Step = "processing"
	StepResult     Step = "result"
)

type Outcome string

const (
	OutcomePending Outcome = "pending"
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Default failure reasons: the simulation declining reads as the bank
// refusing, order submission failing reads as the server's fault.
const (
	ReasonInsufficientFunds = "insufficient funds"
	ReasonServerError       = "server error"
)

// Session is the ephemeral state of one checkout run. It never survives a
// reload; only the resulting order does.
type Session struct {
	ID            string              `json:"id"`
	Step          Step                `json:"step"`
	Outcome       Outcome             `json:"outcome"`
	FailureReason string              `json:"failure_reason,omitempty"`
	Form          models.CheckoutForm `json:"form"`
	CardMasked    string              `json:"card_masked,omitempty"`
	CardBrand     payment.Brand       `json:"card_brand,omitempty"`
	Progress      int                 `json:"progress"`
	PhaseIndex    int                 `json:"phase_index"`
	Phase         string              `json:"phase,omitempty"`
	TransactionID string              `json:"transaction_id,omitempty"`
	OrderID       int64               `json:"order_id,omitempty"`
	Items         []models.CartItem   `json:"items,omitempty"`
	Total         float64             `json:"total"`
	CreatedAt     time.Time           `json:"created_at"`
}
