package tale

import (
	"context"
	"time"
)

// CodeSender delivers a verification code to a destination (email
// address or phone number). Implementations live in internal/gateway.
type CodeSender interface {
	Send(ctx context.Context, destination, code string) error
}

// BillingPeriod selects monthly or annual billing at checkout.
type BillingPeriod string

const (
	BillMonthly BillingPeriod = "monthly"
	BillAnnual  BillingPeriod = "annual"
)

// Receipt is returned by a successful charge.
type Receipt struct {
	TransactionID string        `json:"transaction_id"`
	PlanID        string        `json:"plan_id"`
	Period        BillingPeriod `json:"period"`
	Amount        float64       `json:"amount"`
	ChargedAt     time.Time     `json:"charged_at"`
}

// PaymentGateway charges for a plan. A declined card is reported as
// ErrDeclined; any other error is a transport failure.
type PaymentGateway interface {
	Charge(ctx context.Context, planID string, period BillingPeriod, amount float64) (*Receipt, error)
}

// StoryGenerator produces a story draft for a child. The draft carries
// title, content, excerpt and duration; the controller assigns the id,
// timestamp and child snapshot fields.
type StoryGenerator interface {
	Generate(ctx context.Context, child *Child, req StoryRequest) (*Story, error)
}

// TokenIssuer mints a session token once a verification code is
// accepted.
type TokenIssuer interface {
	Issue(subject string, now time.Time) (string, error)
}
