package payments

import (
	"context"
	"time"
)

// Account is the subset of a connected payment account this service acts on.
type Account struct {
	ID               string
	DetailsSubmitted bool
	ChargesEnabled   bool
	PayoutsEnabled   bool
}

// OnboardingComplete reports whether the processor considers the account
// fully able to receive funds.
func (a Account) OnboardingComplete() bool {
	return a.DetailsSubmitted && a.ChargesEnabled && a.PayoutsEnabled
}

// NewAccountParams describes the artist for whom a connected account is
// provisioned.
type NewAccountParams struct {
	Email      string
	UserID     string
	ArtistName string
}

// AccountLinkParams carries the callback URLs bound to an onboarding link.
type AccountLinkParams struct {
	AccountID  string
	RefreshURL string
	ReturnURL  string
}

// Payout carries the processor's view of a payout to a connected account.
// Status is the raw processor status string.
type Payout struct {
	ID          string
	Status      string
	AmountCents int64
	ArrivalDate time.Time
}

// Client is the payment-processor surface needed by the connect endpoints.
// Implementations hold the private API secret; handlers receive a Client so
// tests can substitute fakes.
type Client interface {
	CreateAccount(ctx context.Context, params NewAccountParams) (Account, error)
	GetAccount(ctx context.Context, accountID string) (Account, error)
	CreateOnboardingLink(ctx context.Context, params AccountLinkParams) (string, error)
}

// EventVerifier authenticates an inbound webhook payload and decodes it into
// the closed Event union.
type EventVerifier interface {
	Verify(payload []byte, signatureHeader string) (Event, error)
}

// Event is the closed union of webhook notifications the receiver dispatches
// on. Unrecognized processor event types decode to IgnoredEvent rather than
// an error so the receiver can acknowledge them.
type Event interface {
	isEvent()
}

// AccountUpdated reports a change to a connected account's capability flags.
type AccountUpdated struct {
	Account Account
}

// PayoutUpdated reports a payout reaching a terminal or intermediate state.
// AccountID is the destination connected account the payout belongs to.
type PayoutUpdated struct {
	AccountID string
	Payout    Payout
}

// CheckoutCompleted reports a finished checkout session.
type CheckoutCompleted struct {
	SessionID string
}

// SubscriptionChanged reports a subscription lifecycle transition. Action is
// one of "created", "updated", "deleted".
type SubscriptionChanged struct {
	SubscriptionID string
	Action         string
}

// IgnoredEvent wraps an event type the receiver does not act on.
type IgnoredEvent struct {
	Type string
}

func (AccountUpdated) isEvent()      {}
func (PayoutUpdated) isEvent()       {}
func (CheckoutCompleted) isEvent()   {}
func (SubscriptionChanged) isEvent() {}
func (IgnoredEvent) isEvent()        {}
