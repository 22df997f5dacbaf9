package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeClient implements Client against the Stripe Connect API.
type StripeClient struct {
	api *client.API
}

// NewStripeClient constructs a client authenticated with the given secret
// key.
func NewStripeClient(secretKey string) *StripeClient {
	return &StripeClient{api: client.New(secretKey, nil)}
}

// CreateAccount provisions an express individual account for an artist and
// tags it with the platform user id.
func (c *StripeClient) CreateAccount(ctx context.Context, p NewAccountParams) (Account, error) {
	params := &stripe.AccountParams{
		Type:         stripe.String(string(stripe.AccountTypeExpress)),
		Country:      stripe.String("US"),
		Email:        stripe.String(p.Email),
		BusinessType: stripe.String(string(stripe.AccountBusinessTypeIndividual)),
		Capabilities: &stripe.AccountCapabilitiesParams{
			CardPayments: &stripe.AccountCapabilitiesCardPaymentsParams{Requested: stripe.Bool(true)},
			Transfers:    &stripe.AccountCapabilitiesTransfersParams{Requested: stripe.Bool(true)},
		},
	}
	params.Context = ctx
	params.AddMetadata("user_id", p.UserID)
	params.AddMetadata("artist_name", p.ArtistName)

	acct, err := c.api.Accounts.New(params)
	if err != nil {
		return Account{}, fmt.Errorf("create connect account: %w", err)
	}
	return accountFromStripe(acct), nil
}

// GetAccount retrieves the live account object from the processor.
func (c *StripeClient) GetAccount(ctx context.Context, accountID string) (Account, error) {
	params := &stripe.AccountParams{}
	params.Context = ctx

	acct, err := c.api.Accounts.GetByID(accountID, params)
	if err != nil {
		return Account{}, fmt.Errorf("retrieve connect account %s: %w", accountID, err)
	}
	return accountFromStripe(acct), nil
}

// CreateOnboardingLink mints a fresh single-use onboarding URL for the
// account. Links are time-limited by the processor; callers request a new one
// per attempt.
func (c *StripeClient) CreateOnboardingLink(ctx context.Context, p AccountLinkParams) (string, error) {
	params := &stripe.AccountLinkParams{
		Account:    stripe.String(p.AccountID),
		RefreshURL: stripe.String(p.RefreshURL),
		ReturnURL:  stripe.String(p.ReturnURL),
		Type:       stripe.String("account_onboarding"),
	}
	params.Context = ctx

	link, err := c.api.AccountLinks.New(params)
	if err != nil {
		return "", fmt.Errorf("create onboarding link for %s: %w", p.AccountID, err)
	}
	return link.URL, nil
}

var _ Client = (*StripeClient)(nil)

// StripeEventVerifier checks webhook signatures against the endpoint secret
// within a tolerance window and decodes verified payloads.
type StripeEventVerifier struct {
	secret    string
	tolerance time.Duration
}

// NewStripeEventVerifier constructs a verifier for the given webhook secret.
func NewStripeEventVerifier(secret string, tolerance time.Duration) *StripeEventVerifier {
	if tolerance <= 0 {
		tolerance = 5 * time.Minute
	}
	return &StripeEventVerifier{secret: secret, tolerance: tolerance}
}

// Verify authenticates the payload and returns the decoded event.
func (v *StripeEventVerifier) Verify(payload []byte, signatureHeader string) (Event, error) {
	ev, err := webhook.ConstructEventWithTolerance(payload, signatureHeader, v.secret, v.tolerance)
	if err != nil {
		return nil, fmt.Errorf("verify webhook signature: %w", err)
	}
	return decodeEvent(ev)
}

var _ EventVerifier = (*StripeEventVerifier)(nil)

func decodeEvent(ev stripe.Event) (Event, error) {
	switch eventType := string(ev.Type); eventType {
	case "account.updated":
		var acct stripe.Account
		if err := json.Unmarshal(ev.Data.Raw, &acct); err != nil {
			return nil, fmt.Errorf("decode account.updated payload: %w", err)
		}
		return AccountUpdated{Account: accountFromStripe(&acct)}, nil

	case "payout.paid", "payout.failed":
		var payout stripe.Payout
		if err := json.Unmarshal(ev.Data.Raw, &payout); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", eventType, err)
		}
		return PayoutUpdated{
			AccountID: ev.Account,
			Payout: Payout{
				ID:          payout.ID,
				Status:      string(payout.Status),
				AmountCents: payout.Amount,
				ArrivalDate: time.Unix(payout.ArrivalDate, 0).UTC(),
			},
		}, nil

	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("decode checkout.session.completed payload: %w", err)
		}
		return CheckoutCompleted{SessionID: session.ID}, nil

	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(ev.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", eventType, err)
		}
		return SubscriptionChanged{
			SubscriptionID: sub.ID,
			Action:         strings.TrimPrefix(eventType, "customer.subscription."),
		}, nil

	default:
		return IgnoredEvent{Type: eventType}, nil
	}
}

func accountFromStripe(acct *stripe.Account) Account {
	return Account{
		ID:               acct.ID,
		DetailsSubmitted: acct.DetailsSubmitted,
		ChargesEnabled:   acct.ChargesEnabled,
		PayoutsEnabled:   acct.PayoutsEnabled,
	}
}
