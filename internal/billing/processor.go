package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/upliftingvibes/backend/internal/logging"
	"github.com/upliftingvibes/backend/internal/models"
	"github.com/upliftingvibes/backend/internal/payments"
	"github.com/upliftingvibes/backend/internal/repositories"
)

// ProfileStore is the profile access the processor needs to mirror account
// state.
type ProfileStore interface {
	FindByAccountID(ctx context.Context, accountID string) (models.UserProfile, error)
	SetOnboardingComplete(ctx context.Context, profileID string, complete bool) error
}

// PayoutStore persists payout rows keyed by the processor's payout id.
type PayoutStore interface {
	Upsert(ctx context.Context, payout models.Payout) error
}

// Processor translates verified webhook events into datastore writes. Every
// write is an upsert keyed on an external stable id, so redelivered events
// are harmless.
type Processor struct {
	Profiles ProfileStore
	Payouts  PayoutStore
	NowFunc  func() time.Time
}

// Process dispatches a single event. A lookup that finds no matching profile
// is a logged no-op, not an error; returning an error signals the sender to
// redeliver.
func (p *Processor) Process(ctx context.Context, event payments.Event) error {
	ctx, span := logging.StartSpan(ctx, "billing.process")
	defer span.End()

	logger := logging.FromContext(ctx)

	switch e := event.(type) {
	case payments.AccountUpdated:
		return p.handleAccountUpdated(ctx, e)

	case payments.PayoutUpdated:
		return p.handlePayoutUpdated(ctx, e)

	case payments.CheckoutCompleted:
		// Checkout fulfilment is not persisted yet; the processor dashboard
		// remains the record of sales.
		logger.Info("checkout session completed", "sessionId", e.SessionID)
		return nil

	case payments.SubscriptionChanged:
		logger.Info("subscription change received", "subscriptionId", e.SubscriptionID, "action", e.Action)
		return nil

	case payments.IgnoredEvent:
		logger.Info("unhandled event type", "type", e.Type)
		return nil

	default:
		logger.Warn("event kind missing from dispatch", "event", fmt.Sprintf("%T", event))
		return nil
	}
}

// handleAccountUpdated mirrors the processor's capability flags onto the
// owning profile. Unlike the status poll endpoint, this path may both set and
// clear the onboarding flag: the webhook carries the processor's
// authoritative view.
func (p *Processor) handleAccountUpdated(ctx context.Context, e payments.AccountUpdated) error {
	logger := logging.FromContext(ctx)

	profile, err := p.Profiles.FindByAccountID(ctx, e.Account.ID)
	if errors.Is(err, repositories.ErrNotFound) {
		logger.Warn("account update for unknown profile", "accountId", e.Account.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("find profile for account %s: %w", e.Account.ID, err)
	}

	complete := e.Account.OnboardingComplete()
	if profile.OnboardingComplete == complete {
		return nil
	}

	if err := p.Profiles.SetOnboardingComplete(ctx, profile.ID, complete); err != nil {
		return fmt.Errorf("set onboarding complete for %s: %w", profile.ID, err)
	}

	logger.Info("onboarding flag updated", "profileId", profile.ID, "complete", complete)
	return nil
}

func (p *Processor) handlePayoutUpdated(ctx context.Context, e payments.PayoutUpdated) error {
	logger := logging.FromContext(ctx)

	profile, err := p.Profiles.FindByAccountID(ctx, e.AccountID)
	if errors.Is(err, repositories.ErrNotFound) {
		logger.Warn("payout for unknown profile", "accountId", e.AccountID, "payoutId", e.Payout.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("find profile for account %s: %w", e.AccountID, err)
	}

	payout := models.Payout{
		ID:          e.Payout.ID,
		ProfileID:   profile.ID,
		AccountID:   e.AccountID,
		Status:      MapPayoutStatus(e.Payout.Status),
		AmountCents: e.Payout.AmountCents,
	}

	if payout.Status == models.PayoutStatusPaid {
		paidAt := p.now()
		payout.PaidAt = &paidAt
	}

	if err := p.Payouts.Upsert(ctx, payout); err != nil {
		return fmt.Errorf("upsert payout %s: %w", payout.ID, err)
	}

	logger.Info("payout recorded", "payoutId", payout.ID, "profileId", profile.ID, "status", payout.Status)
	return nil
}

// MapPayoutStatus folds the processor's payout states into the local enum.
// Anything that is not terminal maps to pending.
func MapPayoutStatus(processorStatus string) string {
	switch processorStatus {
	case "paid":
		return models.PayoutStatusPaid
	case "failed", "canceled":
		return models.PayoutStatusFailed
	default:
		return models.PayoutStatusPending
	}
}

func (p *Processor) now() time.Time {
	if p.NowFunc != nil {
		return p.NowFunc()
	}
	return time.Now().UTC()
}
