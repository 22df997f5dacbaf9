package billing

import (
	"context"
	"testing"
	"time"

	"github.com/upliftingvibes/backend/internal/models"
	"github.com/upliftingvibes/backend/internal/payments"
	"github.com/upliftingvibes/backend/internal/repositories"
)

type fakeProfileStore struct {
	profiles map[string]models.UserProfile // keyed by account id
	flagSets int
}

func (s *fakeProfileStore) FindByAccountID(_ context.Context, accountID string) (models.UserProfile, error) {
	profile, ok := s.profiles[accountID]
	if !ok {
		return models.UserProfile{}, repositories.ErrNotFound
	}
	return profile, nil
}

func (s *fakeProfileStore) SetOnboardingComplete(_ context.Context, profileID string, complete bool) error {
	for accountID, profile := range s.profiles {
		if profile.ID == profileID {
			profile.OnboardingComplete = complete
			s.profiles[accountID] = profile
			s.flagSets++
			return nil
		}
	}
	return repositories.ErrNotFound
}

type fakePayoutStore struct {
	payouts map[string]models.Payout // keyed by external payout id
}

func (s *fakePayoutStore) Upsert(_ context.Context, payout models.Payout) error {
	if existing, ok := s.payouts[payout.ID]; ok && payout.PaidAt == nil {
		payout.PaidAt = existing.PaidAt
	}
	s.payouts[payout.ID] = payout
	return nil
}

func newProcessor(profiles *fakeProfileStore, payouts *fakePayoutStore) *Processor {
	return &Processor{
		Profiles: profiles,
		Payouts:  payouts,
		NowFunc:  func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func TestProcessAccountUpdatedSetsAndClearsFlag(t *testing.T) {
	profiles := &fakeProfileStore{profiles: map[string]models.UserProfile{
		"acct_1": {ID: "user-1", ConnectAccountID: "acct_1"},
	}}
	processor := newProcessor(profiles, &fakePayoutStore{payouts: map[string]models.Payout{}})

	event := payments.AccountUpdated{Account: payments.Account{
		ID: "acct_1", DetailsSubmitted: true, ChargesEnabled: true, PayoutsEnabled: true,
	}}
	if err := processor.Process(context.Background(), event); err != nil {
		t.Fatalf("process: %v", err)
	}
	if !profiles.profiles["acct_1"].OnboardingComplete {
		t.Fatal("expected onboarding flag set")
	}

	// Webhook path is two-way: a capability regression clears the flag.
	event.Account.PayoutsEnabled = false
	if err := processor.Process(context.Background(), event); err != nil {
		t.Fatalf("process regression: %v", err)
	}
	if profiles.profiles["acct_1"].OnboardingComplete {
		t.Fatal("expected onboarding flag cleared")
	}
}

func TestProcessAccountUpdatedNoWriteWhenUnchanged(t *testing.T) {
	profiles := &fakeProfileStore{profiles: map[string]models.UserProfile{
		"acct_1": {ID: "user-1", ConnectAccountID: "acct_1", OnboardingComplete: true},
	}}
	processor := newProcessor(profiles, &fakePayoutStore{payouts: map[string]models.Payout{}})

	event := payments.AccountUpdated{Account: payments.Account{
		ID: "acct_1", DetailsSubmitted: true, ChargesEnabled: true, PayoutsEnabled: true,
	}}
	if err := processor.Process(context.Background(), event); err != nil {
		t.Fatalf("process: %v", err)
	}
	if profiles.flagSets != 0 {
		t.Fatalf("expected no flag writes, got %d", profiles.flagSets)
	}
}

func TestProcessAccountUpdatedUnknownProfileIsNoOp(t *testing.T) {
	profiles := &fakeProfileStore{profiles: map[string]models.UserProfile{}}
	processor := newProcessor(profiles, &fakePayoutStore{payouts: map[string]models.Payout{}})

	event := payments.AccountUpdated{Account: payments.Account{ID: "acct_missing"}}
	if err := processor.Process(context.Background(), event); err != nil {
		t.Fatalf("expected no-op, got error: %v", err)
	}
}

func TestProcessPayoutPaidIsIdempotent(t *testing.T) {
	profiles := &fakeProfileStore{profiles: map[string]models.UserProfile{
		"acct_1": {ID: "user-1", ConnectAccountID: "acct_1"},
	}}
	payouts := &fakePayoutStore{payouts: map[string]models.Payout{}}
	processor := newProcessor(profiles, payouts)

	event := payments.PayoutUpdated{
		AccountID: "acct_1",
		Payout:    payments.Payout{ID: "po_1", Status: "paid", AmountCents: 4950},
	}

	for i := 0; i < 2; i++ {
		if err := processor.Process(context.Background(), event); err != nil {
			t.Fatalf("process delivery %d: %v", i+1, err)
		}
	}

	if len(payouts.payouts) != 1 {
		t.Fatalf("expected exactly one payout row, got %d", len(payouts.payouts))
	}

	payout := payouts.payouts["po_1"]
	if payout.Status != models.PayoutStatusPaid {
		t.Fatalf("expected status paid, got %q", payout.Status)
	}
	if payout.PaidAt == nil {
		t.Fatal("expected paid_at to be set")
	}
	if payout.AmountCents != 4950 {
		t.Fatalf("expected amount 4950, got %d", payout.AmountCents)
	}
	if payout.ProfileID != "user-1" {
		t.Fatalf("expected payout bound to user-1, got %q", payout.ProfileID)
	}
}

func TestProcessPayoutFailedLeavesPaidAtUnset(t *testing.T) {
	profiles := &fakeProfileStore{profiles: map[string]models.UserProfile{
		"acct_1": {ID: "user-1", ConnectAccountID: "acct_1"},
	}}
	payouts := &fakePayoutStore{payouts: map[string]models.Payout{}}
	processor := newProcessor(profiles, payouts)

	event := payments.PayoutUpdated{
		AccountID: "acct_1",
		Payout:    payments.Payout{ID: "po_2", Status: "failed", AmountCents: 1000},
	}
	if err := processor.Process(context.Background(), event); err != nil {
		t.Fatalf("process: %v", err)
	}

	payout := payouts.payouts["po_2"]
	if payout.Status != models.PayoutStatusFailed {
		t.Fatalf("expected status failed, got %q", payout.Status)
	}
	if payout.PaidAt != nil {
		t.Fatal("paid_at must only be set on the paid branch")
	}
}

func TestProcessLogOnlyEvents(t *testing.T) {
	processor := newProcessor(
		&fakeProfileStore{profiles: map[string]models.UserProfile{}},
		&fakePayoutStore{payouts: map[string]models.Payout{}},
	)

	events := []payments.Event{
		payments.CheckoutCompleted{SessionID: "cs_1"},
		payments.SubscriptionChanged{SubscriptionID: "sub_1", Action: "created"},
		payments.IgnoredEvent{Type: "charge.refunded"},
	}

	for _, event := range events {
		if err := processor.Process(context.Background(), event); err != nil {
			t.Fatalf("expected %T to be a no-op, got %v", event, err)
		}
	}
}

func TestMapPayoutStatus(t *testing.T) {
	cases := map[string]string{
		"paid":       models.PayoutStatusPaid,
		"failed":     models.PayoutStatusFailed,
		"canceled":   models.PayoutStatusFailed,
		"pending":    models.PayoutStatusPending,
		"in_transit": models.PayoutStatusPending,
	}
	for input, want := range cases {
		if got := MapPayoutStatus(input); got != want {
			t.Errorf("MapPayoutStatus(%q) = %q, want %q", input, got, want)
		}
	}
}
