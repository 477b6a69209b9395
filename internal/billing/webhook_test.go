package billing

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v78"
)

func TestHandleEventActivatesPremiumAndResetsDemo(t *testing.T) {
	identity := &fakeIdentityUpdater{}
	hook := NewWebhook(identity, Config{PremiumDays: 30})
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	hook.now = func() time.Time { return now }

	event := checkoutCompleted(t, "user-42")
	if err := hook.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	if identity.premiumUser != "user-42" || !identity.premium {
		t.Fatalf("expected premium set for user-42, got %+v", identity)
	}
	wantExpiry := now.AddDate(0, 0, 30)
	if identity.expiresAt == nil || !identity.expiresAt.Equal(wantExpiry) {
		t.Fatalf("expected expiry %s, got %v", wantExpiry, identity.expiresAt)
	}
	if identity.demoResetUser != "user-42" {
		t.Fatalf("expected demo counter reset for user-42")
	}
}

func TestHandleEventIgnoresOtherTypes(t *testing.T) {
	identity := &fakeIdentityUpdater{}
	hook := NewWebhook(identity, Config{})

	event := stripe.Event{Type: "invoice.paid", Data: &stripe.EventData{Raw: json.RawMessage(`{}`)}}
	if err := hook.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if identity.premiumUser != "" || identity.demoResetUser != "" {
		t.Fatalf("unrelated event must not touch identity")
	}
}

func TestHandleEventSkipsDemoAndAnonymousCheckouts(t *testing.T) {
	for _, userID := range []string{"", "demo"} {
		identity := &fakeIdentityUpdater{}
		hook := NewWebhook(identity, Config{})
		if err := hook.HandleEvent(context.Background(), checkoutCompleted(t, userID)); err != nil {
			t.Fatalf("handle event for %q: %v", userID, err)
		}
		if identity.premiumUser != "" {
			t.Fatalf("checkout with user id %q must be skipped", userID)
		}
	}
}

func TestHandleEventSwallowsIdentityFailures(t *testing.T) {
	identity := &fakeIdentityUpdater{fail: true}
	hook := NewWebhook(identity, Config{})
	if err := hook.HandleEvent(context.Background(), checkoutCompleted(t, "user-42")); err != nil {
		t.Fatalf("identity failure must not surface to the caller: %v", err)
	}
}

func checkoutCompleted(t *testing.T, userID string) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{
		"id":       "cs_test_1",
		"metadata": map[string]string{"user_id": userID},
	})
	if err != nil {
		t.Fatalf("marshal session: %v", err)
	}
	return stripe.Event{
		Type: "checkout.session.completed",
		Data: &stripe.EventData{Raw: raw},
	}
}

type fakeIdentityUpdater struct {
	fail          bool
	premium       bool
	premiumUser   string
	expiresAt     *time.Time
	demoResetUser string
}

func (f *fakeIdentityUpdater) SetPremium(ctx context.Context, userID string, premium bool, expiresAt *time.Time) error {
	if f.fail {
		return errDown
	}
	f.premiumUser = userID
	f.premium = premium
	f.expiresAt = expiresAt
	return nil
}

func (f *fakeIdentityUpdater) ResetDemo(ctx context.Context, userID string) error {
	if f.fail {
		return errDown
	}
	f.demoResetUser = userID
	return nil
}

var errDown = errors.New("identity store down")
