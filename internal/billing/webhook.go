package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"
)

// IdentityUpdater is the slice of the identity collaborator the webhook needs.
type IdentityUpdater interface {
	SetPremium(ctx context.Context, userID string, premium bool, expiresAt *time.Time) error
	ResetDemo(ctx context.Context, userID string) error
}

// Webhook reacts to verified Stripe events. Signature verification is
// delegated entirely to the stripe library; this type only consumes the
// verified payload.
type Webhook struct {
	identity IdentityUpdater
	secret   string
	days     int
	now      func() time.Time
}

func NewWebhook(identity IdentityUpdater, cfg Config) *Webhook {
	days := cfg.PremiumDays
	if days <= 0 {
		days = 30
	}
	return &Webhook{identity: identity, secret: cfg.WebhookSecret, days: days, now: time.Now}
}

// Verify checks the Stripe signature and parses the event.
func (w *Webhook) Verify(payload []byte, signature string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, signature, w.secret)
}

// HandleEvent applies a verified event. Only checkout.session.completed is
// acted on; everything else is acknowledged and ignored.
func (w *Webhook) HandleEvent(ctx context.Context, event stripe.Event) error {
	if event.Type != "checkout.session.completed" {
		return nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("decode checkout session: %w", err)
	}
	userID := session.Metadata["user_id"]
	if userID == "" || userID == "demo" {
		log.Printf("checkout completed without a routable user id, skipping")
		return nil
	}

	expiry := w.now().AddDate(0, 0, w.days)
	if err := w.identity.SetPremium(ctx, userID, true, &expiry); err != nil {
		// The event is already acknowledged upstream; log and move on rather
		// than forcing Stripe into redelivery loops against a broken store.
		log.Printf("premium activation failed for %s: %v", userID, err)
		return nil
	}
	log.Printf("premium activated for %s until %s", userID, expiry.Format(time.RFC3339))

	// Observed behavior: a successful payment also refunds the demo counter.
	if err := w.identity.ResetDemo(ctx, userID); err != nil {
		log.Printf("demo reset failed for %s: %v", userID, err)
	}
	return nil
}
