package billing

import (
	"fmt"

	"github.com/stripe/stripe-go/v78"
	checkoutsession "github.com/stripe/stripe-go/v78/checkout/session"
)

// Config carries the Stripe keys and redirect URLs for the premium product.
type Config struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
	PriceCents    int64
	PremiumDays   int
	ProductName   string
}

// DefaultProductName matches the fixed product the checkout sells.
const DefaultProductName = "Abonnement Premium 1 mois"

// Checkout creates Stripe Checkout sessions for the fixed premium product.
type Checkout struct {
	cfg Config
}

func NewCheckout(cfg Config) *Checkout {
	if cfg.ProductName == "" {
		cfg.ProductName = DefaultProductName
	}
	stripe.Key = cfg.SecretKey
	return &Checkout{cfg: cfg}
}

// CreateSession builds a one-off EUR checkout session carrying the user id in
// metadata so the webhook can route the premium activation.
func (c *Checkout) CreateSession(userID string) (string, error) {
	if userID == "" {
		userID = "demo"
	}
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(string(stripe.CurrencyEUR)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(c.cfg.ProductName),
					},
					UnitAmount: stripe.Int64(c.cfg.PriceCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(c.cfg.SuccessURL),
		CancelURL:  stripe.String(c.cfg.CancelURL),
	}
	params.AddMetadata("user_id", userID)

	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}
