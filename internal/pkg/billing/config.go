package billing

import (
	"strings"

	"github.com/ManuelReschke/SaaSKit/internal/pkg/env"
)

// Config holds Stripe credentials and redirect targets.
type Config struct {
	SecretKey       string
	WebhookSecret   string
	SiteURL         string
	SuccessURL      string
	CancelURL       string
	PortalReturnURL string
}

func ConfigFromEnv() Config {
	return Config{
		SecretKey:       env.GetEnv("STRIPE_SECRET_KEY", ""),
		WebhookSecret:   env.GetEnv("STRIPE_WEBHOOK_SECRET", ""),
		SiteURL:         strings.TrimRight(env.GetEnv("SITE_URL", "http://localhost:4000"), "/"),
		SuccessURL:      env.GetEnv("STRIPE_SUCCESS_URL", ""),
		CancelURL:       env.GetEnv("STRIPE_CANCEL_URL", ""),
		PortalReturnURL: env.GetEnv("STRIPE_PORTAL_RETURN_URL", ""),
	}
}

// WebhookConfigured reports whether events can be verified and followed up
// with API calls.
func (c Config) WebhookConfigured() bool {
	return c.WebhookSecret != "" && c.SecretKey != ""
}

// CheckoutSuccessURL includes the session id placeholder Stripe fills in.
func (c Config) CheckoutSuccessURL() string {
	base := c.SuccessURL
	if base == "" {
		base = c.SiteURL + "/dashboard"
	}
	return base + "?session_id={CHECKOUT_SESSION_ID}"
}

func (c Config) CheckoutCancelURL() string {
	if c.CancelURL != "" {
		return c.CancelURL
	}
	return c.SiteURL + "/pricing"
}

func (c Config) PortalURL() string {
	if c.PortalReturnURL != "" {
		return c.PortalReturnURL
	}
	return c.SiteURL + "/dashboard"
}
