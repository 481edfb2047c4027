package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigURLs(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		wantSuccess string
		wantCancel  string
		wantPortal  string
	}{
		{
			name:        "defaults derive from site url",
			cfg:         Config{SiteURL: "https://app.example.com"},
			wantSuccess: "https://app.example.com/dashboard?session_id={CHECKOUT_SESSION_ID}",
			wantCancel:  "https://app.example.com/pricing",
			wantPortal:  "https://app.example.com/dashboard",
		},
		{
			name: "explicit urls win",
			cfg: Config{
				SiteURL:         "https://app.example.com",
				SuccessURL:      "https://app.example.com/thanks",
				CancelURL:       "https://app.example.com/back",
				PortalReturnURL: "https://app.example.com/account",
			},
			wantSuccess: "https://app.example.com/thanks?session_id={CHECKOUT_SESSION_ID}",
			wantCancel:  "https://app.example.com/back",
			wantPortal:  "https://app.example.com/account",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantSuccess, tt.cfg.CheckoutSuccessURL())
			assert.Equal(t, tt.wantCancel, tt.cfg.CheckoutCancelURL())
			assert.Equal(t, tt.wantPortal, tt.cfg.PortalURL())
		})
	}
}

func TestWebhookConfigured(t *testing.T) {
	assert.False(t, Config{}.WebhookConfigured())
	assert.False(t, Config{WebhookSecret: "whsec"}.WebhookConfigured())
	assert.False(t, Config{SecretKey: "sk"}.WebhookConfigured())
	assert.True(t, Config{SecretKey: "sk", WebhookSecret: "whsec"}.WebhookConfigured())
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_env")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_env")
	t.Setenv("SITE_URL", "https://saas.example.com/")

	cfg := ConfigFromEnv()
	assert.Equal(t, "sk_test_env", cfg.SecretKey)
	assert.Equal(t, "whsec_env", cfg.WebhookSecret)
	assert.Equal(t, "https://saas.example.com", cfg.SiteURL)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrProviderCall))
	assert.True(t, IsRetryable(ErrCustomerDeleted))
	assert.True(t, IsRetryable(ErrInvalidPayload))
	assert.False(t, IsRetryable(ErrUnknownStatus))
	assert.False(t, IsRetryable(ErrOwnerUnknown))
	assert.False(t, IsRetryable(nil))
}

func TestUnixTime(t *testing.T) {
	assert.Nil(t, UnixTime(0))
	assert.Nil(t, UnixTime(-5))

	got := UnixTime(1735689600)
	if assert.NotNil(t, got) {
		assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), *got)
		assert.Equal(t, time.UTC, got.Location())
	}
}
