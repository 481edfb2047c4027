package billing

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ManuelReschke/SaaSKit/app/models"
)

// sqlRecorder collects every statement GORM renders.
type sqlRecorder struct {
	statements []string
}

func (r *sqlRecorder) LogMode(logger.LogLevel) logger.Interface { return r }
func (r *sqlRecorder) Info(context.Context, string, ...interface{}) {}
func (r *sqlRecorder) Warn(context.Context, string, ...interface{}) {}
func (r *sqlRecorder) Error(context.Context, string, ...interface{}) {}

func (r *sqlRecorder) Trace(_ context.Context, _ time.Time, fc func() (string, int64), _ error) {
	sql, _ := fc()
	r.statements = append(r.statements, sql)
}

func (r *sqlRecorder) find(prefix string) string {
	for _, s := range r.statements {
		if strings.HasPrefix(s, prefix) {
			return s
		}
	}
	return ""
}

type dialectCase struct {
	name      string
	dialector gorm.Dialector
	upsert    string
	ignore    string
	quote     func(string) string
}

func dialectCases() []dialectCase {
	return []dialectCase{
		{
			name: "mysql",
			dialector: mysql.New(mysql.Config{
				DSN:                       "user:pass@tcp(127.0.0.1:3306)/saaskit?parseTime=True",
				SkipInitializeWithVersion: true,
			}),
			upsert: "ON DUPLICATE KEY UPDATE",
			ignore: "ON DUPLICATE KEY UPDATE",
			quote:  func(s string) string { return "`" + s + "`" },
		},
		{
			name: "postgres",
			dialector: postgres.New(postgres.Config{
				DSN: "host=127.0.0.1 user=user password=pass dbname=saaskit port=5432 sslmode=disable",
			}),
			upsert: `ON CONFLICT ("stripe_subscription_id") DO UPDATE SET`,
			ignore: `ON CONFLICT ("stripe_payment_intent_id") DO NOTHING`,
			quote:  func(s string) string { return `"` + s + `"` },
		},
	}
}

func dryRunRepository(t *testing.T, dialector gorm.Dialector) (*gormRepository, *sqlRecorder) {
	t.Helper()
	rec := &sqlRecorder{}
	db, err := gorm.Open(dialector, &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               rec,
	})
	require.NoError(t, err)
	return &gormRepository{db: db}, rec
}

// updatedColumns returns the part of an upsert that lists overwritten columns.
func updatedColumns(sql, marker string) string {
	idx := strings.Index(sql, marker)
	if idx < 0 {
		return ""
	}
	return sql[idx+len(marker):]
}

func TestGormRepository_UpsertSubscriptionSQL(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, tc := range dialectCases() {
		t.Run(tc.name, func(t *testing.T) {
			repo, rec := dryRunRepository(t, tc.dialector)
			sub := &models.Subscription{
				UserID:               7,
				StripeCustomerID:     "cus_1",
				StripeSubscriptionID: "sub_1",
				Status:               models.SubscriptionStatusActive,
				PriceID:              "price_pro",
				CurrentPeriodStart:   &start,
			}
			require.NoError(t, repo.UpsertSubscription(sub))

			insert := rec.find("INSERT INTO")
			require.NotEmpty(t, insert, rec.statements)
			require.Contains(t, insert, tc.upsert)

			set := updatedColumns(insert, tc.upsert)
			for _, col := range []string{"status", "cancel_at_period_end", "updated_at", "stripe_customer_id", "price_id", "current_period_start"} {
				assert.Contains(t, set, tc.quote(col), col)
			}
			for _, col := range []string{"user_id", "plan_name", "current_period_end", "created_at"} {
				assert.NotContains(t, set, tc.quote(col)+"=", col)
			}
		})
	}
}

func TestGormRepository_InsertPaymentIgnoresDuplicates(t *testing.T) {
	for _, tc := range dialectCases() {
		t.Run(tc.name, func(t *testing.T) {
			repo, rec := dryRunRepository(t, tc.dialector)
			payment := &models.Payment{
				UserID:                7,
				StripePaymentIntentID: "pi_1",
				Amount:                2999,
				Currency:              "usd",
				Status:                models.PaymentStatusSucceeded,
				Type:                  models.ProductTypeOneTime,
			}
			require.NoError(t, repo.insertPayment(payment).Error)

			insert := rec.find("INSERT INTO")
			require.NotEmpty(t, insert, rec.statements)
			assert.Contains(t, insert, tc.ignore)
			assert.NotContains(t, updatedColumns(insert, tc.ignore), tc.quote("amount"))
		})
	}
}

func TestGormRepository_WebhookEventDedupSQL(t *testing.T) {
	for _, tc := range dialectCases() {
		t.Run(tc.name, func(t *testing.T) {
			repo, rec := dryRunRepository(t, tc.dialector)
			event := &models.BillingWebhookEvent{
				StripeEventID:  "evt_1",
				EventType:      "invoice.paid",
				PayloadJSON:    "{}",
				SignatureValid: true,
				Attempts:       1,
			}
			// A dry run reports no inserted row, so the redelivery path runs too.
			created, _, err := repo.CreateWebhookEventIfNotExists(event)
			require.NoError(t, err)
			assert.False(t, created)

			insert := rec.find("INSERT INTO")
			require.NotEmpty(t, insert, rec.statements)
			if tc.name == "postgres" {
				assert.Contains(t, insert, `ON CONFLICT ("stripe_event_id") DO NOTHING`)
			} else {
				assert.Contains(t, insert, "ON DUPLICATE KEY UPDATE")
			}

			update := rec.find("UPDATE")
			require.NotEmpty(t, update, rec.statements)
			assert.Contains(t, update, tc.quote("attempts")+"=attempts + 1")
		})
	}
}
