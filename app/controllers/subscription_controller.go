package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/SaaSKit/internal/pkg/billing"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/usercontext"
)

const requestTimeout = 15 * time.Second

type SubscriptionController struct {
	billing *billing.Service
}

func NewSubscriptionController(svc *billing.Service) *SubscriptionController {
	return &SubscriptionController{billing: svc}
}

// Period boundaries are unix seconds.
type createSubscriptionRequest struct {
	StripeCustomerID     string `json:"stripeCustomerId" validate:"required"`
	StripeSubscriptionID string `json:"stripeSubscriptionId" validate:"required"`
	Status               string `json:"status" validate:"required"`
	PriceID              string `json:"priceId" validate:"required"`
	PlanName             string `json:"planName"`
	CurrentPeriodStart   int64  `json:"currentPeriodStart" validate:"gte=0"`
	CurrentPeriodEnd     int64  `json:"currentPeriodEnd" validate:"gte=0"`
}

type updateSubscriptionRequest struct {
	Status             string `json:"status" validate:"required"`
	CurrentPeriodStart int64  `json:"currentPeriodStart" validate:"gte=0"`
	CurrentPeriodEnd   int64  `json:"currentPeriodEnd" validate:"gte=0"`
	CancelAtPeriodEnd  *bool  `json:"cancelAtPeriodEnd"`
}

// HandleGet returns the caller's most recent subscription, or null.
func (sc *SubscriptionController) HandleGet(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	sub, err := sc.billing.GetUserSubscription(ctx, usercontext.GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(sub)
}

// HandleCancel schedules cancellation at the end of the current period.
func (sc *SubscriptionController) HandleCancel(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	subID, err := sc.billing.CancelSubscription(ctx, usercontext.GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "subscriptionId": subID})
}

func (sc *SubscriptionController) HandleCreate(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	if userID == 0 {
		return writeError(c, billing.ErrUnauthenticated)
	}
	var req createSubscriptionRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	sub, err := sc.billing.CreateSubscription(ctx, userID, billing.NormalizedSubscription{
		StripeCustomerID:     req.StripeCustomerID,
		StripeSubscriptionID: req.StripeSubscriptionID,
		Status:               req.Status,
		PriceID:              req.PriceID,
		PlanName:             req.PlanName,
		CurrentPeriodStart:   billing.UnixTime(req.CurrentPeriodStart),
		CurrentPeriodEnd:     billing.UnixTime(req.CurrentPeriodEnd),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sub)
}

func (sc *SubscriptionController) HandleUpdate(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	if userID == 0 {
		return writeError(c, billing.ErrUnauthenticated)
	}
	var req updateSubscriptionRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	sub, err := sc.billing.UpdateSubscription(ctx, userID, billing.SubscriptionUpdate{
		StripeSubscriptionID: c.Params("stripeSubscriptionId"),
		Status:               req.Status,
		CurrentPeriodStart:   billing.UnixTime(req.CurrentPeriodStart),
		CurrentPeriodEnd:     billing.UnixTime(req.CurrentPeriodEnd),
		CancelAtPeriodEnd:    req.CancelAtPeriodEnd,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(sub)
}
