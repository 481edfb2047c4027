package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/SaaSKit/internal/pkg/billing"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/usercontext"
)

type PaymentController struct {
	billing *billing.Service
}

func NewPaymentController(svc *billing.Service) *PaymentController {
	return &PaymentController{billing: svc}
}

type createPaymentRequest struct {
	StripePaymentIntentID string `json:"stripePaymentIntentId" validate:"required"`
	Amount                int64  `json:"amount" validate:"gte=0"`
	Currency              string `json:"currency" validate:"required,max=10"`
	Status                string `json:"status"`
	Type                  string `json:"type" validate:"required,oneof=subscription one_time"`
	Description           string `json:"description" validate:"max=500"`
}

type checkoutRequest struct {
	PriceID string `json:"priceId" validate:"required"`
	Type    string `json:"type" validate:"required,oneof=subscription one_time"`
}

// HandleList returns the caller's payments, newest first.
func (pc *PaymentController) HandleList(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	payments, err := pc.billing.ListUserPayments(ctx, usercontext.GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(payments)
}

// HandleCreate records a payment for the caller. Repeating a payment intent
// returns the stored row with 200.
func (pc *PaymentController) HandleCreate(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	if userID == 0 {
		return writeError(c, billing.ErrUnauthenticated)
	}
	var req createPaymentRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	payment, created, err := pc.billing.CreatePayment(ctx, userID, billing.NormalizedPayment{
		StripePaymentIntentID: req.StripePaymentIntentID,
		Amount:                req.Amount,
		Currency:              req.Currency,
		Status:                req.Status,
		Type:                  req.Type,
		Description:           req.Description,
	})
	if err != nil {
		return writeError(c, err)
	}
	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(payment)
}

// HandleCheckout creates a Stripe checkout session for one price.
func (pc *PaymentController) HandleCheckout(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return writeError(c, billing.ErrUnauthenticated)
	}
	var req checkoutRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	email := userCtx.Email
	if userCtx.IsAnonymous {
		email = ""
	}
	session, err := pc.billing.CreateCheckoutSession(ctx, billing.CheckoutUser{ID: userCtx.UserID, Email: email}, req.PriceID, req.Type)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(session)
}

// HandlePortal opens the Stripe billing portal for the caller's customer.
func (pc *PaymentController) HandlePortal(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	url, err := pc.billing.CreatePortalSession(ctx, usercontext.GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"url": url})
}
