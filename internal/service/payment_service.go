package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/coursemarket/server/internal/entity"
	"github.com/coursemarket/server/internal/repository"
	"github.com/coursemarket/server/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/checkout/session"
	"gorm.io/gorm"
)

type PaymentService interface {
	CreateCheckoutSession(ctx context.Context, userID, contentID uuid.UUID) (string, error)
	// ConfirmCheckout is the single writer of paid state; it is idempotent by
	// Stripe event id and by purchase status.
	ConfirmCheckout(ctx context.Context, eventID, sessionID string, customerID string) error
	HasPurchased(ctx context.Context, userID, contentID uuid.UUID) (bool, error)
}

type paymentService struct {
	purchaseRepo repository.PurchaseRepository
	contentRepo  repository.ContentRepository
	userRepo     repository.UserRepository
	currency     string
	successURL   string
	cancelURL    string

	// replaceable in tests
	createSession func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

func NewPaymentService(purchaseRepo repository.PurchaseRepository, contentRepo repository.ContentRepository, userRepo repository.UserRepository) PaymentService {
	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")

	currency := os.Getenv("STRIPE_CURRENCY")
	if currency == "" {
		currency = "usd"
	}

	frontend := os.Getenv("FRONTEND_URL")
	if frontend == "" {
		frontend = "http://localhost:3000"
	}

	return &paymentService{
		purchaseRepo: purchaseRepo,
		contentRepo:  contentRepo,
		userRepo:     userRepo,
		currency:     currency,
		successURL:   frontend + "/payment/success",
		cancelURL:    frontend + "/payment/cancel",
		createSession: func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
			return session.New(params)
		},
	}
}

func (s *paymentService) CreateCheckoutSession(ctx context.Context, userID, contentID uuid.UUID) (string, error) {
	content, err := s.contentRepo.FindByID(ctx, contentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("course not found: %w", apperror.ErrNotFound)
		}
		return "", err
	}

	if !content.IsApproved {
		return "", fmt.Errorf("course is not available for purchase: %w", apperror.ErrBadRequest)
	}

	if _, err := s.purchaseRepo.FindPaid(ctx, userID, contentID); err == nil {
		return "", fmt.Errorf("course already purchased: %w", apperror.ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	user, err := s.userRepo.FindByID(ctx, userID.String())
	if err != nil {
		return "", fmt.Errorf("user not found: %w", apperror.ErrNotFound)
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(s.currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(content.Title),
					},
					// Content prices are stored in minor units already.
					UnitAmount: stripe.Int64(content.Price),
				},
				Quantity: stripe.Int64(1),
			},
		},
		CustomerEmail:     stripe.String(user.Email),
		ClientReferenceID: stripe.String(userID.String()),
		SuccessURL:        stripe.String(s.successURL),
		CancelURL:         stripe.String(s.cancelURL),
	}
	params.AddMetadata("content_id", contentID.String())
	params.AddMetadata("user_id", userID.String())

	checkout, err := s.createSession(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	// Pending only. The webhook flips it to paid after Stripe confirms.
	purchase := &entity.Purchase{
		ContentID:       contentID,
		UserID:          userID,
		Status:          entity.PurchasePending,
		StripeSessionID: checkout.ID,
	}
	if err := s.purchaseRepo.Create(ctx, purchase); err != nil {
		return "", err
	}

	return checkout.URL, nil
}

func (s *paymentService) ConfirmCheckout(ctx context.Context, eventID, sessionID string, customerID string) error {
	purchase, err := s.purchaseRepo.FindBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("no purchase for session %s: %w", sessionID, apperror.ErrNotFound)
		}
		return err
	}

	// Replayed event: the membership check holds, nothing to do.
	if purchase.Status == entity.PurchasePaid {
		return nil
	}

	now := time.Now()
	purchase.Status = entity.PurchasePaid
	purchase.StripeEventID = &eventID
	purchase.PaidAt = &now

	if err := s.purchaseRepo.Update(ctx, purchase); err != nil {
		return err
	}

	user, err := s.userRepo.FindByID(ctx, purchase.UserID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Purchase confirmed but payer deleted in between; nothing left
			// to record.
			return nil
		}
		return err
	}

	if customerID != "" {
		user.StripeCustomerID = &customerID
	}
	status := "active"
	user.SubscriptionStatus = &status

	return s.userRepo.Update(ctx, user)
}

func (s *paymentService) HasPurchased(ctx context.Context, userID, contentID uuid.UUID) (bool, error) {
	if _, err := s.purchaseRepo.FindPaid(ctx, userID, contentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
