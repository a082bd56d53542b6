// internal/services/payment_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"gorm.io/gorm"

	"github.com/agentmart/agentmart-backend/internal/config"
	"github.com/agentmart/agentmart-backend/internal/database"
	"github.com/agentmart/agentmart-backend/internal/models"
	"github.com/agentmart/agentmart-backend/internal/utils"
)

// PaymentService funds account wallets from card payments. A deposit is a
// Stripe payment intent tracked through to confirmation; only a confirmed
// intent credits the wallet, and each intent credits at most once.
type PaymentService struct {
	db       *gorm.DB
	cfg      *config.Config
	accounts *AccountService
}

type CreateDepositRequest struct {
	Amount uint64 `json:"amount" validate:"required,min=1"`
}

type DepositIntentResponse struct {
	ClientSecret string `json:"client_secret"`
	DepositID    string `json:"deposit_id"`
	Status       string `json:"status"`
}

type ConfirmDepositRequest struct {
	PaymentIntentID string `json:"payment_intent_id" validate:"required"`
}

func NewPaymentService(db *gorm.DB, cfg *config.Config, accounts *AccountService) *PaymentService {
	// Initialize Stripe
	stripe.Key = cfg.Payment.StripeSecretKey

	return &PaymentService{
		db:       db,
		cfg:      cfg,
		accounts: accounts,
	}
}

func (s *PaymentService) CreateDeposit(accountID uuid.UUID, req *CreateDepositRequest) (*DepositIntentResponse, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if req.Amount < s.cfg.Payment.MinimumDeposit {
		return nil, fmt.Errorf("deposit amount below minimum of %d", s.cfg.Payment.MinimumDeposit)
	}

	// Create Stripe PaymentIntent
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(req.Amount)),
		Currency: stripe.String("usd"),
	}
	params.AddMetadata("account_id", accountID.String())

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	deposit := &models.Deposit{
		AccountID:       accountID,
		Amount:          req.Amount,
		PaymentIntentID: pi.ID,
		Status:          models.DepositStatusPending,
	}
	if err := s.db.Create(deposit).Error; err != nil {
		return nil, fmt.Errorf("failed to record deposit: %w", err)
	}

	return &DepositIntentResponse{
		ClientSecret: pi.ClientSecret,
		DepositID:    deposit.ID.String(),
		Status:       string(pi.Status),
	}, nil
}

func (s *PaymentService) ConfirmDeposit(accountID uuid.UUID, req *ConfirmDepositRequest) (*models.Deposit, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	// Get payment intent from Stripe
	pi, err := paymentintent.Get(req.PaymentIntentID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}

	var deposit models.Deposit
	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Set("gorm:query_option", "FOR UPDATE").
			Where("payment_intent_id = ? AND account_id = ?", req.PaymentIntentID, accountID).
			First(&deposit).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("deposit not found")
			}
			return fmt.Errorf("database error: %w", err)
		}

		if deposit.Status != models.DepositStatusPending {
			return errors.New("deposit already settled")
		}

		switch pi.Status {
		case stripe.PaymentIntentStatusSucceeded:
			deposit.Status = models.DepositStatusCompleted
			if err := tx.Save(&deposit).Error; err != nil {
				return fmt.Errorf("failed to update deposit: %w", err)
			}
			return tx.Model(&models.Account{}).
				Where("id = ?", accountID).
				Update("wallet_balance", gorm.Expr("wallet_balance + ?", deposit.Amount)).Error

		case stripe.PaymentIntentStatusRequiresAction,
			stripe.PaymentIntentStatusRequiresConfirmation,
			stripe.PaymentIntentStatusProcessing:
			return errors.New("payment not completed yet")

		default:
			deposit.Status = models.DepositStatusFailed
			if err := tx.Save(&deposit).Error; err != nil {
				return fmt.Errorf("failed to update deposit: %w", err)
			}
			return errors.New("payment failed")
		}
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"account_id": accountID,
		"deposit_id": deposit.ID,
		"amount":     deposit.Amount,
	}).Info("Wallet deposit confirmed")

	return &deposit, nil
}

func (s *PaymentService) ListDeposits(accountID uuid.UUID) ([]models.Deposit, error) {
	var deposits []models.Deposit
	if err := s.db.Where("account_id = ?", accountID).
		Order("created_at DESC").Find(&deposits).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return deposits, nil
}
