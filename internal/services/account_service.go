// internal/services/account_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/agentmart/agentmart-backend/internal/config"
	"github.com/agentmart/agentmart-backend/internal/contracts"
	"github.com/agentmart/agentmart-backend/internal/database"
	"github.com/agentmart/agentmart-backend/internal/models"
	"github.com/agentmart/agentmart-backend/internal/utils"
)

var (
	ErrInsufficientWalletBalance = errors.New("insufficient wallet balance")
	ErrAccountNotFound           = errors.New("account not found")
)

type AccountService struct {
	db  *gorm.DB
	cfg *config.Config
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,strong_password"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Account      *models.Account `json:"account"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	TokenType    string          `json:"token_type"`
	ExpiresIn    int             `json:"expires_in"` // in seconds
}

func NewAccountService(db *gorm.DB, cfg *config.Config) *AccountService {
	return &AccountService{
		db:  db,
		cfg: cfg,
	}
}

func (s *AccountService) Register(req *RegisterRequest) (*AuthResponse, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	// Check if account already exists
	var existing models.Account
	if err := s.db.Where("email = ? OR username = ?", req.Email, req.Username).First(&existing).Error; err == nil {
		if existing.Email == req.Email {
			return nil, errors.New("account with this email already exists")
		}
		return nil, errors.New("username already taken")
	}

	// Derive a fresh ledger address for the account
	nonce, err := utils.GenerateRandomString(16)
	if err != nil {
		return nil, fmt.Errorf("failed to derive address: %w", err)
	}

	account := &models.Account{
		Username: req.Username,
		Email:    req.Email,
		Address:  utils.DeriveAddress(req.Email + "/" + nonce),
		Status:   models.AccountStatusActive,
	}

	if err := account.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.Create(account).Error; err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return s.issueTokens(account)
}

func (s *AccountService) Login(req *LoginRequest) (*AuthResponse, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var account models.Account
	if err := s.db.Where("email = ?", req.Email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("invalid email or password")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if account.Status == models.AccountStatusSuspended {
		return nil, errors.New("account is suspended")
	}

	if err := account.CheckPassword(req.Password); err != nil {
		return nil, errors.New("invalid email or password")
	}

	return s.issueTokens(&account)
}

func (s *AccountService) RefreshToken(refreshToken string) (*AuthResponse, error) {
	accountIDStr, err := utils.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	accountID, err := uuid.Parse(accountIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid account ID in token: %w", err)
	}

	var account models.Account
	if err := s.db.First(&account, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if account.Status != models.AccountStatusActive {
		return nil, errors.New("account is not active")
	}

	return s.issueTokens(&account)
}

func (s *AccountService) issueTokens(account *models.Account) (*AuthResponse, error) {
	accessToken, err := utils.GenerateJWT(
		account.ID,
		account.Username,
		account.Address,
		s.cfg.JWT.AccessTokenTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := utils.GenerateRefreshToken(account.ID, s.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResponse{
		Account:      account,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.cfg.JWT.AccessTokenTTL * 3600, // Convert hours to seconds
	}, nil
}

func (s *AccountService) GetProfile(accountID uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := s.db.First(&account, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &account, nil
}

func (s *AccountService) GetByAddress(address contracts.Address) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("address = ?", string(address)).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &account, nil
}

// Debit atomically removes amount from the wallet of the account behind
// address. It fails without side effects when the balance is short.
func (s *AccountService) Debit(address contracts.Address, amount uint64) error {
	return database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var account models.Account
		if err := tx.Set("gorm:query_option", "FOR UPDATE").
			Where("address = ?", string(address)).First(&account).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		if account.WalletBalance < amount {
			return ErrInsufficientWalletBalance
		}

		return tx.Model(&account).
			Update("wallet_balance", gorm.Expr("wallet_balance - ?", amount)).Error
	})
}

// Credit atomically adds amount to the wallet of the account behind address.
func (s *AccountService) Credit(address contracts.Address, amount uint64) error {
	result := s.db.Model(&models.Account{}).
		Where("address = ?", string(address)).
		Update("wallet_balance", gorm.Expr("wallet_balance + ?", amount))
	if result.Error != nil {
		return fmt.Errorf("database error: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// WalletTransferer adapts the account wallet into the outbound transfer
// port of the engine. Engine transfers cannot fail, so a credit that finds
// no matching account is logged and the value stays on the ledger books.
type WalletTransferer struct {
	accounts *AccountService
}

func NewWalletTransferer(accounts *AccountService) *WalletTransferer {
	return &WalletTransferer{accounts: accounts}
}

func (t *WalletTransferer) Transfer(to contracts.Address, amount uint64) {
	if err := t.accounts.Credit(to, amount); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"to":     string(to),
			"amount": amount,
		}).Error("Failed to credit wallet for outbound transfer")
	}
}
