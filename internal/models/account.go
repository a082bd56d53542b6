// internal/models/account.go
package models

import (
	"golang.org/x/crypto/bcrypt"
)

// Account is a host-side API account. Each account maps 1:1 to a ledger
// address; the wallet balance is held in the smallest native unit and is
// the source and destination of all value entering or leaving the engine.
type Account struct {
	BaseModel
	Username      string        `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email         string        `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash  string        `json:"-" gorm:"size:255;not null"`
	Address       string        `json:"address" gorm:"uniqueIndex;size:64;not null"`
	WalletBalance uint64        `json:"wallet_balance" gorm:"not null;default:0"`
	Status        AccountStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
}

func (a *Account) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hashedPassword)
	return nil
}

func (a *Account) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password))
}
