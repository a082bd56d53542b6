// internal/models/event_record.go
package models

import "github.com/google/uuid"

// EventRecord is one journaled engine event. The journal is append-only
// and is the durable form of the engine's audit trail.
type EventRecord struct {
	BaseModel
	Contract string `json:"contract" gorm:"size:32;not null;index:idx_event_records_contract_seq"`
	Seq      uint64 `json:"seq" gorm:"not null;index:idx_event_records_contract_seq"`
	Name     string `json:"name" gorm:"size:64;not null;index"`
	At       int64  `json:"at" gorm:"not null"`
	Fields   JSONB  `json:"fields" gorm:"type:jsonb"`
}

// Deposit tracks one Stripe-funded wallet top-up from creation of the
// payment intent through confirmation.
type Deposit struct {
	BaseModel
	AccountID       uuid.UUID     `json:"account_id" gorm:"type:uuid;not null;index"`
	Amount          uint64        `json:"amount" gorm:"not null"`
	PaymentIntentID string        `json:"payment_intent_id" gorm:"size:255;uniqueIndex"`
	Status          DepositStatus `json:"status" gorm:"type:varchar(20);default:'pending'"`
}
