// internal/journal/journal.go
package journal

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/agentmart/agentmart-backend/internal/contracts"
	"github.com/agentmart/agentmart-backend/internal/models"
)

// DBSink persists every contract event as an EventRecord row.
// Writes are fire-and-forget so the engine never blocks on the database.
type DBSink struct {
	db *gorm.DB
}

func NewDBSink(db *gorm.DB) *DBSink {
	return &DBSink{db: db}
}

func (s *DBSink) Emit(e contracts.Event) {
	record := &models.EventRecord{
		Contract: e.Contract,
		Seq:      e.Seq,
		Name:     e.Name,
		At:       e.At,
		Fields:   models.JSONB(e.Fields),
	}

	go func() {
		if err := s.db.Create(record).Error; err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"contract": e.Contract,
				"event":    e.Name,
				"seq":      e.Seq,
			}).Error("Failed to persist contract event")
		}
	}()
}

// LogSink mirrors contract events into the structured log.
type LogSink struct{}

func (LogSink) Emit(e contracts.Event) {
	logrus.WithFields(logrus.Fields{
		"contract": e.Contract,
		"event":    e.Name,
		"seq":      e.Seq,
		"at":       e.At,
		"fields":   e.Fields,
	}).Info("Contract event emitted")
}

// Replay streams persisted events back in emission order, oldest first.
func (s *DBSink) Replay(contract string, fn func(models.EventRecord) error) error {
	var records []models.EventRecord
	query := s.db.Order("seq ASC")
	if contract != "" {
		query = query.Where("contract = ?", contract)
	}
	if err := query.Find(&records).Error; err != nil {
		return err
	}
	for _, r := range records {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}
