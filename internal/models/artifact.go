// internal/models/artifact.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Artifact is the host-side record of one uploaded agent artifact. The
// ledger only ever sees the CID; this row ties it back to the stored
// object and its uploader.
type Artifact struct {
	BaseModel
	OwnerID  uuid.UUID      `json:"owner_id" gorm:"type:uuid;not null;index"`
	CID      string         `json:"cid" gorm:"size:128;uniqueIndex;not null"`
	Key      string         `json:"key" gorm:"size:255;not null"`
	Category string         `json:"category" gorm:"size:50;not null"`
	Size     int64          `json:"size" gorm:"not null"`
	MimeType string         `json:"mime_type" gorm:"size:100"`
	Tags     pq.StringArray `json:"tags" gorm:"type:text[]"`
}
