package audit

import (
	"context"
	"encoding/json"

	"github.com/coinacademy/api/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Recorder appends entries to the admin audit trail. The trail is
// append-only and never drives business logic; callers treat a failed
// Record as non-fatal and log it locally.
type Recorder struct {
	db *gorm.DB
}

// NewRecorder creates a new audit recorder
func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Record appends one audit entry with a structured JSON detail blob
func (r *Recorder) Record(ctx context.Context, adminID uint, action string, detail interface{}) error {
	entry := model.AuditLog{
		AdminID: adminID,
		Action:  action,
	}

	if detail != nil {
		blob, err := json.Marshal(detail)
		if err != nil {
			return err
		}
		entry.Detail = datatypes.JSON(blob)
	}

	return r.db.WithContext(ctx).Create(&entry).Error
}
