package audit

import (
	"encoding/json"
	"errors"
	"fmt"

	"ricemill-backend/internal/models"
	"ricemill-backend/internal/timeutil"

	"gorm.io/gorm"
)

var (
	ErrLogNotFound   = errors.New("audit log not found")
	ErrAlreadyUndone = errors.New("this change has already been undone")
	ErrNotUndoable   = errors.New("this change cannot be undone")
)

type LogOptions struct {
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

func snapshot(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// WriteLog records one change. Pass the transaction that made the change so
// the entry commits or rolls back with it.
func WriteLog(db *gorm.DB, opts LogOptions) error {
	log := models.AuditLog{
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  snapshot(opts.Before),
		AfterData:   snapshot(opts.After),
	}

	if err := db.Create(&log).Error; err != nil {
		return fmt.Errorf("failed to save audit log: %w", err)
	}
	return nil
}

// UndoLog reverts the change recorded by logID and returns the reverted entry.
//
// An undone create deletes the slip, an undone update restores the earlier
// snapshot, and an undone delete recreates the slip with its original id and
// bill number. Derived fields are recomputed on every restore.
func UndoLog(db *gorm.DB, logID uint, userID uint, userName string) (*models.AuditLog, error) {
	var entry models.AuditLog
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&entry, "id = ?", logID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLogNotFound
			}
			return fmt.Errorf("failed to load audit log: %w", err)
		}
		if entry.IsUndone {
			return ErrAlreadyUndone
		}

		switch entry.Action {
		case models.AuditActionCreate:
			if err := deleteEntity(tx, entry.EntityType, entry.EntityID); err != nil {
				return fmt.Errorf("failed to delete entity: %w", err)
			}
		case models.AuditActionUpdate:
			if err := restoreEntity(tx, entry.EntityType, entry.EntityID, entry.BeforeData); err != nil {
				return fmt.Errorf("failed to restore entity: %w", err)
			}
		case models.AuditActionDelete:
			if err := recreateEntity(tx, entry.EntityType, entry.BeforeData); err != nil {
				return fmt.Errorf("failed to recreate entity: %w", err)
			}
		default:
			return ErrNotUndoable
		}

		now := timeutil.Now()
		entry.IsUndone = true
		entry.UndoneBy = &userID
		entry.UndoneAt = &now
		if err := tx.Save(&entry).Error; err != nil {
			return fmt.Errorf("failed to update audit log: %w", err)
		}

		undo := models.AuditLog{
			UserID:      userID,
			UserName:    userName,
			EntityType:  entry.EntityType,
			EntityID:    entry.EntityID,
			Action:      models.AuditActionUndo,
			Description: fmt.Sprintf("Undone: %s", entry.Description),
			BeforeData:  entry.AfterData,
			AfterData:   entry.BeforeData,
			Undone:      true,
		}
		if err := tx.Create(&undo).Error; err != nil {
			return fmt.Errorf("failed to save undo log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func decodeSlip(dataJSON string) (*models.PurchaseSlip, error) {
	var slip models.PurchaseSlip
	if err := json.Unmarshal([]byte(dataJSON), &slip); err != nil {
		return nil, err
	}
	if slip.ID == 0 {
		return nil, errors.New("snapshot has no slip")
	}
	slip.Recalculate()
	return &slip, nil
}

func deleteEntity(tx *gorm.DB, entityType string, entityID uint) error {
	switch entityType {
	case models.EntityPurchaseSlip:
		res := tx.Delete(&models.PurchaseSlip{}, "id = ?", entityID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	default:
		return fmt.Errorf("unknown entity type: %s", entityType)
	}
}

func restoreEntity(tx *gorm.DB, entityType string, entityID uint, dataJSON string) error {
	switch entityType {
	case models.EntityPurchaseSlip:
		slip, err := decodeSlip(dataJSON)
		if err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&models.PurchaseSlip{}).Where("id = ?", entityID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		slip.ID = entityID
		return tx.Select("*").Omit("created_at").Updates(slip).Error
	default:
		return fmt.Errorf("unknown entity type: %s", entityType)
	}
}

func recreateEntity(tx *gorm.DB, entityType string, dataJSON string) error {
	switch entityType {
	case models.EntityPurchaseSlip:
		slip, err := decodeSlip(dataJSON)
		if err != nil {
			return err
		}
		// keeps the original id and bill number; a reused bill number fails on the unique index
		return tx.Create(slip).Error
	default:
		return fmt.Errorf("unknown entity type: %s", entityType)
	}
}
