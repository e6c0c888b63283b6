package slip

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ricemill-backend/internal/audit"
	"ricemill-backend/internal/auth"
	"ricemill-backend/internal/database"
	"ricemill-backend/internal/godown"
	"ricemill-backend/internal/logger"
	"ricemill-backend/internal/models"
	"ricemill-backend/internal/slipcalc"
	"ricemill-backend/internal/timeutil"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNotFound            = errors.New("slip not found")
	ErrDuplicateSubmission = errors.New("duplicate submission detected; this slip was already saved")
	ErrInvalidRateBasis    = errors.New("rate_basis must be Quintal or Khandi")
	ErrInvalidPayload      = errors.New("invalid slip data")
)

const (
	duplicateWindow = 5 * time.Second
	billNoRetries   = 3

	DefaultPageSize = 50
	MaxPageSize     = 500
)

// Invalidator drops anything cached for a slip, such as its rendered PDF.
type Invalidator interface {
	Invalidate(ctx context.Context, id uint) error
}

type Service struct {
	db     *gorm.DB
	cache  Invalidator
	now    func() time.Time
	billNo func(*gorm.DB) (int, error)
}

type Option func(*Service)

func WithInvalidator(inv Invalidator) Option {
	return func(s *Service) { s.cache = inv }
}

// WithClock replaces the wall clock used for default dates and the duplicate window.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(db *gorm.DB, opts ...Option) *Service {
	s := &Service{db: db, now: timeutil.Now, billNo: nextBillNo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) invalidate(ctx context.Context, id uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		logger.L().Warn("could not invalidate slip cache", zap.Uint("slip_id", id), zap.Error(err))
	}
}

func validateRateBasis(f slipcalc.Fields) error {
	if basis := slipcalc.RateBasisOf(f); !slipcalc.IsKnownRateBasis(basis) {
		return fmt.Errorf("%w (got %q)", ErrInvalidRateBasis, basis)
	}
	return nil
}

// NextBillNo is max(bill_no)+1, or 1 for an empty table.
func (s *Service) NextBillNo(ctx context.Context) (int, error) {
	return nextBillNo(s.db.WithContext(ctx))
}

func nextBillNo(db *gorm.DB) (int, error) {
	var max int
	if err := db.Model(&models.PurchaseSlip{}).Select("COALESCE(MAX(bill_no), 0)").Scan(&max).Error; err != nil {
		return 0, fmt.Errorf("read bill number: %w", err)
	}
	return max + 1, nil
}

// Create computes every derived field of payload and stores it under the next
// bill number.
func (s *Service) Create(ctx context.Context, payload slipcalc.Fields, actor auth.Actor) (*models.PurchaseSlip, error) {
	payload = stripImmutable(payload)
	if err := validateRateBasis(payload); err != nil {
		return nil, err
	}

	slip, err := decodeFields(slipcalc.Calculate(payload))
	if err != nil {
		return nil, err
	}
	now := s.now()
	if slip.Date.IsZero() {
		slip.Date = now.Truncate(time.Second)
	}
	if slip.DocumentType == "" {
		slip.DocumentType = models.DefaultDocumentType
	}
	slip.CreatedAt = now

	for attempt := 1; ; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.checkDuplicate(tx, slip, now); err != nil {
				return err
			}

			billNo, err := s.billNo(tx)
			if err != nil {
				return err
			}
			slip.ID = 0
			slip.BillNo = billNo
			if err := tx.Create(slip).Error; err != nil {
				return err
			}

			if err := s.ensureGodown(tx, slip.PaddyUnloadingGodown); err != nil {
				return err
			}

			return audit.WriteLog(tx, audit.LogOptions{
				UserID:      actor.UserID,
				UserName:    actor.Username,
				EntityType:  models.EntityPurchaseSlip,
				EntityID:    slip.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Slip #%d created for %s", slip.BillNo, slip.PartyName),
				After:       slip,
			})
		})
		if err == nil {
			break
		}
		if database.IsUniqueViolation(err) && attempt < billNoRetries {
			logger.L().Info("bill number taken, retrying", zap.Int("attempt", attempt))
			continue
		}
		if errors.Is(err, ErrDuplicateSubmission) {
			return nil, err
		}
		return nil, fmt.Errorf("save slip: %w", err)
	}

	logger.L().Info("slip created",
		zap.Uint("slip_id", slip.ID),
		zap.Int("bill_no", slip.BillNo),
		zap.String("party", slip.PartyName),
	)
	return slip, nil
}

// checkDuplicate rejects a slip identical in party, date, net weight and
// purchase amount to one stored within the duplicate window.
func (s *Service) checkDuplicate(tx *gorm.DB, slip *models.PurchaseSlip, now time.Time) error {
	var recent []models.PurchaseSlip
	err := tx.Select("id", "date", "net_weight_kg", "total_purchase_amount", "created_at").
		Where("party_name = ?", slip.PartyName).
		Order("id DESC").
		Limit(20).
		Find(&recent).Error
	if err != nil {
		return fmt.Errorf("duplicate check: %w", err)
	}

	cutoff := now.Add(-duplicateWindow)
	for _, r := range recent {
		if r.CreatedAt.Before(cutoff) {
			continue
		}
		if r.Date.Equal(slip.Date) &&
			r.NetWeightKg == slip.NetWeightKg &&
			r.TotalPurchaseAmount == slip.TotalPurchaseAmount {
			logger.L().Warn("duplicate submission prevented",
				zap.String("party", slip.PartyName),
				zap.Uint("existing_id", r.ID),
			)
			return ErrDuplicateSubmission
		}
	}
	return nil
}

func (s *Service) ensureGodown(tx *gorm.DB, name string) error {
	if _, _, err := godown.Ensure(tx, name); err != nil && !errors.Is(err, godown.ErrNameRequired) {
		return err
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.PurchaseSlip, error) {
	return get(s.db.WithContext(ctx), id)
}

func get(db *gorm.DB, id uint) (*models.PurchaseSlip, error) {
	var slip models.PurchaseSlip
	if err := db.First(&slip, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load slip %d: %w", id, err)
	}
	return &slip, nil
}

// Page is one page of the slip list.
type Page struct {
	Slips []models.PurchaseSlip
	Page  int
	Limit int
	Total int64
}

func (p Page) Pages() int64 {
	if p.Limit <= 0 {
		return 0
	}
	return (p.Total + int64(p.Limit) - 1) / int64(p.Limit)
}

// List returns slips newest first. page is 1-based.
func (s *Service) List(ctx context.Context, page, limit int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	db := s.db.WithContext(ctx)
	out := &Page{Page: page, Limit: limit}
	if err := db.Model(&models.PurchaseSlip{}).Count(&out.Total).Error; err != nil {
		return nil, fmt.Errorf("count slips: %w", err)
	}
	err := db.Order("id DESC").Limit(limit).Offset((page - 1) * limit).Find(&out.Slips).Error
	if err != nil {
		return nil, fmt.Errorf("list slips: %w", err)
	}
	return out, nil
}

// Update merges patch over the stored slip and recomputes every derived field.
func (s *Service) Update(ctx context.Context, id uint, patch slipcalc.Fields, actor auth.Actor) (*models.PurchaseSlip, error) {
	var updated *models.PurchaseSlip
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := get(tx, id)
		if err != nil {
			return err
		}
		stored, err := toFields(existing)
		if err != nil {
			return err
		}

		// stored identity and timestamps are restored from existing below
		merged := stripImmutable(slipcalc.Merge(stored, patch))
		if err := validateRateBasis(merged); err != nil {
			return err
		}

		updated, err = decodeFields(slipcalc.Calculate(merged))
		if err != nil {
			return err
		}
		updated.ID = existing.ID
		updated.BillNo = existing.BillNo
		updated.CreatedAt = existing.CreatedAt
		if updated.Date.IsZero() {
			updated.Date = existing.Date
		}
		if updated.DocumentType == "" {
			updated.DocumentType = models.DefaultDocumentType
		}

		if err := tx.Select("*").Omit("created_at").Updates(updated).Error; err != nil {
			return fmt.Errorf("update slip %d: %w", id, err)
		}
		if err := s.ensureGodown(tx, updated.PaddyUnloadingGodown); err != nil {
			return err
		}

		return audit.WriteLog(tx, audit.LogOptions{
			UserID:      actor.UserID,
			UserName:    actor.Username,
			EntityType:  models.EntityPurchaseSlip,
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Slip #%d updated", existing.BillNo),
			Before:      existing,
			After:       updated,
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	return updated, nil
}

// Delete removes the slip for good; the audit log keeps a copy for undo.
func (s *Service) Delete(ctx context.Context, id uint, actor auth.Actor) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := get(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(&models.PurchaseSlip{}, id).Error; err != nil {
			return fmt.Errorf("delete slip %d: %w", id, err)
		}
		return audit.WriteLog(tx, audit.LogOptions{
			UserID:      actor.UserID,
			UserName:    actor.Username,
			EntityType:  models.EntityPurchaseSlip,
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Slip #%d deleted (%s)", existing.BillNo, existing.PartyName),
			Before:      existing,
		})
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, id)
	return nil
}

// Between returns slips dated within [from, to), oldest first. Zero bounds are open.
func (s *Service) Between(ctx context.Context, from, to time.Time) ([]models.PurchaseSlip, error) {
	q := s.db.WithContext(ctx).Model(&models.PurchaseSlip{})
	if !from.IsZero() {
		q = q.Where("date >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("date < ?", to)
	}
	var slips []models.PurchaseSlip
	if err := q.Order("date ASC, id ASC").Find(&slips).Error; err != nil {
		return nil, fmt.Errorf("load slips: %w", err)
	}
	return slips, nil
}
