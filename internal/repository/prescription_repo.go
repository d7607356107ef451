package repository

import (
	"context"
	"strings"

	"pharmacy/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PrescriptionListFilter narrows prescription listings.
type PrescriptionListFilter struct {
	Status string // PENDING, PAID, DISPENSED, CANCELLED or empty for all
	Search string // partial match on order_no, customer name or phone
	Page   int
	Limit  int
}

type PrescriptionRepository interface {
	Create(ctx context.Context, prescription *model.Prescription) error
	CreateItem(ctx context.Context, item *model.PrescriptionItem) error
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Prescription, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Prescription, error)
	Update(ctx context.Context, prescription *model.Prescription) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter PrescriptionListFilter) ([]model.Prescription, int64, error)
	MaxOrderSequence(ctx context.Context, prefix string) (int64, error)
}

type prescriptionRepository struct {
	db *gorm.DB
}

func NewPrescriptionRepository(db *gorm.DB) PrescriptionRepository {
	return &prescriptionRepository{db: db}
}

func (r *prescriptionRepository) Create(ctx context.Context, prescription *model.Prescription) error {
	return GetDB(ctx, r.db).Create(prescription).Error
}

func (r *prescriptionRepository) CreateItem(ctx context.Context, item *model.PrescriptionItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *prescriptionRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Prescription, error) {
	var prescription model.Prescription
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Preload("Patient").
		First(&prescription, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &prescription, nil
}

// FindByIDForUpdate locks the prescription row so status transitions and
// payment processing cannot interleave. Items are loaded separately since
// Preload does not combine with row locks.
func (r *prescriptionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Prescription, error) {
	var prescription model.Prescription
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&prescription, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := GetDB(ctx, r.db).Where("prescription_id = ?", id).Find(&prescription.Items).Error; err != nil {
		return nil, err
	}
	return &prescription, nil
}

func (r *prescriptionRepository) Update(ctx context.Context, prescription *model.Prescription) error {
	return GetDB(ctx, r.db).Save(prescription).Error
}

func (r *prescriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("prescription_id = ?", id).Delete(&model.PrescriptionItem{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.Prescription{}).Error
}

func (r *prescriptionRepository) List(ctx context.Context, filter PrescriptionListFilter) ([]model.Prescription, int64, error) {
	var prescriptions []model.Prescription
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Prescription{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		db = db.Where("LOWER(order_no) LIKE ? OR LOWER(customer_name) LIKE ? OR customer_phone LIKE ?",
			pattern, pattern, "%"+filter.Search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := db.
		Preload("Items").
		Preload("Patient").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&prescriptions).Error; err != nil {
		return nil, 0, err
	}

	return prescriptions, total, nil
}

// MaxOrderSequence returns the highest numeric suffix ever issued under the
// prefix. Sequences must never be derived from row counts: prescriptions are
// hard-deleted, so a count can fall below the highest issued number and
// reissue a taken order_no.
func (r *prescriptionRepository) MaxOrderSequence(ctx context.Context, prefix string) (int64, error) {
	var seq int64
	err := GetDB(ctx, r.db).Model(&model.Prescription{}).
		Where("order_no LIKE ?", prefix+"%").
		Select("COALESCE(MAX(CAST(SUBSTR(order_no, ?) AS INTEGER)), 0)", len(prefix)+1).
		Scan(&seq).Error
	return seq, err
}
