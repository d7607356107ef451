package repository

import (
	"context"
	"strings"

	"pharmacy/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MedicineListFilter narrows catalog listings.
type MedicineListFilter struct {
	Search   string // partial, case-insensitive match on name
	Category string
	LowStock bool // only entries at or below their reorder threshold
	Page     int
	Limit    int
}

type MedicineRepository interface {
	Create(ctx context.Context, medicine *model.Medicine) error
	Update(ctx context.Context, medicine *model.Medicine) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Medicine, error)
	FindByBarcode(ctx context.Context, barcode string) (*model.Medicine, error)
	List(ctx context.Context, filter MedicineListFilter) ([]model.Medicine, int64, error)
	UpdateStock(ctx context.Context, id uuid.UUID, stock int) error
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Medicine, error)
}

type medicineRepository struct {
	db *gorm.DB
}

func NewMedicineRepository(db *gorm.DB) MedicineRepository {
	return &medicineRepository{db: db}
}

func (r *medicineRepository) Create(ctx context.Context, medicine *model.Medicine) error {
	return GetDB(ctx, r.db).Create(medicine).Error
}

func (r *medicineRepository) Update(ctx context.Context, medicine *model.Medicine) error {
	return GetDB(ctx, r.db).Save(medicine).Error
}

func (r *medicineRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Medicine{}).Error
}

func (r *medicineRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Medicine, error) {
	var medicine model.Medicine
	if err := GetDB(ctx, r.db).First(&medicine, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &medicine, nil
}

func (r *medicineRepository) FindByBarcode(ctx context.Context, barcode string) (*model.Medicine, error) {
	var medicine model.Medicine
	if err := GetDB(ctx, r.db).Where("barcode = ?", barcode).First(&medicine).Error; err != nil {
		return nil, err
	}
	return &medicine, nil
}

func (r *medicineRepository) List(ctx context.Context, filter MedicineListFilter) ([]model.Medicine, int64, error) {
	var medicines []model.Medicine
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Medicine{})
	if filter.Search != "" {
		db = db.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.Category != "" {
		db = db.Where("category = ?", filter.Category)
	}
	if filter.LowStock {
		db = db.Where("stock <= min_stock")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := db.Preload("Supplier").Order("name asc").Offset(offset).Limit(filter.Limit).Find(&medicines).Error; err != nil {
		return nil, 0, err
	}

	return medicines, total, nil
}

func (r *medicineRepository) UpdateStock(ctx context.Context, id uuid.UUID, stock int) error {
	return GetDB(ctx, r.db).Model(&model.Medicine{}).Where("id = ?", id).Update("stock", stock).Error
}

// FindByIDForUpdate locks the medicine row for the duration of the enclosing
// transaction. Every stock read-modify-write goes through this so concurrent
// reservations serialize at the database.
func (r *medicineRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Medicine, error) {
	var medicine model.Medicine
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&medicine).Error; err != nil {
		return nil, err
	}
	return &medicine, nil
}
