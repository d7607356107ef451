package repository

import (
	"context"

	"pharmacy/internal/model"

	"gorm.io/gorm"
)

type AuditRepository interface {
	Log(ctx context.Context, entry *model.AuditLog) error
	TrimToLimit(ctx context.Context, limit int) error
	List(ctx context.Context, page, limit int) ([]model.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

// TrimToLimit evicts the oldest entries past the retention cap. Insertion
// order is the auto-increment id, so the subquery keeps the newest rows.
func (r *auditRepository) TrimToLimit(ctx context.Context, limit int) error {
	db := GetDB(ctx, r.db)
	sub := db.Session(&gorm.Session{NewDB: true}).
		Model(&model.AuditLog{}).Select("id").Order("id DESC").Limit(limit)
	return db.Where("id NOT IN (?)", sub).Delete(&model.AuditLog{}).Error
}

func (r *auditRepository) List(ctx context.Context, page, limit int) ([]model.AuditLog, int64, error) {
	var logs []model.AuditLog
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.AuditLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("User").Order("id desc").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
