package service

import (
	"context"
	"time"

	"pharmacy/internal/model"

	"gorm.io/gorm"
)

// ReportService aggregates settled payments and catalog health. Queries run
// directly against the DB handle since they are read-only aggregations.
type ReportService interface {
	GetSalesReport(ctx context.Context, startDate, endDate time.Time) (model.SalesReport, error)
	GetInventoryReport(ctx context.Context, expiryWindowDays int) (model.InventoryReport, error)
}

type reportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) ReportService {
	return &reportService{db: db}
}

// GetSalesReport sums revenue from payment records and ranks the top-selling
// medicines over the window. Only PAID and DISPENSED prescriptions count.
func (s *reportService) GetSalesReport(ctx context.Context, startDate, endDate time.Time) (model.SalesReport, error) {
	var report model.SalesReport
	report.TimeRangeStartDate = startDate
	report.TimeRangeEndDate = endDate

	var revenue struct {
		Value float64
		Count int64
	}
	if err := s.db.WithContext(ctx).Table("payments").
		Select("COALESCE(SUM(amount), 0) as value, COUNT(*) as count").
		Where("created_at >= ? AND created_at <= ?", startDate, endDate).
		Scan(&revenue).Error; err != nil {
		return report, err
	}
	report.TotalRevenue = revenue.Value
	report.PaymentCount = revenue.Count

	var topSelling []model.MedicineRanking
	if err := s.db.WithContext(ctx).Table("prescription_items").
		Select("prescription_items.medicine_id as medicine_id, prescription_items.medicine_name as medicine_name, SUM(prescription_items.quantity) as total_quantity, SUM(prescription_items.quantity * prescription_items.unit_price) as total_value").
		Joins("JOIN prescriptions ON prescriptions.id = prescription_items.prescription_id").
		Where("prescriptions.status IN ? AND prescriptions.paid_at >= ? AND prescriptions.paid_at <= ?",
			[]string{model.PrescriptionPaid, model.PrescriptionDispensed}, startDate, endDate).
		Group("prescription_items.medicine_id, prescription_items.medicine_name").
		Order("total_quantity DESC").
		Limit(5).
		Scan(&topSelling).Error; err != nil {
		return report, err
	}
	report.TopSellingItems = topSelling

	return report, nil
}

// GetInventoryReport lists medicines at or below their reorder threshold and
// those expiring within the window.
func (s *reportService) GetInventoryReport(ctx context.Context, expiryWindowDays int) (model.InventoryReport, error) {
	if expiryWindowDays <= 0 {
		expiryWindowDays = 30
	}

	report := model.InventoryReport{ExpiryWindow: expiryWindowDays}

	if err := s.db.WithContext(ctx).
		Where("stock <= min_stock").
		Order("stock asc").
		Find(&report.LowStock).Error; err != nil {
		return report, err
	}

	cutoff := time.Now().AddDate(0, 0, expiryWindowDays)
	if err := s.db.WithContext(ctx).
		Where("expiry IS NOT NULL AND expiry <= ?", cutoff).
		Order("expiry asc").
		Find(&report.ExpiringSoon).Error; err != nil {
		return report, err
	}

	return report, nil
}
