package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pharmacy/internal/events"
	"pharmacy/internal/model"
	"pharmacy/internal/repository"
	"pharmacy/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type CreateMedicineRequest struct {
	Name       string  `json:"name" binding:"required"`
	Category   string  `json:"category"`
	Barcode    string  `json:"barcode"`
	Price      string  `json:"price" binding:"required"`
	Stock      int     `json:"stock" binding:"gte=0"`
	MinStock   int     `json:"min_stock" binding:"gte=0"`
	Expiry     *string `json:"expiry"` // YYYY-MM-DD
	SupplierID string  `json:"supplier_id"`
}

type UpdateMedicineRequest struct {
	Name       string  `json:"name" binding:"required"`
	Category   string  `json:"category"`
	Barcode    string  `json:"barcode"`
	Price      string  `json:"price" binding:"required"`
	MinStock   int     `json:"min_stock" binding:"gte=0"`
	Expiry     *string `json:"expiry"`
	SupplierID string  `json:"supplier_id"`
}

type AdjustStockRequest struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason"`
}

type MedicineResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Barcode    string  `json:"barcode,omitempty"`
	Price      string  `json:"price"`
	Stock      int     `json:"stock"`
	MinStock   int     `json:"min_stock"`
	LowStock   bool    `json:"low_stock"`
	Expiry     *string `json:"expiry,omitempty"`
	SupplierID *string `json:"supplier_id,omitempty"`
	Supplier   string  `json:"supplier,omitempty"`
}

type MedicineFilter struct {
	Search   string
	Category string
	LowStock bool
	Page     int
	Limit    int
}

// MedicineService is the catalog store: CRUD over medicine records plus the
// locked stock adjustment path used for restocking and manual corrections.
type MedicineService interface {
	List(ctx context.Context, filter MedicineFilter) ([]MedicineResponse, int64, error)
	Get(ctx context.Context, id string) (MedicineResponse, error)
	FindByBarcode(ctx context.Context, barcode string) (MedicineResponse, error)
	Create(ctx context.Context, userID string, req CreateMedicineRequest) (MedicineResponse, error)
	Update(ctx context.Context, userID string, id string, req UpdateMedicineRequest) (MedicineResponse, error)
	Delete(ctx context.Context, userID string, id string) error
	AdjustStock(ctx context.Context, userID string, id string, req AdjustStockRequest) (MedicineResponse, error)
}

type medicineService struct {
	medicineRepo repository.MedicineRepository
	supplierRepo repository.SupplierRepository
	auditService AuditService
	txManager    repository.TransactionManager
	bus          *events.Bus
}

func NewMedicineService(
	medicineRepo repository.MedicineRepository,
	supplierRepo repository.SupplierRepository,
	auditService AuditService,
	txManager repository.TransactionManager,
	bus *events.Bus,
) MedicineService {
	return &medicineService{
		medicineRepo: medicineRepo,
		supplierRepo: supplierRepo,
		auditService: auditService,
		txManager:    txManager,
		bus:          bus,
	}
}

func toMedicineResponse(m *model.Medicine) MedicineResponse {
	res := MedicineResponse{
		ID:       m.ID.String(),
		Name:     m.Name,
		Category: m.Category,
		Barcode:  barcodeValue(m.Barcode),
		Price:    m.Price.StringFixed(2),
		Stock:    m.Stock,
		MinStock: m.MinStock,
		LowStock: m.Stock <= m.MinStock,
	}
	if m.Expiry != nil {
		formatted := m.Expiry.Format("2006-01-02")
		res.Expiry = &formatted
	}
	if m.SupplierID != nil {
		id := m.SupplierID.String()
		res.SupplierID = &id
	}
	if m.Supplier != nil {
		res.Supplier = m.Supplier.Name
	}
	return res
}

func barcodeValue(raw *string) string {
	if raw == nil {
		return ""
	}
	return *raw
}

func barcodePtr(raw string) *string {
	if raw == "" {
		return nil
	}
	return &raw
}

func parseExpiry(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, apperror.Newf(apperror.CodeValidation, "invalid expiry date %q, expected YYYY-MM-DD", *raw)
	}
	return &parsed, nil
}

func (s *medicineService) List(ctx context.Context, filter MedicineFilter) ([]MedicineResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	medicines, total, err := s.medicineRepo.List(ctx, repository.MedicineListFilter{
		Search:   filter.Search,
		Category: filter.Category,
		LowStock: filter.LowStock,
		Page:     filter.Page,
		Limit:    filter.Limit,
	})
	if err != nil {
		return nil, 0, err
	}

	res := make([]MedicineResponse, 0, len(medicines))
	for i := range medicines {
		res = append(res, toMedicineResponse(&medicines[i]))
	}
	return res, total, nil
}

func (s *medicineService) Get(ctx context.Context, id string) (MedicineResponse, error) {
	medicineID, err := uuid.Parse(id)
	if err != nil {
		return MedicineResponse{}, apperror.Newf(apperror.CodeValidation, "invalid medicine id: %s", id)
	}

	medicine, err := s.medicineRepo.FindByID(ctx, medicineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MedicineResponse{}, apperror.New(apperror.CodeNotFound, "medicine not found")
		}
		return MedicineResponse{}, fmt.Errorf("database error: %w", err)
	}
	return toMedicineResponse(medicine), nil
}

func (s *medicineService) FindByBarcode(ctx context.Context, barcode string) (MedicineResponse, error) {
	medicine, err := s.medicineRepo.FindByBarcode(ctx, barcode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MedicineResponse{}, apperror.Newf(apperror.CodeNotFound, "no medicine with barcode %s", barcode)
		}
		return MedicineResponse{}, fmt.Errorf("database error: %w", err)
	}
	return toMedicineResponse(medicine), nil
}

func (s *medicineService) Create(ctx context.Context, userID string, req CreateMedicineRequest) (MedicineResponse, error) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return MedicineResponse{}, apperror.New(apperror.CodeValidation, "price must be a non-negative number")
	}
	if req.Stock < 0 {
		return MedicineResponse{}, apperror.New(apperror.CodeValidation, "stock must be non-negative")
	}

	expiry, err := parseExpiry(req.Expiry)
	if err != nil {
		return MedicineResponse{}, err
	}

	medicine := model.Medicine{
		Name:     req.Name,
		Category: req.Category,
		Barcode:  barcodePtr(req.Barcode),
		Price:    price,
		Stock:    req.Stock,
		MinStock: req.MinStock,
		Expiry:   expiry,
	}

	if req.SupplierID != "" {
		supplierID, parseErr := uuid.Parse(req.SupplierID)
		if parseErr != nil {
			return MedicineResponse{}, apperror.New(apperror.CodeValidation, "invalid supplier id")
		}
		if _, findErr := s.supplierRepo.FindByID(ctx, supplierID); findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return MedicineResponse{}, apperror.New(apperror.CodeNotFound, "supplier not found")
			}
			return MedicineResponse{}, fmt.Errorf("database error: %w", findErr)
		}
		medicine.SupplierID = &supplierID
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.medicineRepo.Create(txCtx, &medicine); err != nil {
			return fmt.Errorf("failed to create medicine: %w", err)
		}
		return s.auditService.Append(txCtx, userID, model.ActionCreateMedicine, medicine.ID.String(), medicine.Name, req)
	})
	if err != nil {
		return MedicineResponse{}, err
	}

	return toMedicineResponse(&medicine), nil
}

func (s *medicineService) Update(ctx context.Context, userID string, id string, req UpdateMedicineRequest) (MedicineResponse, error) {
	medicineID, err := uuid.Parse(id)
	if err != nil {
		return MedicineResponse{}, apperror.Newf(apperror.CodeValidation, "invalid medicine id: %s", id)
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return MedicineResponse{}, apperror.New(apperror.CodeValidation, "price must be a non-negative number")
	}

	expiry, err := parseExpiry(req.Expiry)
	if err != nil {
		return MedicineResponse{}, err
	}

	medicine, err := s.medicineRepo.FindByID(ctx, medicineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MedicineResponse{}, apperror.New(apperror.CodeNotFound, "medicine not found")
		}
		return MedicineResponse{}, fmt.Errorf("database error: %w", err)
	}

	medicine.Name = req.Name
	medicine.Category = req.Category
	medicine.Barcode = barcodePtr(req.Barcode)
	medicine.Price = price
	medicine.MinStock = req.MinStock
	medicine.Expiry = expiry

	if req.SupplierID != "" {
		supplierID, parseErr := uuid.Parse(req.SupplierID)
		if parseErr != nil {
			return MedicineResponse{}, apperror.New(apperror.CodeValidation, "invalid supplier id")
		}
		medicine.SupplierID = &supplierID
	} else {
		medicine.SupplierID = nil
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.medicineRepo.Update(txCtx, medicine); err != nil {
			return fmt.Errorf("failed to update medicine: %w", err)
		}
		return s.auditService.Append(txCtx, userID, model.ActionUpdateMedicine, medicine.ID.String(), medicine.Name, req)
	})
	if err != nil {
		return MedicineResponse{}, err
	}

	return toMedicineResponse(medicine), nil
}

func (s *medicineService) Delete(ctx context.Context, userID string, id string) error {
	medicineID, err := uuid.Parse(id)
	if err != nil {
		return apperror.Newf(apperror.CodeValidation, "invalid medicine id: %s", id)
	}

	medicine, err := s.medicineRepo.FindByID(ctx, medicineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.New(apperror.CodeNotFound, "medicine not found")
		}
		return fmt.Errorf("database error: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.medicineRepo.Delete(txCtx, medicineID); err != nil {
			return fmt.Errorf("failed to delete medicine: %w", err)
		}
		return s.auditService.Append(txCtx, userID, model.ActionDeleteMedicine, medicine.ID.String(), medicine.Name, map[string]interface{}{"deleted": true})
	})
}

// AdjustStock applies a signed delta under a row lock. Restocks are positive
// deltas; corrections may be negative but can never drive stock below zero.
func (s *medicineService) AdjustStock(ctx context.Context, userID string, id string, req AdjustStockRequest) (MedicineResponse, error) {
	medicineID, err := uuid.Parse(id)
	if err != nil {
		return MedicineResponse{}, apperror.Newf(apperror.CodeValidation, "invalid medicine id: %s", id)
	}

	var adjusted *model.Medicine
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		medicine, findErr := s.medicineRepo.FindByIDForUpdate(txCtx, medicineID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperror.New(apperror.CodeNotFound, "medicine not found")
			}
			return fmt.Errorf("database error: %w", findErr)
		}

		newStock := medicine.Stock + req.Delta
		if newStock < 0 {
			return apperror.InsufficientStock(medicine.Name, medicine.Stock, -req.Delta)
		}

		if updateErr := s.medicineRepo.UpdateStock(txCtx, medicineID, newStock); updateErr != nil {
			return fmt.Errorf("failed to update stock: %w", updateErr)
		}
		medicine.Stock = newStock
		adjusted = medicine

		return s.auditService.Append(txCtx, userID, model.ActionAdjustStock, medicine.ID.String(), medicine.Name, map[string]interface{}{
			"delta":       req.Delta,
			"reason":      req.Reason,
			"stock_after": newStock,
		})
	})
	if err != nil {
		return MedicineResponse{}, err
	}

	s.bus.Publish(events.StockAdjusted, toMedicineResponse(adjusted))
	if adjusted.Stock <= adjusted.MinStock {
		s.bus.Publish(events.StockLow, toMedicineResponse(adjusted))
	}

	return toMedicineResponse(adjusted), nil
}
