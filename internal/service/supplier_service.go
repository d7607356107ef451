package service

import (
	"context"
	"errors"
	"fmt"

	"pharmacy/internal/model"
	"pharmacy/internal/repository"
	"pharmacy/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SupplierRequest struct {
	Name          string `json:"name" binding:"required"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email" binding:"omitempty,email"`
	Address       string `json:"address"`
	IsActive      *bool  `json:"is_active"`
}

type SupplierResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	IsActive      bool   `json:"is_active"`
}

type SupplierService interface {
	List(ctx context.Context, page, limit int, search string) ([]SupplierResponse, int64, error)
	Get(ctx context.Context, id string) (SupplierResponse, error)
	Create(ctx context.Context, userID string, req SupplierRequest) (SupplierResponse, error)
	Update(ctx context.Context, userID string, id string, req SupplierRequest) (SupplierResponse, error)
	Delete(ctx context.Context, userID string, id string) error
}

type supplierService struct {
	supplierRepo repository.SupplierRepository
	auditService AuditService
	txManager    repository.TransactionManager
}

func NewSupplierService(supplierRepo repository.SupplierRepository, auditService AuditService, txManager repository.TransactionManager) SupplierService {
	return &supplierService{supplierRepo: supplierRepo, auditService: auditService, txManager: txManager}
}

func toSupplierResponse(s *model.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:            s.ID.String(),
		Name:          s.Name,
		ContactPerson: s.ContactPerson,
		Phone:         s.Phone,
		Email:         s.Email,
		Address:       s.Address,
		IsActive:      s.IsActive,
	}
}

func applySupplierRequest(supplier *model.Supplier, req SupplierRequest) {
	supplier.Name = req.Name
	supplier.ContactPerson = req.ContactPerson
	supplier.Phone = req.Phone
	supplier.Email = req.Email
	supplier.Address = req.Address
	if req.IsActive != nil {
		supplier.IsActive = *req.IsActive
	}
}

func (s *supplierService) List(ctx context.Context, page, limit int, search string) ([]SupplierResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	suppliers, total, err := s.supplierRepo.List(ctx, page, limit, search)
	if err != nil {
		return nil, 0, err
	}

	res := make([]SupplierResponse, 0, len(suppliers))
	for i := range suppliers {
		res = append(res, toSupplierResponse(&suppliers[i]))
	}
	return res, total, nil
}

func (s *supplierService) Get(ctx context.Context, id string) (SupplierResponse, error) {
	supplierID, err := uuid.Parse(id)
	if err != nil {
		return SupplierResponse{}, apperror.Newf(apperror.CodeValidation, "invalid supplier id: %s", id)
	}

	supplier, err := s.supplierRepo.FindByID(ctx, supplierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SupplierResponse{}, apperror.New(apperror.CodeNotFound, "supplier not found")
		}
		return SupplierResponse{}, fmt.Errorf("database error: %w", err)
	}
	return toSupplierResponse(supplier), nil
}

func (s *supplierService) Create(ctx context.Context, userID string, req SupplierRequest) (SupplierResponse, error) {
	supplier := model.Supplier{IsActive: true}
	applySupplierRequest(&supplier, req)

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.supplierRepo.Create(txCtx, &supplier); err != nil {
			return fmt.Errorf("failed to create supplier: %w", err)
		}
		return s.auditService.Append(txCtx, userID, model.ActionCreateSupplier, supplier.ID.String(), supplier.Name, req)
	})
	if err != nil {
		return SupplierResponse{}, err
	}
	return toSupplierResponse(&supplier), nil
}

func (s *supplierService) Update(ctx context.Context, userID string, id string, req SupplierRequest) (SupplierResponse, error) {
	supplierID, err := uuid.Parse(id)
	if err != nil {
		return SupplierResponse{}, apperror.Newf(apperror.CodeValidation, "invalid supplier id: %s", id)
	}

	supplier, err := s.supplierRepo.FindByID(ctx, supplierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SupplierResponse{}, apperror.New(apperror.CodeNotFound, "supplier not found")
		}
		return SupplierResponse{}, fmt.Errorf("database error: %w", err)
	}

	applySupplierRequest(supplier, req)

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.supplierRepo.Update(txCtx, supplier); err != nil {
			return fmt.Errorf("failed to update supplier: %w", err)
		}
		return s.auditService.Append(txCtx, userID, model.ActionUpdateSupplier, supplier.ID.String(), supplier.Name, req)
	})
	if err != nil {
		return SupplierResponse{}, err
	}
	return toSupplierResponse(supplier), nil
}

func (s *supplierService) Delete(ctx context.Context, userID string, id string) error {
	supplierID, err := uuid.Parse(id)
	if err != nil {
		return apperror.Newf(apperror.CodeValidation, "invalid supplier id: %s", id)
	}

	supplier, err := s.supplierRepo.FindByID(ctx, supplierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.New(apperror.CodeNotFound, "supplier not found")
		}
		return fmt.Errorf("database error: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.supplierRepo.Delete(txCtx, supplierID); err != nil {
			return fmt.Errorf("failed to delete supplier: %w", err)
		}
		return s.auditService.Append(txCtx, userID, model.ActionDeleteSupplier, supplier.ID.String(), supplier.Name, map[string]interface{}{"deleted": true})
	})
}
