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

// TaxRate is the fixed sales tax applied to every prescription subtotal.
var TaxRate = decimal.NewFromFloat(0.08)

// DTOs
type PrescriptionItemRequest struct {
	MedicineID   string `json:"medicine_id" binding:"required"`
	Quantity     int    `json:"quantity" binding:"required,gt=0"`
	Instructions string `json:"instructions"`
}

type CreatePrescriptionRequest struct {
	PatientID     string                    `json:"patient_id"`
	WalkIn        bool                      `json:"walk_in"`
	CustomerName  string                    `json:"customer_name"`
	CustomerPhone string                    `json:"customer_phone"`
	Items         []PrescriptionItemRequest `json:"items" binding:"required,min=1,dive"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=CANCELLED DISPENSED"`
}

type PrescriptionItemResponse struct {
	MedicineID   string `json:"medicine_id"`
	MedicineName string `json:"medicine_name"`
	Quantity     int    `json:"quantity"`
	UnitPrice    string `json:"unit_price"`
	Instructions string `json:"instructions,omitempty"`
}

type PrescriptionResponse struct {
	ID            string                     `json:"id"`
	OrderNo       string                     `json:"order_no"`
	PatientID     *string                    `json:"patient_id,omitempty"`
	WalkIn        bool                       `json:"walk_in"`
	CustomerName  string                     `json:"customer_name"`
	CustomerPhone string                     `json:"customer_phone"`
	Items         []PrescriptionItemResponse `json:"items"`
	Subtotal      string                     `json:"subtotal"`
	Tax           string                     `json:"tax"`
	Total         string                     `json:"total"`
	Status        string                     `json:"status"`
	PaymentMethod string                     `json:"payment_method,omitempty"`
	PaidAt        *string                    `json:"paid_at,omitempty"`
	CreatedAt     string                     `json:"created_at"`
}

type PrescriptionFilter struct {
	Status string
	Search string
	Page   int
	Limit  int
}

// PrescriptionService is the order lifecycle manager. Stock is reserved at
// creation inside a single transaction and restored on cancellation or
// deletion of a PENDING prescription.
type PrescriptionService interface {
	Create(ctx context.Context, userID string, req CreatePrescriptionRequest) (PrescriptionResponse, error)
	Get(ctx context.Context, id string) (PrescriptionResponse, error)
	List(ctx context.Context, filter PrescriptionFilter) ([]PrescriptionResponse, int64, error)
	UpdateStatus(ctx context.Context, userID string, id string, req UpdateStatusRequest) (PrescriptionResponse, error)
	Delete(ctx context.Context, userID string, id string) error

	// MarkPaid transitions PENDING to PAID inside an already-open
	// transaction. Reserved for the payment processor.
	MarkPaid(txCtx context.Context, prescription *model.Prescription, method string, paidAt time.Time) error
}

type prescriptionService struct {
	prescriptionRepo repository.PrescriptionRepository
	medicineRepo     repository.MedicineRepository
	patientRepo      repository.PatientRepository
	auditService     AuditService
	txManager        repository.TransactionManager
	bus              *events.Bus
}

func NewPrescriptionService(
	prescriptionRepo repository.PrescriptionRepository,
	medicineRepo repository.MedicineRepository,
	patientRepo repository.PatientRepository,
	auditService AuditService,
	txManager repository.TransactionManager,
	bus *events.Bus,
) PrescriptionService {
	return &prescriptionService{
		prescriptionRepo: prescriptionRepo,
		medicineRepo:     medicineRepo,
		patientRepo:      patientRepo,
		auditService:     auditService,
		txManager:        txManager,
		bus:              bus,
	}
}

func toPrescriptionResponse(p *model.Prescription) PrescriptionResponse {
	items := make([]PrescriptionItemResponse, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, PrescriptionItemResponse{
			MedicineID:   item.MedicineID.String(),
			MedicineName: item.MedicineName,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice.StringFixed(2),
			Instructions: item.Instructions,
		})
	}

	res := PrescriptionResponse{
		ID:            p.ID.String(),
		OrderNo:       p.OrderNo,
		WalkIn:        p.WalkIn,
		CustomerName:  p.CustomerName,
		CustomerPhone: p.CustomerPhone,
		Items:         items,
		Subtotal:      p.Subtotal.StringFixed(2),
		Tax:           p.Tax.StringFixed(2),
		Total:         p.Total.StringFixed(2),
		Status:        p.Status,
		PaymentMethod: p.PaymentMethod,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
	}
	if p.PatientID != nil {
		id := p.PatientID.String()
		res.PatientID = &id
	}
	if p.PaidAt != nil {
		paidAt := p.PaidAt.Format(time.RFC3339)
		res.PaidAt = &paidAt
	}
	return res
}

// Create reserves stock and persists the prescription atomically. Pass 1
// locks every medicine row and validates availability; pass 2 deducts. A
// shortfall on any line item rolls the whole transaction back, so a failed
// creation never leaves a partial deduction behind.
func (s *prescriptionService) Create(ctx context.Context, userID string, req CreatePrescriptionRequest) (PrescriptionResponse, error) {
	if len(req.Items) == 0 {
		return PrescriptionResponse{}, apperror.New(apperror.CodeValidation, "prescription requires at least one line item")
	}

	prescription := model.Prescription{
		WalkIn:        req.WalkIn,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Status:        model.PrescriptionPending,
	}

	if req.PatientID != "" {
		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			return PrescriptionResponse{}, apperror.New(apperror.CodeValidation, "invalid patient id")
		}
		patient, err := s.patientRepo.FindByID(ctx, patientID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return PrescriptionResponse{}, apperror.New(apperror.CodeNotFound, "patient not found")
			}
			return PrescriptionResponse{}, fmt.Errorf("database error: %w", err)
		}
		prescription.PatientID = &patientID
		if prescription.CustomerName == "" {
			prescription.CustomerName = patient.Name
		}
		if prescription.CustomerPhone == "" {
			prescription.CustomerPhone = patient.Phone
		}
	} else if !req.WalkIn {
		return PrescriptionResponse{}, apperror.New(apperror.CodeValidation, "patient_id is required unless walk_in is set")
	}

	if creatorID, err := uuid.Parse(userID); err == nil {
		prescription.CreatedBy = &creatorID
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// Pass 1: lock and validate every line item before touching stock.
		type reservation struct {
			medicine *model.Medicine
			quantity int
		}
		reservations := make([]reservation, 0, len(req.Items))
		for _, itemReq := range req.Items {
			medicineID, parseErr := uuid.Parse(itemReq.MedicineID)
			if parseErr != nil {
				return apperror.Newf(apperror.CodeValidation, "invalid medicine id: %s", itemReq.MedicineID)
			}
			medicine, findErr := s.medicineRepo.FindByIDForUpdate(txCtx, medicineID)
			if findErr != nil {
				if errors.Is(findErr, gorm.ErrRecordNotFound) {
					return apperror.Newf(apperror.CodeNotFound, "medicine not found: %s", itemReq.MedicineID)
				}
				return fmt.Errorf("failed to find medicine %s: %w", itemReq.MedicineID, findErr)
			}
			if medicine.Stock < itemReq.Quantity {
				return apperror.InsufficientStock(medicine.Name, medicine.Stock, itemReq.Quantity)
			}
			reservations = append(reservations, reservation{medicine: medicine, quantity: itemReq.Quantity})
		}

		// Pass 2: deduct and total up with unit prices snapshotted now.
		subtotal := decimal.Zero
		for _, r := range reservations {
			if err := s.medicineRepo.UpdateStock(txCtx, r.medicine.ID, r.medicine.Stock-r.quantity); err != nil {
				return fmt.Errorf("failed to reserve stock for %s: %w", r.medicine.Name, err)
			}
			subtotal = subtotal.Add(r.medicine.Price.Mul(decimal.NewFromInt(int64(r.quantity))))
		}

		prescription.Subtotal = subtotal
		prescription.Tax = subtotal.Mul(TaxRate).Round(2)
		prescription.Total = prescription.Subtotal.Add(prescription.Tax)

		orderNo, genErr := s.generateOrderNo(txCtx, prescription.WalkIn)
		if genErr != nil {
			return fmt.Errorf("failed to generate order number: %w", genErr)
		}
		prescription.OrderNo = orderNo

		if err := s.prescriptionRepo.Create(txCtx, &prescription); err != nil {
			return fmt.Errorf("failed to create prescription: %w", err)
		}

		for i, r := range reservations {
			item := &model.PrescriptionItem{
				PrescriptionID: prescription.ID,
				MedicineID:     r.medicine.ID,
				MedicineName:   r.medicine.Name,
				Quantity:       r.quantity,
				UnitPrice:      r.medicine.Price,
				Instructions:   req.Items[i].Instructions,
			}
			if err := s.prescriptionRepo.CreateItem(txCtx, item); err != nil {
				return fmt.Errorf("failed to create prescription item: %w", err)
			}
			prescription.Items = append(prescription.Items, *item)
		}

		return s.auditService.Append(txCtx, userID, model.ActionCreatePrescription, prescription.ID.String(), prescription.OrderNo, map[string]interface{}{
			"order_no": prescription.OrderNo,
			"customer": prescription.CustomerName,
			"total":    prescription.Total.StringFixed(2),
			"items":    len(prescription.Items),
		})
	})
	if err != nil {
		return PrescriptionResponse{}, err
	}

	res := toPrescriptionResponse(&prescription)
	s.bus.Publish(events.PrescriptionCreated, res)
	return res, nil
}

// generateOrderNo issues RX-<sequence> numbers for registered patients and
// timestamped ORD numbers for walk-in sales.
func (s *prescriptionService) generateOrderNo(ctx context.Context, walkIn bool) (string, error) {
	if walkIn {
		return "ORD-" + time.Now().Format("20060102150405") + "-" + uuid.NewString()[:8], nil
	}

	seq, err := s.prescriptionRepo.MaxOrderSequence(ctx, "RX-")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("RX-%04d", seq+1), nil
}

func (s *prescriptionService) Get(ctx context.Context, id string) (PrescriptionResponse, error) {
	prescriptionID, err := uuid.Parse(id)
	if err != nil {
		return PrescriptionResponse{}, apperror.Newf(apperror.CodeValidation, "invalid prescription id: %s", id)
	}

	prescription, err := s.prescriptionRepo.FindByIDWithItems(ctx, prescriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PrescriptionResponse{}, apperror.New(apperror.CodeNotFound, "prescription not found")
		}
		return PrescriptionResponse{}, fmt.Errorf("database error: %w", err)
	}
	return toPrescriptionResponse(prescription), nil
}

func (s *prescriptionService) List(ctx context.Context, filter PrescriptionFilter) ([]PrescriptionResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	prescriptions, total, err := s.prescriptionRepo.List(ctx, repository.PrescriptionListFilter{
		Status: filter.Status,
		Search: filter.Search,
		Page:   filter.Page,
		Limit:  filter.Limit,
	})
	if err != nil {
		return nil, 0, err
	}

	res := make([]PrescriptionResponse, 0, len(prescriptions))
	for i := range prescriptions {
		res = append(res, toPrescriptionResponse(&prescriptions[i]))
	}
	return res, total, nil
}

// UpdateStatus enforces the public transition table: PENDING→CANCELLED
// (restores reserved stock) and PAID→DISPENSED. PENDING→PAID belongs to the
// payment processor and is rejected here.
func (s *prescriptionService) UpdateStatus(ctx context.Context, userID string, id string, req UpdateStatusRequest) (PrescriptionResponse, error) {
	prescriptionID, err := uuid.Parse(id)
	if err != nil {
		return PrescriptionResponse{}, apperror.Newf(apperror.CodeValidation, "invalid prescription id: %s", id)
	}

	var updated *model.Prescription
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		prescription, findErr := s.prescriptionRepo.FindByIDForUpdate(txCtx, prescriptionID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperror.New(apperror.CodeNotFound, "prescription not found")
			}
			return fmt.Errorf("database error: %w", findErr)
		}

		switch req.Status {
		case model.PrescriptionCancelled:
			if prescription.Status != model.PrescriptionPending {
				return apperror.Newf(apperror.CodeInvalidTransition, "cannot cancel a %s prescription", prescription.Status)
			}
			unrestored, restoreErr := s.restoreStock(txCtx, prescription)
			if restoreErr != nil {
				return restoreErr
			}
			prescription.Status = model.PrescriptionCancelled
			details := map[string]interface{}{
				"order_no": prescription.OrderNo,
			}
			if len(unrestored) > 0 {
				details["unrestored"] = unrestored
			}
			if err := s.auditService.Append(txCtx, userID, model.ActionCancelPrescription, prescription.ID.String(), prescription.OrderNo, details); err != nil {
				return err
			}
		case model.PrescriptionDispensed:
			if prescription.Status != model.PrescriptionPaid {
				return apperror.Newf(apperror.CodeInvalidTransition, "cannot dispense a %s prescription", prescription.Status)
			}
			prescription.Status = model.PrescriptionDispensed
			if err := s.auditService.Append(txCtx, userID, model.ActionDispense, prescription.ID.String(), prescription.OrderNo, map[string]interface{}{
				"order_no": prescription.OrderNo,
			}); err != nil {
				return err
			}
		default:
			return apperror.Newf(apperror.CodeInvalidTransition, "transition to %s is not permitted", req.Status)
		}

		if err := s.prescriptionRepo.Update(txCtx, prescription); err != nil {
			return fmt.Errorf("failed to update prescription: %w", err)
		}
		updated = prescription
		return nil
	})
	if err != nil {
		return PrescriptionResponse{}, err
	}

	res := toPrescriptionResponse(updated)
	switch req.Status {
	case model.PrescriptionCancelled:
		s.bus.Publish(events.PrescriptionCancelled, res)
	case model.PrescriptionDispensed:
		s.bus.Publish(events.PrescriptionDispensed, res)
	}
	return res, nil
}

// restoreStock adds back exactly the quantities reserved at creation, under
// row locks. Callers guarantee the prescription is PENDING, so a restore can
// never run twice for the same order. Quantities held by medicines deleted
// since creation cannot be restored and are returned so the caller can record
// them in the audit trail.
func (s *prescriptionService) restoreStock(txCtx context.Context, prescription *model.Prescription) (map[string]int, error) {
	var unrestored map[string]int
	for _, item := range prescription.Items {
		medicine, err := s.medicineRepo.FindByIDForUpdate(txCtx, item.MedicineID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if unrestored == nil {
					unrestored = make(map[string]int)
				}
				unrestored[item.MedicineName] += item.Quantity
				continue
			}
			return nil, fmt.Errorf("failed to load medicine %s: %w", item.MedicineName, err)
		}
		if err := s.medicineRepo.UpdateStock(txCtx, medicine.ID, medicine.Stock+item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to restore stock for %s: %w", item.MedicineName, err)
		}
	}
	return unrestored, nil
}

// Delete removes a prescription. Only a PENDING delete restores stock: PAID
// and DISPENSED orders already consumed it, CANCELLED already restored it.
func (s *prescriptionService) Delete(ctx context.Context, userID string, id string) error {
	prescriptionID, err := uuid.Parse(id)
	if err != nil {
		return apperror.Newf(apperror.CodeValidation, "invalid prescription id: %s", id)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		prescription, findErr := s.prescriptionRepo.FindByIDForUpdate(txCtx, prescriptionID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperror.New(apperror.CodeNotFound, "prescription not found")
			}
			return fmt.Errorf("database error: %w", findErr)
		}

		details := map[string]interface{}{
			"order_no": prescription.OrderNo,
			"status":   prescription.Status,
		}
		if prescription.Status == model.PrescriptionPending {
			unrestored, restoreErr := s.restoreStock(txCtx, prescription)
			if restoreErr != nil {
				return restoreErr
			}
			if len(unrestored) > 0 {
				details["unrestored"] = unrestored
			}
		}

		if err := s.prescriptionRepo.Delete(txCtx, prescriptionID); err != nil {
			return fmt.Errorf("failed to delete prescription: %w", err)
		}

		return s.auditService.Append(txCtx, userID, model.ActionDeletePrescription, prescription.ID.String(), prescription.OrderNo, details)
	})
}

// MarkPaid flips a PENDING prescription to PAID inside the caller's
// transaction. The caller holds the row lock.
func (s *prescriptionService) MarkPaid(txCtx context.Context, prescription *model.Prescription, method string, paidAt time.Time) error {
	if prescription.Status != model.PrescriptionPending {
		return apperror.Newf(apperror.CodeInvalidState, "prescription %s is %s, only PENDING can be paid", prescription.OrderNo, prescription.Status)
	}
	prescription.Status = model.PrescriptionPaid
	prescription.PaymentMethod = method
	prescription.PaidAt = &paidAt
	return s.prescriptionRepo.Update(txCtx, prescription)
}
