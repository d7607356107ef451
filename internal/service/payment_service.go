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
type ProcessPaymentRequest struct {
	PrescriptionID string `json:"prescription_id" binding:"required"`
	Tendered       string `json:"tendered"`
	Method         string `json:"method" binding:"required,oneof=CASH CARD TRANSFER"`
}

type PaymentResponse struct {
	ID             string `json:"id"`
	PrescriptionID string `json:"prescription_id"`
	OrderNo        string `json:"order_no"`
	Amount         string `json:"amount"`
	Tendered       string `json:"tendered"`
	Change         string `json:"change"`
	Method         string `json:"method"`
	ProcessedBy    string `json:"processed_by,omitempty"`
	CreatedAt      string `json:"created_at"`
}

type PaymentFilter struct {
	From  *time.Time
	To    *time.Time
	Page  int
	Limit int
}

// PaymentService settles PENDING prescriptions. Cash requires the tendered
// amount to cover the total and yields change; card and transfer are
// exact-amount settlements.
type PaymentService interface {
	ProcessPayment(ctx context.Context, userID string, req ProcessPaymentRequest) (PaymentResponse, error)
	List(ctx context.Context, filter PaymentFilter) ([]PaymentResponse, int64, error)
}

type paymentService struct {
	paymentRepo         repository.PaymentRepository
	prescriptionRepo    repository.PrescriptionRepository
	prescriptionService PrescriptionService
	auditService        AuditService
	txManager           repository.TransactionManager
	bus                 *events.Bus
}

func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	prescriptionRepo repository.PrescriptionRepository,
	prescriptionService PrescriptionService,
	auditService AuditService,
	txManager repository.TransactionManager,
	bus *events.Bus,
) PaymentService {
	return &paymentService{
		paymentRepo:         paymentRepo,
		prescriptionRepo:    prescriptionRepo,
		prescriptionService: prescriptionService,
		auditService:        auditService,
		txManager:           txManager,
		bus:                 bus,
	}
}

func toPaymentResponse(p *model.Payment) PaymentResponse {
	res := PaymentResponse{
		ID:             p.ID.String(),
		PrescriptionID: p.PrescriptionID.String(),
		OrderNo:        p.OrderNo,
		Amount:         p.Amount.StringFixed(2),
		Tendered:       p.Tendered.StringFixed(2),
		Change:         p.Change.StringFixed(2),
		Method:         p.Method,
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
	}
	if p.ProcessedBy != nil {
		res.ProcessedBy = p.ProcessedBy.String()
	}
	return res
}

func (s *paymentService) ProcessPayment(ctx context.Context, userID string, req ProcessPaymentRequest) (PaymentResponse, error) {
	prescriptionID, err := uuid.Parse(req.PrescriptionID)
	if err != nil {
		return PaymentResponse{}, apperror.New(apperror.CodeValidation, "invalid prescription id")
	}

	var payment model.Payment
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		prescription, findErr := s.prescriptionRepo.FindByIDForUpdate(txCtx, prescriptionID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperror.New(apperror.CodeNotFound, "prescription not found")
			}
			return fmt.Errorf("database error: %w", findErr)
		}

		if prescription.Status != model.PrescriptionPending {
			return apperror.Newf(apperror.CodeInvalidState, "prescription %s is %s, only PENDING can be paid", prescription.OrderNo, prescription.Status)
		}

		total := prescription.Total
		var tendered decimal.Decimal
		switch req.Method {
		case model.PaymentMethodCash:
			tendered, err = decimal.NewFromString(req.Tendered)
			if err != nil {
				return apperror.New(apperror.CodeValidation, "tendered must be a decimal amount for cash payments")
			}
			if tendered.LessThan(total) {
				return apperror.InsufficientPayment(total.StringFixed(2), tendered.StringFixed(2))
			}
		default:
			// Card and transfer settle the exact amount due.
			tendered = total
		}

		now := time.Now()
		payment = model.Payment{
			PrescriptionID: prescription.ID,
			OrderNo:        prescription.OrderNo,
			Amount:         total,
			Tendered:       tendered,
			Change:         tendered.Sub(total),
			Method:         req.Method,
		}
		if accountantID, parseErr := uuid.Parse(userID); parseErr == nil {
			payment.ProcessedBy = &accountantID
		}

		if err := s.paymentRepo.Create(txCtx, &payment); err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}

		if err := s.prescriptionService.MarkPaid(txCtx, prescription, req.Method, now); err != nil {
			return err
		}

		return s.auditService.Append(txCtx, userID, model.ActionProcessPayment, payment.ID.String(), prescription.OrderNo, map[string]interface{}{
			"order_no": prescription.OrderNo,
			"amount":   total.StringFixed(2),
			"tendered": tendered.StringFixed(2),
			"change":   payment.Change.StringFixed(2),
			"method":   req.Method,
		})
	})
	if err != nil {
		return PaymentResponse{}, err
	}

	res := toPaymentResponse(&payment)
	s.bus.Publish(events.PaymentRecorded, res)
	return res, nil
}

func (s *paymentService) List(ctx context.Context, filter PaymentFilter) ([]PaymentResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	payments, total, err := s.paymentRepo.List(ctx, repository.PaymentListFilter{
		From:  filter.From,
		To:    filter.To,
		Page:  filter.Page,
		Limit: filter.Limit,
	})
	if err != nil {
		return nil, 0, err
	}

	res := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		res = append(res, toPaymentResponse(&payments[i]))
	}
	return res, total, nil
}
