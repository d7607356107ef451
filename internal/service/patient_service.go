package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pharmacy/internal/model"
	"pharmacy/internal/repository"
	"pharmacy/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PatientRequest struct {
	Name        string  `json:"name" binding:"required"`
	Phone       string  `json:"phone"`
	Email       string  `json:"email" binding:"omitempty,email"`
	DateOfBirth *string `json:"date_of_birth"` // YYYY-MM-DD
	Address     string  `json:"address"`
	Allergies   string  `json:"allergies"`
}

type PatientResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Phone       string  `json:"phone"`
	Email       string  `json:"email"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`
	Address     string  `json:"address"`
	Allergies   string  `json:"allergies"`
}

type PatientService interface {
	List(ctx context.Context, page, limit int, search string) ([]PatientResponse, int64, error)
	Get(ctx context.Context, id string) (PatientResponse, error)
	Create(ctx context.Context, userID string, req PatientRequest) (PatientResponse, error)
	Update(ctx context.Context, userID string, id string, req PatientRequest) (PatientResponse, error)
	Delete(ctx context.Context, userID string, id string) error
}

type patientService struct {
	patientRepo  repository.PatientRepository
	auditService AuditService
	txManager    repository.TransactionManager
}

func NewPatientService(patientRepo repository.PatientRepository, auditService AuditService, txManager repository.TransactionManager) PatientService {
	return &patientService{patientRepo: patientRepo, auditService: auditService, txManager: txManager}
}

func toPatientResponse(p *model.Patient) PatientResponse {
	res := PatientResponse{
		ID:        p.ID.String(),
		Name:      p.Name,
		Phone:     p.Phone,
		Email:     p.Email,
		Address:   p.Address,
		Allergies: p.Allergies,
	}
	if p.DateOfBirth != nil {
		formatted := p.DateOfBirth.Format("2006-01-02")
		res.DateOfBirth = &formatted
	}
	return res
}

func (s *patientService) applyRequest(patient *model.Patient, req PatientRequest) error {
	patient.Name = req.Name
	patient.Phone = req.Phone
	patient.Email = req.Email
	patient.Address = req.Address
	patient.Allergies = req.Allergies
	if req.DateOfBirth != nil && *req.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", *req.DateOfBirth)
		if err != nil {
			return apperror.Newf(apperror.CodeValidation, "invalid date_of_birth %q, expected YYYY-MM-DD", *req.DateOfBirth)
		}
		patient.DateOfBirth = &dob
	} else {
		patient.DateOfBirth = nil
	}
	return nil
}

func (s *patientService) List(ctx context.Context, page, limit int, search string) ([]PatientResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	patients, total, err := s.patientRepo.List(ctx, page, limit, search)
	if err != nil {
		return nil, 0, err
	}

	res := make([]PatientResponse, 0, len(patients))
	for i := range patients {
		res = append(res, toPatientResponse(&patients[i]))
	}
	return res, total, nil
}

func (s *patientService) Get(ctx context.Context, id string) (PatientResponse, error) {
	patientID, err := uuid.Parse(id)
	if err != nil {
		return PatientResponse{}, apperror.Newf(apperror.CodeValidation, "invalid patient id: %s", id)
	}

	patient, err := s.patientRepo.FindByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PatientResponse{}, apperror.New(apperror.CodeNotFound, "patient not found")
		}
		return PatientResponse{}, fmt.Errorf("database error: %w", err)
	}
	return toPatientResponse(patient), nil
}

func (s *patientService) Create(ctx context.Context, userID string, req PatientRequest) (PatientResponse, error) {
	var patient model.Patient
	if err := s.applyRequest(&patient, req); err != nil {
		return PatientResponse{}, err
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.patientRepo.Create(txCtx, &patient); err != nil {
			return fmt.Errorf("failed to create patient: %w", err)
		}
		return s.auditService.Append(txCtx, userID, model.ActionCreatePatient, patient.ID.String(), patient.Name, req)
	})
	if err != nil {
		return PatientResponse{}, err
	}
	return toPatientResponse(&patient), nil
}

func (s *patientService) Update(ctx context.Context, userID string, id string, req PatientRequest) (PatientResponse, error) {
	patientID, err := uuid.Parse(id)
	if err != nil {
		return PatientResponse{}, apperror.Newf(apperror.CodeValidation, "invalid patient id: %s", id)
	}

	patient, err := s.patientRepo.FindByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PatientResponse{}, apperror.New(apperror.CodeNotFound, "patient not found")
		}
		return PatientResponse{}, fmt.Errorf("database error: %w", err)
	}

	if err := s.applyRequest(patient, req); err != nil {
		return PatientResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.patientRepo.Update(txCtx, patient); err != nil {
			return fmt.Errorf("failed to update patient: %w", err)
		}
		return s.auditService.Append(txCtx, userID, model.ActionUpdatePatient, patient.ID.String(), patient.Name, req)
	})
	if err != nil {
		return PatientResponse{}, err
	}
	return toPatientResponse(patient), nil
}

func (s *patientService) Delete(ctx context.Context, userID string, id string) error {
	patientID, err := uuid.Parse(id)
	if err != nil {
		return apperror.Newf(apperror.CodeValidation, "invalid patient id: %s", id)
	}

	patient, err := s.patientRepo.FindByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.New(apperror.CodeNotFound, "patient not found")
		}
		return fmt.Errorf("database error: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.patientRepo.Delete(txCtx, patientID); err != nil {
			return fmt.Errorf("failed to delete patient: %w", err)
		}
		return s.auditService.Append(txCtx, userID, model.ActionDeletePatient, patient.ID.String(), patient.Name, map[string]interface{}{"deleted": true})
	})
}
