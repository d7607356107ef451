package service

import (
	"context"
	"encoding/json"
	"log"
	"strconv"

	"pharmacy/internal/model"
	"pharmacy/internal/repository"

	"github.com/google/uuid"
)

type AuditLogResponse struct {
	ID         uint   `json:"id"`
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

// AuditService appends capped audit entries and lists the trail. Append is
// safe to call inside an open transaction via the context-bound DB handle.
type AuditService interface {
	Append(ctx context.Context, userID string, action, entityID, entityName string, details interface{}) error
	List(ctx context.Context, page, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
}

func NewAuditService(auditRepo repository.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

// Append writes one entry and evicts anything past the retention cap.
// Actor ids that do not parse are recorded as system actions.
func (s *auditService) Append(ctx context.Context, userID string, action, entityID, entityName string, details interface{}) error {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		uid = &parsed
	}

	payload, err := json.Marshal(details)
	if err != nil {
		log.Printf("audit: failed to marshal details for %s on %s: %v", action, entityID, err)
		payload = []byte(`{"marshal_error":` + strconv.Quote(err.Error()) + `}`)
	}
	entry := &model.AuditLog{
		UserID:     uid,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(payload),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return err
	}

	return s.auditRepo.TrimToLimit(ctx, model.AuditLogLimit)
}

func (s *auditService) List(ctx context.Context, page, limit int) ([]AuditLogResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	logs, total, err := s.auditRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		username := "System"
		userID := ""
		if l.User != nil {
			username = l.User.Username
		}
		if l.UserID != nil {
			userID = l.UserID.String()
		}

		res = append(res, AuditLogResponse{
			ID:         l.ID,
			UserID:     userID,
			Username:   username,
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return res, total, nil
}
