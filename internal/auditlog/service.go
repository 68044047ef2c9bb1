package auditlog

import (
	"context"
	"encoding/json"
	"log"
	"math"

	"github.com/calicantus/studio-cms-backend/utils"
)

type Service interface {
	LogAction(ctx context.Context, userID *uint, action string, details map[string]interface{}, ipAddress string, status string) error
	GetAuditLogs(ctx context.Context, filter AuditLogFilter) (*PaginatedAuditLogs, error)
	GetAuditLogByID(ctx context.Context, id uint) (*AuditLogResponse, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// LogAction records an audit entry. When Kafka is configured the entry is
// published to the audit topic and written by the consumer; otherwise it
// goes straight to the database. Audit failures are logged, never fatal.
func (s *service) LogAction(ctx context.Context, userID *uint, action string, details map[string]interface{}, ipAddress string, status string) error {
	detailsJSON := "{}"
	if details != nil {
		if b, err := json.Marshal(details); err == nil {
			detailsJSON = string(b)
		}
	}

	entry := &AuditLog{
		UserID:    userID,
		Action:    action,
		Details:   detailsJSON,
		IPAddress: ipAddress,
		Status:    status,
	}

	if utils.KafkaEnabled() {
		payload, err := json.Marshal(entry)
		if err == nil {
			if err := utils.PublishAuditEvent(ctx, payload); err == nil {
				return nil
			}
			log.Printf("⚠️ Audit publish failed, falling back to direct write: action=%s", action)
		}
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		log.Printf("⚠️ Failed to write audit log: action=%s err=%v", action, err)
		return err
	}
	return nil
}

// GetAuditLogs retrieves audit logs with filtering and pagination
func (s *service) GetAuditLogs(ctx context.Context, filter AuditLogFilter) (*PaginatedAuditLogs, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	logs, total, err := s.repo.GetByFilter(ctx, filter)
	if err != nil {
		return nil, err
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))

	return &PaginatedAuditLogs{
		Data:       logs,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
	}, nil
}

// GetAuditLogByID retrieves a specific audit log
func (s *service) GetAuditLogByID(ctx context.Context, id uint) (*AuditLogResponse, error) {
	return s.repo.GetByID(ctx, id)
}
