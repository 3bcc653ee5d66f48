package service

import (
	"context"
	"time"

	"creatorclub/pkg/logger"
)

// AuditRecord describes a privileged read. Writes are not audited.
type AuditRecord struct {
	Action   string         `json:"action"`
	AdminUID string         `json:"admin_uid"`
	Params   map[string]any `json:"params,omitempty"`
	At       time.Time      `json:"at"`
}

type Auditor interface {
	Audit(ctx context.Context, record AuditRecord) error
}

type logAuditor struct {
	log *logger.Logger
}

// NewLogAuditor writes audit records to the service log under the "audit" message.
func NewLogAuditor(log *logger.Logger) Auditor {
	return &logAuditor{log: log}
}

func (a *logAuditor) Audit(ctx context.Context, record AuditRecord) error {
	a.log.InfoContext(ctx, "audit",
		"action", record.Action,
		"admin_uid", record.AdminUID,
		"params", record.Params,
		"at", record.At,
	)
	return nil
}
