package memory

import (
	"content_compliance/internal/repository"
)

var (
	_ repository.ContentRepository = (*ContentRepository)(nil)
	_ repository.RuleRepository    = (*RuleRepository)(nil)
	_ repository.AuditRepository   = (*AuditRepository)(nil)
)
