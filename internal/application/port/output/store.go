package output

import (
	"context"
	"time"

	"github.com/iaamar/SoftLight-UIStateAgent/internal/domain/entity"
)

// ContextStorePort keeps per-step workflow context for other processes.
type ContextStorePort interface {
	Save(ctx context.Context, key string, value any, ttl time.Duration) error
	Load(ctx context.Context, key string, dst any) (bool, error)
}

// MetadataPort persists the audit record of a run.
type MetadataPort interface {
	WriteWorkflowMetadata(appName, taskName string, meta entity.WorkflowMetadata) (string, error)
}
