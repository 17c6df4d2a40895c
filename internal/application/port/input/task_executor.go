package input

import (
	"context"

	"github.com/iaamar/SoftLight-UIStateAgent/internal/domain/entity"
)

// TaskExecutor runs one task against one browser session. The returned
// result is never nil, even when err is set.
type TaskExecutor interface {
	Execute(ctx context.Context, req entity.TaskRequest) (*entity.WorkflowResult, error)
}
