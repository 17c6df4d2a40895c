package output

import (
	"context"
	"time"

	"github.com/iaamar/SoftLight-UIStateAgent/internal/domain/entity"
)

// UserInteractionPort is the terminal side of a run.
type UserInteractionPort interface {
	AskQuestion(ctx context.Context, question string) (string, error)
	NotifyLoginRequired(ctx context.Context, status entity.AuthStatus, maxWait time.Duration)
	ShowResult(ctx context.Context, result *entity.WorkflowResult)
}
