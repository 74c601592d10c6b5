package job

import (
	"context"

	"github.com/xxxsen/plotline/internal/service"
)

// OperationTTLJob deletes hot operations past the retention window.
type OperationTTLJob struct {
	history *service.HistoryService
}

func NewOperationTTLJob(history *service.HistoryService) *OperationTTLJob {
	return &OperationTTLJob{history: history}
}

func (j *OperationTTLJob) Name() string {
	return "operation_ttl_cleanup"
}

func (j *OperationTTLJob) Run(ctx context.Context) error {
	_, err := j.history.PurgeExpired(ctx)
	return err
}
