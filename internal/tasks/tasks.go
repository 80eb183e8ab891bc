package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeDashboardDigest = "dashboard:digest"
	TypeAuditPrune      = "audit:prune"
)

type DigestPayload struct{}

type PrunePayload struct{}

func NewDashboardDigestTask(opts ...asynq.Option) (*asynq.Task, error) {
	payloadBytes, err := json.Marshal(DigestPayload{})
	if err != nil {
		return nil, err
	}

	allOpts := append(opts, asynq.Unique(10*time.Minute), asynq.MaxRetry(2))
	return asynq.NewTask(TypeDashboardDigest, payloadBytes, allOpts...), nil
}

func NewAuditPruneTask(opts ...asynq.Option) (*asynq.Task, error) {
	payloadBytes, err := json.Marshal(PrunePayload{})
	if err != nil {
		return nil, err
	}

	allOpts := append(opts, asynq.Unique(1*time.Hour), asynq.Queue("low"))
	return asynq.NewTask(TypeAuditPrune, payloadBytes, allOpts...), nil
}
