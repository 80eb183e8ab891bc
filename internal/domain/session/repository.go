package session

import (
	"context"
	"time"
)

type Repository interface {
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	FindByID(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}
