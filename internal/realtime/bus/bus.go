package bus

import (
	"context"

	"github.com/eduforge/eduforge-backend/internal/realtime"
)

type Bus interface {
	Publish(ctx context.Context, msg realtime.Event) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.Event)) error
	Close() error
}
