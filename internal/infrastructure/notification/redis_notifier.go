package notification

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-enrollment/internal/usecase"
	"github.com/wekeepgrowing/semo-enrollment/pkg/messaging"
)

const defaultPublishTimeout = 3 * time.Second

// RedisNotifier publishes committed enrollment changes on a pub/sub channel.
// Publishing runs in its own goroutine; failures are logged and dropped.
type RedisNotifier struct {
	publisher messaging.Publisher
	channel   string
	timeout   time.Duration
	logger    *zap.Logger

	wg sync.WaitGroup
}

func NewRedisNotifier(publisher messaging.Publisher, channel string, timeout time.Duration, logger *zap.Logger) *RedisNotifier {
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	return &RedisNotifier{
		publisher: publisher,
		channel:   channel,
		timeout:   timeout,
		logger:    logger,
	}
}

func (n *RedisNotifier) EnrollmentChanged(ctx context.Context, change usecase.EnrollmentChange) {
	// the request may finish before the publish does
	ctx = context.WithoutCancel(ctx)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ctx, cancel := context.WithTimeout(ctx, n.timeout)
		defer cancel()

		if err := n.publisher.Publish(ctx, n.channel, change); err != nil {
			n.logger.Warn("Failed to publish enrollment change",
				zap.String("channel", n.channel),
				zap.String("enrollment_id", change.EnrollmentID),
				zap.String("event", change.Event),
				zap.Error(err))
		}
	}()
}

// Close waits for in-flight publishes, then closes the publisher
func (n *RedisNotifier) Close() error {
	n.wg.Wait()
	return n.publisher.Close()
}
