package email

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cashlens/cashlens/pkg/logger"
)

// DefaultSendTimeout bounds a single background delivery.
const DefaultSendTimeout = 10 * time.Second

// AsyncSender hands emails to a background goroutine so callers never wait on
// or fail because of delivery. Failures are logged.
type AsyncSender struct {
	next    EmailSender
	log     *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewAsyncSender wraps next. A zero timeout means DefaultSendTimeout.
func NewAsyncSender(next EmailSender, log *slog.Logger, timeout time.Duration) *AsyncSender {
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	if log == nil {
		log = logger.Discard()
	}
	return &AsyncSender{
		next:    next,
		log:     log.With(logger.Component("email")),
		timeout: timeout,
	}
}

// SendEmail validates params and returns immediately. Delivery runs on a
// context detached from ctx's cancellation, keeping its values for logging.
func (s *AsyncSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	detached := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(detached, s.timeout)
		defer cancel()

		if err := s.next.SendEmail(ctx, params); err != nil {
			s.log.ErrorContext(ctx, "failed to deliver email",
				logger.Error(err),
				slog.String("tag", params.Tag),
			)
			return
		}
		s.log.DebugContext(ctx, "email delivered", slog.String("tag", params.Tag))
	}()
	return nil
}

// Wait blocks until in-flight deliveries finish or ctx is done.
func (s *AsyncSender) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
