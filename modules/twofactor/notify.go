package twofactor

import (
	"context"
	"log/slog"
	"time"

	"github.com/cashlens/cashlens/pkg/clientip"
	"github.com/cashlens/cashlens/pkg/email"
	"github.com/cashlens/cashlens/pkg/logger"
)

// Notifier tells users about security-relevant changes to their account.
// Implementations must not block the caller on delivery.
type Notifier interface {
	Notify(ctx context.Context, tpl email.Template, cred Credential)
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, email.Template, Credential) {}

// EmailNotifier renders a notification template and hands it to sender,
// normally an *email.AsyncSender.
type EmailNotifier struct {
	sender       email.EmailSender
	supportEmail string
	log          *slog.Logger
	now          func() time.Time
}

// NewEmailNotifier creates a Notifier delivering through sender.
func NewEmailNotifier(sender email.EmailSender, supportEmail string, log *slog.Logger) *EmailNotifier {
	if log == nil {
		log = logger.Discard()
	}
	return &EmailNotifier{
		sender:       sender,
		supportEmail: supportEmail,
		log:          log,
		now:          time.Now,
	}
}

// Notify never fails the caller; render and hand-off errors are logged.
func (n *EmailNotifier) Notify(ctx context.Context, tpl email.Template, cred Credential) {
	params, err := email.Render(tpl, cred.Email, email.NotificationData{
		Name:         cred.Name,
		IP:           clientip.GetIPFromContext(ctx),
		SupportEmail: n.supportEmail,
		OccurredAt:   n.now().UTC(),
	})
	if err == nil {
		err = n.sender.SendEmail(ctx, params)
	}
	if err != nil {
		n.log.WarnContext(ctx, "failed to queue security notification",
			logger.UserID(cred.UserID),
			logger.Event(string(tpl)),
			logger.Error(err),
		)
	}
}
