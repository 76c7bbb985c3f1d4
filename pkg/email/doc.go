// Package email sends transactional security notifications.
//
// EmailSender has two implementations: a Postmark client (github.com/mrz1836/postmark)
// used when POSTMARK_SERVER_TOKEN is set, and DevSender, which writes each
// message to disk for local development. AsyncSender wraps either so request
// handlers never block on delivery.
//
//	sender := email.NewAsyncSender(email.NewDevSender(cfg.DevDir), log, 0)
//	params, err := email.Render(email.TemplateTwoFactorEnabled, user.Email, email.NotificationData{
//	    Name:         user.Name,
//	    SupportEmail: cfg.SupportEmail,
//	    OccurredAt:   time.Now(),
//	})
//	if err == nil {
//	    _ = sender.SendEmail(ctx, params)
//	}
package email
