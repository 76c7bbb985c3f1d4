package email

// Config holds email delivery settings.
// Without PostmarkServerToken mail is written to DevDir instead of being sent.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"noreply@cashlens.app"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"support@cashlens.app"`
	DevDir               string `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`
}

// UsePostmark reports whether a Postmark server token is configured.
func (c Config) UsePostmark() bool {
	return c.PostmarkServerToken != ""
}
