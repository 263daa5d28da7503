package email

// Config holds Postmark credentials and the sender identity used for all
// outbound notification emails. ReplyToEmail is optional; when empty the
// sender address doubles as the reply-to.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL,required"`
	ReplyToEmail         string `env:"REPLY_TO_EMAIL"`
}
