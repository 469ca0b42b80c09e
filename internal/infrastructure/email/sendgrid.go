package email

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

const (
	// DefaultSendGridHost is the public SendGrid API
	DefaultSendGridHost = "https://api.sendgrid.com"
	sendGridEndpoint    = "/v3/mail/send"
)

// SendGridSender sends mail through the SendGrid v3 API
type SendGridSender struct {
	key        string
	host       string
	from       *sgmail.Email
	subjPrefix string
	logger     *zap.Logger
}

// NewSendGridSender creates a sender. An empty host uses DefaultSendGridHost.
func NewSendGridSender(key, host, appName, fromName, fromAddress string, logger *zap.Logger) *SendGridSender {
	if host == "" {
		host = DefaultSendGridHost
	}
	if fromName == "" {
		fromName = appName
	}
	return &SendGridSender{
		key:        key,
		host:       host,
		from:       sgmail.NewEmail(fromName, fromAddress),
		subjPrefix: "[" + appName + "] ",
		logger:     logger,
	}
}

// Send posts msg and fails on any 4xx/5xx response
func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	req := sendgrid.GetRequest(s.key, sendGridEndpoint, s.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.prepare(msg))

	res, err := sendgrid.MakeRequestRetryWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		s.logger.Error("SendGrid rejected email",
			zap.Int("status", res.StatusCode),
			zap.String("body", res.Body),
		)
		return fmt.Errorf("sendgrid responded with status %d", res.StatusCode)
	}

	s.logger.Debug("Email sent", zap.String("subject", msg.Subject))
	return nil
}

func (s *SendGridSender) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = s.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.ToAddress))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(
		sgmail.NewContent("text/plain", msg.Text),
		sgmail.NewContent("text/html", msg.HTML),
	)
	return m
}

var _ Sender = (*SendGridSender)(nil)
