package emailsvc

import (
	"context"
	"crypto/tls"
	"net/mail"

	gomail "github.com/go-mail/mail/v2"
	"github.com/pkg/errors"

	"github.com/trezcool/quizadmin/core"
)

type smtpService struct {
	dialer           *gomail.Dialer
	defaultFromEmail mail.Address
	subjPrefix       string
	conf             core.MailConfig
	logger           core.Logger
}

var _ core.EmailService = (*smtpService)(nil)

func NewSMTPService(conf *core.Config, logger core.Logger) core.EmailService {
	d := gomail.NewDialer(conf.Mail.SMTPHost, conf.Mail.SMTPPort, conf.Mail.SMTPUser, conf.Mail.SMTPPassword)
	d.StartTLSPolicy = gomail.OpportunisticStartTLS
	d.TLSConfig = &tls.Config{ServerName: conf.Mail.SMTPHost}
	return &smtpService{
		dialer:           d,
		defaultFromEmail: conf.DefaultFromEmail,
		subjPrefix:       "[" + conf.AppName + "] ",
		conf:             conf.Mail,
		logger:           logger,
	}
}

func (svc *smtpService) Name() string { return "smtp" }

func (svc *smtpService) Send(ctx context.Context, msg *core.EmailMessage) error {
	ok, err := prepare(msg)
	if err != nil || !ok {
		return err
	}
	m := newMessage(svc.defaultFromEmail, svc.subjPrefix, msg)
	return withRetry(ctx, svc.conf, svc.logger, svc.Name(), func() error {
		if err := svc.dialer.DialAndSend(m); err != nil {
			return errors.Wrap(err, "smtp send")
		}
		return nil
	})
}
