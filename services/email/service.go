package emailsvc

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/quizadmin/core"
)

// NewService returns the delivery backend selected by conf.Mail.Backend.
func NewService(ctx context.Context, conf *core.Config, logger core.Logger) (core.EmailService, error) {
	switch conf.Mail.Backend {
	case "", "console":
		return NewConsoleService(conf, logger), nil
	case "smtp":
		return NewSMTPService(conf, logger), nil
	case "sendgrid":
		return NewSendgridService(conf, logger), nil
	case "ses":
		return NewSESService(ctx, conf, logger)
	case "draft":
		return NewDraftService(conf, logger), nil
	}
	return nil, errors.Errorf("unknown mail backend %q", conf.Mail.Backend)
}
