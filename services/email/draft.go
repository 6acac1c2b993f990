package emailsvc

import (
	"context"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/quizadmin/core"
)

type draftService struct {
	dir              string
	defaultFromEmail mail.Address
	logger           core.Logger
	now              func() time.Time
}

var _ core.EmailService = (*draftService)(nil)

// NewDraftService writes every message as an .eml file an operator can open in a mail client.
func NewDraftService(conf *core.Config, logger core.Logger) core.EmailService {
	return &draftService{
		dir:              conf.Mail.DraftDir,
		defaultFromEmail: conf.DefaultFromEmail,
		logger:           logger,
		now:              time.Now,
	}
}

func (svc *draftService) Name() string { return "draft" }

func (svc *draftService) Send(_ context.Context, msg *core.EmailMessage) error {
	ok, err := prepare(msg)
	if err != nil || !ok {
		return err
	}
	raw, err := rfc822(newMessage(svc.defaultFromEmail, "", msg))
	if err != nil {
		return err
	}

	if err = os.MkdirAll(svc.dir, 0o755); err != nil {
		return errors.Wrap(err, "creating drafts directory")
	}
	fname := fmt.Sprintf("exam_result_%s_%s.eml", svc.now().Format("20060102_150405"), uuid.NewString()[:8])
	fpath := filepath.Join(svc.dir, fname)
	if err = os.WriteFile(fpath, raw, 0o600); err != nil {
		return errors.Wrap(err, "writing email draft")
	}
	svc.logger.Info(fmt.Sprintf("email draft written to %s", fpath))
	return nil
}
