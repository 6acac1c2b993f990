package notification

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/quizadmin/core"
)

// dispatch failure reasons
const (
	ReasonInvalidRequest   = "invalid_request"
	ReasonCompose          = "compose"
	ReasonInvalidRecipient = "invalid_recipient"
	ReasonDelivery         = "delivery"
	ReasonLog              = "log"
)

type (
	LogRepository interface {
		AppendLog(ctx context.Context, entry LogEntry) (LogEntry, error)
		// QueryLog returns a session's entries newest first, with the sender's name.
		QueryLog(ctx context.Context, sessionID int) ([]LogEntry, error)
	}

	Dispatcher struct {
		composer *Composer
		sessions SessionRepository
		logs     LogRepository
		mailer   core.EmailService
		validate *validator.Validate
		from     mail.Address
		recorder Recorder
		logger   core.Logger
	}
)

func NewDispatcher(
	composer *Composer,
	sessions SessionRepository,
	logs LogRepository,
	mailer core.EmailService,
	validate *validator.Validate,
	conf *core.Config,
	recorder Recorder,
	logger core.Logger,
) *Dispatcher {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Dispatcher{
		composer: composer,
		sessions: sessions,
		logs:     logs,
		mailer:   mailer,
		validate: validate,
		from:     conf.DefaultFromEmail,
		recorder: recorder,
		logger:   logger,
	}
}

// Send composes a session's notification, delivers it, then records it in the log
// and flags the session as emailed. Nothing is logged unless delivery succeeded.
func (d *Dispatcher) Send(ctx context.Context, req DraftRequest) (Notification, LogEntry, error) {
	if err := d.validate.Struct(req); err != nil {
		d.recorder.DispatchFailed(ReasonInvalidRequest)
		return Notification{}, LogEntry{}, err
	}

	n, err := d.composer.Compose(ctx, req.SessionID, req.Language, req.Override)
	if err != nil {
		d.recorder.DispatchFailed(ReasonCompose)
		return Notification{}, LogEntry{}, err
	}
	if err = CheckRecipient(n); err != nil {
		d.recorder.DispatchFailed(ReasonInvalidRecipient)
		return n, LogEntry{}, err
	}

	msg := &core.EmailMessage{
		From:    d.from,
		To:      []mail.Address{{Name: n.RecipientName, Address: n.Recipient}},
		Cc:      core.ParseAddresses(req.Cc...),
		Bcc:     core.ParseAddresses(req.Bcc...),
		Subject: n.Subject,
		BodyStr: n.Body,
	}
	if err = msg.Render(); err != nil {
		d.recorder.DispatchFailed(ReasonDelivery)
		return n, LogEntry{}, errors.Wrap(err, "rendering email")
	}
	if err = d.mailer.Send(ctx, msg); err != nil {
		d.recorder.DispatchFailed(ReasonDelivery)
		return n, LogEntry{}, errors.Wrapf(err, "sending email via %s", d.mailer.Name())
	}
	d.recorder.NotificationDelivered(d.mailer.Name())

	entry, err := d.logs.AppendLog(ctx, LogEntry{
		SessionID:      n.SessionID,
		RecipientEmail: n.Recipient,
		RecipientName:  n.RecipientName,
		SentBy:         req.SentBy,
		Kind:           n.Kind,
		Language:       n.Language,
		SentAt:         time.Now().UTC(),
	})
	if err != nil {
		d.recorder.DispatchFailed(ReasonLog)
		return n, LogEntry{}, errors.Wrap(err, "logging notification")
	}
	if err = d.sessions.MarkEmailSent(ctx, n.SessionID); err != nil {
		// already delivered and logged: report only
		d.logger.Error(fmt.Sprintf("marking session %d as emailed: %v", n.SessionID, err), err)
	}
	return n, entry, nil
}

// History returns the notifications sent for a session, newest first.
func (d *Dispatcher) History(ctx context.Context, sessionID int) ([]LogEntry, error) {
	entries, err := d.logs.QueryLog(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "querying notification log")
	}
	return entries, nil
}
