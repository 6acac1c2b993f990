package notification

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/quizadmin/core"
)

type (
	SessionRepository interface {
		// FetchSnapshot returns ErrSessionNotFound when the session does not exist.
		FetchSnapshot(ctx context.Context, sessionID int) (Snapshot, error)
		MarkEmailSent(ctx context.Context, sessionID int) error
	}

	// Recorder receives notification metrics.
	Recorder interface {
		NotificationComposed(kind Kind)
		NotificationDelivered(backend string)
		DispatchFailed(reason string)
	}

	Composer struct {
		sessions SessionRepository
		store    *TemplateStore
		recorder Recorder
	}
)

type nopRecorder struct{}

func (nopRecorder) NotificationComposed(Kind)    {}
func (nopRecorder) NotificationDelivered(string) {}
func (nopRecorder) DispatchFailed(string)        {}

func NewComposer(sessions SessionRepository, store *TemplateStore, recorder Recorder) *Composer {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Composer{sessions: sessions, store: store, recorder: recorder}
}

// Compose renders the notification a session calls for, in override if set, else in preferredLang.
// When both are empty the recipient's own language preference is used.
// Composing never writes anything: logging a delivery is the caller's job.
func (c *Composer) Compose(ctx context.Context, sessionID int, preferredLang, override string) (Notification, error) {
	lang := NormalizeLanguage(override)
	if lang == "" {
		lang = NormalizeLanguage(preferredLang)
	}

	snap, err := c.sessions.FetchSnapshot(ctx, sessionID)
	if err != nil {
		if errors.Cause(err) == ErrSessionNotFound {
			return Notification{}, errors.Wrap(ErrSessionNotFound, fmt.Sprintf("session %d", sessionID))
		}
		return Notification{}, errors.Wrap(err, "fetching session snapshot")
	}
	if lang == "" {
		lang = NormalizeLanguage(snap.Language)
	}

	kind := Classify(snap)
	tmpl, err := c.store.Get(ctx, kind, lang)
	if err != nil {
		return Notification{}, err
	}

	placeholders := BuildPlaceholders(snap)
	n := Notification{
		SessionID:     snap.SessionID,
		Recipient:     snap.Email,
		RecipientName: snap.FullName,
		Kind:          kind,
		Language:      lang,
		Subject:       Render(tmpl.Subject, placeholders),
		Body:          Render(tmpl.Body, placeholders),
	}
	c.recorder.NotificationComposed(kind)
	return n, nil
}

// ValidRecipient does a minimal structural check on an email address.
func ValidRecipient(email string) bool {
	return core.IsValidRecipient(email)
}

// CheckRecipient returns ErrInvalidRecipient when the notification cannot be delivered as addressed.
func CheckRecipient(n Notification) error {
	if !ValidRecipient(n.Recipient) {
		return errors.Wrap(ErrInvalidRecipient, fmt.Sprintf("%q", n.Recipient))
	}
	return nil
}
