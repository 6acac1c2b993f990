package emailsvc

import (
	"bytes"
	"net/mail"
	"time"

	gomail "github.com/go-mail/mail/v2"
	"github.com/pkg/errors"

	"github.com/trezcool/quizadmin/core"
)

// newMessage converts a rendered EmailMessage into a go-mail message.
func newMessage(from mail.Address, subjPrefix string, msg *core.EmailMessage) *gomail.Message {
	m := gomail.NewMessage()
	if msg.From.Address != "" {
		from = msg.From
	}
	m.SetAddressHeader("From", from.Address, from.Name)
	m.SetHeader("To", formatAddresses(m, msg.To)...)
	if len(msg.Cc) > 0 {
		m.SetHeader("Cc", formatAddresses(m, msg.Cc)...)
	}
	if len(msg.Bcc) > 0 {
		m.SetHeader("Bcc", formatAddresses(m, msg.Bcc)...)
	}
	m.SetHeader("Subject", subjPrefix+msg.Subject)
	m.SetDateHeader("Date", time.Now())
	m.SetBody("text/plain", msg.TextContent)
	return m
}

func formatAddresses(m *gomail.Message, addrs []mail.Address) []string {
	strs := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		strs = append(strs, m.FormatAddress(addr.Address, addr.Name))
	}
	return strs
}

// rfc822 returns the internet-mail-format rendition of a message.
func rfc822(m *gomail.Message) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, "writing message")
	}
	return buf.Bytes(), nil
}

// prepare renders msg and reports whether there is anything to send.
func prepare(msg *core.EmailMessage) (bool, error) {
	if err := msg.Render(); err != nil {
		return false, errors.Wrap(err, "rendering email")
	}
	return msg.HasRecipients() && msg.HasContent(), nil
}

func addressStrings(addrs []mail.Address) []string {
	if len(addrs) == 0 {
		return nil
	}
	strs := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		strs = append(strs, addr.String())
	}
	return strs
}
