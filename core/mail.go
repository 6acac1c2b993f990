package core

import (
	"bytes"
	"context"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"

	appfs "github.com/trezcool/quizadmin/fs"
)

const emailTemplatesDir = "assets/templates/email"

var (
	templates   map[string]*texttmpl.Template // {name: *Template}
	templateErr error
	tmplInit    sync.Once
)

type (
	EmailMessage struct {
		From    mail.Address
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
	}

	// EmailService is any service that can deliver emails.
	EmailService interface {
		Send(ctx context.Context, msg *EmailMessage) error
		// Name identifies the backend in logs and metrics.
		Name() string
	}
)

// Render fills TextContent from BodyStr or from the named embedded text template.
func (m *EmailMessage) Render() error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	} else if m.TemplateName == "" {
		return nil
	}

	tmplInit.Do(parseTemplates)
	if templateErr != nil {
		return templateErr
	}
	tmpl, ok := templates[m.TemplateName]
	if !ok {
		return errors.Errorf("email template %q not found", m.TemplateName)
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, m.TemplateData); err != nil {
		return errors.Wrapf(err, "rendering email template %q", m.TemplateName)
	}
	m.TextContent = buff.String()
	return nil
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return m.TextContent != "" }

// Recipients returns every To, Cc and Bcc address.
func (m *EmailMessage) Recipients() []string {
	rcpts := make([]string, 0, len(m.To)+len(m.Cc)+len(m.Bcc))
	for _, lst := range [][]mail.Address{m.To, m.Cc, m.Bcc} {
		for _, addr := range lst {
			rcpts = append(rcpts, addr.Address)
		}
	}
	return rcpts
}

// AddressList formats addresses for a mail header.
func AddressList(addrs []mail.Address) string {
	strs := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		strs = append(strs, addr.String())
	}
	return strings.Join(strs, ", ")
}

// ParseAddresses converts plain email strings into mail addresses, skipping empty ones.
func ParseAddresses(emails ...string) []mail.Address {
	addrs := make([]mail.Address, 0, len(emails))
	for _, email := range emails {
		if email = strings.TrimSpace(email); email != "" {
			addrs = append(addrs, mail.Address{Address: email})
		}
	}
	return addrs
}

func parseTemplates() {
	templates = make(map[string]*texttmpl.Template)

	fps, err := appfs.FS.ReadDir(emailTemplatesDir)
	if err != nil {
		templateErr = errors.Wrap(err, "reading email templates")
		return
	}
	for _, fp := range fps {
		fname := fp.Name()
		if strings.HasPrefix(fname, "_") || path.Ext(fname) != ".txt" {
			continue
		}
		tmpl, err := texttmpl.ParseFS(appfs.FS, path.Join(emailTemplatesDir, fname))
		if err != nil {
			templateErr = errors.Wrapf(err, "parsing email template %q", fname)
			return
		}
		templates[strings.TrimSuffix(fname, ".txt")] = tmpl.Option("missingkey=error")
	}
}
