package testutil

import (
	"context"
	"net/mail"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap/zaptest"

	"github.com/trezcool/quizadmin/core"
	"github.com/trezcool/quizadmin/core/user"
	"github.com/trezcool/quizadmin/services/logger"
)

// NewConfig returns a TEST mode config that never touches the network.
func NewConfig() *core.Config {
	return &core.Config{
		Env:                "TEST",
		TestMode:           true,
		AppName:            "Quiz Examination System",
		SecretKey:          "test-secret",
		DefaultLanguage:    "en",
		DefaultFromEmail:   mail.Address{Name: "HR Department", Address: "noreply@test.co"},
		JWTExpirationDelta: time.Hour,
		TemplateCache:      core.TemplateCacheConfig{Backend: "memory", TTL: time.Minute},
		Mail:               core.MailConfig{Backend: "console", Retries: 1},

		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		FrontendBaseURL:           "http://localhost:3000",
	}
}

// NewLogger returns a core.Logger writing to the test output, with rollbar disabled.
func NewLogger(t *testing.T) core.Logger {
	l := logsvc.NewRollbarLogger(zaptest.NewLogger(t), NewConfig())
	l.Enable(false)
	return l
}

// NewValidator returns a validator with every custom tag registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		FullName:  name,
		Username:  uname,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}
