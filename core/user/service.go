package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/quizadmin/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrUserExists         = errors.New("a user with this username or email already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrInvalidResetLink   = errors.New("invalid or expired password reset link")
)

type (
	Repository interface {
		// CheckUsernameUniqueness returns ErrUserExists when the username or email is taken by another user.
		CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		// GetUser returns ErrNotFound when no user matches.
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	Service struct {
		repo       Repository
		mailSvc    core.EmailService
		validate   *validator.Validate
		translator ut.Translator
		conf       *core.Config
		logger     core.Logger
		tokens     tokenGenerator
	}
)

func NewService(
	repo Repository,
	mailSvc core.EmailService,
	validate *validator.Validate,
	translator ut.Translator,
	conf *core.Config,
	logger core.Logger,
) *Service {
	return &Service{
		repo:       repo,
		mailSvc:    mailSvc,
		validate:   validate,
		translator: translator,
		conf:       conf,
		logger:     logger,
		tokens:     newTokenGenerator(conf),
	}
}

func (svc *Service) checkUniqueness(ctx context.Context, uname, email string, exclUsers ...User) error {
	if err := svc.repo.CheckUsernameUniqueness(ctx, uname, email, exclUsers...); err != nil {
		if err == ErrUserExists {
			return core.NewValidationError(err,
				core.FieldError{Field: "username", Error: err.Error()},
				core.FieldError{Field: "email", Error: err.Error()},
			)
		}
		return err
	}
	return nil
}

// Create validates nu and stores a new active user.
func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	nu.Clean()
	if err := svc.validate.Struct(nu); err != nil {
		return User{}, err
	}
	if err := svc.checkUniqueness(ctx, nu.Username, nu.Email); err != nil {
		return User{}, err
	}

	usr := User{
		Username:           nu.Username,
		Email:              nu.Email,
		FullName:           nu.FullName,
		Role:               nu.Role,
		Department:         nu.Department,
		LanguagePreference: nu.Language,
		IsActive:           true,
		CreatedAt:          time.Now().UTC(),
	}
	if usr.LanguagePreference == "" {
		usr.LanguagePreference = svc.conf.DefaultLanguage
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}

// CreateWithTemporaryPassword creates a user that must change the generated password on first login,
// and mails them their credentials.
func (svc *Service) CreateWithTemporaryPassword(ctx context.Context, nu NewUser) (User, string, error) {
	pwd, err := GenerateTemporaryPassword()
	if err != nil {
		return User{}, "", err
	}
	// a random password can still look like the username; regenerate a few times
	for i := 0; i < 5 && checkPassword(pwd, nu.FullName, nu.Username, nu.Email) != ""; i++ {
		if pwd, err = GenerateTemporaryPassword(); err != nil {
			return User{}, "", err
		}
	}
	nu.Password, nu.PasswordConfirm = pwd, pwd

	usr, err := svc.Create(ctx, nu)
	if err != nil {
		return User{}, "", err
	}
	usr.PasswordChangeRequired = true
	if usr, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return User{}, "", err
	}

	svc.sendCredentialsMail(ctx, usr, pwd)
	return usr, pwd, nil
}

func (svc *Service) sendCredentialsMail(ctx context.Context, usr User, pwd string) {
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: usr.FullName, Address: usr.Email}},
		Subject:      "Your New Account Credentials - " + svc.conf.AppName,
		TemplateName: "new_account",
		TemplateData: map[string]string{
			"FullName": usr.FullName,
			"Username": usr.Username,
			"Password": pwd,
			"AppName":  svc.conf.AppName,
		},
	}
	if err := svc.mailSvc.Send(ctx, msg); err != nil {
		svc.logger.Error(fmt.Sprintf("sending credentials email to %s: %v", usr.Email, err), err, usr)
	}
}

// Authenticate checks the credentials of an active user and records the login time.
func (svc *Service) Authenticate(ctx context.Context, username, pwd string) (User, error) {
	usr, err := svc.repo.GetUser(ctx, GetFilter{UsernameOrEmail: core.CleanString(username, true /* lower */)})
	if err != nil {
		if err == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if !usr.IsActive || usr.CheckPassword(pwd) != nil {
		return User{}, ErrInvalidCredentials
	}

	usr.LastLogin = time.Now().UTC()
	if usr, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return User{}, err
	}
	return usr, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{UsernameOrEmail: core.CleanString(uname, true /* lower */)})
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]User, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryUsers(ctx, filter, ordering)
}

// ChangePassword replaces the password of user id after checking the current one.
func (svc *Service) ChangePassword(ctx context.Context, id int, cp ChangePassword) (User, error) {
	if err := svc.validate.Struct(cp); err != nil {
		return User{}, err
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if usr.CheckPassword(cp.CurrentPassword) != nil {
		return User{}, core.NewValidationError(ErrWrongPassword,
			core.FieldError{Field: "current_password", Error: ErrWrongPassword.Error()})
	}
	return svc.SetPassword(ctx, usr, cp.Password, false)
}

// SetPassword applies the password policy and stores the new password.
// mustChange forces a change at next login (admin resets).
func (svc *Service) SetPassword(ctx context.Context, usr User, pwd string, mustChange bool) (User, error) {
	if err := ValidatePassword(svc.validate, svc.translator, pwd, usr); err != nil {
		return User{}, err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, err
	}
	usr.PasswordChangeRequired = mustChange
	return svc.repo.UpdateUser(ctx, usr)
}

// MakeResetToken returns a password reset token for usr, valid until usr logs in or changes password.
func (svc *Service) MakeResetToken(usr User) string {
	return svc.tokens.makeToken(usr)
}

// RequestPasswordReset mails a one-time reset link to the active user owning email.
// Unknown and inactive accounts get ErrNotFound.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrNotFound
	}

	link := fmt.Sprintf("%s/password-reset/%s/%s", svc.conf.FrontendBaseURL, EncodeUID(usr), svc.tokens.makeToken(usr))
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: usr.FullName, Address: usr.Email}},
		Subject:      "Password Reset - " + svc.conf.AppName,
		TemplateName: "password_reset",
		TemplateData: map[string]string{
			"FullName":  usr.FullName,
			"Username":  usr.Username,
			"ResetURL":  link,
			"ValidDays": strconv.Itoa(svc.tokens.timeoutDay),
			"AppName":   svc.conf.AppName,
		},
	}
	return svc.mailSvc.Send(ctx, msg)
}

// ResetPassword sets the password of the user a reset link was made for.
// A bad link is reported as a validation error on the "uid" or "token" field.
func (svc *Service) ResetPassword(ctx context.Context, rp ResetPassword) (User, error) {
	if err := svc.validate.Struct(rp); err != nil {
		return User{}, err
	}
	invalid := func(field string) error {
		return core.NewValidationError(ErrInvalidResetLink, core.FieldError{Field: field, Error: "invalid value"})
	}

	id, err := decodeUID(rp.UID)
	if err != nil {
		return User{}, invalid("uid")
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return User{}, invalid("uid")
		}
		return User{}, err
	}
	if !usr.IsActive {
		return User{}, invalid("uid")
	}
	if err := svc.tokens.verifyToken(usr, rp.Token); err != nil {
		return User{}, invalid("token")
	}
	return svc.SetPassword(ctx, usr, rp.Password, false)
}

// SetLanguage changes the language preference of user id.
func (svc *Service) SetLanguage(ctx context.Context, id int, sl SetLanguage) (User, error) {
	sl.Language = core.CleanString(sl.Language, true /* lower */)
	if err := svc.validate.Struct(sl); err != nil {
		return User{}, err
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	usr.LanguagePreference = sl.Language
	return svc.repo.UpdateUser(ctx, usr)
}

// CanSendNotifications reports whether usr may compose and send result notifications.
func CanSendNotifications(usr User) bool {
	return usr.IsActive && (usr.IsAdmin() || usr.IsExpert())
}

// CanEditTemplates reports whether usr may change notification templates.
func CanEditTemplates(usr User) bool {
	return usr.IsActive && usr.IsAdmin()
}
