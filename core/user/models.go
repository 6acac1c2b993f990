package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/quizadmin/core"
)

// Roles
const (
	RoleAdmin    = "admin"
	RoleExpert   = "expert"
	RoleExaminee = "examinee"
)

var (
	AllRoles = []string{RoleAdmin, RoleExpert, RoleExaminee}

	rolePriorities = map[string]int{
		RoleAdmin:    30,
		RoleExpert:   20,
		RoleExaminee: 10,
	}

	Roles = []Role{
		{Name: "Examinee", Value: RoleExaminee},
		{Name: "Expert", Value: RoleExpert},
		{Name: "Admin", Value: RoleAdmin},
	}
)

func RolePriority(role string) int {
	return rolePriorities[role]
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID                     int       `json:"id"`
	Username               string    `json:"username"`
	Email                  string    `json:"email"`
	FullName               string    `json:"full_name"`
	Role                   string    `json:"role"`
	Department             string    `json:"department,omitempty"`
	LanguagePreference     string    `json:"language_preference"`
	IsActive               bool      `json:"is_active"`
	PasswordChangeRequired bool      `json:"password_change_required"`
	PasswordHash           []byte    `json:"-"`
	CreatedAt              time.Time `json:"created_at"` // UTC
	LastLogin              time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool    { return u.Role == RoleAdmin }
func (u *User) IsExpert() bool   { return u.Role == RoleExpert }
func (u *User) IsExaminee() bool { return u.Role == RoleExaminee }

// Language returns the user's preferred language, "en" when unset.
func (u *User) Language() string {
	if u.LanguagePreference == "" {
		return "en"
	}
	return u.LanguagePreference
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	FullName        string `json:"full_name" validate:"required"`
	Username        string `json:"username" validate:"required,min=3,alphanum_"`
	Email           string `json:"email" validate:"required,email"`
	Role            string `json:"role" validate:"required,userrole"`
	Department      string `json:"department"`
	Language        string `json:"language" validate:"omitempty,min=2,max=8,alpha"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Clean() {
	nu.FullName = core.CleanString(nu.FullName)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
	nu.Department = core.CleanString(nu.Department)
	nu.Language = core.CleanString(nu.Language, true /* lower */)
}

// ChangePassword is what a user submits to replace their own password.
type ChangePassword struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

// ResetPassword is submitted from a password reset link.
type ResetPassword struct {
	UID             string `json:"uid" validate:"required"`
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

// SetLanguage changes the language result notifications are sent in.
type SetLanguage struct {
	Language string `json:"language" validate:"required,min=2,max=8,alpha"`
}

type LoginUser struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// GetFilter selects a single user; the first non-empty field wins.
type GetFilter struct {
	ID              int
	Username        string
	Email           string
	UsernameOrEmail string
}

type QueryFilter struct {
	Search   string   `query:"search"`
	Roles    []string `query:"role"`
	IsActive *bool    `query:"is_active"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.IsActive == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
