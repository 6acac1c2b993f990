package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/quizadmin/core"
	"github.com/trezcool/quizadmin/core/user"
)

const userColumns = `id, username, email, password_hash, full_name, role, department, language_preference,
	is_active, password_change_required, created_at, last_login`

// userOrderings maps the sortable fields to their columns.
var userOrderings = map[string]string{
	"id":         "id",
	"username":   "username",
	"email":      "email",
	"full_name":  "full_name",
	"role":       "role",
	"is_active":  "is_active",
	"created_at": "created_at",
	"last_login": "last_login",
}

type (
	userRepository struct {
		exec core.DBExecutor
	}

	userRow struct {
		ID                     int         `db:"id"`
		Username               string      `db:"username"`
		Email                  string      `db:"email"`
		PasswordHash           string      `db:"password_hash"`
		FullName               string      `db:"full_name"`
		Role                   string      `db:"role"`
		Department             null.String `db:"department"`
		LanguagePreference     null.String `db:"language_preference"`
		IsActive               bool        `db:"is_active"`
		PasswordChangeRequired bool        `db:"password_change_required"`
		CreatedAt              time.Time   `db:"created_at"`
		LastLogin              null.Time   `db:"last_login"`
	}
)

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{exec: exec}
}

func (repo userRepository) boil(usr user.User) userRow {
	return userRow{
		ID:                     usr.ID,
		Username:               usr.Username,
		Email:                  usr.Email,
		PasswordHash:           string(usr.PasswordHash),
		FullName:               usr.FullName,
		Role:                   usr.Role,
		Department:             null.NewString(usr.Department, usr.Department != ""),
		LanguagePreference:     null.NewString(usr.LanguagePreference, usr.LanguagePreference != ""),
		IsActive:               usr.IsActive,
		PasswordChangeRequired: usr.PasswordChangeRequired,
		CreatedAt:              usr.CreatedAt.UTC(),
		LastLogin:              null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (repo userRepository) unboil(row userRow) user.User {
	return user.User{
		ID:                     row.ID,
		Username:               row.Username,
		Email:                  row.Email,
		PasswordHash:           []byte(row.PasswordHash),
		FullName:               row.FullName,
		Role:                   row.Role,
		Department:             row.Department.String,
		LanguagePreference:     row.LanguagePreference.String,
		IsActive:               row.IsActive,
		PasswordChangeRequired: row.PasswordChangeRequired,
		CreatedAt:              row.CreatedAt.UTC(),
		LastLogin:              row.LastLogin.Time.UTC(),
	}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	q := "SELECT EXISTS (SELECT 1 FROM users WHERE (username = ? OR email = ?)"
	args := []interface{}{username, email}
	if len(excludedUsers) > 0 {
		ids := make([]int, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		q += " AND id NOT IN (?)"
		args = append(args, ids)
	}
	q += ")"

	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	var exists bool
	if err = repo.exec.GetContext(ctx, &exists, repo.exec.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	if exists {
		return user.ErrUserExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.CreatedAt.IsZero() {
		usr.CreatedAt = time.Now().UTC()
	}
	q := `INSERT INTO users (username, email, password_hash, full_name, role, department, language_preference,
			is_active, password_change_required, created_at, last_login)
		VALUES (:username, :email, :password_hash, :full_name, :role, :department, :language_preference,
			:is_active, :password_change_required, :created_at, :last_login)
		RETURNING id`
	q, args, err := sqlx.Named(q, repo.boil(usr))
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	if err = repo.exec.GetContext(ctx, &usr.ID, repo.exec.Rebind(q), args...); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var (
		where string
		args  []interface{}
	)
	switch {
	case filter.ID != 0:
		where, args = "id = $1", []interface{}{filter.ID}
	case filter.Username != "":
		where, args = "username = $1", []interface{}{filter.Username}
	case filter.Email != "":
		where, args = "email = $1", []interface{}{filter.Email}
	case filter.UsernameOrEmail != "":
		where, args = "username = $1 OR email = $1", []interface{}{filter.UsernameOrEmail}
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	if err := repo.exec.GetContext(ctx, &row, "SELECT "+userColumns+" FROM users WHERE "+where+" LIMIT 1", args...); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user")
	}
	return repo.unboil(row), nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter != nil {
		// users with full name, username or email matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			conds = append(conds, "(full_name ILIKE ? OR username ILIKE ? OR email ILIKE ?)")
			args = append(args, val, val, val)
		}
		if len(filter.Roles) > 0 {
			conds = append(conds, "role IN (?)")
			args = append(args, filter.Roles)
		}
		if filter.IsActive != nil {
			conds = append(conds, "is_active = ?")
			args = append(args, *filter.IsActive)
		}
	}

	q := "SELECT " + userColumns + " FROM users"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}

	orderList := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		if col, ok := userOrderings[ord.Field]; ok {
			orderList = append(orderList, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
		}
	}
	if len(orderList) == 0 {
		orderList = append(orderList, "created_at DESC")
	}
	q += " ORDER BY " + strings.Join(orderList, ", ")

	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	var rows []userRow
	if err = repo.exec.SelectContext(ctx, &rows, repo.exec.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, repo.unboil(row))
	}
	return users, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `UPDATE users SET username = :username, email = :email, password_hash = :password_hash,
			full_name = :full_name, role = :role, department = :department,
			language_preference = :language_preference, is_active = :is_active,
			password_change_required = :password_change_required, last_login = :last_login
		WHERE id = :id`
	q, args, err := sqlx.Named(q, repo.boil(usr))
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	res, err := repo.exec.ExecContext(ctx, repo.exec.Rebind(q), args...)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	} else if n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}
