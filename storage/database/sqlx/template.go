package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/quizadmin/core"
	"github.com/trezcool/quizadmin/core/notification"
)

const templateColumns = "id, template_type, language, subject, body_template, created_at, updated_at"

type (
	templateRepository struct {
		exec core.DBExecutor
	}

	templateRow struct {
		ID        int       `db:"id"`
		Kind      string    `db:"template_type"`
		Language  string    `db:"language"`
		Subject   string    `db:"subject"`
		Body      string    `db:"body_template"`
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}
)

var _ notification.TemplateRepository = (*templateRepository)(nil) // interface compliance check

func NewTemplateRepository(exec core.DBExecutor) *templateRepository {
	return &templateRepository{exec: exec}
}

func (row templateRow) template() notification.Template {
	return notification.Template{
		ID:        row.ID,
		Kind:      notification.Kind(row.Kind),
		Language:  row.Language,
		Subject:   row.Subject,
		Body:      row.Body,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

func (repo templateRepository) GetTemplate(ctx context.Context, kind notification.Kind, lang string) (notification.Template, error) {
	var row templateRow
	q := "SELECT " + templateColumns + " FROM email_templates WHERE template_type = $1 AND language = $2"
	if err := repo.exec.GetContext(ctx, &row, q, kind.String(), lang); err != nil {
		if err == sql.ErrNoRows {
			return notification.Template{}, notification.ErrTemplateNotFound
		}
		return notification.Template{}, errors.Wrap(err, "finding template")
	}
	return row.template(), nil
}

func (repo templateRepository) UpsertTemplate(ctx context.Context, tmpl notification.Template) (notification.Template, error) {
	var row templateRow
	q := `INSERT INTO email_templates (template_type, language, subject, body_template)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (template_type, language)
		DO UPDATE SET subject = EXCLUDED.subject, body_template = EXCLUDED.body_template,
			updated_at = (now() AT TIME ZONE 'utc')
		RETURNING ` + templateColumns
	if err := repo.exec.GetContext(ctx, &row, q, tmpl.Kind.String(), tmpl.Language, tmpl.Subject, tmpl.Body); err != nil {
		return notification.Template{}, errors.Wrap(err, "upserting template")
	}
	return row.template(), nil
}

func (repo templateRepository) InsertTemplateIfMissing(ctx context.Context, tmpl notification.Template) (bool, error) {
	q := `INSERT INTO email_templates (template_type, language, subject, body_template)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (template_type, language) DO NOTHING`
	res, err := repo.exec.ExecContext(ctx, q, tmpl.Kind.String(), tmpl.Language, tmpl.Subject, tmpl.Body)
	if err != nil {
		return false, errors.Wrap(err, "inserting template")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "inserting template")
	}
	return n > 0, nil
}

func (repo templateRepository) QueryTemplates(ctx context.Context) ([]notification.Template, error) {
	var rows []templateRow
	q := "SELECT " + templateColumns + " FROM email_templates ORDER BY template_type, language"
	if err := repo.exec.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying templates")
	}
	tmpls := make([]notification.Template, 0, len(rows))
	for _, row := range rows {
		tmpls = append(tmpls, row.template())
	}
	return tmpls, nil
}
