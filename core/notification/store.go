package notification

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/quizadmin/core"
)

type (
	TemplateRepository interface {
		// GetTemplate returns ErrTemplateNotFound when no row matches exactly.
		GetTemplate(ctx context.Context, kind Kind, lang string) (Template, error)
		// UpsertTemplate inserts or replaces the (kind, language) row and bumps updated_at.
		UpsertTemplate(ctx context.Context, tmpl Template) (Template, error)
		// InsertTemplateIfMissing leaves an existing (kind, language) row untouched.
		InsertTemplateIfMissing(ctx context.Context, tmpl Template) (bool, error)
		QueryTemplates(ctx context.Context) ([]Template, error)
	}

	// TemplateCache is an advisory lookup cache; a miss always falls through to the repository.
	// Implementations must be safe for concurrent use and never return a partially written entry.
	TemplateCache interface {
		Get(ctx context.Context, kind Kind, lang string) (Template, bool)
		Set(ctx context.Context, tmpl Template)
		Delete(ctx context.Context, kind Kind, lang string)
		Clear(ctx context.Context)
	}

	TemplateStore struct {
		repo        TemplateRepository
		cache       TemplateCache // nil disables caching
		validate    *validator.Validate
		defaultLang string
		logger      core.Logger

		// fills hold the read lock across repo read and cache Set; writes hold the write lock
		// across repo write and cache Delete, so a fill never stores a row older than a finished write.
		fillMu sync.RWMutex
	}
)

func NewTemplateStore(
	repo TemplateRepository,
	cache TemplateCache,
	validate *validator.Validate,
	conf *core.Config,
	logger core.Logger,
) *TemplateStore {
	defaultLang := NormalizeLanguage(conf.DefaultLanguage)
	if defaultLang == "" {
		defaultLang = "en"
	}
	return &TemplateStore{
		repo:        repo,
		cache:       cache,
		validate:    validate,
		defaultLang: defaultLang,
		logger:      logger,
	}
}

// NormalizeLanguage lower-cases and trims a language code.
func NormalizeLanguage(lang string) string {
	return core.CleanString(lang, true /* lower */)
}

// DefaultLanguage is the language lookups fall back to.
func (st *TemplateStore) DefaultLanguage() string { return st.defaultLang }

func (st *TemplateStore) lookup(ctx context.Context, kind Kind, lang string) (Template, error) {
	if st.cache == nil {
		return st.repo.GetTemplate(ctx, kind, lang)
	}
	if tmpl, ok := st.cache.Get(ctx, kind, lang); ok {
		return tmpl, nil
	}

	st.fillMu.RLock()
	defer st.fillMu.RUnlock()
	tmpl, err := st.repo.GetTemplate(ctx, kind, lang)
	if err != nil {
		return Template{}, err
	}
	st.cache.Set(ctx, tmpl)
	return tmpl, nil
}

// Get returns the template for (kind, lang), falling back to the default language.
// Only exact matches are cached, each under its own key.
func (st *TemplateStore) Get(ctx context.Context, kind Kind, lang string) (Template, error) {
	lang = NormalizeLanguage(lang)
	if lang == "" {
		lang = st.defaultLang
	}

	tmpl, err := st.lookup(ctx, kind, lang)
	if err == nil {
		return tmpl, nil
	}
	if errors.Cause(err) != ErrTemplateNotFound {
		return Template{}, errors.Wrap(err, "getting template")
	}
	if lang != st.defaultLang {
		tmpl, err = st.lookup(ctx, kind, st.defaultLang)
		if err == nil {
			return tmpl, nil
		}
		if errors.Cause(err) != ErrTemplateNotFound {
			return Template{}, errors.Wrap(err, "getting default language template")
		}
	}
	return Template{}, errors.Wrap(ErrTemplateNotFound, fmt.Sprintf("%s/%s", kind, lang))
}

// Save creates or replaces the template for (kind, language) and invalidates that cache key only.
func (st *TemplateStore) Save(ctx context.Context, data SaveTemplate) (Template, error) {
	data.Kind = core.CleanString(data.Kind, true /* lower */)
	data.Language = NormalizeLanguage(data.Language)
	if err := st.validate.Struct(data); err != nil {
		return Template{}, err
	}

	st.fillMu.Lock()
	defer st.fillMu.Unlock()

	now := time.Now().UTC()
	tmpl, err := st.repo.UpsertTemplate(ctx, Template{
		Kind:      Kind(data.Kind),
		Language:  data.Language,
		Subject:   data.Subject,
		Body:      data.Body,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Template{}, errors.Wrap(err, "saving template")
	}
	if st.cache != nil {
		st.cache.Delete(ctx, tmpl.Kind, tmpl.Language)
	}
	return tmpl, nil
}

// Reset restores the built-in text of a (kind, language) pair.
func (st *TemplateStore) Reset(ctx context.Context, kind Kind, lang string) (Template, error) {
	lang = NormalizeLanguage(lang)
	def, ok := DefaultTemplate(kind, lang)
	if !ok {
		return Template{}, errors.Wrap(ErrTemplateNotFound, fmt.Sprintf("no built-in %s/%s", kind, lang))
	}
	return st.Save(ctx, SaveTemplate{
		Kind:     def.Kind.String(),
		Language: def.Language,
		Subject:  def.Subject,
		Body:     def.Body,
	})
}

// SeedDefaults inserts the built-in templates that are missing and returns how many were added.
func (st *TemplateStore) SeedDefaults(ctx context.Context) (int, error) {
	var added int
	st.fillMu.Lock()
	defer st.fillMu.Unlock()

	for _, def := range DefaultTemplates() {
		ok, err := st.repo.InsertTemplateIfMissing(ctx, def)
		if err != nil {
			return added, errors.Wrapf(err, "seeding template %s/%s", def.Kind, def.Language)
		}
		if ok {
			added++
			if st.cache != nil {
				st.cache.Delete(ctx, def.Kind, def.Language)
			}
		}
	}
	if added > 0 {
		st.logger.Info(fmt.Sprintf("seeded %d default email template(s)", added))
	}
	return added, nil
}

// List returns every stored template ordered by kind then language.
func (st *TemplateStore) List(ctx context.Context) ([]Template, error) {
	tmpls, err := st.repo.QueryTemplates(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing templates")
	}
	return tmpls, nil
}

// ClearCache drops every cached template.
func (st *TemplateStore) ClearCache(ctx context.Context) {
	if st.cache != nil {
		st.cache.Clear(ctx)
	}
}

// PlaceholderNames returns the names the renderer can substitute.
func (st *TemplateStore) PlaceholderNames() []string { return PlaceholderNames() }

// CacheKey identifies a (kind, language) pair in template caches.
func CacheKey(kind Kind, lang string) string {
	return strings.Join([]string{kind.String(), lang}, "_")
}
