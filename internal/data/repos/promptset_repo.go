package repos

import (
	"gorm.io/gorm"

	"github.com/chaptered/core/internal/domain"
	"github.com/chaptered/core/internal/pkg/dbctx"
	"github.com/chaptered/core/internal/pkg/logger"
)

// PromptSetRepo is read-only: rows are seeded once by the migration (see
// db.seedPromptSets) and nothing in this service writes to the table at runtime.
type PromptSetRepo interface {
	ListPromptSets(dbc dbctx.Context) ([]domain.PromptSet, error)
	ListPromptSetsForKind(dbc dbctx.Context, kind domain.ResourceKind) ([]domain.PromptSet, error)
}

type promptSetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPromptSetRepo(db *gorm.DB, log *logger.Logger) PromptSetRepo {
	return &promptSetRepo{db: db, log: log.With("repo", "PromptSetRepo")}
}

func (r *promptSetRepo) ListPromptSets(dbc dbctx.Context) ([]domain.PromptSet, error) {
	var out []domain.PromptSet
	err := tx(dbc, r.db).Order("content_kind ASC, field_name ASC").Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *promptSetRepo) ListPromptSetsForKind(dbc dbctx.Context, kind domain.ResourceKind) ([]domain.PromptSet, error) {
	var out []domain.PromptSet
	err := tx(dbc, r.db).Where("content_kind = ?", kind).Order("field_name ASC").Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
