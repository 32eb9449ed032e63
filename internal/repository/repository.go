package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/juhe-dining/roster/backend/internal/config"
	"github.com/juhe-dining/roster/backend/internal/domain"
)

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}

// mapConstraintError 把核心表上的唯一约束和外键约束冲突翻译成 domain 错误。
// 唯一性必须靠数据库约束在插入时原子保证，先查后插会在并发下产生重复记录。
func mapConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.ConstraintName {
	case "shift_occurrences_template_branch_date_key":
		return domain.ErrDuplicateOccurrence
	case "staff_assignments_occurrence_id_user_id_key":
		return domain.ErrDuplicateAssignment
	case "staff_assignments_occurrence_id_fkey":
		return domain.ErrOccurrenceNotFound
	}
	return err
}
