package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/juhe-dining/roster/backend/internal/domain"
)

// CreateAssignment 插入一条排班记录。
// (occurrence_id, user_id) 的唯一性由约束 staff_assignments_occurrence_id_user_id_key
// 保证，重复插入返回 domain.ErrDuplicateAssignment；班次已被删除时
// 外键约束会返回 domain.ErrOccurrenceNotFound。
func (r *Repository) CreateAssignment(a *domain.StaffAssignment) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO staff_assignments (occurrence_id, user_id, note, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, version
	`

	params := []any{a.OccurrenceID, a.UserID, a.Note, a.Status}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&a.ID, &a.CreatedAt, &a.Version); err != nil {
		return mapConstraintError(err)
	}

	return nil
}

func (r *Repository) GetAssignment(id int64) (*domain.StaffAssignment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, occurrence_id, user_id, note, status, created_at, version
		FROM staff_assignments
		WHERE id = $1
	`

	a := &domain.StaffAssignment{}
	dst := []any{&a.ID, &a.OccurrenceID, &a.UserID, &a.Note, &a.Status, &a.CreatedAt, &a.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return a, nil
}

func (r *Repository) DeleteAssignment(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		DELETE FROM staff_assignments WHERE id = $1
	`

	res, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (r *Repository) UpdateAssignmentStatus(a *domain.StaffAssignment) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		UPDATE staff_assignments
		SET
			status = $1,
			note = $2,
			version = version + 1
		WHERE id = $3 AND version = $4
		RETURNING version
	`

	params := []any{a.Status, a.Note, a.ID, a.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&a.Version); err != nil {
		return err
	}

	return nil
}

const assignmentViewSelect = `
	SELECT
		sa.id,
		sa.occurrence_id,
		sa.user_id,
		sa.note,
		sa.status,
		sa.created_at,
		sa.version,
		so.branch_id,
		to_char(so.date, 'YYYY-MM-DD'),
		so.start_time,
		so.end_time,
		u.position_id
	FROM staff_assignments sa
	JOIN shift_occurrences so ON sa.occurrence_id = so.id
	JOIN users u ON sa.user_id = u.id
`

func (r *Repository) scanAssignmentViews(rows *sql.Rows) ([]*domain.AssignmentView, error) {
	views := make([]*domain.AssignmentView, 0)

	for rows.Next() {
		view := &domain.AssignmentView{}
		dst := []any{
			&view.ID,
			&view.OccurrenceID,
			&view.UserID,
			&view.Note,
			&view.Status,
			&view.CreatedAt,
			&view.Version,
			&view.BranchID,
			&view.Date,
			&view.StartTime,
			&view.EndTime,
			&view.PositionID,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return views, nil
}

func (r *Repository) ListAssignmentsByOccurrence(occurrenceID int64) ([]*domain.AssignmentView, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := assignmentViewSelect + `
		WHERE sa.occurrence_id = $1
		ORDER BY sa.id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, occurrenceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanAssignmentViews(rows)
}

func (r *Repository) ListAssignmentsForUserOnDate(userID int64, date string) ([]*domain.AssignmentView, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := assignmentViewSelect + `
		WHERE sa.user_id = $1 AND so.date = $2
		ORDER BY sa.id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, userID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanAssignmentViews(rows)
}

func (r *Repository) ListAssignmentViews(branchID int64, startDate, endDate string) ([]*domain.AssignmentView, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := assignmentViewSelect + `
		WHERE so.branch_id = $1 AND so.date BETWEEN $2 AND $3
		ORDER BY so.date, sa.id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, branchID, startDate, endDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanAssignmentViews(rows)
}

func (r *Repository) ListAssignmentsForUserInRange(userID int64, startDate, endDate string) ([]*domain.AssignmentView, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := assignmentViewSelect + `
		WHERE sa.user_id = $1 AND so.date BETWEEN $2 AND $3
		ORDER BY so.date, sa.id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, userID, startDate, endDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanAssignmentViews(rows)
}
