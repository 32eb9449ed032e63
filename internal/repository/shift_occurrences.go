package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/juhe-dining/roster/backend/internal/domain"
)

const shiftOccurrenceSelect = `
	SELECT
		so.id,
		so.template_id,
		so.branch_id,
		to_char(so.date, 'YYYY-MM-DD'),
		so.start_time,
		so.end_time,
		so.created_at,
		so.version,
		sor.position_id,
		sor.quantity
	FROM shift_occurrences so
	LEFT JOIN shift_occurrence_requirements sor ON so.id = sor.occurrence_id
`

func (r *Repository) scanShiftOccurrences(rows *sql.Rows) ([]*domain.ShiftOccurrence, error) {
	occurrencesMap := make(map[int64]*domain.ShiftOccurrence)
	order := make([]int64, 0)

	for rows.Next() {
		var row struct {
			ID         int64
			TemplateID sql.NullInt64
			BranchID   int64
			Date       string
			StartTime  string
			EndTime    string
			CreatedAt  time.Time
			Version    int32

			PositionID sql.NullInt64
			Quantity   sql.NullInt32
		}

		dst := []any{
			&row.ID,
			&row.TemplateID,
			&row.BranchID,
			&row.Date,
			&row.StartTime,
			&row.EndTime,
			&row.CreatedAt,
			&row.Version,
			&row.PositionID,
			&row.Quantity,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		occ, exists := occurrencesMap[row.ID]
		if !exists {
			occ = &domain.ShiftOccurrence{
				ID:           row.ID,
				BranchID:     row.BranchID,
				Date:         row.Date,
				StartTime:    row.StartTime,
				EndTime:      row.EndTime,
				Requirements: make([]domain.PositionRequirement, 0),
				CreatedAt:    row.CreatedAt,
				Version:      row.Version,
			}
			if row.TemplateID.Valid {
				templateID := row.TemplateID.Int64
				occ.TemplateID = &templateID
			}
			occurrencesMap[row.ID] = occ
			order = append(order, row.ID)
		}

		// PositionID 为空说明这个班次没有任何岗位要求
		if !row.PositionID.Valid {
			continue
		}

		occ.Requirements = append(occ.Requirements, domain.PositionRequirement{
			PositionID: row.PositionID.Int64,
			Quantity:   row.Quantity.Int32,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	occurrences := make([]*domain.ShiftOccurrence, 0, len(order))
	for _, id := range order {
		occurrences = append(occurrences, occurrencesMap[id])
	}
	return occurrences, nil
}

// CreateShiftOccurrence 插入班次和岗位要求快照。
// (template_id, branch_id, date) 的唯一性由部分唯一索引
// shift_occurrences_template_branch_date_key 保证，重复插入返回
// domain.ErrDuplicateOccurrence，并发创建也只会成功一条。
func (r *Repository) CreateShiftOccurrence(occ *domain.ShiftOccurrence) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO shift_occurrences (template_id, branch_id, date, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, version
	`
	params := []any{occ.TemplateID, occ.BranchID, occ.Date, occ.StartTime, occ.EndTime}
	if err := tx.QueryRowContext(ctx, query, params...).Scan(&occ.ID, &occ.CreatedAt, &occ.Version); err != nil {
		return mapConstraintError(err)
	}

	for _, req := range occ.Requirements {
		query = `
			INSERT INTO shift_occurrence_requirements (occurrence_id, position_id, quantity)
			VALUES ($1, $2, $3)
		`
		if _, err := tx.ExecContext(ctx, query, occ.ID, req.PositionID, req.Quantity); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return mapConstraintError(err)
	}

	return nil
}

func (r *Repository) GetShiftOccurrence(id int64) (*domain.ShiftOccurrence, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := shiftOccurrenceSelect + `
		WHERE so.id = $1
	`

	rows, err := r.dbpool.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	occurrences, err := r.scanShiftOccurrences(rows)
	if err != nil {
		return nil, err
	}
	if len(occurrences) == 0 {
		return nil, sql.ErrNoRows
	}
	return occurrences[0], nil
}

func (r *Repository) GetShiftOccurrenceByKey(templateID int64, branchID int64, date string) (*domain.ShiftOccurrence, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := shiftOccurrenceSelect + `
		WHERE so.template_id = $1 AND so.branch_id = $2 AND so.date = $3
	`

	rows, err := r.dbpool.QueryContext(ctx, query, templateID, branchID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	occurrences, err := r.scanShiftOccurrences(rows)
	if err != nil {
		return nil, err
	}
	if len(occurrences) == 0 {
		return nil, sql.ErrNoRows
	}
	return occurrences[0], nil
}

func (r *Repository) ListShiftOccurrences(branchID int64, startDate, endDate string) ([]*domain.ShiftOccurrence, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := shiftOccurrenceSelect + `
		WHERE so.branch_id = $1 AND so.date BETWEEN $2 AND $3
		ORDER BY so.date, so.start_time, so.id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, branchID, startDate, endDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanShiftOccurrences(rows)
}

// DeleteShiftOccurrence 删除班次并级联删除它的排班记录，返回删除的排班数量。
func (r *Repository) DeleteShiftOccurrence(id int64) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM staff_assignments WHERE occurrence_id = $1`, id)
	if err != nil {
		return 0, err
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM shift_occurrence_requirements WHERE occurrence_id = $1`, id); err != nil {
		return 0, err
	}

	res, err = tx.ExecContext(ctx, `DELETE FROM shift_occurrences WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if deleted == 0 {
		return 0, sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return int(removed), nil
}
