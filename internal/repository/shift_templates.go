package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/juhe-dining/roster/backend/internal/domain"
)

func (r *Repository) scanShiftTemplates(rows *sql.Rows) ([]*domain.ShiftTemplate, error) {
	templatesMap := make(map[int64]*domain.ShiftTemplate)
	order := make([]int64, 0)
	seenDays := make(map[int64]map[int32]bool)
	seenReqs := make(map[int64]map[int64]bool)

	for rows.Next() {
		var row struct {
			ID        int64
			BranchID  int64
			Name      string
			StartTime string
			EndTime   string
			Status    string
			CreatedAt time.Time
			Version   int32

			Day        sql.NullInt32
			PositionID sql.NullInt64
			Quantity   sql.NullInt32
		}

		dst := []any{
			&row.ID,
			&row.BranchID,
			&row.Name,
			&row.StartTime,
			&row.EndTime,
			&row.Status,
			&row.CreatedAt,
			&row.Version,
			&row.Day,
			&row.PositionID,
			&row.Quantity,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		template, exists := templatesMap[row.ID]
		if !exists {
			// 第一次查到这个模板，先初始化
			template = &domain.ShiftTemplate{
				ID:             row.ID,
				BranchID:       row.BranchID,
				Name:           row.Name,
				StartTime:      row.StartTime,
				EndTime:        row.EndTime,
				ApplicableDays: make([]int32, 0),
				Requirements:   make([]domain.PositionRequirement, 0),
				Status:         domain.TemplateStatus(row.Status),
				CreatedAt:      row.CreatedAt,
				Version:        row.Version,
			}
			templatesMap[row.ID] = template
			order = append(order, row.ID)
			seenDays[row.ID] = make(map[int32]bool)
			seenReqs[row.ID] = make(map[int64]bool)
		}

		// days 和 requirements 两张表做了笛卡尔积，去重之后再收集
		if row.Day.Valid && !seenDays[row.ID][row.Day.Int32] {
			seenDays[row.ID][row.Day.Int32] = true
			template.ApplicableDays = append(template.ApplicableDays, row.Day.Int32)
		}

		if row.PositionID.Valid && !seenReqs[row.ID][row.PositionID.Int64] {
			seenReqs[row.ID][row.PositionID.Int64] = true
			template.Requirements = append(template.Requirements, domain.PositionRequirement{
				PositionID: row.PositionID.Int64,
				Quantity:   row.Quantity.Int32,
			})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	templates := make([]*domain.ShiftTemplate, 0, len(order))
	for _, id := range order {
		templates = append(templates, templatesMap[id])
	}
	return templates, nil
}

const shiftTemplateSelect = `
	SELECT
		st.id,
		st.branch_id,
		st.name,
		st.start_time,
		st.end_time,
		st.status,
		st.created_at,
		st.version,
		std.day,
		str.position_id,
		str.quantity
	FROM shift_templates st
	LEFT JOIN shift_template_days std ON st.id = std.template_id
	LEFT JOIN shift_template_requirements str ON st.id = str.template_id
`

func (r *Repository) GetAllShiftTemplates(branchID int64) ([]*domain.ShiftTemplate, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := shiftTemplateSelect + `
		WHERE st.branch_id = $1
		ORDER BY st.id, std.day
	`

	rows, err := r.dbpool.QueryContext(ctx, query, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanShiftTemplates(rows)
}

func (r *Repository) GetShiftTemplate(id int64) (*domain.ShiftTemplate, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := shiftTemplateSelect + `
		WHERE st.id = $1
		ORDER BY std.day
	`

	rows, err := r.dbpool.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates, err := r.scanShiftTemplates(rows)
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return nil, sql.ErrNoRows
	}
	return templates[0], nil
}

// ListActiveShiftTemplates 返回某个门店在某个星期几适用的所有启用模板。
func (r *Repository) ListActiveShiftTemplates(branchID int64, weekday int32) ([]*domain.ShiftTemplate, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := shiftTemplateSelect + `
		WHERE st.branch_id = $1
		  AND st.status = 'ACTIVE'
		  AND st.id IN (SELECT template_id FROM shift_template_days WHERE day = $2)
		ORDER BY st.id, std.day
	`

	rows, err := r.dbpool.QueryContext(ctx, query, branchID, weekday)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanShiftTemplates(rows)
}

func (r *Repository) CreateShiftTemplate(st *domain.ShiftTemplate) error {
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
		INSERT INTO shift_templates (branch_id, name, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, version
	`
	params := []any{st.BranchID, st.Name, st.StartTime, st.EndTime, st.Status}
	if err := tx.QueryRowContext(ctx, query, params...).Scan(&st.ID, &st.CreatedAt, &st.Version); err != nil {
		return err
	}

	for _, day := range st.ApplicableDays {
		query = `
			INSERT INTO shift_template_days (template_id, day)
			VALUES ($1, $2)
		`
		if _, err := tx.ExecContext(ctx, query, st.ID, day); err != nil {
			return err
		}
	}

	for _, req := range st.Requirements {
		query = `
			INSERT INTO shift_template_requirements (template_id, position_id, quantity)
			VALUES ($1, $2, $3)
		`
		if _, err := tx.ExecContext(ctx, query, st.ID, req.PositionID, req.Quantity); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) UpdateShiftTemplate(st *domain.ShiftTemplate) error {
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
		UPDATE shift_templates
		SET
			name = $1,
			start_time = $2,
			end_time = $3,
			status = $4,
			version = version + 1
		WHERE id = $5 AND version = $6
		RETURNING version
	`
	params := []any{st.Name, st.StartTime, st.EndTime, st.Status, st.ID, st.Version}
	if err := tx.QueryRowContext(ctx, query, params...).Scan(&st.Version); err != nil {
		return err
	}

	// 适用日和岗位要求整组重建
	if _, err := tx.ExecContext(ctx, `DELETE FROM shift_template_days WHERE template_id = $1`, st.ID); err != nil {
		return err
	}
	for _, day := range st.ApplicableDays {
		if _, err := tx.ExecContext(ctx, `INSERT INTO shift_template_days (template_id, day) VALUES ($1, $2)`, st.ID, day); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM shift_template_requirements WHERE template_id = $1`, st.ID); err != nil {
		return err
	}
	for _, req := range st.Requirements {
		if _, err := tx.ExecContext(ctx, `INSERT INTO shift_template_requirements (template_id, position_id, quantity) VALUES ($1, $2, $3)`, st.ID, req.PositionID, req.Quantity); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteShiftTemplate(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		DELETE FROM shift_templates WHERE id = $1
	`

	_, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return nil
}
