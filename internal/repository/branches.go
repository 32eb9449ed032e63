package repository

import (
	"context"
	"time"

	"github.com/juhe-dining/roster/backend/internal/domain"
)

func (r *Repository) CreateBranch(b *domain.Branch) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO branches (name, address)
		VALUES ($1, $2)
		RETURNING id, created_at, version
	`

	if err := r.dbpool.QueryRowContext(ctx, query, b.Name, b.Address).Scan(&b.ID, &b.CreatedAt, &b.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetBranchByID(id int64) (*domain.Branch, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT name, address, created_at, version
		FROM branches WHERE id = $1
	`

	b := &domain.Branch{
		ID: id,
	}

	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(&b.Name, &b.Address, &b.CreatedAt, &b.Version); err != nil {
		return nil, err
	}

	return b, nil
}

func (r *Repository) GetAllBranches() ([]*domain.Branch, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, name, address, created_at, version FROM branches ORDER BY id
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	branches := make([]*domain.Branch, 0)
	for rows.Next() {
		b := &domain.Branch{}
		if err := rows.Scan(&b.ID, &b.Name, &b.Address, &b.CreatedAt, &b.Version); err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return branches, nil
}

func (r *Repository) BranchExists(id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT EXISTS (SELECT 1 FROM branches WHERE id = $1)
	`

	exists := false
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}

func (r *Repository) CreatePosition(p *domain.Position) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO positions (name, color)
		VALUES ($1, $2)
		RETURNING id, created_at, version
	`

	if err := r.dbpool.QueryRowContext(ctx, query, p.Name, p.Color).Scan(&p.ID, &p.CreatedAt, &p.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetAllPositions() ([]*domain.Position, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, name, color, created_at, version FROM positions ORDER BY id
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	positions := make([]*domain.Position, 0)
	for rows.Next() {
		p := &domain.Position{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Color, &p.CreatedAt, &p.Version); err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return positions, nil
}
