package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

var ErrProjectTypeNotFound = errors.New("project type not found")

// ProjectType is a category label for leads (e.g. kitchen remodel, roof
// replacement) with an optional display color.
type ProjectType struct {
	ID    int64
	Name  *string
	Color *string
}

func (r *Repository) GetProjectType(ctx context.Context, id int64) (ProjectType, error) {
	var pt ProjectType
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, color FROM project_types WHERE id = $1`, id,
	).Scan(&pt.ID, &pt.Name, &pt.Color)
	if errors.Is(err, pgx.ErrNoRows) {
		return ProjectType{}, ErrProjectTypeNotFound
	}
	return pt, err
}

func (r *Repository) ListProjectTypes(ctx context.Context) ([]ProjectType, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, color FROM project_types ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := make([]ProjectType, 0)
	for rows.Next() {
		var pt ProjectType
		if err := rows.Scan(&pt.ID, &pt.Name, &pt.Color); err != nil {
			return nil, err
		}
		types = append(types, pt)
	}
	return types, rows.Err()
}

func (r *Repository) CreateProjectType(ctx context.Context, name, color *string) (ProjectType, error) {
	var pt ProjectType
	err := r.pool.QueryRow(ctx,
		`INSERT INTO project_types (name, color) VALUES ($1, $2) RETURNING id, name, color`,
		name, color,
	).Scan(&pt.ID, &pt.Name, &pt.Color)
	return pt, err
}
