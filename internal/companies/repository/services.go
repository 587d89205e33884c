package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrServiceNotFound = errors.New("company service not found")

// CompanyService is a catalog entry describing what a company does
// (e.g. electrical, excavation). Companies reference one by service_id.
type CompanyService struct {
	ID    int64
	Name  string
	Color *string
}

type ServicesRepository struct {
	pool *pgxpool.Pool
}

func NewServices(pool *pgxpool.Pool) *ServicesRepository {
	return &ServicesRepository{pool: pool}
}

func (r *ServicesRepository) Create(ctx context.Context, name string, color *string) (CompanyService, error) {
	var svc CompanyService
	err := r.pool.QueryRow(ctx, `
		INSERT INTO company_services (name, color) VALUES ($1, $2)
		RETURNING id, name, color`,
		name, color,
	).Scan(&svc.ID, &svc.Name, &svc.Color)
	return svc, err
}

func (r *ServicesRepository) GetByID(ctx context.Context, id int64) (CompanyService, error) {
	var svc CompanyService
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, color FROM company_services WHERE id = $1`, id,
	).Scan(&svc.ID, &svc.Name, &svc.Color)
	if errors.Is(err, pgx.ErrNoRows) {
		return CompanyService{}, ErrServiceNotFound
	}
	return svc, err
}

func (r *ServicesRepository) List(ctx context.Context) ([]CompanyService, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, color FROM company_services ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	services := make([]CompanyService, 0)
	for rows.Next() {
		var svc CompanyService
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.Color); err != nil {
			return nil, err
		}
		services = append(services, svc)
	}
	return services, rows.Err()
}

func (r *ServicesRepository) Update(ctx context.Context, id int64, name *string, color *string) (CompanyService, error) {
	var svc CompanyService
	err := r.pool.QueryRow(ctx, `
		UPDATE company_services
		SET name = COALESCE($2, name), color = COALESCE($3, color)
		WHERE id = $1
		RETURNING id, name, color`,
		id, name, color,
	).Scan(&svc.ID, &svc.Name, &svc.Color)
	if errors.Is(err, pgx.ErrNoRows) {
		return CompanyService{}, ErrServiceNotFound
	}
	return svc, err
}

func (r *ServicesRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM company_services WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrServiceNotFound
	}
	return nil
}
