package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("company not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Company struct {
	ID          int64
	Name        string
	Address     *string
	AddressLink *string
	Type        *string
	ServiceID   *int64
	IsCustomer  bool
	IsClient    bool
	Notes       []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const companyColumns = `id, name, address, address_link, type, service_id, is_customer, is_client, notes, created_at, updated_at`

func scanCompany(row pgx.Row) (Company, error) {
	var company Company
	var notes []byte
	err := row.Scan(
		&company.ID, &company.Name, &company.Address, &company.AddressLink,
		&company.Type, &company.ServiceID, &company.IsCustomer, &company.IsClient,
		&notes, &company.CreatedAt, &company.UpdatedAt,
	)
	if err != nil {
		return Company{}, err
	}
	if len(notes) > 0 {
		if err := json.Unmarshal(notes, &company.Notes); err != nil {
			return Company{}, fmt.Errorf("decode company notes: %w", err)
		}
	}
	return company, nil
}

type CreateCompanyParams struct {
	Name        string
	Address     *string
	AddressLink *string
	Type        *string
	ServiceID   *int64
	IsCustomer  bool
	IsClient    bool
	Notes       []string
}

func (r *Repository) Create(ctx context.Context, params CreateCompanyParams) (Company, error) {
	notes, err := encodeNotes(params.Notes)
	if err != nil {
		return Company{}, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO companies (name, address, address_link, type, service_id, is_customer, is_client, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+companyColumns,
		params.Name, params.Address, params.AddressLink, params.Type,
		params.ServiceID, params.IsCustomer, params.IsClient, notes,
	)
	return scanCompany(row)
}

func (r *Repository) GetByID(ctx context.Context, id int64) (Company, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id)

	company, err := scanCompany(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, ErrNotFound
	}
	return company, err
}

func (r *Repository) List(ctx context.Context) ([]Company, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+companyColumns+` FROM companies ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	companies := make([]Company, 0)
	for rows.Next() {
		company, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, company)
	}
	return companies, rows.Err()
}

func (r *Repository) SearchByName(ctx context.Context, name string) ([]Company, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE LOWER(name) LIKE LOWER($1) ORDER BY name`,
		"%"+name+"%",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	companies := make([]Company, 0)
	for rows.Next() {
		company, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, company)
	}
	return companies, rows.Err()
}

type UpdateCompanyParams struct {
	Name        *string
	Address     *string
	AddressLink *string
	Type        *string
	ServiceID   *int64
	IsCustomer  *bool
	IsClient    *bool
	Notes       []string
	SetNotes    bool
}

func (r *Repository) Update(ctx context.Context, id int64, params UpdateCompanyParams) (Company, error) {
	set := []string{"updated_at = now()"}
	args := []interface{}{id}

	add := func(expr string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf(expr, len(args)))
	}

	if params.Name != nil {
		add("name = $%d", *params.Name)
	}
	if params.Address != nil {
		add("address = $%d", *params.Address)
	}
	if params.AddressLink != nil {
		add("address_link = $%d", *params.AddressLink)
	}
	if params.Type != nil {
		add("type = $%d", *params.Type)
	}
	if params.ServiceID != nil {
		add("service_id = $%d", *params.ServiceID)
	}
	if params.IsCustomer != nil {
		add("is_customer = $%d", *params.IsCustomer)
	}
	if params.IsClient != nil {
		add("is_client = $%d", *params.IsClient)
	}
	if params.SetNotes {
		notes, err := encodeNotes(params.Notes)
		if err != nil {
			return Company{}, err
		}
		add("notes = $%d", notes)
	}

	query := `UPDATE companies SET ` + strings.Join(set, ", ") + ` WHERE id = $1 RETURNING ` + companyColumns

	company, err := scanCompany(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, ErrNotFound
	}
	return company, err
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountContacts returns how many contacts belong to the company. Used by
// the lead deletion cleanup to decide whether an orphaned company can go.
func (r *Repository) CountContacts(ctx context.Context, companyID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM contacts WHERE company_id = $1`, companyID,
	).Scan(&count)
	return count, err
}

func encodeNotes(notes []string) ([]byte, error) {
	if notes == nil {
		return nil, nil
	}
	return json.Marshal(notes)
}
