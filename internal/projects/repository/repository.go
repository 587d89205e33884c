package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("project not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Project struct {
	ID            int64
	ProjectName   *string
	Overview      *string
	Payments      []float64
	ProjectStatus *string
	InvoiceStatus *string
	Quickbooks    bool
	StartDate     *time.Time
	EndDate       *time.Time
	LeadID        *int64
	// LeadNumber is joined from the owning lead and keys external
	// financial lookups. Empty when the project has no lead.
	LeadNumber *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

const projectColumns = `p.id, p.project_name, p.overview, p.payments, p.project_status, p.invoice_status, p.quickbooks, p.start_date, p.end_date, p.lead_id, l.lead_number, p.created_at, p.updated_at`

const projectFrom = ` FROM projects p LEFT JOIN leads l ON l.id = p.lead_id `

func scanProject(row pgx.Row) (Project, error) {
	var project Project
	err := row.Scan(
		&project.ID, &project.ProjectName, &project.Overview, &project.Payments,
		&project.ProjectStatus, &project.InvoiceStatus, &project.Quickbooks,
		&project.StartDate, &project.EndDate, &project.LeadID, &project.LeadNumber,
		&project.CreatedAt, &project.UpdatedAt,
	)
	return project, err
}

type CreateProjectParams struct {
	ProjectName   *string
	Overview      *string
	Payments      []float64
	ProjectStatus *string
	InvoiceStatus *string
	Quickbooks    bool
	StartDate     *time.Time
	EndDate       *time.Time
	LeadID        *int64
}

func (r *Repository) Create(ctx context.Context, params CreateProjectParams) (Project, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO projects (project_name, overview, payments, project_status, invoice_status, quickbooks, start_date, end_date, lead_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		params.ProjectName, params.Overview, params.Payments, params.ProjectStatus,
		params.InvoiceStatus, params.Quickbooks, params.StartDate, params.EndDate, params.LeadID,
	).Scan(&id)
	if err != nil {
		return Project{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *Repository) GetByID(ctx context.Context, id int64) (Project, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+projectColumns+projectFrom+`WHERE p.id = $1`, id)

	project, err := scanProject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Project{}, ErrNotFound
	}
	return project, err
}

func (r *Repository) List(ctx context.Context) ([]Project, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+projectColumns+projectFrom+`ORDER BY p.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectProjects(rows)
}

func (r *Repository) ListByLead(ctx context.Context, leadID int64) ([]Project, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+projectColumns+projectFrom+`WHERE p.lead_id = $1 ORDER BY p.id`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectProjects(rows)
}

func collectProjects(rows pgx.Rows) ([]Project, error) {
	projects := make([]Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

type UpdateProjectParams struct {
	ProjectName   *string
	Overview      *string
	Payments      []float64
	SetPayments   bool
	ProjectStatus *string
	InvoiceStatus *string
	Quickbooks    *bool
	StartDate     *time.Time
	EndDate       *time.Time
	LeadID        *int64
	SetLeadNull   bool
}

func (r *Repository) Update(ctx context.Context, id int64, params UpdateProjectParams) (Project, error) {
	set := []string{"updated_at = now()"}
	args := []interface{}{id}

	add := func(expr string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf(expr, len(args)))
	}

	if params.ProjectName != nil {
		add("project_name = $%d", *params.ProjectName)
	}
	if params.Overview != nil {
		add("overview = $%d", *params.Overview)
	}
	if params.SetPayments {
		add("payments = $%d", params.Payments)
	}
	if params.ProjectStatus != nil {
		add("project_status = $%d", *params.ProjectStatus)
	}
	if params.InvoiceStatus != nil {
		add("invoice_status = $%d", *params.InvoiceStatus)
	}
	if params.Quickbooks != nil {
		add("quickbooks = $%d", *params.Quickbooks)
	}
	if params.StartDate != nil {
		add("start_date = $%d", *params.StartDate)
	}
	if params.EndDate != nil {
		add("end_date = $%d", *params.EndDate)
	}
	if params.SetLeadNull {
		set = append(set, "lead_id = NULL")
	} else if params.LeadID != nil {
		add("lead_id = $%d", *params.LeadID)
	}

	query := `UPDATE projects SET ` + strings.Join(set, ", ") + ` WHERE id = $1 RETURNING id`

	var updatedID int64
	err := r.pool.QueryRow(ctx, query, args...).Scan(&updatedID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Project{}, ErrNotFound
	}
	if err != nil {
		return Project{}, err
	}
	return r.GetByID(ctx, updatedID)
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
