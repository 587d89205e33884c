package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"crm_backend/internal/leads/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation. The leads service relies on this to translate storage
// integrity errors and to drive the generated-number retry loop.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Lead struct {
	ID            int64
	LeadNumber    *string
	Name          *string
	StartDate     *time.Time
	Location      *string
	AddressLink   *string
	Status        *string
	Notes         []string
	InReview      bool
	ContactID     *int64
	ProjectTypeID *int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Number implements domain.Numbered so lead slices can be filtered by
// derived type.
func (l Lead) Number() string {
	if l.LeadNumber == nil {
		return ""
	}
	return *l.LeadNumber
}

const leadColumns = `id, lead_number, name, start_date, location, address_link, status, notes, in_review, contact_id, project_type_id, created_at, updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	var notes []byte
	err := row.Scan(
		&lead.ID, &lead.LeadNumber, &lead.Name, &lead.StartDate, &lead.Location,
		&lead.AddressLink, &lead.Status, &notes, &lead.InReview,
		&lead.ContactID, &lead.ProjectTypeID, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return Lead{}, err
	}

	if len(notes) > 0 {
		if err := json.Unmarshal(notes, &lead.Notes); err != nil {
			return Lead{}, fmt.Errorf("decode lead notes: %w", err)
		}
	}

	return lead, nil
}

func encodeNotes(notes []string) ([]byte, error) {
	if notes == nil {
		return nil, nil
	}
	return json.Marshal(notes)
}

type CreateLeadParams struct {
	LeadNumber    *string
	Name          *string
	StartDate     *time.Time
	Location      *string
	AddressLink   *string
	Status        *string
	Notes         []string
	InReview      bool
	ContactID     *int64
	ProjectTypeID *int64
}

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	notes, err := encodeNotes(params.Notes)
	if err != nil {
		return Lead{}, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (lead_number, name, start_date, location, address_link, status, notes, in_review, contact_id, project_type_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+leadColumns,
		params.LeadNumber, params.Name, params.StartDate, params.Location, params.AddressLink,
		params.Status, notes, params.InReview, params.ContactID, params.ProjectTypeID,
	)

	return scanLead(row)
}

func (r *Repository) GetByID(ctx context.Context, id int64) (Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)

	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

func (r *Repository) GetByLeadNumber(ctx context.Context, leadNumber string) (Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE lead_number = $1`, leadNumber)

	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

func (r *Repository) List(ctx context.Context) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+leadColumns+` FROM leads ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLeads(rows)
}

func (r *Repository) ListInReview(ctx context.Context) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+leadColumns+` FROM leads WHERE in_review ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLeads(rows)
}

func collectLeads(rows pgx.Rows) ([]Lead, error) {
	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// FindAllLeadNumbers returns every assigned lead number across all types.
func (r *Repository) FindAllLeadNumbers(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT lead_number FROM leads
		WHERE lead_number IS NOT NULL AND lead_number != ''
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	numbers := make([]string, 0)
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			return nil, err
		}
		numbers = append(numbers, number)
	}

	return numbers, rows.Err()
}

// FindAllLeadNumbersByType returns the assigned lead numbers whose shape
// classifies as the given type. Type is not a stored column, so the filter
// runs on the derived classification.
func (r *Repository) FindAllLeadNumbersByType(ctx context.Context, t domain.LeadType) ([]string, error) {
	all, err := r.FindAllLeadNumbers(ctx)
	if err != nil {
		return nil, err
	}

	numbers := make([]string, 0, len(all))
	for _, number := range all {
		if domain.Classify(number) == t {
			numbers = append(numbers, number)
		}
	}

	return numbers, nil
}

func (r *Repository) ExistsByLeadNumber(ctx context.Context, leadNumber string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM leads WHERE lead_number = $1)`, leadNumber,
	).Scan(&exists)
	return exists, err
}

func (r *Repository) ExistsByLeadNumberExcludingID(ctx context.Context, leadNumber string, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM leads WHERE lead_number = $1 AND id != $2)`, leadNumber, id,
	).Scan(&exists)
	return exists, err
}

// UpdateLeadParams carries a partial update; nil pointers leave the column
// untouched. SetStartDateNull and SetContactNull clear their columns
// explicitly since a nil pointer means "no change" here.
type UpdateLeadParams struct {
	LeadNumber       *string
	Name             *string
	StartDate        *time.Time
	SetStartDateNull bool
	Location         *string
	AddressLink      *string
	Status           *string
	Notes            []string
	SetNotes         bool
	InReview         *bool
	ContactID        *int64
	SetContactNull   bool
	ProjectTypeID    *int64
}

func (r *Repository) Update(ctx context.Context, id int64, params UpdateLeadParams) (Lead, error) {
	set := []string{"updated_at = now()"}
	args := []interface{}{id}

	add := func(expr string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf(expr, len(args)))
	}

	if params.LeadNumber != nil {
		add("lead_number = $%d", *params.LeadNumber)
	}
	if params.Name != nil {
		add("name = $%d", *params.Name)
	}
	if params.SetStartDateNull {
		set = append(set, "start_date = NULL")
	} else if params.StartDate != nil {
		add("start_date = $%d", *params.StartDate)
	}
	if params.Location != nil {
		add("location = $%d", *params.Location)
	}
	if params.AddressLink != nil {
		add("address_link = $%d", *params.AddressLink)
	}
	if params.Status != nil {
		add("status = $%d", *params.Status)
	}
	if params.SetNotes {
		notes, err := encodeNotes(params.Notes)
		if err != nil {
			return Lead{}, err
		}
		add("notes = $%d", notes)
	}
	if params.InReview != nil {
		add("in_review = $%d", *params.InReview)
	}
	if params.SetContactNull {
		set = append(set, "contact_id = NULL")
	} else if params.ContactID != nil {
		add("contact_id = $%d", *params.ContactID)
	}
	if params.ProjectTypeID != nil {
		add("project_type_id = $%d", *params.ProjectTypeID)
	}

	query := `UPDATE leads SET ` + strings.Join(set, ", ") + ` WHERE id = $1 RETURNING ` + leadColumns

	lead, err := scanLead(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// UpdateNotes replaces only the notes column. Used by the notes-only fast
// path which skips relation loading and external sync.
func (r *Repository) UpdateNotes(ctx context.Context, id int64, notes []string) (Lead, error) {
	encoded, err := encodeNotes(notes)
	if err != nil {
		return Lead{}, err
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE leads SET notes = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+leadColumns,
		id, encoded,
	)

	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DetachProjects clears lead references from projects before the lead row
// is removed.
func (r *Repository) DetachProjects(ctx context.Context, leadID int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE projects SET lead_id = NULL WHERE lead_id = $1`, leadID)
	return err
}

// CountByContact returns how many leads reference the given contact.
func (r *Repository) CountByContact(ctx context.Context, contactID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM leads WHERE contact_id = $1`, contactID,
	).Scan(&count)
	return count, err
}

// CountByCompany returns how many leads reference contacts of the given company.
func (r *Repository) CountByCompany(ctx context.Context, companyID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM leads l
		JOIN contacts c ON c.id = l.contact_id
		WHERE c.company_id = $1
	`, companyID).Scan(&count)
	return count, err
}
