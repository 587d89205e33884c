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

var ErrNotFound = errors.New("contact not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Contact struct {
	ID          int64
	Name        *string
	Occupation  *string
	Phone       *string
	Email       *string
	Address     *string
	AddressLink *string
	IsCustomer  bool
	IsClient    bool
	Notes       []string
	CompanyID   *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const contactColumns = `id, name, occupation, phone, email, address, address_link, is_customer, is_client, notes, company_id, created_at, updated_at`

func scanContact(row pgx.Row) (Contact, error) {
	var contact Contact
	var notes []byte
	err := row.Scan(
		&contact.ID, &contact.Name, &contact.Occupation, &contact.Phone, &contact.Email,
		&contact.Address, &contact.AddressLink, &contact.IsCustomer, &contact.IsClient,
		&notes, &contact.CompanyID, &contact.CreatedAt, &contact.UpdatedAt,
	)
	if err != nil {
		return Contact{}, err
	}
	if len(notes) > 0 {
		if err := json.Unmarshal(notes, &contact.Notes); err != nil {
			return Contact{}, fmt.Errorf("decode contact notes: %w", err)
		}
	}
	return contact, nil
}

type CreateContactParams struct {
	Name        *string
	Occupation  *string
	Phone       *string
	Email       *string
	Address     *string
	AddressLink *string
	IsCustomer  bool
	IsClient    bool
	Notes       []string
	CompanyID   *int64
}

func (r *Repository) Create(ctx context.Context, params CreateContactParams) (Contact, error) {
	notes, err := encodeNotes(params.Notes)
	if err != nil {
		return Contact{}, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO contacts (name, occupation, phone, email, address, address_link, is_customer, is_client, notes, company_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+contactColumns,
		params.Name, params.Occupation, params.Phone, params.Email, params.Address,
		params.AddressLink, params.IsCustomer, params.IsClient, notes, params.CompanyID,
	)
	return scanContact(row)
}

func (r *Repository) GetByID(ctx context.Context, id int64) (Contact, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id)

	contact, err := scanContact(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Contact{}, ErrNotFound
	}
	return contact, err
}

func (r *Repository) List(ctx context.Context) ([]Contact, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+contactColumns+` FROM contacts ORDER BY name NULLS LAST, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectContacts(rows)
}

// SearchByName performs a case-insensitive substring match on contact names.
func (r *Repository) SearchByName(ctx context.Context, name string) ([]Contact, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE LOWER(name) LIKE LOWER($1) ORDER BY name`,
		"%"+name+"%",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectContacts(rows)
}

// FindByPhoneOrEmail locates contacts matching a normalized phone number or
// a case-insensitive email. Used to flag potential duplicates before create.
func (r *Repository) FindByPhoneOrEmail(ctx context.Context, phone, email string) ([]Contact, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+contactColumns+` FROM contacts
		WHERE ($1 != '' AND phone = $1) OR ($2 != '' AND LOWER(email) = LOWER($2))
	`, phone, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectContacts(rows)
}

func collectContacts(rows pgx.Rows) ([]Contact, error) {
	contacts := make([]Contact, 0)
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, contact)
	}
	return contacts, rows.Err()
}

type UpdateContactParams struct {
	Name        *string
	Occupation  *string
	Phone       *string
	Email       *string
	Address     *string
	AddressLink *string
	IsCustomer  *bool
	IsClient    *bool
	Notes       []string
	SetNotes    bool
	CompanyID   *int64
}

func (r *Repository) Update(ctx context.Context, id int64, params UpdateContactParams) (Contact, error) {
	set := []string{"updated_at = now()"}
	args := []interface{}{id}

	add := func(expr string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf(expr, len(args)))
	}

	if params.Name != nil {
		add("name = $%d", *params.Name)
	}
	if params.Occupation != nil {
		add("occupation = $%d", *params.Occupation)
	}
	if params.Phone != nil {
		add("phone = $%d", *params.Phone)
	}
	if params.Email != nil {
		add("email = $%d", *params.Email)
	}
	if params.Address != nil {
		add("address = $%d", *params.Address)
	}
	if params.AddressLink != nil {
		add("address_link = $%d", *params.AddressLink)
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
			return Contact{}, err
		}
		add("notes = $%d", notes)
	}
	if params.CompanyID != nil {
		add("company_id = $%d", *params.CompanyID)
	}

	query := `UPDATE contacts SET ` + strings.Join(set, ", ") + ` WHERE id = $1 RETURNING ` + contactColumns

	contact, err := scanContact(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Contact{}, ErrNotFound
	}
	return contact, err
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func encodeNotes(notes []string) ([]byte, error) {
	if notes == nil {
		return nil, nil
	}
	return json.Marshal(notes)
}
