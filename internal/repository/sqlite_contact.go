package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/dealflow/internal/db"
	"github.com/alexanderramin/dealflow/internal/domain"
)

const contactColumns = `id, name, email, phone, company, position, tags, created_at, last_contacted_at`

// SQLiteContactRepo implements ContactRepo using a SQLite database.
type SQLiteContactRepo struct {
	db db.DBTX
}

// NewSQLiteContactRepo creates a new SQLiteContactRepo. conn may be a *sql.DB
// or a transaction handed out by a UnitOfWork.
func NewSQLiteContactRepo(conn db.DBTX) *SQLiteContactRepo {
	return &SQLiteContactRepo{db: conn}
}

func (r *SQLiteContactRepo) Create(ctx context.Context, c *domain.Contact) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = nowUTC()
	}
	c.CreatedAt = c.CreatedAt.UTC().Truncate(time.Second)
	query := `INSERT INTO contacts (name, email, phone, company, position, tags, created_at, last_contacted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		c.Name,
		c.Email,
		c.Phone,
		c.Company,
		c.Position,
		joinTags(c.Tags),
		c.CreatedAt.UTC().Format(time.RFC3339),
		nullableTimeToString(c.LastContactedAt, time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting contact: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading contact id: %w", err)
	}
	c.ID = id
	return nil
}

func (r *SQLiteContactRepo) GetByID(ctx context.Context, id int64) (*domain.Contact, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id)
	c, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("contact", id)
	}
	return c, err
}

func (r *SQLiteContactRepo) List(ctx context.Context, f ContactFilter) ([]*domain.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts`
	var args []any
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query += ` WHERE LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(company) LIKE ? OR LOWER(phone) LIKE ?`
		args = append(args, like, like, like, like)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, effectiveLimit(f.Limit))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*domain.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating contacts: %w", err)
	}
	return contacts, nil
}

func (r *SQLiteContactRepo) Update(ctx context.Context, c *domain.Contact) error {
	query := `UPDATE contacts SET name = ?, email = ?, phone = ?, company = ?, position = ?, tags = ?, last_contacted_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		c.Name,
		c.Email,
		c.Phone,
		c.Company,
		c.Position,
		joinTags(c.Tags),
		nullableTimeToString(c.LastContactedAt, time.RFC3339),
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating contact: %w", err)
	}
	return checkAffected(res, "contact", c.ID)
}

// TouchLastContacted moves last_contacted_at forward to at. An older
// timestamp never overwrites a newer one.
func (r *SQLiteContactRepo) TouchLastContacted(ctx context.Context, id int64, at time.Time) error {
	stamp := at.UTC().Format(time.RFC3339)
	query := `UPDATE contacts SET last_contacted_at = ?
		WHERE id = ? AND (last_contacted_at IS NULL OR last_contacted_at < ?)`
	if _, err := r.db.ExecContext(ctx, query, stamp, id, stamp); err != nil {
		return fmt.Errorf("touching contact: %w", err)
	}
	return nil
}

func (r *SQLiteContactRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting contact: %w", err)
	}
	return checkAffected(res, "contact", id)
}

func (r *SQLiteContactRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting contacts: %w", err)
	}
	return n, nil
}

func scanContact(s rowScanner) (*domain.Contact, error) {
	var c domain.Contact
	var tags, createdAtStr string
	var lastContactedStr sql.NullString

	err := s.Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.Position,
		&tags, &createdAtStr, &lastContactedStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning contact: %w", err)
	}

	c.Tags = splitTags(tags)
	c.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	c.LastContactedAt = parseNullableTime(lastContactedStr, time.RFC3339)
	return &c, nil
}
