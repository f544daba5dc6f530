package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/dealflow/internal/db"
	"github.com/alexanderramin/dealflow/internal/domain"
)

const dealColumns = `id, title, value, stage, probability, contact_id, expected_close_date,
		notes, tags, created_at, updated_at`

// SQLiteDealRepo implements DealRepo using a SQLite database.
type SQLiteDealRepo struct {
	db db.DBTX
}

func NewSQLiteDealRepo(conn db.DBTX) *SQLiteDealRepo {
	return &SQLiteDealRepo{db: conn}
}

// Create inserts the deal and assigns its id. Ids are never reused.
func (r *SQLiteDealRepo) Create(ctx context.Context, d *domain.Deal) error {
	now := nowUTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.CreatedAt = d.CreatedAt.UTC().Truncate(time.Second)
	d.UpdatedAt = now
	query := `INSERT INTO deals (title, value, stage, probability, contact_id, expected_close_date,
		notes, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		d.Title,
		d.Value,
		d.StageID,
		d.Probability,
		d.ContactID,
		nullableTimeToString(d.ExpectedCloseDate, dateLayout),
		d.Notes,
		joinTags(d.Tags),
		d.CreatedAt.UTC().Format(time.RFC3339),
		d.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting deal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading deal id: %w", err)
	}
	d.ID = id
	return nil
}

func (r *SQLiteDealRepo) GetByID(ctx context.Context, id int64) (*domain.Deal, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+dealColumns+` FROM deals WHERE id = ?`, id)
	d, err := scanDeal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("deal", id)
	}
	return d, err
}

func (r *SQLiteDealRepo) List(ctx context.Context, f DealFilter) ([]*domain.Deal, error) {
	query := `SELECT ` + dealColumns + ` FROM deals WHERE 1 = 1`
	var args []any
	if f.StageID != "" {
		query += ` AND stage = ?`
		args = append(args, f.StageID)
	}
	if f.ContactID > 0 {
		query += ` AND contact_id = ?`
		args = append(args, f.ContactID)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, effectiveLimit(f.Limit))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing deals: %w", err)
	}
	defer rows.Close()

	var deals []*domain.Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		deals = append(deals, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating deals: %w", err)
	}
	return deals, nil
}

// Update overwrites every mutable column. created_at is never touched.
func (r *SQLiteDealRepo) Update(ctx context.Context, d *domain.Deal) error {
	d.UpdatedAt = nowUTC()
	query := `UPDATE deals SET title = ?, value = ?, stage = ?, probability = ?, contact_id = ?,
		expected_close_date = ?, notes = ?, tags = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		d.Title,
		d.Value,
		d.StageID,
		d.Probability,
		d.ContactID,
		nullableTimeToString(d.ExpectedCloseDate, dateLayout),
		d.Notes,
		joinTags(d.Tags),
		d.UpdatedAt.Format(time.RFC3339),
		d.ID,
	)
	if err != nil {
		return fmt.Errorf("updating deal: %w", err)
	}
	return checkAffected(res, "deal", d.ID)
}

func (r *SQLiteDealRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM deals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting deal: %w", err)
	}
	return checkAffected(res, "deal", id)
}

func scanDeal(s rowScanner) (*domain.Deal, error) {
	var d domain.Deal
	var tags, createdAtStr, updatedAtStr string
	var closeDateStr sql.NullString

	err := s.Scan(
		&d.ID, &d.Title, &d.Value, &d.StageID, &d.Probability, &d.ContactID,
		&closeDateStr, &d.Notes, &tags, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning deal: %w", err)
	}

	d.Tags = splitTags(tags)
	d.ExpectedCloseDate = parseNullableTime(closeDateStr, dateLayout)
	d.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if updatedAtStr != "" {
		d.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing updated_at: %w", err)
		}
	}
	return &d, nil
}
