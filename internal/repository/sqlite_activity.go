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

const activityColumns = `id, type, description, date, duration_minutes, contact_id, deal_id, created_at`

// SQLiteActivityRepo implements ActivityRepo using a SQLite database.
type SQLiteActivityRepo struct {
	db db.DBTX
}

func NewSQLiteActivityRepo(conn db.DBTX) *SQLiteActivityRepo {
	return &SQLiteActivityRepo{db: conn}
}

func (r *SQLiteActivityRepo) Create(ctx context.Context, a *domain.Activity) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = nowUTC()
	}
	a.CreatedAt = a.CreatedAt.UTC().Truncate(time.Second)
	a.Date = a.Date.UTC().Truncate(time.Second)
	query := `INSERT INTO activities (type, description, date, duration_minutes, contact_id, deal_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		string(a.Type),
		a.Description,
		a.Date.UTC().Format(time.RFC3339),
		nullableIntToValue(a.DurationMinutes),
		a.ContactID,
		nullableInt64ToValue(a.DealID),
		a.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting activity: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading activity id: %w", err)
	}
	a.ID = id
	return nil
}

func (r *SQLiteActivityRepo) GetByID(ctx context.Context, id int64) (*domain.Activity, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)
	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("activity", id)
	}
	return a, err
}

// List returns activities ordered by date, newest first.
func (r *SQLiteActivityRepo) List(ctx context.Context, f ActivityFilter) ([]*domain.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE 1 = 1`
	var args []any
	if f.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(f.Type))
	}
	if f.ContactID > 0 {
		query += ` AND contact_id = ?`
		args = append(args, f.ContactID)
	}
	if f.DealID > 0 {
		query += ` AND deal_id = ?`
		args = append(args, f.DealID)
	}
	query += ` ORDER BY date DESC, id DESC LIMIT ?`
	args = append(args, effectiveLimit(f.Limit))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}
	defer rows.Close()

	var activities []*domain.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activities: %w", err)
	}
	return activities, nil
}

func (r *SQLiteActivityRepo) Update(ctx context.Context, a *domain.Activity) error {
	a.Date = a.Date.UTC().Truncate(time.Second)
	query := `UPDATE activities SET type = ?, description = ?, date = ?, duration_minutes = ?, contact_id = ?, deal_id = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		string(a.Type),
		a.Description,
		a.Date.UTC().Format(time.RFC3339),
		nullableIntToValue(a.DurationMinutes),
		a.ContactID,
		nullableInt64ToValue(a.DealID),
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("updating activity: %w", err)
	}
	return checkAffected(res, "activity", a.ID)
}

func (r *SQLiteActivityRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting activity: %w", err)
	}
	return checkAffected(res, "activity", id)
}

func scanActivity(s rowScanner) (*domain.Activity, error) {
	var a domain.Activity
	var typeStr, dateStr, createdAtStr string
	var duration sql.NullInt64
	var dealID sql.NullInt64

	err := s.Scan(&a.ID, &typeStr, &a.Description, &dateStr, &duration, &a.ContactID, &dealID, &createdAtStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning activity: %w", err)
	}

	a.Type = domain.ActivityType(typeStr)
	if duration.Valid {
		m := int(duration.Int64)
		a.DurationMinutes = &m
	}
	if dealID.Valid {
		id := dealID.Int64
		a.DealID = &id
	}
	a.Date, err = time.Parse(time.RFC3339, dateStr)
	if err != nil {
		return nil, fmt.Errorf("parsing date: %w", err)
	}
	a.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &a, nil
}
