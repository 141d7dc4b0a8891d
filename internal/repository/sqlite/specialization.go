package sqlite

import (
	"context"
	"database/sql"

	"github.com/presspool/presspool/pkg/models"
)

// Specialization methods
func (r *SQLiteRepo) AddSpecialization(ctx context.Context, name string) (int64, error) {
	if _, err := r.conn.Exec(ctx, `INSERT INTO specializations (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name); err != nil {
		return 0, err
	}

	var id int64
	if err := r.conn.QueryRow(ctx, `SELECT id FROM specializations WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *SQLiteRepo) GetSpecializationByName(ctx context.Context, name string) (*models.Specialization, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, name FROM specializations WHERE name = ?`, name)
	var s models.Specialization
	if err := row.Scan(&s.ID, &s.Name); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	return &s, nil
}

func (r *SQLiteRepo) ListSpecializations(ctx context.Context) ([]models.Specialization, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT id, name FROM specializations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Specialization
	for rows.Next() {
		var s models.Specialization
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}

		out = append(out, s)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) AssignSpecialization(ctx context.Context, userID, specID int64) error {
	_, err := r.conn.Exec(ctx, `INSERT OR IGNORE INTO user_specializations (user_id, spec_id) VALUES (?, ?)`, userID, specID)
	return err
}

// Directory methods

// CandidatesFor resolves the candidate speaker set for a specialization:
// active speakers tagged with it, unioned with active speakers that declared
// no specialization at all (generalists, eligible for everything).
func (r *SQLiteRepo) CandidatesFor(ctx context.Context, specID int64) ([]int64, error) {
	rows, err := r.conn.QueryRows(ctx, `
		SELECT u.id FROM user_specializations us
		  JOIN users u ON us.user_id = u.id
		 WHERE us.spec_id = ? AND u.role = 'speaker' AND u.is_active = 1
		UNION
		SELECT u.id FROM users u
		 WHERE u.role = 'speaker' AND u.is_active = 1
		   AND u.id NOT IN (SELECT user_id FROM user_specializations)`, specID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}

		out = append(out, id)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) ContactOf(ctx context.Context, userID int64) (string, error) {
	var contact sql.NullString
	if err := r.conn.QueryRow(ctx, `SELECT contact FROM users WHERE id = ?`, userID).Scan(&contact); err != nil {
		if err == sql.ErrNoRows {
			return "", models.ErrNotFound
		}

		return "", err
	}

	return contact.String, nil
}
