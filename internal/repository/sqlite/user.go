package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/presspool/presspool/pkg/models"
)

// User methods
func (r *SQLiteRepo) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	if u == nil {
		return 0, fmt.Errorf("user is nil")
	}

	res, err := r.conn.Exec(ctx,
		`INSERT INTO users (contact, username, display_name, email, role, tariff, is_active, password_hash, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Contact, u.Username, u.DisplayName, u.Email, string(u.Role), u.Tariff, boolToInt(u.Active), u.PasswordHash, now())
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, contact, username, display_name, email, role, tariff, is_active, password_hash, updated FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *SQLiteRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, contact, username, display_name, email, role, tariff, is_active, password_hash, updated FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (r *SQLiteRepo) SetUserActive(ctx context.Context, id int64, active bool) error {
	_, err := r.conn.Exec(ctx, `UPDATE users SET is_active = ?, updated = ? WHERE id = ?`, boolToInt(active), now(), id)
	return err
}

func (r *SQLiteRepo) DeleteUser(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var role string
	var contact, displayName, tariff, pw sql.NullString
	var active int
	if err := row.Scan(&u.ID, &contact, &u.Username, &displayName, &u.Email, &role, &tariff, &active, &pw, &u.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	u.Role = models.Role(role)
	u.Active = active != 0
	if contact.Valid {
		u.Contact = contact.String
	}
	if displayName.Valid {
		u.DisplayName = displayName.String
	}
	if tariff.Valid {
		u.Tariff = tariff.String
	}
	if pw.Valid {
		u.PasswordHash = pw.String
	}

	return &u, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
