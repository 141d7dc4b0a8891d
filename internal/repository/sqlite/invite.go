package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/presspool/presspool/pkg/models"
)

// Invite methods. Every state transition here is a conditional UPDATE keyed on
// the expected current status; a transition that matches zero rows means the
// precondition no longer holds and is reported as the matching domain error.

func (r *SQLiteRepo) GetInvite(ctx context.Context, requestID, speakerID int64) (*models.Invite, error) {
	row := r.conn.QueryRow(ctx,
		`SELECT request_id, speaker_id, status, answer_text, answer_accepted, updated FROM request_invites WHERE request_id = ? AND speaker_id = ?`,
		requestID, speakerID)

	var inv models.Invite
	var status string
	var answer sql.NullString
	var accepted int
	if err := row.Scan(&inv.RequestID, &inv.SpeakerID, &status, &answer, &accepted, &inv.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	inv.Status = models.InviteStatus(status)
	inv.AnswerAccepted = accepted != 0
	if answer.Valid {
		inv.AnswerText = answer.String
	}

	return &inv, nil
}

func (r *SQLiteRepo) ListInvites(ctx context.Context, requestID int64) ([]models.Invite, error) {
	rows, err := r.conn.QueryRows(ctx,
		`SELECT request_id, speaker_id, status, answer_text, answer_accepted, updated FROM request_invites WHERE request_id = ? ORDER BY speaker_id`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Invite
	for rows.Next() {
		var inv models.Invite
		var status string
		var answer sql.NullString
		var accepted int
		if err := rows.Scan(&inv.RequestID, &inv.SpeakerID, &status, &answer, &accepted, &inv.Updated); err != nil {
			return nil, err
		}

		inv.Status = models.InviteStatus(status)
		inv.AnswerAccepted = accepted != 0
		if answer.Valid {
			inv.AnswerText = answer.String
		}
		out = append(out, inv)
	}

	return out, rows.Err()
}

// BindInvite resolves the acceptance race. Both compare-and-sets run inside one
// transaction: the invite must still be pending and the request must still be
// open. Two concurrent binds on the same request serialize on the write lock,
// and only the first committer finds the request open; the loser's invite
// update is rolled back with it.
func (r *SQLiteRepo) BindInvite(ctx context.Context, requestID, speakerID int64) error {
	return r.conn.WithTx(ctx, func(tx *sql.Tx) error {
		ts := now()
		res, err := tx.ExecContext(ctx,
			`UPDATE request_invites SET status = ?, updated = ? WHERE request_id = ? AND speaker_id = ? AND status = ?`,
			string(models.InviteAccepted), ts, requestID, speakerID, string(models.InvitePending))
		if err != nil {
			return fmt.Errorf("accept invite: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return r.inviteStateError(ctx, tx, requestID, speakerID, models.ErrInviteNotPending)
		}

		res, err = tx.ExecContext(ctx,
			`UPDATE requests SET status = ?, chosen_speaker_id = ?, updated = ? WHERE id = ? AND status = ? AND chosen_speaker_id IS NULL`,
			string(models.RequestInProgress), speakerID, ts, requestID, string(models.RequestOpen))
		if err != nil {
			return fmt.Errorf("bind request: %w", err)
		}
		n, err = res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return models.ErrRequestAlreadyBound
		}

		return nil
	})
}

func (r *SQLiteRepo) MarkDeclined(ctx context.Context, requestID, speakerID int64) error {
	res, err := r.conn.Exec(ctx,
		`UPDATE request_invites SET status = ?, updated = ? WHERE request_id = ? AND speaker_id = ? AND status = ?`,
		string(models.InviteDeclined), now(), requestID, speakerID, string(models.InvitePending))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return r.inviteStateError(ctx, nil, requestID, speakerID, models.ErrInviteNotPending)
	}

	return nil
}

// CancelPending cancels every pending invite of the request and returns the
// affected speaker ids so the caller can notify them. Running it again is a
// no-op: there is nothing pending left to match.
func (r *SQLiteRepo) CancelPending(ctx context.Context, requestID int64) ([]int64, error) {
	var cancelled []int64
	err := r.conn.WithTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT speaker_id FROM request_invites WHERE request_id = ? AND status = ?`,
			requestID, string(models.InvitePending))
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				return err
			}

			cancelled = append(cancelled, id)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		if len(cancelled) == 0 {
			return nil
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE request_invites SET status = ?, updated = ? WHERE request_id = ? AND status = ?`,
			string(models.InviteCancelled), now(), requestID, string(models.InvitePending))
		return err
	})
	if err != nil {
		return nil, err
	}

	return cancelled, nil
}

// SetAnswer records the speaker's answer. Valid from accepted (first answer)
// and from revision_requested (resubmission); the negotiation loop re-enters
// answered any number of times.
func (r *SQLiteRepo) SetAnswer(ctx context.Context, requestID, speakerID int64, text string) error {
	res, err := r.conn.Exec(ctx,
		`UPDATE request_invites SET answer_text = ?, status = ?, answer_accepted = 0, updated = ? WHERE request_id = ? AND speaker_id = ? AND status IN (?, ?)`,
		text, string(models.InviteAnswered), now(), requestID, speakerID,
		string(models.InviteAccepted), string(models.InviteRevisionRequested))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return r.inviteStateError(ctx, nil, requestID, speakerID, models.ErrInvalidNegotiationState)
	}

	return nil
}

func (r *SQLiteRepo) MarkRevisionRequested(ctx context.Context, requestID, speakerID int64) error {
	res, err := r.conn.Exec(ctx,
		`UPDATE request_invites SET status = ?, updated = ? WHERE request_id = ? AND speaker_id = ? AND status = ?`,
		string(models.InviteRevisionRequested), now(), requestID, speakerID, string(models.InviteAnswered))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return r.inviteStateError(ctx, nil, requestID, speakerID, models.ErrInvalidNegotiationState)
	}

	return nil
}

// AcceptAnswer closes the negotiation: the answered invite returns to accepted
// with the answer flagged, and the request completes, atomically.
func (r *SQLiteRepo) AcceptAnswer(ctx context.Context, requestID, speakerID int64) error {
	return r.conn.WithTx(ctx, func(tx *sql.Tx) error {
		ts := now()
		res, err := tx.ExecContext(ctx,
			`UPDATE request_invites SET status = ?, answer_accepted = 1, updated = ? WHERE request_id = ? AND speaker_id = ? AND status = ?`,
			string(models.InviteAccepted), ts, requestID, speakerID, string(models.InviteAnswered))
		if err != nil {
			return fmt.Errorf("accept answer: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return r.inviteStateError(ctx, tx, requestID, speakerID, models.ErrInvalidNegotiationState)
		}

		res, err = tx.ExecContext(ctx,
			`UPDATE requests SET status = ?, updated = ? WHERE id = ? AND status = ? AND chosen_speaker_id = ?`,
			string(models.RequestCompleted), ts, requestID, string(models.RequestInProgress), speakerID)
		if err != nil {
			return fmt.Errorf("complete request: %w", err)
		}
		n, err = res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			// an answered invite without a matching bound request means the
			// two records disagree; refuse rather than complete the wrong one
			return models.ErrInvalidNegotiationState
		}

		return nil
	})
}

// inviteStateError distinguishes a missing invite from one in the wrong state
// after a conditional update matched nothing. The read goes through the
// transaction when one is in flight.
func (r *SQLiteRepo) inviteStateError(ctx context.Context, tx *sql.Tx, requestID, speakerID int64, stateErr error) error {
	var status string
	var row *sql.Row
	if tx != nil {
		row = tx.QueryRowContext(ctx, `SELECT status FROM request_invites WHERE request_id = ? AND speaker_id = ?`, requestID, speakerID)
	} else {
		row = r.conn.QueryRow(ctx, `SELECT status FROM request_invites WHERE request_id = ? AND speaker_id = ?`, requestID, speakerID)
	}
	if err := row.Scan(&status); err != nil {
		if err == sql.ErrNoRows {
			return models.ErrNotFound
		}

		return err
	}

	return stateErr
}
