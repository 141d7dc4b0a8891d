package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/presspool/presspool/pkg/models"
)

// Request methods

// CreateRequestWithInvites inserts the request and one pending invite per
// speaker inside a single transaction, so a request with partial fan-out is
// never observable.
func (r *SQLiteRepo) CreateRequestWithInvites(ctx context.Context, req *models.Request, speakerIDs []int64) (int64, error) {
	if req == nil {
		return 0, fmt.Errorf("request is nil")
	}
	if len(speakerIDs) == 0 {
		return 0, models.ErrEmptyCandidateSet
	}

	var requestID int64
	err := r.conn.WithTx(ctx, func(tx *sql.Tx) error {
		ts := now()
		res, err := tx.ExecContext(ctx,
			`INSERT INTO requests (journalist_id, spec_id, title, deadline, format, content, status, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			req.JournalistID, req.SpecID, req.Title, req.Deadline, req.Format, req.Content, string(models.RequestOpen), ts, ts)
		if err != nil {
			return fmt.Errorf("insert request: %w", err)
		}
		requestID, err = res.LastInsertId()
		if err != nil {
			return err
		}

		for _, sid := range speakerIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO request_invites (request_id, speaker_id, status, answer_accepted, updated) VALUES (?, ?, ?, 0, ?)`,
				requestID, sid, string(models.InvitePending), ts); err != nil {
				return fmt.Errorf("insert invite for speaker %d: %w", sid, err)
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return requestID, nil
}

func (r *SQLiteRepo) GetRequest(ctx context.Context, id int64) (*models.Request, error) {
	row := r.conn.QueryRow(ctx,
		`SELECT id, journalist_id, spec_id, title, deadline, format, content, status, chosen_speaker_id, created, updated FROM requests WHERE id = ?`, id)
	return scanRequest(row.Scan)
}

func (r *SQLiteRepo) ListRequestsByJournalist(ctx context.Context, journalistID int64) ([]models.Request, error) {
	rows, err := r.conn.QueryRows(ctx,
		`SELECT id, journalist_id, spec_id, title, deadline, format, content, status, chosen_speaker_id, created, updated FROM requests WHERE journalist_id = ? ORDER BY created DESC`, journalistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Request
	for rows.Next() {
		req, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, err
		}

		out = append(out, *req)
	}

	return out, rows.Err()
}

// ListRequestsForSpeaker returns the requests a speaker takes part in. Invites
// the speaker lost or declined are filtered out, as are requests still open
// (the speaker sees those as plain invites, not work in progress).
func (r *SQLiteRepo) ListRequestsForSpeaker(ctx context.Context, speakerID int64) ([]models.SpeakerRequest, error) {
	rows, err := r.conn.QueryRows(ctx, `
		SELECT r.id, r.title, r.deadline, r.status, i.status, i.answer_text, i.answer_accepted
		  FROM request_invites AS i
		  JOIN requests AS r ON i.request_id = r.id
		 WHERE i.speaker_id = ?
		   AND i.status NOT IN ('declined', 'cancelled')
		   AND r.status != 'open'
		 ORDER BY r.created DESC`, speakerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SpeakerRequest
	for rows.Next() {
		var sr models.SpeakerRequest
		var reqStatus, invStatus string
		var deadline, answer sql.NullString
		var accepted int
		if err := rows.Scan(&sr.RequestID, &sr.Title, &deadline, &reqStatus, &invStatus, &answer, &accepted); err != nil {
			return nil, err
		}

		sr.RequestStatus = models.RequestStatus(reqStatus)
		sr.InviteStatus = models.InviteStatus(invStatus)
		sr.AnswerAccepted = accepted != 0
		if deadline.Valid {
			sr.Deadline = deadline.String
		}
		if answer.Valid {
			sr.AnswerText = answer.String
		}
		out = append(out, sr)
	}

	return out, rows.Err()
}

// CancelRequestIfOpen flips a still-open request to cancelled. Returns false
// without error when the request already left the open state, which makes
// repeated cancellation a no-op.
func (r *SQLiteRepo) CancelRequestIfOpen(ctx context.Context, id int64) (bool, error) {
	res, err := r.conn.Exec(ctx,
		`UPDATE requests SET status = ?, updated = ? WHERE id = ? AND status = ?`,
		string(models.RequestCancelled), now(), id, string(models.RequestOpen))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func scanRequest(scan func(dest ...any) error) (*models.Request, error) {
	var req models.Request
	var status string
	var deadline, format, content sql.NullString
	var chosen sql.NullInt64
	if err := scan(&req.ID, &req.JournalistID, &req.SpecID, &req.Title, &deadline, &format, &content, &status, &chosen, &req.Created, &req.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	req.Status = models.RequestStatus(status)
	if deadline.Valid {
		req.Deadline = deadline.String
	}
	if format.Valid {
		req.Format = format.String
	}
	if content.Valid {
		req.Content = content.String
	}
	if chosen.Valid {
		v := chosen.Int64
		req.ChosenSpeakerID = &v
	}

	return &req, nil
}
