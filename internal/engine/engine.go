// Package engine owns the request/invite state machine: request creation and
// invite fan-out, first-acceptance-wins resolution, and the answer/revision
// negotiation that follows a bind. It is a library invoked by the presentation
// layer; delivery of notifications and storage details live behind the
// injected collaborators.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"log/slog"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/presspool/presspool/pkg/models"
	"github.com/presspool/presspool/pkg/repository"
)

// Notifier delivers a message to a user. Delivery is best-effort from the
// engine's point of view: a failure is logged, never rolled back into
// committed state, and one recipient's failure does not block another's.
type Notifier interface {
	Send(ctx context.Context, userID int64, n models.Notification) error
}

type Engine struct {
	requests repository.RequestRepo
	invites  repository.InviteRepo
	dir      repository.DirectoryRepo
	notifier Notifier
	logger   *slog.Logger
}

func New(requests repository.RequestRepo, invites repository.InviteRepo, dir repository.DirectoryRepo, notifier Notifier, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{requests: requests, invites: invites, dir: dir, notifier: notifier, logger: logger}
}

// CreateRequestInput carries the journalist's request fields plus an optional
// explicit speaker selection. An empty selection resolves the candidate set
// through the directory.
type CreateRequestInput struct {
	JournalistID int64
	SpecID       int64
	Title        string
	Deadline     string
	Format       string
	Content      string
	SpeakerIDs   []int64
}

// CreateRequest creates an open request and fans out one pending invite per
// candidate, atomically. Candidates are notified after the commit.
func (e *Engine) CreateRequest(ctx context.Context, in CreateRequestInput) (int64, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	if in.Title == "" {
		return 0, fmt.Errorf("%w: title is required", models.ErrInvalidInput)
	}
	if in.Content == "" {
		return 0, fmt.Errorf("%w: content is required", models.ErrInvalidInput)
	}

	candidates := lo.Uniq(in.SpeakerIDs)
	if len(candidates) == 0 {
		resolved, err := e.dir.CandidatesFor(ctx, in.SpecID)
		if err != nil {
			return 0, fmt.Errorf("resolve candidates: %w", err)
		}
		candidates = resolved
	}
	if len(candidates) == 0 {
		return 0, models.ErrEmptyCandidateSet
	}

	req := &models.Request{
		JournalistID: in.JournalistID,
		SpecID:       in.SpecID,
		Title:        in.Title,
		Deadline:     in.Deadline,
		Format:       in.Format,
		Content:      in.Content,
	}

	var requestID int64
	err := e.withRetry(ctx, "create request", func() error {
		id, err := e.requests.CreateRequestWithInvites(ctx, req, candidates)
		if err != nil {
			return err
		}
		requestID = id
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, sid := range candidates {
		e.notify(ctx, sid, models.NotifyInviteCreated, requestID, in.Title, in.Content)
	}

	return requestID, nil
}

// Accept resolves the acceptance race for one speaker. Exactly one Accept per
// request can succeed; the rest observe InviteNotPending or
// RequestAlreadyBound. After the bind commits, remaining pending invites are
// retracted and both the losers and the journalist are notified; that fan-out
// is outside the transaction and safe to repeat.
func (e *Engine) Accept(ctx context.Context, requestID, speakerID int64) error {
	if err := e.withRetry(ctx, "bind invite", func() error {
		return e.invites.BindInvite(ctx, requestID, speakerID)
	}); err != nil {
		return err
	}

	cancelled, err := e.invites.CancelPending(ctx, requestID)
	if err != nil {
		// the bind is committed; retraction will be retried by the next
		// CancelRemaining call, so report and move on
		e.logger.Error("cancel remaining invites", "request_id", requestID, "err", err)
	}

	req, err := e.requests.GetRequest(ctx, requestID)
	if err != nil || req == nil {
		e.logger.Error("load request after bind", "request_id", requestID, "err", err)
		return nil
	}

	for _, sid := range cancelled {
		e.notify(ctx, sid, models.NotifyInviteCancelled, requestID, req.Title, "the request was taken by another speaker")
	}
	e.notify(ctx, req.JournalistID, models.NotifyRequestBound, requestID, req.Title, "a speaker accepted your request")

	return nil
}

// Decline marks a pending invite declined. The request itself is untouched.
// Declining after the race already resolved returns InviteNotPending; callers
// present that as "too late", not as a fault.
func (e *Engine) Decline(ctx context.Context, requestID, speakerID int64) error {
	return e.withRetry(ctx, "decline invite", func() error {
		return e.invites.MarkDeclined(ctx, requestID, speakerID)
	})
}

// CancelRemaining retracts every still-pending invite of a request and, when
// the request is still open, cancels the request itself. Idempotent: a second
// call finds nothing pending and changes nothing.
func (e *Engine) CancelRemaining(ctx context.Context, requestID int64) error {
	req, err := e.requests.GetRequest(ctx, requestID)
	if err != nil {
		return fmt.Errorf("load request: %w", err)
	}
	if req == nil {
		return models.ErrNotFound
	}

	var cancelled []int64
	if err := e.withRetry(ctx, "cancel pending invites", func() error {
		ids, err := e.invites.CancelPending(ctx, requestID)
		if err != nil {
			return err
		}
		cancelled = ids
		return nil
	}); err != nil {
		return err
	}

	if _, err := e.requests.CancelRequestIfOpen(ctx, requestID); err != nil {
		return fmt.Errorf("cancel request: %w", err)
	}

	for _, sid := range cancelled {
		e.notify(ctx, sid, models.NotifyRequestCancelled, requestID, req.Title, "the request was withdrawn")
	}

	return nil
}

// GetRequest returns a request by id.
func (e *Engine) GetRequest(ctx context.Context, requestID int64) (*models.Request, error) {
	req, err := e.requests.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, models.ErrNotFound
	}
	return req, nil
}

// ListInvites returns every invite of a request.
func (e *Engine) ListInvites(ctx context.Context, requestID int64) ([]models.Invite, error) {
	if _, err := e.GetRequest(ctx, requestID); err != nil {
		return nil, err
	}
	return e.invites.ListInvites(ctx, requestID)
}

// ListRequestsFor returns the requests a user is involved in, from that
// user's side of the table.
func (e *Engine) ListRequestsFor(ctx context.Context, userID int64, role models.Role) ([]models.Request, []models.SpeakerRequest, error) {
	switch role {
	case models.RoleJournalist:
		reqs, err := e.requests.ListRequestsByJournalist(ctx, userID)
		return reqs, nil, err
	case models.RoleSpeaker:
		srs, err := e.requests.ListRequestsForSpeaker(ctx, userID)
		return nil, srs, err
	default:
		return nil, nil, fmt.Errorf("unknown role %q", role)
	}
}

// withRetry runs a store operation and retries it once on a transient failure.
// Deterministic business outcomes pass through untouched; a failure that
// survives the retry surfaces as StoreUnavailable.
func (e *Engine) withRetry(ctx context.Context, op string, fn func() error) error {
	err := fn()
	if err == nil || isDomainError(err) {
		return err
	}

	e.logger.Warn("store operation failed, retrying once", "op", op, "err", err)
	if err = fn(); err == nil || isDomainError(err) {
		return err
	}

	return fmt.Errorf("%s: %w: %v", op, models.ErrStoreUnavailable, err)
}

func isDomainError(err error) bool {
	return errors.Is(err, models.ErrNotFound) ||
		errors.Is(err, models.ErrInviteNotPending) ||
		errors.Is(err, models.ErrRequestAlreadyBound) ||
		errors.Is(err, models.ErrInvalidNegotiationState) ||
		errors.Is(err, models.ErrEmptyCandidateSet) ||
		errors.Is(err, models.ErrInvalidInput)
}

// notify sends one notification and logs a delivery failure. Fan-out callers
// invoke it per recipient, so one failed recipient never blocks the rest.
func (e *Engine) notify(ctx context.Context, userID int64, kind models.NotificationKind, requestID int64, title, body string) {
	n := models.Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		RequestID: requestID,
		Title:     title,
		Body:      body,
	}
	if err := e.notifier.Send(ctx, userID, n); err != nil {
		e.logger.Error("notification delivery failed",
			slog.Int64("user_id", userID),
			slog.String("kind", string(kind)),
			slog.Int64("request_id", requestID),
			slog.Any("err", err),
		)
	}
}
