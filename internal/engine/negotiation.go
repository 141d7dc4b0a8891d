package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/presspool/presspool/pkg/models"
)

// The negotiation sub-protocol runs per bound invite, starting at accepted:
//
//	accepted            -- speaker answers   --> answered
//	answered            -- journalist revise --> revision_requested
//	revision_requested  -- speaker answers   --> answered
//	answered            -- journalist accept --> accepted + answer_accepted,
//	                                             request completed
//
// The accepted/answered/revision_requested loop has no bound; only the
// journalist's explicit acceptance terminates it. Deadlines are advisory
// metadata and never enforced here.

// SubmitAnswer records the bound speaker's answer and notifies the journalist.
func (e *Engine) SubmitAnswer(ctx context.Context, requestID, speakerID int64, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("answer text is required")
	}

	if err := e.withRetry(ctx, "submit answer", func() error {
		return e.invites.SetAnswer(ctx, requestID, speakerID, text)
	}); err != nil {
		return err
	}

	if req, err := e.requests.GetRequest(ctx, requestID); err == nil && req != nil {
		e.notify(ctx, req.JournalistID, models.NotifyAnswerSubmitted, requestID, req.Title, text)
	} else {
		e.logger.Error("load request after answer", "request_id", requestID, "err", err)
	}

	return nil
}

// RequestRevision sends the answer back to the speaker with a comment. The
// comment travels in the notification only; it is not persisted.
func (e *Engine) RequestRevision(ctx context.Context, requestID, speakerID int64, comment string) error {
	if err := e.withRetry(ctx, "request revision", func() error {
		return e.invites.MarkRevisionRequested(ctx, requestID, speakerID)
	}); err != nil {
		return err
	}

	if req, err := e.requests.GetRequest(ctx, requestID); err == nil && req != nil {
		e.notify(ctx, speakerID, models.NotifyRevisionRequested, requestID, req.Title, comment)
	} else {
		e.logger.Error("load request after revision", "request_id", requestID, "err", err)
	}

	return nil
}

// AcceptAnswer accepts the final answer, completing the request, and notifies
// the speaker.
func (e *Engine) AcceptAnswer(ctx context.Context, requestID, speakerID int64) error {
	if err := e.withRetry(ctx, "accept answer", func() error {
		return e.invites.AcceptAnswer(ctx, requestID, speakerID)
	}); err != nil {
		return err
	}

	if req, err := e.requests.GetRequest(ctx, requestID); err == nil && req != nil {
		e.notify(ctx, speakerID, models.NotifyAnswerAccepted, requestID, req.Title, "your answer was accepted")
	} else {
		e.logger.Error("load request after final acceptance", "request_id", requestID, "err", err)
	}

	return nil
}
