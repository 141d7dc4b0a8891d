package repository

import (
	"context"

	"github.com/presspool/presspool/pkg/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.
//
// The state-changing invite methods are compare-and-sets: each one performs
// its precondition check and write inside a single transaction and returns the
// matching models error kind when the precondition no longer holds.

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SetUserActive(ctx context.Context, id int64, active bool) error
	DeleteUser(ctx context.Context, id int64) error
}

type SpecializationRepo interface {
	AddSpecialization(ctx context.Context, name string) (int64, error)
	GetSpecializationByName(ctx context.Context, name string) (*models.Specialization, error)
	ListSpecializations(ctx context.Context) ([]models.Specialization, error)
	AssignSpecialization(ctx context.Context, userID, specID int64) error
}

// DirectoryRepo resolves candidate speaker sets and contact handles. Speakers
// with no declared specialization count as generalists, eligible for every
// specialization.
type DirectoryRepo interface {
	CandidatesFor(ctx context.Context, specID int64) ([]int64, error)
	ContactOf(ctx context.Context, userID int64) (string, error)
}

type RequestRepo interface {
	// CreateRequestWithInvites inserts the request and one pending invite per
	// speaker in a single transaction; partial fan-out is never observable.
	CreateRequestWithInvites(ctx context.Context, r *models.Request, speakerIDs []int64) (int64, error)
	GetRequest(ctx context.Context, id int64) (*models.Request, error)
	ListRequestsByJournalist(ctx context.Context, journalistID int64) ([]models.Request, error)
	ListRequestsForSpeaker(ctx context.Context, speakerID int64) ([]models.SpeakerRequest, error)
	// CancelRequestIfOpen flips a still-open request to cancelled. Returns
	// false without error when the request already left the open state.
	CancelRequestIfOpen(ctx context.Context, id int64) (bool, error)
}

type InviteRepo interface {
	GetInvite(ctx context.Context, requestID, speakerID int64) (*models.Invite, error)
	ListInvites(ctx context.Context, requestID int64) ([]models.Invite, error)
	// BindInvite resolves the acceptance race: pending invite -> accepted and
	// open request -> in_progress with the chosen speaker, atomically. Exactly
	// one caller per request can succeed.
	BindInvite(ctx context.Context, requestID, speakerID int64) error
	MarkDeclined(ctx context.Context, requestID, speakerID int64) error
	// CancelPending cancels every pending invite of the request and returns
	// the speaker ids that were cancelled. Idempotent.
	CancelPending(ctx context.Context, requestID int64) ([]int64, error)
	SetAnswer(ctx context.Context, requestID, speakerID int64, text string) error
	MarkRevisionRequested(ctx context.Context, requestID, speakerID int64) error
	// AcceptAnswer finalizes the negotiation: answered invite -> accepted with
	// the answer flagged, request -> completed, atomically.
	AcceptAnswer(ctx context.Context, requestID, speakerID int64) error
}

type JobRepo interface {
	Enqueue(ctx context.Context, j *models.BackgroundJob) (int64, error)
	FetchNext(ctx context.Context) (*models.BackgroundJob, error)
	UpdateJob(ctx context.Context, j *models.BackgroundJob) error
	MoveToDeadLetter(ctx context.Context, j *models.BackgroundJob) error
}
