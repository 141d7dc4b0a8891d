package mock

import (
	"context"
	"sync"

	"github.com/presspool/presspool/pkg/models"
)

// Test helpers and mocks. Store keeps requests and invites in memory behind a
// single mutex so concurrent callers observe the same compare-and-set
// semantics the sqlite implementation provides.
type Mocks struct {
	Store    *Store
	Dir      *DirectoryStub
	Notifier *NotifierRecorder
	Users    *UserStore
	Specs    *SpecializationStore
}

func NewMocks() *Mocks {
	return &Mocks{
		Store:    NewStore(),
		Dir:      &DirectoryStub{Contacts: map[int64]string{}},
		Notifier: &NotifierRecorder{},
		Users:    &UserStore{byID: map[int64]*models.User{}},
		Specs:    NewSpecializationStore(),
	}
}

type inviteKey struct {
	requestID int64
	speakerID int64
}

// Store implements repository.RequestRepo and repository.InviteRepo in memory.
type Store struct {
	mu       sync.Mutex
	nextID   int64
	requests map[int64]*models.Request
	invites  map[inviteKey]*models.Invite

	// CreateErr fails the next CreateRequestWithInvites calls until cleared.
	CreateErr error
	// FailuresLeft makes the next N state-changing calls fail with FailErr
	// before succeeding, for exercising the retry path.
	FailuresLeft int
	FailErr      error
}

func NewStore() *Store {
	return &Store{
		nextID:   0,
		requests: map[int64]*models.Request{},
		invites:  map[inviteKey]*models.Invite{},
	}
}

func (s *Store) failOnce() error {
	if s.FailuresLeft > 0 {
		s.FailuresLeft--
		return s.FailErr
	}
	return nil
}

func (s *Store) CreateRequestWithInvites(ctx context.Context, r *models.Request, speakerIDs []int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return 0, s.CreateErr
	}
	if err := s.failOnce(); err != nil {
		return 0, err
	}
	if len(speakerIDs) == 0 {
		return 0, models.ErrEmptyCandidateSet
	}
	s.nextID++
	cp := *r
	cp.ID = s.nextID
	cp.Status = models.RequestOpen
	s.requests[cp.ID] = &cp
	for _, sid := range speakerIDs {
		s.invites[inviteKey{cp.ID, sid}] = &models.Invite{
			RequestID: cp.ID,
			SpeakerID: sid,
			Status:    models.InvitePending,
		}
	}
	return cp.ID, nil
}

func (s *Store) GetRequest(ctx context.Context, id int64) (*models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (s *Store) ListRequestsByJournalist(ctx context.Context, journalistID int64) ([]models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Request
	for _, r := range s.requests {
		if r.JournalistID == journalistID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *Store) ListRequestsForSpeaker(ctx context.Context, speakerID int64) ([]models.SpeakerRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SpeakerRequest
	for k, inv := range s.invites {
		if k.speakerID != speakerID {
			continue
		}
		if inv.Status == models.InviteDeclined || inv.Status == models.InviteCancelled {
			continue
		}
		r := s.requests[k.requestID]
		if r.Status == models.RequestOpen {
			continue
		}
		out = append(out, models.SpeakerRequest{
			RequestID:      r.ID,
			Title:          r.Title,
			Deadline:       r.Deadline,
			RequestStatus:  r.Status,
			InviteStatus:   inv.Status,
			AnswerText:     inv.AnswerText,
			AnswerAccepted: inv.AnswerAccepted,
		})
	}
	return out, nil
}

func (s *Store) CancelRequestIfOpen(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok || r.Status != models.RequestOpen {
		return false, nil
	}
	r.Status = models.RequestCancelled
	return true, nil
}

func (s *Store) GetInvite(ctx context.Context, requestID, speakerID int64) (*models.Invite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invites[inviteKey{requestID, speakerID}]
	if !ok {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}

func (s *Store) ListInvites(ctx context.Context, requestID int64) ([]models.Invite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Invite
	for k, inv := range s.invites {
		if k.requestID == requestID {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (s *Store) BindInvite(ctx context.Context, requestID, speakerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failOnce(); err != nil {
		return err
	}
	inv, ok := s.invites[inviteKey{requestID, speakerID}]
	if !ok {
		return models.ErrNotFound
	}
	if inv.Status != models.InvitePending {
		return models.ErrInviteNotPending
	}
	r := s.requests[requestID]
	if r.Status != models.RequestOpen || r.ChosenSpeakerID != nil {
		return models.ErrRequestAlreadyBound
	}
	inv.Status = models.InviteAccepted
	r.Status = models.RequestInProgress
	sid := speakerID
	r.ChosenSpeakerID = &sid
	return nil
}

func (s *Store) MarkDeclined(ctx context.Context, requestID, speakerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failOnce(); err != nil {
		return err
	}
	inv, ok := s.invites[inviteKey{requestID, speakerID}]
	if !ok {
		return models.ErrNotFound
	}
	if inv.Status != models.InvitePending {
		return models.ErrInviteNotPending
	}
	inv.Status = models.InviteDeclined
	return nil
}

func (s *Store) CancelPending(ctx context.Context, requestID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failOnce(); err != nil {
		return nil, err
	}
	var cancelled []int64
	for k, inv := range s.invites {
		if k.requestID == requestID && inv.Status == models.InvitePending {
			inv.Status = models.InviteCancelled
			cancelled = append(cancelled, k.speakerID)
		}
	}
	return cancelled, nil
}

func (s *Store) SetAnswer(ctx context.Context, requestID, speakerID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failOnce(); err != nil {
		return err
	}
	inv, ok := s.invites[inviteKey{requestID, speakerID}]
	if !ok {
		return models.ErrNotFound
	}
	if inv.Status != models.InviteAccepted && inv.Status != models.InviteRevisionRequested {
		return models.ErrInvalidNegotiationState
	}
	inv.Status = models.InviteAnswered
	inv.AnswerText = text
	inv.AnswerAccepted = false
	return nil
}

func (s *Store) MarkRevisionRequested(ctx context.Context, requestID, speakerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failOnce(); err != nil {
		return err
	}
	inv, ok := s.invites[inviteKey{requestID, speakerID}]
	if !ok {
		return models.ErrNotFound
	}
	if inv.Status != models.InviteAnswered {
		return models.ErrInvalidNegotiationState
	}
	inv.Status = models.InviteRevisionRequested
	return nil
}

func (s *Store) AcceptAnswer(ctx context.Context, requestID, speakerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failOnce(); err != nil {
		return err
	}
	inv, ok := s.invites[inviteKey{requestID, speakerID}]
	if !ok {
		return models.ErrNotFound
	}
	if inv.Status != models.InviteAnswered {
		return models.ErrInvalidNegotiationState
	}
	r := s.requests[requestID]
	if r.Status != models.RequestInProgress || r.ChosenSpeakerID == nil || *r.ChosenSpeakerID != speakerID {
		return models.ErrInvalidNegotiationState
	}
	inv.Status = models.InviteAccepted
	inv.AnswerAccepted = true
	r.Status = models.RequestCompleted
	return nil
}

// DirectoryStub implements repository.DirectoryRepo with fixed data.
type DirectoryStub struct {
	Candidates []int64
	Contacts   map[int64]string
	Err        error
}

func (d *DirectoryStub) CandidatesFor(ctx context.Context, specID int64) ([]int64, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	return d.Candidates, nil
}

func (d *DirectoryStub) ContactOf(ctx context.Context, userID int64) (string, error) {
	if d.Err != nil {
		return "", d.Err
	}
	return d.Contacts[userID], nil
}

// SentNotification records one Notifier.Send call.
type SentNotification struct {
	UserID       int64
	Notification models.Notification
}

// NotifierRecorder captures engine notifications for assertions.
type NotifierRecorder struct {
	mu   sync.Mutex
	Sent []SentNotification
	Err  error
}

func (n *NotifierRecorder) Send(ctx context.Context, userID int64, notif models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.Sent = append(n.Sent, SentNotification{UserID: userID, Notification: notif})
	return nil
}

// ByKind returns the recorded sends with the given kind.
func (n *NotifierRecorder) ByKind(kind models.NotificationKind) []SentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []SentNotification
	for _, s := range n.Sent {
		if s.Notification.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

// UserStore implements repository.UserRepo in memory.
type UserStore struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.User

	CreateErr error
}

func (u *UserStore) CreateUser(ctx context.Context, user *models.User) (int64, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.CreateErr != nil {
		return 0, u.CreateErr
	}
	u.nextID++
	cp := *user
	cp.ID = u.nextID
	u.byID[cp.ID] = &cp
	return cp.ID, nil
}

func (u *UserStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	usr, ok := u.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *usr
	return &cp, nil
}

func (u *UserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, usr := range u.byID {
		if usr.Email == email {
			cp := *usr
			return &cp, nil
		}
	}
	return nil, nil
}

func (u *UserStore) SetUserActive(ctx context.Context, id int64, active bool) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	usr, ok := u.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	usr.Active = active
	return nil
}

func (u *UserStore) DeleteUser(ctx context.Context, id int64) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.byID, id)
	return nil
}

// SpecializationStore implements repository.SpecializationRepo in memory.
type SpecializationStore struct {
	mu       sync.Mutex
	nextID   int64
	byName   map[string]int64
	assigned map[int64][]int64

	Err error
}

func NewSpecializationStore() *SpecializationStore {
	return &SpecializationStore{byName: map[string]int64{}, assigned: map[int64][]int64{}}
}

func (s *SpecializationStore) AddSpecialization(ctx context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	if id, ok := s.byName[name]; ok {
		return id, nil
	}
	s.nextID++
	s.byName[name] = s.nextID
	return s.nextID, nil
}

func (s *SpecializationStore) GetSpecializationByName(ctx context.Context, name string) (*models.Specialization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	id, ok := s.byName[name]
	if !ok {
		return nil, nil
	}
	return &models.Specialization{ID: id, Name: name}, nil
}

func (s *SpecializationStore) ListSpecializations(ctx context.Context) ([]models.Specialization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []models.Specialization
	for name, id := range s.byName {
		out = append(out, models.Specialization{ID: id, Name: name})
	}
	return out, nil
}

func (s *SpecializationStore) AssignSpecialization(ctx context.Context, userID, specID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, id := range s.assigned[userID] {
		if id == specID {
			return nil
		}
	}
	s.assigned[userID] = append(s.assigned[userID], specID)
	return nil
}

// Assigned returns the specialization ids tagged on a user.
func (s *SpecializationStore) Assigned(userID int64) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, len(s.assigned[userID]))
	copy(out, s.assigned[userID])
	return out
}

// JobQueue implements repository.JobRepo in memory, FIFO.
type JobQueue struct {
	mu     sync.Mutex
	nextID int64
	Jobs   []*models.BackgroundJob
	Dead   []*models.BackgroundJob

	EnqueueErr error
}

func (q *JobQueue) Enqueue(ctx context.Context, j *models.BackgroundJob) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.EnqueueErr != nil {
		return 0, q.EnqueueErr
	}
	q.nextID++
	j.ID = q.nextID
	j.Status = "pending"
	q.Jobs = append(q.Jobs, j)
	return j.ID, nil
}

func (q *JobQueue) FetchNext(ctx context.Context) (*models.BackgroundJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, j := range q.Jobs {
		if j.Status == "pending" || j.Status == "retry" {
			j.Status = "running"
			return j, nil
		}
	}
	return nil, nil
}

func (q *JobQueue) UpdateJob(ctx context.Context, j *models.BackgroundJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, existing := range q.Jobs {
		if existing.ID == j.ID {
			q.Jobs[i] = j
			return nil
		}
	}
	return models.ErrNotFound
}

// DeadLetters returns a snapshot of the dead letter queue.
func (q *JobQueue) DeadLetters() []*models.BackgroundJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*models.BackgroundJob, len(q.Dead))
	copy(out, q.Dead)
	return out
}

func (q *JobQueue) MoveToDeadLetter(ctx context.Context, j *models.BackgroundJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, existing := range q.Jobs {
		if existing.ID == j.ID {
			q.Jobs = append(q.Jobs[:i], q.Jobs[i+1:]...)
			break
		}
	}
	q.Dead = append(q.Dead, j)
	return nil
}
