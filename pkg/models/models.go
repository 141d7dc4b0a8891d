package models

import (
	"encoding/json"
	"time"
)

// Domain models matching the database schema in db/migrations/0001_init.sql

// Role identifies what a user can do in the system.
type Role string

const (
	RoleJournalist Role = "journalist"
	RoleSpeaker    Role = "speaker"
	RoleAdmin      Role = "admin"
)

// RequestStatus is the lifecycle status of a press request.
type RequestStatus string

const (
	RequestOpen       RequestStatus = "open"
	RequestInProgress RequestStatus = "in_progress"
	RequestCompleted  RequestStatus = "completed"
	RequestCancelled  RequestStatus = "cancelled"
)

// InviteStatus is the lifecycle status of a speaker invite.
type InviteStatus string

const (
	InvitePending           InviteStatus = "pending"
	InviteAccepted          InviteStatus = "accepted"
	InviteDeclined          InviteStatus = "declined"
	InviteCancelled         InviteStatus = "cancelled"
	InviteAnswered          InviteStatus = "answered"
	InviteRevisionRequested InviteStatus = "revision_requested"
)

// Active reports whether the invite currently holds the request. At most one
// invite per request may ever be in one of these states.
func (s InviteStatus) Active() bool {
	return s == InviteAccepted || s == InviteAnswered || s == InviteRevisionRequested
}

type User struct {
	ID           int64  `json:"id" db:"id"`
	Contact      string `json:"contact" db:"contact"`
	Username     string `json:"username" db:"username"`
	DisplayName  string `json:"display_name,omitempty" db:"display_name"`
	Email        string `json:"email" db:"email"`
	Role         Role   `json:"role" db:"role"`
	Tariff       string `json:"tariff,omitempty" db:"tariff"`
	Active       bool   `json:"active" db:"is_active"`
	PasswordHash string `json:"-" db:"password_hash"`
	Updated      int64  `json:"updated" db:"updated"`
}

type Specialization struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type Request struct {
	ID              int64         `json:"id" db:"id"`
	JournalistID    int64         `json:"journalist_id" db:"journalist_id"`
	SpecID          int64         `json:"spec_id" db:"spec_id"`
	Title           string        `json:"title" db:"title"`
	Deadline        string        `json:"deadline,omitempty" db:"deadline"`
	Format          string        `json:"format,omitempty" db:"format"`
	Content         string        `json:"content" db:"content"`
	Status          RequestStatus `json:"status" db:"status"`
	ChosenSpeakerID *int64        `json:"chosen_speaker_id,omitempty" db:"chosen_speaker_id"`
	Created         int64         `json:"created" db:"created"`
	Updated         int64         `json:"updated" db:"updated"`
}

type Invite struct {
	RequestID      int64        `json:"request_id" db:"request_id"`
	SpeakerID      int64        `json:"speaker_id" db:"speaker_id"`
	Status         InviteStatus `json:"status" db:"status"`
	AnswerText     string       `json:"answer_text,omitempty" db:"answer_text"`
	AnswerAccepted bool         `json:"answer_accepted" db:"answer_accepted"`
	Updated        int64        `json:"updated" db:"updated"`
}

// SpeakerRequest is the speaker-side view of a request the speaker takes part
// in: request fields joined with that speaker's invite state.
type SpeakerRequest struct {
	RequestID      int64         `json:"request_id"`
	Title          string        `json:"title"`
	Deadline       string        `json:"deadline,omitempty"`
	RequestStatus  RequestStatus `json:"request_status"`
	InviteStatus   InviteStatus  `json:"invite_status"`
	AnswerText     string        `json:"answer_text,omitempty"`
	AnswerAccepted bool          `json:"answer_accepted"`
}

// NotificationKind names the event a notification reports.
type NotificationKind string

const (
	NotifyInviteCreated     NotificationKind = "invite.created"
	NotifyInviteCancelled   NotificationKind = "invite.cancelled"
	NotifyRequestBound      NotificationKind = "request.bound"
	NotifyRequestCancelled  NotificationKind = "request.cancelled"
	NotifyAnswerSubmitted   NotificationKind = "answer.submitted"
	NotifyRevisionRequested NotificationKind = "revision.requested"
	NotifyAnswerAccepted    NotificationKind = "answer.accepted"
)

// Notification is what the engine hands to the Notifier. The delivery channel
// is the notifier's concern; the engine only fills in the facts.
type Notification struct {
	ID        string           `json:"id"`
	Kind      NotificationKind `json:"kind"`
	RequestID int64            `json:"request_id"`
	Title     string           `json:"title,omitempty"`
	Body      string           `json:"body,omitempty"`
}

type BackgroundJob struct {
	ID          int64           `json:"id"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	Status      string          `json:"status"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	Priority    int             `json:"priority"`
	ScheduledAt time.Time       `json:"scheduled_at"`
	NextTryAt   *time.Time      `json:"next_try_at,omitempty"`
	LastError   string          `json:"last_error,omitempty"`
	Created     time.Time       `json:"created"`
	Updated     time.Time       `json:"updated"`
}
