// Package model defines the domain data structures shared across handlers,
// the hub, and the database layer.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is the authorization level of a user account.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// CanModerate reports whether the role may handle reports and remove listings.
func (r Role) CanModerate() bool {
	return r == RoleModerator || r == RoleAdmin
}

// User is a registered account.
type User struct {
	UserID    uuid.UUID `json:"id"`
	Username  string    `json:"name"`
	Email     string    `json:"-"`
	Image     string    `json:"image,omitempty"`
	Role      Role      `json:"-"`
	BannedAt  *time.Time
	CreatedAt time.Time
}

// ListingStatus is the lifecycle state of a listing.
type ListingStatus string

const (
	ListingActive   ListingStatus = "active"
	ListingSold     ListingStatus = "sold"
	ListingArchived ListingStatus = "archived"
	ListingRemoved  ListingStatus = "removed"
)

// Listing is a classified ad posted by a seller.
type Listing struct {
	ListingID   uuid.UUID
	SellerID    uuid.UUID
	CategoryID  uuid.UUID
	Title       string
	Description string
	PriceCents  int64
	Status      ListingStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Joined fields, populated by list queries.
	SellerName   string
	CategoryName string
}

// Category groups listings.
type Category struct {
	CategoryID uuid.UUID
	Name       string
	Slug       string
	CreatedAt  time.Time
}

// Question is a forum thread opener.
type Question struct {
	QuestionID  uuid.UUID
	AuthorID    uuid.UUID
	Title       string
	Body        string
	CreatedAt   time.Time
	AuthorName  string
	AnswerCount int
}

// Answer is a reply to a question, votable by non-authors.
type Answer struct {
	AnswerID   uuid.UUID
	QuestionID uuid.UUID
	AuthorID   uuid.UUID
	Body       string
	Accepted   bool
	CreatedAt  time.Time
	AuthorName string

	Upvotes   int
	Downvotes int
	// UserVote is nil for no-vote, true for upvote, false for downvote.
	// Populated per requesting user.
	UserVote *bool
}

// Conversation is a message thread between a fixed participant set,
// optionally bound to a listing.
type Conversation struct {
	ConversationID uuid.UUID
	ListingID      *uuid.UUID
	CreatedAt      time.Time

	ListingTitle string
	PeerName     string
	UnreadCount  int
	LastMessage  string
	LastActivity time.Time
}

// Message is a chat message inside a conversation. Immutable once created.
type Message struct {
	MessageID      uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"-"`
	SenderID       uuid.UUID `json:"-"`
	Content        string    `json:"content"`
	ClientToken    string    `json:"clientToken,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	Sender         User      `json:"sender"`
}

// NotificationKind tags what produced a notification.
type NotificationKind string

const (
	NotifAnswer         NotificationKind = "answer"
	NotifMessage        NotificationKind = "message"
	NotifReportResolved NotificationKind = "report_resolved"
)

// Notification is a per-user inbox entry backing the unread badge.
type Notification struct {
	NotificationID uuid.UUID
	UserID         uuid.UUID
	Kind           NotificationKind
	Payload        []byte
	ReadAt         *time.Time
	CreatedAt      time.Time
}

// ReportTarget is the kind of entity a report points at.
type ReportTarget string

const (
	TargetListing  ReportTarget = "listing"
	TargetQuestion ReportTarget = "question"
	TargetAnswer   ReportTarget = "answer"
	TargetUser     ReportTarget = "user"
)

// ReportStatus is the moderation state of a report.
type ReportStatus string

const (
	ReportOpen      ReportStatus = "open"
	ReportResolved  ReportStatus = "resolved"
	ReportDismissed ReportStatus = "dismissed"
)

// Report is a user-filed complaint handled by moderators.
type Report struct {
	ReportID     uuid.UUID
	ReporterID   uuid.UUID
	TargetKind   ReportTarget
	TargetID     uuid.UUID
	Reason       string
	Status       ReportStatus
	ResolvedBy   *uuid.UUID
	CreatedAt    time.Time
	ResolvedAt   *time.Time
	ReporterName string
}

// Setting is a site-wide key/value configuration row.
type Setting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}
