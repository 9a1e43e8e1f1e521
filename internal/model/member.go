package model

import "time"

// Tour access levels. The owner is implicit; members are stored in
// tour_members with one of the crew roles.
const (
	AccessNone   = ""
	AccessOwner  = "owner"
	AccessAdmin  = "admin"
	AccessMember = "member"
)

// CanEdit reports whether an access level may modify the tour.
func CanEdit(access string) bool { return access == AccessOwner || access == AccessAdmin }

type TourMember struct {
	TourID   string    `json:"tour_id"`
	UserID   uint64    `json:"user_id"`
	Email    string    `json:"email"`
	Role     CrewRole  `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// Invitation asks someone to join a tour. Only the SHA-256 hash of the token
// is persisted; Token is populated once, when the invitation is created.
type Invitation struct {
	ID         string     `json:"id"`
	TourID     string     `json:"tour_id"`
	Email      string     `json:"email"`
	Role       CrewRole   `json:"role"`
	InvitedBy  uint64     `json:"invited_by"`
	Token      string     `json:"token,omitempty"`
	TokenHash  string     `json:"-"`
	ExpiresAt  time.Time  `json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (i Invitation) Expired(now time.Time) bool { return now.After(i.ExpiresAt) }
