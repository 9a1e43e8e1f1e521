package model

import "time"

type CrewRole string

const (
	CrewAdmin  CrewRole = "admin"
	CrewMember CrewRole = "member"
)

func (r CrewRole) Valid() bool { return r == CrewAdmin || r == CrewMember }

type Crew struct {
	ID        string           `json:"id"`
	OwnerID   uint64           `json:"owner_id,omitempty"`
	Name      string           `json:"name"`
	Members   []CrewMemberLink `json:"members"`
	Documents []CrewDocument   `json:"documents"`
	CreatedAt time.Time        `json:"created_at"`
}

// CrewMemberLink ties a person to a crew. UserID is zero for people who do
// not have an account yet.
type CrewMemberLink struct {
	ID       string   `json:"id"`
	CrewID   string   `json:"crew_id"`
	UserID   uint64   `json:"user_id,omitempty"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Position string   `json:"position"` // e.g. FOH, monitors, backline tech
	Role     CrewRole `json:"role"`
}

// CrewDocument shares a document with every member of a crew.
type CrewDocument struct {
	CrewID     string    `json:"crew_id"`
	DocumentID string    `json:"document_id"`
	Name       string    `json:"name"`
	Type       DocType   `json:"type"`
	SharedAt   time.Time `json:"shared_at"`
}
