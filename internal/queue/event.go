// Package queue defines the broker payloads and the consumer that turns
// invitation events into the mail outbox.
package queue

// InvitationQueue is the durable queue invitation events are routed to.
const InvitationQueue = "invitation.created"

// InvitationCreatedEvent is published when a tour owner or admin invites
// someone by e-mail. It carries everything a mailer needs, including the raw
// token, so the consumer never queries the database.
type InvitationCreatedEvent struct {
	InvitationID string `json:"invitation_id"`
	TourID       string `json:"tour_id"`
	TourName     string `json:"tour_name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	InvitedBy    uint64 `json:"invited_by"`
	Token        string `json:"token"`
	ExpiresAt    string `json:"expires_at"`
	CreatedAt    string `json:"created_at"`
}
