// Package queue defines message payloads exchanged over the message broker.
package queue

// RoleGrantedEvent is published when an admin grants a role to a user.
// It carries enough context for the audit consumer to write a useful
// trail entry without querying the primary database.
type RoleGrantedEvent struct {
	UserID    uint64 `json:"user_id"`
	Role      string `json:"role"`
	GrantedBy uint64 `json:"granted_by"`
	GrantedAt string `json:"granted_at"`
}

// FarmerRegisteredEvent is published when a new farmer record is created.
type FarmerRegisteredEvent struct {
	FarmerID     uint64 `json:"farmer_id"`
	Email        string `json:"email"`
	FarmName     string `json:"farm_name"`
	RegisteredAt string `json:"registered_at"`
}
