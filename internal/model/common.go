// Package model defines the entities of the listing domain.
//
// Entities are plain data holders that know how to validate themselves.
// They never talk to storage and never check permissions; the service layer
// does both.
package model

import (
	"time"

	"github.com/rs/xid"
)

// CommonFields is embedded by value in every entity. encoding/json, the
// validator and the repositories all flatten it, so its fields appear
// alongside the entity's own.
type CommonFields struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newCommonFields() CommonFields {
	now := Now()
	return CommonFields{
		ID:        xid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Now returns the current time in UTC, which is how every timestamp is stored.
func Now() time.Time {
	return time.Now().UTC()
}
