package domain

import (
	"slices"
	"time"
)

// Thread is a named or unnamed multi-party conversation. It owns its
// participant set; only current participants may read or change it.
type Thread struct {
	ID           int64     `json:"id,string" bson:"_id"`
	Name         string    `json:"name,omitempty" bson:"name,omitempty"`
	Participants []int64   `json:"participants" bson:"participants"`
	CreatedBy    int64     `json:"created_by,string" bson:"created_by"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// HasParticipant reports whether userID is a current member.
func (t *Thread) HasParticipant(userID int64) bool {
	return slices.Contains(t.Participants, userID)
}

// UniqueParticipants returns ids with duplicates and zero ids removed, keeping first-seen order.
func UniqueParticipants(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
