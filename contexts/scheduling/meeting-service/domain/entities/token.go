package entities

import "time"

// RoomTokenTTL is deliberately short: clients re-request immediately before
// joining, which bounds the blast radius of a leaked token.
const RoomTokenTTL = 180 * time.Second

// RoomToken is a single-use-style join credential. Tokens are never revoked
// early; multiple live tokens per user are permitted and the latest wins.
type RoomToken struct {
	TokenID   string
	MeetingID string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func RoomTokenValue(id string) string {
	return "vrt_" + id
}
