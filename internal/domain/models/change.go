package models

import "time"

// AssetChange is one journal entry written after a successful mutation.
type AssetChange struct {
	AssetID   string     `bson:"asset_id,omitempty" json:"asset_id,omitempty"`
	AssetCode string     `bson:"asset_code" json:"asset_code"`
	Action    string     `bson:"action" json:"action"`
	ActorID   string     `bson:"actor_id" json:"actor_id"`
	Actor     string     `bson:"actor" json:"actor"`
	Payload   AssetWrite `bson:"payload" json:"payload"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
}

// Change actions recorded in the journal.
const (
	ChangeInsert = "insert"
	ChangeUpdate = "update"
)
