package models

import "time"

// CommunityEntry promotes a script into the public community feed under an
// anonymous name.
type CommunityEntry struct {
	ID                string    `db:"id" json:"id"`
	ScriptID          string    `db:"script_id" json:"scriptId"`
	AnonymousUsername string    `db:"anonymous_username" json:"anonymousUsername"`
	Likes             int       `db:"likes" json:"likes"`
	Shares            int       `db:"shares" json:"shares"`
	IsVisible         int       `db:"is_visible" json:"isVisible"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
}

// CommunityScript is a feed entry joined with the script it points at.
type CommunityScript struct {
	CommunityEntry
	Script Script `json:"script"`
}
