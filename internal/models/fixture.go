package models

// FixtureScore is the normalized score of a fixture as delivered by the feed
type FixtureScore struct {
	Home int `bson:"home" json:"home"`
	Away int `bson:"away" json:"away"`
}

// FixtureResultEvent is one update from the external score feed. Events for the
// same fixture arrive in non-decreasing recency; IsFT marks the final result.
type FixtureResultEvent struct {
	FixtureID string       `json:"fixtureId"`
	Score     FixtureScore `json:"score"`
	IsLive    bool         `json:"isLive"`
	IsFT      bool         `json:"isFT"`
}
