// internal/domain/channel/model.go

package channel

import (
	"time"
)

// Channel represents a content-publishing entity whose posts and
// connections are analyzed.
type Channel struct {
	ID               int64     `json:"id"`
	ExternalID       string    `json:"external_id"`
	Username         string    `json:"username"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	SubscribersCount int       `json:"subscribers_count"`
	PostsCount       int       `json:"posts_count"`
	Theme            string    `json:"theme"`
	Language         string    `json:"language"`
	Verified         bool      `json:"verified"`
	DailyPostsAvg    float64   `json:"daily_posts_avg"`
	EngagementRate   float64   `json:"engagement_rate"`
	CreatedAt        time.Time `json:"created_at"`
	LastPostDate     time.Time `json:"last_post_date"`
	LastUpdated      time.Time `json:"last_updated"`
}

// Post is an immutable input record for analysis. The engine never
// mutates or persists it; its lifecycle is owned by the caller.
type Post struct {
	ID          int64     `json:"id"`
	ChannelID   int64     `json:"channel_id"`
	ExternalID  string    `json:"external_id"`
	Text        string    `json:"text"`
	PublishedAt time.Time `json:"published_at"`
	Views       int       `json:"views"`
	Forwards    int       `json:"forwards"`

	// MediaFingerprint is set only for posts carrying media.
	MediaFingerprint *string `json:"media_fingerprint,omitempty"`
}

// HasTimestamp reports whether the post carries a usable publish time.
func (p Post) HasTimestamp() bool {
	return !p.PublishedAt.IsZero()
}

// Connection is a declared relationship between two channels with a
// strength in [0,1] and a type tag.
type Connection struct {
	ID             int64          `json:"id"`
	SourceID       int64          `json:"source_id"`
	TargetID       int64          `json:"target_id"`
	ConnectionType string         `json:"connection_type"`
	Strength       float64        `json:"strength"`
	Confidence     float64        `json:"confidence"`
	Evidence       map[string]any `json:"evidence,omitempty"`
	FirstDetected  time.Time      `json:"first_detected"`
	LastUpdated    time.Time      `json:"last_updated"`
}

// Related bundles a related channel with its posts and the existing
// connection record linking it to the focal channel.
type Related struct {
	Channel    Channel     `json:"channel"`
	Posts      []Post      `json:"posts"`
	Connection *Connection `json:"connection,omitempty"`
}

// Filter defines criteria for listing channels.
type Filter struct {
	Theme      string
	OnlyActive bool
	Verified   *bool
	Limit      int
	Offset     int
}
