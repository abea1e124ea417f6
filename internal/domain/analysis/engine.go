// internal/domain/analysis/engine.go

package analysis

import (
	"context"
	"time"

	"chanscope/internal/domain/channel"
)

// Engine runs the full relationship analysis for a focal channel
// against a set of related channels. It always returns a Report; a
// failed branch degrades to its empty default instead of aborting the
// call.
type Engine interface {
	Analyze(ctx context.Context, channelID int64, related []channel.Related, posts []channel.Post) (*Report, error)
}

// PostSource supplies posts for a channel. Implementations convert any
// failure into an empty sequence plus a logged error; they never crash
// the caller.
type PostSource interface {
	GetPosts(ctx context.Context, channelID string, limit int, since *time.Time) ([]channel.Post, error)
	GetChannelInfo(ctx context.Context, username string) (*channel.Channel, error)
}

// ConnectionSource supplies declared connections for a channel.
type ConnectionSource interface {
	GetConnections(ctx context.Context, channelID int64) ([]channel.Connection, error)
}

// Embedder is an optional sentence-embedding capability. A nil Embedder
// is a valid configuration state: the semantic similarity component
// degrades to zero.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}
