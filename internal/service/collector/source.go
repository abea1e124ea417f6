// internal/service/collector/source.go

package collector

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	twitter "github.com/g8rswimmer/go-twitter/v2"
	"go.uber.org/zap"

	"chanscope/internal/domain/analysis"
	"chanscope/internal/domain/channel"
)

const (
	apiHost        = "https://api.twitter.com"
	maxTimelineLen = 100
)

type bearerAuthorizer struct {
	token string
}

func (a bearerAuthorizer) Add(req *http.Request) {
	req.Header.Add("Authorization", "Bearer "+a.token)
}

// Source fetches channels and their posts from the platform API. It
// implements analysis.PostSource; channel IDs at this boundary are the
// platform usernames.
type Source struct {
	client   *twitter.Client
	interval time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	lastCall time.Time
}

// NewSource creates a collector source authenticated with the given
// bearer token.
func NewSource(bearerToken string, requestInterval time.Duration, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{
		client: &twitter.Client{
			Authorizer: bearerAuthorizer{token: bearerToken},
			Client:     &http.Client{Timeout: 15 * time.Second},
			Host:       apiHost,
		},
		interval: requestInterval,
		logger:   logger,
	}
}

var _ analysis.PostSource = (*Source)(nil)

// throttle spaces API calls at least interval apart. Concurrent
// callers are serialized so each one gets its own slot.
func (s *Source) throttle(ctx context.Context) error {
	if s.interval <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	wait := s.interval - time.Since(s.lastCall)
	if wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.lastCall = time.Now()
	return nil
}

// GetChannelInfo looks up a channel's profile by username.
func (s *Source) GetChannelInfo(ctx context.Context, username string) (*channel.Channel, error) {
	if err := s.throttle(ctx); err != nil {
		return nil, err
	}

	opts := twitter.UserLookupOpts{
		UserFields: []twitter.UserField{
			twitter.UserFieldDescription,
			twitter.UserFieldPublicMetrics,
			twitter.UserFieldVerified,
			twitter.UserFieldCreatedAt,
		},
	}

	resp, err := s.client.UserNameLookup(ctx, []string{username}, opts)
	if err != nil {
		return nil, fmt.Errorf("error looking up channel %q: %w", username, err)
	}
	if resp.Raw == nil || len(resp.Raw.Users) == 0 {
		return nil, fmt.Errorf("channel %q not found", username)
	}

	user := resp.Raw.Users[0]
	c := &channel.Channel{
		ExternalID:  user.ID,
		Username:    user.UserName,
		Name:        user.Name,
		Description: user.Description,
		Verified:    user.Verified,
		LastUpdated: time.Now(),
	}
	if user.PublicMetrics != nil {
		c.SubscribersCount = user.PublicMetrics.Followers
		c.PostsCount = user.PublicMetrics.Tweets
	}
	if created, err := time.Parse(time.RFC3339, user.CreatedAt); err == nil {
		c.CreatedAt = created
	}

	return c, nil
}

// GetPosts fetches the channel's recent timeline. Collection failures
// degrade to an empty slice so analysis of already-stored data can
// still proceed; the error is surfaced for callers that need it.
func (s *Source) GetPosts(ctx context.Context, username string, limit int, since *time.Time) ([]channel.Post, error) {
	info, err := s.GetChannelInfo(ctx, username)
	if err != nil {
		s.logger.Warn("channel lookup failed, returning no posts",
			zap.String("username", username), zap.Error(err))
		return []channel.Post{}, err
	}

	if err := s.throttle(ctx); err != nil {
		return []channel.Post{}, err
	}

	if limit <= 0 || limit > maxTimelineLen {
		limit = maxTimelineLen
	}
	opts := twitter.UserTweetTimelineOpts{
		MaxResults: limit,
		TweetFields: []twitter.TweetField{
			twitter.TweetFieldCreatedAt,
			twitter.TweetFieldPublicMetrics,
		},
	}
	if since != nil {
		opts.StartTime = *since
	}

	resp, err := s.client.UserTweetTimeline(ctx, info.ExternalID, opts)
	if err != nil {
		s.logger.Warn("timeline fetch failed, returning no posts",
			zap.String("username", username), zap.Error(err))
		return []channel.Post{}, fmt.Errorf("error fetching timeline for %q: %w", username, err)
	}
	if resp.Raw == nil {
		return []channel.Post{}, nil
	}

	posts := make([]channel.Post, 0, len(resp.Raw.Tweets))
	for _, tweet := range resp.Raw.Tweets {
		p := channel.Post{
			ExternalID: tweet.ID,
			Text:       tweet.Text,
		}
		if published, err := time.Parse(time.RFC3339, tweet.CreatedAt); err == nil {
			p.PublishedAt = published
		}
		if tweet.PublicMetrics != nil {
			// Impression counts need elevated API access; likes stand
			// in for views.
			p.Views = tweet.PublicMetrics.Likes
			p.Forwards = tweet.PublicMetrics.Retweets
		}
		posts = append(posts, p)
	}

	return posts, nil
}
