// internal/domain/analysis/model.go

package analysis

import (
	"time"
)

// DuplicateType classifies how two posts relate.
type DuplicateType string

const (
	DuplicateExact    DuplicateType = "exact"
	DuplicateSemantic DuplicateType = "semantic"
	DuplicateTextual  DuplicateType = "textual"
	DuplicatePartial  DuplicateType = "partial"
)

// SimilarityScore holds the sub-scores and weighted overall score for a
// single text pair. Ephemeral; computed per pair, never stored.
type SimilarityScore struct {
	TFIDF    float64 `json:"tfidf"`
	Semantic float64 `json:"semantic"`
	Lexical  float64 `json:"lexical"`
	Overall  float64 `json:"overall"`
}

// DuplicatePair records two posts whose similarity crossed the
// duplicate threshold.
type DuplicatePair struct {
	Post1ID         int64           `json:"post1_id"`
	Post2ID         int64           `json:"post2_id"`
	Similarity      SimilarityScore `json:"similarity_metrics"`
	TimeDiffMinutes float64         `json:"time_diff_minutes"`
	DuplicateType   DuplicateType   `json:"duplicate_type"`
}

// DuplicateAnalysis summarises duplicate detection over one channel.
type DuplicateAnalysis struct {
	TotalDuplicates int             `json:"total_duplicates"`
	Duplicates      []DuplicatePair `json:"duplicates"`
	DuplicateRate   float64         `json:"duplicate_rate"`
}

// ChannelSimilarity aggregates pairwise post similarity between the
// focal channel and one related channel.
type ChannelSimilarity struct {
	ChannelID           int64   `json:"channel_id"`
	ChannelName         string  `json:"channel_name"`
	AverageSimilarity   float64 `json:"average_similarity"`
	MaxSimilarity       float64 `json:"max_similarity"`
	HighSimilarityCount int     `json:"high_similarity_count"`
}

// Topic is a latent topic with its top keywords, most-weighted first.
type Topic struct {
	ID       int      `json:"id"`
	Keywords []string `json:"keywords"`
	Weight   float64  `json:"weight"`
}

// TopicModel is the result of topic extraction over a corpus.
type TopicModel struct {
	Topics            []Topic     `json:"topics"`
	TopicDistribution [][]float64 `json:"topic_distribution"`
}

// ContentResult is the content branch output.
type ContentResult struct {
	DuplicateAnalysis  DuplicateAnalysis   `json:"duplicate_analysis"`
	SimilarityAnalysis []ChannelSimilarity `json:"similarity_analysis"`
	TopicAnalysis      TopicModel          `json:"topic_analysis"`
}

// PostingPatterns describes a channel's own temporal shape.
type PostingPatterns struct {
	HourlyDistribution  map[int]int `json:"hourly_distribution"`
	PeakHours           []int       `json:"peak_hours"`
	TotalPosts          int         `json:"total_posts"`
	AveragePostsPerHour float64     `json:"average_posts_per_hour"`
}

// SyncPair is one synchronized cross-channel posting pair.
type SyncPair struct {
	Post1ID         int64     `json:"post1_id"`
	Post2ID         int64     `json:"post2_id"`
	TimeDiffMinutes float64   `json:"time_diff_minutes"`
	Post1Date       time.Time `json:"post1_date"`
	Post2Date       time.Time `json:"post2_date"`
}

// SequenceAnalysis captures which channel tends to publish first.
type SequenceAnalysis struct {
	TotalPairs             int     `json:"total_pairs"`
	Channel1LeadsCount     int     `json:"channel1_leads_count,omitempty"`
	Channel2LeadsCount     int     `json:"channel2_leads_count,omitempty"`
	AverageLeadTimeMinutes float64 `json:"average_lead_time_minutes,omitempty"`
	DominantLeader         string  `json:"dominant_leader,omitempty"`
}

// ActivityPatterns holds the peak hours of both sides of a correlation.
type ActivityPatterns struct {
	Channel1PeakHours []int `json:"channel1_peak_hours"`
	Channel2PeakHours []int `json:"channel2_peak_hours"`
}

// RelatedRef identifies the related channel a correlation was computed
// against.
type RelatedRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Correlation is the temporal correlation between two channels.
type Correlation struct {
	HourlyCorrelation float64          `json:"hourly_correlation"`
	CorrelationPValue float64          `json:"correlation_p_value"`
	SynchronizedPosts int              `json:"synchronized_posts"`
	SyncDetails       []SyncPair       `json:"sync_details"`
	SequenceAnalysis  SequenceAnalysis `json:"sequence_analysis"`
	ActivityPatterns  ActivityPatterns `json:"activity_patterns"`
	RelatedChannel    RelatedRef       `json:"related_channel"`
}

// TemporalResult is the temporal branch output.
type TemporalResult struct {
	PostingPatterns PostingPatterns `json:"posting_patterns"`
	Correlations    []Correlation   `json:"correlations"`
}

// CentralityReport holds every per-node network metric.
type CentralityReport struct {
	Degree                int            `json:"degree"`
	WeightedDegree        float64        `json:"weighted_degree"`
	DegreeCentrality      float64        `json:"degree_centrality"`
	BetweennessCentrality float64        `json:"betweenness_centrality"`
	ClosenessCentrality   float64        `json:"closeness_centrality"`
	EigenvectorCentrality float64        `json:"eigenvector_centrality"`
	PageRank              float64        `json:"pagerank"`
	ClusteringCoefficient float64        `json:"clustering_coefficient"`
	Neighbors             []int64        `json:"neighbors"`
	ConnectionTypes       map[string]int `json:"connection_types"`
	StrongConnections     int            `json:"strong_connections"`
	TotalConnections      int            `json:"total_connections"`
}

// Community is a detected group of channels.
type Community struct {
	Members []int64 `json:"members"`
	Size    int     `json:"size"`
	Density float64 `json:"density"`
}

// CommunityReport is the output of approximate community detection.
// ModularityApprox is the internal-edge fraction, not the formal
// network-science modularity measure.
type CommunityReport struct {
	Communities      map[int]Community `json:"communities"`
	ModularityApprox float64           `json:"modularity_approx"`
	CommunityCount   int               `json:"community_count"`
}

// GraphStats summarises the analyzed graph.
type GraphStats struct {
	NodesCount  int     `json:"nodes_count"`
	EdgesCount  int     `json:"edges_count"`
	Density     float64 `json:"density"`
	IsConnected bool    `json:"is_connected"`
}

// NetworkResult is the network branch output.
type NetworkResult struct {
	Metrics     CentralityReport `json:"metrics"`
	Communities CommunityReport  `json:"communities"`
	GraphStats  GraphStats       `json:"graph_stats"`
}

// RelationshipSummary is the fused per-channel verdict.
type RelationshipSummary struct {
	TotalConnections  int            `json:"total_connections"`
	StrongConnections int            `json:"strong_connections"`
	ConnectionTypes   map[string]int `json:"connection_types"`
	ConfidenceScore   float64        `json:"confidence_score"`
	KeyInsights       []string       `json:"key_insights"`
}

// Report is the full analysis output for one focal channel. Every field
// serialises to primitive JSON types; no engine internals leak through
// this boundary.
type Report struct {
	ChannelID         int64               `json:"channel_id"`
	AnalysisTimestamp time.Time           `json:"analysis_timestamp"`
	Content           ContentResult       `json:"content_analysis"`
	Temporal          TemporalResult      `json:"temporal_analysis"`
	Network           NetworkResult       `json:"network_analysis"`
	Summary           RelationshipSummary `json:"relationship_summary"`
}

// TaskStatus tracks a stored analysis task's lifecycle.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// Task is a persisted analysis run.
type Task struct {
	ID          string     `json:"task_id"`
	ChannelID   int64      `json:"channel_id"`
	Status      TaskStatus `json:"status"`
	Report      *Report    `json:"report,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   time.Time  `json:"started_at,omitempty"`
	CompletedAt time.Time  `json:"completed_at,omitempty"`
}
