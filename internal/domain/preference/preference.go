// Package preference holds learned per-user style weights and the update
// rule that adapts them from feedback.
package preference

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/okian/garb/internal/domain/model"
	"github.com/okian/garb/pkg/logger"
	"github.com/okian/garb/pkg/metrics"
)

// Update rule constants.
const (
	defaultLearningRate = 0.1

	// rejectionSentiment is assumed when a rejection arrives without an
	// explicit sentiment score.
	rejectionSentiment = -0.5

	minAffinity = -1.0
	maxAffinity = 1.0
)

// Profile is a user's learned style weights. Affinities are signed scores
// in [-1,1]; zero means no learned signal. Strictness scales how heavily
// color clashes count against candidates for this user.
type Profile struct {
	UserID     string             `json:"user_id"`
	Colors     map[string]float64 `json:"colors"`
	Patterns   map[string]float64 `json:"patterns"`
	StyleTags  map[string]float64 `json:"style_tags"`
	Strictness float64            `json:"strictness"`
	Feedbacks  int                `json:"feedbacks"`
	UpdatedAt  time.Time          `json:"updated_at,omitzero"`
}

// NewProfile returns a neutral profile for a user.
func NewProfile(userID string) Profile {
	return Profile{
		UserID:     userID,
		Colors:     map[string]float64{},
		Patterns:   map[string]float64{},
		StyleTags:  map[string]float64{},
		Strictness: 1.0,
	}
}

// clone returns a deep copy so callers never observe in-place mutation.
func (p Profile) clone() Profile {
	out := p
	out.Colors = copyAffinities(p.Colors)
	out.Patterns = copyAffinities(p.Patterns)
	out.StyleTags = copyAffinities(p.StyleTags)
	return out
}

func copyAffinities(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// ColorAffinity returns the learned affinity for a color, zero if unseen.
func (p Profile) ColorAffinity(color string) float64 {
	return p.Colors[normalize(color)]
}

// PatternAffinity returns the learned affinity for a pattern, zero if unseen.
func (p Profile) PatternAffinity(pat model.Pattern) float64 {
	return p.Patterns[string(pat)]
}

// TagAffinity returns the learned affinity for a style tag, zero if unseen.
func (p Profile) TagAffinity(tag string) float64 {
	return p.StyleTags[normalize(tag)]
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithLearningRate sets the feedback learning rate.
func WithLearningRate(rate float64) Option {
	return func(s *Store) {
		if rate > 0 && rate <= 1 {
			s.learningRate = rate
		}
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(lg logger.Logger) Option {
	return func(s *Store) {
		if lg != nil {
			s.logger = lg
		}
	}
}

// Store keeps one Profile per user. Reads never fail: unknown users get a
// neutral default. Writes for the same user are serialized; writes for
// different users proceed in parallel (per-user locking, last-applied-wins).
type Store struct {
	mu           sync.RWMutex
	profiles     map[string]Profile
	userLocks    map[string]*sync.Mutex
	learningRate float64
	logger       logger.Logger
}

// NewStore creates a preference store with configuration options.
func NewStore(opts ...Option) *Store {
	s := &Store{
		profiles:     make(map[string]Profile),
		userLocks:    make(map[string]*sync.Mutex),
		learningRate: defaultLearningRate,
		logger:       logger.Get().Named("preference"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the profile for a user, or a neutral default if none exists.
// The returned profile is a copy; mutating it has no effect on the store.
func (s *Store) Get(_ context.Context, userID string) Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return NewProfile(userID)
	}
	return p.clone()
}

// userLock returns the mutex serializing writes for one user.
func (s *Store) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.userLocks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.userLocks[userID] = l
	}
	return l
}

// ApplyFeedback folds one feedback event into the user's profile and
// returns the updated profile. For every color, pattern, and style tag in
// the candidate the affinity moves by
//
//	learningRate * sentiment * (1 - |affinity|)
//
// The damping term keeps affinities inside [-1,1] and gives diminishing
// returns as confidence grows.
func (s *Store) ApplyFeedback(ctx context.Context, userID string, ev model.FeedbackEvent, candidate model.OutfitCandidate) (Profile, error) {
	if err := validate(ev); err != nil {
		metrics.RecordFeedbackRejected()
		return Profile{}, err
	}

	sentiment := ev.Sentiment
	if !ev.HasSentiment {
		switch ev.Outcome {
		case model.OutcomeRejected:
			sentiment = rejectionSentiment
		case model.OutcomeAccepted, model.OutcomeNeutral:
			sentiment = 0
		}
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	p, ok := s.profiles[userID]
	s.mu.RUnlock()
	if !ok {
		p = NewProfile(userID)
	} else {
		p = p.clone()
	}

	for _, it := range candidate.AllItems() {
		for _, color := range it.Colors() {
			adjust(p.Colors, normalize(color), sentiment, s.learningRate)
		}
		if it.Pattern != "" {
			adjust(p.Patterns, string(it.Pattern), sentiment, s.learningRate)
		}
		for _, tag := range it.StyleTags {
			adjust(p.StyleTags, normalize(tag), sentiment, s.learningRate)
		}
	}

	p.Feedbacks++
	p.UpdatedAt = ev.ReceivedAt

	s.mu.Lock()
	s.profiles[userID] = p
	s.mu.Unlock()

	metrics.RecordFeedbackApplied(string(ev.Outcome))
	s.logger.Debug(ctx, "feedback applied",
		logger.String("user", userID),
		logger.String("outcome", string(ev.Outcome)),
		logger.Float64("sentiment", sentiment),
		logger.Int("feedbacks", p.Feedbacks),
	)

	return p.clone(), nil
}

// adjust applies the damped update rule to one affinity entry.
func adjust(m map[string]float64, key string, sentiment, rate float64) {
	if key == "" {
		return
	}
	cur := m[key]
	damp := 1 - abs(cur)
	next := cur + rate*sentiment*damp
	m[key] = clamp(next)
}

func validate(ev model.FeedbackEvent) error {
	if !ev.Outcome.Valid() {
		return fmt.Errorf("%w: unknown outcome %q", ErrInvalidFeedback, ev.Outcome)
	}
	if ev.HasSentiment && (ev.Sentiment < minAffinity || ev.Sentiment > maxAffinity) {
		return fmt.Errorf("%w: sentiment %.2f out of range", ErrInvalidFeedback, ev.Sentiment)
	}
	return nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(v float64) float64 {
	if v < minAffinity {
		return minAffinity
	}
	if v > maxAffinity {
		return maxAffinity
	}
	return v
}
