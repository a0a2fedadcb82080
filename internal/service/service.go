package service

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yusakuma/feed-service/internal/analytics"
	"github.com/yusakuma/feed-service/internal/cache"
	"github.com/yusakuma/feed-service/internal/catalog"
	"github.com/yusakuma/feed-service/internal/domain"
	"github.com/yusakuma/feed-service/internal/feed"
	"github.com/yusakuma/feed-service/internal/recommend"
	"github.com/yusakuma/feed-service/internal/repository"
	"github.com/yusakuma/feed-service/internal/visibility"
)

const (
	defaultLimit     = 20
	maxLimit         = 50
	batchConcurrency = 10
	batchFeedLimit   = 20
)

type Service struct {
	catalog   *catalog.Catalog
	repo      *repository.Repository
	cache     *cache.Cache
	tracker   *recommend.Tracker
	engine    *recommend.Engine
	composer  *feed.Composer
	analytics *analytics.Client
	sessCfg   feed.SessionConfig

	mu       sync.Mutex
	sessions map[string]*feed.Session
}

func NewService(
	cat *catalog.Catalog,
	repo *repository.Repository,
	cache *cache.Cache,
	tracker *recommend.Tracker,
	engine *recommend.Engine,
	composer *feed.Composer,
	analytics *analytics.Client,
	sessCfg feed.SessionConfig,
) *Service {
	return &Service{
		catalog:   cat,
		repo:      repo,
		cache:     cache,
		tracker:   tracker,
		engine:    engine,
		composer:  composer,
		analytics: analytics,
		sessCfg:   sessCfg,
		sessions:  map[string]*feed.Session{},
	}
}

// RegisterViewer issues a new anonymous viewer identity.
func (s *Service) RegisterViewer(ctx context.Context) (string, error) {
	viewerID := uuid.NewString()
	if err := s.repo.CreateViewer(ctx, viewerID); err != nil {
		return "", fmt.Errorf("register viewer: %w", err)
	}
	return viewerID, nil
}

type FeedResult struct {
	Cycle    int
	Slots    []feed.RenderedSlot
	CacheHit bool
}

// Feed appends and returns the next cycle of the viewer's feed. The ordering
// comes from the cached ranking when fresh, otherwise from the engine.
func (s *Service) Feed(ctx context.Context, viewerID string, limit int) (*FeedResult, error) {
	if limit <= 0 {
		limit = defaultLimit
	} else if limit > maxLimit {
		limit = maxLimit
	}

	exists, err := s.repo.ViewerExists(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("fetch viewer: %w", err)
	}
	if !exists {
		return nil, domain.ErrViewerNotFound
	}

	ordered, cacheHit := s.rankedVideos(ctx, viewerID, limit)

	sess := s.session(viewerID)
	cycle, slots, err := sess.Extend(ordered)
	if err != nil {
		return nil, err
	}

	return &FeedResult{Cycle: cycle, Slots: slots, CacheHit: cacheHit}, nil
}

// rankedVideos resolves the viewer's feed ordering, consulting the cache
// first. Cache failures degrade to recomputation, never to an error.
func (s *Service) rankedVideos(ctx context.Context, viewerID string, limit int) ([]domain.VideoRecord, bool) {
	cached, found, err := s.cache.Get(ctx, viewerID, limit)
	if err != nil {
		log.Printf("[service] cache get error for viewer %s: %v", viewerID, err)
	}
	if found {
		ordered := make([]domain.VideoRecord, 0, len(cached))
		for _, rv := range cached {
			if v, ok := s.catalog.Get(rv.VideoID); ok {
				ordered = append(ordered, *v)
			}
		}
		if len(ordered) > 0 {
			return ordered, true
		}
	}

	profile := s.tracker.Profile(ctx, viewerID)
	ranked := s.engine.Rank(s.catalog.Videos(), profile, func(videoID string) bool {
		return s.tracker.HasWatched(ctx, viewerID, videoID)
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	ordered := make([]domain.VideoRecord, len(ranked))
	entries := make([]domain.RankedVideo, len(ranked))
	for i, r := range ranked {
		ordered[i] = r.Video
		entries[i] = domain.RankedVideo{VideoID: r.Video.ID, Score: r.Score}
	}
	if cacheErr := s.cache.Set(ctx, viewerID, limit, entries); cacheErr != nil {
		log.Printf("[service] cache set error for viewer %s: %v", viewerID, cacheErr)
	}
	return ordered, false
}

// Observe routes an intersection observation to the viewer's card and applies
// any resulting behavior events.
func (s *Service) Observe(ctx context.Context, viewerID, slotID string, obs visibility.Observation) ([]visibility.Directive, error) {
	sess, ok := s.lookupSession(viewerID)
	if !ok {
		return nil, domain.ErrViewerNotFound
	}
	outcomes, err := sess.Observe(slotID, obs)
	if err != nil {
		return nil, err
	}
	s.applyOutcomes(ctx, viewerID, outcomes)

	directives := make([]visibility.Directive, 0, len(outcomes))
	for _, out := range outcomes {
		if out.Directive.Kind != visibility.DirectiveNone {
			directives = append(directives, out.Directive)
		}
	}
	return directives, nil
}

func (s *Service) applyOutcomes(ctx context.Context, viewerID string, outcomes []visibility.Outcome) {
	invalidate := false
	for _, out := range outcomes {
		if out.Event == nil {
			continue
		}
		if !out.Weighted {
			s.tracker.LogEvent(ctx, viewerID, *out.Event)
			continue
		}
		if video, ok := s.catalog.Get(out.Event.VideoID); ok {
			s.tracker.Record(ctx, viewerID, *out.Event, video)
			invalidate = true
		}
	}
	if invalidate {
		s.invalidate(ctx, viewerID)
	}
}

// Click records an explicit CTA activation on a card.
func (s *Service) Click(ctx context.Context, viewerID, slotID string) error {
	sess, ok := s.lookupSession(viewerID)
	if !ok {
		return domain.ErrViewerNotFound
	}
	event, video, err := sess.Click(slotID, time.Now())
	if err != nil {
		return err
	}
	if video != nil {
		s.tracker.Record(ctx, viewerID, event, video)
		s.invalidate(ctx, viewerID)
	}
	return nil
}

// EmbedFailed degrades a card to its fallback affordance.
func (s *Service) EmbedFailed(ctx context.Context, viewerID, slotID string) (visibility.Directive, error) {
	sess, ok := s.lookupSession(viewerID)
	if !ok {
		return visibility.Directive{}, domain.ErrViewerNotFound
	}
	return sess.EmbedFailed(slotID)
}

// Like sets the viewer's liked marker for a video.
func (s *Service) Like(ctx context.Context, viewerID, videoID string) error {
	if _, ok := s.catalog.Get(videoID); !ok {
		return domain.ErrVideoNotFound
	}
	s.tracker.MarkLiked(ctx, viewerID, videoID)
	return nil
}

type ClickMeta struct {
	Country   string
	UserAgent string
	Referrer  string
}

// Redirect resolves the offer URL behind a video id and records the
// click-out. Recording failures never block the redirect.
func (s *Service) Redirect(ctx context.Context, videoID string, meta ClickMeta) (string, error) {
	video, ok := s.catalog.Get(videoID)
	if !ok || video.Offer.URL == "" {
		return "", domain.ErrVideoNotFound
	}

	if err := s.repo.RecordClick(ctx, repository.ClickEvent{
		VideoID:   videoID,
		Country:   meta.Country,
		UserAgent: meta.UserAgent,
		Referrer:  meta.Referrer,
	}); err != nil {
		log.Printf("[service] record click for video %s: %v", videoID, err)
	}
	s.analytics.ClickOut(videoID, meta.Country, meta.UserAgent, meta.Referrer)

	return video.Offer.URL, nil
}

// Videos returns the validated catalog for the manifest endpoint.
func (s *Service) Videos() []domain.VideoRecord {
	return s.catalog.Videos()
}

// WarmFeeds precomputes feed orderings for a page of viewers concurrently
// with a bounded worker pool.
func (s *Service) WarmFeeds(ctx context.Context, page, limit int) (*domain.BatchResponse, error) {
	start := time.Now()

	viewerIDs, err := s.repo.GetViewerIDsPaginated(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch viewer ids: %w", err)
	}

	totalViewers, err := s.repo.CountViewers(ctx)
	if err != nil {
		return nil, fmt.Errorf("count viewers: %w", err)
	}

	results := make([]domain.BatchViewerResult, len(viewerIDs))
	var wg sync.WaitGroup
	sem := make(chan struct{}, batchConcurrency) // semaphore

	for i, viewerID := range viewerIDs {
		wg.Add(1)
		go func(idx int, vid string) {
			defer wg.Done()
			sem <- struct{}{}        // acquire
			defer func() { <-sem }() // release

			ordered, _ := s.rankedVideos(ctx, vid, batchFeedLimit)
			results[idx] = domain.BatchViewerResult{
				ViewerID:  vid,
				SlotCount: len(ordered),
				Status:    domain.StatusSuccess,
			}
		}(i, viewerID)
	}
	wg.Wait()

	successCount := 0
	failedCount := 0
	for _, r := range results {
		if r.Status == domain.StatusSuccess {
			successCount++
		} else {
			failedCount++
		}
	}

	elapsed := time.Since(start).Milliseconds()

	return &domain.BatchResponse{
		Page:         page,
		Limit:        limit,
		TotalViewers: totalViewers,
		Results:      results,
		Summary: domain.BatchSummary{
			SuccessCount:     successCount,
			FailedCount:      failedCount,
			ProcessingTimeMs: elapsed,
		},
		Metadata: domain.BatchMeta{
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}

func (s *Service) invalidate(ctx context.Context, viewerID string) {
	if err := s.cache.ClearViewerCache(ctx, viewerID); err != nil {
		log.Printf("[service] cache invalidation error for viewer %s: %v", viewerID, err)
	}
}

func (s *Service) session(viewerID string) *feed.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[viewerID]
	if !ok {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		sess = feed.NewSession(s.composer, rng, s.sessCfg)
		s.sessions[viewerID] = sess
	}
	return sess
}

func (s *Service) lookupSession(viewerID string) (*feed.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[viewerID]
	return sess, ok
}
