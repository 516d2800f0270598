package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/prosiga/enrollment-gateway/internal/models"
	"github.com/prosiga/enrollment-gateway/pkg/config"
	appErrors "github.com/prosiga/enrollment-gateway/pkg/errors"
)

const periodsCacheKey = "prosiga:periods"

type catalogUpstream interface {
	ListPeriods(ctx context.Context, token string) ([]models.AcademicPeriod, error)
	SearchSections(ctx context.Context, token string, periodID int64, filter string) ([]models.ClassSection, error)
}

// CatalogItem pairs a fetched section with its eligibility classification.
type CatalogItem struct {
	models.ClassSection
	Classification Classification `json:"classification"`
}

// CatalogView is the user-visible result of the latest catalog query.
// Superseded marks a response that lost the debounce race: the items shown
// belong to the newest resolved query, never to the stale one.
type CatalogView struct {
	PeriodID   int64         `json:"period_id"`
	Filter     string        `json:"filter,omitempty"`
	Items      []CatalogItem `json:"items"`
	Superseded bool          `json:"-"`
}

// queryState is the per-user debounce state machine. seq is bumped on every
// Query call; only the response whose sequence is still the newest resolved
// one may update the visible snapshot.
type queryState struct {
	seq         uint64
	resolvedSeq uint64
	view        *CatalogView
	lastErr     *appErrors.Error
	touchedAt   time.Time
}

// CatalogService answers period and section queries, debouncing bursts of
// keystroke-driven searches so only the last request in an idle window
// reaches the backend and updates visible state.
type CatalogService struct {
	upstream catalogUpstream
	cache    *redis.Client
	cfg      config.CatalogConfig
	metrics  *MetricsService
	logger   *zap.Logger

	mu     sync.Mutex
	states map[string]*queryState

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewCatalogService constructs a CatalogService. The Redis client is
// optional; without it every periods call goes upstream.
func NewCatalogService(up catalogUpstream, cache *redis.Client, cfg config.CatalogConfig, metrics *MetricsService, logger *zap.Logger) *CatalogService {
	if cfg.StateTTL <= 0 {
		cfg.StateTTL = 2 * time.Hour
	}
	if cfg.ReaperInterval <= 0 {
		cfg.ReaperInterval = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		upstream: up,
		cache:    cache,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
		states:   make(map[string]*queryState),
	}
}

// Start launches the idle state reaper. Safe to call once.
func (s *CatalogService) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.reaper()
	s.started = true
}

// Stop cancels the reaper and waits for it to exit.
func (s *CatalogService) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.started = false
	s.mu.Unlock()
	s.wg.Wait()
}

// Periods lists the available academic periods, most recent first, cached
// under a shared key since the listing is not caller-specific.
func (s *CatalogService) Periods(ctx context.Context, session *models.SessionClaims) ([]models.AcademicPeriod, error) {
	if session == nil || session.Token == "" {
		return nil, appErrors.ErrAuthenticationMissing
	}

	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, periodsCacheKey).Bytes(); err == nil {
			var periods []models.AcademicPeriod
			if err := json.Unmarshal(raw, &periods); err == nil {
				s.metrics.ObserveCacheLookup(true)
				return periods, nil
			}
		}
		s.metrics.ObserveCacheLookup(false)
	}

	periods, err := s.upstream.ListPeriods(ctx, session.Token)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(periods); err == nil {
			if err := s.cache.Set(ctx, periodsCacheKey, raw, s.cfg.PeriodsTTL).Err(); err != nil {
				s.logger.Warn("periods cache write failed", zap.Error(err))
			}
		}
	}
	return periods, nil
}

// Query performs a debounced catalog search. Calls superseded while waiting
// out the debounce window, or whose response arrives after a newer query
// resolved, are discarded; such callers receive the latest resolved view
// flagged as superseded (last write wins).
func (s *CatalogService) Query(ctx context.Context, session *models.SessionClaims, periodID int64, filter string) (*CatalogView, error) {
	if session == nil || session.Token == "" {
		return nil, appErrors.ErrAuthenticationMissing
	}
	if periodID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "academic period is required")
	}

	s.mu.Lock()
	st := s.state(session.Subject)
	st.seq++
	mySeq := st.seq
	s.mu.Unlock()

	s.metrics.ObserveCatalogQuery()

	if superseded := s.waitDebounce(ctx, session.Subject, mySeq); superseded {
		return s.supersededView(session.Subject), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNetwork.Code, appErrors.ErrNetwork.Status, "catalog query cancelled")
	}

	sections, err := s.upstream.SearchSections(ctx, session.Token, periodID, filter)

	s.mu.Lock()
	defer s.mu.Unlock()

	if mySeq < st.seq || mySeq < st.resolvedSeq {
		// A newer query was issued (or already resolved) while this one was
		// in flight; its late result must not become visible.
		s.metrics.ObserveStaleCatalogResponse()
		return s.supersededViewLocked(st), nil
	}

	st.resolvedSeq = mySeq
	if err != nil {
		st.view = nil
		st.lastErr = appErrors.FromError(err)
		return nil, err
	}

	items := make([]CatalogItem, 0, len(sections))
	for _, section := range sections {
		items = append(items, CatalogItem{ClassSection: section, Classification: Classify(section)})
	}
	st.view = &CatalogView{PeriodID: periodID, Filter: filter, Items: items}
	st.lastErr = nil
	return st.view, nil
}

// Snapshot returns the user's latest resolved view, or the error that
// replaced it.
func (s *CatalogService) Snapshot(userID string) (*CatalogView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[userID]
	if !ok {
		return nil, nil
	}
	if st.lastErr != nil {
		return nil, st.lastErr
	}
	return st.view, nil
}

// waitDebounce pauses for the configured window and reports whether a newer
// query arrived in the meantime.
func (s *CatalogService) waitDebounce(ctx context.Context, userID string, mySeq uint64) bool {
	if s.cfg.DebounceWindow > 0 {
		timer := time.NewTimer(s.cfg.DebounceWindow)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[userID]
	if !ok {
		return false
	}
	return mySeq < st.seq
}

func (s *CatalogService) supersededView(userID string) *CatalogView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.supersededViewLocked(s.state(userID))
}

func (s *CatalogService) supersededViewLocked(st *queryState) *CatalogView {
	view := &CatalogView{Superseded: true}
	if st.view != nil {
		view.PeriodID = st.view.PeriodID
		view.Filter = st.view.Filter
		view.Items = st.view.Items
	}
	return view
}

func (s *CatalogService) state(userID string) *queryState {
	st, ok := s.states[userID]
	if !ok {
		st = &queryState{}
		s.states[userID] = st
	}
	st.touchedAt = time.Now().UTC()
	return st
}

func (s *CatalogService) reaper() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.ReaperInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.reapIdle()
		}
	}
}

func (s *CatalogService) reapIdle() {
	cutoff := time.Now().UTC().Add(-s.cfg.StateTTL)

	s.mu.Lock()
	defer s.mu.Unlock()
	// In-flight queries touched their state within the request timeout, far
	// inside the TTL, so an age check alone cannot race them.
	for userID, st := range s.states {
		if st.touchedAt.After(cutoff) {
			continue
		}
		delete(s.states, userID)
		s.logger.Debug("catalog state expired", zap.String("user_id", userID))
	}
}
