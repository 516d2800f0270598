package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/prosiga/enrollment-gateway/internal/models"
	"github.com/prosiga/enrollment-gateway/pkg/config"
	appErrors "github.com/prosiga/enrollment-gateway/pkg/errors"
)

// stagingSession holds one user's tentative selections for the lifetime of
// an enrollment session. Uniqueness key is the section ID and insertion
// order is meaningful for display.
type stagingSession struct {
	entries    []models.StagingEntry
	index      map[int64]int
	submitting bool
	touchedAt  time.Time
}

// StagingService owns the in-memory staging sessions. All mutations go
// through the service mutex: the gateway serves concurrent requests, so the
// single-threaded assumption of the browser client does not hold here.
type StagingService struct {
	cfg    config.StagingConfig
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*stagingSession

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewStagingService constructs a StagingService.
func NewStagingService(cfg config.StagingConfig, logger *zap.Logger) *StagingService {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 12
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 2 * time.Hour
	}
	if cfg.ReaperInterval <= 0 {
		cfg.ReaperInterval = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StagingService{
		cfg:      cfg,
		logger:   logger,
		sessions: make(map[string]*stagingSession),
	}
}

// Start launches the session reaper. Safe to call once.
func (s *StagingService) Start(ctx context.Context) {
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
func (s *StagingService) Stop() {
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

// Add stages a section for the user. Re-adding an already staged section is
// an idempotent no-op reported through the added flag. Ineligible sections
// are rejected with the set left unchanged.
func (s *StagingService) Add(userID string, section models.ClassSection) (bool, error) {
	if c := Classify(section); !c.Selectable {
		return false, appErrors.ErrValidationRejected
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(userID)
	if sess.submitting {
		return false, appErrors.Clone(appErrors.ErrConflict, "submission in progress")
	}
	if _, ok := sess.index[section.SectionID]; ok {
		return false, nil
	}
	if len(sess.entries) >= s.cfg.MaxEntries {
		return false, appErrors.Clone(appErrors.ErrConflict, "staging limit reached")
	}

	sess.index[section.SectionID] = len(sess.entries)
	sess.entries = append(sess.entries, models.StagingEntry{Section: section, AddedAt: time.Now().UTC()})
	sess.touchedAt = time.Now().UTC()
	return true, nil
}

// Remove drops a staged section. Removing an id that is not staged is a
// safe no-op.
func (s *StagingService) Remove(userID string, sectionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return nil
	}
	if sess.submitting {
		return appErrors.Clone(appErrors.ErrConflict, "submission in progress")
	}
	sess.remove(sectionID)
	sess.touchedAt = time.Now().UTC()
	return nil
}

// Clear empties the user's staging set.
func (s *StagingService) Clear(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return nil
	}
	if sess.submitting {
		return appErrors.Clone(appErrors.ErrConflict, "submission in progress")
	}
	sess.entries = nil
	sess.index = make(map[int64]int)
	sess.touchedAt = time.Now().UTC()
	return nil
}

// List returns an ordered snapshot of the user's staged entries.
func (s *StagingService) List(userID string) []models.StagingEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return nil
	}
	snapshot := make([]models.StagingEntry, len(sess.entries))
	copy(snapshot, sess.entries)
	return snapshot
}

// beginSubmission snapshots the staged entries and blocks further mutation
// until finishSubmission is called.
func (s *StagingService) beginSubmission(userID string) ([]models.StagingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(userID)
	if sess.submitting {
		return nil, appErrors.Clone(appErrors.ErrConflict, "submission already in progress")
	}
	sess.submitting = true
	sess.touchedAt = time.Now().UTC()

	snapshot := make([]models.StagingEntry, len(sess.entries))
	copy(snapshot, sess.entries)
	return snapshot, nil
}

// finishSubmission removes the succeeded entries, leaving failures staged
// for retry or manual removal, and unblocks mutation.
func (s *StagingService) finishSubmission(userID string, succeeded []int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return
	}
	for _, id := range succeeded {
		sess.remove(id)
	}
	sess.submitting = false
	sess.touchedAt = time.Now().UTC()
}

// session returns the user's session, creating it on first use.
func (s *StagingService) session(userID string) *stagingSession {
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &stagingSession{index: make(map[int64]int), touchedAt: time.Now().UTC()}
		s.sessions[userID] = sess
	}
	return sess
}

func (s *StagingService) reaper() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.ReaperInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.reapExpired()
		}
	}
}

func (s *StagingService) reapExpired() {
	cutoff := time.Now().UTC().Add(-s.cfg.SessionTTL)

	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, sess := range s.sessions {
		if sess.submitting || sess.touchedAt.After(cutoff) {
			continue
		}
		delete(s.sessions, userID)
		s.logger.Debug("staging session expired", zap.String("user_id", userID))
	}
}

func (sess *stagingSession) remove(sectionID int64) {
	pos, ok := sess.index[sectionID]
	if !ok {
		return
	}
	sess.entries = append(sess.entries[:pos], sess.entries[pos+1:]...)
	delete(sess.index, sectionID)
	for id, p := range sess.index {
		if p > pos {
			sess.index[id] = p - 1
		}
	}
}
