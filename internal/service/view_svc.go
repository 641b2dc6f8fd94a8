package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/publihazclick/publihazclick-sub000/internal/model"
	"github.com/publihazclick/publihazclick-sub000/internal/repository"
)

// ViewLedger answers whether a viewer may still be credited for an ad. The
// ad type matters: mega ads are blocked by their permanent claim set, daily
// tiers only by today's views.
type ViewLedger interface {
	CanClaim(ctx context.Context, viewerID, adID string, adType model.AdType) (bool, error)
}

// CreditRequest carries everything the authoritative credit path needs,
// including the anti-fraud metadata forwarded to the claim record.
type CreditRequest struct {
	ViewerID    string
	AdID        string
	ClientIP    string
	UserAgent   string
	Fingerprint string
	DurationMs  int64
}

// Crediter applies a reward claim atomically. Implementations return
// repository.ErrAlreadyViewed when the daily dedup guard fires.
type Crediter interface {
	Credit(ctx context.Context, req CreditRequest) (*model.RewardSummary, error)
}

var (
	ErrViewNotFound    = errors.New("view session not found")
	ErrNotInChallenge  = errors.New("view session is not awaiting a challenge answer")
	ErrWrongAnswer     = errors.New("challenge answer is incorrect")
	ErrChallengeLocked = errors.New("too many wrong answers, view session locked")
	ErrAlreadyCredited = errors.New("ad already credited today")
)

// challengeMaxAttempts locks a session after this many wrong answers. The
// addition challenge is the only anti-bot gate on the view path, so it gets
// a hard cap rather than UX friction alone.
const challengeMaxAttempts = 5

// defaultViewTTL is how long an abandoned session survives before the sweep
// worker drops it.
const defaultViewTTL = 30 * time.Minute

// viewSession is one ad-viewing session: countdown, challenge, terminal
// state. All mutation happens under the service mutex; the ticker goroutine
// owns nothing but the clock.
type viewSession struct {
	id          string
	viewerID    string
	adID        string
	adType      model.AdType
	state       model.ViewState
	remaining   int
	num1, num2  int
	attempts    int
	clientIP    string
	userAgent   string
	fingerprint string
	openedAt    time.Time
	lastTouched time.Time
	result      *model.RewardSummary
	cancelTick  context.CancelFunc
}

// ViewService drives ad-view sessions from open to reward or close. The
// countdown is a per-session scheduled task owned by the session's
// lifecycle: Close (from any state) cancels it synchronously.
type ViewService struct {
	ledger   ViewLedger
	crediter Crediter

	mu       sync.Mutex
	sessions map[string]*viewSession

	tickInterval time.Duration
	ttl          time.Duration
	randInt      func(n int) int
}

func NewViewService(ledger ViewLedger, crediter Crediter) *ViewService {
	return &ViewService{
		ledger:       ledger,
		crediter:     crediter,
		sessions:     make(map[string]*viewSession),
		tickInterval: time.Second,
		ttl:          defaultViewTTL,
		randInt:      rand.IntN,
	}
}

// Open starts a view session for the given ad. If the tracker reports the ad
// was already credited today the session short-circuits to AlreadyViewed and
// no countdown runs.
func (s *ViewService) Open(ctx context.Context, req model.OpenViewRequest, ad *model.Ad, clientIP string) (*model.ViewResponse, error) {
	can, err := s.ledger.CanClaim(ctx, req.ViewerID, req.AdID, ad.Type)
	if err != nil {
		return nil, err
	}

	sess := &viewSession{
		id:          uuid.NewString(),
		viewerID:    req.ViewerID,
		adID:        req.AdID,
		adType:      ad.Type,
		clientIP:    clientIP,
		userAgent:   req.UserAgent,
		fingerprint: req.Fingerprint,
		openedAt:    time.Now(),
		lastTouched: time.Now(),
	}

	if !can {
		sess.state = model.ViewAlreadyViewed
	} else {
		sess.state = model.ViewCountdown
		sess.remaining = ad.Type.WatchSeconds()
		s.regenerateChallenge(sess)
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	if sess.state == model.ViewCountdown {
		tickCtx, cancel := context.WithCancel(context.Background())
		sess.cancelTick = cancel
		go s.runCountdown(tickCtx, sess.id)
	}
	resp := s.responseLocked(sess)
	s.mu.Unlock()

	return resp, nil
}

// Get returns the current state of a view session.
func (s *ViewService) Get(viewID string) (*model.ViewResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[viewID]
	if !ok {
		return nil, ErrViewNotFound
	}
	sess.lastTouched = time.Now()
	return s.responseLocked(sess), nil
}

// Answer submits a challenge answer. A wrong answer regenerates the operand
// pair and stays in Challenge until the attempt cap locks the session. A
// correct answer re-checks the daily ledger defensively (another session may
// have credited the same ad meanwhile) before crediting.
func (s *ViewService) Answer(ctx context.Context, viewID string, answer int) (*model.ViewResponse, error) {
	s.mu.Lock()
	sess, ok := s.sessions[viewID]
	if !ok {
		s.mu.Unlock()
		return nil, ErrViewNotFound
	}
	if sess.state != model.ViewChallenge {
		resp := s.responseLocked(sess)
		s.mu.Unlock()
		return resp, ErrNotInChallenge
	}
	sess.lastTouched = time.Now()

	if answer != sess.num1+sess.num2 {
		sess.attempts++
		s.regenerateChallenge(sess)
		if sess.attempts >= challengeMaxAttempts {
			s.closeLocked(sess)
			s.mu.Unlock()
			return nil, ErrChallengeLocked
		}
		resp := s.responseLocked(sess)
		s.mu.Unlock()
		return resp, ErrWrongAnswer
	}

	req := CreditRequest{
		ViewerID:    sess.viewerID,
		AdID:        sess.adID,
		ClientIP:    sess.clientIP,
		UserAgent:   sess.userAgent,
		Fingerprint: sess.fingerprint,
		DurationMs:  time.Since(sess.openedAt).Milliseconds(),
	}
	adType := sess.adType
	s.mu.Unlock()

	// Ledger and credit calls happen outside the lock; the DB unique index
	// is the real arbiter under concurrency.
	can, err := s.ledger.CanClaim(ctx, req.ViewerID, req.AdID, adType)
	if err != nil {
		return nil, err
	}
	if !can {
		return s.blockAlreadyCredited(viewID)
	}

	reward, err := s.crediter.Credit(ctx, req)
	if errors.Is(err, repository.ErrAlreadyViewed) {
		return s.blockAlreadyCredited(viewID)
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok = s.sessions[viewID]
	if !ok {
		return nil, ErrViewNotFound
	}
	sess.state = model.ViewCompleted
	sess.result = reward
	s.stopTickerLocked(sess)
	return s.responseLocked(sess), nil
}

// Close tears down a session from any state, cancelling a pending countdown
// synchronously so nothing ticks after close.
func (s *ViewService) Close(viewID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[viewID]
	if !ok {
		return ErrViewNotFound
	}
	s.closeLocked(sess)
	return nil
}

// SweepExpired drops sessions untouched for longer than the TTL. Called by
// the sweep worker.
func (s *ViewService) SweepExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, sess := range s.sessions {
		if now.Sub(sess.lastTouched) > s.ttl {
			s.closeLocked(sess)
			removed++
		}
	}
	return removed
}

// ActiveSessions returns the number of live view sessions (for metrics).
func (s *ViewService) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// runCountdown decrements the session once per tick interval until the
// challenge state is reached or the session goes away.
func (s *ViewService) runCountdown(ctx context.Context, viewID string) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !s.tick(viewID) {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// tick advances the countdown by one second. The remaining value clamps at
// exactly zero and the state flips to Challenge on the tick that reaches it.
// Returns false once ticking is no longer needed.
func (s *ViewService) tick(viewID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[viewID]
	if !ok || sess.state != model.ViewCountdown {
		return false
	}

	sess.remaining--
	if sess.remaining <= 0 {
		sess.remaining = 0
		sess.state = model.ViewChallenge
		return false
	}
	return true
}

func (s *ViewService) regenerateChallenge(sess *viewSession) {
	// Both operands in [1,10].
	sess.num1 = s.randInt(10) + 1
	sess.num2 = s.randInt(10) + 1
}

func (s *ViewService) blockAlreadyCredited(viewID string) (*model.ViewResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[viewID]; ok {
		sess.state = model.ViewAlreadyViewed
		s.stopTickerLocked(sess)
	}
	return nil, ErrAlreadyCredited
}

func (s *ViewService) stopTickerLocked(sess *viewSession) {
	if sess.cancelTick != nil {
		sess.cancelTick()
		sess.cancelTick = nil
	}
}

func (s *ViewService) closeLocked(sess *viewSession) {
	s.stopTickerLocked(sess)
	delete(s.sessions, sess.id)
}

func (s *ViewService) responseLocked(sess *viewSession) *model.ViewResponse {
	resp := &model.ViewResponse{
		ViewID:    sess.id,
		AdID:      sess.adID,
		State:     sess.state,
		Remaining: sess.remaining,
		Attempts:  sess.attempts,
		Reward:    sess.result,
	}
	if sess.state == model.ViewChallenge {
		resp.Challenge = &model.ChallengePrompt{Num1: sess.num1, Num2: sess.num2}
	}
	return resp
}
