package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/publihazclick/publihazclick-sub000/internal/model"
	"github.com/publihazclick/publihazclick-sub000/internal/repository"
)

// memoryLedger is an in-memory stand-in for the daily view tracker. Mega ads
// consult a separate permanent set, same split as the real tracker.
type memoryLedger struct {
	viewed      map[string]bool
	megaClaimed map[string]bool
	err         error
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{
		viewed:      make(map[string]bool),
		megaClaimed: make(map[string]bool),
	}
}

func (l *memoryLedger) CanClaim(_ context.Context, viewerID, adID string, adType model.AdType) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	key := viewerID + "/" + adID
	if l.viewed[key] {
		return false, nil
	}
	if adType == model.AdTypeMega && l.megaClaimed[key] {
		return false, nil
	}
	return true, nil
}

// stubCrediter records credit calls and marks the ledger, mimicking the
// transactional credit path.
type stubCrediter struct {
	ledger *memoryLedger
	calls  int
	err    error
	reward model.RewardSummary
}

func (c *stubCrediter) Credit(_ context.Context, req CreditRequest) (*model.RewardSummary, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	key := req.ViewerID + "/" + req.AdID
	if c.ledger.viewed[key] {
		return nil, repository.ErrAlreadyViewed
	}
	c.ledger.viewed[key] = true
	r := c.reward
	r.AdID = req.AdID
	return &r, nil
}

// newTestViewService returns a service whose countdown goroutine never fires
// (huge tick interval) and whose challenge operands are fixed at 3+3.
func newTestViewService(ledger *memoryLedger, crediter *stubCrediter) *ViewService {
	svc := NewViewService(ledger, crediter)
	svc.tickInterval = time.Hour
	svc.randInt = func(n int) int { return 2 }
	return svc
}

func standardAd() *model.Ad {
	return &model.Ad{
		ID:           "ad-1",
		Title:        "Test ad",
		RewardAmount: 250,
		Type:         model.AdTypeStandardHigh,
		Status:       model.AdStatusActive,
	}
}

func openReq() model.OpenViewRequest {
	return model.OpenViewRequest{ViewerID: "viewer-1", AdID: "ad-1"}
}

func TestOpenStartsCountdown(t *testing.T) {
	ledger := newMemoryLedger()
	svc := newTestViewService(ledger, &stubCrediter{ledger: ledger})

	resp, err := svc.Open(context.Background(), openReq(), standardAd(), "1.2.3.4")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer svc.Close(resp.ViewID)

	if resp.State != model.ViewCountdown {
		t.Errorf("state = %q, want %q", resp.State, model.ViewCountdown)
	}
	if want := model.AdTypeStandardHigh.WatchSeconds(); resp.Remaining != want {
		t.Errorf("remaining = %d, want %d", resp.Remaining, want)
	}
	if resp.Challenge != nil {
		t.Error("challenge exposed during countdown")
	}
}

func TestOpenMiniUsesShorterCountdown(t *testing.T) {
	ledger := newMemoryLedger()
	svc := newTestViewService(ledger, &stubCrediter{ledger: ledger})

	ad := standardAd()
	ad.Type = model.AdTypeMini
	resp, err := svc.Open(context.Background(), openReq(), ad, "1.2.3.4")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer svc.Close(resp.ViewID)

	if want := model.AdTypeMini.WatchSeconds(); resp.Remaining != want {
		t.Errorf("remaining = %d, want %d", resp.Remaining, want)
	}
	if resp.Remaining >= model.AdTypeStandardHigh.WatchSeconds() {
		t.Error("mini countdown should be shorter than the standard tiers")
	}
}

func TestOpenAlreadyViewedShortCircuits(t *testing.T) {
	ledger := newMemoryLedger()
	ledger.viewed["viewer-1/ad-1"] = true
	svc := newTestViewService(ledger, &stubCrediter{ledger: ledger})

	resp, err := svc.Open(context.Background(), openReq(), standardAd(), "1.2.3.4")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer svc.Close(resp.ViewID)

	if resp.State != model.ViewAlreadyViewed {
		t.Errorf("state = %q, want %q", resp.State, model.ViewAlreadyViewed)
	}
	if resp.Remaining != 0 {
		t.Errorf("remaining = %d, want 0", resp.Remaining)
	}
	if resp.Challenge != nil {
		t.Error("already-viewed session should never offer a challenge")
	}
}

func TestOpenMegaClaimedOnEarlierDayShortCircuits(t *testing.T) {
	// The daily set is empty (a new day has pruned it) but the permanent
	// mega set still holds the ad: no countdown may start.
	ledger := newMemoryLedger()
	ledger.megaClaimed["viewer-1/ad-1"] = true
	svc := newTestViewService(ledger, &stubCrediter{ledger: ledger})

	ad := standardAd()
	ad.Type = model.AdTypeMega

	resp, err := svc.Open(context.Background(), openReq(), ad, "1.2.3.4")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer svc.Close(resp.ViewID)

	if resp.State != model.ViewAlreadyViewed {
		t.Errorf("state = %q, want %q", resp.State, model.ViewAlreadyViewed)
	}
	if resp.Challenge != nil {
		t.Error("consumed mega slot should never offer a challenge")
	}
}

func TestOpenFailsClosedOnLedgerError(t *testing.T) {
	ledger := newMemoryLedger()
	ledger.err = errors.New("storage down")
	svc := newTestViewService(ledger, &stubCrediter{ledger: ledger})

	if _, err := svc.Open(context.Background(), openReq(), standardAd(), "1.2.3.4"); err == nil {
		t.Fatal("Open() with failing ledger should return an error, not a session")
	}
	if svc.ActiveSessions() != 0 {
		t.Errorf("active sessions = %d, want 0", svc.ActiveSessions())
	}
}

// drainCountdown ticks a session down to the challenge state.
func drainCountdown(t *testing.T, svc *ViewService, viewID string) {
	t.Helper()
	for i := 0; i < 600; i++ {
		if !svc.tick(viewID) {
			return
		}
	}
	t.Fatal("countdown never reached the challenge state")
}

func TestCountdownClampsAtZeroThenChallenge(t *testing.T) {
	ledger := newMemoryLedger()
	svc := newTestViewService(ledger, &stubCrediter{ledger: ledger})

	resp, err := svc.Open(context.Background(), openReq(), standardAd(), "1.2.3.4")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer svc.Close(resp.ViewID)

	drainCountdown(t, svc, resp.ViewID)

	got, err := svc.Get(resp.ViewID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.State != model.ViewChallenge {
		t.Errorf("state = %q, want %q", got.State, model.ViewChallenge)
	}
	if got.Remaining != 0 {
		t.Errorf("remaining = %d, want exactly 0 (never negative)", got.Remaining)
	}
	if got.Challenge == nil {
		t.Fatal("challenge missing in challenge state")
	}
	for _, n := range []int{got.Challenge.Num1, got.Challenge.Num2} {
		if n < 1 || n > 10 {
			t.Errorf("challenge operand %d outside [1,10]", n)
		}
	}

	// Further ticks are no-ops once the challenge is reached.
	if svc.tick(resp.ViewID) {
		t.Error("tick() should report done after the challenge state")
	}
}

func TestAnswerBeforeChallengeRejected(t *testing.T) {
	ledger := newMemoryLedger()
	svc := newTestViewService(ledger, &stubCrediter{ledger: ledger})

	resp, err := svc.Open(context.Background(), openReq(), standardAd(), "1.2.3.4")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer svc.Close(resp.ViewID)

	if _, err := svc.Answer(context.Background(), resp.ViewID, 6); !errors.Is(err, ErrNotInChallenge) {
		t.Errorf("Answer() during countdown error = %v, want ErrNotInChallenge", err)
	}
}

func TestWrongAnswerRegeneratesAndCounts(t *testing.T) {
	ledger := newMemoryLedger()
	crediter := &stubCrediter{ledger: ledger, reward: model.RewardSummary{WalletAmount: 250, DonationAmount: model.FlatDonationAmount}}
	svc := newTestViewService(ledger, crediter)

	resp, err := svc.Open(context.Background(), openReq(), standardAd(), "1.2.3.4")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer svc.Close(resp.ViewID)
	drainCountdown(t, svc, resp.ViewID)

	// randInt is fixed, so the correct answer is always 3+3=6.
	got, err := svc.Answer(context.Background(), resp.ViewID, 7)
	if !errors.Is(err, ErrWrongAnswer) {
		t.Fatalf("Answer(wrong) error = %v, want ErrWrongAnswer", err)
	}
	if got.State != model.ViewChallenge {
		t.Errorf("state after wrong answer = %q, want %q", got.State, model.ViewChallenge)
	}
	if got.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", got.Attempts)
	}
	if got.Challenge == nil {
		t.Error("wrong answer must hand back a fresh challenge")
	}
	if crediter.calls != 0 {
		t.Errorf("credit calls = %d, want 0", crediter.calls)
	}
}

func TestChallengeLocksAfterMaxAttempts(t *testing.T) {
	ledger := newMemoryLedger()
	crediter := &stubCrediter{ledger: ledger}
	svc := newTestViewService(ledger, crediter)

	resp, err := svc.Open(context.Background(), openReq(), standardAd(), "1.2.3.4")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	drainCountdown(t, svc, resp.ViewID)

	var lastErr error
	for i := 0; i < challengeMaxAttempts; i++ {
		_, lastErr = svc.Answer(context.Background(), resp.ViewID, -1)
	}
	if !errors.Is(lastErr, ErrChallengeLocked) {
		t.Fatalf("final attempt error = %v, want ErrChallengeLocked", lastErr)
	}

	// A locked session is gone: no further answers, no credit.
	if _, err := svc.Answer(context.Background(), resp.ViewID, 6); !errors.Is(err, ErrViewNotFound) {
		t.Errorf("Answer() after lockout error = %v, want ErrViewNotFound", err)
	}
	if crediter.calls != 0 {
		t.Errorf("credit calls = %d, want 0", crediter.calls)
	}
}

func TestCorrectAnswerCreditsOnce(t *testing.T) {
	ledger := newMemoryLedger()
	crediter := &stubCrediter{
		ledger: ledger,
		reward: model.RewardSummary{WalletAmount: 250, DonationAmount: model.FlatDonationAmount},
	}
	svc := newTestViewService(ledger, crediter)

	resp, err := svc.Open(context.Background(), openReq(), standardAd(), "1.2.3.4")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer svc.Close(resp.ViewID)
	drainCountdown(t, svc, resp.ViewID)

	got, err := svc.Answer(context.Background(), resp.ViewID, 6)
	if err != nil {
		t.Fatalf("Answer(correct) error = %v", err)
	}
	if got.State != model.ViewCompleted {
		t.Errorf("state = %q, want %q", got.State, model.ViewCompleted)
	}
	if crediter.calls != 1 {
		t.Errorf("credit calls = %d, want 1", crediter.calls)
	}
	if got.Reward == nil {
		t.Fatal("completed view carries no reward")
	}
	// Full reward to the wallet, flat amount to the donation pool.
	if got.Reward.WalletAmount != 250 {
		t.Errorf("wallet amount = %v, want 250", got.Reward.WalletAmount)
	}
	if got.Reward.DonationAmount != model.FlatDonationAmount {
		t.Errorf("donation amount = %v, want %v", got.Reward.DonationAmount, model.FlatDonationAmount)
	}

	// The answer state is terminal.
	if _, err := svc.Answer(context.Background(), resp.ViewID, 6); !errors.Is(err, ErrNotInChallenge) {
		t.Errorf("Answer() after completion error = %v, want ErrNotInChallenge", err)
	}
}

func TestConcurrentSessionLosesRace(t *testing.T) {
	ledger := newMemoryLedger()
	crediter := &stubCrediter{ledger: ledger, reward: model.RewardSummary{WalletAmount: 100, DonationAmount: model.FlatDonationAmount}}
	svc := newTestViewService(ledger, crediter)

	// Two sessions for the same viewer/ad pair.
	first, err := svc.Open(context.Background(), openReq(), standardAd(), "1.2.3.4")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	second, err := svc.Open(context.Background(), openReq(), standardAd(), "1.2.3.4")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	drainCountdown(t, svc, first.ViewID)
	drainCountdown(t, svc, second.ViewID)

	if _, err := svc.Answer(context.Background(), first.ViewID, 6); err != nil {
		t.Fatalf("first Answer() error = %v", err)
	}

	// The loser is blocked by the ledger re-check and flips to AlreadyViewed.
	if _, err := svc.Answer(context.Background(), second.ViewID, 6); !errors.Is(err, ErrAlreadyCredited) {
		t.Fatalf("second Answer() error = %v, want ErrAlreadyCredited", err)
	}
	got, err := svc.Get(second.ViewID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.State != model.ViewAlreadyViewed {
		t.Errorf("losing session state = %q, want %q", got.State, model.ViewAlreadyViewed)
	}
	if crediter.calls != 1 {
		t.Errorf("credit calls = %d, want 1", crediter.calls)
	}
}

func TestCloseCancelsSession(t *testing.T) {
	ledger := newMemoryLedger()
	svc := newTestViewService(ledger, &stubCrediter{ledger: ledger})

	resp, err := svc.Open(context.Background(), openReq(), standardAd(), "1.2.3.4")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if err := svc.Close(resp.ViewID); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := svc.Get(resp.ViewID); !errors.Is(err, ErrViewNotFound) {
		t.Errorf("Get() after close error = %v, want ErrViewNotFound", err)
	}
	if svc.tick(resp.ViewID) {
		t.Error("tick() on a closed session should report done")
	}
	if err := svc.Close(resp.ViewID); !errors.Is(err, ErrViewNotFound) {
		t.Errorf("double Close() error = %v, want ErrViewNotFound", err)
	}
}

func TestSweepExpiredDropsStaleSessions(t *testing.T) {
	ledger := newMemoryLedger()
	svc := newTestViewService(ledger, &stubCrediter{ledger: ledger})

	resp, err := svc.Open(context.Background(), openReq(), standardAd(), "1.2.3.4")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if removed := svc.SweepExpired(time.Now()); removed != 0 {
		t.Errorf("fresh session swept: removed = %d, want 0", removed)
	}
	if removed := svc.SweepExpired(time.Now().Add(defaultViewTTL + time.Minute)); removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, err := svc.Get(resp.ViewID); !errors.Is(err, ErrViewNotFound) {
		t.Errorf("Get() after sweep error = %v, want ErrViewNotFound", err)
	}
}
