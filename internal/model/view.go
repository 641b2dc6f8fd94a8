package model

// ViewState is the state of a single ad-viewing session.
//
//	Countdown → Challenge → Completed
//
// AlreadyViewed short-circuits at open time when the viewer was credited for
// the ad earlier the same reference-zone day; it only offers close.
type ViewState string

const (
	ViewCountdown     ViewState = "countdown"
	ViewChallenge     ViewState = "challenge"
	ViewCompleted     ViewState = "completed"
	ViewAlreadyViewed ViewState = "already_viewed"
)

// OpenViewRequest is the API request body for opening a view session.
type OpenViewRequest struct {
	ViewerID    string `json:"viewerId"`
	AdID        string `json:"adId"`
	Fingerprint string `json:"fingerprint,omitempty"`
	UserAgent   string `json:"userAgent,omitempty"`
}

// ChallengePrompt is the two-operand addition challenge shown when the
// countdown reaches zero.
type ChallengePrompt struct {
	Num1 int `json:"num1"`
	Num2 int `json:"num2"`
}

// AnswerRequest is the API request body for submitting a challenge answer.
type AnswerRequest struct {
	Answer int `json:"answer"`
}

// ViewResponse describes the current state of a view session.
type ViewResponse struct {
	ViewID    string           `json:"viewId"`
	AdID      string           `json:"adId"`
	State     ViewState        `json:"state"`
	Remaining int              `json:"remaining"`
	Challenge *ChallengePrompt `json:"challenge,omitempty"`
	Attempts  int              `json:"attempts,omitempty"`
	Reward    *RewardSummary   `json:"reward,omitempty"`
}
