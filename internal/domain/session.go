package domain

import (
	"context"
	"sync"
	"time"
)

// ============================================================================
// Session: the single ownership context for one client
// ============================================================================

// Session owns the current stage and whatever background work that stage
// started. All access goes through Lock/Unlock.
type Session struct {
	sync.Mutex

	ID        string
	Stage     Stage
	CreatedAt time.Time
	TouchedAt time.Time

	release func()
}

func NewSession(id string, now time.Time) *Session {
	return &Session{ID: id, Stage: AuthStage{}, CreatedAt: now, TouchedAt: now}
}

// Own records the teardown of the current stage's background work,
// replacing (and returning) any previous one. Caller holds the lock.
func (s *Session) Own(release func()) (previous func()) {
	previous = s.release
	s.release = release
	return previous
}

// Release detaches the current teardown without running it. Callers run
// the returned func after unlocking. Caller holds the lock.
func (s *Session) Release() func() {
	release := s.release
	s.release = nil
	if release == nil {
		return func() {}
	}
	return release
}

// ============================================================================
// Views returned to the delivery layer
// ============================================================================

// SessionView is a read-only snapshot of a session.
type SessionView struct {
	SessionID string            `json:"session_id"`
	View      ViewState         `json:"view"`
	User      *User             `json:"user,omitempty"`
	Interests *InterestsView    `json:"interests,omitempty"`
	Matching  *MatchingProgress `json:"matching,omitempty"`
	Voting    *VotingView       `json:"voting,omitempty"`
	App       *AppView          `json:"app,omitempty"`
}

type InterestsView struct {
	Catalog     []string `json:"catalog"`
	Selected    []string `json:"selected"`
	CanComplete bool     `json:"can_complete"`
}

type VotingView struct {
	Loading     bool                 `json:"loading"`
	Index       int                  `json:"index"`
	Total       int                  `json:"total"`
	Current     *ActivitySuggestion  `json:"current,omitempty"`
	Suggestions []ActivitySuggestion `json:"suggestions"`
}

type AppView struct {
	Tab    AppTab             `json:"tab"`
	Winner ActivitySuggestion `json:"winner"`
}

// StartSessionRequest is the auth form. There is no password check.
type StartSessionRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password"`
	Mode     string `json:"mode" validate:"omitempty,oneof=login register"`
}

type ProfileRequest struct {
	Name   string `json:"name" validate:"required,max=80"`
	Age    string `json:"age" validate:"required"`
	City   string `json:"city" validate:"required,max=120"`
	Avatar string `json:"avatar" validate:"required,avatar"`
	Bio    string `json:"bio" validate:"max=500"`
}

type ToggleInterestRequest struct {
	Interest string `json:"interest" validate:"required,interest"`
}

type CompleteInterestsRequest struct {
	Interests []string `json:"interests" validate:"omitempty,min=3,max=8,unique,dive,interest"`
}

type RateRequest struct {
	Rating     int    `json:"rating" validate:"required,min=1,max=4"`
	ActivityID string `json:"activity_id"`
}

type SwitchTabRequest struct {
	Tab AppTab `json:"tab" validate:"required,oneof=home circle profile"`
}

type SendMessageRequest struct {
	Text string `json:"text" validate:"not_blank,max=2000"`
}

// ProfileView backs the profile tab.
type ProfileView struct {
	User   User               `json:"user"`
	Winner ActivitySuggestion `json:"winner"`
}

// ============================================================================
// Repository Interface
// ============================================================================

type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) (*Session, error)
	// Expired removes and returns sessions not touched since cutoff.
	Expired(ctx context.Context, cutoff time.Time) ([]*Session, error)
	// Drain removes and returns every session.
	Drain(ctx context.Context) []*Session
	Count(ctx context.Context) int
}

// ============================================================================
// Usecase Interface
// ============================================================================

type SessionUsecase interface {
	// Onboarding flow
	Start(ctx context.Context, req *StartSessionRequest) (*SessionView, error)
	Get(ctx context.Context, sessionID string) (*SessionView, error)
	CompleteProfile(ctx context.Context, sessionID string, req *ProfileRequest) (*SessionView, error)
	ToggleInterest(ctx context.Context, sessionID string, req *ToggleInterestRequest) (*SessionView, error)
	CompleteInterests(ctx context.Context, sessionID string, req *CompleteInterestsRequest) (*SessionView, error)
	Rate(ctx context.Context, sessionID string, req *RateRequest) (*SessionView, error)

	// App shell
	SwitchTab(ctx context.Context, sessionID string, req *SwitchTabRequest) (*SessionView, error)
	Dashboard(ctx context.Context, sessionID string) (*Dashboard, error)
	Circle(ctx context.Context, sessionID string) (*CircleSnapshot, error)
	SendMessage(ctx context.Context, sessionID string, req *SendMessageRequest) (*Message, error)
	TogglePoll(ctx context.Context, sessionID string, optionID string) (*PollOption, error)
	Icebreaker(ctx context.Context, sessionID string) (string, error)
	Profile(ctx context.Context, sessionID string) (*ProfileView, error)
	Logout(ctx context.Context, sessionID string) (*SessionView, error)

	// Lifecycle
	End(ctx context.Context, sessionID string) error
	RunJanitor(ctx context.Context, every time.Duration)
	Shutdown()
}
