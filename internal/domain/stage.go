package domain

import (
	"errors"
	"fmt"
)

// ViewState names the screen the client must render.
type ViewState string

const (
	ViewAuth         ViewState = "auth"
	ViewProfileSetup ViewState = "profile-setup"
	ViewInterests    ViewState = "interests"
	ViewMatching     ViewState = "matching"
	ViewVoting       ViewState = "voting"
	ViewApp          ViewState = "app"
)

// AppTab is the bottom-navigation tab of the app shell.
type AppTab string

const (
	TabHome    AppTab = "home"
	TabCircle  AppTab = "circle"
	TabProfile AppTab = "profile"
)

func (t AppTab) IsValid() bool {
	switch t {
	case TabHome, TabCircle, TabProfile:
		return true
	}
	return false
}

var (
	ErrProfileIncomplete = errors.New("name, age, city and avatar are required")
	ErrInterestCount     = fmt.Errorf("choose between %d and %d interests", MinInterests, MaxInterests)
	ErrUnknownInterest   = errors.New("unknown interest")
	ErrUnknownTab        = errors.New("unknown tab")
)

// ============================================================================
// Stage: one variant per view state, each carrying what its screen needs
// ============================================================================

// Stage is a closed sum type. Only the variants in this file implement it.
type Stage interface {
	View() ViewState
	isStage()
}

type AuthStage struct{}

type ProfileSetupStage struct {
	User User
}

type InterestsStage struct {
	User      User
	Selection InterestSelection
}

type MatchingStage struct {
	User     User
	RunID    string
	Progress MatchingProgress
}

type VotingStage struct {
	User    User
	FetchID string
	Ballot  Ballot
}

type AppStage struct {
	User      User
	Winner    ActivitySuggestion
	Tab       AppTab
	Circle    *Circle
	Dashboard *Dashboard
}

// Dashboard is the cached content of the home tab.
type Dashboard struct {
	Suggestions []ActivitySuggestion `json:"suggestions"`
	Icebreaker  string               `json:"icebreaker"`
}

func (AuthStage) View() ViewState         { return ViewAuth }
func (ProfileSetupStage) View() ViewState { return ViewProfileSetup }
func (InterestsStage) View() ViewState    { return ViewInterests }
func (MatchingStage) View() ViewState     { return ViewMatching }
func (VotingStage) View() ViewState       { return ViewVoting }
func (AppStage) View() ViewState          { return ViewApp }

func (AuthStage) isStage()         {}
func (ProfileSetupStage) isStage() {}
func (InterestsStage) isStage()    {}
func (MatchingStage) isStage()     {}
func (VotingStage) isStage()       {}
func (AppStage) isStage()          {}

// UserOf returns the user carried by s; the auth stage carries none.
func UserOf(s Stage) (User, bool) {
	switch st := s.(type) {
	case ProfileSetupStage:
		return st.User, true
	case InterestsStage:
		return st.User, true
	case MatchingStage:
		return st.User, true
	case VotingStage:
		return st.User, true
	case AppStage:
		return st.User, true
	}
	return User{}, false
}

// ============================================================================
// Transitions: one per forward edge, plus logout
// ============================================================================

// SubmitCredentials creates the user from the auth form.
func (AuthStage) SubmitCredentials(userID, email string) ProfileSetupStage {
	return ProfileSetupStage{User: NewUser(userID, email)}
}

// CompleteProfile replaces the user with the profile applied.
func (s ProfileSetupStage) CompleteProfile(p Profile) (InterestsStage, error) {
	if !p.Complete() {
		return InterestsStage{}, ErrProfileIncomplete
	}
	return InterestsStage{User: s.User.WithProfile(p)}, nil
}

// ToggleInterest updates the draft selection. Unknown interests are rejected.
func (s InterestsStage) ToggleInterest(interest string) (InterestsStage, error) {
	if !IsKnownInterest(interest) {
		return s, fmt.Errorf("%w: %q", ErrUnknownInterest, interest)
	}
	return InterestsStage{User: s.User, Selection: s.Selection.Toggle(interest)}, nil
}

// ChooseInterests merges sel into the user and starts matching under runID.
func (s InterestsStage) ChooseInterests(sel InterestSelection, runID string) (MatchingStage, error) {
	if !sel.CanComplete() {
		return MatchingStage{}, ErrInterestCount
	}
	for _, interest := range sel.Items() {
		if !IsKnownInterest(interest) {
			return MatchingStage{}, fmt.Errorf("%w: %q", ErrUnknownInterest, interest)
		}
	}
	return MatchingStage{
		User:     s.User.WithInterests(sel.Items()),
		RunID:    runID,
		Progress: MatchingProgress{Status: MatchingInitialStatus},
	}, nil
}

// WithProgress returns s showing p.
func (s MatchingStage) WithProgress(p MatchingProgress) MatchingStage {
	p.Percent = min(max(p.Percent, s.Progress.Percent), 100)
	s.Progress = p
	return s
}

// Elapse is the timer-driven edge to voting. The ballot starts loading
// under fetchID.
func (s MatchingStage) Elapse(fetchID string) VotingStage {
	return VotingStage{User: s.User, FetchID: fetchID, Ballot: NewLoadingBallot()}
}

// WithSuggestions loads the ballot.
func (s VotingStage) WithSuggestions(suggestions []ActivitySuggestion) VotingStage {
	s.Ballot = s.Ballot.Loaded(suggestions)
	return s
}

// Rate rates the current card. The next stage is VotingStage while cards
// remain and AppStage, on the circle tab, after the last one.
func (s VotingStage) Rate(rating int, activityID string, newCircle func(User, ActivitySuggestion) *Circle) (Stage, error) {
	ballot, winner, done, err := s.Ballot.Rate(rating, activityID)
	if err != nil {
		return s, err
	}
	if !done {
		s.Ballot = ballot
		return s, nil
	}
	return AppStage{
		User:   s.User,
		Winner: winner,
		Tab:    TabCircle,
		Circle: newCircle(s.User, winner),
	}, nil
}

// SwitchTab changes the visible tab.
func (s AppStage) SwitchTab(tab AppTab) (AppStage, error) {
	if !tab.IsValid() {
		return s, fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}
	s.Tab = tab
	return s, nil
}

// Logout drops the user, the winner and the circle.
func (AppStage) Logout() AuthStage {
	return AuthStage{}
}
