package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"cirqle-backend/internal/domain"
	"cirqle-backend/pkg/apperror"
	"cirqle-backend/pkg/imaging"
	"cirqle-backend/pkg/logger"
	"cirqle-backend/pkg/schedule"
	"cirqle-backend/pkg/validation"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// SessionOptions tune the session usecase. Zero values take defaults.
type SessionOptions struct {
	Timing domain.MatchingTiming
	TTL    time.Duration
	Now    func() time.Time
	NewID  func() string
}

type sessionUsecase struct {
	repo        domain.SessionRepository
	suggestions domain.SuggestionUsecase
	validate    *validator.Validate

	timing domain.MatchingTiming
	ttl    time.Duration
	now    func() time.Time
	newID  func() string

	// bg is the parent of all background work; Shutdown cancels it.
	bg     context.Context
	stopBg context.CancelFunc
	once   sync.Once
}

func NewSessionUsecase(repo domain.SessionRepository, suggestions domain.SuggestionUsecase, validate *validator.Validate, opts SessionOptions) domain.SessionUsecase {
	if opts.Timing.Tick <= 0 {
		opts.Timing = domain.DefaultMatchingTiming()
	}
	if opts.TTL <= 0 {
		opts.TTL = 2 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	bg, stop := context.WithCancel(context.Background())
	return &sessionUsecase{
		repo:        repo,
		suggestions: suggestions,
		validate:    validate,
		timing:      opts.Timing,
		ttl:         opts.TTL,
		now:         opts.Now,
		newID:       opts.NewID,
		bg:          bg,
		stopBg:      stop,
	}
}

// ============================================================================
// Onboarding
// ============================================================================

func (u *sessionUsecase) Start(ctx context.Context, req *domain.StartSessionRequest) (*domain.SessionView, error) {
	if err := u.check(req); err != nil {
		return nil, err
	}

	s := domain.NewSession(u.newID(), u.now())
	s.Stage = domain.AuthStage{}.SubmitCredentials(u.newID(), req.Email)
	if err := u.repo.Create(ctx, s); err != nil {
		return nil, apperror.Internal(err)
	}

	logger.Log.Info("Session started", "session_id", s.ID, "mode", req.Mode)

	s.Lock()
	defer s.Unlock()
	return u.viewOf(s), nil
}

func (u *sessionUsecase) Get(ctx context.Context, sessionID string) (*domain.SessionView, error) {
	var view *domain.SessionView
	err := u.locked(ctx, sessionID, func(s *domain.Session) (func(), error) {
		view = u.viewOf(s)
		return nil, nil
	})
	return view, err
}

func (u *sessionUsecase) CompleteProfile(ctx context.Context, sessionID string, req *domain.ProfileRequest) (*domain.SessionView, error) {
	if err := u.check(req); err != nil {
		return nil, err
	}

	// Image work happens before taking the session lock.
	avatar, err := imaging.NormalizeAvatar(req.Avatar)
	if err != nil {
		return nil, apperror.New(http.StatusBadRequest, "Invalid profile photo", err).WithDetails([]string{err.Error()})
	}

	profile := domain.Profile{Name: req.Name, Age: req.Age, City: req.City, Avatar: avatar, Bio: req.Bio}

	var view *domain.SessionView
	err = u.locked(ctx, sessionID, func(s *domain.Session) (func(), error) {
		st, ok := s.Stage.(domain.ProfileSetupStage)
		if !ok {
			return nil, outOfOrder("complete the profile", s.Stage)
		}
		next, err := st.CompleteProfile(profile)
		if err != nil {
			return nil, transitionError(err)
		}
		s.Stage = next
		view = u.viewOf(s)
		return nil, nil
	})
	return view, err
}

func (u *sessionUsecase) ToggleInterest(ctx context.Context, sessionID string, req *domain.ToggleInterestRequest) (*domain.SessionView, error) {
	if err := u.check(req); err != nil {
		return nil, err
	}

	var view *domain.SessionView
	err := u.locked(ctx, sessionID, func(s *domain.Session) (func(), error) {
		st, ok := s.Stage.(domain.InterestsStage)
		if !ok {
			return nil, outOfOrder("select interests", s.Stage)
		}
		next, err := st.ToggleInterest(req.Interest)
		if err != nil {
			return nil, transitionError(err)
		}
		s.Stage = next
		view = u.viewOf(s)
		return nil, nil
	})
	return view, err
}

// CompleteInterests moves to matching and starts the matching schedule.
// An explicit list replaces the draft built by ToggleInterest.
func (u *sessionUsecase) CompleteInterests(ctx context.Context, sessionID string, req *domain.CompleteInterestsRequest) (*domain.SessionView, error) {
	if err := u.check(req); err != nil {
		return nil, err
	}

	var view *domain.SessionView
	err := u.locked(ctx, sessionID, func(s *domain.Session) (func(), error) {
		st, ok := s.Stage.(domain.InterestsStage)
		if !ok {
			return nil, outOfOrder("choose interests", s.Stage)
		}
		sel := st.Selection
		if len(req.Interests) > 0 {
			sel = domain.NewInterestSelection(req.Interests...)
		}
		next, err := st.ChooseInterests(sel, u.newID())
		if err != nil {
			return nil, transitionError(err)
		}
		s.Stage = next
		previous := s.Own(u.startMatching(s, next.RunID))
		view = u.viewOf(s)

		logger.Log.Info("Matching started", "session_id", s.ID, "interests", next.User.Interests)
		return previous, nil
	})
	return view, err
}

func (u *sessionUsecase) Rate(ctx context.Context, sessionID string, req *domain.RateRequest) (*domain.SessionView, error) {
	if err := u.check(req); err != nil {
		return nil, err
	}

	var view *domain.SessionView
	err := u.locked(ctx, sessionID, func(s *domain.Session) (func(), error) {
		st, ok := s.Stage.(domain.VotingStage)
		if !ok {
			return nil, outOfOrder("rate an activity", s.Stage)
		}
		next, err := st.Rate(req.Rating, req.ActivityID, u.newCircle)
		if err != nil {
			return nil, transitionError(err)
		}
		s.Stage = next
		view = u.viewOf(s)

		if app, ok := next.(domain.AppStage); ok {
			logger.Log.Info("Voting complete", "session_id", s.ID, "winner", app.Winner.ID)
			// The fetch has finished by now; release only reaps it.
			return s.Release(), nil
		}
		return nil, nil
	})
	return view, err
}

// ============================================================================
// App shell
// ============================================================================

func (u *sessionUsecase) SwitchTab(ctx context.Context, sessionID string, req *domain.SwitchTabRequest) (*domain.SessionView, error) {
	if err := u.check(req); err != nil {
		return nil, err
	}

	var view *domain.SessionView
	err := u.inApp(ctx, sessionID, "switch tabs", func(s *domain.Session, st domain.AppStage) error {
		next, err := st.SwitchTab(req.Tab)
		if err != nil {
			return transitionError(err)
		}
		s.Stage = next
		view = u.viewOf(s)
		return nil
	})
	return view, err
}

// Dashboard fetches suggestions and the icebreaker concurrently outside the
// session lock, then caches them on the app stage.
func (u *sessionUsecase) Dashboard(ctx context.Context, sessionID string) (*domain.Dashboard, error) {
	var (
		user   domain.User
		circle *domain.Circle
		cached *domain.Dashboard
	)
	err := u.inApp(ctx, sessionID, "open the dashboard", func(_ *domain.Session, st domain.AppStage) error {
		user, circle, cached = st.User, st.Circle, st.Dashboard
		return nil
	})
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return cached, nil
	}

	dash := &domain.Dashboard{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dash.Suggestions = u.suggestions.DashboardSuggestions(gctx, user)
		return nil
	})
	g.Go(func() error {
		dash.Icebreaker = u.suggestions.Icebreaker(gctx, user.Interests)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, apperror.Internal(err)
	}

	err = u.inApp(ctx, sessionID, "open the dashboard", func(s *domain.Session, st domain.AppStage) error {
		// Another request may have filled the cache, or the user may have
		// logged out and come back with a new circle.
		if st.Circle != circle {
			return nil
		}
		if st.Dashboard != nil {
			dash = st.Dashboard
			return nil
		}
		st.Dashboard = dash
		s.Stage = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dash, nil
}

func (u *sessionUsecase) Circle(ctx context.Context, sessionID string) (*domain.CircleSnapshot, error) {
	var snap domain.CircleSnapshot
	err := u.inApp(ctx, sessionID, "open the circle", func(_ *domain.Session, st domain.AppStage) error {
		snap = st.Circle.Snapshot()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (u *sessionUsecase) SendMessage(ctx context.Context, sessionID string, req *domain.SendMessageRequest) (*domain.Message, error) {
	if err := u.check(req); err != nil {
		return nil, err
	}

	var msg domain.Message
	err := u.inApp(ctx, sessionID, "send a message", func(_ *domain.Session, st domain.AppStage) error {
		sent, ok := st.Circle.Send(req.Text)
		if !ok {
			return apperror.BadRequest("Message text must not be blank")
		}
		msg = sent
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (u *sessionUsecase) TogglePoll(ctx context.Context, sessionID string, optionID string) (*domain.PollOption, error) {
	var opt domain.PollOption
	err := u.inApp(ctx, sessionID, "vote on the poll", func(_ *domain.Session, st domain.AppStage) error {
		toggled, ok := st.Circle.TogglePoll(optionID)
		if !ok {
			return apperror.NotFound(fmt.Sprintf("Poll option %q not found", optionID))
		}
		opt = toggled
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &opt, nil
}

func (u *sessionUsecase) Icebreaker(ctx context.Context, sessionID string) (string, error) {
	var interests []string
	err := u.inApp(ctx, sessionID, "ask for an icebreaker", func(_ *domain.Session, st domain.AppStage) error {
		interests = append([]string{}, st.User.Interests...)
		return nil
	})
	if err != nil {
		return "", err
	}
	return u.suggestions.Icebreaker(ctx, interests), nil
}

func (u *sessionUsecase) Profile(ctx context.Context, sessionID string) (*domain.ProfileView, error) {
	var view domain.ProfileView
	err := u.inApp(ctx, sessionID, "open the profile", func(_ *domain.Session, st domain.AppStage) error {
		view = domain.ProfileView{User: st.User.WithInterests(st.User.Interests), Winner: st.Winner}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// Logout returns the session to the auth screen. The token stays valid.
func (u *sessionUsecase) Logout(ctx context.Context, sessionID string) (*domain.SessionView, error) {
	var view *domain.SessionView
	err := u.locked(ctx, sessionID, func(s *domain.Session) (func(), error) {
		st, ok := s.Stage.(domain.AppStage)
		if !ok {
			return nil, outOfOrder("log out", s.Stage)
		}
		s.Stage = st.Logout()
		view = u.viewOf(s)
		return s.Release(), nil
	})
	return view, err
}

// ============================================================================
// Lifecycle
// ============================================================================

// End removes the session and tears down its background work. After End
// returns no matching effect or suggestion fetch of the session runs.
func (u *sessionUsecase) End(ctx context.Context, sessionID string) error {
	s, err := u.repo.Delete(ctx, sessionID)
	if err != nil {
		return apperror.Unauthorized("Session not found or expired")
	}
	u.teardown(s)
	logger.Log.Info("Session ended", "session_id", sessionID)
	return nil
}

// RunJanitor expires idle sessions every interval until ctx is done.
func (u *sessionUsecase) RunJanitor(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, err := u.repo.Expired(ctx, u.now().Add(-u.ttl))
			for _, s := range expired {
				u.teardown(s)
			}
			if len(expired) > 0 {
				logger.Log.Info("Expired idle sessions", "count", len(expired))
			}
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Log.Error("Session janitor failed", "error", err)
			}
		}
	}
}

// Shutdown tears down every session. It is safe to call more than once.
func (u *sessionUsecase) Shutdown() {
	u.once.Do(func() {
		sessions := u.repo.Drain(context.Background())
		u.stopBg()
		for _, s := range sessions {
			u.teardown(s)
		}
		logger.Log.Info("Sessions shut down", "count", len(sessions))
	})
}

func (u *sessionUsecase) teardown(s *domain.Session) {
	s.Lock()
	s.Stage = domain.AuthStage{}
	release := s.Release()
	s.Unlock()
	release()
}

// ============================================================================
// Background work
// ============================================================================

// startMatching launches the matching schedule owned by runID and returns
// its teardown.
func (u *sessionUsecase) startMatching(s *domain.Session, runID string) func() {
	owned := func(apply func(st domain.MatchingStage) domain.Stage) {
		s.Lock()
		defer s.Unlock()
		st, ok := s.Stage.(domain.MatchingStage)
		if !ok || st.RunID != runID {
			return
		}
		s.Stage = apply(st)
	}

	steps := domain.MatchingSchedule(u.timing, domain.MatchingEffects{
		Progress: func(percent int) {
			owned(func(st domain.MatchingStage) domain.Stage {
				return st.WithProgress(domain.MatchingProgress{Percent: percent, Status: st.Progress.Status})
			})
		},
		Status: func(text string) {
			owned(func(st domain.MatchingStage) domain.Stage {
				return st.WithProgress(domain.MatchingProgress{Percent: st.Progress.Percent, Status: text})
			})
		},
		Complete: func() {
			owned(func(st domain.MatchingStage) domain.Stage {
				fetchID := u.newID()
				// The runner exits after this step, so its own teardown is dropped.
				_ = s.Own(u.fetchSuggestions(s, fetchID, st.User))
				logger.Log.Info("Matching complete", "session_id", s.ID)
				return st.Elapse(fetchID)
			})
		},
	})

	runner := schedule.Start(u.bg, steps)
	return runner.Stop
}

// fetchSuggestions loads the ballot for the voting stage owned by fetchID
// and returns its teardown. Caller holds the session lock.
func (u *sessionUsecase) fetchSuggestions(s *domain.Session, fetchID string, user domain.User) func() {
	ctx, cancel := context.WithCancel(u.bg)
	done := make(chan struct{})

	go func() {
		defer close(done)

		suggestions := u.suggestions.VotingSuggestions(ctx, user)
		if ctx.Err() != nil {
			return
		}

		s.Lock()
		defer s.Unlock()
		st, ok := s.Stage.(domain.VotingStage)
		if !ok || st.FetchID != fetchID {
			return
		}
		s.Stage = st.WithSuggestions(suggestions)
	}()

	return func() {
		cancel()
		<-done
	}
}

func (u *sessionUsecase) newCircle(user domain.User, winner domain.ActivitySuggestion) *domain.Circle {
	return domain.NewCircle(user, winner, u.newID, u.now)
}

// ============================================================================
// Helpers
// ============================================================================

// locked runs fn under the session lock. The teardown fn returns is run
// after the lock is released.
func (u *sessionUsecase) locked(ctx context.Context, sessionID string, fn func(s *domain.Session) (func(), error)) error {
	s, err := u.repo.Get(ctx, sessionID)
	if err != nil {
		return apperror.Unauthorized("Session not found or expired")
	}

	s.Lock()
	s.TouchedAt = u.now()
	release, err := fn(s)
	s.Unlock()

	if release != nil {
		release()
	}
	return err
}

func (u *sessionUsecase) inApp(ctx context.Context, sessionID, action string, fn func(s *domain.Session, st domain.AppStage) error) error {
	return u.locked(ctx, sessionID, func(s *domain.Session) (func(), error) {
		st, ok := s.Stage.(domain.AppStage)
		if !ok {
			return nil, outOfOrder(action, s.Stage)
		}
		return nil, fn(s, st)
	})
}

func (u *sessionUsecase) check(req interface{}) error {
	if err := u.validate.Struct(req); err != nil {
		return apperror.New(http.StatusBadRequest, "Validation failed", err).WithDetails(validation.FormatValidationErrors(err))
	}
	return nil
}

// viewOf snapshots s. Caller holds the session lock.
func (u *sessionUsecase) viewOf(s *domain.Session) *domain.SessionView {
	view := &domain.SessionView{SessionID: s.ID, View: s.Stage.View()}
	if user, ok := domain.UserOf(s.Stage); ok {
		user = user.WithInterests(user.Interests)
		view.User = &user
	}

	switch st := s.Stage.(type) {
	case domain.InterestsStage:
		view.Interests = &domain.InterestsView{
			Catalog:     domain.InterestCatalog(),
			Selected:    st.Selection.Items(),
			CanComplete: st.Selection.CanComplete(),
		}
	case domain.MatchingStage:
		progress := st.Progress
		view.Matching = &progress
	case domain.VotingStage:
		voting := &domain.VotingView{
			Loading:     st.Ballot.Loading,
			Index:       st.Ballot.Index,
			Total:       len(st.Ballot.Suggestions),
			Suggestions: append([]domain.ActivitySuggestion{}, st.Ballot.Suggestions...),
		}
		if current, ok := st.Ballot.Current(); ok {
			voting.Current = &current
		}
		view.Voting = voting
	case domain.AppStage:
		view.App = &domain.AppView{Tab: st.Tab, Winner: st.Winner}
	}
	return view
}

func outOfOrder(action string, current domain.Stage) *apperror.AppError {
	return apperror.Conflict(fmt.Sprintf("Cannot %s on the %s screen", action, current.View()))
}

func transitionError(err error) error {
	switch {
	case errors.Is(err, domain.ErrBallotLoading),
		errors.Is(err, domain.ErrBallotCompleted),
		errors.Is(err, domain.ErrCardMismatch),
		errors.Is(err, domain.ErrBallotEmpty):
		return apperror.New(http.StatusConflict, err.Error(), err)
	case errors.Is(err, domain.ErrRatingRange),
		errors.Is(err, domain.ErrInterestCount),
		errors.Is(err, domain.ErrUnknownInterest),
		errors.Is(err, domain.ErrProfileIncomplete),
		errors.Is(err, domain.ErrUnknownTab):
		return apperror.New(http.StatusBadRequest, err.Error(), err)
	}
	return apperror.Internal(err)
}
