// Package service implements the account and profile business logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"

	"github.com/noisyneuron/noisyneuron/internal/events"
	"github.com/noisyneuron/noisyneuron/internal/metrics"
	"github.com/noisyneuron/noisyneuron/internal/model"
	"github.com/noisyneuron/noisyneuron/internal/repository"
)

// RecentProjectsLimit is the number of projects shown on profile pages.
const RecentProjectsLimit = 5

// Service errors.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrUserNotFound       = errors.New("user not found")
)

const duplicateEmailMessage = "A user with this email already exists."

// Store is the persistence the account service needs.
// *repository.Repository satisfies it.
type Store interface {
	CreateUserWithProfile(ctx context.Context, user *model.User, profile *model.Profile) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error

	GetProfileByUserID(ctx context.Context, userID string) (*model.Profile, error)
	GetOrCreateProfile(ctx context.Context, defaults *model.Profile) (*model.Profile, bool, error)
	UpdateProfile(ctx context.Context, profile *model.Profile) error

	CountProjects(ctx context.Context, userID string) (total, completed int64, err error)
	ListRecentProjects(ctx context.Context, userID string, limit int) ([]*model.Project, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
	VerifyDummy(password string)
}

// EventPublisher receives account lifecycle events.
type EventPublisher interface {
	PublishAsync(eventType, userID string)
}

type noopPublisher struct{}

func (noopPublisher) PublishAsync(string, string) {}

// AccountService handles signup, authentication and profile management.
type AccountService struct {
	store    Store
	hasher   PasswordHasher
	events   EventPublisher
	metrics  metrics.Recorder
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewAccountService creates a new account service.
// A nil publisher or recorder disables that side channel.
func NewAccountService(store Store, hasher PasswordHasher, publisher EventPublisher, recorder metrics.Recorder, logger *slog.Logger) *AccountService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AccountService{
		store:    store,
		hasher:   hasher,
		events:   publisher,
		metrics:  recorder,
		logger:   logger.With("component", "service.account"),
		validate: newValidator(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Signup validates the form, then creates the user and an empty profile together.
func (s *AccountService) Signup(ctx context.Context, input SignupInput) (*model.User, error) {
	input.Email = model.NormalizeEmail(input.Email)
	if err := validateStruct(s.validate, input).errOrNil(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := &model.User{
		ID:           ulid.Make().String(),
		Email:        input.Email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	profile := model.NewProfile(ulid.Make().String(), user.ID, now)

	if err := s.store.CreateUserWithProfile(ctx, user, profile); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			verr := &ValidationError{}
			verr.Add("email", duplicateEmailMessage)
			return nil, verr
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.metrics.IncSignup()
	s.events.PublishAsync(events.TypeUserSignedUp, user.ID)
	s.logger.Info("user_signed_up", "user_id", user.ID)

	return user, nil
}

// Authenticate verifies credentials and records the login time.
// Unknown emails, wrong passwords and inactive users all yield ErrInvalidCredentials.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	email = model.NormalizeEmail(email)
	if email == "" || password == "" {
		s.metrics.IncLogin(metrics.LoginFailure)
		return nil, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// keep timing equal to the found-user path
			s.hasher.VerifyDummy(password)
			s.metrics.IncLogin(metrics.LoginFailure)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.logger.Error("password hash unreadable", "user_id", user.ID, "error", err)
		s.metrics.IncLogin(metrics.LoginFailure)
		return nil, ErrInvalidCredentials
	}
	if !ok || !user.IsActive {
		s.metrics.IncLogin(metrics.LoginFailure)
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.store.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}
	user.LastLoginAt = &now

	s.metrics.IncLogin(metrics.LoginSuccess)
	s.events.PublishAsync(events.TypeUserLoggedIn, user.ID)

	return user, nil
}

// Logout records a logout for the user. Session teardown is the caller's job.
func (s *AccountService) Logout(userID string) {
	if userID == "" {
		return
	}
	s.metrics.IncLogout()
	s.events.PublishAsync(events.TypeUserLoggedOut, userID)
}

// GetUser loads an active user by id.
func (s *AccountService) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// EnsureProfile returns the user's profile, creating a default one when missing.
func (s *AccountService) EnsureProfile(ctx context.Context, userID string) (*model.Profile, error) {
	defaults := model.NewProfile(ulid.Make().String(), userID, s.now())

	profile, created, err := s.store.GetOrCreateProfile(ctx, defaults)
	if err != nil {
		return nil, fmt.Errorf("get or create profile: %w", err)
	}
	if created {
		s.metrics.IncProfileCreated()
		s.logger.Info("profile_created", "user_id", userID)
	}

	return profile, nil
}

// GetProfile returns the user's profile without creating one.
func (s *AccountService) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	profile, err := s.store.GetProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

// EditProfile applies a full form submission to the user's profile,
// creating the profile first if needed.
func (s *AccountService) EditProfile(ctx context.Context, userID string, upd ProfileUpdate) (*model.Profile, error) {
	profile, err := s.EnsureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.applyUpdate(ctx, profile, upd)
}

// PatchProfile applies only the submitted fields to an existing profile.
func (s *AccountService) PatchProfile(ctx context.Context, userID string, upd ProfileUpdate) (*model.Profile, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.applyUpdate(ctx, profile, upd)
}

func (s *AccountService) applyUpdate(ctx context.Context, profile *model.Profile, upd ProfileUpdate) (*model.Profile, error) {
	// Stored values the caller did not submit are kept as they are, valid or not.
	fields := upd.applyTo(profile)
	if err := validatePartial(s.validate, fields, upd.submitted()).errOrNil(); err != nil {
		return nil, err
	}

	updated := *profile
	fields.writeTo(&updated)
	updated.UpdatedAt = s.now()

	if err := s.store.UpdateProfile(ctx, &updated); err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.metrics.IncProfileUpdated()
	s.events.PublishAsync(events.TypeProfileUpdated, profile.UserID)
	s.logger.Info("profile_updated", "user_id", profile.UserID)

	return &updated, nil
}

// ProfilePage is what the profile view renders.
type ProfilePage struct {
	Profile *model.Profile
	Stats   *model.ProjectStats
}

// Profile returns the get-or-created profile plus project statistics.
func (s *AccountService) Profile(ctx context.Context, userID string) (*ProfilePage, error) {
	profile, err := s.EnsureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats, err := s.ProjectStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ProfilePage{Profile: profile, Stats: stats}, nil
}

// Dashboard returns project statistics and the profile if one exists.
// Profile is nil when the user has none.
func (s *AccountService) Dashboard(ctx context.Context, userID string) (*ProfilePage, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil && !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}

	stats, err := s.ProjectStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ProfilePage{Profile: profile, Stats: stats}, nil
}

// ProjectStats counts the user's projects and lists the most recent ones.
func (s *AccountService) ProjectStats(ctx context.Context, userID string) (*model.ProjectStats, error) {
	total, completed, err := s.store.CountProjects(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count projects: %w", err)
	}

	recent, err := s.store.ListRecentProjects(ctx, userID, RecentProjectsLimit)
	if err != nil {
		return nil, fmt.Errorf("list recent projects: %w", err)
	}

	return &model.ProjectStats{
		Total:     total,
		Completed: completed,
		Recent:    recent,
	}, nil
}
