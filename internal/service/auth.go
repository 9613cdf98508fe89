package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/pulseo/internal/events"
	"github.com/Skotchmaster/pulseo/internal/hash"
	"github.com/Skotchmaster/pulseo/internal/logging"
	"github.com/Skotchmaster/pulseo/internal/models"
	"github.com/Skotchmaster/pulseo/internal/repo"
	"github.com/Skotchmaster/pulseo/internal/tokens"
)

type UserStore interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type RefreshStore interface {
	StoreRefreshToken(ctx context.Context, id, userID uuid.UUID, hash string, expiresAt time.Time) error
	ConsumeRefreshToken(ctx context.Context, hash string) (*models.RefreshToken, error)
	DeleteRefreshByHash(ctx context.Context, hash string) error
	DeleteAllRefreshForUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type AuthService struct {
	Users    UserStore
	Sessions RefreshStore
	Hasher   *hash.Hasher
	Tokens   *tokens.Issuer
	Events   events.Publisher

	dummyOnce sync.Once
	dummyHash string
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Session is a freshly issued access/refresh pair for a user.
type Session struct {
	User         models.PublicUser
	AccessToken  string
	AccessExp    time.Time
	RefreshToken string
	RefreshExp   time.Time
}

func (s *AuthService) publish(ctx context.Context, ev events.UserEvent) {
	if s.Events == nil {
		return
	}
	ev.Timestamp = time.Now().UTC()
	if err := s.Events.Publish(ctx, events.TopicUserEvents, ev.UserID.String(), ev); err != nil {
		logging.FromContext(ctx).Warn("publish_failed", "topic", events.TopicUserEvents, "type", ev.Type, "error", err)
	}
}

// issueSession signs an access token and stores a new refresh token for user.
func (s *AuthService) issueSession(ctx context.Context, user *models.User) (*Session, error) {
	pub := user.Public()

	access, accessExp, err := s.Tokens.CreateAccessToken(pub)
	if err != nil {
		return nil, err
	}
	refresh, err := s.Tokens.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}
	if err := s.Sessions.StoreRefreshToken(ctx, refresh.ID, user.ID, refresh.Hash, refresh.ExpiresAt); err != nil {
		return nil, err
	}

	return &Session{
		User:         pub,
		AccessToken:  access,
		AccessExp:    accessExp,
		RefreshToken: refresh.Token,
		RefreshExp:   refresh.ExpiresAt,
	}, nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if verr := validateRegistration(in); verr != nil {
		l.Warn("register_failed", "status", 400, "reason", verr.Code)
		return nil, verr
	}

	// Prechecks give the common case a clean answer; the unique indexes
	// below remain the real guard.
	if _, err := s.Users.FindUserByUsername(ctx, in.Username); err == nil {
		l.Warn("register_failed", "status", 409, "reason", "username taken")
		return nil, conflictError(CodeUsernameTaken, MsgUsernameTaken)
	} else if !errors.Is(err, repo.ErrNotFound) {
		l.Error("register_failed", "status", 500, "reason", "username lookup", "error", err)
		return nil, internalError(CodeValidation, MsgRegistrationFailed, err)
	}
	if _, err := s.Users.FindUserByEmail(ctx, in.Email); err == nil {
		l.Warn("register_failed", "status", 409, "reason", "email taken")
		return nil, conflictError(CodeEmailTaken, MsgEmailTaken)
	} else if !errors.Is(err, repo.ErrNotFound) {
		l.Error("register_failed", "status", 500, "reason", "email lookup", "error", err)
		return nil, internalError(CodeValidation, MsgRegistrationFailed, err)
	}

	pwHash, err := s.Hasher.HashPassword(ctx, in.Password)
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, internalError(CodeValidation, MsgRegistrationFailed, err)
	}

	user, err := s.Users.CreateUser(ctx, in.Username, in.Email, pwHash)
	switch {
	case errors.Is(err, repo.ErrUsernameTaken):
		l.Warn("register_failed", "status", 409, "reason", "username taken on insert")
		return nil, conflictError(CodeUsernameTaken, MsgUsernameTaken)
	case errors.Is(err, repo.ErrEmailTaken):
		l.Warn("register_failed", "status", 409, "reason", "email taken on insert")
		return nil, conflictError(CodeEmailTaken, MsgEmailTaken)
	case err != nil:
		l.Error("register_failed", "status", 500, "reason", "create user", "error", err)
		return nil, internalError(CodeValidation, MsgRegistrationFailed, err)
	}

	sess, err := s.issueSession(ctx, user)
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "issue session", "error", err)
		return nil, internalError(CodeValidation, MsgRegistrationFailed, err)
	}

	s.publish(ctx, events.UserEvent{Type: events.UserRegistered, UserID: user.ID, Username: user.Username})
	l.Info("register_success", "user_id", user.ID)
	return sess, nil
}

// dummy returns a valid hash used to keep unknown-email logins as slow as
// wrong-password ones.
func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.Hasher.HashPassword(context.Background(), uuid.NewString())
	})
	return s.dummyHash
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")
	invalid := unauthorizedError(CodeInvalidCredentials, MsgInvalidCredentials)

	if email == "" || password == "" {
		l.Warn("login_failed", "status", 401, "reason", "missing credentials")
		return nil, invalid
	}

	user, err := s.Users.FindUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			l.Error("login_failed", "status", 401, "reason", "user lookup", "error", err)
		} else {
			l.Warn("login_failed", "status", 401, "reason", "invalid credentials")
		}
		s.Hasher.CheckPassword(ctx, s.dummy(), password)
		return nil, invalid
	}

	if !s.Hasher.CheckPassword(ctx, user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "invalid credentials")
		return nil, invalid
	}

	sess, err := s.issueSession(ctx, user)
	if err != nil {
		l.Error("login_failed", "status", 401, "reason", "issue session", "error", err)
		return nil, invalid
	}

	s.publish(ctx, events.UserEvent{Type: events.UserLoggedIn, UserID: user.ID, Username: user.Username})
	l.Info("login_success", "user_id", user.ID)
	return sess, nil
}

type RefreshOutcome int

const (
	RefreshRotated RefreshOutcome = iota
	RefreshMissing
	RefreshNotFound
	RefreshReuseDetected
	RefreshExpired
	RefreshOrphaned
	RefreshFailed
)

func (o RefreshOutcome) String() string {
	switch o {
	case RefreshRotated:
		return "rotated"
	case RefreshMissing:
		return "missing"
	case RefreshNotFound:
		return "not_found"
	case RefreshReuseDetected:
		return "reuse_detected"
	case RefreshExpired:
		return "expired"
	case RefreshOrphaned:
		return "orphaned"
	case RefreshFailed:
		return "failed"
	}
	return "unknown"
}

// RefreshResult is the outcome of presenting a refresh token. Session is set
// only for RefreshRotated, RevokedUser only for RefreshReuseDetected, Err only
// for RefreshFailed.
type RefreshResult struct {
	Outcome     RefreshOutcome
	Session     *Session
	RevokedUser uuid.UUID
	Err         error
}

// Refresh rotates refreshToken. The stored token is consumed before anything
// else so two concurrent refreshes with the same secret cannot both succeed.
// A token that is no longer stored, presented alongside a valid access token,
// is treated as stolen and revokes every session of that user.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, accessToken string) RefreshResult {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if refreshToken == "" {
		l.Warn("refresh_failed", "status", 401, "reason", "missing refresh token")
		return RefreshResult{Outcome: RefreshMissing}
	}

	stored, err := s.Sessions.ConsumeRefreshToken(ctx, tokens.HashToken(refreshToken))
	if errors.Is(err, repo.ErrNotFound) {
		claims := s.Tokens.VerifyAccessToken(accessToken)
		if claims == nil {
			l.Warn("refresh_failed", "status", 401, "reason", "unknown refresh token")
			return RefreshResult{Outcome: RefreshNotFound}
		}

		userID := claims.UserID()
		revoked, err := s.Sessions.DeleteAllRefreshForUser(ctx, userID)
		if err != nil {
			l.Error("refresh_failed", "status", 500, "reason", "revoke sessions", "user_id", userID, "error", err)
			return RefreshResult{Outcome: RefreshFailed, Err: err}
		}
		l.Warn("refresh_reuse_detected", "status", 401, "user_id", userID, "revoked", revoked)
		s.publish(ctx, events.UserEvent{Type: events.SessionsRevoked, UserID: userID, Revoked: revoked})
		return RefreshResult{Outcome: RefreshReuseDetected, RevokedUser: userID}
	}
	if err != nil {
		l.Error("refresh_failed", "status", 500, "reason", "consume refresh token", "error", err)
		return RefreshResult{Outcome: RefreshFailed, Err: err}
	}

	if repo.IsExpired(stored.ExpiresAt, time.Now()) {
		l.Warn("refresh_failed", "status", 401, "reason", "refresh token expired", "user_id", stored.UserID)
		return RefreshResult{Outcome: RefreshExpired}
	}

	user, err := s.Users.FindUserByID(ctx, stored.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		l.Warn("refresh_failed", "status", 401, "reason", "user not found", "user_id", stored.UserID)
		return RefreshResult{Outcome: RefreshOrphaned}
	}
	if err != nil {
		l.Error("refresh_failed", "status", 500, "reason", "user lookup", "error", err)
		return RefreshResult{Outcome: RefreshFailed, Err: err}
	}

	sess, err := s.issueSession(ctx, user)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "reason", "issue session", "error", err)
		return RefreshResult{Outcome: RefreshFailed, Err: err}
	}

	l.Info("refresh_success", "user_id", user.ID)
	return RefreshResult{Outcome: RefreshRotated, Session: sess}
}

// Logout forgets the presented refresh token. It never fails.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}
	if err := s.Sessions.DeleteRefreshByHash(ctx, tokens.HashToken(refreshToken)); err != nil {
		logging.FromContext(ctx).Warn("logout_cleanup_failed", "svc", "auth.logout", "error", err)
	}
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.PublicUserWithTimestamp, error) {
	user, err := s.Users.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, unauthorizedError(CodeUnauthorized, MsgUserNotFound)
		}
		return nil, internalError(CodeInternal, "Internal server error", err)
	}
	pub := user.PublicWithTimestamp()
	return &pub, nil
}
