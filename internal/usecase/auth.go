package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ErlanBelekov/charon/internal/clock"
	"github.com/ErlanBelekov/charon/internal/credential"
	"github.com/ErlanBelekov/charon/internal/domain"
	"github.com/ErlanBelekov/charon/internal/email"
	"github.com/ErlanBelekov/charon/internal/metrics"
	"github.com/ErlanBelekov/charon/internal/repository"
	"github.com/ErlanBelekov/charon/internal/token"
	"github.com/ErlanBelekov/charon/internal/validate"
	"github.com/samber/oops"
)

const (
	defaultResetTokenHours = 24
	defaultMailSubject     = "Reset password instructions"

	// dummyPassword is hashed once so signin can spend the same verify cost
	// on unknown usernames as on real ones.
	dummyPassword = "charon-timing-equalizer"
)

type AuthConfig struct {
	// ServerURL prefixes the reset link, e.g. https://auth.example.com.
	ServerURL       string
	MailFrom        string
	MailSubject     string
	ResetTokenHours int
	TokenLength     int
}

type SigninInput struct {
	Username string
	Password string
}

type SignupInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
}

type ForgotInput struct {
	Email      string
	RemoteAddr string
}

type ResetInput struct {
	Token           string
	Password        string
	PasswordConfirm string
}

type AuthUsecase struct {
	users  repository.UserRepository
	hasher credential.Hasher
	mail   email.Sender
	clock  clock.Clock
	logger *slog.Logger
	cfg    AuthConfig

	dummyOnce   sync.Once
	dummyDigest string
}

func NewAuthUsecase(
	users repository.UserRepository,
	hasher credential.Hasher,
	mail email.Sender,
	clk clock.Clock,
	cfg AuthConfig,
	logger *slog.Logger,
) *AuthUsecase {
	if cfg.ResetTokenHours <= 0 {
		cfg.ResetTokenHours = defaultResetTokenHours
	}
	if cfg.TokenLength <= 0 {
		cfg.TokenLength = token.DefaultLength
	}
	if cfg.MailSubject == "" {
		cfg.MailSubject = defaultMailSubject
	}
	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")

	return &AuthUsecase{
		users:  users,
		hasher: hasher,
		mail:   mail,
		clock:  clk,
		logger: logger.With("component", "auth"),
		cfg:    cfg,
	}
}

// Signin verifies username and password and binds the user to sess.
// A malformed username, an unknown user and a wrong password are all
// reported as failures the caller must not tell apart.
func (u *AuthUsecase) Signin(ctx context.Context, in SigninInput, sess domain.Session) (*domain.User, error) {
	username, ok := validate.Username(in.Username)
	if !ok {
		u.equalizeVerify(in.Password)
		return nil, oops.Code("SIGNIN_INVALID_USERNAME").Wrap(domain.ErrUserNotFound)
	}

	user, err := u.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			u.equalizeVerify(in.Password)
		}
		return nil, err
	}

	match, err := u.hasher.Verify(in.Password, user.PasswordHash)
	if err != nil {
		return nil, oops.Code("CREDENTIAL_VERIFY_FAILED").With("user_id", user.ID).Wrap(err)
	}
	if !match {
		return nil, oops.Code("SIGNIN_PASSWORD_MISMATCH").With("user_id", user.ID).Wrap(domain.ErrPasswordMismatch)
	}

	if err := bind(ctx, sess, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Signup creates a user and binds it to sess. Any invalid field fails the
// request before anything is hashed or stored.
func (u *AuthUsecase) Signup(ctx context.Context, in SignupInput, sess domain.Session) (*domain.User, error) {
	username, okUser := validate.Username(in.Username)
	addr, okEmail := validate.Email(in.Email)
	password, okPass := validate.Password(in.Password, in.PasswordConfirm)
	if !okUser || !okEmail || !okPass {
		return nil, oops.Code("SIGNUP_INVALID_INPUT").
			With("username_valid", okUser).
			With("email_valid", okEmail).
			With("password_valid", okPass).
			Wrap(domain.ErrInvalidInput)
	}

	digest, err := u.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("CREDENTIAL_HASH_FAILED").Wrap(err)
	}

	user, err := u.users.Create(ctx, &domain.User{
		Username:     username,
		Email:        addr,
		PasswordHash: digest,
	})
	if err != nil {
		return nil, err
	}

	// The account stays created when binding fails. The caller gets the user
	// with the error and can sign in once the session store is back.
	if err := bind(ctx, sess, user); err != nil {
		u.logger.WarnContext(ctx, "account created without session", "user_id", user.ID, "error", err)
		return user, oops.With("account_created", true).Wrap(err)
	}
	return user, nil
}

// Signout destroys sess. Destroying an absent session is not an error.
func (u *AuthUsecase) Signout(ctx context.Context, sess domain.Session) error {
	if sess == nil {
		return nil
	}
	if err := sess.Destroy(ctx); err != nil {
		return oops.Code("SESSION_DESTROY_FAILED").Wrap(err)
	}
	return nil
}

// ForgotPassword stores a fresh reset token on the account owning in.Email
// and mails the reset link. The token stays stored when the mail fails.
func (u *AuthUsecase) ForgotPassword(ctx context.Context, in ForgotInput) error {
	addr, ok := validate.Email(in.Email)
	if !ok {
		return oops.Code("FORGOT_INVALID_EMAIL").Wrap(domain.ErrInvalidInput)
	}

	resetToken, err := token.Generate(u.cfg.TokenLength)
	if err != nil {
		return err
	}
	expire := clock.AddHours(u.clock.Now(), u.cfg.ResetTokenHours)

	user, err := u.users.SetResetToken(ctx, addr, resetToken, expire)
	if err != nil {
		return err
	}

	body := u.resetMailBody(in.RemoteAddr, resetToken)
	if err := u.mail.Send(ctx, u.cfg.MailFrom, user.Email, u.cfg.MailSubject, body); err != nil {
		return oops.Code("RESET_MAIL_FAILED").
			With("user_id", user.ID).
			Wrap(err)
	}
	metrics.ResetMailsSentTotal.Inc()

	u.logger.InfoContext(ctx, "reset token issued", "user_id", user.ID, "expires_at", expire)
	return nil
}

// ResetPassword replaces the password of the account holding in.Token and
// consumes the token. It returns only after the new digest is stored.
func (u *AuthUsecase) ResetPassword(ctx context.Context, in ResetInput) (*domain.User, error) {
	password, ok := validate.Password(in.Password, in.PasswordConfirm)
	if !ok {
		return nil, oops.Code("RESET_INVALID_PASSWORD").Wrap(domain.ErrInvalidInput)
	}
	if in.Token == "" {
		return nil, oops.Code("RESET_TOKEN_MISSING").Wrap(domain.ErrTokenNotFound)
	}

	user, err := u.users.FindByResetToken(ctx, in.Token)
	if err != nil {
		return nil, err
	}

	now := u.clock.Now()
	if user.ResetExpiredAt(now) {
		return nil, oops.Code("RESET_TOKEN_EXPIRED").
			With("user_id", user.ID).
			With("expired_at", user.ResetExpire).
			Wrap(domain.ErrTokenExpired)
	}

	digest, err := u.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("CREDENTIAL_HASH_FAILED").Wrap(err)
	}

	updated, err := u.users.ConsumeResetToken(ctx, in.Token, digest, now)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// CurrentUser loads the user a resolved session points at.
func (u *AuthUsecase) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	return u.users.FindByID(ctx, userID)
}

func (u *AuthUsecase) resetMailBody(remoteAddr, resetToken string) string {
	if remoteAddr == "" {
		remoteAddr = "unknown"
	}
	return fmt.Sprintf(
		"You have requested a password reset from the IP address %s.\n\n"+
			"If this was a mistake, just ignore this email and nothing will happen.\n\n"+
			"To reset your password, visit the following address. This link will expire in %d hours.\n\n"+
			"%s/reset/%s",
		remoteAddr, u.cfg.ResetTokenHours, u.cfg.ServerURL, resetToken,
	)
}

func (u *AuthUsecase) equalizeVerify(password string) {
	u.dummyOnce.Do(func() {
		digest, err := u.hasher.Hash(dummyPassword)
		if err != nil {
			u.logger.Warn("dummy digest unavailable", "error", err)
			return
		}
		u.dummyDigest = digest
	})
	if u.dummyDigest != "" {
		_, _ = u.hasher.Verify(password, u.dummyDigest)
	}
}

func bind(ctx context.Context, sess domain.Session, user *domain.User) error {
	if sess == nil {
		return oops.Code("SESSION_UNAVAILABLE").Errorf("no session to bind")
	}
	if err := sess.Bind(ctx, user); err != nil {
		return oops.Code("SESSION_BIND_FAILED").With("user_id", user.ID).Wrap(err)
	}
	return nil
}
