package usecase

import (
	"context"
	"log/slog"

	"github.com/ErlanBelekov/charon/internal/domain"
	"github.com/ErlanBelekov/charon/internal/metrics"
)

const (
	OpSignin  = "signin"
	OpSignup  = "signup"
	OpSignout = "signout"
	OpForgot  = "forgot"
	OpReset   = "reset"
)

const (
	MsgSigninSuccess  = "Signin success"
	MsgSigninFailure  = "Signin failure"
	MsgSignupSuccess  = "Signup success"
	MsgSignupFailure  = "Signup failure"
	MsgSignoutSuccess = "Signout success"
	MsgForgotSuccess  = "Password request success"
	MsgForgotFailure  = "Password request failure"
	MsgResetSuccess   = "Password reset success"
	MsgResetFailure   = "Password reset failure"
)

// Options configures where a flow sends the client. Empty targets fall back
// to the request path.
type Options struct {
	SuccessRedirect string
	FailureRedirect string
}

// Request is the transport-neutral input of an auth flow.
type Request struct {
	Path            string
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
	ResetToken      string
	RemoteAddr      string
	Session         domain.Session
}

// HandlerFunc runs one auth operation. It never fails; every path ends in
// an Outcome.
type HandlerFunc func(ctx context.Context, req Request) domain.Outcome

// Flow turns AuthUsecase operations into Outcome-producing handlers.
type Flow struct {
	auth   *AuthUsecase
	logger *slog.Logger
}

func NewFlow(auth *AuthUsecase, logger *slog.Logger) *Flow {
	return &Flow{auth: auth, logger: logger.With("component", "flow")}
}

func (f *Flow) Signin(opts Options) HandlerFunc {
	return func(ctx context.Context, req Request) domain.Outcome {
		_, err := f.auth.Signin(ctx, SigninInput{
			Username: req.Username,
			Password: req.Password,
		}, req.Session)
		return f.finish(ctx, OpSignin, opts, req, MsgSigninSuccess, MsgSigninFailure, err)
	}
}

func (f *Flow) Signup(opts Options) HandlerFunc {
	return func(ctx context.Context, req Request) domain.Outcome {
		_, err := f.auth.Signup(ctx, SignupInput{
			Username:        req.Username,
			Email:           req.Email,
			Password:        req.Password,
			PasswordConfirm: req.PasswordConfirm,
		}, req.Session)
		return f.finish(ctx, OpSignup, opts, req, MsgSignupSuccess, MsgSignupFailure, err)
	}
}

// Signout always succeeds. A failed destroy is logged only.
func (f *Flow) Signout(opts Options) HandlerFunc {
	return func(ctx context.Context, req Request) domain.Outcome {
		if err := f.auth.Signout(ctx, req.Session); err != nil {
			f.logger.WarnContext(ctx, "session destroy failed", "error", err)
		}
		return f.finish(ctx, OpSignout, opts, req, MsgSignoutSuccess, "", nil)
	}
}

func (f *Flow) Forgot(opts Options) HandlerFunc {
	return func(ctx context.Context, req Request) domain.Outcome {
		err := f.auth.ForgotPassword(ctx, ForgotInput{
			Email:      req.Email,
			RemoteAddr: req.RemoteAddr,
		})
		return f.finish(ctx, OpForgot, opts, req, MsgForgotSuccess, MsgForgotFailure, err)
	}
}

func (f *Flow) Reset(opts Options) HandlerFunc {
	return func(ctx context.Context, req Request) domain.Outcome {
		_, err := f.auth.ResetPassword(ctx, ResetInput{
			Token:           req.ResetToken,
			Password:        req.Password,
			PasswordConfirm: req.PasswordConfirm,
		})
		return f.finish(ctx, OpReset, opts, req, MsgResetSuccess, MsgResetFailure, err)
	}
}

func (f *Flow) finish(ctx context.Context, op string, opts Options, req Request, okMsg, failMsg string, err error) domain.Outcome {
	if err == nil {
		metrics.AuthOutcomesTotal.WithLabelValues(op, "success").Inc()
		f.logger.InfoContext(ctx, okMsg, "operation", op)
		return domain.Outcome{
			Kind:           domain.OutcomeSuccess,
			RedirectTarget: target(opts.SuccessRedirect, req.Path),
			Message:        okMsg,
		}
	}

	kind := domain.KindOf(err)
	metrics.AuthOutcomesTotal.WithLabelValues(op, "failure").Inc()
	metrics.AuthFailuresTotal.WithLabelValues(op, string(kind)).Inc()

	if kind == domain.KindDependency {
		f.logger.ErrorContext(ctx, failMsg, "operation", op, "kind", kind, "error", err)
	} else {
		f.logger.InfoContext(ctx, failMsg, "operation", op, "kind", kind, "reason", err.Error())
	}

	return domain.Outcome{
		Kind:           domain.OutcomeFailure,
		RedirectTarget: target(opts.FailureRedirect, req.Path),
		Message:        failMsg,
		Cause:          err,
	}
}

func target(configured, path string) string {
	if configured != "" {
		return configured
	}
	return path
}
