package account

import (
	"errors"
	"net/http"

	"github.com/cashlens/cashlens/binder"
	"github.com/cashlens/cashlens/handler"
	"github.com/cashlens/cashlens/svc/auth"
)

// Handler exposes the Service over HTTP.
type Handler struct {
	svc          *Service
	errorHandler handler.ErrorHandler[handler.Context]
}

// NewHandler creates the HTTP handler.
func NewHandler(svc *Service, errorHandler handler.ErrorHandler[handler.Context]) *Handler {
	return &Handler{svc: svc, errorHandler: errorHandler}
}

// Register handles POST /auth/register.
func (h *Handler) Register() http.HandlerFunc {
	return wrap(h.register, h.errorHandler, binder.BindJSON())
}

// Login handles POST /auth/login.
func (h *Handler) Login() http.HandlerFunc {
	return wrap(h.login, h.errorHandler, binder.BindJSON())
}

// VerifyTwoFactor handles POST /auth/2fa/verify behind RequireChallenge.
func (h *Handler) VerifyTwoFactor() http.HandlerFunc {
	return wrap(h.verify, h.errorHandler, binder.BindJSON())
}

// Me handles GET /me behind RequireAuth.
func (h *Handler) Me() http.HandlerFunc {
	return wrap(h.me, h.errorHandler)
}

func wrap[R any](fn handler.HandlerFunc[handler.Context, R], eh handler.ErrorHandler[handler.Context], binders ...handler.Bind) http.HandlerFunc {
	return handler.Wrap(fn,
		handler.WithBinders[handler.Context, R](binders...),
		handler.WithErrorHandler[handler.Context, R](eh),
	)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyRequest struct {
	Code         string `json:"code"`
	IsBackupCode bool   `json:"isBackupCode"`
}

type userResponse struct {
	User *Profile `json:"user"`
}

func (h *Handler) register(ctx handler.Context, req registerRequest) handler.Response {
	user, err := h.svc.Register(ctx, RegisterParams(req))
	if err != nil {
		return handler.Error(MapError(err))
	}
	return handler.Created("Account created", userResponse{User: &Profile{
		ID:             user.ID,
		Email:          user.Email,
		Name:           user.Name,
		HasPassword:    true,
		TwoFactorState: "disabled",
		CreatedAt:      user.CreatedAt,
	}})
}

func (h *Handler) login(ctx handler.Context, req loginRequest) handler.Response {
	res, err := h.svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return handler.Error(MapError(err))
	}
	if res.TwoFactorRequired {
		return handler.OK("Enter the code from your authenticator app", res)
	}
	return handler.OK("Logged in", res)
}

func (h *Handler) verify(ctx handler.Context, req verifyRequest) handler.Response {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return handler.Error(handler.ErrUnauthorized)
	}
	res, err := h.svc.CompleteLogin(ctx, userID, req.Code, req.IsBackupCode)
	if err != nil {
		return handler.Error(MapError(err))
	}
	return handler.OK("Logged in", res)
}

func (h *Handler) me(ctx handler.Context, _ struct{}) handler.Response {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return handler.Error(handler.ErrUnauthorized)
	}
	profile, err := h.svc.Me(ctx, userID)
	if err != nil {
		return handler.Error(MapError(err))
	}
	return handler.OK("Profile", userResponse{User: profile})
}

var errorMessages = []struct {
	err  error
	resp handler.HTTPError
}{
	{ErrEmailTaken, handler.ErrConflict.WithMessage("An account with this email already exists")},
	{ErrInvalidCredentials, handler.ErrUnauthorized.WithMessage("Invalid email or password")},
	{ErrInvalidTwoFactor, handler.ErrUnauthorized.WithMessage("Invalid two-factor code")},
	{ErrTwoFactorNotEnabled, handler.ErrBadRequest.WithMessage("Two-factor authentication is not enabled")},
	{ErrTwoFactorCorrupted, handler.ErrBadRequest.WithMessage("Setup corrupted, please restart setup")},
	{ErrUserNotFound, handler.ErrNotFound.WithMessage("User not found")},
}

// MapError converts service errors to client-facing HTTP errors.
func MapError(err error) error {
	for _, m := range errorMessages {
		if errors.Is(err, m.err) {
			return m.resp.Wrap(err)
		}
	}
	return err
}
