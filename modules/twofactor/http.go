package twofactor

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cashlens/cashlens/binder"
	"github.com/cashlens/cashlens/handler"
	"github.com/cashlens/cashlens/pkg/validator"
	"github.com/cashlens/cashlens/svc/auth"
)

// Handler exposes the Service over HTTP. Every route expects an
// authenticated identity in the request context.
type Handler struct {
	svc          *Service
	errorHandler handler.ErrorHandler[handler.Context]
}

// NewHandler creates the HTTP handler. A nil errorHandler renders errors
// without logging.
func NewHandler(svc *Service, errorHandler handler.ErrorHandler[handler.Context]) *Handler {
	return &Handler{svc: svc, errorHandler: errorHandler}
}

// Routes mounts status, setup, enable, disable and backup-codes.
// enableMiddleware wraps only POST /enable, usually a rate limiter.
func (h *Handler) Routes(enableMiddleware ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", wrap(h.status, h.errorHandler))
	r.Post("/setup", wrap(h.setup, h.errorHandler))
	r.With(enableMiddleware...).Post("/enable", wrap(h.enable, h.errorHandler, binder.BindJSON()))
	r.Post("/disable", wrap(h.disable, h.errorHandler, binder.BindJSON()))
	r.Post("/backup-codes", wrap(h.regenerate, h.errorHandler, binder.BindJSON()))
	return r
}

func wrap[R any](fn handler.HandlerFunc[handler.Context, R], eh handler.ErrorHandler[handler.Context], binders ...handler.Bind) http.HandlerFunc {
	return handler.Wrap(fn,
		handler.WithBinders[handler.Context, R](binders...),
		handler.WithErrorHandler[handler.Context, R](eh),
	)
}

type codeRequest struct {
	Code string `json:"code"`
}

type disableRequest struct {
	Password     string `json:"password"`
	Code         string `json:"code"`
	IsBackupCode bool   `json:"isBackupCode"`
}

type backupCodesResponse struct {
	BackupCodes []string `json:"backupCodes"`
}

func (h *Handler) status(ctx handler.Context, _ struct{}) handler.Response {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return handler.Error(handler.ErrUnauthorized)
	}
	st, err := h.svc.Status(ctx, userID)
	if err != nil {
		return handler.Error(MapError(err))
	}
	return handler.OK("Two-factor status", st)
}

func (h *Handler) setup(ctx handler.Context, _ struct{}) handler.Response {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return handler.Error(handler.ErrUnauthorized)
	}
	res, err := h.svc.BeginSetup(ctx, userID)
	if err != nil {
		return handler.Error(MapError(err))
	}
	return handler.OK("Scan the QR code with your authenticator app, then confirm with a code", res)
}

func (h *Handler) enable(ctx handler.Context, req codeRequest) handler.Response {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return handler.Error(handler.ErrUnauthorized)
	}
	if err := validator.Apply(validator.Required("code", req.Code)); err != nil {
		return handler.Error(err)
	}
	codes, err := h.svc.VerifySetup(ctx, userID, req.Code)
	if err != nil {
		return handler.Error(MapError(err))
	}
	return handler.OK("Two-factor authentication enabled. Store these backup codes somewhere safe", backupCodesResponse{BackupCodes: codes})
}

func (h *Handler) disable(ctx handler.Context, req disableRequest) handler.Response {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return handler.Error(handler.ErrUnauthorized)
	}
	if err := validator.Apply(validator.Required("password", req.Password)); err != nil {
		return handler.Error(err)
	}
	err := h.svc.Disable(ctx, userID, DisableParams{
		Password:     req.Password,
		Code:         req.Code,
		IsBackupCode: req.IsBackupCode,
	})
	if err != nil {
		return handler.Error(MapError(err))
	}
	return handler.OK("Two-factor authentication disabled", nil)
}

func (h *Handler) regenerate(ctx handler.Context, req codeRequest) handler.Response {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return handler.Error(handler.ErrUnauthorized)
	}
	if err := validator.Apply(validator.Required("code", req.Code)); err != nil {
		return handler.Error(err)
	}
	codes, err := h.svc.RegenerateBackupCodes(ctx, userID, req.Code)
	if err != nil {
		return handler.Error(MapError(err))
	}
	return handler.OK("New backup codes generated. Previous codes no longer work", backupCodesResponse{BackupCodes: codes})
}

var errorMessages = []struct {
	err  error
	resp handler.HTTPError
}{
	{ErrPasswordRequired, handler.ErrBadRequest.WithMessage("Set a password before enabling two-factor authentication")},
	{ErrAlreadyEnabled, handler.ErrBadRequest.WithMessage("Two-factor authentication is already enabled")},
	{ErrSetupNotStarted, handler.ErrBadRequest.WithMessage("Two-factor setup has not been started")},
	{ErrSetupCorrupted, handler.ErrBadRequest.WithMessage("Setup corrupted, please restart setup")},
	{ErrInvalidCode, handler.ErrBadRequest.WithMessage("Invalid verification code")},
	{ErrInvalidPassword, handler.ErrBadRequest.WithMessage("Invalid password")},
	{ErrNotEnabled, handler.ErrBadRequest.WithMessage("Two-factor authentication is not enabled")},
	{ErrUserNotFound, handler.ErrNotFound.WithMessage("User not found")},
}

// MapError converts service errors to client-facing HTTP errors. Unknown
// errors pass through and render as a generic 500.
func MapError(err error) error {
	for _, m := range errorMessages {
		if errors.Is(err, m.err) {
			return m.resp.Wrap(err)
		}
	}
	return err
}
