package handler

import (
	"log/slog"
	"net/http"

	"github.com/cashlens/cashlens/pkg/logger"
	"github.com/cashlens/cashlens/pkg/requestid"
)

// NewErrorHandler renders the JSON error envelope and logs the failure:
// client errors at warn, everything else at error with the full cause.
func NewErrorHandler(log *slog.Logger) ErrorHandler[Context] {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(logger.Component("http"))

	return func(ctx Context, err error) {
		r := ctx.Request()
		status, message, payload := Classify(err)

		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		log.LogAttrs(r.Context(), level, "request failed",
			logger.RequestID(requestid.FromContext(r.Context())),
			logger.Error(err),
			logger.Method(r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
		)

		if renderErr := JSON(status, message, payload).Render(ctx.ResponseWriter(), r); renderErr != nil {
			log.ErrorContext(r.Context(), "failed to render error response", logger.Error(renderErr))
		}
	}
}
