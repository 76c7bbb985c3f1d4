package ledger

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cashlens/cashlens/binder"
	"github.com/cashlens/cashlens/handler"
	"github.com/cashlens/cashlens/svc/auth"
)

// Handler exposes the Service over HTTP. Every route expects an
// authenticated identity in the request context.
type Handler struct {
	svc          *Service
	errorHandler handler.ErrorHandler[handler.Context]
}

// NewHandler creates the HTTP handler.
func NewHandler(svc *Service, errorHandler handler.ErrorHandler[handler.Context]) *Handler {
	return &Handler{svc: svc, errorHandler: errorHandler}
}

// Mount registers /categories, /transactions and /budgets on r.
func (h *Handler) Mount(r chi.Router) {
	path := binder.Path(chi.URLParam)

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", wrap(h.listCategories, h.errorHandler))
		r.Post("/", wrap(h.createCategory, h.errorHandler, binder.BindJSON()))
		r.Delete("/{id}", wrap(h.deleteCategory, h.errorHandler, path))
	})
	r.Route("/transactions", func(r chi.Router) {
		r.Get("/", wrap(h.listTransactions, h.errorHandler, binder.BindQuery()))
		r.Post("/", wrap(h.createTransaction, h.errorHandler, binder.BindJSON()))
		r.Get("/{id}", wrap(h.getTransaction, h.errorHandler, path))
		r.Delete("/{id}", wrap(h.deleteTransaction, h.errorHandler, path))
	})
	r.Route("/budgets", func(r chi.Router) {
		r.Get("/", wrap(h.listBudgets, h.errorHandler))
		r.Put("/", wrap(h.upsertBudget, h.errorHandler, binder.BindJSON()))
		r.Delete("/{id}", wrap(h.deleteBudget, h.errorHandler, path))
	})
}

func wrap[R any](fn handler.HandlerFunc[handler.Context, R], eh handler.ErrorHandler[handler.Context], binders ...handler.Bind) http.HandlerFunc {
	return handler.Wrap(fn,
		handler.WithBinders[handler.Context, R](binders...),
		handler.WithErrorHandler[handler.Context, R](eh),
		handler.WithDecorators[handler.Context, R](requireUser[R]),
	)
}

// requireUser rejects requests that reached the handler without an identity.
func requireUser[R any](next handler.HandlerFunc[handler.Context, R]) handler.HandlerFunc[handler.Context, R] {
	return func(ctx handler.Context, req R) handler.Response {
		if _, ok := auth.UserIDFromContext(ctx); !ok {
			return handler.Error(handler.ErrUnauthorized)
		}
		return next(ctx, req)
	}
}

func userID(ctx handler.Context) uuid.UUID {
	id, _ := auth.UserIDFromContext(ctx)
	return id
}

type idRequest struct {
	ID uuid.UUID `path:"id"`
}

type categoryRequest struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

type transactionRequest struct {
	Kind        Kind       `json:"kind"`
	AmountCents int64      `json:"amountCents"`
	Currency    string     `json:"currency"`
	CategoryID  *uuid.UUID `json:"categoryId"`
	Description string     `json:"description"`
	OccurredAt  *time.Time `json:"occurredAt"`
}

type listTransactionsRequest struct {
	From       *time.Time `query:"from"`
	To         *time.Time `query:"to"`
	Kind       Kind       `query:"kind"`
	CategoryID *uuid.UUID `query:"category"`
	Limit      int        `query:"limit"`
}

type budgetRequest struct {
	CategoryID  uuid.UUID `json:"categoryId"`
	AmountCents int64     `json:"amountCents"`
	Period      Period    `json:"period"`
}

func (h *Handler) listCategories(ctx handler.Context, _ struct{}) handler.Response {
	cats, err := h.svc.ListCategories(ctx, userID(ctx))
	if err != nil {
		return handler.Error(MapError(err))
	}
	return handler.OK("Categories", map[string]any{"categories": nonNil(cats)})
}

func (h *Handler) createCategory(ctx handler.Context, req categoryRequest) handler.Response {
	cat, err := h.svc.CreateCategory(ctx, userID(ctx), CategoryParams(req))
	if err != nil {
		return handler.Error(MapError(err))
	}
	return handler.Created("Category created", map[string]any{"category": cat})
}

func (h *Handler) deleteCategory(ctx handler.Context, req idRequest) handler.Response {
	if err := h.svc.DeleteCategory(ctx, userID(ctx), req.ID); err != nil {
		return handler.Error(MapError(err))
	}
	return handler.OK("Category deleted", nil)
}

func (h *Handler) listTransactions(ctx handler.Context, req listTransactionsRequest) handler.Response {
	txs, err := h.svc.ListTransactions(ctx, userID(ctx), TransactionFilter(req))
	if err != nil {
		return handler.Error(MapError(err))
	}
	return handler.OK("Transactions", map[string]any{"transactions": nonNil(txs), "count": len(txs)})
}

func (h *Handler) createTransaction(ctx handler.Context, req transactionRequest) handler.Response {
	tx, err := h.svc.CreateTransaction(ctx, userID(ctx), TransactionParams(req))
	if err != nil {
		return handler.Error(MapError(err))
	}
	return handler.Created("Transaction recorded", map[string]any{"transaction": tx})
}

func (h *Handler) getTransaction(ctx handler.Context, req idRequest) handler.Response {
	tx, err := h.svc.GetTransaction(ctx, userID(ctx), req.ID)
	if err != nil {
		return handler.Error(MapError(err))
	}
	return handler.OK("Transaction", map[string]any{"transaction": tx})
}

func (h *Handler) deleteTransaction(ctx handler.Context, req idRequest) handler.Response {
	if err := h.svc.DeleteTransaction(ctx, userID(ctx), req.ID); err != nil {
		return handler.Error(MapError(err))
	}
	return handler.OK("Transaction deleted", nil)
}

func (h *Handler) listBudgets(ctx handler.Context, _ struct{}) handler.Response {
	budgets, err := h.svc.ListBudgets(ctx, userID(ctx))
	if err != nil {
		return handler.Error(MapError(err))
	}
	return handler.OK("Budgets", map[string]any{"budgets": nonNil(budgets)})
}

func (h *Handler) upsertBudget(ctx handler.Context, req budgetRequest) handler.Response {
	b, err := h.svc.UpsertBudget(ctx, userID(ctx), BudgetParams(req))
	if err != nil {
		return handler.Error(MapError(err))
	}
	return handler.OK("Budget saved", map[string]any{"budget": b})
}

func (h *Handler) deleteBudget(ctx handler.Context, req idRequest) handler.Response {
	if err := h.svc.DeleteBudget(ctx, userID(ctx), req.ID); err != nil {
		return handler.Error(MapError(err))
	}
	return handler.OK("Budget deleted", nil)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

var errorMessages = []struct {
	err  error
	resp handler.HTTPError
}{
	{ErrCategoryNotFound, handler.ErrNotFound.WithMessage("Category not found")},
	{ErrCategoryExists, handler.ErrConflict.WithMessage("A category with this name already exists")},
	{ErrCategoryKind, handler.ErrBadRequest.WithMessage("Category kind does not match")},
	{ErrTransactionNotFound, handler.ErrNotFound.WithMessage("Transaction not found")},
	{ErrBudgetNotFound, handler.ErrNotFound.WithMessage("Budget not found")},
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
