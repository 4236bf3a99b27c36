package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/quizrunner/internal/chart"
	"github.com/pavelanni/quizrunner/internal/command"
	"github.com/pavelanni/quizrunner/internal/handler/views"
	"github.com/pavelanni/quizrunner/internal/i18n"
	"github.com/pavelanni/quizrunner/internal/model"
	"github.com/pavelanni/quizrunner/internal/quiz"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	svc    *quiz.Service
	config model.Config
}

// New creates a new Handler.
func New(svc *quiz.Service, cfg model.Config) (*Handler, error) {
	if svc == nil {
		return nil, errors.New("handler: nil service")
	}
	return &Handler{svc: svc, config: cfg}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Get("/tests/{id}", h.handleTestPage)
	r.Post("/tests/{id}/submit", h.handleSubmit)
	r.Get("/history", h.handleHistory)
	r.Get("/history/clear", h.handleConfirmClear)
	r.Post("/history/clear", h.handleClear)

	r.Route("/api", h.apiRoutes)
}

// BasePathMiddleware makes the configured base path available to views.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := model.ContextWithBasePath(r.Context(), h.config.BasePath)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// dispatcher returns a dispatcher over a fresh session. Every request names
// its test, so no question set is shared between requests.
func (h *Handler) dispatcher() *command.Dispatcher {
	return command.New(quiz.NewSession(h.svc))
}

func (h *Handler) tests(ctx context.Context) []string {
	out, err := h.dispatcher().Dispatch(ctx, command.ListTests{})
	if err != nil {
		slog.Warn("failed to list tests", "error", err)
		return nil
	}
	return out.Tests
}

func render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

// errorStatus maps engine errors to an HTTP status and a message ID.
func errorStatus(err error) (int, string) {
	var fe *quiz.FetchError
	var se *quiz.SchemaError
	switch {
	case errors.As(err, &fe):
		return http.StatusBadGateway, "LoadErrorFetch"
	case errors.As(err, &se):
		return http.StatusUnprocessableEntity, "LoadErrorSchema"
	case errors.Is(err, quiz.ErrConfirmationRequired):
		return http.StatusBadRequest, "ConfirmationRequired"
	case errors.Is(err, quiz.ErrQuestionSetChanged):
		return http.StatusConflict, "TestChanged"
	case errors.Is(err, quiz.ErrNoQuestionSet):
		return http.StatusBadRequest, "NoQuestionSet"
	default:
		return http.StatusInternalServerError, "InternalError"
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, sourceID string, err error) {
	status, msgID := errorStatus(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "path", r.URL.Path, "error", err)
	}
	msg := i18n.Td(r.Context(), msgID, map[string]any{"Test": quiz.DisplayName(sourceID)})
	render(w, r, status, views.ErrorPage(msg))
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	tests := h.tests(r.Context())
	if h.config.DefaultTest == "" {
		render(w, r, http.StatusOK, views.IndexPage(tests, nil))
		return
	}
	out, err := h.dispatcher().Dispatch(r.Context(), command.LoadTest{SourceID: h.config.DefaultTest})
	if err != nil {
		h.renderError(w, r, h.config.DefaultTest, err)
		return
	}
	render(w, r, http.StatusOK, views.IndexPage(tests, out.QuestionSet))
}

func (h *Handler) handleTestPage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	out, err := h.dispatcher().Dispatch(r.Context(), command.LoadTest{SourceID: id})
	if err != nil {
		h.renderError(w, r, id, err)
		return
	}
	render(w, r, http.StatusOK, views.TestPage(h.tests(r.Context()), *out.QuestionSet))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	d := h.dispatcher()
	out, err := d.Dispatch(r.Context(), command.LoadTest{SourceID: id})
	if err != nil {
		h.renderError(w, r, id, err)
		return
	}
	selections := formSelections(r, out.QuestionSet.Len())

	out, err = d.Dispatch(r.Context(), command.Submit{
		Selections:  selections,
		Fingerprint: r.PostFormValue(views.FingerprintField),
	})
	if err != nil {
		h.renderError(w, r, id, err)
		return
	}
	sub := *out.Submission

	c := chart.Build(sub.Answers, func(i int) string {
		return i18n.Td(r.Context(), "QuestionN", map[string]any{"N": i + 1})
	})
	render(w, r, http.StatusOK, views.ResultsPage(sub, selections, chart.SVG(c)))
}

// formSelections reads fields q0..q<n-1>. Unanswered questions are absent.
func formSelections(r *http.Request, n int) map[int]string {
	selections := make(map[int]string, n)
	for i := 0; i < n; i++ {
		if v := strings.TrimSpace(r.PostFormValue(views.FieldName(i))); v != "" {
			selections[i] = v
		}
	}
	return selections
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	out, err := h.dispatcher().Dispatch(r.Context(), command.ViewHistory{})
	if err != nil {
		h.renderError(w, r, "", err)
		return
	}
	render(w, r, http.StatusOK, views.HistoryPage(out.History))
}

func (h *Handler) handleConfirmClear(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, views.ConfirmClearPage())
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	confirmed := r.FormValue("confirm") == "yes"
	if _, err := h.dispatcher().Dispatch(r.Context(), command.ClearHistory{Confirmed: confirmed}); err != nil {
		h.renderError(w, r, "", err)
		return
	}
	render(w, r, http.StatusOK, views.MessagePage("", i18n.T(r.Context(), "HistoryCleared")))
}
