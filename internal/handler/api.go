package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/quizrunner/internal/command"
	"github.com/pavelanni/quizrunner/internal/model"
	"github.com/pavelanni/quizrunner/internal/quiz"
)

type submitRequest struct {
	Selections  map[string]string `json:"selections"`
	Fingerprint string            `json:"fingerprint,omitempty"`
}

type submitResponse struct {
	Test    string             `json:"test"`
	Answers model.AnswerRecord `json:"answers"`
	Entry   model.HistoryEntry `json:"entry"`
	Summary model.Summary      `json:"summary"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (h *Handler) apiRoutes(r chi.Router) {
	r.Get("/tests", h.apiListTests)
	r.Get("/tests/{id}", h.apiGetTest)
	r.Post("/tests/{id}/submit", h.apiSubmit)
	r.Get("/history", h.apiHistory)
	r.Delete("/history", h.apiClearHistory)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeAPIError(w http.ResponseWriter, err error) {
	status, _ := errorStatus(err)
	resp := errorResponse{Error: err.Error()}
	var fe *quiz.FetchError
	var se *quiz.SchemaError
	switch {
	case errors.As(err, &fe):
		resp.Kind = "fetch"
	case errors.As(err, &se):
		resp.Kind = "schema"
	case errors.Is(err, quiz.ErrConfirmationRequired):
		resp.Kind = "confirmation_required"
	case errors.Is(err, quiz.ErrQuestionSetChanged):
		resp.Kind = "test_changed"
	case status == http.StatusInternalServerError:
		slog.Error("api request failed", "error", err)
		resp.Error = http.StatusText(status)
	}
	writeJSON(w, status, resp)
}

func (h *Handler) apiListTests(w http.ResponseWriter, r *http.Request) {
	out, err := h.dispatcher().Dispatch(r.Context(), command.ListTests{})
	if err != nil {
		writeAPIError(w, err)
		return
	}
	tests := out.Tests
	if tests == nil {
		tests = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tests": tests})
}

func (h *Handler) apiGetTest(w http.ResponseWriter, r *http.Request) {
	out, err := h.dispatcher().Dispatch(r.Context(), command.LoadTest{SourceID: chi.URLParam(r, "id")})
	if err != nil {
		writeAPIError(w, err)
		return
	}
	w.Header().Set("ETag", `"`+quiz.Fingerprint(*out.QuestionSet)+`"`)
	writeJSON(w, http.StatusOK, out.QuestionSet)
}

func (h *Handler) apiSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON: " + err.Error()})
		return
	}
	selections, err := atoiKeys(req.Selections)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	d := h.dispatcher()
	if _, err := d.Dispatch(r.Context(), command.LoadTest{SourceID: chi.URLParam(r, "id")}); err != nil {
		writeAPIError(w, err)
		return
	}
	out, err := d.Dispatch(r.Context(), command.Submit{Selections: selections, Fingerprint: req.Fingerprint})
	if err != nil {
		writeAPIError(w, err)
		return
	}
	sub := out.Submission
	writeJSON(w, http.StatusOK, submitResponse{
		Test:    sub.QuestionSet.SourceID,
		Answers: sub.Answers,
		Entry:   sub.Entry,
		Summary: sub.Summary,
	})
}

func (h *Handler) apiHistory(w http.ResponseWriter, r *http.Request) {
	out, err := h.dispatcher().Dispatch(r.Context(), command.ViewHistory{})
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": out.History})
}

func (h *Handler) apiClearHistory(w http.ResponseWriter, r *http.Request) {
	confirmed := r.URL.Query().Get("confirm") == "yes"
	if _, err := h.dispatcher().Dispatch(r.Context(), command.ClearHistory{Confirmed: confirmed}); err != nil {
		writeAPIError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func atoiKeys(in map[string]string) (map[int]string, error) {
	out := make(map[int]string, len(in))
	for k, v := range in {
		i, err := strconv.Atoi(k)
		if err != nil || i < 0 {
			return nil, errors.New("selection keys must be question indexes")
		}
		out[i] = v
	}
	return out, nil
}
