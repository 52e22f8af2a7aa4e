package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/SBrookhart/side-quest-generator/internal/logging"
	"github.com/SBrookhart/side-quest-generator/internal/quest"
	"github.com/SBrookhart/side-quest-generator/internal/resolve"
	"github.com/SBrookhart/side-quest-generator/internal/store"
)

// SecretHeader carries the shared secret for generation requests.
const SecretHeader = "X-Sidequest-Secret"

// Handlers contains the API route handlers.
type Handlers struct {
	store  Store
	runner Runner
	secret string
	today  func() string
}

// QuestsResponse is the body of the quest read endpoints.
type QuestsResponse struct {
	Date   string       `json:"date"`
	Quests []quest.Idea `json:"quests"`
}

// GenerateResponse is the body of a generation request.
type GenerateResponse struct {
	Date     string       `json:"date"`
	RunID    string       `json:"run_id"`
	Skipped  bool         `json:"skipped"`
	Rounds   int          `json:"rounds"`
	Replaced int          `json:"replaced"`
	Quests   []quest.Idea `json:"quests,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HandleHealth handles GET /healthz.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleQuests handles GET /api/quests, defaulting to today.
func (h *Handlers) HandleQuests(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}
	h.serveBatch(w, r, date)
}

// HandleLatest handles GET /api/quests/latest.
func (h *Handlers) HandleLatest(w http.ResponseWriter, r *http.Request) {
	date, err := h.store.LatestDate(r.Context())
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no quests stored yet")
		return
	}
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	h.serveBatch(w, r, date)
}

func (h *Handlers) serveBatch(w http.ResponseWriter, r *http.Request, date string) {
	ideas, err := h.store.GetBatch(r.Context(), date)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no quests for "+date)
		return
	}
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, QuestsResponse{Date: date, Quests: ideas})
}

// HandleGenerate handles POST /api/quests/generate.
func (h *Handlers) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil || h.secret == "" {
		writeError(w, http.StatusForbidden, "generation is disabled")
		return
	}
	if !h.authorized(r) {
		writeError(w, http.StatusUnauthorized, "invalid secret")
		return
	}
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	out, err := h.runner.Run(r.Context(), date, force)
	if errors.Is(err, resolve.ErrRegenerationExhausted) || errors.Is(err, resolve.ErrRoundLimit) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	status := http.StatusCreated
	if out.Skipped {
		status = http.StatusOK
	}
	writeJSON(w, status, GenerateResponse{
		Date:     out.Date,
		RunID:    out.RunID,
		Skipped:  out.Skipped,
		Rounds:   out.Rounds,
		Replaced: len(out.Replaced),
		Quests:   out.Ideas,
	})
}

func (h *Handlers) authorized(r *http.Request) bool {
	got := r.Header.Get(SecretHeader)
	if got == "" {
		got = r.URL.Query().Get("secret")
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) == 1
}

func (h *Handlers) dateParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	date := r.URL.Query().Get("date")
	if date == "" {
		return h.today(), true
	}
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return "", false
	}
	return date, true
}

func (h *Handlers) internalError(w http.ResponseWriter, r *http.Request, err error) {
	logging.From(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
