package dashboard

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/points-bot/points-bot/internal/ledger"
)

// Handler serves the read-only points API used by the operator dashboard.
type Handler struct {
	ledger ledger.Ledger
	log    *slog.Logger
}

func NewHandler(l ledger.Ledger, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}

	return &Handler{ledger: l, log: log}
}

// Register mounts the dashboard routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/users/{id}/points", h.getPoints)
}

type pointsResponse struct {
	UserID int64 `json:"user_id"`
	Points int64 `json:"points"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) getPoints(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid user id"})
		return
	}

	points, err := h.ledger.Points(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ledger.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "user not found"})
			return
		}

		h.log.Error("failed to read points",
			slog.Int64("user_id", userID),
			slog.Any("error", err),
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, pointsResponse{UserID: userID, Points: points})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
