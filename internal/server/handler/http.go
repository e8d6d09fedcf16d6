// Package handler provides HTTP request handling for the MCP server.
package handler

import (
	"net/http"

	"github.com/brizzai/fetchkit/internal/logger"
	"github.com/brizzai/fetchkit/internal/utils"
)

// Handler builds the HTTP mux placed in front of the MCP transport.
type Handler struct{}

// NewHandler creates a new HTTP handler.
func NewHandler() *Handler {
	return &Handler{}
}

// CreateHTTPHandler mounts mcpHandler at "/" and adds a /healthz probe.
func (h *Handler) CreateHTTPHandler(mcpHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.health)
	mux.Handle("/", mcpHandler)
	logger.Info("Registered HTTP routes")
	return mux
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		utils.WriteError(w, "method_not_allowed", "only GET and HEAD are supported", http.StatusMethodNotAllowed)
		return
	}
	utils.WriteJSON(w, map[string]string{"status": "ok"})
}
