package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// thingSummary is the wire shape of one entry in the /things response.
type thingSummary struct {
	UID      string `json:"uid"`
	Binding  string `json:"binding"`
	Label    string `json:"label,omitempty"`
	Groups   int    `json:"groups"`
	Channels int    `json:"channels"`
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (a *App) thingsHandler(w http.ResponseWriter, _ *http.Request) {
	all := a.thingTypes.All()
	summaries := make([]thingSummary, 0, len(all))
	for _, tt := range all {
		summaries = append(summaries, thingSummary{
			UID:      tt.UID,
			Binding:  tt.BindingID,
			Label:    tt.Label,
			Groups:   len(tt.Groups),
			Channels: len(tt.Channels),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(summaries); err != nil {
		a.logger.Error("Failed to encode /things response", "error", err)
	}
}

func (a *App) discardBindingHandler(w http.ResponseWriter, r *http.Request) {
	bindingID := r.PathValue("id")
	if !a.DiscardBinding(r.Context(), bindingID) {
		http.Error(w, "unknown binding", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// statusServer starts the HTTP status server in a goroutine.
func (a *App) statusServer() {
	a.logger.Debug("Configuring status server.")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", a.healthHandler)
	mux.HandleFunc("GET /things", a.thingsHandler)
	mux.HandleFunc("DELETE /bindings/{id}", a.discardBindingHandler)

	addr := fmt.Sprintf(":%d", a.config.HealthcheckPort)

	a.mu.Lock()
	a.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	a.mu.Unlock()

	go func() {
		a.logger.Info("🩺 Status server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Status server failed unexpectedly", "error", err)
		}
	}()
}

func (a *App) closeStatusServer() {
	a.mu.Lock()
	srv := a.httpServer
	a.mu.Unlock()

	if srv == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a.logger.Info("🩺 Shutting down status server...")
	if err := srv.Shutdown(ctx); err != nil {
		a.logger.Error("Status server shutdown failed", "error", err)
	}
}
