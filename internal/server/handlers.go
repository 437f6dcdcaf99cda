package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/desertthunder/shzx/internal/shared"
)

// StatusFor maps an error to the HTTP status its class is reported with.
func StatusFor(err error) int {
	switch shared.Classify(err) {
	case shared.KindInput:
		return http.StatusBadRequest
	case shared.KindRemote:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// BannerHandler answers GET / with a plain text banner, which doubles as a health check.
func BannerHandler(version string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "Shazam history to YouTube Music reconciler (%s)\n", version)
	})
}
