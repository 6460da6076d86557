package control

import (
	"encoding/json"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// apiResponse is the common envelope every endpoint returns.
type apiResponse struct {
	OK      bool        `json:"ok"`
	Body    interface{} `json:"body,omitempty"`
	Warning string      `json:"warning,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Router builds the control-plane HTTP surface: settings read/write,
// session teardown, and a Prometheus /metrics endpoint (spec.md §4.6).
func Router(settings *Settings, stations func() interface{}) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(authMiddleware(settings))

	r.Get("/api/settings/", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{
			"props": settings.All(),
		}
		if stations != nil {
			body["stations"] = stations()
		}
		writeJSON(w, http.StatusOK, apiResponse{OK: true, Body: body})
	})

	r.With(requireJSON).Patch("/api/settings/", func(w http.ResponseWriter, r *http.Request) {
		if settings.DisableAPIControl {
			writeJSON(w, http.StatusExpectationFailed, apiResponse{OK: false, Error: "API control is disabled"})
			return
		}

		var req struct {
			Prop  string `json:"prop"`
			Value Value  `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, apiResponse{OK: false, Error: "malformed request body"})
			return
		}

		if err := settings.Set(req.Prop, req.Value); err != nil {
			writeJSON(w, http.StatusBadRequest, apiResponse{OK: false, Error: err.Error()})
			return
		}

		resp := apiResponse{OK: true}
		if !settings.SignalReload() {
			resp.Warning = "reload signal channel full; settings applied but reload may be delayed"
		}
		writeJSON(w, http.StatusOK, resp)
	})

	r.Delete("/api/session", func(w http.ResponseWriter, r *http.Request) {
		if settings.DisableAPIControl {
			writeJSON(w, http.StatusExpectationFailed, apiResponse{OK: false, Error: "API control is disabled"})
			return
		}
		settings.SignalEndSession(ReasonUserAPIControl)
		writeJSON(w, http.StatusOK, apiResponse{OK: true})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

func authMiddleware(settings *Settings) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if settings.APIToken == "" || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}
			if r.Header.Get("Authorization") != settings.APIToken {
				writeJSON(w, http.StatusUnauthorized, apiResponse{OK: false, Error: "unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireJSON rejects request bodies that aren't Content-Type:
// application/json, per spec.md §6: "All endpoints require
// Content-Type: application/json."
func requireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			writeJSON(w, http.StatusUnsupportedMediaType, apiResponse{OK: false, Error: "Content-Type must be application/json"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
