package main

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/nowbridge/nowbridge/internal/spotify"
	"github.com/rs/zerolog/log"
)

// HTTPStatuser provides HTTP status information for errors
type HTTPStatuser interface {
	Status() (int, string)
}

func handleNowPlaying(svc *spotify.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		state, err := svc.CurrentlyPlaying(r.Context(), clientIP(r))
		if err != nil {
			serviceError(w, "now playing", err)
			return
		}

		writeJSON(w, state)
	})
}

func handleTopArtists(svc *spotify.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		timeRange, err := spotify.ParseTimeRange(r.URL.Query().Get("range"))
		if err != nil {
			requestError(w, http.StatusBadRequest)
			return
		}

		artists, err := svc.TopArtists(r.Context(), clientIP(r), timeRange)
		if err != nil {
			serviceError(w, "top artists", err)
			return
		}

		writeJSON(w, artists)
	})
}

func handleTopTracks(svc *spotify.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		timeRange, err := spotify.ParseTimeRange(r.URL.Query().Get("range"))
		if err != nil {
			requestError(w, http.StatusBadRequest)
			return
		}

		tracks, err := svc.TopTracks(r.Context(), clientIP(r), timeRange)
		if err != nil {
			serviceError(w, "top tracks", err)
			return
		}

		writeJSON(w, tracks)
	})
}

func handleRecentlyPlayed(svc *spotify.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		tracks, err := svc.RecentlyPlayed(r.Context(), clientIP(r))
		if err != nil {
			serviceError(w, "recently played", err)
			return
		}

		writeJSON(w, tracks)
	})
}

func handleAudioFeatures(svc *spotify.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		timeRange, err := spotify.ParseTimeRange(r.URL.Query().Get("range"))
		if err != nil {
			requestError(w, http.StatusBadRequest)
			return
		}

		summary, err := svc.AudioFeatureSummary(r.Context(), clientIP(r), timeRange)
		if err != nil {
			serviceError(w, "audio features", err)
			return
		}

		writeJSON(w, summary)
	})
}

func handleHealthCheck() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

// clientIP extracts the caller identity used in quota keys: the first
// X-Forwarded-For entry when present, otherwise the connection's remote host.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func maxRequestSize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.MaxBytesHandler(next, limit)
	}
}

// ErrorResponse represents a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// serviceError maps a service failure onto the response, withholding any
// upstream detail from the client.
func serviceError(w http.ResponseWriter, operation string, err error) {
	status, message := errorStatus(err)
	log.Info().Str("operation", operation).Msgf("operation failed: %v", err)
	writeJSONError(w, status, message)
}

// errorStatus extracts HTTP status code and message from an error.
// Returns (StatusInternalServerError, StatusText) for errors that don't implement HTTPStatuser.
func errorStatus(err error) (int, string) {
	var statuser HTTPStatuser
	if errors.As(err, &statuser) {
		return statuser.Status()
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	marshalled, err := json.Marshal(v)
	if err != nil {
		requestError(w, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(marshalled)
	if err != nil {
		// record failure to log: trying to respond to the client at this
		// point will likely fail
		log.Info().Msgf("failed to write response: %v\n", err)
	}
}

// writeJSONError writes a JSON error response with the given status code and message.
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{Error: message}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		// At this point the status code has been written, so we can only log
		log.Info().Msgf("failed to write JSON error response: %v", err)
	}
}

func requestError(w http.ResponseWriter, statusCode int) {
	http.Error(w, http.StatusText(statusCode), statusCode)
}

// drainRequestBody drains the request body by reading and discarding the contents.
// This is useful to ensure the request body is fully consumed, which is important
// for connection reuse in HTTP/1 clients.
func drainRequestBody(r *http.Request) {
	if r.Body != nil {
		// 5kb max: after this we'll assume the client is broken or malicious
		// and close the connection
		io.CopyN(io.Discard, r.Body, 5*1024*1024)
	}
}
