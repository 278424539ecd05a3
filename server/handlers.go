package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"echofm/config"
	"echofm/logger"
	"echofm/store"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
)

// APIHandler handles all API requests.
type APIHandler struct {
	catalog  store.CatalogStore
	media    store.MediaStore
	sessions sessions.Store
	cfg      *config.Config
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(catalog store.CatalogStore, media store.MediaStore, cfg *config.Config) *APIHandler {
	cookieStore := sessions.NewCookieStore([]byte(cfg.SessionKey))
	cookieStore.Options.HttpOnly = true
	cookieStore.Options.SameSite = http.SameSiteLaxMode

	return &APIHandler{
		catalog:  catalog,
		media:    media,
		sessions: cookieStore,
		cfg:      cfg,
	}
}

// Routes builds the API router.
func (h *APIHandler) Routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(requestLogMiddleware)

	router.HandleFunc("/api/register", h.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/login", h.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/logout", h.LogoutHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/user", h.AuthMiddleware(h.CurrentUserHandler)).Methods(http.MethodGet)

	router.HandleFunc("/api/playlists", h.AuthMiddleware(h.GetPlaylistsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists", h.AdminMiddleware(h.CreatePlaylistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/{id}/songs", h.AuthMiddleware(h.GetPlaylistSongsHandler)).Methods(http.MethodGet)

	router.HandleFunc("/api/songs", h.AdminMiddleware(h.UploadSongHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/songs/{id}/audio", h.AuthMiddleware(h.StreamAudioHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/{id}/play", h.AuthMiddleware(h.RecordPlayHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/songs/{id}/plays", h.PlayCountHandler).Methods(http.MethodGet)

	return router
}

// respondJSON writes v as a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", logger.ErrorField(err))
	}
}

// pathID extracts the {id} route variable as an int64.
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestLogMiddleware tags every request with an ID and logs its outcome.
func requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		logger.Info("request completed",
			logger.String("requestId", requestID),
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", recorder.status),
			logger.Duration("elapsed", time.Since(start)),
		)
	})
}

// corsMiddleware echoes the request origin so credentialed requests from the
// web client work during development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
