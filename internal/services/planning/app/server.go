package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/websocket"

	apperrors "github.com/toninhor/scrum-poker-planning/internal/platform/errors"
	"github.com/toninhor/scrum-poker-planning/internal/platform/timeouts"
	"github.com/toninhor/scrum-poker-planning/internal/services/planning/domain"
	planningsqlite "github.com/toninhor/scrum-poker-planning/internal/services/planning/storage/sqlite"
)

// Config defines the inputs for the planning server process.
type Config struct {
	HTTPAddr          string
	StoragePath       string
	TokenSecret       string
	TokenTTL          time.Duration
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server hosts the planning HTTP and WebSocket process.
type Server struct {
	httpAddr        string
	shutdownTimeout time.Duration
	httpServer      *http.Server
	store           *planningsqlite.Store
}

// NewServer builds a configured planning server backed by SQLite storage.
func NewServer(config Config) (*Server, error) {
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	if config.ReadHeaderTimeout <= 0 {
		config.ReadHeaderTimeout = timeouts.ReadHeader
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = timeouts.Shutdown
	}

	store, err := planningsqlite.Open(config.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open planning storage: %w", err)
	}

	tokens, err := NewTokenManager(config.TokenSecret, config.TokenTTL, time.Now)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init token manager: %w", err)
	}

	stores := Stores{Sessions: store, Users: store, Stories: store, Votes: store}
	hub := NewHub()

	handler, err := NewHandler(stores, hub, tokens)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init planning handler: %w", err)
	}

	return &Server{
		httpAddr:        httpAddr,
		shutdownTimeout: config.ShutdownTimeout,
		httpServer: &http.Server{
			Addr:              httpAddr,
			Handler:           handler,
			ReadHeaderTimeout: config.ReadHeaderTimeout,
		},
		store: store,
	}, nil
}

// Run creates and serves a planning server until the context ends.
func Run(ctx context.Context, config Config) error {
	server, err := NewServer(config)
	if err != nil {
		return fmt.Errorf("init planning server: %w", err)
	}
	defer server.Close()

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve planning: %w", err)
	}
	return nil
}

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("planning server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	log.Printf("planning server listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		log.Printf("close planning storage: %v", err)
	}
}

// NewHandler creates the planning routes over the given dependencies.
// The hub may be nil, which disables WebSocket subscriptions and fan-out.
func NewHandler(stores Stores, hub *Hub, tokens *TokenManager) (http.Handler, error) {
	var notifier Notifier
	if hub != nil {
		notifier = hub
	}

	sessions, err := NewSessionService(stores, tokens)
	if err != nil {
		return nil, err
	}
	users, err := NewUserService(stores, notifier, tokens)
	if err != nil {
		return nil, err
	}
	stories, err := NewStoryService(stores, notifier)
	if err != nil {
		return nil, err
	}
	votes, err := NewVoteService(stores, notifier)
	if err != nil {
		return nil, err
	}

	api := &apiHandler{
		sessions: sessions,
		users:    users,
		stories:  stories,
		votes:    votes,
		tokens:   tokens,
		hub:      hub,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("POST /api/sessions", api.createSession)
	mux.HandleFunc("POST /api/sessions/{id}/join", api.connect)
	mux.HandleFunc("GET /api/sessions/{id}/stories", api.listStories)
	mux.HandleFunc("GET /api/sessions/{id}/users", api.listUsers)

	mux.HandleFunc("POST /api/stories", api.withPrincipal(api.createStory))
	mux.HandleFunc("POST /api/stories/{id}/end", api.withPrincipal(api.endStory))
	mux.HandleFunc("DELETE /api/stories/{id}", api.withPrincipal(api.deleteStory))

	mux.HandleFunc("POST /api/users/disconnect", api.withPrincipal(api.disconnect))

	mux.HandleFunc("POST /api/votes", api.withPrincipal(api.vote))
	mux.HandleFunc("DELETE /api/votes/{id}", api.withPrincipal(api.removeVote))

	mux.HandleFunc("GET /ws", api.subscribe)

	return withTelemetry(mux), nil
}

type apiHandler struct {
	sessions *SessionService
	users    *UserService
	stories  *StoryService
	votes    *VoteService
	tokens   *TokenManager
	hub      *Hub
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("planning: encode response body: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	body := errorBody{
		Code:    string(apperrors.CodeOf(err)),
		Message: err.Error(),
	}
	var coded *apperrors.Error
	if errors.As(err, &coded) {
		body.Message = coded.Message
		body.Metadata = coded.Metadata
	}
	writeJSON(w, apperrors.HTTPStatus(err), errorEnvelope{Error: body})
}

func decodeBody(r *http.Request, target any) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return apperrors.New(apperrors.CodeBadArgs, "request body is not valid JSON")
	}
	return nil
}

// tokenFromRequest reads the bearer token, falling back to the token query
// parameter for WebSocket clients that cannot set headers.
func tokenFromRequest(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

// withPrincipal resolves the caller's identity before the wrapped handler
// runs, so services can rely on a principal being present.
func (h *apiHandler) withPrincipal(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := h.tokens.Verify(tokenFromRequest(r))
		if err != nil {
			writeError(w, err)
			return
		}
		next(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	}
}

type createSessionBody struct {
	SprintName string `json:"sprintName"`
	CardSet    string `json:"cardSet"`
	Username   string `json:"username"`
}

type createSessionResponse struct {
	Session sessionView `json:"session"`
	User    userView    `json:"user"`
	Token   string      `json:"token"`
}

func (h *apiHandler) createSession(w http.ResponseWriter, r *http.Request) {
	var body createSessionBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.sessions.CreateSession(r.Context(), CreateSessionRequest{
		SprintName: body.SprintName,
		CardSet:    domain.CardSet(body.CardSet),
		Username:   body.Username,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createSessionResponse{
		Session: newSessionView(result.Session),
		User:    newUserView(result.User),
		Token:   result.Token,
	})
}

type connectBody struct {
	Username string `json:"username"`
}

type connectResponse struct {
	User  userView `json:"user"`
	Token string   `json:"token"`
}

func (h *apiHandler) connect(w http.ResponseWriter, r *http.Request) {
	var body connectBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.users.Connect(r.Context(), ConnectRequest{
		SessionID: r.PathValue("id"),
		Username:  body.Username,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, connectResponse{
		User:  newUserView(result.User),
		Token: result.Token,
	})
}

func (h *apiHandler) listStories(w http.ResponseWriter, r *http.Request) {
	stories, err := h.stories.ListStories(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]storyView, 0, len(stories))
	for _, story := range stories {
		views = append(views, newStoryView(story))
	}
	writeJSON(w, http.StatusOK, map[string][]storyView{"stories": views})
}

func (h *apiHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]userView, 0, len(users))
	for _, user := range users {
		views = append(views, newUserView(user))
	}
	writeJSON(w, http.StatusOK, map[string][]userView{"users": views})
}

type createStoryBody struct {
	StoryName string `json:"storyName"`
	Order     int    `json:"order"`
}

func (h *apiHandler) createStory(w http.ResponseWriter, r *http.Request) {
	var body createStoryBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}

	story, err := h.stories.CreateStory(r.Context(), CreateStoryRequest{
		Name:  body.StoryName,
		Order: body.Order,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newStoryView(story))
}

func (h *apiHandler) endStory(w http.ResponseWriter, r *http.Request) {
	story, err := h.stories.EndStory(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStoryView(story))
}

func (h *apiHandler) deleteStory(w http.ResponseWriter, r *http.Request) {
	if err := h.stories.DeleteStory(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *apiHandler) disconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Disconnect(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type voteBody struct {
	StoryID string `json:"storyId"`
	Value   string `json:"value"`
}

func (h *apiHandler) vote(w http.ResponseWriter, r *http.Request) {
	var body voteBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}

	vote, err := h.votes.Vote(r.Context(), VoteRequest{
		StoryID: body.StoryID,
		Value:   body.Value,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newVoteView(vote))
}

func (h *apiHandler) removeVote(w http.ResponseWriter, r *http.Request) {
	if err := h.votes.RemoveVote(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *apiHandler) subscribe(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		http.Error(w, "subscriptions are not configured", http.StatusServiceUnavailable)
		return
	}

	principal, err := h.tokens.Verify(tokenFromRequest(r))
	if err != nil {
		log.Printf("planning: websocket unauthorized for remote=%s: %v", r.RemoteAddr, err)
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	wsHandler := websocket.Handler(func(conn *websocket.Conn) {
		handleWSConn(conn, h.hub, principal)
	})
	wsHandler.ServeHTTP(w, r)
}
