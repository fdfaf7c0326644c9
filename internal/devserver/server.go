package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/pictoria-app/pictoria/internal/log"
)

// Defaults for Options.
const (
	DefaultTokenTTL  = 24 * time.Hour
	MaxUploadBytes   = 10 << 20
	minPasswordChars = 6
)

// Options configures a Server.
type Options struct {
	// Addr to listen on. "127.0.0.1:0" picks a random port.
	Addr     string
	Secret   string
	TokenTTL time.Duration
	Logger   *log.Logger
}

// Server is the development API server.
type Server struct {
	state    *State
	secret   []byte
	ttl      time.Duration
	logger   *log.Logger
	listener net.Listener
	server   *http.Server
	now      func() time.Time
}

type ctxKey struct{}

// NewServer creates a Server bound to opts.Addr.
func NewServer(opts Options) (*Server, error) {
	if opts.Secret == "" {
		return nil, errors.New("devserver: signing secret is required")
	}
	if opts.Addr == "" {
		opts.Addr = "127.0.0.1:0"
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = DefaultTokenTTL
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNop()
	}

	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("devserver: binding listener: %w", err)
	}

	s := &Server{
		state:    NewState(),
		secret:   []byte(opts.Secret),
		ttl:      opts.TokenTTL,
		logger:   opts.Logger,
		listener: ln,
		now:      time.Now,
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the router with every endpoint mounted.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/static/images/{id}", s.handleImage).Methods(http.MethodGet)
	r.HandleFunc("/static/pictograms/{name}", s.handlePictogram).Methods(http.MethodGet)

	albums := r.PathPrefix("/albums").Subrouter()
	albums.Use(s.requireToken)
	albums.HandleFunc("", s.handleListAlbums).Methods(http.MethodGet)
	albums.HandleFunc("", s.handleUpload).Methods(http.MethodPost)
	albums.HandleFunc("/{folder}", s.handleGetAlbum).Methods(http.MethodGet)

	return r
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// URL returns the base URL clients should use.
func (s *Server) URL() string {
	return "http://" + s.Addr()
}

// Start serves requests until Stop or Shutdown. Call in a goroutine.
func (s *Server) Start() error {
	if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop closes the server immediately.
func (s *Server) Stop() error {
	return s.server.Close()
}

// Shutdown stops accepting requests and waits for active ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// --- Middleware ---

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		_ = s.logger.Append(log.LogEvent{
			Event:      log.EventRequestCompleted,
			Method:     r.Method,
			Path:       r.URL.Path,
			Status:     rec.status,
			RequestID:  r.Header.Get("X-Request-ID"),
			DurationMs: time.Since(start).Milliseconds(),
		})
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			http.Error(w, "Missing token", http.StatusUnauthorized)
			return
		}

		email, err := s.verifyToken(raw)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		s.state.mu.RLock()
		_, known := s.state.users[email]
		s.state.mu.RUnlock()
		if !known {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, email)))
	})
}

func owner(r *http.Request) string {
	email, _ := r.Context().Value(ctxKey{}).(string)
	return email
}

// --- Tokens ---

func (s *Server) issueToken(email string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		ID:        uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) verifyToken(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Subject == "" {
		return "", errors.New("invalid token")
	}
	return claims.Subject, nil
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !readJSON(w, r, &req) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		http.Error(w, "Invalid email address", http.StatusBadRequest)
		return
	}
	if len(req.Password) < minPasswordChars {
		http.Error(w, fmt.Sprintf("Password must have at least %d characters", minPasswordChars), http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Could not store password", http.StatusInternalServerError)
		return
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	if _, exists := s.state.users[email]; exists {
		http.Error(w, "Email already registered", http.StatusConflict)
		return
	}
	s.state.users[email] = &user{Email: email, PasswordHash: hash, CreatedAt: s.now()}
	writeJSON(w, http.StatusCreated, registerResponse{Message: "registered"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	email := strings.ToLower(strings.TrimSpace(r.PostForm.Get("username")))
	password := r.PostForm.Get("password")

	s.state.mu.RLock()
	u, ok := s.state.users[email]
	s.state.mu.RUnlock()
	if !ok || bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := s.issueToken(email)
	if err != nil {
		http.Error(w, "Could not issue token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		http.Error(w, "Invalid upload", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Could not read file", http.StatusBadRequest)
		return
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		http.Error(w, "File must be an image", http.StatusUnsupportedMediaType)
		return
	}

	a := &storedAlbum{
		ID:          uuid.NewString(),
		Owner:       owner(r),
		Filename:    header.Filename,
		ContentType: contentType,
		Image:       data,
		Stories:     pickStories(data),
		CreatedAt:   s.now(),
	}

	s.state.mu.Lock()
	s.state.albums[a.ID] = a
	s.state.order = append(s.state.order, a.ID)
	s.state.mu.Unlock()

	writeJSON(w, http.StatusCreated, uploadResponse{ID: a.ID, ImageURL: imageURL(r, a.ID)})
}

func (s *Server) handleListAlbums(w http.ResponseWriter, r *http.Request) {
	me := owner(r)

	s.state.mu.RLock()
	out := make([]albumSummary, 0)
	for _, id := range s.state.order {
		if a := s.state.albums[id]; a.Owner == me {
			out = append(out, albumSummary{FolderName: a.ID, ImageURL: imageURL(r, a.ID)})
		}
	}
	s.state.mu.RUnlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetAlbum(w http.ResponseWriter, r *http.Request) {
	folder := mux.Vars(r)["folder"]

	s.state.mu.RLock()
	a, ok := s.state.albums[folder]
	s.state.mu.RUnlock()
	if !ok || a.Owner != owner(r) {
		http.Error(w, "Album not found", http.StatusNotFound)
		return
	}

	base := baseURL(r)
	detail := albumDetail{
		ImageURL:   imageURL(r, a.ID),
		Story:      make([]string, len(a.Stories)),
		Pictograms: make([][]string, len(a.Stories)),
	}
	for i, st := range a.Stories {
		detail.Story[i] = st.Text
		urls := make([]string, len(st.Words))
		for j, word := range st.Words {
			urls[j] = pictogramURL(base, word)
		}
		detail.Pictograms[i] = urls
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	s.state.mu.RLock()
	a, ok := s.state.albums[mux.Vars(r)["id"]]
	s.state.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", a.ContentType)
	_, _ = w.Write(a.Image)
}

func (s *Server) handlePictogram(w http.ResponseWriter, r *http.Request) {
	if !strings.HasSuffix(mux.Vars(r)["name"], ".png") {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(PixelPNG)
}

// --- Helpers ---

func baseURL(r *http.Request) string {
	return "http://" + r.Host
}

func imageURL(r *http.Request, id string) string {
	return baseURL(r) + "/static/images/" + id
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, fmt.Sprintf("invalid JSON: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("encoding response: %v", err), http.StatusInternalServerError)
	}
}
