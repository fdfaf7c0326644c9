// Package devserver is a local stand-in for the pictoria API. It serves the
// same endpoints the client uses (register, login, upload, list, detail) so
// the client can be demonstrated and tested without the real story backend.
// Stories are picked deterministically from the uploaded image bytes.
package devserver

import (
	"sync"
	"time"
)

type user struct {
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

type storedAlbum struct {
	ID          string
	Owner       string
	Filename    string
	ContentType string
	Image       []byte
	Stories     []story
	CreatedAt   time.Time
}

// State holds every user and album in memory.
type State struct {
	mu     sync.RWMutex
	users  map[string]*user
	albums map[string]*storedAlbum
	order  []string // album ids in creation order
}

// NewState creates an empty State.
func NewState() *State {
	return &State{
		users:  make(map[string]*user),
		albums: make(map[string]*storedAlbum),
	}
}

// --- Wire types ---

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	Message string `json:"message"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type uploadResponse struct {
	ID       string `json:"id"`
	ImageURL string `json:"image_url"`
}

type albumSummary struct {
	FolderName string `json:"folder_name"`
	ImageURL   string `json:"image_url"`
}

type albumDetail struct {
	ImageURL   string     `json:"image_url"`
	Story      []string   `json:"story"`
	Pictograms [][]string `json:"pictograms"`
}
