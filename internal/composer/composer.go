// Package composer holds the sentence a child builds from an album's
// pictograms, the audio toggle, and the coordination of spoken feedback.
//
// A Composer is owned by one album screen and is not safe for concurrent use;
// it is only touched from the UI event loop.
package composer

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/pictoria-app/pictoria/internal/album"
	"github.com/pictoria-app/pictoria/internal/log"
)

// Voice carries the synthesis parameters for one utterance.
type Voice struct {
	Lang  string
	Pitch float64
	Rate  float64
}

// DefaultVoice is the voice every utterance uses unless configured otherwise.
var DefaultVoice = Voice{Lang: "pt-BR", Pitch: 1.0, Rate: 0.8}

// Speaker is the audio output port. Speak starts an utterance and returns
// without waiting for it to finish. CancelAll stops every active utterance.
type Speaker interface {
	CancelAll()
	Speak(text string, voice Voice) error
}

// Phase reports whether the owning album has loaded.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseReady
	PhaseFailed
)

// Block is one story and the pictograms that belong to it.
type Block struct {
	Story      string
	Pictograms []string
}

// Composer is the selection state machine for one album.
type Composer struct {
	speaker Speaker
	voice   Voice
	logger  *log.Logger

	selection []string
	audio     bool

	phase  Phase
	detail album.Detail
	err    error
}

// Option configures a Composer.
type Option func(*Composer)

// WithAudio sets the initial audio mode. Audio is on by default.
func WithAudio(enabled bool) Option {
	return func(c *Composer) { c.audio = enabled }
}

// WithVoice overrides DefaultVoice.
func WithVoice(v Voice) Option {
	return func(c *Composer) { c.voice = v }
}

// WithLogger records speech failures to logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Composer) { c.logger = logger }
}

// New creates a Composer in the loading phase with an empty selection.
func New(speaker Speaker, opts ...Option) *Composer {
	c := &Composer{
		speaker:   speaker,
		voice:     DefaultVoice,
		logger:    log.NewNop(),
		selection: []string{},
		audio:     true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Select appends pictogram to the selection. Duplicates are allowed. With
// audio on it cancels any utterance in progress and speaks the pictogram's
// word.
func (c *Composer) Select(pictogram string) {
	c.selection = append(c.selection, pictogram)
	if c.audio {
		c.say(WordFor(pictogram))
	}
}

// Deselect removes the element at index i. Later elements shift down by one.
// An index outside the selection is a caller bug and panics.
func (c *Composer) Deselect(i int) {
	if i < 0 || i >= len(c.selection) {
		panic(fmt.Sprintf("composer: Deselect(%d) with %d selected", i, len(c.selection)))
	}
	c.selection = append(c.selection[:i:i], c.selection[i+1:]...)
}

// Clear empties the selection. Audio mode and any utterance in progress are
// left alone.
func (c *Composer) Clear() {
	c.selection = []string{}
}

// ToggleAudio flips audio mode. An utterance already playing keeps playing.
func (c *Composer) ToggleAudio() {
	c.audio = !c.audio
}

// Selection returns a copy of the selected pictogram URLs in order.
func (c *Composer) Selection() []string {
	out := make([]string, len(c.selection))
	copy(out, c.selection)
	return out
}

// AudioEnabled reports the audio mode.
func (c *Composer) AudioEnabled() bool {
	return c.audio
}

// Sentence returns the words of the current selection joined by spaces.
func (c *Composer) Sentence() string {
	words := make([]string, len(c.selection))
	for i, u := range c.selection {
		words[i] = WordFor(u)
	}
	return strings.Join(words, " ")
}

// SpeakSentence speaks the whole sentence when audio is on and something is
// selected. It reports whether an utterance was started.
func (c *Composer) SpeakSentence() bool {
	if !c.audio || len(c.selection) == 0 {
		return false
	}
	c.say(c.Sentence())
	return true
}

// Load marks the album as loaded.
func (c *Composer) Load(detail album.Detail) {
	c.phase = PhaseReady
	c.detail = detail
	c.err = nil
}

// Fail marks the album load as failed. No pictograms are shown afterwards.
func (c *Composer) Fail(err error) {
	c.phase = PhaseFailed
	c.detail = album.Detail{}
	c.err = err
}

// Phase returns the load phase.
func (c *Composer) Phase() Phase {
	return c.phase
}

// Err returns the load error in PhaseFailed, nil otherwise.
func (c *Composer) Err() error {
	return c.err
}

// ImageURL returns the loaded album's reference image, if any.
func (c *Composer) ImageURL() string {
	return c.detail.ImageURL
}

// Blocks returns one block per story, only once the album is ready.
func (c *Composer) Blocks() []Block {
	if c.phase != PhaseReady {
		return nil
	}
	blocks := make([]Block, len(c.detail.Stories))
	for i, story := range c.detail.Stories {
		var pictograms []string
		if i < len(c.detail.PictogramGroups) {
			pictograms = c.detail.PictogramGroups[i]
		}
		if pictograms == nil {
			pictograms = []string{}
		}
		blocks[i] = Block{Story: story, Pictograms: pictograms}
	}
	return blocks
}

func (c *Composer) say(text string) {
	c.speaker.CancelAll()
	if err := c.speaker.Speak(text, c.voice); err != nil {
		_ = c.logger.Append(log.LogEvent{
			Event: log.EventSpeechFailed,
			Error: err.Error(),
			Data:  map[string]interface{}{"text": text},
		})
	}
}

// WordFor derives the spoken word from a pictogram URL: the last path
// segment up to its first dot, with percent-escapes decoded.
// "https://host/p/ma%C3%A7%C3%A3.png" yields "maçã".
func WordFor(pictogramURL string) string {
	name := pictogramURL[strings.LastIndex(pictogramURL, "/")+1:]
	name, _, _ = strings.Cut(name, ".")
	if word, err := url.PathUnescape(name); err == nil {
		return word
	}
	return name
}
