// Package speech plays utterances through an external synthesizer process.
// At most one utterance is active: starting a new one, or CancelAll, kills
// the process of the previous one.
package speech

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/pictoria-app/pictoria/internal/composer"
	"github.com/pictoria-app/pictoria/internal/log"
)

// DefaultCommand is the synthesizer used when none is configured.
const DefaultCommand = "espeak-ng"

// ArgsFunc builds the synthesizer arguments for one utterance.
type ArgsFunc func(text string, voice composer.Voice) []string

// CommandSpeaker runs one synthesizer process per utterance.
type CommandSpeaker struct {
	command string
	args    ArgsFunc
	logger  *log.Logger

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a CommandSpeaker.
type Option func(*CommandSpeaker)

// WithArgs replaces EspeakArgs.
func WithArgs(fn ArgsFunc) Option {
	return func(s *CommandSpeaker) { s.args = fn }
}

// WithLogger records synthesizer failures.
func WithLogger(logger *log.Logger) Option {
	return func(s *CommandSpeaker) { s.logger = logger }
}

// NewCommandSpeaker creates a speaker that runs command. An empty command
// uses DefaultCommand.
func NewCommandSpeaker(command string, opts ...Option) *CommandSpeaker {
	if command == "" {
		command = DefaultCommand
	}
	s := &CommandSpeaker{
		command: command,
		args:    EspeakArgs,
		logger:  log.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Available reports whether the synthesizer can be found in PATH.
func (s *CommandSpeaker) Available() bool {
	_, err := exec.LookPath(s.command)
	return err == nil
}

// Speak starts an utterance and returns once the process has started. Any
// utterance still playing is cancelled first.
func (s *CommandSpeaker) Speak(text string, voice composer.Voice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked()

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, s.command, s.args(text, voice)...)
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("starting %s: %w", s.command, err)
	}

	s.seq++
	seq := s.seq
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go func() {
		err := cmd.Wait()
		close(done)
		cancelled := ctx.Err() != nil
		cancel()

		s.mu.Lock()
		if s.seq == seq {
			s.cancel = nil
			s.done = nil
		}
		s.mu.Unlock()

		if err != nil && !cancelled {
			_ = s.logger.Append(log.LogEvent{
				Event: log.EventSpeechFailed,
				Error: err.Error(),
				Data:  map[string]interface{}{"command": s.command},
			})
		}
	}()
	return nil
}

// CancelAll stops the active utterance, if any, and waits for its process
// to exit.
func (s *CommandSpeaker) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
}

// Speaking reports whether an utterance is active.
func (s *CommandSpeaker) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done != nil
}

func (s *CommandSpeaker) cancelLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
}

// EspeakArgs maps a Voice onto espeak-ng flags. Pitch 1.0 is espeak's
// default of 50 and rate 1.0 its default of 175 words per minute.
func EspeakArgs(text string, voice composer.Voice) []string {
	lang := strings.ToLower(voice.Lang)
	if lang == "" {
		lang = "pt-br"
	}
	pitch := clamp(int(math.Round(voice.Pitch*50)), 0, 99)
	rate := clamp(int(math.Round(voice.Rate*175)), 80, 450)
	return []string{
		"-v", lang,
		"-p", strconv.Itoa(pitch),
		"-s", strconv.Itoa(rate),
		"--", text,
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// NopSpeaker discards every utterance. It is used when speech is disabled in
// the configuration or no synthesizer is installed.
type NopSpeaker struct{}

func (NopSpeaker) CancelAll() {}

func (NopSpeaker) Speak(string, composer.Voice) error { return nil }

// ErrUnavailable is returned by Select when no synthesizer is installed.
var ErrUnavailable = errors.New("speech synthesizer not found")

// Select returns a CommandSpeaker for command when enabled and installed,
// and NopSpeaker otherwise. The error explains a fallback.
func Select(enabled bool, command string, opts ...Option) (composer.Speaker, error) {
	if !enabled {
		return NopSpeaker{}, nil
	}
	s := NewCommandSpeaker(command, opts...)
	if !s.Available() {
		return NopSpeaker{}, fmt.Errorf("%s: %w", s.command, ErrUnavailable)
	}
	return s, nil
}
