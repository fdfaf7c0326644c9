// speak.go implements the "pictoria speak" command, which says the words of
// one or more pictograms the way the composer does.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pictoria-app/pictoria/internal/composer"
	"github.com/pictoria-app/pictoria/internal/speech"
)

var speakCmd = &cobra.Command{
	Use:   "speak [pictogram-url...]",
	Short: "Speak the words of pictograms",
	Long: `Build a sentence from the given pictogram URLs and speak it with the
configured synthesizer. The word of a pictogram is its file name without
the extension, percent-decoded.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSpeak,
}

var speakDryRun bool

func init() {
	speakCmd.Flags().BoolVar(&speakDryRun, "dry-run", false, "Print the sentence without speaking it")
}

func runSpeak(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	var speaker composer.Speaker = speech.NopSpeaker{}
	var active *speech.CommandSpeaker
	if !speakDryRun {
		active = speech.NewCommandSpeaker(e.cfg.Speech.Command, speech.WithLogger(e.logger))
		if !active.Available() {
			return fmt.Errorf("%s: %w", e.cfg.Speech.Command, speech.ErrUnavailable)
		}
		speaker = active
	}

	// Pick silently, then say the whole sentence once.
	comp := composer.New(speaker,
		composer.WithAudio(false),
		composer.WithVoice(e.voice()),
		composer.WithLogger(e.logger),
	)
	for _, u := range args {
		comp.Select(u)
	}
	fmt.Fprintln(cmd.OutOrStdout(), comp.Sentence())
	if active == nil {
		return nil
	}

	if err := active.Speak(comp.Sentence(), e.voice()); err != nil {
		return err
	}
	return waitSpoken(cmd, active)
}

func waitSpoken(cmd *cobra.Command, s *speech.CommandSpeaker) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for s.Speaking() {
		select {
		case <-cmd.Context().Done():
			// Interrupted: stop talking and exit quietly.
			s.CancelAll()
			return nil
		case <-ticker.C:
		}
	}
	return nil
}
