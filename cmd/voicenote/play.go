package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/voicenote"
	"github.com/aretw0/voicenote/pkg/adapters/fs"
)

var playStdout bool

var playCmd = &cobra.Command{
	Use:   "play <file>",
	Short: "Play an audio file from the notes directory",
	Long: `Play a file by name or path inside the notes directory.
With the fs adapter, --stdout writes the raw PCM to standard output so it can
be piped into a player.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var extra []voicenote.Option
		if playStdout {
			extra = append(extra, voicenote.WithSink(fs.WriterSink(cmd.OutOrStdout())))
		}

		device, err := voicenote.Init(cfg.Dir, managerOptions(cfg, extra...)...)
		if err != nil {
			return fmt.Errorf("failed to initialize voicenote: %w", err)
		}

		ctx := cmd.Context()
		sound, err := device.Load(ctx, args[0])
		if err != nil {
			return err
		}
		defer sound.Stop(context.WithoutCancel(ctx))

		if err := sound.Play(ctx); err != nil {
			return err
		}
		logger.Info("playing", "file", args[0])

		select {
		case <-sound.Done():
		case <-ctx.Done():
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().BoolVar(&playStdout, "stdout", false, "Write PCM to standard output (fs adapter)")
}
