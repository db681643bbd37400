package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/voicenote"
	"github.com/aretw0/voicenote/pkg/adapters/fs"
)

var (
	recordTitle    string
	recordDuration time.Duration
	recordJSON     bool
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a single note",
	Long: `Record a note into the notes directory. Recording stops after --duration,
when Enter is pressed, or on Ctrl-C. With the stdin source it also stops at
the end of the input.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.RequireTitle && recordTitle == "" {
			return errors.New("a title is required: pass --title or set require_title to false")
		}

		opts := []voicenote.Option{voicenote.WithPermission(fs.AlwaysGrant())}
		var drained <-chan struct{}
		if cfg.Source == "stdin" {
			var src fs.SourceFunc
			src, drained = fs.FromReaderUntilEOF(cmd.InOrStdin())
			opts = append(opts, voicenote.WithSource(src))
		}

		m, err := voicenote.New(cfg.Dir, managerOptions(cfg, opts...)...)
		if err != nil {
			return fmt.Errorf("failed to initialize voicenote: %w", err)
		}
		ctx := cmd.Context()
		defer m.Close(context.WithoutCancel(ctx))

		m.SetTitle(recordTitle)
		if err := m.StartRecording(ctx); err != nil {
			return err
		}

		limit := recordDuration
		if limit == 0 {
			limit = cfg.MaxDuration
		}
		var timeout <-chan time.Time
		if limit > 0 {
			timer := time.NewTimer(limit)
			defer timer.Stop()
			timeout = timer.C
		}

		enter := make(chan struct{})
		if cfg.Source != "stdin" {
			fmt.Fprintln(cmd.ErrOrStderr(), "Recording... press Enter to stop.")
			in := cmd.InOrStdin()
			lifecycle.Go(context.Background(), func(context.Context) error {
				bufio.NewReader(in).ReadString('\n')
				close(enter)
				return nil
			})
		}

		select {
		case <-ctx.Done():
		case <-timeout:
		case <-enter:
		case <-drained:
		}

		note, err := m.StopRecording(context.WithoutCancel(ctx))
		if err != nil {
			return err
		}

		if recordJSON {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(note)
		}
		return yaml.NewEncoder(cmd.OutOrStdout()).Encode(note)
	},
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.Flags().StringVarP(&recordTitle, "title", "t", "", "Title of the note")
	recordCmd.Flags().DurationVarP(&recordDuration, "duration", "d", 0, "Stop after this long (0 waits for Enter)")
	recordCmd.Flags().BoolVar(&recordJSON, "json", false, "Output in JSON format")
}
