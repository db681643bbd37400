package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/aretw0/voicenote"
	"github.com/aretw0/voicenote/pkg/adapters/fs"
)

var (
	filesPattern string
	filesJSON    bool
)

// audioFile describes a WAV file found in the notes directory.
type audioFile struct {
	Name       string        `json:"name"`
	SampleRate int           `json:"sample_rate,omitempty"`
	Channels   int           `json:"channels,omitempty"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List the audio files in the notes directory",
	Long: `List audio files with their format and duration, read from the WAV headers.
Notes live in memory for the length of a session; this lists what they left on disk.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !doublestar.ValidatePattern(filesPattern) {
			return fmt.Errorf("invalid pattern: %s", filesPattern)
		}
		dir := voicenote.ResolveNotesDir(cfg.Dir, voicenote.IsDevRun() && cfg.DevSafety)

		files, err := scanFiles(dir, filesPattern)
		if err != nil {
			return err
		}

		if filesJSON {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(files)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tFORMAT\tDURATION")
		for _, f := range files {
			if f.Error != "" {
				fmt.Fprintf(tw, "%s\t-\t%s\n", f.Name, f.Error)
				continue
			}
			fmt.Fprintf(tw, "%s\t%d Hz/%dch\t%s\n", f.Name, f.SampleRate, f.Channels, f.Duration.Round(time.Millisecond))
		}
		return tw.Flush()
	},
}

// scanFiles probes every file under dir matching pattern. Unreadable files
// are reported with their error instead of failing the listing.
func scanFiles(dir, pattern string) ([]audioFile, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	files := make([]audioFile, 0, len(matches))
	for _, name := range matches {
		if filepath.Base(name)[0] == '.' {
			continue
		}
		entry := audioFile{Name: name}
		format, duration, err := fs.Probe(filepath.Join(dir, name))
		if err != nil {
			entry.Error = err.Error()
		} else {
			entry.SampleRate = format.SampleRate
			entry.Channels = format.Channels
			entry.Duration = duration
		}
		files = append(files, entry)
	}
	return files, nil
}

func init() {
	rootCmd.AddCommand(filesCmd)
	filesCmd.Flags().StringVarP(&filesPattern, "pattern", "p", "**/"+fs.DefaultWatchPattern, "Glob pattern relative to the notes directory")
	filesCmd.Flags().BoolVar(&filesJSON, "json", false, "Output in JSON format")
}
