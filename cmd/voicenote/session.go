package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/voicenote"
	"github.com/aretw0/voicenote/pkg/adapters/fs"
	lcadapter "github.com/aretw0/voicenote/pkg/adapters/lifecycle"
	"github.com/aretw0/voicenote/pkg/core"
)

const sessionHelp = `Commands:
  title <text>         set the title of the next note
  record               start recording
  stop                 stop recording and save the note
  save <title>         save a recording that is waiting for a title
  discard              drop a recording that is waiting for a title
  list [--json|--yaml] list the notes
  play <n|id>          play a note by list position or id
  halt                 stop playback
  delete <n|id>        delete a note
  status               show recorder and player state
  quit                 leave the session
`

func runSessionCmd(cmd *cobra.Command, args []string) error {
	if cfg.Source == "stdin" {
		return errors.New("the stdin source cannot be used in an interactive session")
	}
	return runSession(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout())
}

type session struct {
	m   *core.Manager
	p   *prompt
	out io.Writer
}

// runSession reads commands from in until quit, end of input or ctx is done.
// Manager notifications are printed to out as they arrive.
func runSession(ctx context.Context, c *Config, in io.Reader, out io.Writer) error {
	w := &syncWriter{w: out}
	p := &prompt{in: bufio.NewScanner(in), out: w}

	m, err := voicenote.New(c.Dir, managerOptions(c, voicenote.WithPermission(p.Permission()))...)
	if err != nil {
		return fmt.Errorf("failed to initialize voicenote: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	printed := printEvents(ctx, m.Subscribe(ctx), w)
	watched := closed()
	if c.Adapter != voicenote.AdapterMemory {
		if changes, err := m.Watch(ctx, fs.DefaultWatchPattern); err != nil {
			logger.Warn("not watching the notes directory", "error", err)
		} else {
			watched = printEvents(ctx, changes, w)
		}
	}

	s := &session{m: m, p: p, out: w}
	fmt.Fprintln(w, "voicenote session, type 'help' for commands")
	for ctx.Err() == nil {
		line, ok := p.Ask("> ")
		if !ok {
			break
		}
		if quit := s.exec(ctx, line); quit {
			break
		}
	}

	err = m.Close(context.Background())
	<-printed
	cancel()
	<-watched
	return err
}

func closed() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// exec runs one command line and reports whether the session should end.
// Manager failures are reported through the event stream.
func (s *session) exec(ctx context.Context, line string) bool {
	name, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	var err error
	switch strings.ToLower(name) {
	case "":
	case "help", "?":
		fmt.Fprint(s.out, sessionHelp)
	case "title":
		s.m.SetTitle(arg)
		fmt.Fprintf(s.out, "title: %q\n", s.m.Title())
	case "record":
		err = s.m.StartRecording(ctx)
	case "stop":
		_, err = s.m.StopRecording(ctx)
	case "save":
		_, err = s.m.SavePending(ctx, arg)
	case "discard":
		err = s.m.DiscardPending(ctx)
	case "list", "ls":
		s.list(arg)
	case "play":
		if id, ok := s.resolve(arg); ok {
			err = s.m.Play(ctx, id)
		}
	case "halt":
		err = s.m.StopPlayback(ctx)
	case "delete", "rm":
		if id, ok := s.resolve(arg); ok {
			err = s.m.Delete(ctx, id)
		}
	case "status":
		s.status()
	case "quit", "exit":
		return true
	default:
		fmt.Fprintf(s.out, "unknown command %q, type 'help'\n", name)
	}

	if err != nil {
		logger.Debug("command failed", "command", name, "error", err)
	}
	return false
}

func (s *session) list(format string) {
	notes := s.m.List()

	switch format {
	case "--json":
		encoder := json.NewEncoder(s.out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(notes); err != nil {
			fmt.Fprintf(s.out, "error encoding JSON: %v\n", err)
		}
		return
	case "--yaml":
		encoder := yaml.NewEncoder(s.out)
		encoder.SetIndent(2)
		if err := encoder.Encode(notes); err != nil {
			fmt.Fprintf(s.out, "error encoding YAML: %v\n", err)
		}
		encoder.Close()
		return
	}

	if len(notes) == 0 {
		fmt.Fprintln(s.out, "no notes yet")
		return
	}
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTITLE\tDURATION\tDATE\tID")
	for i, n := range notes {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			i+1, n.Title, n.Duration.Round(100*time.Millisecond), n.Date.Format(time.DateTime), shortID(n.ID))
	}
	tw.Flush()
}

// resolve maps a 1-based list position, an id or a unique id prefix or
// suffix to an id. Listings show the suffix.
func (s *session) resolve(arg string) (string, bool) {
	if arg == "" {
		fmt.Fprintln(s.out, "which note? give its list position or id")
		return "", false
	}
	notes := s.m.List()

	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(notes) {
			fmt.Fprintf(s.out, "no note at position %d\n", n)
			return "", false
		}
		return notes[n-1].ID, true
	}

	var match string
	for _, n := range notes {
		if !strings.HasPrefix(n.ID, arg) && !strings.HasSuffix(n.ID, arg) {
			continue
		}
		if match != "" {
			fmt.Fprintf(s.out, "%q matches more than one note\n", arg)
			return "", false
		}
		match = n.ID
	}
	if match == "" {
		// Let the manager report the unknown id.
		return arg, true
	}
	return match, true
}

func (s *session) status() {
	state, ok := s.m.State().(core.ManagerState)
	if !ok {
		return
	}
	fmt.Fprintf(s.out, "device: %s\nnotes: %d\nrecording: %s\nplayback: %s",
		state.DeviceType, state.Notes, state.Recording, state.Playback)
	if state.PlayingNote != "" {
		fmt.Fprintf(s.out, " (%s)", shortID(state.PlayingNote))
	}
	fmt.Fprintln(s.out)
	if state.Pending {
		fmt.Fprintln(s.out, "a recording is waiting for a title")
	}
	if state.DroppedEvents > 0 {
		fmt.Fprintf(s.out, "dropped events: %d\n", state.DroppedEvents)
	}
}

// printEvents prints every event until the stream ends. The returned
// channel is closed once the last event has been written.
func printEvents(ctx context.Context, events <-chan core.Event, w io.Writer) <-chan struct{} {
	src := lcadapter.NewSource(events)
	done := make(chan struct{})
	_ = src.Start(ctx)
	lifecycle.Go(context.Background(), func(context.Context) error {
		defer close(done)
		for e := range src.Events() {
			if ne, ok := e.(core.Event); ok {
				fmt.Fprintf(w, "* %s\n", describe(ne))
			}
		}
		return nil
	})
	return done
}

func describe(e core.Event) string {
	switch e.Type {
	case core.EventRecordingStarted:
		return "recording... type 'stop' to finish"
	case core.EventRecordingStopped:
		return "recording stopped"
	case core.EventRecordingPending:
		return "please provide a title: 'save <title>' or 'discard'"
	case core.EventNoteAdded:
		return "Recording saved at: " + e.Path
	case core.EventNoteRemoved:
		return "deleted " + shortID(e.NoteID)
	case core.EventPlaybackStarted:
		return "playing " + shortID(e.NoteID)
	case core.EventPlaybackStopped:
		return "playback stopped"
	case core.EventPlaybackFinished:
		return "playback finished"
	case core.EventResourceCreated:
		return "file changed: " + e.Path
	case core.EventResourceRemoved:
		return "file removed: " + e.Path
	case core.EventError:
		return fmt.Sprintf("error (%s): %v", e.Kind(), e.Err)
	default:
		return e.String()
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[len(id)-8:]
	}
	return id
}
