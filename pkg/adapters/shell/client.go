// Package shell drives external recorder and player programs such as
// arecord/aplay or sox. Files are managed by an underlying fs.Device, so
// discarding and watching behave exactly as for the filesystem device.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/voicenote/pkg/core"
)

// Placeholders expanded in command templates.
const (
	PlaceholderPath     = "{path}"
	PlaceholderRate     = "{rate}"
	PlaceholderChannels = "{channels}"
)

var (
	// DefaultRecordCommand records 16-bit PCM with ALSA.
	DefaultRecordCommand = []string{"arecord", "-q", "-f", "S16_LE", "-r", PlaceholderRate, "-c", PlaceholderChannels, PlaceholderPath}
	// DefaultPlayCommand plays a file with ALSA.
	DefaultPlayCommand = []string{"aplay", "-q", PlaceholderPath}
)

// LockFile is created in the notes directory while a capture is running.
const LockFile = ".voicenote.lock"

// IsInstalled checks if a program is available in the PATH.
func IsInstalled(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// Expand replaces the placeholders of a command template.
func Expand(template []string, path string, cfg core.CaptureConfig) []string {
	r := strings.NewReplacer(
		PlaceholderPath, path,
		PlaceholderRate, strconv.Itoa(cfg.SampleRate),
		PlaceholderChannels, strconv.Itoa(cfg.Channels),
	)
	out := make([]string, len(template))
	for i, arg := range template {
		out[i] = r.Replace(arg)
	}
	return out
}

// process wraps a started command and its captured output.
type process struct {
	cmd    *exec.Cmd
	output *bytes.Buffer
	exited chan struct{}
	err    error
}

// start launches args in dir. Output is kept for error reports.
func start(dir string, args []string, waitDelay time.Duration, logger *slog.Logger) (*process, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: empty command", core.ErrDevice)
	}
	if !IsInstalled(args[0]) {
		return nil, fmt.Errorf("%w: %s is not installed", core.ErrDevice, args[0])
	}
	logger.Debug("executing", "args", args, "dir", dir)

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = dir
	out := &bytes.Buffer{}
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.WaitDelay = waitDelay

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s failed to start: %v", core.ErrDevice, args[0], err)
	}

	p := &process{cmd: cmd, output: out, exited: make(chan struct{})}
	lifecycle.Go(context.Background(), func(context.Context) error {
		p.err = cmd.Wait()
		close(p.exited)
		return nil
	})
	return p, nil
}

// terminate interrupts the process and kills it if it does not exit within
// timeout. It reports whether the process had already exited on its own.
func (p *process) terminate(ctx context.Context, timeout time.Duration) (exitedEarly bool) {
	select {
	case <-p.exited:
		return true
	default:
	}

	_ = p.cmd.Process.Signal(os.Interrupt)
	select {
	case <-p.exited:
	case <-ctx.Done():
		_ = p.cmd.Process.Kill()
		<-p.exited
	case <-time.After(timeout):
		_ = p.cmd.Process.Kill()
		<-p.exited
	}
	return false
}

// failure describes an unexpected exit.
func (p *process) failure() error {
	err := p.err
	if err == nil {
		err = errors.New("exited unexpectedly")
	}
	return fmt.Errorf("%s failed: %w\nOutput: %s", filepath.Base(p.cmd.Path), err, strings.TrimSpace(p.output.String()))
}

// tryLock creates the lock file, failing if another capture holds it.
// A lock left by a dead process is taken over.
func tryLock(dir string) (func(), error) {
	path := filepath.Join(dir, LockFile)

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			_, _ = fmt.Fprintf(f, "%d", os.Getpid())
			f.Close()
			return func() { os.Remove(path) }, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}
		if lockHolderAlive(path) {
			break
		}
		_ = os.Remove(path)
	}
	return nil, fmt.Errorf("%w: microphone in use by another process", core.ErrDevice)
}

func lockHolderAlive(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return !errors.Is(err, os.ErrNotExist)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
