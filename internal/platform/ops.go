package platform

import (
	"context"
	"fmt"

	"github.com/aretw0/voicenote/pkg/adapters/fs"
	"github.com/aretw0/voicenote/pkg/adapters/memory"
	"github.com/aretw0/voicenote/pkg/adapters/shell"
	"github.com/aretw0/voicenote/pkg/core"
)

// Init prepares the audio device described by the options.
// The uri argument is adapter-specific (the notes directory for "fs" and
// "shell", ignored by "memory").
func Init(uri string, opts ...Option) (core.Device, error) {
	return initDevice(uri, applyOptions(opts))
}

func applyOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func initDevice(uri string, o *options) (core.Device, error) {
	if o.device != nil {
		return o.device, nil
	}

	switch o.adapter {
	case AdapterFS:
		d := fs.NewDevice(fsConfig(uri, o))
		if err := d.Initialize(context.Background()); err != nil {
			return nil, err
		}
		return d, nil
	case AdapterShell:
		d := shell.NewDevice(shellConfig(uri, o))
		if err := d.Initialize(context.Background()); err != nil {
			return nil, err
		}
		return d, nil
	case AdapterMemory:
		return memory.NewDevice(), nil
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}
}

// resolveDir applies the dev sandbox rules to a notes directory.
func resolveDir(path string, o *options) string {
	tempDir, _ := o.config["temp_dir"].(bool)
	devSafety := true
	if val, ok := o.config["dev_safety"].(bool); ok {
		devSafety = val
	}

	useTemp := tempDir || (IsDevRun() && devSafety)
	resolved := ResolveNotesDir(path, useTemp)

	if o.logger != nil && IsDevRun() {
		if devSafety {
			o.logger.Debug("running in SAFE mode (dev sandbox enabled)", "path", resolved)
		} else {
			o.logger.Warn("running in UNSAFE mode (bypassing dev sandbox)", "path", resolved)
		}
	}
	if o.logger != nil && useTemp && resolved != path {
		o.logger.Warn("running in SAFE MODE (Dev/Test)", "original_path", path, "resolved_path", resolved)
	}
	return resolved
}

func fsConfig(path string, o *options) fs.Config {
	mustExist, _ := o.config["must_exist"].(bool)
	permission, _ := o.config["permission"].(fs.Permission)
	source, _ := o.config["source"].(fs.SourceFunc)
	sink, _ := o.config["sink"].(fs.SinkFunc)
	speed, ok := o.config["speed"].(float64)
	if !ok {
		speed = 1
	}
	errorHandler, _ := o.config["watcher_error_handler"].(func(error))

	return fs.Config{
		Dir:          resolveDir(path, o),
		MustExist:    mustExist,
		Logger:       o.logger,
		Permission:   permission,
		Source:       source,
		Sink:         sink,
		Speed:        speed,
		Clock:        o.clock,
		ErrorHandler: errorHandler,
	}
}

func shellConfig(path string, o *options) shell.Config {
	mustExist, _ := o.config["must_exist"].(bool)
	permission, _ := o.config["permission"].(fs.Permission)
	record, _ := o.config["record_command"].([]string)
	play, _ := o.config["play_command"].([]string)

	return shell.Config{
		Dir:           resolveDir(path, o),
		MustExist:     mustExist,
		Logger:        o.logger,
		RecordCommand: record,
		PlayCommand:   play,
		Extension:     o.capture.Extension,
		Permission:    permission,
		Clock:         o.clock,
	}
}
