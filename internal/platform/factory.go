package platform

import (
	"github.com/aretw0/voicenote/pkg/core"
)

// New wires a Manager on top of the device selected by the options.
//
//	m, err := voicenote.New("./notes", voicenote.WithAdapter("shell"))
func New(uri string, opts ...Option) (*core.Manager, error) {
	o := applyOptions(opts)

	device, err := initDevice(uri, o)
	if err != nil {
		return nil, err
	}

	return core.NewManager(core.Config{
		Device:       device,
		Logger:       o.logger,
		Clock:        o.clock,
		IDGenerator:  o.idGenerator,
		Capture:      o.capture,
		RequireTitle: o.requireTitle,
		DeleteAudio:  o.deleteAudio,
		EventBuffer:  o.eventBuffer,
	}), nil
}
