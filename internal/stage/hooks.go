package stage

import "github.com/ec-jrc/abcd-go/internal/control"

// Hooks is the seam where a concrete stage (the acquisition source, a
// stream-operator filter, a log-writing sink, ...) plugs its
// device/operator-specific behaviour into the shared skeleton (spec §9:
// "model state as a sum type and the state machine as a function
// (State, &mut Stage) -> State"). Stage owns the tick loop, the
// terminate flag, timers and the error taxonomy; Hooks owns everything
// that differs between stages.
//
// All methods run inside a single tick on the stage's only goroutine;
// none may block except for the bounded work they do synchronously.
type Hooks interface {
	// Lifecycle, called during startup/shutdown in the order the state
	// names imply; the device and memory methods run again on the
	// reconfigure and restart chains.
	CreateContext() error
	CreateSockets() error
	BindSockets() error
	ReadConfig() error
	CreateDevice() error
	ConfigureDevice() error
	AllocateMemory() error
	ClearMemory()
	DestroyDevice()
	CloseSockets()
	DestroyContext()

	// Acquisition path.
	StartAcquisition() error
	StopAcquisition()
	// ReadData reads one tick's worth of data from the device/inbound
	// socket. produced reports whether any event was buffered.
	ReadData() (produced bool, err error)
	// PendingEvents reports how many decoded events are buffered and
	// not yet published; drives the PUBLISH_DATA high-water-mark trigger.
	PendingEvents() int
	// PublishData flushes buffered events/waveforms as outbound
	// message(s) and clears the buffer.
	PublishData() error

	// Control plane.
	PublishStatus() error
	ReceiveCommand() (control.Command, bool)
	// ReportError publishes the typed error event (spec §7) before any
	// state transition happens.
	ReportError(class ErrorClass, err error)
}

// Reconfigurable is implemented by Hooks that support the reconfigure
// command; ApplyReconfigure receives the nested config document and
// should behave like ReadConfig/ConfigureDevice combined for the new
// settings.
type Reconfigurable interface {
	ApplyReconfigure(config []byte) error
}
