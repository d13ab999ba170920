package stage

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ec-jrc/abcd-go/internal/control"
)

// Defaults from spec §4.3/§6.
const (
	DefaultBasePeriod        = 10 * time.Millisecond
	DefaultStatusPublishPeriod = 3 * time.Second
	DefaultDataPublishTimeout  = 3 * time.Second
	DefaultHighWaterMark       = 4096
)

// Stage is the generic skeleton every DAQ process runs: it owns the
// tick loop, the terminate flag, the timers, and the error taxonomy.
// All domain behaviour is reached through Hooks (spec §9's "explicit
// fields on the stage struct plus one atomic flag for signal handlers").
type Stage struct {
	hooks Hooks

	BasePeriod          time.Duration
	StatusPublishPeriod time.Duration
	DataPublishTimeout  time.Duration
	HighWaterMark       int

	Terminate *atomic.Bool

	state State

	lastStatusPublish time.Time
	lastDataPublish   time.Time

	reconfiguring   bool
	configRetried   bool
	terminalRestart bool

	pendingClass ErrorClass
	pendingErr   error
	afterError   State
}

// New builds a Stage ready to Run, wired to hooks.
func New(hooks Hooks) *Stage {
	return &Stage{
		hooks:               hooks,
		BasePeriod:          DefaultBasePeriod,
		StatusPublishPeriod: DefaultStatusPublishPeriod,
		DataPublishTimeout:  DefaultDataPublishTimeout,
		HighWaterMark:       DefaultHighWaterMark,
		Terminate:           &atomic.Bool{},
		state:               START,
	}
}

// State returns the current state, mainly for tests and status fields.
func (s *Stage) State() State {
	return s.state
}

// Step runs exactly one state's action function and returns the state
// the machine moved to. Exposed directly so a tick-accelerated test
// harness can drive the machine without sleeping (spec §8 scenarios).
func (s *Stage) Step() State {
	action, ok := actionTable[s.state]
	if !ok {
		panic("stage: no action registered for state " + s.state.String())
	}
	next := action(s)
	s.state = next
	return next
}

// Run drives the tick loop until the machine reaches STOP. Sleeps of
// BasePeriod occur between ticks, the only suspension point besides the
// transport's slow-joiner wait (spec §5). Cancelling ctx sets Terminate,
// so the machine then walks its shutdown chain to STOP without sleeping.
func (s *Stage) Run(ctx context.Context) {
	for {
		next := s.Step()
		if next == STOP {
			return
		}
		select {
		case <-ctx.Done():
			// Cancellation forces the shutdown chain, as the terminate
			// flag does.
			s.Terminate.Store(true)
		case <-time.After(s.BasePeriod):
		}
	}
}

// raise stashes the failing class/error and the recovery state to land
// on once it has been reported, then returns the dedicated error state
// for class. The error states themselves (actCommunicationError etc.)
// do the actual hooks.ReportError call, so every error is reported from
// its own named node exactly once (spec §7).
func (s *Stage) raise(class ErrorClass, err error, after State) State {
	s.pendingClass = class
	s.pendingErr = err
	s.afterError = after
	switch class {
	case ClassCommunication:
		return COMMUNICATION_ERROR
	case ClassParse:
		return PARSE_ERROR
	case ClassConfigure:
		return CONFIGURE_ERROR
	case ClassDevice:
		return DEVICE_ERROR
	case ClassAcquisition:
		return ACQUISITION_ERROR
	case ClassRestartConfigure:
		return RESTART_CONFIGURE_ERROR
	default:
		return CLEAR_MEMORY
	}
}

// report is the shared body of every error-state action: publish the
// typed event, then move on to whatever raise recorded as the recovery
// state (spec §7: "publishes a typed event... then transitions to the
// nearest upstream recovery state").
func (s *Stage) report() State {
	s.hooks.ReportError(s.pendingClass, s.pendingErr)
	next := s.afterError
	s.pendingErr = nil
	return next
}

func now() time.Time { return time.Now() }

var actionTable map[State]func(*Stage) State

func init() {
	actionTable = map[State]func(*Stage) State{
		START:                      actStart,
		CREATE_CONTEXT:             actCreateContext,
		CREATE_SOCKETS:             actCreateSockets,
		BIND_SOCKETS:               actBindSockets,
		READ_CONFIG:                actReadConfig,
		CREATE_DEVICE:              actCreateDevice,
		CONFIGURE_DEVICE:           actConfigureDevice,
		ALLOCATE_MEMORY:            actAllocateMemory,
		PUBLISH_STATUS:             actPublishStatus,
		RECEIVE_COMMANDS:           actReceiveCommands,
		START_ACQ:                  actStartAcq,
		ACQ_RECV_COMMANDS:          actAcqRecvCommands,
		READ_DATA:                  actReadData,
		PUBLISH_DATA:               actPublishData,
		STOP_PUBLISH:               actStopPublish,
		RECONFIGURE_CLEAR:          actReconfigureClear,
		RECONFIGURE_DESTROY_DEVICE: actReconfigureDestroyDevice,
		RESTART_PUBLISH:            actRestartPublish,
		RESTART_STOP_ACQ:           actRestartStopAcq,
		RESTART_CLEAR:              actRestartClear,
		RESTART_DESTROY:            actRestartDestroy,
		RESTART_CREATE:             actRestartCreate,
		RESTART_CONFIGURE:          actRestartConfigure,
		RESTART_ALLOCATE:           actRestartAllocate,
		COMMUNICATION_ERROR:        actReportOnly,
		PARSE_ERROR:                actReportOnly,
		CONFIGURE_ERROR:            actReportOnly,
		DEVICE_ERROR:               actReportOnly,
		ACQUISITION_ERROR:          actReportOnly,
		RESTART_CONFIGURE_ERROR:    actReportOnly,
		CLEAR_MEMORY:               actClearMemory,
		DESTROY_DEVICE:             actDestroyDevice,
		CLOSE_SOCKETS:              actCloseSockets,
		DESTROY_CONTEXT:            actDestroyContext,
		STOP:                       actStop,
	}
}

func actStart(s *Stage) State { return CREATE_CONTEXT }

func actCreateContext(s *Stage) State {
	if err := s.hooks.CreateContext(); err != nil {
		return s.raise(ClassCommunication, err, CLEAR_MEMORY)
	}
	return CREATE_SOCKETS
}

func actCreateSockets(s *Stage) State {
	if err := s.hooks.CreateSockets(); err != nil {
		return s.raise(ClassCommunication, err, CLEAR_MEMORY)
	}
	return BIND_SOCKETS
}

func actBindSockets(s *Stage) State {
	if err := s.hooks.BindSockets(); err != nil {
		return s.raise(ClassCommunication, err, CLEAR_MEMORY)
	}
	return READ_CONFIG
}

func actReadConfig(s *Stage) State {
	if err := s.hooks.ReadConfig(); err != nil {
		return s.raise(ClassParse, err, CLEAR_MEMORY)
	}
	return CREATE_DEVICE
}

func actCreateDevice(s *Stage) State {
	if err := s.hooks.CreateDevice(); err != nil {
		return s.raise(ClassDevice, err, CLEAR_MEMORY)
	}
	return CONFIGURE_DEVICE
}

func actConfigureDevice(s *Stage) State {
	if err := s.hooks.ConfigureDevice(); err != nil {
		after := CLEAR_MEMORY
		if s.reconfiguring {
			after = s.configureErrorNext()
		}
		return s.raise(ClassConfigure, err, after)
	}
	s.configRetried = false
	return ALLOCATE_MEMORY
}

// configureErrorNext implements "a configure error during steady state
// falls back to RECONFIGURE_DESTROY_DEVICE and retries... hard-stop
// after one failed retry" (spec §4.3).
func (s *Stage) configureErrorNext() State {
	if s.configRetried {
		s.configRetried = false
		s.reconfiguring = false
		return CLEAR_MEMORY
	}
	s.configRetried = true
	return RECONFIGURE_DESTROY_DEVICE
}

func actAllocateMemory(s *Stage) State {
	if err := s.hooks.AllocateMemory(); err != nil {
		return s.raise(ClassDevice, err, CLEAR_MEMORY)
	}
	s.reconfiguring = false
	return PUBLISH_STATUS
}

func actPublishStatus(s *Stage) State {
	if err := s.hooks.PublishStatus(); err != nil {
		return s.raise(ClassCommunication, err, CLEAR_MEMORY)
	}
	s.lastStatusPublish = now()
	return RECEIVE_COMMANDS
}

func actReceiveCommands(s *Stage) State {
	if s.Terminate.Load() {
		return CLEAR_MEMORY
	}

	if cmd, ok := s.hooks.ReceiveCommand(); ok {
		switch cmd.Name {
		case control.CmdStart:
			return START_ACQ
		case control.CmdReconfigure:
			s.reconfiguring = true
			return RECONFIGURE_CLEAR
		case control.CmdOff, control.CmdQuit:
			return CLEAR_MEMORY
		}
	}

	if now().Sub(s.lastStatusPublish) >= s.publishPeriod() {
		return PUBLISH_STATUS
	}
	return RECEIVE_COMMANDS
}

func actStartAcq(s *Stage) State {
	if err := s.hooks.StartAcquisition(); err != nil {
		return s.raise(ClassDevice, err, CLEAR_MEMORY)
	}
	s.lastDataPublish = now()
	return ACQ_RECV_COMMANDS
}

func actAcqRecvCommands(s *Stage) State {
	if s.Terminate.Load() {
		return STOP_PUBLISH
	}

	if cmd, ok := s.hooks.ReceiveCommand(); ok {
		switch cmd.Name {
		case control.CmdStop:
			return STOP_PUBLISH
		case control.CmdReconfigure:
			return RESTART_PUBLISH
		}
	}

	return READ_DATA
}

func actReadData(s *Stage) State {
	_, err := s.hooks.ReadData()
	if err != nil {
		return s.raise(ClassAcquisition, err, RESTART_PUBLISH)
	}

	timedOut := now().Sub(s.lastDataPublish) >= s.dataPublishTimeout()
	if s.hooks.PendingEvents() >= s.highWaterMark() || timedOut {
		return PUBLISH_DATA
	}
	return ACQ_RECV_COMMANDS
}

func actPublishData(s *Stage) State {
	if err := s.hooks.PublishData(); err != nil {
		return s.raise(ClassCommunication, err, RESTART_PUBLISH)
	}
	s.lastDataPublish = now()
	return ACQ_RECV_COMMANDS
}

func actStopPublish(s *Stage) State {
	// Publish whatever is already decoded before tearing down, so the
	// terminate flag never discards in-flight events (spec §4.3).
	_ = s.hooks.PublishData()
	s.hooks.StopAcquisition()
	return CLEAR_MEMORY
}

func actReconfigureClear(s *Stage) State {
	s.hooks.ClearMemory()
	return RECONFIGURE_DESTROY_DEVICE
}

func actReconfigureDestroyDevice(s *Stage) State {
	s.hooks.DestroyDevice()
	return CREATE_DEVICE
}

func actRestartPublish(s *Stage) State {
	_ = s.hooks.PublishData()
	return RESTART_STOP_ACQ
}

func actRestartStopAcq(s *Stage) State {
	s.hooks.StopAcquisition()
	return RESTART_CLEAR
}

func actRestartClear(s *Stage) State {
	s.hooks.ClearMemory()
	return RESTART_DESTROY
}

func actRestartDestroy(s *Stage) State {
	s.hooks.DestroyDevice()
	if s.terminalRestart {
		s.terminalRestart = false
		return CLEAR_MEMORY
	}
	return RESTART_CREATE
}

func actRestartCreate(s *Stage) State {
	if err := s.hooks.CreateDevice(); err != nil {
		return s.raise(ClassDevice, err, CLEAR_MEMORY)
	}
	return RESTART_CONFIGURE
}

func actRestartConfigure(s *Stage) State {
	if err := s.hooks.ConfigureDevice(); err != nil {
		// "A restart attempt that fails to reconfigure falls through to
		// RESTART_DESTROY and terminates" (spec §4.3).
		s.terminalRestart = true
		return s.raise(ClassRestartConfigure, err, RESTART_DESTROY)
	}
	return RESTART_ALLOCATE
}

func actRestartAllocate(s *Stage) State {
	if err := s.hooks.AllocateMemory(); err != nil {
		return s.raise(ClassDevice, err, CLEAR_MEMORY)
	}
	s.lastDataPublish = now()
	return START_ACQ
}

func actClearMemory(s *Stage) State {
	s.hooks.ClearMemory()
	return DESTROY_DEVICE
}

func actDestroyDevice(s *Stage) State {
	s.hooks.DestroyDevice()
	return CLOSE_SOCKETS
}

func actCloseSockets(s *Stage) State {
	s.hooks.CloseSockets()
	return DESTROY_CONTEXT
}

func actDestroyContext(s *Stage) State {
	s.hooks.DestroyContext()
	return STOP
}

func actStop(s *Stage) State { return STOP }

func actReportOnly(s *Stage) State { return s.report() }

func (s *Stage) publishPeriod() time.Duration {
	if s.StatusPublishPeriod <= 0 {
		return DefaultStatusPublishPeriod
	}
	return s.StatusPublishPeriod
}

func (s *Stage) dataPublishTimeout() time.Duration {
	if s.DataPublishTimeout <= 0 {
		return DefaultDataPublishTimeout
	}
	return s.DataPublishTimeout
}

func (s *Stage) highWaterMark() int {
	if s.HighWaterMark <= 0 {
		return DefaultHighWaterMark
	}
	return s.HighWaterMark
}
