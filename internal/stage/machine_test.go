package stage

import (
	"errors"
	"testing"

	"github.com/ec-jrc/abcd-go/internal/control"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHooks records every call it receives in order, so a test can
// assert on the exact sequence of side effects the machine drove.
type fakeHooks struct {
	calls []string

	configureErr    error
	configureFailN  int
	createDeviceErr error
	readDataErr     error
	pending         int
	commands        []control.Command

	reportedClasses []ErrorClass
}

func (f *fakeHooks) record(name string) { f.calls = append(f.calls, name) }

func (f *fakeHooks) CreateContext() error   { f.record("CreateContext"); return nil }
func (f *fakeHooks) CreateSockets() error   { f.record("CreateSockets"); return nil }
func (f *fakeHooks) BindSockets() error     { f.record("BindSockets"); return nil }
func (f *fakeHooks) ReadConfig() error      { f.record("ReadConfig"); return nil }
func (f *fakeHooks) CreateDevice() error {
	f.record("CreateDevice")
	err := f.createDeviceErr
	f.createDeviceErr = nil
	return err
}
func (f *fakeHooks) ConfigureDevice() error {
	f.record("ConfigureDevice")
	if f.configureFailN > 0 {
		f.configureFailN--
		return errors.New("device rejected config")
	}
	err := f.configureErr
	f.configureErr = nil
	return err
}
func (f *fakeHooks) AllocateMemory() error { f.record("AllocateMemory"); return nil }
func (f *fakeHooks) ClearMemory()          { f.record("ClearMemory") }
func (f *fakeHooks) DestroyDevice()        { f.record("DestroyDevice") }
func (f *fakeHooks) CloseSockets()         { f.record("CloseSockets") }
func (f *fakeHooks) DestroyContext()       { f.record("DestroyContext") }

func (f *fakeHooks) StartAcquisition() error { f.record("StartAcquisition"); return nil }
func (f *fakeHooks) StopAcquisition()        { f.record("StopAcquisition") }
func (f *fakeHooks) ReadData() (bool, error) {
	f.record("ReadData")
	if f.readDataErr != nil {
		err := f.readDataErr
		f.readDataErr = nil
		return false, err
	}
	return true, nil
}
func (f *fakeHooks) PendingEvents() int    { return f.pending }
func (f *fakeHooks) PublishData() error    { f.record("PublishData"); return nil }
func (f *fakeHooks) PublishStatus() error  { f.record("PublishStatus"); return nil }
func (f *fakeHooks) ReceiveCommand() (control.Command, bool) {
	f.record("ReceiveCommand")
	if len(f.commands) == 0 {
		return control.Command{}, false
	}
	cmd := f.commands[0]
	f.commands = f.commands[1:]
	return cmd, true
}
func (f *fakeHooks) ReportError(class ErrorClass, err error) {
	f.record("ReportError:" + class.String())
	f.reportedClasses = append(f.reportedClasses, class)
}

func driveUntil(t *testing.T, s *Stage, target State, maxSteps int) {
	t.Helper()
	for i := 0; i < maxSteps; i++ {
		if s.State() == target {
			return
		}
		s.Step()
	}
	require.Equal(t, target, s.State(), "did not reach target state within %d steps", maxSteps)
}

func TestStartupReachesReceiveCommands(t *testing.T) {
	hooks := &fakeHooks{}
	s := New(hooks)

	driveUntil(t, s, RECEIVE_COMMANDS, 20)

	assert.Equal(t, []string{
		"CreateContext", "CreateSockets", "BindSockets", "ReadConfig",
		"CreateDevice", "ConfigureDevice", "AllocateMemory", "PublishStatus",
	}, hooks.calls)
}

// TestTerminateFromReceiveCommands covers scenario S6: the terminate flag
// observed in the steady (non-acquiring) state shuts down without
// passing through any data-publishing state, in the exact state order
// CLEAR_MEMORY -> DESTROY_DEVICE -> CLOSE_SOCKETS -> DESTROY_CONTEXT -> STOP.
func TestTerminateFromReceiveCommands(t *testing.T) {
	hooks := &fakeHooks{}
	s := New(hooks)
	driveUntil(t, s, RECEIVE_COMMANDS, 20)
	hooks.calls = nil

	s.Terminate.Store(true)

	driveUntil(t, s, STOP, 10)

	assert.Equal(t, []string{"ClearMemory", "DestroyDevice", "CloseSockets", "DestroyContext"}, hooks.calls)
}

func TestTerminateDuringAcquisitionFlushesBeforeShutdown(t *testing.T) {
	hooks := &fakeHooks{}
	s := New(hooks)
	driveUntil(t, s, RECEIVE_COMMANDS, 20)
	hooks.commands = []control.Command{{Name: control.CmdStart}}

	driveUntil(t, s, ACQ_RECV_COMMANDS, 5)
	hooks.calls = nil

	s.Terminate.Store(true)
	driveUntil(t, s, STOP, 10)

	assert.Equal(t, []string{
		"PublishData", "StopAcquisition",
		"ClearMemory", "DestroyDevice", "CloseSockets", "DestroyContext",
	}, hooks.calls)
}

func TestReadDataPublishesAtHighWaterMark(t *testing.T) {
	hooks := &fakeHooks{pending: 10}
	s := New(hooks)
	s.HighWaterMark = 4
	driveUntil(t, s, RECEIVE_COMMANDS, 20)
	hooks.commands = []control.Command{{Name: control.CmdStart}}
	driveUntil(t, s, ACQ_RECV_COMMANDS, 5)
	hooks.calls = nil

	driveUntil(t, s, PUBLISH_DATA, 5)
	assert.Contains(t, hooks.calls, "ReadData")
}

func TestReconfigureFromSteadyStateRunsLightChain(t *testing.T) {
	hooks := &fakeHooks{}
	s := New(hooks)
	driveUntil(t, s, RECEIVE_COMMANDS, 20)
	hooks.commands = []control.Command{{Name: control.CmdReconfigure}}
	s.Step() // RECEIVE_COMMANDS consumes the reconfigure command
	hooks.calls = nil

	driveUntil(t, s, RECEIVE_COMMANDS, 20)

	assert.Equal(t, []string{
		"ClearMemory", "DestroyDevice",
		"CreateDevice", "ConfigureDevice", "AllocateMemory", "PublishStatus",
	}, hooks.calls)
}

func TestReconfigureDuringAcquisitionRunsRestartChain(t *testing.T) {
	hooks := &fakeHooks{}
	s := New(hooks)
	driveUntil(t, s, RECEIVE_COMMANDS, 20)
	hooks.commands = []control.Command{{Name: control.CmdStart}}
	driveUntil(t, s, ACQ_RECV_COMMANDS, 5)
	hooks.commands = []control.Command{{Name: control.CmdReconfigure}}
	s.Step() // ACQ_RECV_COMMANDS consumes the reconfigure command
	hooks.calls = nil

	driveUntil(t, s, ACQ_RECV_COMMANDS, 20)

	assert.Equal(t, []string{
		"PublishData", "StopAcquisition", "ClearMemory", "DestroyDevice",
		"CreateDevice", "ConfigureDevice", "AllocateMemory", "StartAcquisition",
	}, hooks.calls)
}

func TestConfigureErrorDuringReconfigureRetriesThenSucceeds(t *testing.T) {
	hooks := &fakeHooks{}
	s := New(hooks)
	driveUntil(t, s, RECEIVE_COMMANDS, 20)
	hooks.commands = []control.Command{{Name: control.CmdReconfigure}}
	hooks.configureErr = errors.New("device rejected config")
	s.Step() // RECEIVE_COMMANDS consumes the reconfigure command
	hooks.calls = nil

	// First retry: ConfigureDevice fails once, goes back through the
	// reconfigure chain, then ConfigureDevice succeeds the second time.
	driveUntil(t, s, RECEIVE_COMMANDS, 30)
	assert.Contains(t, hooks.reportedClasses, ClassConfigure)
	assert.Equal(t, RECEIVE_COMMANDS, s.State())
}

func TestConfigureErrorHardStopsAfterSecondFailure(t *testing.T) {
	hooks := &fakeHooks{}
	s := New(hooks)
	driveUntil(t, s, RECEIVE_COMMANDS, 20)
	hooks.configureFailN = 2
	hooks.commands = []control.Command{{Name: control.CmdReconfigure}}

	driveUntil(t, s, STOP, 40)

	assert.Equal(t, STOP, s.State())
	assert.GreaterOrEqual(t, len(hooks.reportedClasses), 2)
}

func TestCreateDeviceErrorDuringStartupFailsFast(t *testing.T) {
	hooks := &fakeHooks{createDeviceErr: errors.New("no such device")}
	s := New(hooks)

	driveUntil(t, s, STOP, 20)
	assert.Contains(t, hooks.reportedClasses, ClassDevice)
	assert.Equal(t, STOP, s.State())
}

func TestAcquisitionErrorTriggersRestartChain(t *testing.T) {
	hooks := &fakeHooks{}
	s := New(hooks)
	driveUntil(t, s, RECEIVE_COMMANDS, 20)
	hooks.commands = []control.Command{{Name: control.CmdStart}}
	driveUntil(t, s, ACQ_RECV_COMMANDS, 5)
	hooks.readDataErr = errors.New("device read failed")
	s.Step() // ACQ_RECV_COMMANDS moves on to READ_DATA
	hooks.calls = nil

	driveUntil(t, s, ACQ_RECV_COMMANDS, 20)

	assert.Contains(t, hooks.reportedClasses, ClassAcquisition)
	assert.Contains(t, hooks.calls, "StartAcquisition")
}
