// Package control implements the JSON command and status envelopes and
// the command-intake/dispatch plumbing shared by every stage (spec
// §4.9, §6).
package control

import "encoding/json"

// Recognized command names, spec §4.3/§6. The generic dispatcher acts
// only on start, stop, reconfigure, off and quit; the stage-specific
// names (snapshot, reset, add_file) and any unknown name are ignored by
// it and left for a stage's Hooks to interpret.
const (
	CmdStart       = "start"
	CmdStop        = "stop"
	CmdReconfigure = "reconfigure"
	CmdOff         = "off"
	CmdQuit        = "quit"
	CmdSnapshot    = "snapshot"
	CmdReset       = "reset"
	CmdAddFile     = "add_file"
)

// Command is the JSON object received on a stage's commands PULL socket:
// `{"command": "<name>", "arguments": {...}}`. Commands are fire-and-forget;
// acknowledgement is implicit through the next status publication.
type Command struct {
	Name      string          `json:"command"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ParseCommand decodes one command message. Malformed JSON is a decode
// error, not a PARSE_ERROR in the spec §7 sense (that class is reserved
// for the stage's own config file); the caller should log and drop it.
func ParseCommand(raw []byte) (Command, error) {
	var c Command
	if err := json.Unmarshal(raw, &c); err != nil {
		return Command{}, err
	}
	return c, nil
}

// ReconfigureArguments is the shape of `arguments` on a reconfigure
// command: a nested, stage-specific configuration document.
type ReconfigureArguments struct {
	Config json.RawMessage `json:"config"`
}

// ParseReconfigure extracts the nested config document from a
// reconfigure command's arguments.
func ParseReconfigure(c Command) (json.RawMessage, error) {
	var args ReconfigureArguments
	if len(c.Arguments) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(c.Arguments, &args); err != nil {
		return nil, err
	}
	return args.Config, nil
}
