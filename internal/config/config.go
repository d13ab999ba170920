// Package config implements the shared `-f <config_file>` JSON loader
// every stage uses (spec §4.9/§6), following the teacher's
// cmd/cc-backend/main.go convention: defaults pre-populated in a
// struct literal, then overridden field-by-field by whatever the file
// sets, with unknown fields rejected rather than silently ignored.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// Common is the configuration shape every stage's own config struct
// embeds: the fields the generic Stage runtime itself needs, common
// to every process regardless of its domain-specific settings.
type Common struct {
	StatusAddress         string `json:"status_address,omitempty"`
	DataAddress           string `json:"data_address,omitempty"`
	InputAddress          string `json:"input_address,omitempty"`
	CommandsAddress       string `json:"commands_address,omitempty"`
	BasePeriodMs          int    `json:"base_period_ms,omitempty"`
	StatusPublishPeriodMs int    `json:"status_publish_period_ms,omitempty"`
	DataPublishTimeoutMs  int    `json:"data_publish_timeout_ms,omitempty"`
	HighWaterMark         int    `json:"high_water_mark,omitempty"`
	Verbosity             int    `json:"verbosity,omitempty"`
}

// BasePeriod converts BasePeriodMs to a time.Duration, defaulting to
// 10ms (spec §3: "a fixed base period, typically 10 ms") when unset.
func (c Common) BasePeriod() time.Duration {
	if c.BasePeriodMs <= 0 {
		return 10 * time.Millisecond
	}
	return time.Duration(c.BasePeriodMs) * time.Millisecond
}

// StatusPublishPeriod defaults to 3s (spec §4.3: "default publish
// period 3s") when unset.
func (c Common) StatusPublishPeriod() time.Duration {
	if c.StatusPublishPeriodMs <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.StatusPublishPeriodMs) * time.Millisecond
}

// DataPublishTimeout defaults to 1s when unset.
func (c Common) DataPublishTimeout() time.Duration {
	if c.DataPublishTimeoutMs <= 0 {
		return time.Second
	}
	return time.Duration(c.DataPublishTimeoutMs) * time.Millisecond
}

// DefaultHighWaterMark is the events-buffered trigger for PUBLISH_DATA
// (spec §4.3: "default high-water mark 4096 events").
const DefaultHighWaterMark = 4096

// HighWaterMarkOrDefault returns HighWaterMark, or DefaultHighWaterMark
// when unset.
func (c Common) HighWaterMarkOrDefault() int {
	if c.HighWaterMark <= 0 {
		return DefaultHighWaterMark
	}
	return c.HighWaterMark
}

// Load reads path as JSON into target, which must be a pointer to a
// struct embedding Common. An empty path is a no-op: target keeps
// whatever defaults the caller pre-populated, matching
// cmd/cc-backend's "defaults then override" convention. When validate
// is true the raw document is also checked against the shared stage
// schema before decoding.
func Load(path string, validate bool, target interface{}) error {
	if path == "" {
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %q: %w", path, err)
	}

	if validate {
		if err := ValidateDocument(raw); err != nil {
			return err
		}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil && err != io.EOF {
		return fmt.Errorf("config: decode %q: %w", path, err)
	}
	return nil
}
