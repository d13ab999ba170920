package config

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*
var schemaFiles embed.FS

func loadEmbedded(s string) (io.ReadCloser, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	return schemaFiles.Open(u.Path)
}

func init() {
	jsonschema.Loaders["embedFS"] = loadEmbedded
}

const schemaURL = "embedFS://schemas/stage_config.schema.json"

// ValidateDocument checks raw (either a `-f` config file or a
// `reconfigure` command's nested config document) against the shared
// stage configuration schema. Unknown fields are permitted here (a
// stage's own config struct embeds Common and adds its own
// properties); ValidateDocument only catches the common fields' type
// errors before Load decodes them or ApplyReconfigure sees them.
func ValidateDocument(raw []byte) error {
	s, err := jsonschema.Compile(schemaURL)
	if err != nil {
		return fmt.Errorf("config: compile schema: %w", err)
	}

	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("config: decode document: %w", err)
	}

	if err := s.Validate(v); err != nil {
		return fmt.Errorf("config: schema validation: %w", err)
	}
	return nil
}
