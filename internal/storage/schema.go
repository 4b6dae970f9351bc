package storage

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed worldstate.schema.json
var worldStateSchema string

var stateSchema = jsonschema.MustCompileString("worldstate.schema.json", worldStateSchema)

// ValidateState checks raw state JSON against the persisted bounds
func ValidateState(data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse state: %w", err)
	}
	if err := stateSchema.Validate(doc); err != nil {
		return fmt.Errorf("state out of bounds: %w", err)
	}
	return nil
}

// ValidateSnapshot checks the state embedded in an encoded envelope
func ValidateSnapshot(data []byte) error {
	var raw rawSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse snapshot: %w", err)
	}
	if len(raw.State) == 0 || strings.TrimSpace(string(raw.State)) == "null" {
		return fmt.Errorf("snapshot has no state")
	}
	return ValidateState(raw.State)
}
