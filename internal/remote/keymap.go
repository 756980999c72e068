package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Keymap maps raw decoder command codes to semantic buttons. The map is
// immutable after construction; classification never mutates it.
type Keymap map[uint32]Button

// DefaultKeymap returns the code table for the reference remote.
func DefaultKeymap() Keymap {
	return Keymap{
		25: ButtonOK,
		24: ButtonRight,
		22: ButtonDown,
		23: ButtonLeft,
		21: ButtonUp,
		71: ButtonHome,
		16: ButtonSettings,
		72: ButtonBack,
		50: ButtonTV,
	}
}

// Lookup resolves a raw code. The second return is false for unmapped codes.
func (k Keymap) Lookup(code uint32) (Button, bool) {
	b, ok := k[code]
	return b, ok
}

// keymapSchema constrains operator-supplied keymap files: an object whose
// keys are decimal code strings and whose values are non-empty button names.
const keymapSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "minProperties": 1,
  "propertyNames": { "pattern": "^[0-9]+$" },
  "additionalProperties": {
    "type": "string",
    "pattern": "^[a-z][a-z0-9_]*$"
  }
}`

var compiledKeymapSchema = jsonschema.MustCompileString("keymap.schema.json", keymapSchema)

// LoadKeymap reads a JSON keymap file, validates it against the embedded
// schema, and returns the parsed table. The file replaces the default table
// entirely.
func LoadKeymap(path string) (Keymap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keymap: %w", err)
	}
	return ParseKeymap(data)
}

// ParseKeymap validates and parses raw keymap JSON.
func ParseKeymap(data []byte) (Keymap, error) {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse keymap: %w", err)
	}

	if err := compiledKeymapSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid keymap: %w", err)
	}

	entries, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid keymap: not an object")
	}

	km := make(Keymap, len(entries))
	for codeStr, name := range entries {
		code, err := strconv.ParseUint(codeStr, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid keymap code %q: %w", codeStr, err)
		}
		km[uint32(code)] = Button(name.(string))
	}
	return km, nil
}
