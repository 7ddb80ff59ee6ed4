// Package checkpoint saves and restores training snapshots using gob
// encoding. Any value whose fields are gob-encodable can be
// checkpointed; snapshot types in this module implement GobEncoder and
// GobDecoder where needed.
package checkpoint

import (
	"encoding/gob"
	"fmt"
	"os"
)

// Save writes v to the file at path, creating or truncating it
func Save(path string, v interface{}) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save: %v", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(v); err != nil {
		return fmt.Errorf("save: could not encode: %v", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	return nil
}

// Load reads the file at path into v, which must be a pointer to the
// type Save was called with
func Load(path string, v interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("load: %v", err)
	}
	defer file.Close()

	if err := gob.NewDecoder(file).Decode(v); err != nil {
		return fmt.Errorf("load: could not decode: %v", err)
	}
	return nil
}
