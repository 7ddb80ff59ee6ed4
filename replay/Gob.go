package replay

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// stateDump is the serialized form of State
type stateDump struct {
	LastObs    []float64
	Obs        []float64
	Actions    []float64
	Rewards    []float64
	Dones      []float64
	Priorities []float64
	Index      int
	Size       int
}

// GobEncode implements the GobEncoder interface
func (s State) GobEncode() ([]byte, error) {
	dump := stateDump{
		LastObs:    s.lastObs,
		Obs:        s.obs,
		Actions:    s.actions,
		Rewards:    s.rewards,
		Dones:      s.dones,
		Priorities: s.priorities,
		Index:      s.index,
		Size:       s.size,
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(dump); err != nil {
		return nil, fmt.Errorf("gobencode: %v", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the GobDecoder interface
func (s *State) GobDecode(encoded []byte) error {
	var dump stateDump
	err := gob.NewDecoder(bytes.NewReader(encoded)).Decode(&dump)
	if err != nil {
		return fmt.Errorf("gobdecode: %v", err)
	}

	s.lastObs = dump.LastObs
	s.obs = dump.Obs
	s.actions = dump.Actions
	s.rewards = dump.Rewards
	s.dones = dump.Dones
	s.priorities = dump.Priorities
	s.index = dump.Index
	s.size = dump.Size
	return nil
}
