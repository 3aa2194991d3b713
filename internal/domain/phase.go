package domain

import (
	"encoding/json"
	"fmt"
)

// Phase is the lifecycle stage of a quiz session.
type Phase int

const (
	PhaseSelecting Phase = iota
	PhaseCountdown
	PhaseInProgress
	PhaseSubmitting
	PhaseResults
)

var phaseNames = map[Phase]string{
	PhaseSelecting:  "selecting",
	PhaseCountdown:  "countdown",
	PhaseInProgress: "in_progress",
	PhaseSubmitting: "submitting",
	PhaseResults:    "results",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// MarshalJSON encodes the phase by name.
func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes a phase name.
func (p *Phase) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for phase, n := range phaseNames {
		if n == name {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", name)
}
