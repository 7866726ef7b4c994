package models

import "encoding/json"

// StateEntry is one flat key=value state file written by sgt, named after
// its file.
type StateEntry struct {
	Name  string
	State map[string]string
}

// MarshalJSON renders the entry as a single flat object. A "name" key in
// the state file overrides the file name.
func (e StateEntry) MarshalJSON() ([]byte, error) {
	out := make(map[string]string, len(e.State)+1)
	out["name"] = e.Name
	for k, v := range e.State {
		out[k] = v
	}
	return json.Marshal(out)
}

// Molecule is a workflow template found under SGT_ROOT/molecules.
type Molecule struct {
	Name        string `json:"name"`
	File        string `json:"file"`
	Description string `json:"description,omitempty"`
	Steps       int    `json:"steps"`
}

// DaemonInfo reports whether the sgt daemon process is running.
type DaemonInfo struct {
	Running bool `json:"running"`
	PID     int  `json:"pid,omitempty"`
}

// Overview aggregates the dashboard's read endpoints into one payload.
type Overview struct {
	Timestamp  string            `json:"timestamp"`
	Status     *StatusReport     `json:"status"`
	Rigs       []Rig             `json:"rigs"`
	Polecats   []StateEntry      `json:"polecats"`
	Dogs       []StateEntry      `json:"dogs"`
	MergeQueue []StateEntry      `json:"mergeQueue"`
	Errors     map[string]string `json:"errors,omitempty"`
}
