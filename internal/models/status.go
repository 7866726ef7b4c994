// Package models defines the view records the dashboard derives from sgt output and state files.
package models

import "encoding/json"

// Liveness words reported by sgt in the compact status layout.
const (
	LivenessAlive = "alive"
	LivenessDead  = "dead"
)

// Agent is a long-running sgt agent (daemon, witness, refinery, ...).
type Agent struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	Heartbeat string `json:"heartbeat,omitempty"`
}

// Polecat is a unit of dispatched work as reported by `sgt status`.
type Polecat struct {
	Name   string `json:"name"`
	Alive  string `json:"alive"`
	Issue  string `json:"issue,omitempty"`
	Branch string `json:"branch,omitempty"`

	// Attributes holds the "key: value" detail lines of the legacy layout.
	Attributes map[string]string `json:"-"`
}

// IsAlive reports whether sgt considers the polecat alive.
func (p Polecat) IsAlive() bool {
	return p.Alive == LivenessAlive
}

// MarshalJSON flattens Attributes into the polecat object. Attributes
// override fixed fields on key collision.
func (p Polecat) MarshalJSON() ([]byte, error) {
	out := make(map[string]string, len(p.Attributes)+4)
	out["name"] = p.Name
	out["alive"] = p.Alive
	if p.Issue != "" {
		out["issue"] = p.Issue
	}
	if p.Branch != "" {
		out["branch"] = p.Branch
	}
	for k, v := range p.Attributes {
		out[k] = v
	}
	return json.Marshal(out)
}

// Dog is a unit of work tied to an external issue.
type Dog struct {
	Name  string `json:"name"`
	Alive string `json:"alive"`
	Issue string `json:"issue"`
}

// CrewMember is a tracked worker entity.
type CrewMember struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// MergeQueueEntry is a pending merge item.
type MergeQueueEntry struct {
	Name   string `json:"name"`
	Detail string `json:"detail"`
}

// StatusReport is the structured form of an `sgt status` report.
type StatusReport struct {
	Agents     []Agent           `json:"agents"`
	Polecats   []Polecat         `json:"polecats"`
	Dogs       []Dog             `json:"dogs"`
	Crew       []CrewMember      `json:"crew"`
	MergeQueue []MergeQueueEntry `json:"mergeQueue"`
}

// NewStatusReport returns a report with empty, non-nil lists so every list
// serialises as [] rather than null.
func NewStatusReport() *StatusReport {
	return &StatusReport{
		Agents:     []Agent{},
		Polecats:   []Polecat{},
		Dogs:       []Dog{},
		Crew:       []CrewMember{},
		MergeQueue: []MergeQueueEntry{},
	}
}

// Rig is a repository managed by sgt, as reported by `sgt rig list`.
type Rig struct {
	Name     string `json:"name"`
	Repo     string `json:"repo"`
	Polecats *int   `json:"polecats,omitempty"`
	Witness  string `json:"witness,omitempty"`
	Refinery string `json:"refinery,omitempty"`
}
