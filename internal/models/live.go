package models

import "time"

// Live message types pushed to dashboard clients.
const (
	MessageHello    = "hello"
	MessageStatus   = "status"
	MessageLog      = "log"
	MessageLogReset = "log_reset"
)

// serverTimeLayout matches JavaScript's Date.prototype.toISOString.
const serverTimeLayout = "2006-01-02T15:04:05.000Z"

// ServerTime formats t the way dashboard clients expect.
func ServerTime(t time.Time) string {
	return t.UTC().Format(serverTimeLayout)
}

// HelloMessage is sent once when a live connection opens.
type HelloMessage struct {
	Type       string `json:"type"`
	ServerTime string `json:"serverTime"`
}

// StatusMessage carries a fresh `sgt status` report.
type StatusMessage struct {
	Type       string        `json:"type"`
	Raw        string        `json:"raw"`
	Parsed     *StatusReport `json:"parsed"`
	ServerTime string        `json:"serverTime"`
}

// LogMessage carries lines appended to the sgt log.
type LogMessage struct {
	Type  string   `json:"type"`
	Lines []string `json:"lines"`
}

// LogResetMessage tells the client the sgt log was truncated or rotated.
type LogResetMessage struct {
	Type string `json:"type"`
}

// NewHelloMessage builds a hello message stamped with now.
func NewHelloMessage(now time.Time) HelloMessage {
	return HelloMessage{Type: MessageHello, ServerTime: ServerTime(now)}
}

// NewStatusMessage builds a status message stamped with now.
func NewStatusMessage(raw string, parsed *StatusReport, now time.Time) StatusMessage {
	return StatusMessage{Type: MessageStatus, Raw: raw, Parsed: parsed, ServerTime: ServerTime(now)}
}
