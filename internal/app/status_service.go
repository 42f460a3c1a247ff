package app

import (
	"fmt"
	"os"
	"time"
)

// StatusService answers the "are you online" question.
type StatusService struct {
	started time.Time
	version string
	host    string
}

// NewStatusService creates a StatusService that counts uptime from started.
func NewStatusService(version string, started time.Time) *StatusService {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return &StatusService{started: started, version: version, host: host}
}

// Uptime returns how long the process has been running at now.
func (s *StatusService) Uptime(now time.Time) time.Duration {
	return now.Sub(s.started).Truncate(time.Second)
}

// Status returns the status text shown in chat.
func (s *StatusService) Status(now time.Time) string {
	return fmt.Sprintf("I'm online. Up for %s on %s (version %s, since %s).",
		s.Uptime(now), s.host, s.version, s.started.Format(entryLayout))
}
