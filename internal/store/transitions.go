package store

import "github.com/gtechitgaminghub-byte/gamezone/internal/models"

// A rental session may only start against a PC that is not already
// occupied. Ending a session always resets the PC to online, so the end
// action accepts any PC status.
var pcTransitionMap = map[string][]string{
	"session_start": {models.PcStatusOnline, models.PcStatusOffline},
	"session_end":   {models.PcStatusInSession, models.PcStatusOnline, models.PcStatusOffline},
}

func ValidPcTransition(action, fromStatus string) bool {
	allowed, ok := pcTransitionMap[action]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == fromStatus {
			return true
		}
	}
	return false
}

// Sessions move active -> completed and nothing else.
var sessionTransitionMap = map[string][]string{
	"end": {models.SessionStatusActive},
}

func ValidSessionTransition(action, fromStatus string) bool {
	allowed, ok := sessionTransitionMap[action]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == fromStatus {
			return true
		}
	}
	return false
}
