package api

// Normalize maps a raw server-side state string to its coarse state.
//
// PAUSED deliberately maps to CANCELLED: a paused session is treated as a
// terminal-ish cancellation for listing purposes. Unrecognized and future
// raw values map to RUNNING so that an unknown state never looks terminal.
func Normalize(raw string) CoarseState {
	switch raw {
	case RawCompleted:
		return StateCompleted
	case RawFailed:
		return StateFailed
	case RawCancelled, RawPaused:
		return StateCancelled
	default:
		return StateRunning
	}
}
