// Package exitcode defines named exit codes for the jules CLI.
package exitcode

// Exit code constants.
const (
	Success     = 0   // Command completed
	Error       = 1   // Remote call failed, invalid args, bad response shape
	Config      = 2   // Missing API key or credential
	Interrupted = 130 // SIGINT/SIGTERM received
)

// Name returns the human-readable name for the given exit code.
// Unknown codes return "unknown".
func Name(code int) string {
	switch code {
	case Success:
		return "Success"
	case Error:
		return "Error"
	case Config:
		return "Config"
	case Interrupted:
		return "Interrupted"
	default:
		return "unknown"
	}
}
