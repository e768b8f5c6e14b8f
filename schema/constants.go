package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching and history.
	DatabaseBackend string

	// InputFormat represents how the change stream is encoded.
	InputFormat string

	// RunState is a state of the run orchestrator.
	RunState string

	// LogFormat represents the encoding of log lines.
	LogFormat string
)

// All output modes supported.
const (
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
	CSVOut  OutputMode = "csv"
)

// All cache backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All input formats supported.
const (
	LinesInput InputFormat = "lines" // default
	DiffInput  InputFormat = "diff"
)

// All log formats supported.
const (
	TextLog LogFormat = "text" // default
	JSONLog LogFormat = "json"
)

// Orchestrator states. Done and Failed are terminal.
const (
	StateStart      RunState = "start"
	StateCheckInput RunState = "check-input"
	StateCollecting RunState = "collecting"
	StateResolving  RunState = "resolving"
	StateDone       RunState = "done"
	StateFailed     RunState = "failed"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut: {},
	JSONOut: {},
	CSVOut:  {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidInputFormats lists all valid input formats.
var ValidInputFormats = map[InputFormat]struct{}{
	LinesInput: {},
	DiffInput:  {},
}

// IsTerminal reports whether the state ends a run.
func (s RunState) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}
