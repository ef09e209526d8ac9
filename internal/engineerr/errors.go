// Package engineerr defines the error taxonomy shared by every cipcore
// package, per the CORE ERROR HANDLING DESIGN. Every callback and driver
// returns (or wraps) one of the sentinels below rather than an ad-hoc error
// string, so that the search engine and the CLI wrapper can dispatch on
// cause without string matching.
package engineerr

import "github.com/pkg/errors"

// Sentinel error kinds. Names are semantic, matching the taxonomy the
// specification prescribes; they are not meant to be compared with ==
// directly by callers outside this package — use Is/Cause.
var (
	Okay                = errors.New("okay")
	NoMemory            = errors.New("no-memory")
	ReadError           = errors.New("read-error")
	WriteError          = errors.New("write-error")
	NoFile              = errors.New("no-file")
	FileCreateError     = errors.New("file-create-error")
	ParseError          = errors.New("parse-error")
	InvalidData         = errors.New("invalid-data")
	InvalidResult       = errors.New("invalid-result")
	PluginNotFound      = errors.New("plugin-not-found")
	ParameterUnknown    = errors.New("parameter-unknown")
	ParameterWrongType  = errors.New("parameter-wrong-type")
	ParameterWrongValue = errors.New("parameter-wrong-value")
	LPError             = errors.New("LP-error")
	NotImplemented      = errors.New("not-implemented")
	BranchingFailed     = errors.New("branching-failed")
)

// fatal holds the sentinels that must unwind the engine rather than be
// handled locally, per the propagation policy in the spec's error-handling
// design: invariant violations are fatal, everything else is recoverable
// at the call site that produced it.
var fatal = map[error]bool{
	NoMemory:        true,
	InvalidResult:   true,
	BranchingFailed: true,
	InvalidData:     true,
}

// Wrap attaches op (the originating operation name) and a human-readable
// message to cause, preserving cause for IsFatal/Cause dispatch.
func Wrap(cause error, op string, msg string) error {
	return errors.Wrapf(cause, "%s: %s", op, msg)
}

// Cause returns the deepest wrapped sentinel, or err itself if it was never
// wrapped with Wrap.
func Cause(err error) error {
	return errors.Cause(err)
}

// IsFatal reports whether err (or any sentinel it wraps) must unwind the
// engine rather than be handled locally by the operation that produced it.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return fatal[Cause(err)]
}

// Is reports whether err wraps target, following the chain produced by Wrap.
func Is(err, target error) bool {
	return errors.Is(err, target) || Cause(err) == target
}
