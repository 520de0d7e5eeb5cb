package logfields

import "log/slog"

// Canonical log field names shared by all packages.
const (
	KeyRunID    = "run_id"
	KeyStep     = "step"
	KeyResult   = "result"
	KeyExitCode = "exit_code"
	KeyCommand  = "command"
	KeyDir      = "dir"
	KeyPath     = "path"
	KeyURL      = "url"
	KeyBranch   = "branch"
	KeyCommit   = "commit"
	KeyCredID   = "credentials_id"
	KeyDuration = "duration_ms"
	KeyTrigger  = "trigger"
	KeyError    = "error"
)

func RunID(id string) slog.Attr         { return slog.String(KeyRunID, id) }
func Step(name string) slog.Attr        { return slog.String(KeyStep, name) }
func Result(r string) slog.Attr         { return slog.String(KeyResult, r) }
func ExitCode(code int) slog.Attr       { return slog.Int(KeyExitCode, code) }
func Command(cmd string) slog.Attr      { return slog.String(KeyCommand, cmd) }
func Dir(d string) slog.Attr            { return slog.String(KeyDir, d) }
func Path(p string) slog.Attr           { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr            { return slog.String(KeyURL, u) }
func Branch(b string) slog.Attr         { return slog.String(KeyBranch, b) }
func Commit(hash string) slog.Attr      { return slog.String(KeyCommit, hash) }
func CredentialsID(id string) slog.Attr { return slog.String(KeyCredID, id) }
func DurationMS(ms float64) slog.Attr   { return slog.Float64(KeyDuration, ms) }
func Trigger(t string) slog.Attr        { return slog.String(KeyTrigger, t) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
