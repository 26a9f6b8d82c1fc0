package core

// Logger is any leveled logger that can attach arbitrary context to a record.
// Implementations may treat specific argument types specially (eg. attach the
// request's account to an error report).
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
