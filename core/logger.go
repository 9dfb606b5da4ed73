package core

// Logger is implemented by every logging backend.
// args may contain errors, a map[string]interface{} of extra data, or domain objects the backend knows about.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
