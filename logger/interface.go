package logger

import "context"

// Logger is the structured logger shared by every package of the module.
//
// Each call takes the error that caused the entry, or nil, and optional field maps that
// are merged into the entry. The *WithContext variants also write the trace and span ids
// of ctx when tracing is enabled, so a message can be followed from the producing
// service to the consumer that read it.
//
// Packages declare the subset they need as their own Logger interface; *LoggerClient
// satisfies all of them.
type Logger interface {
	Debug(msg string, err error, fields ...map[string]interface{})
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	// Fatal logs and then exits the process.
	Fatal(msg string, err error, fields ...map[string]interface{})

	DebugWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	FatalWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}
