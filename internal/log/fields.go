package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldOperation  = "operation"
	FieldError      = "error"
	FieldState      = "state"
	FieldGeneration = "generation"
	FieldScope      = "scope"
	FieldKey        = "key"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldRequestID  = "request_id"
	FieldDuration   = "duration_ms"
	FieldUserID     = "user_id"
	FieldCount      = "count"
)

// Component names
const (
	ComponentApp       = "app"
	ComponentSession   = "session"
	ComponentStorage   = "storage"
	ComponentAuth      = "auth"
	ComponentAccess    = "access"
	ComponentAPI       = "api"
	ComponentAggregate = "aggregate"
	ComponentAMQP      = "amqp"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentServices  = "services"
	ComponentBackend   = "backend"
)

// Operation names
const (
	OpInit     = "init"
	OpLogin    = "login"
	OpSignup   = "signup"
	OpLogout   = "logout"
	OpRefresh  = "refresh"
	OpRead     = "read"
	OpWrite    = "write"
	OpDelete   = "delete"
	OpList     = "list"
	OpCreate   = "create"
	OpUpdate   = "update"
	OpExport   = "export"
	OpPublish  = "publish"
	OpMigrate  = "migrate"
	OpShutdown = "shutdown"
)

// LogFields is a small builder for slog key/value pairs.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError adds the error text; nil errors are skipped.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithGeneration(gen uint64) LogFields {
	f[FieldGeneration] = gen
	return f
}

func (f LogFields) WithScope(scope, key string) LogFields {
	f[FieldScope] = scope
	if key != "" {
		f[FieldKey] = key
	}
	return f
}

func (f LogFields) WithHTTP(method, path string, status int, durationMs int64) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if status != 0 {
		f[FieldStatusCode] = status
	}
	f[FieldDuration] = durationMs
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
