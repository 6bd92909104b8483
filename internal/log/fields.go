package log

// Common field names for structured logging
const (
	FieldComponent    = "component"
	FieldRunID        = "run_id"
	FieldOperation    = "operation"
	FieldDuration     = "duration_ms"
	FieldError        = "error"
	FieldBackend      = "backend"
	FieldPath         = "path"
	FieldDays         = "days"
	FieldMinPerDay    = "min_per_day"
	FieldMaxPerDay    = "max_per_day"
	FieldTransactions = "transactions"
	FieldDropped      = "dropped"
	FieldRevenueCents = "revenue_cents"
	FieldCharts       = "charts"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentPipeline  = "pipeline"
	ComponentGenerator = "generator"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentRender    = "render"
	ComponentBackend   = "backend"
)

// Operations defines standard operation names
const (
	OpGenerate = "generate"
	OpAnalyze  = "analyze"
	OpImport   = "import"
	OpSetup    = "setup"
	OpTemplate = "template"
	OpRender   = "render"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithRunID adds the pipeline run identifier
func (f LogFields) WithRunID(id string) LogFields {
	f[FieldRunID] = id
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithVolume adds the generation parameters
func (f LogFields) WithVolume(days, minPerDay, maxPerDay int) LogFields {
	f[FieldDays] = days
	f[FieldMinPerDay] = minPerDay
	f[FieldMaxPerDay] = maxPerDay
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
