package log

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldStage       = "stage"
	FieldReport      = "report"
	FieldTab         = "tab"
	FieldMonth       = "month"
	FieldStart       = "start"
	FieldEnd         = "end"
	FieldRows        = "rows"
	FieldGroup       = "group"
	FieldCategories  = "categories"
	FieldFileID      = "file_id"
	FieldSpreadsheet = "spreadsheet_id"
	FieldServer      = "server"
	FieldPath        = "path"
	FieldDuration    = "duration_ms"
	FieldRunID       = "run_id"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentConfig  = "config"
	ComponentLedger  = "ledger"
	ComponentActual  = "actual"
	ComponentBudget  = "budget"
	ComponentSheets  = "sheets"
	ComponentWorker  = "worker"
	ComponentBackend = "backend"
)

// Operations defines standard operation names
const (
	OpFetch    = "fetch"
	OpPublish  = "publish"
	OpDownload = "download"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
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

// WithStage adds stage field
func (f LogFields) WithStage(stage string) LogFields {
	f[FieldStage] = stage
	return f
}

// WithReport adds the report and tab names
func (f LogFields) WithReport(report, tab string) LogFields {
	f[FieldReport] = report
	f[FieldTab] = tab
	return f
}

// WithWindow adds the window label and bounds
func (f LogFields) WithWindow(label, start, end string) LogFields {
	f[FieldMonth] = label
	f[FieldStart] = start
	f[FieldEnd] = end
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
