package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldUserAgent     = "user_agent"
	FieldReferer       = "referer"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldView          = "view"
	FieldCourseCount   = "course_count"
	FieldSemesterCount = "semester_count"
	FieldGPA           = "gpa"
	FieldCGPA          = "cgpa"
	FieldTotalCredit   = "total_credit"
	FieldStoreKey      = "store_key"
	FieldBackend       = "backend"
	FieldReportKind    = "report_kind"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentCalculator = "calculator"
	ComponentStorage    = "storage"
	ComponentAMQP       = "amqp"
	ComponentWorker     = "worker"
	ComponentSheets     = "sheets"
	ComponentCache      = "cache"
	ComponentSecurity   = "security"
	ComponentRateLimit  = "rate_limit"
	ComponentTrace      = "trace"
	ComponentBackend    = "backend"
	ComponentTemplate   = "template"
	ComponentReport     = "report"
)

// Operations defines standard operation names
const (
	OpLoad      = "load"
	OpReplace   = "replace"
	OpClear     = "clear"
	OpEdit      = "edit"
	OpCalculate = "calculate"
	OpTransfer  = "transfer"
	OpExport    = "export"
	OpMirror    = "mirror"
	OpValidate  = "validate"
	OpParse     = "parse"
	OpRender    = "render"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
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

// WithRequestID adds request ID field
func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

// WithClientIP adds client IP field
func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
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

// WithGPA adds GPA result fields
func (f LogFields) WithGPA(courses int, totalCredit, gpa float64) LogFields {
	f[FieldCourseCount] = courses
	f[FieldTotalCredit] = totalCredit
	f[FieldGPA] = gpa
	return f
}

// WithCGPA adds CGPA result fields
func (f LogFields) WithCGPA(semesters int, totalCredit, cgpa float64) LogFields {
	f[FieldSemesterCount] = semesters
	f[FieldTotalCredit] = totalCredit
	f[FieldCGPA] = cgpa
	return f
}

// WithSemesters adds the semester list size
func (f LogFields) WithSemesters(count int) LogFields {
	f[FieldSemesterCount] = count
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent, referer string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	f[FieldUserAgent] = userAgent
	f[FieldReferer] = referer
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
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