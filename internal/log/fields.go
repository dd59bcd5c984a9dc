package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldUserID     = "user_id"
	FieldEntryKind  = "kind"
	FieldEntryID    = "id"
	FieldCategory   = "category"
	FieldAmount     = "amount_cents"
	FieldDate       = "date"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentAuth     = "auth"
	ComponentLedger   = "ledger"
	ComponentSnapshot = "snapshot"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentSheets   = "sheets"
	ComponentSecurity = "security"
)
