package log

// Common field names for structured logging.
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldClientIP  = "client_ip"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status_code"
	FieldDuration  = "duration_ms"
	FieldError     = "error"
	FieldUserID    = "user_id"
	FieldGroupID   = "group_id"
	FieldTxID      = "transaction_id"
	FieldOperation = "operation"
	FieldAmount    = "amount_cents"
)

// Component names used across the application.
const (
	ComponentHTTP    = "http"
	ComponentBudget  = "budget_service"
	ComponentStore   = "store"
	ComponentRates   = "rates"
	ComponentAuth    = "auth"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "audit_worker"
	ComponentBackend = "backend"
)

// Operation names used in structured log fields.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpList   = "list"
)
