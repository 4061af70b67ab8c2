package shared

// Asynq task types
const (
	TypeExportCouponReport = "promotion:export_coupon_report"
)

// Asynq queues (name → priority trong worker config)
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueReports  = "reports"
)

// Context keys do middleware set
const (
	ContextKeyRequestID = "request_id"
	ContextKeyUserID    = "userID"
	ContextKeyRole      = "role"
)
