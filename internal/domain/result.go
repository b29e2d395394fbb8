package domain

import "time"

// CheckResult is the outcome of a single probe run.
//
// ResponseTime is in milliseconds. On a timeout it carries the
// configured timeout rather than a measured value, so charts show how
// long the probe was allowed to wait instead of a meaningless zero.
type CheckResult struct {
	Status       Status    `json:"status"`
	ResponseTime int64     `json:"response_time"`
	HTTPStatus   int       `json:"http_status,omitempty"`
	CertDaysLeft *int      `json:"cert_days_left,omitempty"`
	Message      string    `json:"message"`
	CheckedAt    time.Time `json:"checked_at"`
}

// CheckLog is a persisted CheckResult, bound to the target and check
// type that produced it.
type CheckLog struct {
	ID           int64     `json:"id"`
	TargetID     string    `json:"target_id"`
	CheckType    CheckType `json:"check_type"`
	Status       Status    `json:"status"`
	ResponseTime int64     `json:"response_time"`
	HTTPStatus   int       `json:"http_status,omitempty"`
	CertDaysLeft *int      `json:"cert_days_left,omitempty"`
	Message      string    `json:"message"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewCheckLog binds a probe result to its target and type.
func NewCheckLog(targetID string, ct CheckType, r CheckResult) *CheckLog {
	at := r.CheckedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return &CheckLog{
		TargetID:     targetID,
		CheckType:    ct,
		Status:       r.Status,
		ResponseTime: r.ResponseTime,
		HTTPStatus:   r.HTTPStatus,
		CertDaysLeft: r.CertDaysLeft,
		Message:      r.Message,
		CreatedAt:    at,
	}
}

// Result converts a stored log row back to the probe result shape.
func (l *CheckLog) Result() CheckResult {
	return CheckResult{
		Status:       l.Status,
		ResponseTime: l.ResponseTime,
		HTTPStatus:   l.HTTPStatus,
		CertDaysLeft: l.CertDaysLeft,
		Message:      l.Message,
		CheckedAt:    l.CreatedAt,
	}
}
