package entity

import "fmt"

// ErrorCode is the closed set of capture failure codes.
type ErrorCode string

const (
	CodeTimeout          ErrorCode = "TIMEOUT"
	CodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	CodeTargetNotFound   ErrorCode = "TARGET_NOT_FOUND"
	CodeAgentUnavailable ErrorCode = "CAPTURE_AGENT_UNAVAILABLE"
	CodeCrossOriginFrame ErrorCode = "CROSS_ORIGIN_FRAME"
	CodePayloadTooLarge  ErrorCode = "PAYLOAD_TOO_LARGE"
	CodeUnknown          ErrorCode = "UNKNOWN"
)

// CaptureError is the typed failure returned for a capture. A capture either
// yields a SerializedDOMState or exactly one CaptureError, never both.
type CaptureError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message,omitempty"`
}

func (e *CaptureError) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewCaptureError builds a typed capture error.
func NewCaptureError(code ErrorCode, format string, args ...any) *CaptureError {
	return &CaptureError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WarningCode is the closed set of non-fatal capture warnings.
type WarningCode string

const (
	WarnDepthLimitReached        WarningCode = "DEPTH_LIMIT_REACHED"
	WarnCountLimitReached        WarningCode = "COUNT_LIMIT_REACHED"
	WarnSizeLimitReached         WarningCode = "SIZE_LIMIT_REACHED"
	WarnCrossOriginIframeSkipped WarningCode = "CROSS_ORIGIN_IFRAME_SKIPPED"
	WarnPartialAccessibilityData WarningCode = "PARTIAL_ACCESSIBILITY_DATA"
)

// CaptureWarning is a non-fatal condition attached to a successful capture.
type CaptureWarning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message,omitempty"`
}

// NewWarning builds a capture warning.
func NewWarning(code WarningCode, format string, args ...any) CaptureWarning {
	return CaptureWarning{Code: code, Message: fmt.Sprintf(format, args...)}
}
