package response

import "github.com/user/domcapture-service/internal/entity"

// CaptureResponse wraps a capture result. Exactly one of DOMState and Error
// is set; Warnings may accompany a successful state.
type CaptureResponse struct {
	Success  bool                       `json:"success"`
	DOMState *entity.SerializedDOMState `json:"dom_state,omitempty"`
	Error    *entity.CaptureError       `json:"error,omitempty"`
	Warnings []entity.CaptureWarning    `json:"warnings,omitempty"`
}

// StatusResponse is the generic acknowledgement envelope.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
