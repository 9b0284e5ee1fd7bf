package sandbox

import (
	"github.com/sirupsen/logrus"
)

// ExecuteRequest represents a code execution request.
type ExecuteRequest struct {
	Code    string `json:"code"`
	Timeout int    `json:"timeout,omitempty"` // seconds
}

// ExecuteResponse reports the sandbox decision. While execution is disabled
// Status is always "disabled" and nothing runs.
type ExecuteResponse struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

// ExecutorService is the sandbox boundary. It deliberately never executes
// code: staged skills are reviewed manually, and enabling remote code
// execution requires understanding the security implications first.
type ExecutorService struct {
	logger *logrus.Logger
}

// NewExecutorService creates the (disabled) sandbox executor.
func NewExecutorService() *ExecutorService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	return &ExecutorService{logger: logger}
}

// Execute unconditionally reports disabled status. The request body is
// accepted so callers get a stable response shape, but no part of it runs.
func (s *ExecutorService) Execute(req ExecuteRequest) ExecuteResponse {
	s.logger.WithFields(logrus.Fields{
		"code_bytes": len(req.Code),
	}).Warn("sandbox execution requested but execution is disabled")

	return ExecuteResponse{
		Status: "disabled",
		Note:   "Sandbox execution disabled for safety. Review staged skills manually.",
	}
}
