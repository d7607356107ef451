package response

// Response represents a standard API response format
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Code       string      `json:"code,omitempty"`    // machine-readable error code
	Details    interface{} `json:"details,omitempty"` // structured remediation data
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// ErrorWithCode returns an error response carrying a machine-readable code
// and optional structured details (e.g. available vs. required stock).
func ErrorWithCode(statusCode int, code, err string, details interface{}) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
		Code:       code,
		Details:    details,
	}
}

// Paginated wraps a page of items with its paging metadata.
func Paginated(items interface{}, total int64, page, limit int) map[string]interface{} {
	return map[string]interface{}{
		"items": items,
		"total": total,
		"page":  page,
		"limit": limit,
	}
}
