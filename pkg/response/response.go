package response

// Body is the uniform error envelope returned by every endpoint on
// failure: {success:false, error, message}.
type Body struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func Error(code, message string, data any) Body {
	return Body{
		Success: false,
		Error:   code,
		Message: message,
		Data:    data,
	}
}

func OK(message string, data any) Body {
	return Body{
		Success: true,
		Message: message,
		Data:    data,
	}
}
