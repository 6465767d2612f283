package global

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// APIResponse is the failure envelope. Clients only branch on Success.
type APIResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Code    string            `json:"code,omitempty"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

// SuccessResponse builds {success: true, ...fields}. Fields sit at the top level of the
// envelope (url, orders, cartItems) to stay wire compatible with the storefront client.
func SuccessResponse(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["success"] = true
	return out
}

func MessageResponse(message string) map[string]interface{} {
	return SuccessResponse(map[string]interface{}{"message": message})
}

func ErrorResponse(message string, errors []ValidationError) APIResponse {
	return APIResponse{
		Success: false,
		Message: message,
		Errors:  errors,
	}
}
