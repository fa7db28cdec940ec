package httpapi

// Result is the JSON envelope of every API response.
type Result[T any] struct {
	Status  string `json:"status"` // "ok" | "error"
	Message string `json:"message,omitempty"`
	Result  T      `json:"result,omitempty"`
}

func Ok[T any](result T) Result[T] {
	return Result[T]{Status: "ok", Result: result}
}

func Fail(message string) Result[any] {
	return Result[any]{Status: "error", Message: message}
}

// Invalid carries a rejected submission back to the form: the payload holds
// the submitted person, rebuilt options, and per-field messages.
func Invalid(message string, payload any) Result[any] {
	return Result[any]{Status: "error", Message: message, Result: payload}
}
