package apperrors

// Status is the "error" object of a failed callable response.
type Status struct {
	Status  Code           `json:"status"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ToStatus converts err into its HTTP status and wire body. Untyped errors
// become INTERNAL with a generic message.
func ToStatus(err error) (int, Status) {
	appErr, ok := As(err)
	if !ok {
		appErr = Internal("", err)
	}
	msg := appErr.Message
	if msg == "" {
		msg = string(appErr.Code)
	}
	return appErr.Code.HTTPStatus(), Status{
		Status:  appErr.Code,
		Message: msg,
		Details: appErr.Details,
	}
}
