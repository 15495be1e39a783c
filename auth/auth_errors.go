package auth

import "fmt"

// ProviderDeniedError carries the provider's own error code and description
// from a failed authorization redirect. The description is logged; only the
// code is ever shown to the end user.
type ProviderDeniedError struct {
	Code        string
	Description string
}

func (e *ProviderDeniedError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("provider denied authorization: %s", e.Code)
	}
	return fmt.Sprintf("provider denied authorization: %s - %s", e.Code, e.Description)
}
