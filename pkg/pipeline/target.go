package pipeline

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// targetTag accepts an IP address or an RFC 1123 hostname. Neither form can
// begin with "-", so a target is never mistaken for a tool option.
const targetTag = "required,ip|hostname_rfc1123"

// ValidateTarget checks the single positional argument.
func ValidateTarget(target string) error {
	if err := validate.Var(target, targetTag); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			if verrs[0].Tag() == "required" {
				return NewInvalidTargetError(target, errors.New("target is empty"))
			}
			return NewInvalidTargetError(target, errors.New("must be an IP address or hostname"))
		}
		return NewInvalidTargetError(target, err)
	}
	return nil
}
