package errors

import (
	"fmt"
)

var (
	ErrValidation            = fmt.Errorf("recall: validation failed")
	ErrNotFound              = fmt.Errorf("recall: not found")
	ErrClassifierUnavailable = fmt.Errorf("recall: classifier unavailable")
	ErrQuotaDenied           = fmt.Errorf("recall: quota denied")
	ErrStore                 = fmt.Errorf("recall: store failure")
	ErrInvalidParams         = fmt.Errorf("recall: invalid params")
	ErrInvalidRequest        = fmt.Errorf("recall: invalid request")
	ErrInternal              = fmt.Errorf("recall: internal error")
)
