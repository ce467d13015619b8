package domain

import (
	"errors"
	"fmt"
)

var (
	ErrConfigurationMissing = errors.New("configuration missing")
	ErrValidationFailed     = errors.New("validation failed")
	ErrExternalCallFailed   = errors.New("external call failed")
	ErrPersistFailed        = errors.New("persist failed")
	ErrNotFound             = errors.New("not found")
	ErrDuplicate            = errors.New("already exists")
)

// External call failures, tagged by the call that failed.
var (
	ErrAggregatorUnavailable = fmt.Errorf("%w: aggregator unavailable", ErrExternalCallFailed)
	ErrExchangeFailed        = fmt.Errorf("%w: public token exchange", ErrExternalCallFailed)
	ErrAccountFetchFailed    = fmt.Errorf("%w: account fetch", ErrExternalCallFailed)
	ErrProcessorTokenFailed  = fmt.Errorf("%w: processor token", ErrExternalCallFailed)
	ErrNetworkCustomerFailed = fmt.Errorf("%w: network customer", ErrExternalCallFailed)
	ErrAuthorizationFailed   = fmt.Errorf("%w: on-demand authorization", ErrExternalCallFailed)
	ErrFundingSourceFailed   = fmt.Errorf("%w: funding source", ErrExternalCallFailed)
	ErrTransferFailed        = fmt.Errorf("%w: transfer", ErrExternalCallFailed)
)

// StepError reports which orchestration step failed and with which kind.
type StepError struct {
	Step string
	Kind error
	Err  error
}

func (e *StepError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Step, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Step, e.Kind, e.Err)
}

func (e *StepError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewStepError wraps err as a failure of step. A nil err still yields a failure.
func NewStepError(step string, kind, err error) *StepError {
	return &StepError{Step: step, Kind: kind, Err: err}
}

// KindOf returns the most specific sentinel matched by err, for metrics and logs.
func KindOf(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrValidationFailed):
		return "validation_failed"
	case errors.Is(err, ErrPersistFailed):
		return "persist_failed"
	case errors.Is(err, ErrConfigurationMissing):
		return "configuration_missing"
	case errors.Is(err, ErrExternalCallFailed):
		return "external_call_failed"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "unknown"
	}
}

// kinds names every sentinel, most specific first.
var kinds = []struct {
	name string
	err  error
}{
	{"aggregator_unavailable", ErrAggregatorUnavailable},
	{"exchange_failed", ErrExchangeFailed},
	{"account_fetch_failed", ErrAccountFetchFailed},
	{"processor_token_failed", ErrProcessorTokenFailed},
	{"network_customer_failed", ErrNetworkCustomerFailed},
	{"authorization_failed", ErrAuthorizationFailed},
	{"funding_source_failed", ErrFundingSourceFailed},
	{"transfer_failed", ErrTransferFailed},
	{"validation_failed", ErrValidationFailed},
	{"persist_failed", ErrPersistFailed},
	{"configuration_missing", ErrConfigurationMissing},
	{"not_found", ErrNotFound},
	{"already_exists", ErrDuplicate},
	{"external_call_failed", ErrExternalCallFailed},
}

// KindNames lists every sentinel err matches, most specific first.
func KindNames(err error) []string {
	var names []string
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			names = append(names, k.name)
		}
	}
	return names
}

// ErrorForKind maps a name from KindOf or KindNames back to its sentinel, for
// errors that crossed a process boundary. Unknown names return nil.
func ErrorForKind(name string) error {
	for _, k := range kinds {
		if k.name == name {
			return k.err
		}
	}
	return nil
}

// WithKinds makes err also match each of kinds. The message is err's.
func WithKinds(err error, kinds ...error) error {
	if len(kinds) == 0 {
		return err
	}
	return &kindedError{err: err, kinds: kinds}
}

type kindedError struct {
	err   error
	kinds []error
}

func (e *kindedError) Error() string { return e.err.Error() }

func (e *kindedError) Unwrap() []error {
	return append(append([]error{}, e.kinds...), e.err)
}
