package types

import "fmt"

// NotConnectedError is returned when an operation requires an active session
// and none exists. It is never retried internally.
type NotConnectedError struct {
	Op string
}

func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("not connected: %s requires an active wallet session", e.Op)
}

// ValidationError is returned for malformed input before any network I/O.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// WalletError is returned when the wallet extension is absent, the user
// rejected a prompt, or the extension rejected a submission. The original
// extension message is preserved as the cause.
type WalletError struct {
	Wallet string
	Err    error
}

func (e *WalletError) Error() string {
	return fmt.Sprintf("wallet %s: %v", e.Wallet, e.Err)
}

func (e *WalletError) Unwrap() error {
	return e.Err
}

// NetworkOperationError is an RPC or transport failure, including ledger-side
// transaction failure codes, tagged with the attempted operation.
type NetworkOperationError struct {
	Op  string
	Err error
}

func (e *NetworkOperationError) Error() string {
	return fmt.Sprintf("network operation %s: %v", e.Op, e.Err)
}

func (e *NetworkOperationError) Unwrap() error {
	return e.Err
}

// UnsupportedOperationError is returned when an operation is not meaningful
// for the active chain or wallet combination.
type UnsupportedOperationError struct {
	Op         string
	Blockchain string
}

func (e *UnsupportedOperationError) Error() string {
	if e.Blockchain == "" {
		return fmt.Sprintf("operation %s is not supported", e.Op)
	}
	return fmt.Sprintf("operation %s is not supported on %s", e.Op, e.Blockchain)
}

// IssuanceStepError attributes a token-issuance failure to the step that
// produced it.
type IssuanceStepError struct {
	Step string
	Err  error
}

func (e *IssuanceStepError) Error() string {
	return fmt.Sprintf("issuance step %q: %v", e.Step, e.Err)
}

func (e *IssuanceStepError) Unwrap() error {
	return e.Err
}

// OperationError is the outermost wrapper applied at the SDK boundary. The
// cause is never discarded; it is rendered into the message and reachable via
// Unwrap for errors.Is/As.
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}
