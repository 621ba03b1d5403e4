package scan

import (
	"fmt"
	"strings"
)

// ProviderError marks a single provider's failure (network, auth, quota,
// malformed payload). It is absorbed by the orchestrator and recorded in
// the outcome's failure list; one flaky provider never aborts a scan.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// AllProvidersFailedError is terminal for one scan attempt: every
// concurrent provider call failed and so did the fallback retry. The
// caller gets this instead of an empty result so a dead scan is never
// mistaken for zero mentions.
type AllProvidersFailedError struct {
	Failures []string
}

func (e *AllProvidersFailedError) Error() string {
	return fmt.Sprintf("all providers failed (%s): no visibility data obtainable this scan", strings.Join(e.Failures, ", "))
}

// InvalidInputError rejects a scan request before any provider call.
type InvalidInputError struct {
	Field string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid scan input: missing %s", e.Field)
}
