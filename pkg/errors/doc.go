// Package errors provides custom error types for garmin-proxy.
//
// Each error type includes a constructor, Error() method, and a type-checking
// helper using errors.As for proper error unwrapping.
//
// # Error Types Overview
//
//	┌──────────────────────────────┬────────┬─────────────────────────────────────┐
//	│ Error Type                   │ Kind   │ Description                         │
//	├──────────────────────────────┼────────┼─────────────────────────────────────┤
//	│ MissingCredentialsError      │ fatal  │ No token source found at startup    │
//	│ InvalidCredentialFormatError │ fatal  │ Token document is not valid JSON    │
//	│ PermissionRestrictionWarning │ log    │ chmod 0600 failed on a token file   │
//	│ StaleArtifactRelocated       │ log    │ Leftover file moved aside           │
//	│ InvalidParameterError        │ 400    │ Malformed request parameter         │
//	│ VendorUnauthorizedError      │ 502    │ Token rejected or expired           │
//	│ VendorError                  │ 502    │ Non-2xx answer from the vendor API  │
//	└──────────────────────────────┴────────┴─────────────────────────────────────┘
//
// # Startup errors
//
// MissingCredentialsError and InvalidCredentialFormatError are returned by the
// token bootstrap resolver (pkg/credentials). Both abort the run command before
// the HTTP listener is opened. InvalidCredentialFormatError always carries the
// path of the offending file so the operator knows which input to fix:
//
//	target, err := resolver.Resolve()
//	if errors.IsInvalidCredentialFormatError(err) {
//	    // err.Error() == "invalid credential format in /data/garmintokens.json (single-file shape): ..."
//	}
//
// PermissionRestrictionWarning and StaleArtifactRelocated are never returned as
// fatal errors. The resolver logs them and records them in the resolved target's
// notices so the tokens check command can print them.
//
// # Request errors
//
// Handlers map request-time errors to HTTP status codes:
//
//	switch {
//	case errors.IsInvalidParameterError(err):
//	    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
//	case errors.IsVendorUnauthorizedError(err), errors.IsVendorError(err):
//	    c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
//	default:
//	    c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
//	}
//
// # Type Checking Pattern
//
// All error types provide Is* helper functions that use errors.As
// for proper error chain unwrapping:
//
//	wrapped := fmt.Errorf("bootstrap failed: %w", errors.NewMissingCredentialsError(nil, nil))
//	errors.IsMissingCredentialsError(wrapped) // returns true
package errors
