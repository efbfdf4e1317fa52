package errors

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// MissingCredentialsError indicates that no source of vendor credentials was found.
type MissingCredentialsError struct {
	CheckedEnv   []string
	CheckedPaths []string
}

func NewMissingCredentialsError(checkedEnv, checkedPaths []string) *MissingCredentialsError {
	return &MissingCredentialsError{CheckedEnv: checkedEnv, CheckedPaths: checkedPaths}
}

func (e *MissingCredentialsError) Error() string {
	return fmt.Sprintf("no credentials found: set OAUTH1_TOKEN_JSON + OAUTH2_TOKEN_JSON (preferred), GARMINTOKENS_JSON or GARMINTOKENS_B64 (checked env: %s; checked paths: %s)",
		strings.Join(e.CheckedEnv, ", "), strings.Join(e.CheckedPaths, ", "))
}

// IsMissingCredentialsError checks if the error is a MissingCredentialsError.
func IsMissingCredentialsError(err error) bool {
	var e *MissingCredentialsError
	return errors.As(err, &e)
}

// InvalidCredentialFormatError indicates a credential document is not valid JSON.
// Path names the offending file, or the environment variable when the content
// could not be decoded before being written.
type InvalidCredentialFormatError struct {
	Path  string
	Shape string
	Err   error
}

func NewInvalidCredentialFormatError(path, shape string, err error) *InvalidCredentialFormatError {
	return &InvalidCredentialFormatError{Path: path, Shape: shape, Err: err}
}

func (e *InvalidCredentialFormatError) Error() string {
	return fmt.Sprintf("invalid credential format in %s (%s shape): %v", e.Path, e.Shape, e.Err)
}

func (e *InvalidCredentialFormatError) Unwrap() error {
	return e.Err
}

func IsInvalidCredentialFormatError(err error) bool {
	var e *InvalidCredentialFormatError
	return errors.As(err, &e)
}

// PermissionRestrictionWarning reports a failure to restrict a credential file to
// owner read/write. It is logged and never returned as a fatal error.
type PermissionRestrictionWarning struct {
	Path string
	Mode os.FileMode
	Err  error
}

func NewPermissionRestrictionWarning(path string, mode os.FileMode, err error) *PermissionRestrictionWarning {
	return &PermissionRestrictionWarning{Path: path, Mode: mode, Err: err}
}

func (e *PermissionRestrictionWarning) Error() string {
	return fmt.Sprintf("failed to restrict permissions of %s to %#o: %v", e.Path, e.Mode, e.Err)
}

func (e *PermissionRestrictionWarning) Unwrap() error {
	return e.Err
}

func IsPermissionRestrictionWarning(err error) bool {
	var e *PermissionRestrictionWarning
	return errors.As(err, &e)
}

// StaleArtifactRelocated reports that a leftover file blocking the token directory
// was moved aside.
type StaleArtifactRelocated struct {
	From string
	To   string
}

func NewStaleArtifactRelocated(from, to string) *StaleArtifactRelocated {
	return &StaleArtifactRelocated{From: from, To: to}
}

func (e *StaleArtifactRelocated) Error() string {
	return fmt.Sprintf("stale file %s relocated to %s", e.From, e.To)
}

func IsStaleArtifactRelocated(err error) bool {
	var e *StaleArtifactRelocated
	return errors.As(err, &e)
}

// VendorError indicates the vendor API answered with a non-success status.
type VendorError struct {
	StatusCode int
	Status     string
	Endpoint   string
}

func NewVendorError(endpoint string, statusCode int, status string) *VendorError {
	return &VendorError{Endpoint: endpoint, StatusCode: statusCode, Status: status}
}

func (e *VendorError) Error() string {
	return fmt.Sprintf("vendor request %s failed: %s", e.Endpoint, e.Status)
}

func IsVendorError(err error) bool {
	var e *VendorError
	return errors.As(err, &e)
}

// VendorUnauthorizedError indicates the stored session token was rejected or has expired.
type VendorUnauthorizedError struct {
	Reason string
}

func NewVendorUnauthorizedError(reason string) *VendorUnauthorizedError {
	return &VendorUnauthorizedError{Reason: reason}
}

func (e *VendorUnauthorizedError) Error() string {
	return fmt.Sprintf("vendor session not authorized: %s; refresh OAUTH1_TOKEN_JSON/OAUTH2_TOKEN_JSON and restart", e.Reason)
}

func IsVendorUnauthorizedError(err error) bool {
	var e *VendorUnauthorizedError
	return errors.As(err, &e)
}

// InvalidParameterError indicates a malformed request parameter.
type InvalidParameterError struct {
	Name   string
	Reason string
}

func NewInvalidParameterError(name, reason string) *InvalidParameterError {
	return &InvalidParameterError{Name: name, Reason: reason}
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Name, e.Reason)
}

func IsInvalidParameterError(err error) bool {
	var e *InvalidParameterError
	return errors.As(err, &e)
}
