// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package prov

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
)

// ErrMissingParameter is returned before any provider call when the request
// lacks vm_name, resource_group_name or location.
var ErrMissingParameter = errors.New("missing parameter")

// ProvisioningError reports the chain step that failed. Steps before it stay
// applied unless rollback is enabled.
type ProvisioningError struct {
	Kind Kind
	Name string
	Err  error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("failed to create %s %s: %v", e.Kind.Label(), e.Name, e.Err)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

// ErrorCode is a coarse classification of provider errors. It drives the retry
// allow-list and delete idempotence; it never changes the HTTP status.
type ErrorCode string

const (
	ErrorCodeNotFound                ErrorCode = "NotFound"
	ErrorCodeAccessDenied            ErrorCode = "AccessDenied"
	ErrorCodeInvalidCredentials      ErrorCode = "InvalidCredentials"
	ErrorCodeResourceConflict        ErrorCode = "ResourceConflict"
	ErrorCodeThrottling              ErrorCode = "Throttling"
	ErrorCodeServiceInternalError    ErrorCode = "ServiceInternalError"
	ErrorCodeServiceTimeout          ErrorCode = "ServiceTimeout"
	ErrorCodeServiceLimitExceeded    ErrorCode = "ServiceLimitExceeded"
	ErrorCodeInvalidRequest          ErrorCode = "InvalidRequest"
	ErrorCodeNetworkFailure          ErrorCode = "NetworkFailure"
	ErrorCodeGeneralServiceException ErrorCode = "GeneralServiceException"
)

// Transient reports whether a step failing with this code may be retried.
func (c ErrorCode) Transient() bool {
	switch c {
	case ErrorCodeThrottling, ErrorCodeServiceInternalError, ErrorCodeServiceTimeout, ErrorCodeNetworkFailure:
		return true
	}
	return false
}

// ClassifyError maps an error from the Azure SDK to an ErrorCode. Structured
// response errors are classified by ARM error code and HTTP status; anything
// else falls back to message patterns.
func ClassifyError(err error) ErrorCode {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCodeServiceTimeout
	}

	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		if code := classifyMessage(respErr.ErrorCode); code != ErrorCodeGeneralServiceException {
			return code
		}
		return classifyStatus(respErr.StatusCode)
	}

	return classifyMessage(err.Error())
}

func classifyStatus(status int) ErrorCode {
	switch {
	case status == http.StatusNotFound:
		return ErrorCodeNotFound
	case status == http.StatusForbidden:
		return ErrorCodeAccessDenied
	case status == http.StatusUnauthorized:
		return ErrorCodeInvalidCredentials
	case status == http.StatusConflict:
		return ErrorCodeResourceConflict
	case status == http.StatusTooManyRequests:
		return ErrorCodeThrottling
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return ErrorCodeServiceTimeout
	case status >= http.StatusInternalServerError:
		return ErrorCodeServiceInternalError
	case status == http.StatusBadRequest:
		return ErrorCodeInvalidRequest
	default:
		return ErrorCodeGeneralServiceException
	}
}

func classifyMessage(errStr string) ErrorCode {
	switch {
	case errStr == "":
		return ErrorCodeGeneralServiceException

	case strings.Contains(errStr, "ResourceGroupNotFound"),
		strings.Contains(errStr, "ResourceNotFound"),
		strings.Contains(errStr, "NotFound"):
		return ErrorCodeNotFound

	case strings.Contains(errStr, "AuthorizationFailed"),
		strings.Contains(errStr, "Forbidden"):
		return ErrorCodeAccessDenied

	case strings.Contains(errStr, "Unauthorized"),
		strings.Contains(errStr, "AuthenticationFailed"),
		strings.Contains(errStr, "InvalidAuthenticationToken"):
		return ErrorCodeInvalidCredentials

	case strings.Contains(errStr, "Conflict"),
		strings.Contains(errStr, "ResourceExists"),
		strings.Contains(errStr, "AnotherOperationInProgress"):
		return ErrorCodeResourceConflict

	case strings.Contains(errStr, "TooManyRequests"),
		strings.Contains(errStr, "Throttling"),
		strings.Contains(errStr, "Throttled"):
		return ErrorCodeThrottling

	case strings.Contains(errStr, "InternalServerError"),
		strings.Contains(errStr, "ServiceUnavailable"):
		return ErrorCodeServiceInternalError

	case strings.Contains(errStr, "Timeout"),
		strings.Contains(errStr, "RequestTimeout"),
		strings.Contains(errStr, "GatewayTimeout"):
		return ErrorCodeServiceTimeout

	case strings.Contains(errStr, "QuotaExceeded"),
		strings.Contains(errStr, "LimitExceeded"):
		return ErrorCodeServiceLimitExceeded

	case strings.Contains(errStr, "InvalidParameter"),
		strings.Contains(errStr, "InvalidRequest"),
		strings.Contains(errStr, "BadRequest"):
		return ErrorCodeInvalidRequest

	case strings.Contains(errStr, "connection refused"),
		strings.Contains(errStr, "connection reset"),
		strings.Contains(errStr, "no such host"),
		strings.Contains(errStr, "dial tcp"):
		return ErrorCodeNetworkFailure

	default:
		return ErrorCodeGeneralServiceException
	}
}
