package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_004"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_005"
	ErrCodeTimeout            ErrorCode = "COMMON_006"
	ErrCodeValidation         ErrorCode = "COMMON_007"
	ErrCodeSerialization      ErrorCode = "COMMON_008"
	ErrCodeCacheError         ErrorCode = "COMMON_009"
	ErrCodeExternalService    ErrorCode = "COMMON_010"
)

// Short aliases used throughout the codebase.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeRateLimit    = ErrCodeTooManyRequests
	CodeCacheError   = ErrCodeCacheError
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("UNKNOWN")
)

// Alignment Error Codes — mapping detected quantities onto the token stream.
const (
	// ErrCodeAlignmentGap: a detected quantity's character offsets do not land
	// on a token boundary; the quantity is dropped and processing continues.
	ErrCodeAlignmentGap      ErrorCode = "ALN_001"
	ErrCodeUnknownToken      ErrorCode = "ALN_002"
	ErrCodeQuantifiedNoToken ErrorCode = "ALN_003"
)

// Annotator / Parse Error Codes.
const (
	// ErrCodeParseFailure: the annotator's dependency output is incomplete for
	// a sentence (missing gloss text); the whole sentence is skipped.
	ErrCodeParseFailure    ErrorCode = "PRS_001"
	ErrCodeAnnotatorFailed ErrorCode = "PRS_002"
	ErrCodeEmptyInput      ErrorCode = "PRS_003"
	ErrCodeAnnotatorDecode ErrorCode = "PRS_004"
)

// Quantity Detector Error Codes.
const (
	// ErrCodeUnsupportedQuantityKind: the detector returned a quantity type the
	// engine has no handling for; that single quantity is dropped.
	ErrCodeUnsupportedQuantityKind ErrorCode = "QTY_001"
	ErrCodeDetectorFailed          ErrorCode = "QTY_002"
	ErrCodeDetectorDecode          ErrorCode = "QTY_003"
	ErrCodeNoParsedValue           ErrorCode = "QTY_004"
)

// Pattern Configuration Error Codes — fatal at load time.
const (
	ErrCodeInvalidPatternConfig ErrorCode = "PTN_001"
	ErrCodeUnknownPredicate     ErrorCode = "PTN_002"
	ErrCodePatternFileMissing   ErrorCode = "PTN_003"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,

	ErrCodeAlignmentGap:      http.StatusUnprocessableEntity,
	ErrCodeUnknownToken:      http.StatusInternalServerError,
	ErrCodeQuantifiedNoToken: http.StatusUnprocessableEntity,

	ErrCodeParseFailure:    http.StatusUnprocessableEntity,
	ErrCodeAnnotatorFailed: http.StatusBadGateway,
	ErrCodeEmptyInput:      http.StatusBadRequest,
	ErrCodeAnnotatorDecode: http.StatusBadGateway,

	ErrCodeUnsupportedQuantityKind: http.StatusUnprocessableEntity,
	ErrCodeDetectorFailed:          http.StatusBadGateway,
	ErrCodeDetectorDecode:          http.StatusBadGateway,
	ErrCodeNoParsedValue:           http.StatusUnprocessableEntity,

	ErrCodeInvalidPatternConfig: http.StatusInternalServerError,
	ErrCodeUnknownPredicate:     http.StatusInternalServerError,
	ErrCodePatternFileMissing:   http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",

	ErrCodeAlignmentGap:      "quantity offsets do not align with token boundaries",
	ErrCodeUnknownToken:      "token index not present in token store",
	ErrCodeQuantifiedNoToken: "quantified entity has no resolvable token index",

	ErrCodeParseFailure:    "dependency parse is incomplete for sentence",
	ErrCodeAnnotatorFailed: "annotation service request failed",
	ErrCodeEmptyInput:      "input text is empty or too short",
	ErrCodeAnnotatorDecode: "failed to decode annotation service response",

	ErrCodeUnsupportedQuantityKind: "unsupported quantity type",
	ErrCodeDetectorFailed:          "quantity detection service request failed",
	ErrCodeDetectorDecode:          "failed to decode quantity detection response",
	ErrCodeNoParsedValue:           "measurement has neither parsed nor raw value",

	ErrCodeInvalidPatternConfig: "dependency pattern configuration is malformed",
	ErrCodeUnknownPredicate:     "unknown POS predicate kind in pattern configuration",
	ErrCodePatternFileMissing:   "dependency pattern file not found",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
