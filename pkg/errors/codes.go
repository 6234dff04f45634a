package errors

// ErrorCode is the typed string code carried by every AppError.  Codes are
// grouped by subsystem prefix so that dashboards and alert rules can slice
// failures without parsing messages.
type ErrorCode string

// String returns the raw code value.
func (c ErrorCode) String() string {
	return string(c)
}

// ─────────────────────────────────────────────────────────────────────────────
// Common codes (COMMON_*)
// ─────────────────────────────────────────────────────────────────────────────

const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeTimeout            ErrorCode = "COMMON_005"
	ErrCodeValidation         ErrorCode = "COMMON_006"
	ErrCodeSerialization      ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeExternalService    ErrorCode = "COMMON_009"
	ErrCodeUnknown            ErrorCode = "COMMON_000"
	CodeOK                    ErrorCode = ""
)

// Aliases kept for call-site readability.
const (
	CodeUnknown      = ErrCodeUnknown
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeTimeout      = ErrCodeTimeout
)

// ─────────────────────────────────────────────────────────────────────────────
// Risk-pipeline codes (RISK_*)
// ─────────────────────────────────────────────────────────────────────────────

const (
	ErrCodeCycleTimeout     ErrorCode = "RISK_001"
	ErrCodeEngineClosed     ErrorCode = "RISK_002"
	ErrCodeDispatcherClosed ErrorCode = "RISK_003"
	ErrCodeEventInvalid     ErrorCode = "RISK_004"
	ErrCodeAllSourcesFailed ErrorCode = "RISK_005"
)

// ─────────────────────────────────────────────────────────────────────────────
// Signal-fetcher codes (FETCH_*)
// ─────────────────────────────────────────────────────────────────────────────

const (
	ErrCodeFetchFailed      ErrorCode = "FETCH_001"
	ErrCodeFetchTimeout     ErrorCode = "FETCH_002"
	ErrCodeFetchBadResponse ErrorCode = "FETCH_003"
	ErrCodeCorpusLoadFailed ErrorCode = "FETCH_004"
	ErrCodeFeedParseFailed  ErrorCode = "FETCH_005"
)

// ─────────────────────────────────────────────────────────────────────────────
// Validator codes (VAL_*)
// ─────────────────────────────────────────────────────────────────────────────

const (
	ErrCodeValidatorCallFailed  ErrorCode = "VAL_001"
	ErrCodeValidatorBadResponse ErrorCode = "VAL_002"
	ErrCodeValidatorRateLimited ErrorCode = "VAL_003"
)

// ─────────────────────────────────────────────────────────────────────────────
// Alert-sink codes (SINK_*)
// ─────────────────────────────────────────────────────────────────────────────

const (
	ErrCodeSinkWriteFailed ErrorCode = "SINK_001"
	ErrCodeSinkClosed      ErrorCode = "SINK_002"
)

//Personal.AI order the ending
