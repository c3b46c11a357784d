package usage

import "errors"

var (
	ErrProjectQuotaExceeded = errors.New("usage.errors.project_quota_exceeded")
	ErrTokenQuotaExceeded   = errors.New("usage.errors.token_quota_exceeded")
	ErrInvalidTokenUsage    = errors.New("usage.errors.invalid_token_usage")
	ErrMissingUserID        = errors.New("usage.errors.missing_user_id")
	ErrFailedToCountUsage   = errors.New("usage.errors.failed_to_count_usage")
	ErrFailedToRecordUsage  = errors.New("usage.errors.failed_to_record_usage")
)
