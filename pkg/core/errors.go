package core

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// Orchestration errors
var (
	ErrNoOrdersInScope  = errors.New("aps: no orders in job scope")
	ErrOrdersNotFound   = errors.New("aps: scoped order ids do not resolve to existing orders")
	ErrInvalidJobState  = errors.New("aps: operation not permitted in current job state")
	ErrJobNotFound      = errors.New("aps: schedule job not found")
	ErrJobHasPublished  = errors.New("aps: job has a published plan and cannot be deleted")
)

// Plan lifecycle errors
var (
	ErrPlanNotFound              = errors.New("aps: schedule plan not found")
	ErrInvalidPlanState          = errors.New("aps: operation not permitted in current plan state")
	ErrFatalConflictsPresent     = errors.New("aps: plan has fatal conflicts and cannot be published")
	ErrUnsupportedAdjustmentType = errors.New("aps: unsupported adjustment type")
	ErrBucketNotFound            = errors.New("aps: plan bucket not found")
)

// Engine gateway errors
var (
	ErrEngineJobNotFound = errors.New("aps: engine job handle unknown or expired")
	ErrEngineJobNotReady = errors.New("aps: engine job has not completed yet")
)

// MaxErrorTextLength is the maximum length of error text stored on a job.
const MaxErrorTextLength = 4096

// SanitizeErrorText truncates and cleans an error message before it is
// persisted on a failed job.
func SanitizeErrorText(msg string) string {
	msg = strings.ToValidUTF8(msg, "")
	msg = strings.ReplaceAll(msg, "\x00", "")
	if len(msg) > MaxErrorTextLength {
		cut := MaxErrorTextLength
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	return msg
}
