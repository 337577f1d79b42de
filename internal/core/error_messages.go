package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// UserMessage is what a person sees when something fails.
type UserMessage struct {
	Message string // what happened
	Action  string // what to do about it
	Code    string // support reference, also logged
}

func userMessage(code, message, action string) UserMessage {
	return UserMessage{Message: message, Action: action, Code: code}
}

var (
	msgDuplicate   = userMessage("DB001", "A record with this ID already exists", "Refresh the grid and review the affected rows")
	msgUnique      = userMessage("DB002", "This value must be unique but already exists", "Pick a different value")
	msgReferenced  = userMessage("DB003", "Other records still reference the selected rows", "Remove the dependent records first")
	msgUnreachable = userMessage("DB004", "Unable to connect to database", "Please try again in a few moments")
	msgTimedOut    = userMessage("DB006", "Operation timed out", "Narrow the filters or try again later")
	msgDeadlock    = userMessage("DB007", "Database was busy with conflicting operations", "Please try again")
)

// sqlStateMessages maps PostgreSQL SQLSTATE codes. Checked before the text
// patterns because the server's wording varies by version and locale.
var sqlStateMessages = map[string]UserMessage{
	"23505": msgUnique,
	"23503": msgReferenced,
	"40P01": msgDeadlock,
	"57014": msgTimedOut,
}

// errorPatterns are matched case-insensitively against the error text. The
// first match wins, so specific patterns precede general ones: "invalid
// date" must beat "invalid value for column", and "duplicate key" must beat
// "unique constraint".
var errorPatterns = []struct {
	pattern string
	msg     UserMessage
}{
	{"duplicate key", msgDuplicate},
	{"unique constraint", msgUnique},
	{"violates unique", userMessage("DB002", "A duplicate value was found", "Pick a different value")},
	{"foreign key constraint", msgReferenced},
	{"violates foreign key", msgReferenced},
	{"connection refused", msgUnreachable},
	{"connection reset", userMessage("DB005", "Database connection was interrupted", "Please try again")},
	{"timeout", msgTimedOut},
	{"deadlock", msgDeadlock},

	{"invalid date", userMessage("VAL001", "Invalid date format detected", "Use YYYY-MM-DD")},
	{"invalid number", userMessage("VAL002", "Invalid number format detected", "Use a plain decimal number without currency symbols")},
	{"invalid value for column", userMessage("REV001", "That value is not allowed for this column", "Pick one of the listed values")},

	{"faceted values not ready", userMessage("GRID001", "Filter counts are not available yet", "Reload the page")},
	{"unknown feature", userMessage("FEAT001", "Unknown console page", "Pick a page from the dashboard")},

	{"superseded", userMessage("FETCH001", "A newer request replaced this one", "No action needed")},
	{"context canceled", userMessage("FETCH002", "Request was cancelled", "Please try again")},
	{"context deadline exceeded", userMessage("FETCH003", "Request timed out", "Narrow the filters or try again later")},

	{"bulk action in progress", userMessage("BULK001", "Another bulk action is in progress", "Wait for it to finish")},
	{"no rows selected", userMessage("BULK002", "No rows are selected", "Select one or more rows first")},
	{"no action awaiting confirmation", userMessage("BULK003", "There is nothing to confirm", "Start the action again")},
	{"unknown bulk action", userMessage("BULK004", "This action is not available here", "Reload the page")},
	{"too many bulk actions", userMessage("BULK005", "System is busy processing other bulk actions", "Please wait a moment and try again")},
	{"bulk action panicked", userMessage("BULK006", "The action stopped unexpectedly", "Refresh the grid and check which rows changed")},

	{"rate limit", userMessage("RATE001", "Too many requests", "Please wait a moment before trying again")},
}

// defaultMessage (ERR000) means no rule matched; the logged error has the
// detail.
var defaultMessage = userMessage("ERR000", "An unexpected error occurred", "Please try again or contact support")

// MapError converts err to the message shown to users. An error that
// already carries a UserMessage keeps it; PostgreSQL errors are mapped by
// SQLSTATE; everything else by errorPatterns, falling back to ERR000.
//
//	MapError(grid.ErrBulkBusy).Code == "BULK001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var ue *UserError
	if errors.As(err, &ue) {
		return ue.User
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if msg, ok := sqlStateMessages[pgErr.Code]; ok {
			return msg
		}
		if strings.HasPrefix(pgErr.Code, "08") {
			return msgUnreachable
		}
	}

	text := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(text, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	return err != nil && MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error, kept for logs and errors.Is, with the
// message shown for it. Error returns the user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string { return e.User.Message }

func (e *UserError) Unwrap() error { return e.Technical }

// NewUserError maps err. It returns nil for a nil err.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{Technical: err, User: MapError(err)}
}
