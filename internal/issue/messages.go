package issue

// messages.go maps findings and technical errors to user-friendly messages
// with codes for support reference.
//
// # Import Findings (IMP001-IMP099)
//
//	IMP001 - Detection unavailable: source system could not be identified
//	IMP002 - Mapping conflict: two columns map to the same field
//	IMP003 - Transformation failure: a value could not be transformed
//
// # Validation Findings (VAL001-VAL099)
//
//	VAL001 - Missing required field
//	VAL002 - Type mismatch
//	VAL003 - Value out of range
//	VAL004 - Arithmetic mismatch between related fields
//	VAL005 - Business rule violation
//	VAL006 - Duplicate record
//	VAL007 - Inconsistent field
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Empty file
//	FILE002 - Invalid CSV
//	FILE003 - Invalid spreadsheet
//	FILE004 - Unsupported file type
//
// # Default (ERR000)
//
// Technical errors are matched case-insensitively with strings.Contains;
// the first matching pattern wins.

import (
	"errors"
	"strings"
)

// UserMessage provides user-friendly information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Code for support reference
}

var kindMessages = map[Kind]UserMessage{
	DetectionUnavailable: {
		Message: "The source system could not be identified",
		Action:  "Choose the import type and map columns manually",
		Code:    "IMP001",
	},
	MappingConflict: {
		Message: "Two columns map to the same field",
		Action:  "Pick which column should feed this field",
		Code:    "IMP002",
	},
	TransformationFailure: {
		Message: "A value could not be transformed and was kept as-is",
		Action:  "Review the value in the source file",
		Code:    "IMP003",
	},
	MissingRequiredField: {
		Message: "A required field is missing or empty",
		Action:  "Map a column to this field or fill in the missing values",
		Code:    "VAL001",
	},
	TypeMismatch: {
		Message: "A value does not match the expected type",
		Action:  "Check number, date and email formats in this column",
		Code:    "VAL002",
	},
	ValueOutOfRange: {
		Message: "A value is outside the plausible range",
		Action:  "Confirm the value is correct",
		Code:    "VAL003",
	},
	ArithmeticMismatch: {
		Message: "Related amounts do not add up",
		Action:  "Check unit price, quantity and total for this row",
		Code:    "VAL004",
	},
	BusinessRuleViolation: {
		Message: "A business rule was violated",
		Action:  "Review the flagged rows against your pricing and stock policies",
		Code:    "VAL005",
	},
	DuplicateRecord: {
		Message: "The same record appears more than once",
		Action:  "Remove or merge the duplicate rows before importing",
		Code:    "VAL006",
	},
	InconsistentField: {
		Message: "A column mixes different kinds of values",
		Action:  "Review the listed rows for stray text or formatting",
		Code:    "VAL007",
	},
}

// Describe returns the user-facing message for a finding kind.
func Describe(k Kind) UserMessage {
	if msg, ok := kindMessages[k]; ok {
		return msg
	}
	return defaultMessage
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// More specific patterns come before general ones.
var errorPatterns = []errorPattern{
	{
		pattern: "empty sample",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Upload a file with a header row and data rows",
			Code:    "FILE001",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Upload a file with a header row and data rows",
			Code:    "FILE001",
		},
	},
	{
		pattern: "parse csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure file is comma-separated with consistent columns",
			Code:    "FILE002",
		},
	},
	{
		pattern: "open workbook",
		msg: UserMessage{
			Message: "File is not a valid spreadsheet",
			Action:  "Re-export the file as .xlsx or .csv",
			Code:    "FILE003",
		},
	},
	{
		pattern: "unsupported file",
		msg: UserMessage{
			Message: "This file type is not supported",
			Action:  "Upload a .csv or .xlsx export",
			Code:    "FILE004",
		},
	},
	{
		pattern: "unknown import type",
		msg: UserMessage{
			Message: "The import type is not configured",
			Action:  "Use one of: menu, inventory, sales, recipes, customers",
			Code:    "IMP004",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The import was stopped before it finished",
			Action:  "Start the import again when ready",
			Code:    "IMP005",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns an empty UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	if errors.Is(err, ErrEmptySample) {
		return errorPatterns[0].msg
	}

	errStr := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(errStr, p.pattern) {
			return p.msg
		}
	}

	return defaultMessage
}
