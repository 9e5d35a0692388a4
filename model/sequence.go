package model

import (
	"fmt"
	"math"
	"regexp"
)

const PhoneSequenceType = "PHONE"

var sequenceToken = regexp.MustCompile(`^[A-Z0-9]{1,12}$`)

// ValidSequenceToken reports whether s can be used as a document type or period.
func ValidSequenceToken(s string) bool {
	return sequenceToken.MatchString(s)
}

// SequenceCapacity is the largest counter value that fits in digits decimal digits.
func SequenceCapacity(digits int) int64 {
	if digits >= 18 {
		return math.MaxInt64
	}
	return int64(math.Pow10(digits)) - 1
}

// FormatDocumentNumber renders INV-202403-00042 style identifiers.
func FormatDocumentNumber(prefix, period string, value int64, digits int) string {
	return fmt.Sprintf("%s-%s-%0*d", prefix, period, digits, value)
}

// FormatPhoneNumber renders the prefix followed by the zero padded counter.
func FormatPhoneNumber(prefix string, value int64, digits int) string {
	return fmt.Sprintf("%s%0*d", prefix, digits, value)
}

// SequenceValue is one number handed out by the sequence generator.
type SequenceValue struct {
	Type       string `json:"type"`
	Period     string `json:"period,omitempty"`
	Value      int64  `json:"value"`
	Identifier string `json:"identifier"`
	Attempts   int    `json:"attempts"`
}
