package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// CPFLength is the number of digits in a raw CPF
const CPFLength = 11

// ErrInvalidCPF is returned when a string does not hold a checksum-valid CPF
var ErrInvalidCPF = errors.New("CPF inválido")

// IsValidCPF reports whether input, after stripping every non-digit,
// is an 11-digit CPF whose two módulo 11 check digits match.
// Punctuation is ignored so masked input ("123.456.789-09") and raw input
// give the same answer.
func IsValidCPF(input string) bool {
	digits := StripNonDigits(input)
	if len(digits) != CPFLength {
		return false
	}
	// Repeated-digit numbers satisfy the checksum but are never issued.
	if allSameDigits(digits) {
		return false
	}
	if checkDigit(digits, 9) != int(digits[9]-'0') {
		return false
	}
	return checkDigit(digits, 10) == int(digits[10]-'0')
}

// FormatCPF renders an 11-digit raw CPF as AAA.BBB.CCC-DD.
// Anything that is not exactly 11 ASCII digits is returned unchanged.
// The checksum is not verified.
func FormatCPF(raw string) string {
	if len(raw) != CPFLength || !isDigits(raw) {
		return raw
	}
	return raw[0:3] + "." + raw[3:6] + "." + raw[6:9] + "-" + raw[9:11]
}

// StripNonDigits returns s with every byte outside '0'..'9' removed
func StripNonDigits(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			out = append(out, s[i])
		}
	}
	return string(out)
}

// checkDigit computes the módulo 11 check digit over the first n digits.
// Weights run from n+1 down to 2, so n=9 yields the first check digit
// and n=10 the second.
func checkDigit(digits string, n int) int {
	sum := 0
	for i := 0; i < n; i++ {
		sum += int(digits[i]-'0') * (n + 1 - i)
	}
	rem := (sum * 10) % 11
	if rem >= 10 {
		return 0
	}
	return rem
}

func allSameDigits(digits string) bool {
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// CPF is a checksum-valid CPF held in raw form.
// The zero value is the empty CPF, used for records that have none yet.
type CPF struct {
	raw string
}

// NewCPF strips punctuation from input and returns the CPF if it is valid
func NewCPF(input string) (CPF, error) {
	digits := StripNonDigits(input)
	if !IsValidCPF(digits) {
		return CPF{}, ErrInvalidCPF
	}
	return CPF{raw: digits}, nil
}

// String returns the raw 11-digit form
func (c CPF) String() string {
	return c.raw
}

// Formatted returns the punctuated display form
func (c CPF) Formatted() string {
	return FormatCPF(c.raw)
}

// IsEmpty returns true for the zero CPF
func (c CPF) IsEmpty() bool {
	return c.raw == ""
}

// Equals compares two CPFs by their digits
func (c CPF) Equals(other CPF) bool {
	return c.raw == other.raw
}

// Value implements driver.Valuer, storing the raw form
func (c CPF) Value() (driver.Value, error) {
	return c.raw, nil
}

// Scan implements sql.Scanner. Empty and NULL columns scan to the zero CPF.
func (c *CPF) Scan(value interface{}) error {
	var s string
	switch v := value.(type) {
	case nil:
		c.raw = ""
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into CPF", value)
	}
	if s == "" {
		c.raw = ""
		return nil
	}
	parsed, err := NewCPF(s)
	if err != nil {
		return fmt.Errorf("scan CPF %q: %w", s, err)
	}
	*c = parsed
	return nil
}

// MarshalJSON encodes the raw form
func (c CPF) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.raw)
}

// UnmarshalJSON accepts raw or formatted input
func (c *CPF) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		c.raw = ""
		return nil
	}
	parsed, err := NewCPF(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
