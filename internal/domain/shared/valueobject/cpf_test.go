package valueobject

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidCPF(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"empty string", "", false},
		{"fewer than 11 digits", "1234567890", false},
		{"more than 11 digits", "123456789090", false},
		{"letters only", "abcdefghijk", false},
		{"valid raw", "12345678909", true},
		{"valid formatted", "123.456.789-09", true},
		{"valid with spaces", " 123 456 789 09 ", true},
		{"valid with leading zero", "01234567890", true},
		{"another valid", "529.982.247-25", true},
		{"wrong first check digit", "12345678919", false},
		{"wrong second check digit", "12345678908", false},
		{"digits mixed with letters still counted", "123a456b789c09", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidCPF(tt.input))
		})
	}
}

func TestIsValidCPF_RejectsRepeatedDigits(t *testing.T) {
	for d := '0'; d <= '9'; d++ {
		input := strings.Repeat(string(d), CPFLength)
		t.Run(input, func(t *testing.T) {
			assert.False(t, IsValidCPF(input))
		})
	}
}

func TestAllSameDigits(t *testing.T) {
	assert.True(t, allSameDigits("00000000000"))
	assert.True(t, allSameDigits("99999999999"))
	assert.False(t, allSameDigits("00000000001"))
	assert.False(t, allSameDigits("12345678909"))
}

func TestIsValidCPF_RepeatedDigitsPassChecksum(t *testing.T) {
	// The guard matters: these numbers are algebraically consistent.
	for d := byte('0'); d <= '9'; d++ {
		digits := strings.Repeat(string(d), CPFLength)
		assert.Equal(t, int(d-'0'), checkDigit(digits, 9), digits)
		assert.Equal(t, int(d-'0'), checkDigit(digits, 10), digits)
	}
}

func TestCheckDigit(t *testing.T) {
	assert.Equal(t, 0, checkDigit("123456789", 9))
	assert.Equal(t, 9, checkDigit("1234567890", 10))
	assert.Equal(t, 2, checkDigit("529982247", 9))
	assert.Equal(t, 5, checkDigit("5299822472", 10))
}

func TestIsValidCPF_DetectsCheckDigitCorruption(t *testing.T) {
	valid := "12345678909"
	for _, pos := range []int{9, 10} {
		for d := byte('0'); d <= '9'; d++ {
			if d == valid[pos] {
				continue
			}
			corrupted := []byte(valid)
			corrupted[pos] = d
			assert.False(t, IsValidCPF(string(corrupted)), string(corrupted))
		}
	}
}

func TestIsValidCPF_PunctuationInvariant(t *testing.T) {
	for _, raw := range []string{"12345678909", "12345678900", "52998224725", "11111111111", "123"} {
		assert.Equal(t, IsValidCPF(raw), IsValidCPF(FormatCPF(raw)), raw)
	}
}

func TestFormatCPF(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"valid raw", "12345678909", "123.456.789-09"},
		{"shape-valid but checksum-invalid", "12345678900", "123.456.789-00"},
		{"leading zeros kept", "00123456797", "001.234.567-97"},
		{"too short passes through", "123", "123"},
		{"empty passes through", "", ""},
		{"already formatted passes through", "123.456.789-09", "123.456.789-09"},
		{"non-digit of right length passes through", "1234567890a", "1234567890a"},
		{"too long passes through", "123456789090", "123456789090"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCPF(tt.input))
		})
	}
}

func TestFormatCPF_RoundTrip(t *testing.T) {
	for _, raw := range []string{"12345678909", "01234567890", "52998224725", "00000000000"} {
		assert.Equal(t, raw, StripNonDigits(FormatCPF(raw)))
	}
}

func TestFormatCPF_SecondCallPassesThrough(t *testing.T) {
	once := FormatCPF("12345678909")
	assert.Equal(t, once, FormatCPF(once))
}

func TestStripNonDigits(t *testing.T) {
	assert.Equal(t, "", StripNonDigits(""))
	assert.Equal(t, "12345678909", StripNonDigits("123.456.789-09"))
	assert.Equal(t, "42", StripNonDigits("a4-b2 "))
	assert.Equal(t, "", StripNonDigits("٣٤٥"))
}

func TestNewCPF(t *testing.T) {
	t.Run("accepts formatted input", func(t *testing.T) {
		cpf, err := NewCPF("123.456.789-09")
		require.NoError(t, err)
		assert.Equal(t, "12345678909", cpf.String())
		assert.Equal(t, "123.456.789-09", cpf.Formatted())
		assert.False(t, cpf.IsEmpty())
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		cpf, err := NewCPF("111.111.111-11")
		assert.ErrorIs(t, err, ErrInvalidCPF)
		assert.True(t, cpf.IsEmpty())
	})

	t.Run("equality ignores input formatting", func(t *testing.T) {
		a, err := NewCPF("12345678909")
		require.NoError(t, err)
		b, err := NewCPF("123.456.789-09")
		require.NoError(t, err)
		assert.True(t, a.Equals(b))
	})
}

func TestCPF_Scan(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    string
		wantErr bool
	}{
		{"nil", nil, "", false},
		{"empty string", "", "", false},
		{"string", "12345678909", "12345678909", false},
		{"bytes", []byte("52998224725"), "52998224725", false},
		{"invalid", "12345678900", "", true},
		{"wrong type", 42, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cpf CPF
			err := cpf.Scan(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cpf.String())
		})
	}
}

func TestCPF_Value(t *testing.T) {
	cpf, err := NewCPF("12345678909")
	require.NoError(t, err)

	v, err := cpf.Value()
	require.NoError(t, err)
	assert.Equal(t, "12345678909", v)
}

func TestCPF_JSON(t *testing.T) {
	var payload struct {
		CPF CPF `json:"cpf"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"cpf":"123.456.789-09"}`), &payload))
	assert.Equal(t, "12345678909", payload.CPF.String())

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"cpf":"12345678909"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"cpf":"000.000.000-00"}`), &payload))
}
