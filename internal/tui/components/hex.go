package components

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Hex renders data as space separated upper case pairs.
func Hex(data []byte) string {
	return strings.ToUpper(fmt.Sprintf("% x", data))
}

// Printable replaces bytes outside printable ASCII with dots.
func Printable(data []byte) string {
	var b strings.Builder
	b.Grow(len(data))
	for _, c := range data {
		if c >= 32 && c <= 126 {
			b.WriteByte(c)
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}

// ParseHex accepts "48656C6C6F", "48 65 6c 6c 6f" and "0x48 0x65".
func ParseHex(s string) ([]byte, error) {
	clean := strings.NewReplacer(" ", "", "\t", "", "0x", "", "0X", "", ",", "").Replace(strings.TrimSpace(s))
	if clean == "" {
		return nil, errors.New("empty input")
	}
	if len(clean)%2 != 0 {
		return nil, fmt.Errorf("hex string must have an even number of digits (got %d)", len(clean))
	}
	data, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return data, nil
}
