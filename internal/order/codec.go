package order

import (
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

// DecodeLegacyText decodes the legacy byte-triplet note encoding: every
// three ASCII digits form one decimal byte value, and the resulting byte
// sequence is Windows-1251 text.
//
// Empty or undersized input decodes to an empty note, not an error; legacy
// clients pad short notes inconsistently. A triplet that is not a valid
// byte value is a fatal input error.
func DecodeLegacyText(s string) (string, error) {
	if len(s) < 3 {
		return "", nil
	}

	raw := make([]byte, 0, len(s)/3)
	for i := 0; i+3 <= len(s); i += 3 {
		b, err := parseByteTriplet(s[i : i+3])
		if err != nil {
			return "", fmt.Errorf("decode note at offset %d: %w", i, err)
		}
		raw = append(raw, b)
	}

	decoded, err := charmap.Windows1251.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode note: %w", err)
	}
	return string(decoded), nil
}

func parseByteTriplet(t string) (byte, error) {
	v := 0
	for i := 0; i < 3; i++ {
		c := t[i]
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("triplet %q is not numeric", t)
		}
		v = v*10 + int(c-'0')
	}
	if v > 255 {
		return 0, fmt.Errorf("triplet %q exceeds byte range", t)
	}
	return byte(v), nil
}
