package stakingapi

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// ErrInvalidNumber is returned for numeric fields that are neither a JSON number nor a string
var ErrInvalidNumber = errors.New("invalid numeric field")

// Number holds a numeric field that the API may send either as a JSON string
// or as a bare JSON number. The decimal text is kept as delivered.
type Number string

// UnmarshalJSON accepts "123", 123 and null
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*n = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidNumber, err)
		}
		*n = Number(s)
		return nil
	case len(data) > 0 && (data[0] == '-' || (data[0] >= '0' && data[0] <= '9')):
		*n = Number(data)
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrInvalidNumber, data)
	}
}

// String returns the decimal text
func (n Number) String() string {
	return string(n)
}

// Int64 parses the value as a base 10 integer
func (n Number) Int64() (int64, error) {
	v, err := strconv.ParseInt(string(n), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, string(n))
	}
	return v, nil
}
