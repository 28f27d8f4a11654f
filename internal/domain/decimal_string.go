package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecimalString is a monetary or percentage value carried as text on the wire.
// The backend sends these as strings ("12.50") but older endpoints emit bare
// numbers, so both forms are accepted. null decodes to the empty string.
type DecimalString string

func (d *DecimalString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decimal string: %w", err)
		}
		*d = DecimalString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decimal string: %w", err)
	}
	*d = DecimalString(n.String())
	return nil
}

func (d DecimalString) String() string {
	return string(d)
}
