package forms

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// NumericText is a numeric form field kept as entered. It decodes from either a
// JSON string or a JSON number.
type NumericText string

// UnmarshalJSON implements json.Unmarshaler.
func (n *NumericText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = NumericText(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	*n = NumericText(num.String())
	return nil
}

// Float parses the text. Call after validation.
func (n NumericText) Float() (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(string(n)), 64)
}

func formatFloat(f float64) NumericText {
	return NumericText(strconv.FormatFloat(f, 'f', -1, 64))
}
