package models

import "encoding/json"

// LenientString accepts a JSON string or a JSON number and keeps its text.
type LenientString string

func (s *LenientString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*s = LenientString(text)
		return nil
	}

	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return err
	}
	*s = LenientString(number.String())
	return nil
}
