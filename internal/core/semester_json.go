package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// semesterJSON is the stored shape: {"gpa": "3.50", "credit": 15}.
type semesterJSON struct {
	GPA    json.RawMessage `json:"gpa"`
	Credit json.RawMessage `json:"credit"`
}

// MarshalJSON writes gpa as a string and credit as a number when it is one,
// falling back to a string for half-typed input.
func (s SemesterRow) MarshalJSON() ([]byte, error) {
	gpa, err := json.Marshal(s.GPA)
	if err != nil {
		return nil, err
	}
	credit, err := json.Marshal(s.Credit)
	if err != nil {
		return nil, err
	}
	if v, ok := ParseNumber(s.Credit); ok && s.Credit == FormatNumber(v) {
		credit = []byte(FormatNumber(v))
	}
	return json.Marshal(semesterJSON{GPA: gpa, Credit: credit})
}

// UnmarshalJSON accepts either strings or numbers for both fields, since rows
// typed into the form and rows carried over from a GPA result differ.
func (s *SemesterRow) UnmarshalJSON(data []byte) error {
	var raw semesterJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	gpa, err := textOrNumber(raw.GPA)
	if err != nil {
		return fmt.Errorf("gpa: %w", err)
	}
	credit, err := textOrNumber(raw.Credit)
	if err != nil {
		return fmt.Errorf("credit: %w", err)
	}
	s.GPA, s.Credit = gpa, credit
	return nil
}

func textOrNumber(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil {
		return "", err
	}
	return FormatNumber(f), nil
}
