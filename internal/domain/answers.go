package domain

import (
	"bytes"
	"encoding/json"
	"math"
)

// AnswerSheet holds one selected option index per question, nil when unanswered.
//
// When decoded from JSON, any element that is not an integer (strings,
// fractions, objects) is treated as unanswered rather than rejected.
type AnswerSheet []*int

// UnmarshalJSON decodes a JSON array, tolerating malformed elements.
func (s *AnswerSheet) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = nil
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return ErrInvalidAnswerFormat
	}
	sheet := make(AnswerSheet, len(raw))
	for i, elem := range raw {
		sheet[i] = parseOptionIndex(elem)
	}
	*s = sheet
	return nil
}

func parseOptionIndex(elem json.RawMessage) *int {
	dec := json.NewDecoder(bytes.NewReader(elem))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	num, ok := v.(json.Number)
	if !ok {
		return nil
	}
	n, err := num.Int64()
	if err != nil || n > math.MaxInt32 || n < math.MinInt32 {
		return nil
	}
	idx := int(n)
	return &idx
}
