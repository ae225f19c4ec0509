package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// UnmarshalJSON accepts either an object ({"c1":"r1","c2":"r2"}) read in
// document order, or an array of {"challenge","response"} objects.
// A null or absent value is an empty set.
func (p *Pairs) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*p = Pairs{}
		return nil
	}

	switch trimmed[0] {
	case '[':
		var list []Pair
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		*p = Pairs(list)
		if *p == nil {
			*p = Pairs{}
		}
		return nil
	case '{':
		pairs, err := decodeObject(trimmed)
		if err != nil {
			return err
		}
		*p = pairs
		return nil
	default:
		return fmt.Errorf("crps must be an object or an array, got %q", trimmed[:1])
	}
}

func decodeObject(data []byte) (Pairs, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	pairs := Pairs{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		challenge, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("crps: expected string key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		if bytes.Equal(raw, []byte("null")) {
			return nil, fmt.Errorf("crps: response for %q must be a string", challenge)
		}
		var response string
		if err := json.Unmarshal(raw, &response); err != nil {
			return nil, fmt.Errorf("crps: response for %q: %w", challenge, err)
		}
		pairs = append(pairs, Pair{Challenge: challenge, Response: response})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return pairs, nil
}

// MarshalJSON writes the object form, keeping order.
func (p Pairs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, pair := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(pair.Challenge)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(pair.Response)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
