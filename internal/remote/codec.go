package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Encode turns a tagged struct into a Row. Numbers stay json.Number so
// integer columns survive the round trip.
func Encode(v any) (Row, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode row: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var row Row
	if err := dec.Decode(&row); err != nil {
		return nil, fmt.Errorf("encode row: %w", err)
	}
	return row, nil
}

// Decode fills dst from row using dst's json tags.
func Decode(row Row, dst any) error {
	b, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("decode row: %w", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("decode row: %w", err)
	}
	return nil
}

// DecodeAll decodes every row into a fresh T.
func DecodeAll[T any](rows []Row) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		var v T
		if err := Decode(r, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Without returns a copy of row minus the named columns.
func (r Row) Without(columns ...string) Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	for _, c := range columns {
		delete(out, c)
	}
	return out
}
