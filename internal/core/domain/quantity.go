package domain

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Quantity is a numeric feed field. It may arrive as a bare scalar
// (<X>1.5</X>, 1.5, "1.5") or as a wrapper carrying the scalar alongside
// its units (<X units="km">1.5</X>, {"#text": "1.5", "@units": "km"}).
// Both shapes resolve to the same float64 at decode time.
type Quantity float64

// UnmarshalXML decodes the element's character data; attributes are ignored.
func (q *Quantity) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var text string
	if err := d.DecodeElement(&text, &start); err != nil {
		return err
	}
	return q.parse(text, start.Name.Local)
}

// UnmarshalJSON decodes a number, a numeric string, or a {"#text": ...} wrapper.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	return q.decodeJSON(data, "value")
}

func (q *Quantity) decodeJSON(data []byte, field string) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("%w: field %s is empty", ErrMalformedFeed, field)
	}

	switch data[0] {
	case '{':
		var wrapped struct {
			Text json.RawMessage `json:"#text"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return fmt.Errorf("%w: field %s: %v", ErrMalformedFeed, field, err)
		}
		if len(wrapped.Text) == 0 {
			return fmt.Errorf("%w: field %s: wrapper without #text", ErrMalformedFeed, field)
		}
		return q.decodeJSON(wrapped.Text, field)
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: field %s: %v", ErrMalformedFeed, field, err)
		}
		return q.parse(s, field)
	default:
		return q.parse(string(data), field)
	}
}

func (q *Quantity) parse(text, field string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return fmt.Errorf("%w: field %s: %v", ErrMalformedFeed, field, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: field %s is not finite", ErrMalformedFeed, field)
	}
	*q = Quantity(v)
	return nil
}
