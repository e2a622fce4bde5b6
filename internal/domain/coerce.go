package domain

import (
	"encoding/json"
	"reflect"
)

// StringList is a []string that tolerates sloppy payload shapes: a JSON
// array, a bare scalar (coerced to a one-element list), or null.
type StringList []string

// UnmarshalJSON implements the lenient decoding described above.
func (l *StringList) UnmarshalJSON(b []byte) error {
	var arr []string
	if err := json.Unmarshal(b, &arr); err == nil {
		*l = arr
		return nil
	}
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		if one == "" {
			*l = []string{}
		} else {
			*l = []string{one}
		}
		return nil
	}
	var null any
	if err := json.Unmarshal(b, &null); err == nil && null == nil {
		*l = nil
		return nil
	}
	return &json.UnmarshalTypeError{Value: string(b), Type: reflect.TypeOf(*l)}
}

// PhoneList is a []Phone that tolerates a JSON array of phone objects, a
// single phone object, a bare number string, or an array of number strings.
type PhoneList []Phone

// UnmarshalJSON implements the lenient decoding described above.
func (l *PhoneList) UnmarshalJSON(b []byte) error {
	var arr []Phone
	if err := json.Unmarshal(b, &arr); err == nil {
		*l = arr
		return nil
	}
	var one Phone
	if err := json.Unmarshal(b, &one); err == nil && one.Number != "" {
		*l = []Phone{one}
		return nil
	}
	var strs []string
	if err := json.Unmarshal(b, &strs); err == nil {
		out := make([]Phone, 0, len(strs))
		for i, n := range strs {
			out = append(out, Phone{Number: n, Rank: i})
		}
		*l = out
		return nil
	}
	var num string
	if err := json.Unmarshal(b, &num); err == nil {
		if num == "" {
			*l = []Phone{}
		} else {
			*l = []Phone{{Number: num}}
		}
		return nil
	}
	var null any
	if err := json.Unmarshal(b, &null); err == nil && null == nil {
		*l = nil
		return nil
	}
	return &json.UnmarshalTypeError{Value: string(b), Type: reflect.TypeOf(*l)}
}
