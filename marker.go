package keyset

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

var _encoder = base64.RawURLEncoding

// Marker is a snapshot of the sort-key values taken from the last row of the
// previous page. A nil or empty Marker means "start from the first row".
//
// IMPORTANT:
// A marker must hold a value for every key of the SortSpec it is used with.
type Marker map[string]any

// IsEmpty reports whether the marker is absent.
func (m Marker) IsEmpty() bool {
	return len(m) == 0
}

// values returns marker values in the order of keys.
func (m Marker) values(keys Orderings) ([]any, error) {
	ret := make([]any, 0, len(keys))
	for _, key := range keys {
		v, ok := m[key.Column]
		if !ok || v == nil {
			return nil, fmt.Errorf("%w: '%s'", ErrMarkerValueMissing, key.Column)
		}
		ret = append(ret, v)
	}

	return ret, nil
}

// Getters is a dictionary of value getters for a record type. Specify the
// columns the pagination is sorted by.
// Example:
//
//	keyset.Getters[models.Meter]{
//		"id":           func(m models.Meter) any { return m.ID },
//		"counter_name": func(m models.Meter) any { return m.CounterName },
//	}
type Getters[T any] map[string]func(T) any

// MarkerOf takes a marker from row for every key of spec.
func MarkerOf[T any](spec SortSpec, row T, getters Getters[T]) (Marker, error) {
	ret := make(Marker, spec.Len())
	for _, key := range spec.keys {
		getter, ok := getters[key.Column]
		if !ok {
			return nil, fmt.Errorf("%w: no getter for column '%s' met in ordering", ErrUnknownSortKey, key.Column)
		}

		ret[key.Column] = getter(row)
	}

	return ret, nil
}

// Accessor adapts a Getters set to a RowAccessor for row.
func (g Getters[T]) Accessor(row T) RowAccessor {
	return func(column string) (any, bool) {
		getter, ok := g[column]
		if !ok {
			return nil, false
		}

		return getter(row), true
	}
}

// markerElement is one serialised marker value. The type tag restores the
// exact Go type on decode, so equality comparisons never see a coerced value.
type markerElement struct {
	Column string          `json:"c"`
	Type   string          `json:"t"`
	Value  json.RawMessage `json:"v"`
}

const (
	_typeString = "s"
	_typeInt    = "i"
	_typeUint   = "u"
	_typeFloat  = "f"
	_typeBool   = "b"
	_typeTime   = "t"
	_typeBytes  = "x"
)

// Token encodes the marker for the given spec as an opaque base64url string.
// Supported value types are strings, signed and unsigned integers, floats,
// bools, time.Time and []byte. Integers decode as int64/uint64 and floats as
// float64.
func (m Marker) Token(spec SortSpec) (string, error) {
	if m.IsEmpty() {
		return "", nil
	}

	values, err := m.values(spec.keys)
	if err != nil {
		return "", err
	}

	elems := make([]markerElement, 0, len(values))
	for i, v := range values {
		elem, err := encodeMarkerValue(v)
		if err != nil {
			return "", fmt.Errorf("column '%s': %w", spec.keys[i].Column, err)
		}
		elem.Column = spec.keys[i].Column
		elems = append(elems, elem)
	}

	jTok, err := json.Marshal(elems)
	if err != nil {
		return "", fmt.Errorf("cannot marshal marker: %w", err)
	}

	var buf bytes.Buffer
	if err = json.Compact(&buf, jTok); err != nil {
		return "", fmt.Errorf("cannot compact marker: %w", err)
	}

	return _encoder.EncodeToString(buf.Bytes()), nil
}

// DecodeMarker attempts to parse a token produced by Marker.Token. An empty
// token decodes to a nil Marker; a non-empty token must carry at least one
// value.
func DecodeMarker(token string) (Marker, error) {
	if len(token) == 0 {
		return nil, nil
	}

	jsonData, err := _encoder.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode base64: %v", ErrInvalidMarker, err)
	}

	var elems []markerElement
	if err = json.Unmarshal(jsonData, &elems); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal json: %v", ErrInvalidMarker, err)
	}

	if len(elems) == 0 {
		return nil, fmt.Errorf("%w: no marker values", ErrInvalidMarker)
	}

	ret := make(Marker, len(elems))
	for _, elem := range elems {
		v, err := decodeMarkerValue(elem)
		if err != nil {
			return nil, fmt.Errorf("%w: column '%s': %v", ErrInvalidMarker, elem.Column, err)
		}
		ret[elem.Column] = v
	}

	return ret, nil
}

func encodeMarkerValue(v any) (markerElement, error) {
	var (
		typ string
		raw any
	)

	switch vt := v.(type) {
	case string:
		typ, raw = _typeString, vt
	case int, int8, int16, int32, int64:
		typ, raw = _typeInt, strconv.FormatInt(toInt64(vt), 10)
	case uint, uint8, uint16, uint32, uint64:
		typ, raw = _typeUint, strconv.FormatUint(toUint64(vt), 10)
	case float32:
		typ, raw = _typeFloat, float64(vt)
	case float64:
		typ, raw = _typeFloat, vt
	case bool:
		typ, raw = _typeBool, vt
	case time.Time:
		typ, raw = _typeTime, vt.Format(time.RFC3339Nano)
	case []byte:
		typ, raw = _typeBytes, _encoder.EncodeToString(vt)
	default:
		return markerElement{}, fmt.Errorf("unsupported marker value type %T", v)
	}

	b, err := json.Marshal(raw)
	if err != nil {
		return markerElement{}, err
	}

	return markerElement{Type: typ, Value: b}, nil
}

func decodeMarkerValue(elem markerElement) (any, error) {
	switch elem.Type {
	case _typeString:
		return unmarshalString(elem.Value)
	case _typeInt:
		s, err := unmarshalString(elem.Value)
		if err != nil {
			return nil, err
		}
		return strconv.ParseInt(s, 10, 64)
	case _typeUint:
		s, err := unmarshalString(elem.Value)
		if err != nil {
			return nil, err
		}
		return strconv.ParseUint(s, 10, 64)
	case _typeFloat:
		var f float64
		if err := json.Unmarshal(elem.Value, &f); err != nil {
			return nil, err
		}
		return f, nil
	case _typeBool:
		var b bool
		if err := json.Unmarshal(elem.Value, &b); err != nil {
			return nil, err
		}
		return b, nil
	case _typeTime:
		s, err := unmarshalString(elem.Value)
		if err != nil {
			return nil, err
		}
		return time.Parse(time.RFC3339Nano, s)
	case _typeBytes:
		s, err := unmarshalString(elem.Value)
		if err != nil {
			return nil, err
		}
		return _encoder.DecodeString(s)
	default:
		return nil, fmt.Errorf("unknown value type '%s'", elem.Type)
	}
}

func unmarshalString(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", err
	}

	return s, nil
}

func toInt64(v any) int64 {
	switch vt := v.(type) {
	case int:
		return int64(vt)
	case int8:
		return int64(vt)
	case int16:
		return int64(vt)
	case int32:
		return int64(vt)
	default:
		return v.(int64)
	}
}

func toUint64(v any) uint64 {
	switch vt := v.(type) {
	case uint:
		return uint64(vt)
	case uint8:
		return uint64(vt)
	case uint16:
		return uint64(vt)
	case uint32:
		return uint64(vt)
	default:
		return v.(uint64)
	}
}
