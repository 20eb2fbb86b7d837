package value

import (
	"encoding/json"
	"fmt"
)

// Kind is the closed set of scalar and container shapes a Value can
// hold, per spec.md's round-trip invariant.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt32
	KindInt64
	KindUint32
	KindUint64
	KindFloat
	KindDouble
	KindBytes
	KindText
	KindList
	KindStruct
	KindOptional
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "Bool"
	case KindInt32:
		return "Int32"
	case KindInt64:
		return "Int64"
	case KindUint32:
		return "Uint32"
	case KindUint64:
		return "Uint64"
	case KindFloat:
		return "Float"
	case KindDouble:
		return "Double"
	case KindBytes:
		return "Bytes"
	case KindText:
		return "Text"
	case KindList:
		return "List"
	case KindStruct:
		return "Struct"
	case KindOptional:
		return "Optional"
	default:
		return "Null"
	}
}

// ConvertError is returned when a Value does not fit the type the
// caller asked for.
type ConvertError struct {
	From Kind
	To   string
}

func (e *ConvertError) Error() string {
	return fmt.Sprintf("value: cannot convert %s to %s", e.From, e.To)
}

// Value is an opaque, self-describing scalar or container, standing
// in for the wire schema's generated Value message.
type Value struct {
	kind   Kind
	scalar json.RawMessage
	list   []Value
	fields map[string]Value
	inner  *Value // populated only when kind == KindOptional and non-null
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

func scalarOf(kind Kind, v any) Value {
	raw, err := json.Marshal(v)
	if err != nil {
		// Only called with JSON-marshalable primitives; a failure here
		// is a programming error, not a runtime condition.
		panic(fmt.Sprintf("value: marshal %s: %v", kind, err))
	}
	return Value{kind: kind, scalar: raw}
}

func Bool(b bool) Value       { return scalarOf(KindBool, b) }
func Int32(n int32) Value     { return scalarOf(KindInt32, n) }
func Int64(n int64) Value     { return scalarOf(KindInt64, n) }
func Uint32(n uint32) Value   { return scalarOf(KindUint32, n) }
func Uint64(n uint64) Value   { return scalarOf(KindUint64, n) }
func Float(f float32) Value   { return scalarOf(KindFloat, f) }
func Double(f float64) Value  { return scalarOf(KindDouble, f) }
func Bytes(b []byte) Value    { return scalarOf(KindBytes, b) }
func Text(s string) Value     { return scalarOf(KindText, s) }

// List builds a container of homogeneous-typed items.
func List(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindList, list: cp}
}

// Struct builds a named-field record.
func Struct(fields map[string]Value) Value {
	cp := make(map[string]Value, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return Value{kind: KindStruct, fields: cp}
}

// Optional wraps inner as present. OptionalNull is the absent case; it
// records no inner kind.
func Optional(inner Value) Value {
	v := inner
	return Value{kind: KindOptional, inner: &v}
}

// OptionalNull returns an absent optional.
func OptionalNull() Value { return Value{kind: KindOptional, inner: nil} }

// Kind reports the value's shape.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null value, or a present-but-absent optional.
func (v Value) IsNull() bool {
	return v.kind == KindNull || (v.kind == KindOptional && v.inner == nil)
}

func (v Value) decodeScalar(kind Kind, out any) error {
	if v.kind != kind {
		return &ConvertError{From: v.kind, To: kind.String()}
	}
	if err := json.Unmarshal(v.scalar, out); err != nil {
		return &ConvertError{From: v.kind, To: kind.String()}
	}
	return nil
}

func (v Value) AsBool() (bool, error) {
	var out bool
	err := v.decodeScalar(KindBool, &out)
	return out, err
}

func (v Value) AsInt32() (int32, error) {
	var out int32
	err := v.decodeScalar(KindInt32, &out)
	return out, err
}

func (v Value) AsInt64() (int64, error) {
	var out int64
	err := v.decodeScalar(KindInt64, &out)
	return out, err
}

func (v Value) AsUint32() (uint32, error) {
	var out uint32
	err := v.decodeScalar(KindUint32, &out)
	return out, err
}

func (v Value) AsUint64() (uint64, error) {
	var out uint64
	err := v.decodeScalar(KindUint64, &out)
	return out, err
}

func (v Value) AsFloat() (float32, error) {
	var out float32
	err := v.decodeScalar(KindFloat, &out)
	return out, err
}

func (v Value) AsDouble() (float64, error) {
	var out float64
	err := v.decodeScalar(KindDouble, &out)
	return out, err
}

func (v Value) AsBytes() ([]byte, error) {
	var out []byte
	err := v.decodeScalar(KindBytes, &out)
	return out, err
}

func (v Value) AsText() (string, error) {
	var out string
	err := v.decodeScalar(KindText, &out)
	return out, err
}

// AsList returns the list's items, erroring if v is not a List.
func (v Value) AsList() ([]Value, error) {
	if v.kind != KindList {
		return nil, &ConvertError{From: v.kind, To: KindList.String()}
	}
	return v.list, nil
}

// AsStruct returns the struct's fields, erroring if v is not a Struct.
func (v Value) AsStruct() (map[string]Value, error) {
	if v.kind != KindStruct {
		return nil, &ConvertError{From: v.kind, To: KindStruct.String()}
	}
	return v.fields, nil
}

// Unwrap returns the wrapped value of an Optional, or an error if v is
// not an Optional or is absent.
func (v Value) Unwrap() (Value, error) {
	if v.kind != KindOptional {
		return Value{}, &ConvertError{From: v.kind, To: "Optional"}
	}
	if v.inner == nil {
		return Value{}, &ConvertError{From: v.kind, To: "non-null Optional"}
	}
	return *v.inner, nil
}

// Equal reports deep equality, matching the round-trip invariant: any
// Value encoded then decoded must equal the original.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case KindStruct:
		if len(v.fields) != len(other.fields) {
			return false
		}
		for k, fv := range v.fields {
			ov, ok := other.fields[k]
			if !ok || !fv.Equal(ov) {
				return false
			}
		}
		return true
	case KindOptional:
		if (v.inner == nil) != (other.inner == nil) {
			return false
		}
		if v.inner == nil {
			return true
		}
		return v.inner.Equal(*other.inner)
	default:
		return string(v.scalar) == string(other.scalar)
	}
}
