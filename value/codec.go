package value

import "encoding/json"

// wireValue is the JSON-on-the-wire shape of a Value, matching the
// codec internal/xwire registers for every other message in the
// driver (spec §1 treats the real Value wire format as opaque; this
// is the stand-in).
type wireValue struct {
	Kind   Kind              `json:"kind"`
	Scalar json.RawMessage   `json:"scalar,omitempty"`
	List   []wireValue       `json:"list,omitempty"`
	Fields map[string]wireValue `json:"fields,omitempty"`
	Inner  *wireValue        `json:"inner,omitempty"`
}

func (v Value) toWire() wireValue {
	w := wireValue{Kind: v.kind, Scalar: v.scalar}
	if v.list != nil {
		w.List = make([]wireValue, len(v.list))
		for i, item := range v.list {
			w.List[i] = item.toWire()
		}
	}
	if v.fields != nil {
		w.Fields = make(map[string]wireValue, len(v.fields))
		for k, f := range v.fields {
			w.Fields[k] = f.toWire()
		}
	}
	if v.inner != nil {
		inner := v.inner.toWire()
		w.Inner = &inner
	}
	return w
}

func (w wireValue) toValue() Value {
	v := Value{kind: w.Kind, scalar: w.Scalar}
	if w.List != nil {
		v.list = make([]Value, len(w.List))
		for i, item := range w.List {
			v.list[i] = item.toValue()
		}
	}
	if w.Fields != nil {
		v.fields = make(map[string]Value, len(w.Fields))
		for k, f := range w.Fields {
			v.fields[k] = f.toValue()
		}
	}
	if w.Inner != nil {
		inner := w.Inner.toValue()
		v.inner = &inner
	}
	return v
}

// MarshalJSON implements json.Marshaler so a Value can be embedded
// directly in any xwire request/response message.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.toWire())
}

// UnmarshalJSON implements json.Unmarshaler, the inverse of MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*v = w.toValue()
	return nil
}

// Encode serializes v to its wire representation.
func Encode(v Value) ([]byte, error) {
	return json.Marshal(v)
}

// Decode parses a Value previously produced by Encode.
func Decode(data []byte) (Value, error) {
	var v Value
	if err := json.Unmarshal(data, &v); err != nil {
		return Value{}, err
	}
	return v, nil
}
