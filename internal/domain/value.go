package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	KindNone ValueKind = iota
	KindString
	KindBool
	KindNumber
	KindRef
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindRef:
		return "ref"
	default:
		return "none"
	}
}

// Value is a setting value: none, string, bool, number or a reference (asset URL,
// linked page...). The zero Value is None, the explicit "no value" marker.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	flag bool
}

func None() Value               { return Value{} }
func String(s string) Value     { return Value{kind: KindString, str: s} }
func Bool(b bool) Value         { return Value{kind: KindBool, flag: b} }
func Number(n float64) Value    { return Value{kind: KindNumber, num: n} }
func Ref(target string) Value   { return Value{kind: KindRef, str: target} }
func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsNone() bool    { return v.kind == KindNone }

// Str returns the string payload of a string or reference value.
func (v Value) Str() (string, bool) {
	if v.kind == KindString || v.kind == KindRef {
		return v.str, true
	}
	return "", false
}

func (v Value) BoolValue() (bool, bool) { return v.flag, v.kind == KindBool }

func (v Value) NumberValue() (float64, bool) { return v.num, v.kind == KindNumber }

// Text renders the value as plain text. None renders as "".
func (v Value) Text() string {
	switch v.kind {
	case KindString, KindRef:
		return v.str
	case KindBool:
		return strconv.FormatBool(v.flag)
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

func (v Value) String() string {
	if v.kind == KindRef {
		return "ref(" + v.str + ")"
	}
	return v.Text()
}

// ── JSON ───────────────────────────────────────────────────

type refJSON struct {
	Ref string `json:"ref"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindBool:
		return json.Marshal(v.flag)
	case KindNumber:
		return json.Marshal(v.num)
	case KindRef:
		return json.Marshal(refJSON{Ref: v.str})
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = None()
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case '{':
		var r refJSON
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		*v = Ref(r.Ref)
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("decode value %s: %w", data, err)
		}
		*v = Number(n)
	}
	return nil
}

// ── YAML ───────────────────────────────────────────────────

func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		switch node.Tag {
		case "!!null":
			*v = None()
		case "!!bool":
			var b bool
			if err := node.Decode(&b); err != nil {
				return err
			}
			*v = Bool(b)
		case "!!int", "!!float":
			var n float64
			if err := node.Decode(&n); err != nil {
				return err
			}
			*v = Number(n)
		default:
			*v = String(node.Value)
		}
	case yaml.MappingNode:
		var r struct {
			Ref string `yaml:"ref"`
		}
		if err := node.Decode(&r); err != nil {
			return err
		}
		*v = Ref(r.Ref)
	default:
		return fmt.Errorf("decode value: unsupported yaml node at line %d", node.Line)
	}
	return nil
}

func (v Value) MarshalYAML() (any, error) {
	switch v.kind {
	case KindString:
		return v.str, nil
	case KindBool:
		return v.flag, nil
	case KindNumber:
		return v.num, nil
	case KindRef:
		return map[string]string{"ref": v.str}, nil
	default:
		return nil, nil
	}
}
