package preview

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeAction parses an action posted by the editor UI. The payload fields
// sit next to "type". Tags this package does not know decode to Unknown.
func DecodeAction(raw []byte) (Action, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}

	switch head.Type {
	case TypeSurfaceReady:
		var body struct {
			Surface json.RawMessage `json:"surface"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("decode %s: %w", head.Type, err)
		}
		a := SurfaceReady{}
		if len(body.Surface) > 0 && string(body.Surface) != "null" {
			a.Handle = body.Surface
		}
		return a, nil
	case TypeSurfaceDone:
		return SurfaceDone{}, nil
	case TypeCancelPreview:
		return CancelPreview{}, nil
	case TypePreview:
		return decodeInto[PreviewSection](head.Type, raw)
	case TypeAddSection:
		return decodeInto[AddSection](head.Type, raw)
	case TypeMoveSection:
		return decodeInto[MoveSection](head.Type, raw)
	case TypeRemoveSection:
		return decodeInto[RemoveSection](head.Type, raw)
	}

	scope, verb, ok := splitScoped(head.Type)
	if !ok {
		return Unknown{Tag: head.Type}, nil
	}
	switch verb {
	case "update-input", "block:update-input":
		a, err := decodeInto[UpdateInput](head.Type, raw)
		if err != nil {
			return nil, err
		}
		a.Scope = scope
		if verb == "update-input" {
			a.BlockID = ""
		}
		return a, nil
	case "block:add":
		a, err := decodeInto[AddBlock](head.Type, raw)
		a.Scope = scope
		return a, err
	case "block:remove":
		a, err := decodeInto[RemoveBlock](head.Type, raw)
		a.Scope = scope
		return a, err
	case "block:move":
		a, err := decodeInto[MoveBlock](head.Type, raw)
		a.Scope = scope
		return a, err
	case "reload":
		a, err := decodeInto[ReloadSection](head.Type, raw)
		a.Scope = scope
		return a, err
	}
	return Unknown{Tag: head.Type}, nil
}

// EncodeAction is the inverse of DecodeAction.
func EncodeAction(a Action) ([]byte, error) {
	var body any = a
	if r, ok := a.(SurfaceReady); ok {
		body = struct {
			Surface any `json:"surface,omitempty"`
		}{r.Handle}
	}
	fields, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", a.Type(), err)
	}
	m := map[string]json.RawMessage{}
	if err := json.Unmarshal(fields, &m); err != nil {
		return nil, fmt.Errorf("encode %s: %w", a.Type(), err)
	}
	tag, _ := json.Marshal(a.Type())
	m["type"] = tag
	return json.Marshal(m)
}

func decodeInto[T Action](tag string, raw []byte) (T, error) {
	var a T
	if err := json.Unmarshal(raw, &a); err != nil {
		return a, fmt.Errorf("decode %s: %w", tag, err)
	}
	return a, nil
}

// splitScoped splits "static-section:block:add" into its scope and verb.
func splitScoped(tag string) (Scope, string, bool) {
	for _, scope := range []Scope{ScopeStaticSection, ScopeSection} {
		if verb, ok := strings.CutPrefix(tag, string(scope)+":"); ok {
			return scope, verb, true
		}
	}
	return "", "", false
}
