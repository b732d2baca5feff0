package surface

import (
	"encoding/json"
	"fmt"
)

// Envelope is the message posted to the preview surface.
type Envelope struct {
	Action Kind            `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Encode wraps d in an Envelope. A nil directive encodes as none.
func Encode(d Directive) ([]byte, error) {
	if IsNone(d) {
		return json.Marshal(Envelope{Action: KindNone})
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", d.Kind(), err)
	}
	return json.Marshal(Envelope{Action: d.Kind(), Data: data})
}

// Decode reads an Envelope produced by Encode.
func Decode(raw []byte) (Directive, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	var d Directive
	switch env.Action {
	case KindNone, "":
		return None{}, nil
	case KindPreviewSection:
		d = &PreviewSection{}
	case KindRemoveSection:
		d = &RemoveSection{}
	case KindMoveSection:
		d = &MoveSection{}
	case KindUpdateInput:
		d = &UpdateInput{}
	case KindRefreshSection:
		d = &RefreshSection{}
	default:
		return nil, fmt.Errorf("decode envelope: unknown action %q", env.Action)
	}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, d); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Action, err)
		}
	}
	return deref(d), nil
}

func deref(d Directive) Directive {
	switch v := d.(type) {
	case *PreviewSection:
		return *v
	case *RemoveSection:
		return *v
	case *MoveSection:
		return *v
	case *UpdateInput:
		return *v
	case *RefreshSection:
		return *v
	}
	return d
}
