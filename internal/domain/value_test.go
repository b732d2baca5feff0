package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"pagebuilder/internal/domain"
)

func TestValue_ZeroIsNone(t *testing.T) {
	var v domain.Value
	assert.True(t, v.IsNone())
	assert.Equal(t, domain.KindNone, v.Kind())
	assert.Equal(t, "", v.Text())
}

func TestValue_JSONShapes(t *testing.T) {
	settings := domain.Settings{
		"title": domain.String("Hi"),
		"shown": domain.Bool(true),
		"cols":  domain.Number(3),
		"image": domain.Ref("/assets/hero.png"),
		"unset": domain.None(),
	}
	data, err := json.Marshal(settings)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Hi","shown":true,"cols":3,"image":{"ref":"/assets/hero.png"},"unset":null}`, string(data))

	var back domain.Settings
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, settings, back)
}

func TestValue_YAMLDefaults(t *testing.T) {
	src := `
- id: title
  type: text
  default: Welcome
- id: count
  type: range
  default: 4
- id: visible
  type: checkbox
  default: false
- id: image
  type: image_picker
  default:
    ref: /samples/a.png
- id: empty
  type: text
`
	var defs []domain.SettingDefinition
	require.NoError(t, yaml.Unmarshal([]byte(src), &defs))
	require.Len(t, defs, 5)

	assert.Equal(t, domain.String("Welcome"), defs[0].Default)
	assert.Equal(t, domain.Number(4), defs[1].Default)
	assert.Equal(t, domain.Bool(false), defs[2].Default)
	assert.Equal(t, domain.Ref("/samples/a.png"), defs[3].Default)
	assert.True(t, defs[4].Default.IsNone())
}

func TestValue_Text(t *testing.T) {
	assert.Equal(t, "2.5", domain.Number(2.5).Text())
	assert.Equal(t, "true", domain.Bool(true).Text())
	s, ok := domain.Ref("x.png").Str()
	assert.True(t, ok)
	assert.Equal(t, "x.png", s)
	_, ok = domain.Number(1).Str()
	assert.False(t, ok)
}
