package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePropsJSONDegradesToEmptyMap(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"malformed json", `{"url": "https://example.com"`},
		{"not an object", `[1, 2, 3]`},
		{"garbage", `%%%%`},
		{"empty string", ``},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			props := DecodePropsJSON(tc.raw)
			require.NotNil(t, props)
			assert.Empty(t, props)
		})
	}
}

func TestDecodePropsJSONValid(t *testing.T) {
	props := DecodePropsJSON(`{"url": "https://example.com", "target": "_blank"}`)
	assert.Equal(t, "https://example.com", props["url"])
	assert.Equal(t, "_blank", props["target"])
}

func TestDecodeGeometryJSONDegradesToEmptyMap(t *testing.T) {
	assert.Empty(t, DecodeGeometryJSON(`{"x": "not a number"}`))
	assert.Empty(t, DecodeGeometryJSON(`{broken`))
	assert.Empty(t, DecodeGeometryJSON(``))

	geometry := DecodeGeometryJSON(`{"x": 10.5, "y": 20, "width": 100, "height": 50, "rotation": 0}`)
	assert.Equal(t, 10.5, geometry[GeometryX])
	assert.Equal(t, 100.0, geometry[GeometryWidth])
}

func TestWidgetValidateVocabulary(t *testing.T) {
	w := &Widget{Type: "banner", Props: map[string]any{}}
	assert.ErrorContains(t, w.Validate(), "unknown widget type")
}

func TestWidgetValidateRequiredProps(t *testing.T) {
	cases := []struct {
		widgetType WidgetType
		key        string
	}{
		{WidgetTypeLink, "url"},
		{WidgetTypeVideo, "url"},
		{WidgetTypeAudio, "url"},
		{WidgetTypeImage, "src"},
		{WidgetTypeText, "content"},
	}
	for _, tc := range cases {
		t.Run(string(tc.widgetType), func(t *testing.T) {
			w := &Widget{Type: tc.widgetType, Props: map[string]any{}}
			assert.ErrorContains(t, w.Validate(), tc.key)

			w.Props[tc.key] = "value"
			assert.NoError(t, w.Validate())
		})
	}
}

func TestWidgetValidateHotspotNeedsNoProps(t *testing.T) {
	w := &Widget{Type: WidgetTypeHotspot}
	assert.NoError(t, w.Validate())
}

func TestWidgetValidateRejectsNonFiniteGeometry(t *testing.T) {
	w := &Widget{
		Type:     WidgetTypeHotspot,
		Geometry: map[string]float64{GeometryX: math.NaN()},
	}
	assert.ErrorContains(t, w.Validate(), "finite")

	w.Geometry = map[string]float64{GeometryWidth: math.Inf(1)}
	assert.ErrorContains(t, w.Validate(), "finite")
}

func TestWidgetValidateSanitizesTextContent(t *testing.T) {
	w := &Widget{
		Type:  WidgetTypeText,
		Props: map[string]any{"content": `<p>hello</p><script>alert("x")</script>`},
	}
	require.NoError(t, w.Validate())
	assert.Equal(t, "<p>hello</p>", w.Props["content"])
}

func TestEncodeJSONMap(t *testing.T) {
	assert.Equal(t, "{}", EncodeJSONMap(nil))
	assert.Equal(t, "{}", EncodeJSONMap(map[string]any{}))
	assert.JSONEq(t, `{"x": 1.5}`, EncodeJSONMap(map[string]float64{"x": 1.5}))
}

func TestEncodeJSONMapTypedNilStoresEmptyObject(t *testing.T) {
	// A widget built from a payload that omits props or geometry carries a
	// typed-nil map, which json.Marshal would otherwise store as "null".
	assert.Equal(t, "{}", EncodeJSONMap((map[string]any)(nil)))
	assert.Equal(t, "{}", EncodeJSONMap((map[string]float64)(nil)))
}

func TestDecodeJSONNullYieldsUsableMap(t *testing.T) {
	props := DecodePropsJSON(`null`)
	require.NotNil(t, props)
	assert.Empty(t, props)

	geometry := DecodeGeometryJSON(`null`)
	require.NotNil(t, geometry)
	assert.Empty(t, geometry)

	// A hotspot saved without props must read back as a widget whose props
	// map can be written in place.
	w := Widget{Type: WidgetTypeHotspot}
	stored := DecodePropsJSON(EncodeJSONMap(w.Props))
	require.NotNil(t, stored)
	stored["note"] = "ok"
	assert.Equal(t, "ok", stored["note"])
}

func TestPropsRoundTrip(t *testing.T) {
	props := map[string]any{"url": "https://example.com", "target": "_blank"}
	assert.Equal(t, props, map[string]any(DecodePropsJSON(EncodeJSONMap(props))))

	geometry := map[string]float64{GeometryX: 12.34, GeometryY: 56.78, GeometryWidth: 100, GeometryHeight: 40, GeometryRotation: 90}
	assert.Equal(t, geometry, DecodeGeometryJSON(EncodeJSONMap(geometry)))
}
