package models

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/microcosm-cc/bluemonday"
)

// WidgetType defines the fixed vocabulary of overlay widget types.
type WidgetType string

const (
	WidgetTypeLink    WidgetType = "link"
	WidgetTypeVideo   WidgetType = "video"
	WidgetTypeAudio   WidgetType = "audio"
	WidgetTypeHotspot WidgetType = "hotspot"
	WidgetTypeImage   WidgetType = "image"
	WidgetTypeText    WidgetType = "text"
)

// Geometry keys every widget carries. Values are page pixel coordinates,
// rotation in degrees.
const (
	GeometryX        = "x"
	GeometryY        = "y"
	GeometryWidth    = "width"
	GeometryHeight   = "height"
	GeometryRotation = "rotation"
)

// textContentPolicy strips scriptable markup from text widget content before
// it is stored. Text widgets render user HTML in the reader.
var textContentPolicy = bluemonday.UGCPolicy()

// Widget is a positioned, typed interactive overlay element on a page.
// Props and Geometry are stored as JSON text columns; both must always
// deserialize to a valid map even if the stored data is corrupted.
type Widget struct {
	ID       string             `json:"id"`
	PageID   string             `json:"page_id"`
	Type     WidgetType         `json:"type"`
	Props    map[string]any     `json:"props"`
	Geometry map[string]float64 `json:"geometry"`
	ZIndex   int                `json:"z_index"`
}

// Validate checks the type tag against the vocabulary and enforces the
// per-type required props. Props beyond the required keys are free-form for
// forward compatibility. Text widget content is sanitized in place.
func (w *Widget) Validate() error {
	switch w.Type {
	case WidgetTypeLink, WidgetTypeVideo, WidgetTypeAudio:
		if err := requireStringProp(w.Props, "url"); err != nil {
			return fmt.Errorf("%s widget: %w", w.Type, err)
		}
	case WidgetTypeImage:
		if err := requireStringProp(w.Props, "src"); err != nil {
			return fmt.Errorf("image widget: %w", err)
		}
	case WidgetTypeText:
		if err := requireStringProp(w.Props, "content"); err != nil {
			return fmt.Errorf("text widget: %w", err)
		}
		w.Props["content"] = textContentPolicy.Sanitize(w.Props["content"].(string))
	case WidgetTypeHotspot:
		// No required props; hotspots are pure geometry.
	default:
		return fmt.Errorf("unknown widget type %q", w.Type)
	}

	for key, val := range w.Geometry {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return fmt.Errorf("geometry key %q is not a finite number", key)
		}
	}
	return nil
}

func requireStringProp(props map[string]any, key string) error {
	val, ok := props[key]
	if !ok {
		return fmt.Errorf("missing required prop %q", key)
	}
	s, ok := val.(string)
	if !ok || s == "" {
		return fmt.Errorf("prop %q must be a non-empty string", key)
	}
	return nil
}

// DecodePropsJSON parses a stored props column. Malformed JSON and the JSON
// literal null degrade to an empty map rather than failing the read; callers
// always get a usable map.
func DecodePropsJSON(raw string) map[string]any {
	props := map[string]any{}
	if raw == "" {
		return props
	}
	// Unmarshaling "null" sets the map itself to nil.
	if err := json.Unmarshal([]byte(raw), &props); err != nil || props == nil {
		return map[string]any{}
	}
	return props
}

// DecodeGeometryJSON parses a stored geometry column, degrading to an empty
// map on malformed JSON, JSON null or non-numeric values.
func DecodeGeometryJSON(raw string) map[string]float64 {
	geometry := map[string]float64{}
	if raw == "" {
		return geometry
	}
	if err := json.Unmarshal([]byte(raw), &geometry); err != nil || geometry == nil {
		return map[string]float64{}
	}
	return geometry
}

// EncodeJSONMap serializes a map for storage in a JSON text column. Nil maps
// (including typed nils behind the any parameter) serialize as "{}" so reads
// never see "null" or an empty string.
func EncodeJSONMap(m any) string {
	raw, err := json.Marshal(m)
	if err != nil || string(raw) == "null" {
		return "{}"
	}
	return string(raw)
}
