package wheel

import (
	"encoding/json"
	"fmt"
	"strings"
)

type SourceKind string

const (
	KindStaticZodiac      SourceKind = "static_zodiac"
	KindStaticNakshatras  SourceKind = "static_nakshatras"
	KindLayerHouses       SourceKind = "layer_houses"
	KindLayerPlanets      SourceKind = "layer_planets"
	KindLayerVargaPlanets SourceKind = "layer_varga_planets"
	KindAspectSet         SourceKind = "aspect_set"
)

// DataSource tells a renderer where a ring's content comes from. The set of
// implementations is closed.
type DataSource interface {
	Kind() SourceKind
	isDataSource()
}

// StaticZodiac draws the twelve signs.
type StaticZodiac struct{}

// StaticNakshatras draws the 27 lunar mansions.
type StaticNakshatras struct{}

type LayerHouses struct {
	LayerID string
}

type LayerPlanets struct {
	LayerID string
}

// LayerVargaPlanets draws the planets of a layer in a divisional chart such
// as the navamsa (D9).
type LayerVargaPlanets struct {
	LayerID string
	VargaID string
}

type AspectSet struct {
	AspectSetID string
	Filter      *AspectFilter
}

// AspectFilter narrows the aspects an AspectSet ring draws. Empty fields
// filter nothing.
type AspectFilter struct {
	Aspects []string `json:"aspects,omitempty"`
	Objects []string `json:"objects,omitempty"`
	MaxOrb  *float64 `json:"maxOrb,omitempty"`
}

func (StaticZodiac) Kind() SourceKind      { return KindStaticZodiac }
func (StaticNakshatras) Kind() SourceKind  { return KindStaticNakshatras }
func (LayerHouses) Kind() SourceKind       { return KindLayerHouses }
func (LayerPlanets) Kind() SourceKind      { return KindLayerPlanets }
func (LayerVargaPlanets) Kind() SourceKind { return KindLayerVargaPlanets }
func (AspectSet) Kind() SourceKind         { return KindAspectSet }

func (StaticZodiac) isDataSource()      {}
func (StaticNakshatras) isDataSource()  {}
func (LayerHouses) isDataSource()       {}
func (LayerPlanets) isDataSource()      {}
func (LayerVargaPlanets) isDataSource() {}
func (AspectSet) isDataSource()         {}

type sourceWire struct {
	Kind        SourceKind    `json:"kind"`
	LayerID     string        `json:"layerId,omitempty"`
	VargaID     string        `json:"vargaId,omitempty"`
	AspectSetID string        `json:"aspectSetId,omitempty"`
	Filter      *AspectFilter `json:"filter,omitempty"`
}

func toSourceWire(s DataSource) (sourceWire, error) {
	switch v := s.(type) {
	case StaticZodiac:
		return sourceWire{Kind: KindStaticZodiac}, nil
	case StaticNakshatras:
		return sourceWire{Kind: KindStaticNakshatras}, nil
	case LayerHouses:
		return sourceWire{Kind: KindLayerHouses, LayerID: v.LayerID}, nil
	case LayerPlanets:
		return sourceWire{Kind: KindLayerPlanets, LayerID: v.LayerID}, nil
	case LayerVargaPlanets:
		return sourceWire{Kind: KindLayerVargaPlanets, LayerID: v.LayerID, VargaID: v.VargaID}, nil
	case AspectSet:
		return sourceWire{Kind: KindAspectSet, AspectSetID: v.AspectSetID, Filter: v.Filter}, nil
	case nil:
		return sourceWire{}, fmt.Errorf("data source is required")
	}
	return sourceWire{}, fmt.Errorf("unsupported data source %T", s)
}

// source converts the wire form back to a DataSource. path prefixes the field
// names in the returned problems.
func (w sourceWire) source(path string) (DataSource, []FieldError) {
	var errs []FieldError
	require := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			errs = append(errs, FieldError{Field: path + "." + field, Message: "is required"})
		}
	}
	var src DataSource
	switch w.Kind {
	case "":
		return nil, []FieldError{{Field: path + ".kind", Message: "is required"}}
	case KindStaticZodiac:
		src = StaticZodiac{}
	case KindStaticNakshatras:
		src = StaticNakshatras{}
	case KindLayerHouses:
		require("layerId", w.LayerID)
		src = LayerHouses{LayerID: w.LayerID}
	case KindLayerPlanets:
		require("layerId", w.LayerID)
		src = LayerPlanets{LayerID: w.LayerID}
	case KindLayerVargaPlanets:
		require("layerId", w.LayerID)
		require("vargaId", w.VargaID)
		src = LayerVargaPlanets{LayerID: w.LayerID, VargaID: w.VargaID}
	case KindAspectSet:
		require("aspectSetId", w.AspectSetID)
		if w.Filter != nil && w.Filter.MaxOrb != nil && *w.Filter.MaxOrb < 0 {
			errs = append(errs, FieldError{Field: path + ".filter.maxOrb", Message: "must not be negative"})
		}
		src = AspectSet{AspectSetID: w.AspectSetID, Filter: w.Filter}
	default:
		return nil, []FieldError{{Field: path + ".kind", Message: fmt.Sprintf("unknown data source kind %q", w.Kind)}}
	}
	return src, errs
}

// MarshalDataSource encodes s with its kind discriminator.
func MarshalDataSource(s DataSource) ([]byte, error) {
	w, err := toSourceWire(s)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

func UnmarshalDataSource(data []byte) (DataSource, error) {
	var w sourceWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decoding data source: %w", err)
	}
	src, errs := w.source("dataSource")
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return src, nil
}
