package wheel

const (
	StandardNatalWheel  = "Standard Natal Wheel"
	VedicNakshatraWheel = "Vedic Nakshatra Wheel"
	NavamsaOverlayWheel = "Navamsa Overlay Wheel"

	natalLayer   = "natal"
	majorAspects = "major"
	navamsaVarga = "D9"
)

// Builtins returns fresh copies of the wheels every registry starts with.
func Builtins() []*Definition {
	return []*Definition{
		{
			Name:        StandardNatalWheel,
			Version:     CurrentVersion,
			Description: "Tropical zodiac, houses, planets and major aspects.",
			Rings: []Ring{
				{Slug: "aspects", Type: "aspects", Label: "Aspects", OrderIndex: 0, RadiusInner: 0, RadiusOuter: 0.45, DataSource: AspectSet{AspectSetID: majorAspects}},
				{Slug: "planets", Type: "planets", Label: "Planets", OrderIndex: 1, RadiusInner: 0.45, RadiusOuter: 0.7, DataSource: LayerPlanets{LayerID: natalLayer}},
				{Slug: "houses", Type: "houses", Label: "Houses", OrderIndex: 2, RadiusInner: 0.7, RadiusOuter: 0.85, DataSource: LayerHouses{LayerID: natalLayer}},
				{Slug: "signs", Type: "signs", Label: "Signs", OrderIndex: 3, RadiusInner: 0.85, RadiusOuter: 1, DataSource: StaticZodiac{}},
			},
		},
		{
			Name:        VedicNakshatraWheel,
			Version:     CurrentVersion,
			Description: "Sidereal signs with the 27 nakshatras on the rim.",
			Rings: []Ring{
				{Slug: "planets", Type: "planets", Label: "Grahas", OrderIndex: 0, RadiusInner: 0.3, RadiusOuter: 0.6, DataSource: LayerPlanets{LayerID: natalLayer}},
				{Slug: "houses", Type: "houses", Label: "Bhavas", OrderIndex: 1, RadiusInner: 0.6, RadiusOuter: 0.76, DataSource: LayerHouses{LayerID: natalLayer}},
				{Slug: "signs", Type: "signs", Label: "Rashis", OrderIndex: 2, RadiusInner: 0.76, RadiusOuter: 0.88, DataSource: StaticZodiac{}},
				{Slug: "nakshatras", Type: "nakshatras", Label: "Nakshatras", OrderIndex: 3, RadiusInner: 0.88, RadiusOuter: 1, DataSource: StaticNakshatras{}},
			},
		},
		{
			Name:        NavamsaOverlayWheel,
			Version:     CurrentVersion,
			Description: "Natal planets with their navamsa (D9) positions overlaid.",
			Rings: []Ring{
				{Slug: "houses", Type: "houses", Label: "Houses", OrderIndex: 0, RadiusInner: 0.2, RadiusOuter: 0.35, DataSource: LayerHouses{LayerID: natalLayer}},
				{Slug: "navamsa", Type: "planets", Label: "Navamsa", OrderIndex: 1, RadiusInner: 0.35, RadiusOuter: 0.6, DataSource: LayerVargaPlanets{LayerID: natalLayer, VargaID: navamsaVarga}},
				{Slug: "planets", Type: "planets", Label: "Natal", OrderIndex: 2, RadiusInner: 0.6, RadiusOuter: 0.88, DataSource: LayerPlanets{LayerID: natalLayer}},
				{Slug: "signs", Type: "signs", Label: "Signs", OrderIndex: 3, RadiusInner: 0.88, RadiusOuter: 1, DataSource: StaticZodiac{}},
			},
		},
	}
}
