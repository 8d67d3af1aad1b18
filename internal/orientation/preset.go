package orientation

import (
	"sort"
	"strings"
)

// Preset is a named frame and lock set. It carries no behaviour of its own.
type Preset struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Frame       ViewFrame  `json:"frame"`
	Locks       []LockRule `json:"locks,omitempty"`
}

func BuiltinPresets() []Preset {
	return []Preset{
		{
			Name:        "asc-left",
			Description: "Ascendant fixed on the left horizon, houses fixed on screen",
			Frame: ViewFrame{
				ReferenceFrame: FrameHouses,
				Anchor:         AngleAnchor{Type: AngleASC},
				Model:          AnchorRelative{ScreenAngleDeg: 180, Direction: CounterClockwise},
			},
			Locks: []LockRule{
				{Subject: HouseSubject{}, Frame: LockScreen, Mode: LockExact},
				{Subject: AngleSubject{}, Frame: LockScreen, Mode: LockExact},
			},
		},
		{
			Name:        "aries-left",
			Description: "0 Aries fixed on the left, signs fixed on screen",
			Frame: ViewFrame{
				ReferenceFrame: FrameSigns,
				Anchor:         SignAnchor{Index: 0},
				Model:          AnchorRelative{ScreenAngleDeg: 180, Direction: CounterClockwise},
			},
			Locks: []LockRule{
				{Subject: SignSubject{}, Frame: LockScreen, Mode: LockExact},
			},
		},
		{
			Name:        "mc-top",
			Description: "Midheaven fixed at the top of the wheel",
			Frame: ViewFrame{
				ReferenceFrame: FrameAngles,
				Anchor:         AngleAnchor{Type: AngleMC},
				Model:          AnchorRelative{ScreenAngleDeg: 270, Direction: CounterClockwise},
			},
			Locks: []LockRule{
				{Subject: AngleSubject{Types: []AngleType{AngleMC, AngleIC}}, Frame: LockScreen, Mode: LockExact},
			},
		},
		{
			Name:        "sun-left",
			Description: "Sun fixed on the left, houses follow the Sun",
			Frame: ViewFrame{
				ReferenceFrame: FrameEcliptic,
				Anchor:         ObjectAnchor{ID: "Sun"},
				Model:          AnchorRelative{ScreenAngleDeg: 180, Direction: CounterClockwise},
			},
			Locks: []LockRule{
				{Subject: ObjectSubject{IDs: []ObjectID{"Sun"}}, Frame: LockScreen, Mode: LockExact},
				{Subject: HouseSubject{}, Frame: LockWorld, Mode: LockFollowAnchor},
			},
		},
	}
}

// LookupPreset finds a built-in preset by name, ignoring case.
func LookupPreset(name string) (Preset, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, preset := range BuiltinPresets() {
		if preset.Name == key {
			return preset, true
		}
	}
	return Preset{}, false
}

func PresetNames() []string {
	presets := BuiltinPresets()
	names := make([]string, 0, len(presets))
	for _, preset := range presets {
		names = append(names, preset.Name)
	}
	sort.Strings(names)
	return names
}
