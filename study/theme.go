package study

// ColorPlacement says where a theme's color is applied.
type ColorPlacement string

const (
	PlacementHeader     ColorPlacement = "header"
	PlacementBackground ColorPlacement = "background"
	PlacementFooter     ColorPlacement = "footer"
)

// Valid reports whether p is empty or one of the known placements.
func (p ColorPlacement) Valid() bool {
	switch p {
	case "", PlacementHeader, PlacementBackground, PlacementFooter:
		return true
	}
	return false
}

// ImageTheme describes the image shown with a step.
type ImageTheme interface {
	Placement() ColorPlacement
}

// FetchableImageTheme names a single image in a resource bundle.
type FetchableImageTheme struct {
	ImageName      string         `json:"imageName"`
	Bundle         string         `json:"bundle,omitempty"`
	ColorPlacement ColorPlacement `json:"colorPlacement,omitempty"`
}

// AnimationImageTheme cycles through images. Duration is in seconds.
type AnimationImageTheme struct {
	ImageNames     []string       `json:"imageNames"`
	Duration       float64        `json:"duration,omitempty"`
	ColorPlacement ColorPlacement `json:"colorPlacement,omitempty"`
}

func (t FetchableImageTheme) Placement() ColorPlacement { return t.ColorPlacement }
func (t AnimationImageTheme) Placement() ColorPlacement { return t.ColorPlacement }

// ResourceResolver maps image names to platform resource ids.
type ResourceResolver interface {
	ResourceID(name string) (int, bool)
}

// ResourceMap is a ResourceResolver backed by a map.
type ResourceMap map[string]int

func (m ResourceMap) ResourceID(name string) (int, bool) {
	id, ok := m[name]
	return id, ok
}

// ImageThemeView is what the presentation layer needs from a theme.
type ImageThemeView struct {
	ColorPlacement  ColorPlacement `json:"colorPlacement,omitempty"`
	ImageResourceID int            `json:"imageResourceId"`
}

// ResolveTheme builds the view of theme. The resource id is 0 when theme is
// nil, the resolver is nil, or the image is unknown to the resolver. For an
// animation the first frame is resolved.
func ResolveTheme(theme ImageTheme, r ResourceResolver) ImageThemeView {
	if theme == nil {
		return ImageThemeView{}
	}
	v := ImageThemeView{ColorPlacement: theme.Placement()}
	if r == nil {
		return v
	}
	var name string
	switch t := theme.(type) {
	case FetchableImageTheme:
		name = t.ImageName
	case *FetchableImageTheme:
		name = t.ImageName
	case AnimationImageTheme:
		if len(t.ImageNames) > 0 {
			name = t.ImageNames[0]
		}
	case *AnimationImageTheme:
		if len(t.ImageNames) > 0 {
			name = t.ImageNames[0]
		}
	}
	if name == "" {
		return v
	}
	if id, ok := r.ResourceID(name); ok {
		v.ImageResourceID = id
	}
	return v
}
