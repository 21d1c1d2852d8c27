package filestack

// AllowedAttrs maps each transformation task to the attribute keys it accepts.
// Keys are case-sensitive. Both the short and long spelling of each attribute
// are listed.
var AllowedAttrs = map[string][]string{
	"border": {
		"b", "c", "w",
		"background", "color", "width",
	},
	"circle": {
		"b", "background",
	},
	"crop": {
		"d", "dim",
	},
	"detect_faces": {
		"c", "e", "n", "N",
		"color", "export", "minSize", "maxSize",
	},
	"polaroid": {
		"b", "c", "r",
		"background", "color", "rotate",
	},
	"resize": {
		"w", "h", "f", "a",
		"width", "height", "fit", "align",
	},
	"rounded_corners": {
		"b", "l", "r",
		"background", "blur", "radius",
	},
	"rotate": {
		"b", "d", "e",
		"background", "deg", "exif",
	},
	"shadow": {
		"b", "l", "o", "v",
		"background", "blur", "opacity", "vector",
	},
	"torn_edges": {
		"b", "s",
		"background", "spread",
	},
	"vignette": {
		"a", "b", "m",
		"amount", "background", "blurmode",
	},
	"watermark": {
		"f", "p", "s",
		"file", "position", "size",
	},
}

// IsAllowedAttr reports whether task accepts the attribute key.
func IsAllowedAttr(task, key string) bool {
	for _, a := range AllowedAttrs[task] {
		if a == key {
			return true
		}
	}
	return false
}
