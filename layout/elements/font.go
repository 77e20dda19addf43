package elements

import "strings"

// Font describes the rendering properties of a run of text.
type Font struct {
	Name        string
	Family      string
	Size        float64
	Colour      uint32
	Bold        bool
	Italic      bool
	Superscript bool
	Smallcaps   bool
}

// subsetPrefixLen is the length of a PDF subset tag, e.g. "ABCDEF+".
const subsetPrefixLen = 7

var variationSuffixes = []string{
	"-Bold", "-Italic", "-BoldItalic", "-Oblique", "-BoldOblique",
	"_SC", "Caps", "-Regular", "-Light", "-Medium", "-Black",
}

// DeriveFamily strips a subset prefix ("ABCDEF+Foo-Bold" -> "Foo") and any
// known variation suffix from a raw font name to recover the family name.
func DeriveFamily(name string) string {
	family := name
	if len(family) > subsetPrefixLen && family[6] == '+' {
		isSubsetTag := true
		for i := 0; i < 6; i++ {
			c := family[i]
			if c < 'A' || c > 'Z' {
				isSubsetTag = false
				break
			}
		}
		if isSubsetTag {
			family = family[subsetPrefixLen:]
		}
	}
	for {
		trimmed := family
		for _, suffix := range variationSuffixes {
			if strings.HasSuffix(trimmed, suffix) {
				trimmed = strings.TrimSuffix(trimmed, suffix)
			}
		}
		if trimmed == family {
			break
		}
		family = trimmed
	}
	return family
}

// NewFont builds a Font from a raw reader-supplied name, size, colour and
// flag bits (bit0=superscript, bit1=italic, bit4=bold per the PDF reader
// collaborator's contract), additionally recognising bold/italic by name
// suffix and smallcaps by name convention.
func NewFont(name string, size float64, colour uint32, flags uint32) Font {
	family := DeriveFamily(name)
	lower := strings.ToLower(name)
	bold := flags&(1<<4) != 0 || strings.Contains(lower, "bold")
	italic := flags&(1<<1) != 0 || strings.Contains(lower, "italic") || strings.Contains(lower, "oblique")
	superscript := flags&1 != 0
	smallcaps := strings.Contains(name, "SC") || strings.Contains(lower, "smallcaps") || strings.Contains(lower, "caps")
	return Font{
		Name:        name,
		Family:      family,
		Size:        size,
		Colour:      colour,
		Bold:        bold,
		Italic:      italic,
		Superscript: superscript,
		Smallcaps:   smallcaps,
	}
}

// SameFamily reports whether two fonts share a family and have sizes
// within the given tolerance.
func (f Font) SameFamily(other Font, sizeTolerance float64) bool {
	return f.Family == other.Family && absF(f.Size-other.Size) <= sizeTolerance
}

func absF(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
