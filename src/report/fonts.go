package report

import "os"

// Fallback font locations checked after the configured candidates. Korean
// glyphs need a CJK TrueType font; without one the report falls back to the
// built-in core font and romanized headings.
var defaultFontPaths = []string{
	"/usr/share/fonts/truetype/nanum/NanumGothic.ttf",
	"/usr/share/fonts/truetype/nanum/NanumBarunGothic.ttf",
	"/usr/share/fonts/truetype/nanum-gothic/NanumGothic.ttf",
	"/Library/Fonts/NanumGothic.ttf",
	"/System/Library/Fonts/AppleGothic.ttf",
	"C:/Windows/Fonts/malgun.ttf",
	"NanumGothic.ttf",
}

// FindCJKFont returns the first existing font file, configured paths first.
func FindCJKFont(paths []string) (string, bool) {
	candidates := append(append([]string{}, paths...), defaultFontPaths...)
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}
