package tesseract

import (
	"strings"

	"golang.org/x/text/language"

	"github.com/sells-group/docr/internal/docr"
)

// Trained data that is not a recognizer language.
var nonLanguages = map[string]bool{"osd": true, "equ": true, "snum": true}

// ISO 639-2/B codes still used by some trained-data packs.
var bibliographic = map[string]string{
	"alb": "sqi", "arm": "hye", "baq": "eus", "bur": "mya", "chi": "zho",
	"cze": "ces", "dut": "nld", "fre": "fra", "geo": "kat", "ger": "deu",
	"gre": "ell", "ice": "isl", "mac": "mkd", "may": "msa", "per": "fas",
	"rum": "ron", "slo": "slk", "tib": "bod", "wel": "cym",
}

var rtlScripts = map[string]bool{
	"Adlm": true, "Arab": true, "Hebr": true, "Mand": true, "Nkoo": true,
	"Rohg": true, "Samr": true, "Syrc": true, "Thaa": true,
}

// TagForCode maps a Tesseract trained-data name to a lowercase BCP-47 tag:
// "eng" -> "en", "chi_sim" -> "zh-hans", "srp_latn" -> "sr-latn". Historic,
// vertical and non-language models report false.
func TagForCode(code string) (string, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" || nonLanguages[code] {
		return "", false
	}

	parts := strings.Split(code, "_")
	base := parts[0]
	if alt, ok := bibliographic[base]; ok {
		base = alt
	}
	b, err := language.ParseBase(base)
	if err != nil {
		return code, true
	}

	parts = parts[1:]
	if len(parts) == 0 {
		return strings.ToLower(b.String()), true
	}
	if len(parts) > 1 {
		return "", false
	}

	var script language.Script
	switch parts[0] {
	case "sim":
		script = language.MustParseScript("Hans")
	case "tra":
		script = language.MustParseScript("Hant")
	case "old", "frak", "vert":
		return "", false
	default:
		script, err = language.ParseScript(parts[0])
		if err != nil {
			return "", false
		}
	}

	tag, err := language.Compose(b, script)
	if err != nil {
		return "", false
	}
	return strings.ToLower(tag.String()), true
}

// DirectionOf derives the reading direction of a tag from its (likely) script.
func DirectionOf(tag string) docr.Direction {
	t, err := language.Parse(tag)
	if err != nil {
		return docr.LeftToRight
	}
	script, conf := t.Script()
	if conf == language.No {
		return docr.LeftToRight
	}
	if rtlScripts[script.String()] {
		return docr.RightToLeft
	}
	return docr.LeftToRight
}
