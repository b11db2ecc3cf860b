package docr

import "strings"

// SupportedLanguages returns the engine's language tags, lowercased, in the
// order the engine enumerates them.
func SupportedLanguages(svc Service) ([]string, error) {
	langs, err := enumerate(svc)
	if err != nil {
		return nil, err
	}
	tags := make([]string, 0, len(langs))
	for _, l := range langs {
		tags = append(tags, l.Tag)
	}
	return tags, nil
}

// ResolveLanguage picks the engine language for a requested tag. An exact
// (case-insensitive) match wins; otherwise the first enumerated regional
// variant of the requested base language is used, e.g. "ar" -> "ar-eg".
// Enumeration order is kept as the engine returned it.
func ResolveLanguage(svc Service, requested string) (LanguageInfo, error) {
	tag := strings.ToLower(requested)

	langs, err := enumerate(svc)
	if err != nil {
		return LanguageInfo{}, err
	}

	for _, l := range langs {
		if l.Tag == tag {
			return l, nil
		}
	}

	prefix := tag + "-"
	for _, l := range langs {
		if strings.HasPrefix(l.Tag, prefix) {
			return l, nil
		}
	}

	return LanguageInfo{}, Operationf("Language '%s' is not supported by the OCR engine", tag)
}

func enumerate(svc Service) ([]LanguageInfo, error) {
	langs, err := svc.Languages()
	if err != nil {
		return nil, Classify(err)
	}
	out := make([]LanguageInfo, len(langs))
	for i, l := range langs {
		out[i] = LanguageInfo{Tag: strings.ToLower(l.Tag), Direction: l.Direction}
	}
	return out, nil
}
