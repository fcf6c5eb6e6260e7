package generation

import "strings"

// appendQualifier appends a qualifier to the prompt unless the prompt already
// contains it (case-insensitive). Repeated normalization of an already
// resolved prompt therefore never duplicates qualifiers.
func appendQualifier(prompt, qualifier string) string {
	qualifier = strings.TrimSpace(qualifier)
	if qualifier == "" {
		return prompt
	}
	if strings.Contains(strings.ToLower(prompt), strings.ToLower(qualifier)) {
		return prompt
	}
	if strings.TrimSpace(prompt) == "" {
		return qualifier
	}
	return strings.TrimRight(prompt, " ") + ", " + qualifier
}

// styleQualifier renders a style option as prompt text, e.g. "watercolor"
// becomes "in watercolor style".
func styleQualifier(style string) string {
	style = strings.TrimSpace(style)
	if style == "" {
		return ""
	}
	return "in " + style + " style"
}

// aspectRatioQualifier renders an aspect ratio as prompt text, e.g. "16:9"
// becomes "16:9 aspect ratio".
func aspectRatioQualifier(ratio string) string {
	ratio = strings.TrimSpace(ratio)
	if ratio == "" {
		return ""
	}
	return ratio + " aspect ratio"
}

// imageCount clamps the requested image count to a sane bound, defaulting
// to 1.
func imageCount(count int) int {
	if count < 1 {
		return 1
	}
	if count > 4 {
		return 4
	}
	return count
}
