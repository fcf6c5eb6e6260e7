package progress

import "time"

// GenerationScript is the status stream shown while an image request is in
// flight. Percentages front-load quickly and slow near the end so the bar
// keeps moving without finishing ahead of the real call.
func GenerationScript() Script {
	return Script{
		Steps: []Step{
			{Status: "Preparing your request", Percent: 8},
			{Status: "Resolving personalization tokens", Percent: 18},
			{Status: "Contacting the image service", Percent: 32},
			{Status: "Composing the scene", Percent: 48},
			{Status: "Rendering details", Percent: 63},
			{Status: "Refining colors and lighting", Percent: 77},
			{Status: "Applying final touches", Percent: 88},
			{Status: "Almost there", Percent: 96},
			{Status: "Done", Percent: 100},
		},
		Interval: 450 * time.Millisecond,
		Jitter:   250 * time.Millisecond,
		Ceiling:  20 * time.Second,
	}
}

// ReasoningScript is the auxiliary narration stream. It runs beside the
// generation stream but shares nothing with it; cancelling one does not
// touch the other.
func ReasoningScript() Script {
	return Script{
		Steps: []Step{
			{Status: "Reading the prompt for subject and mood", Percent: 12},
			{Status: "Choosing a composition that fits the subject", Percent: 28},
			{Status: "Balancing foreground and background elements", Percent: 45},
			{Status: "Selecting a palette to match the requested style", Percent: 62},
			{Status: "Checking proportions and perspective", Percent: 80},
			{Status: "Reviewing the result against the prompt", Percent: 100},
		},
		Interval: 700 * time.Millisecond,
		Jitter:   400 * time.Millisecond,
		Ceiling:  20 * time.Second,
	}
}
