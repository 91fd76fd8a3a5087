package ffmpeg

import "strings"

// Profile bundles the encoding settings applied to every segment of a plan.
type Profile struct {
	Encoder    string
	Quality    string
	CRF        int
	SkipEncode bool
}

// NewProfile derives a profile from the encoder name, quality level, and the
// asset's width. CRF follows the resolution table with quality adjustments,
// clamped to [15, 35].
func NewProfile(encoder, quality string, width int, skipEncode bool) Profile {
	return Profile{
		Encoder:    encoder,
		Quality:    strings.ToLower(strings.TrimSpace(quality)),
		CRF:        CRFFor(ResolutionClass(width), quality),
		SkipEncode: skipEncode,
	}
}

// ResolutionClass buckets a frame width into the CRF lookup classes.
func ResolutionClass(width int) string {
	switch {
	case width >= 7000:
		return "8k"
	case width >= 3000:
		return "4k"
	case width >= 1900:
		return "fhd"
	default:
		return "hd"
	}
}

// CRFFor returns the CRF for a resolution class and quality level.
func CRFFor(resolution, quality string) int {
	base := map[string]int{
		"hd":  23,
		"fhd": 23,
		"4k":  25,
		"8k":  28,
	}
	adjustment := map[string]int{
		"low":    5,
		"medium": 0,
		"high":   -3,
	}

	crf := 23
	if v, ok := base[strings.ToLower(strings.TrimSpace(resolution))]; ok {
		crf = v
	}
	if v, ok := adjustment[strings.ToLower(strings.TrimSpace(quality))]; ok {
		crf += v
	}
	if crf < 15 {
		crf = 15
	}
	if crf > 35 {
		crf = 35
	}
	return crf
}

// Preset maps a quality level to the ffmpeg preset name.
func (p Profile) Preset() string {
	switch p.Quality {
	case "low":
		return "fast"
	case "high":
		return "slow"
	default:
		return "medium"
	}
}
