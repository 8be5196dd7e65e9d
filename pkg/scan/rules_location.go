package scan

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// MGRS: zone number, latitude band, 100km square, easting/northing.
	// The spaced alternative is listed first so it wins over the compact
	// form when both could apply.
	mgrsPattern = regexp.MustCompile(`\b\d{1,2}[C-HJ-NP-X] ?[A-HJ-NP-Z]{2} ?(?:\d{1,5} \d{1,5}|\d{2,10})\b`)

	latLongDecimalPattern = regexp.MustCompile(`(?:[-+]|\b)\d{1,2}\.\d{2,}°?\s*[NS]?\s*,\s*[-+]?\d{1,3}\.\d{2,}°?(?:\s*[EW]\b)?`)
	latLongDMSPattern     = regexp.MustCompile(`\b\d{1,3}°\s?\d{1,2}['′]\s?\d{1,2}(?:\.\d+)?(?:"|″|'')?(?:\s?[NSEW]\b)?`)

	decimalPart = regexp.MustCompile(`[-+]?\d+\.(\d+)`)
	dmsParts    = regexp.MustCompile(`(\d{1,3})°\s?(\d{1,2})['′]\s?(\d{1,2})`)
)

const (
	mgrsMinZone            = 1
	mgrsMaxZone            = 60
	mgrsMinDigits          = 6
	latLongMinFractionDigs = 4
)

func gridCoordRule() DetectionRule {
	return DetectionRule{
		Type:     TypeGridCoord,
		Category: CategoryPII,
		Label:    "MGRS Grid Coordinate",
		Severity: SeverityMedium,
		Patterns: []*regexp.Regexp{mgrsPattern},
		Validate: validMGRS,
	}
}

func latLongRule() DetectionRule {
	return DetectionRule{
		Type:     TypeLatLong,
		Category: CategoryPII,
		Label:    "Latitude/Longitude",
		Severity: SeverityMedium,
		Patterns: []*regexp.Regexp{latLongDecimalPattern, latLongDMSPattern},
		Validate: validLatLong,
	}
}

// validMGRS requires a zone of 1 to 60 and an easting and northing of equal
// precision with at least mgrsMinDigits digits between them.
func validMGRS(value, _ string, _ int) bool {
	i := 0
	for i < len(value) && value[i] >= '0' && value[i] <= '9' {
		i++
	}
	zone, err := strconv.Atoi(value[:i])
	if err != nil || zone < mgrsMinZone || zone > mgrsMaxZone {
		return false
	}

	// band letter and 100km square
	letters := 0
	for i < len(value) && letters < 3 {
		if value[i] != ' ' {
			letters++
		}
		i++
	}
	numeric := strings.TrimSpace(value[i:])

	digits := strings.Fields(numeric)
	switch len(digits) {
	case 1:
		if len(numeric)%2 != 0 {
			return false
		}
	case 2:
		if len(digits[0]) != len(digits[1]) {
			return false
		}
	default:
		return false
	}
	return len(strings.Join(digits, "")) >= mgrsMinDigits
}

func validLatLong(value, _ string, _ int) bool {
	if dmsParts.MatchString(value) {
		return validDMS(value)
	}

	parts := decimalPart.FindAllStringSubmatch(value, 2)
	if len(parts) != 2 {
		return false
	}
	for _, p := range parts {
		if len(p[1]) < latLongMinFractionDigs {
			return false
		}
	}

	lat, err := strconv.ParseFloat(parts[0][0], 64)
	if err != nil || lat < -90 || lat > 90 {
		return false
	}
	lon, err := strconv.ParseFloat(parts[1][0], 64)
	if err != nil || lon < -180 || lon > 180 {
		return false
	}
	return true
}

func validDMS(value string) bool {
	m := dmsParts.FindStringSubmatch(value)
	if m == nil {
		return false
	}
	deg, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	secs, _ := strconv.Atoi(m[3])
	return deg <= 180 && mins < 60 && secs < 60
}
