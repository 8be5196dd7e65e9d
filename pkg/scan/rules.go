package scan

// DefaultRules returns the built-in detection rules in reporting order.
// Each call builds fresh rule values; DefaultRegistry compiles them once.
func DefaultRules() []DetectionRule {
	return []DetectionRule{
		// PII
		ssnRule(),
		phoneRule(),
		emailRule(),
		dodIDRule(),
		dobRule(),
		addressRule(),

		// Markings
		classificationRule(),
		cuiMarkingRule(),

		// Location
		gridCoordRule(),
		latLongRule(),

		// Network identifiers
		ipAddressRule(),
		macAddressRule(),
		milURLRule(),
	}
}
