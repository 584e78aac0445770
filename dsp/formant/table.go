package formant

// AlphaTable maps phoneme labels to formant warp factors.
//
// Alpha > 1 raises perceived formant frequencies, alpha < 1 lowers
// them. Labels absent from the table resolve to 1 (pass-through).
type AlphaTable map[string]float64

// DefaultAlphaTable returns the built-in vowel warp table.
func DefaultAlphaTable() AlphaTable {
	return AlphaTable{
		"i": 1.10,
		"ɪ": 1.05,
		"e": 1.08,
		"ɛ": 1.00,
		"æ": 0.95,
		"ɑ": 0.90,
		"ɒ": 0.92,
		"ɔ": 0.95,
		"o": 1.00,
		"ʊ": 0.97,
		"u": 0.93,
		"ʌ": 1.05,
		"ə": 1.00,
		"ɚ": 1.00,
		"ɝ": 1.00,
	}
}

// Alpha returns the warp factor for label, defaulting to 1 for
// unrecognized labels.
func (t AlphaTable) Alpha(label string) float64 {
	if a, ok := t[label]; ok {
		return a
	}

	return 1
}

// Scaled returns a copy of the table with every factor multiplied by m.
func (t AlphaTable) Scaled(m float64) AlphaTable {
	out := make(AlphaTable, len(t))
	for k, v := range t {
		out[k] = v * m
	}

	return out
}
