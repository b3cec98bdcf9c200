package weather

import "strings"

// gazetteer is the bundled table of named agricultural regions. Lookup
// is case-insensitive and substring-tolerant; unresolved queries fall
// back to edit-distance ranking over this table.
var gazetteer = []Location{
	{"Punjab, India", 31.1471, 75.3412},
	{"Haryana, India", 29.0588, 76.0856},
	{"Uttar Pradesh, India", 26.8467, 80.9462},
	{"Maharashtra, India", 19.7515, 75.7139},
	{"Karnataka, India", 15.3173, 75.7139},
	{"Tamil Nadu, India", 11.1271, 78.6569},
	{"Andhra Pradesh, India", 15.9129, 79.7400},
	{"Telangana, India", 18.1124, 79.0193},
	{"Gujarat, India", 22.2587, 71.1924},
	{"Rajasthan, India", 27.0238, 74.2179},
	{"Madhya Pradesh, India", 22.9734, 78.6569},
	{"Bihar, India", 25.0961, 85.3131},
	{"West Bengal, India", 22.9868, 87.8550},
	{"Kerala, India", 10.8505, 76.2711},
	{"Odisha, India", 20.9517, 85.0985},
	{"Assam, India", 26.2006, 92.9376},
	{"Iowa, USA", 41.8780, -93.0977},
	{"Nebraska, USA", 41.4925, -99.9018},
	{"Kansas, USA", 39.0119, -98.4842},
	{"Illinois, USA", 40.6331, -89.3985},
	{"Indiana, USA", 40.2672, -86.1349},
	{"California Central Valley, USA", 36.7783, -119.4179},
	{"Texas Panhandle, USA", 35.2220, -101.8313},
	{"Minnesota, USA", 46.7296, -94.6859},
	{"Ohio, USA", 40.4173, -82.9071},
	{"North Dakota, USA", 47.5515, -101.0020},
	{"Punjab, Pakistan", 30.3753, 69.3451},
	{"Sindh, Pakistan", 25.8943, 68.5247},
	{"Nile Delta, Egypt", 30.7865, 31.0004},
	{"Gezira, Sudan", 14.8927, 33.4317},
	{"Rift Valley, Kenya", 0.0236, 36.0800},
	{"Western Cape, South Africa", -33.2278, 21.8569},
	{"Gauteng, South Africa", -26.2708, 28.1123},
	{"Lagos, Nigeria", 6.5244, 3.3792},
	{"Kano, Nigeria", 12.0022, 8.5920},
	{"Addis Ababa Highlands, Ethiopia", 9.1450, 40.4897},
	{"Nile Valley, Sudan", 19.6158, 30.2176},
	{"Sao Paulo State, Brazil", -23.5505, -46.6333},
	{"Mato Grosso, Brazil", -12.6819, -56.9211},
	{"Parana, Brazil", -24.8932, -51.8360},
	{"Pampas, Argentina", -36.6167, -62.2500},
	{"Cordoba, Argentina", -31.4201, -64.1888},
	{"Central Valley, Chile", -35.6751, -71.5430},
	{"Andean Highlands, Peru", -13.1631, -72.5450},
	{"Antioquia, Colombia", 6.2442, -75.5812},
	{"Sichuan Basin, China", 30.6171, 104.0633},
	{"North China Plain, China", 36.3427, 114.3653},
	{"Yangtze Delta, China", 31.2304, 121.4737},
	{"Mekong Delta, Vietnam", 10.0333, 105.7833},
	{"Central Plain, Thailand", 15.8700, 100.9925},
	{"Java, Indonesia", -7.6145, 110.7122},
	{"Luzon, Philippines", 16.0439, 120.3331},
	{"Punjab Plains, Bangladesh", 23.6850, 90.3563},
	{"Nile Valley, Egypt", 26.8206, 30.8025},
	{"Andalusia, Spain", 37.5443, -4.7278},
	{"Po Valley, Italy", 45.1847, 10.7917},
	{"Champagne, France", 49.0430, 3.9650},
	{"Bavaria, Germany", 48.7904, 11.4979},
	{"East Anglia, United Kingdom", 52.2405, 0.9027},
	{"Wielkopolska, Poland", 52.4064, 16.9252},
	{"Ukraine Steppe, Ukraine", 48.3794, 31.1656},
	{"Southern Ontario, Canada", 43.6532, -79.3832},
	{"Saskatchewan, Canada", 52.9399, -106.4509},
	{"Murray-Darling Basin, Australia", -34.2500, 143.0000},
	{"Canterbury Plains, New Zealand", -43.5320, 172.6306},
}

// canonicalize lowercases and trims a lookup query for matching.
func canonicalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// resolve finds the gazetteer entry matching query, exact or
// substring, case-insensitively. ok is false if nothing matches.
func resolve(query string) (Location, bool) {
	q := canonicalize(query)
	if q == "" {
		return Location{}, false
	}

	for _, loc := range gazetteer {
		if canonicalize(loc.CanonicalName) == q {
			return loc, true
		}
	}
	for _, loc := range gazetteer {
		name := canonicalize(loc.CanonicalName)
		if strings.Contains(name, q) || strings.Contains(q, name) {
			return loc, true
		}
	}
	return Location{}, false
}

// nearestCandidates returns the n gazetteer entries with the smallest
// edit distance to query, ascending by distance.
func nearestCandidates(query string, n int) []Candidate {
	q := canonicalize(query)

	candidates := make([]Candidate, 0, len(gazetteer))
	for _, loc := range gazetteer {
		d := levenshtein(q, canonicalize(loc.CanonicalName))
		candidates = append(candidates, Candidate{CanonicalName: loc.CanonicalName, Distance: d})
	}

	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j].Distance < candidates[j-1].Distance; j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}

	if n > len(candidates) {
		n = len(candidates)
	}
	return candidates[:n]
}

// levenshtein computes the edit distance between a and b.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			min := del
			if ins < min {
				min = ins
			}
			if sub < min {
				min = sub
			}
			curr[j] = min
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}
