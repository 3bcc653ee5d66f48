package sanitizer

import "slices"

func NormalizeStringSlice(items []string, normalizer Strategy) []string {
	if len(items) == 0 {
		return []string{}
	}

	seen := make(map[string]struct{}, len(items))
	result := make([]string, 0, len(items))

	for _, item := range items {
		normalized := normalizer(item)
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		result = append(result, normalized)
	}

	return result
}

// NormalizeIndices returns the distinct indices in ascending order. Negative values are kept
// so validation can reject them; the input slice is not modified.
func NormalizeIndices(indices []int) []int {
	if len(indices) == 0 {
		return []int{}
	}

	out := slices.Clone(indices)
	slices.Sort(out)
	return slices.Compact(out)
}
