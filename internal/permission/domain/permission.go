// Package domain defines authorization domain models and set primitives.
//
// Permissions are opaque capability strings; possession is plain set
// membership with no hierarchy and no wildcard semantics. The ceiling
// intersection implemented by Intersect is the single most security-critical
// invariant in the system: a credential's scope can only ever narrow its
// identity's base permission set, never widen it.
package domain

// Intersect returns the set intersection of scope and base, preserving the
// order of scope. This is the least-privilege ceiling: permissions requested
// by a credential's scope that are not in the owning identity's base set are
// silently discarded.
func Intersect(scope, base []string) []string {
	baseSet := make(map[string]struct{}, len(base))
	for _, p := range base {
		baseSet[p] = struct{}{}
	}

	result := make([]string, 0, len(scope))
	seen := make(map[string]struct{}, len(scope))
	for _, p := range scope {
		if _, inBase := baseSet[p]; !inBase {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		result = append(result, p)
	}
	return result
}

// ContainsAll reports whether held contains every element of required.
// An empty required set is trivially satisfied.
func ContainsAll(held, required []string) bool {
	return len(Missing(held, required)) == 0
}

// Missing returns the elements of required that are absent from held,
// preserving required's order. Used for audit events on denial; the list is
// never exposed to callers.
func Missing(held, required []string) []string {
	heldSet := make(map[string]struct{}, len(held))
	for _, p := range held {
		heldSet[p] = struct{}{}
	}

	var missing []string
	for _, p := range required {
		if _, ok := heldSet[p]; !ok {
			missing = append(missing, p)
		}
	}
	return missing
}

// Normalize removes duplicates from a permission list, preserving first-seen
// order. A nil input stays nil so callers can keep the "no scope configured"
// distinction.
func Normalize(permissions []string) []string {
	if permissions == nil {
		return nil
	}

	result := make([]string, 0, len(permissions))
	seen := make(map[string]struct{}, len(permissions))
	for _, p := range permissions {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		result = append(result, p)
	}
	return result
}
