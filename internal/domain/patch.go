package domain

// patched returns *p when the patch sets the field, else the current value.
func patched[T any](current T, p *T) T {
	if p != nil {
		return *p
	}
	return current
}

// FirstNonEmpty returns the first non-empty string. The record API sends
// some fields under two names.
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
