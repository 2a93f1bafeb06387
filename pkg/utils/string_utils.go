package utils

// NewNullString returns a pointer to s, or nil when s is empty.
// Used for optional filters and columns that should stay NULL when blank.
func NewNullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
