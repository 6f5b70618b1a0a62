package models

// Supplier is the subset of the marketplace user record used to label listings.
type Supplier struct {
	ID    FlexString `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
}

// DisplayName picks name, then email, then the supplier id itself.
func (s Supplier) DisplayName(fallbackID string) string {
	if s.Name != "" {
		return s.Name
	}
	if s.Email != "" {
		return s.Email
	}
	return fallbackID
}
