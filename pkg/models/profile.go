package models

// Profile is the signed-in buyer profile; only the location is consumed here.
type Profile struct {
	ID       FlexString       `json:"id"`
	Name     string           `json:"name"`
	Location *ProfileLocation `json:"location,omitempty"`
}

// ProfileLocation mirrors the marketplace's stored buyer location.
type ProfileLocation struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Address   string   `json:"address,omitempty"`
}
