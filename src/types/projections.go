package types

// Role-specific profile projections. The caller selects the projection for
// the actor's variant explicitly; serialization never branches on a role
// field at runtime.

type APIResponseCustomer struct {
	ID    uint   `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Coins int64  `json:"coins"`
}

type APIResponseVendor struct {
	ID            uint    `json:"id"`
	Name          string  `json:"name,omitempty"`
	Email         string  `json:"email,omitempty"`
	Phone         string  `json:"phone,omitempty"`
	AverageRating float64 `json:"average_rating"`
	RatingCount   int64   `json:"rating_count"`
}

type APIResponseAdmin struct {
	ID    uint   `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  Role   `json:"role"`
}
