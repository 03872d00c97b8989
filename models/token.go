package models

// TokenResponse is returned by the auth token and refresh endpoints.
type TokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
	EmployeeID   string `json:"employeeID"`
}
