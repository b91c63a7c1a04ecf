package model

// User types accepted by the backend login action.
const (
	UserTypeHR       = "hr"
	UserTypeMarketer = "marketer"
)

// MarketerData is the identity blob the backend returns for a marketer login
// and the agent keeps in persisted storage for the session lifetime.
type MarketerData struct {
	MarketerID string `json:"marketerId"`
	FullName   string `json:"fullName"`
	ShopID     string `json:"shopId"`
	ShopName   string `json:"shopName"`
}

// Identity is everything persisted after a successful login.
type Identity struct {
	UserType string        `json:"userType"`
	Username string        `json:"username"`
	FullName string        `json:"fullName"`
	UserID   string        `json:"userId"`
	ShopID   string        `json:"shopId,omitempty"`
	ShopName string        `json:"shopName,omitempty"`
	Marketer *MarketerData `json:"marketerData,omitempty"`
}

func (i Identity) IsMarketer() bool {
	return i.UserType == UserTypeMarketer
}
