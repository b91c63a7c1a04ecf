package model

type Shop struct {
	ShopID      string `json:"shopId"`
	ShopName    string `json:"shopName"`
	ShopAddress string `json:"shopAddress,omitempty"`
}

type DashboardSummary struct {
	TotalMarketers    int `json:"totalMarketers"`
	CurrentlyLoggedIn int `json:"currentlyLoggedIn"`
}

type Activity struct {
	Time         string `json:"time"`
	MarketerName string `json:"marketerName"`
	Action       string `json:"action"`
	Location     string `json:"location"`
}

type Overview struct {
	Summary        DashboardSummary `json:"summary"`
	RecentActivity []Activity       `json:"recentActivity"`
}

type Marketer struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	AssignedShop string `json:"assignedShop"`
	Status       string `json:"status"`
	LastLogin    string `json:"lastLogin"`
	HoursToday   string `json:"hoursToday"`
}

type ActiveMarketer struct {
	Name           string `json:"name"`
	ShopName       string `json:"shopName"`
	Coordinates    string `json:"coordinates"`
	ElapsedSeconds int64  `json:"elapsedSeconds"`
}

type NewShop struct {
	ShopName           string `json:"shopName"`
	ShopAddress        string `json:"shopAddress"`
	RegisteredByHRID   string `json:"registeredByHRId"`
	RegisteredByHRName string `json:"registeredByHRName"`
}

type NewMarketer struct {
	FullName           string `json:"fullName"`
	Username           string `json:"username"`
	Password           string `json:"password"`
	ShopID             string `json:"shopId"`
	RegisteredByHRID   string `json:"registeredByHRId"`
	RegisteredByHRName string `json:"registeredByHRName"`
}
