package models

// Food item statuses.
const (
	StatusAvailable = "available"
	StatusClaimed   = "claimed"
	StatusExpired   = "expired"
)

// DonorInfo mirrors the joined profile columns returned alongside
// marketplace rows.
type DonorInfo struct {
	FullName string `json:"full_name"`
	UserType string `json:"user_type,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// FoodItem represents a posted surplus-food listing.
type FoodItem struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Quantity       int        `json:"quantity"`
	ExpiryDate     string     `json:"expiry_date,omitempty"`
	PickupLocation string     `json:"pickup_location"`
	Category       string     `json:"category,omitempty"`
	DietaryInfo    string     `json:"dietary_info,omitempty"`
	CreatedBy      string     `json:"created_by"`
	Status         string     `json:"status"`
	CreatedAt      string     `json:"created_at"`
	UpdatedAt      string     `json:"updated_at,omitempty"`
	Profiles       *DonorInfo `json:"profiles,omitempty"`
}

// FoodItemUpdate carries the mutable fields of a listing. Nil pointers
// mean "leave unchanged".
type FoodItemUpdate struct {
	Title          *string `json:"title"`
	Description    *string `json:"description"`
	Quantity       *int    `json:"quantity"`
	ExpiryDate     *string `json:"expiry_date"`
	PickupLocation *string `json:"pickup_location"`
	Category       *string `json:"category"`
	DietaryInfo    *string `json:"dietary_info"`
	Status         *string `json:"status"`
}

// FoodRequest represents a recipient's claim against an available item.
type FoodRequest struct {
	ID          string     `json:"id"`
	FoodItemID  string     `json:"food_item_id"`
	RequestedBy string     `json:"requested_by"`
	Message     string     `json:"message"`
	Status      string     `json:"status"`
	CreatedAt   string     `json:"created_at"`
	Item        *FoodItem  `json:"food_items,omitempty"`
	Requester   *DonorInfo `json:"profiles,omitempty"`
}
