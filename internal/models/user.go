package models

import "time"

// UserRole is the portal a user signs in to
type UserRole string

const (
	UserRoleAdmin           UserRole = "admin"
	UserRoleRestaurantOwner UserRole = "restaurant_owner"
	UserRoleSupport         UserRole = "support"
	UserRoleCustomer        UserRole = "customer"
)

// UserStatus represents whether an account can sign in
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"
)

// User is an account managed from the admin portal
type User struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Role        UserRole   `json:"role"`
	Status      UserStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// Restaurant is the record resolved from a restaurant slug
type Restaurant struct {
	ID       string `json:"id"`
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	Address  string `json:"address,omitempty"`
	Phone    string `json:"phone,omitempty"`
	IsActive bool   `json:"is_active"`
}

// RestaurantRef is the short restaurant reference embedded in other records
type RestaurantRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}
