package auth

import (
	"errors"
	"strings"

	"github.com/dukerupert/fieldtrack/internal/model"
)

// ErrNoShops refuses a marketer login when HR has not registered any shop.
var ErrNoShops = errors.New("no shops available")

type LoginForm struct {
	UserType string `validate:"required,oneof=hr marketer"`
	Username string `validate:"required"`
	Password string `validate:"required"`
	ShopID   string `validate:"required_if=UserType marketer"`
}

var loginRules = []rule{
	{"UserType", "required", "Please select user type"},
	{"UserType", "oneof", "Please select user type"},
	{"", "required", "Username and password are required"},
	{"ShopID", "required_if", "Please select your assigned shop"},
}

func (f *LoginForm) Validate() error {
	f.Username = strings.TrimSpace(f.Username)
	return check(f, loginRules)
}

// ValidateShops checks the shop list a marketer must choose from.
func ValidateShops(shops []model.Shop) error {
	if len(shops) == 0 {
		return &FormError{
			Field:   "ShopID",
			Message: "Cannot login: No shops available. Please contact HR to register shops first.",
			Err:     ErrNoShops,
		}
	}
	return nil
}

// HasShop reports whether id is one of shops.
func HasShop(shops []model.Shop, id string) bool {
	for _, s := range shops {
		if s.ShopID == id {
			return true
		}
	}
	return false
}

// SignupForm creates an HR account.
type SignupForm struct {
	FullName        string `validate:"required"`
	Username        string `validate:"required,min=4,username"`
	Password        string `validate:"required,min=6"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

var signupRules = []rule{
	{"", "required", "All fields are required"},
	{"ConfirmPassword", "eqfield", "Passwords do not match"},
	{"Password", "min", "Password must be at least 6 characters"},
	{"Username", "min", "Username must be at least 4 characters"},
	{"Username", "username", "Username can only contain letters, numbers, and underscore"},
}

func (f *SignupForm) Validate() error {
	f.FullName = strings.TrimSpace(f.FullName)
	f.Username = strings.TrimSpace(f.Username)
	return check(f, signupRules)
}

type RegisterShopForm struct {
	ShopName    string `validate:"required"`
	ShopAddress string `validate:"required"`
}

func (f *RegisterShopForm) Validate() error {
	f.ShopName = strings.TrimSpace(f.ShopName)
	f.ShopAddress = strings.TrimSpace(f.ShopAddress)
	return check(f, []rule{{"", "required", "All fields are required"}})
}

type RegisterMarketerForm struct {
	FullName string `validate:"required"`
	Username string `validate:"required"`
	Password string `validate:"required,min=6"`
	ShopID   string `validate:"required"`
}

var registerMarketerRules = []rule{
	{"FullName", "required", "All fields are required"},
	{"Username", "required", "All fields are required"},
	{"Password", "required", "All fields are required"},
	{"Password", "min", "Password must be at least 6 characters long"},
	{"ShopID", "required", "Please select a shop. If no shops are available, register a shop first."},
}

func (f *RegisterMarketerForm) Validate() error {
	f.FullName = strings.TrimSpace(f.FullName)
	f.Username = strings.TrimSpace(f.Username)
	return check(f, registerMarketerRules)
}
