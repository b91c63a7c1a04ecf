package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/dukerupert/fieldtrack/internal/model"
	"github.com/dukerupert/fieldtrack/internal/store"
)

func formMessage(t *testing.T, err error) string {
	t.Helper()
	if err == nil {
		return ""
	}
	var fe *FormError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v (%T), want *FormError", err, err)
	}
	return fe.Message
}

func TestLoginFormValidate(t *testing.T) {
	tests := []struct {
		name string
		form LoginForm
		want string
	}{
		{"valid hr", LoginForm{UserType: "hr", Username: "boss", Password: "secret"}, ""},
		{"valid marketer", LoginForm{UserType: "marketer", Username: "ann", Password: "secret", ShopID: "S1"}, ""},
		{"no user type", LoginForm{Username: "ann", Password: "secret"}, "Please select user type"},
		{"bad user type", LoginForm{UserType: "admin", Username: "ann", Password: "x"}, "Please select user type"},
		{"blank username", LoginForm{UserType: "hr", Username: "   ", Password: "secret"}, "Username and password are required"},
		{"no password", LoginForm{UserType: "hr", Username: "boss"}, "Username and password are required"},
		{"marketer without shop", LoginForm{UserType: "marketer", Username: "ann", Password: "secret"}, "Please select your assigned shop"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formMessage(t, tt.form.Validate()); got != tt.want {
				t.Errorf("message = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSignupFormValidate(t *testing.T) {
	valid := SignupForm{FullName: "Tariro", Username: "tariro_hr", Password: "secret1", ConfirmPassword: "secret1"}
	tests := []struct {
		name   string
		mutate func(*SignupForm)
		want   string
	}{
		{"valid", func(f *SignupForm) {}, ""},
		{"missing name", func(f *SignupForm) { f.FullName = "" }, "All fields are required"},
		{"missing confirm", func(f *SignupForm) { f.ConfirmPassword = "" }, "All fields are required"},
		{"mismatch", func(f *SignupForm) { f.ConfirmPassword = "secret2" }, "Passwords do not match"},
		{"short password", func(f *SignupForm) { f.Password, f.ConfirmPassword = "abc", "abc" }, "Password must be at least 6 characters"},
		{"short username", func(f *SignupForm) { f.Username = "tar" }, "Username must be at least 4 characters"},
		{"bad characters", func(f *SignupForm) { f.Username = "tari-ro" }, "Username can only contain letters, numbers, and underscore"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid
			tt.mutate(&f)
			if got := formMessage(t, f.Validate()); got != tt.want {
				t.Errorf("message = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRegisterForms(t *testing.T) {
	shop := RegisterShopForm{ShopName: "Avondale", ShopAddress: " "}
	if got := formMessage(t, shop.Validate()); got != "All fields are required" {
		t.Errorf("shop message = %q", got)
	}

	m := RegisterMarketerForm{FullName: "Ann", Username: "ann", Password: "12345", ShopID: "S1"}
	if got := formMessage(t, m.Validate()); got != "Password must be at least 6 characters long" {
		t.Errorf("short password message = %q", got)
	}
	m.Password, m.ShopID = "123456", ""
	if got := formMessage(t, m.Validate()); got != "Please select a shop. If no shops are available, register a shop first." {
		t.Errorf("missing shop message = %q", got)
	}
	m.ShopID = "S1"
	if err := m.Validate(); err != nil {
		t.Errorf("valid form: %v", err)
	}
}

func TestValidateShops(t *testing.T) {
	err := ValidateShops(nil)
	if !errors.Is(err, ErrNoShops) {
		t.Errorf("err = %v, want ErrNoShops", err)
	}
	shops := []model.Shop{{ShopID: "S1", ShopName: "Avondale"}}
	if err := ValidateShops(shops); err != nil {
		t.Errorf("err = %v", err)
	}
	if !HasShop(shops, "S1") || HasShop(shops, "S2") {
		t.Error("HasShop mismatch")
	}
}

func TestPasswordStrength(t *testing.T) {
	tests := []struct {
		password string
		want     Strength
	}{
		{"", StrengthNone},
		{"abc", StrengthWeak},
		{"abcdef", StrengthMedium},
		{"abcdefgh", StrengthMedium},
		{"Abcdefg1", StrengthStrong},
		{"ABCDEFG1", StrengthMedium},
	}
	for _, tt := range tests {
		if got := PasswordStrength(tt.password); got != tt.want {
			t.Errorf("PasswordStrength(%q) = %s, want %s", tt.password, got, tt.want)
		}
	}
	if StrengthWeak.Hint() != "Weak: Too short (min 6 characters)" {
		t.Errorf("weak hint = %q", StrengthWeak.Hint())
	}
}

func TestRequire(t *testing.T) {
	ctx := context.Background()
	storage := store.NewSessionStorage(store.NewMemoryStore(), nil)

	if _, err := Require(ctx, storage, model.UserTypeHR); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("empty storage: err = %v, want ErrNotFound", err)
	}

	storage.SaveIdentity(ctx, model.Identity{UserType: model.UserTypeHR, Username: "boss", FullName: "Boss", UserID: "H1"})
	id, err := Require(ctx, storage, model.UserTypeHR)
	if err != nil {
		t.Fatalf("require hr: %v", err)
	}
	if id.UserID != "H1" {
		t.Errorf("user id = %q", id.UserID)
	}
	if _, err := Require(ctx, storage, model.UserTypeMarketer); !errors.Is(err, ErrWrongUserType) {
		t.Errorf("err = %v, want ErrWrongUserType", err)
	}
}
