package domain_test

import (
	"errors"
	"testing"

	"github.com/yuridenisov/oims/internal/domain"
)

func validUser() domain.User {
	return domain.User{
		ID:        "user-1",
		FirstName: "Ivan",
		LastName:  "Petrov",
		Phone:     "+79161234567",
		Email:     "ivan.petrov@example.com",
		Address:   "Moscow, Tverskaya 1",
	}
}

func TestUserValidate_Valid(t *testing.T) {
	user := validUser()
	if errs := user.Validate(); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestUserValidate_EmailOptional(t *testing.T) {
	user := validUser()
	user.Email = ""
	if errs := user.Validate(); len(errs) != 0 {
		t.Fatalf("expected empty email to be accepted, got %v", errs)
	}
}

func TestUserValidate_Violations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.User)
		want   error
	}{
		{"missing first name", func(u *domain.User) { u.FirstName = "" }, domain.ErrFirstNameRequired},
		{"missing last name", func(u *domain.User) { u.LastName = "" }, domain.ErrLastNameRequired},
		{"missing address", func(u *domain.User) { u.Address = "" }, domain.ErrAddressRequired},
		{"missing phone", func(u *domain.User) { u.Phone = "" }, domain.ErrPhoneRequired},
		{"phone with letters", func(u *domain.User) { u.Phone = "+7abc" }, domain.ErrPhoneInvalid},
		{"phone leading zero", func(u *domain.User) { u.Phone = "0123456" }, domain.ErrPhoneInvalid},
		{"phone too long", func(u *domain.User) { u.Phone = "+1234567890123456" }, domain.ErrPhoneInvalid},
		{"bad email", func(u *domain.User) { u.Email = "not-an-email" }, domain.ErrEmailInvalid},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			user := validUser()
			tc.mutate(&user)

			errs := user.Validate()
			found := false
			for _, err := range errs {
				if errors.Is(err, tc.want) {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected %v in %v", tc.want, errs)
			}
		})
	}
}

func TestValidatePhone(t *testing.T) {
	if errs := domain.ValidatePhone("+79161234567"); len(errs) != 0 {
		t.Fatalf("expected valid phone, got %v", errs)
	}
	if errs := domain.ValidatePhone(""); len(errs) == 0 {
		t.Fatal("expected error for empty phone")
	}
	if errs := domain.ValidatePhone("not-a-phone"); len(errs) == 0 {
		t.Fatal("expected error for malformed phone")
	}
}

func TestFullName(t *testing.T) {
	user := validUser()
	if got := user.FullName(); got != "Ivan Petrov" {
		t.Fatalf("unexpected full name: %s", got)
	}
}
