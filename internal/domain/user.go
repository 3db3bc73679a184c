package domain

import (
	"regexp"
	"time"
)

var (
	// Телефон в формате, близком к E.164: опциональный плюс, без ведущего нуля.
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
	emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)
)

// User — запись справочника клиентов. Телефон служит бизнес-ключом.
type User struct {
	ID        string
	FirstName string
	LastName  string
	// Phone уникален в пределах всей коллекции.
	Phone string
	// Email опционален, но при наличии проверяется на формат.
	Email     string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate проверяет обязательные поля и форматы контактов.
func (u *User) Validate() []error {
	var errs []error

	if u.FirstName == "" {
		errs = append(errs, ErrFirstNameRequired)
	}
	if u.LastName == "" {
		errs = append(errs, ErrLastNameRequired)
	}
	if u.Address == "" {
		errs = append(errs, ErrAddressRequired)
	}
	if u.Phone == "" {
		errs = append(errs, ErrPhoneRequired)
	} else if !phonePattern.MatchString(u.Phone) {
		errs = append(errs, ErrPhoneInvalid)
	}
	if u.Email != "" && !emailPattern.MatchString(u.Email) {
		errs = append(errs, ErrEmailInvalid)
	}

	return errs
}

// ValidatePhone проверяет телефон отдельно от остальных полей клиента.
func ValidatePhone(phone string) []error {
	if phone == "" {
		return []error{ErrPhoneRequired}
	}
	if !phonePattern.MatchString(phone) {
		return []error{ErrPhoneInvalid}
	}
	return nil
}

// FullName возвращает имя для денормализованного отображения в заказах.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
