// Package directory реализует справочник клиентов.
package directory

import (
	"errors"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/yuridenisov/oims/internal/domain"
)

// Service управляет клиентами и проверкой телефонов.
type Service struct {
	users  domain.UserRepository
	orders domain.OrderRepository
	logger *log.Entry
}

// NewService создаёт сервис справочника клиентов.
func NewService(users domain.UserRepository, orders domain.OrderRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "directory-service")
	}
	return &Service{users: users, orders: orders, logger: logger}
}

// CreateUserInput — запрос на создание клиента.
type CreateUserInput struct {
	FirstName string
	LastName  string
	Phone     string
	Email     string
	Address   string
}

// UpdateUserInput — запрос на обновление клиента. Nil-поля не меняются.
type UpdateUserInput struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Email     *string
	Address   *string
}

// PhoneCheck — результат проверки телефона на существование.
type PhoneCheck struct {
	Exists bool
	User   *domain.User
}

// CreateUser добавляет клиента. Телефон уникален в пределах справочника.
func (s *Service) CreateUser(input CreateUserInput) (domain.User, error) {
	now := time.Now().UTC()
	user := domain.User{
		ID:        uuid.NewString(),
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Phone:     input.Phone,
		Email:     input.Email,
		Address:   input.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if errs := user.Validate(); len(errs) > 0 {
		return domain.User{}, domain.NewValidationError(errs)
	}
	if err := s.users.Create(user); err != nil {
		return domain.User{}, err
	}
	s.logger.WithFields(log.Fields{
		"user_id": user.ID,
		"phone":   user.Phone,
	}).Info("user created")
	return user, nil
}

// GetUser возвращает клиента по идентификатору.
func (s *Service) GetUser(id string) (domain.User, error) {
	return s.users.Get(id)
}

// ListUsers возвращает всех клиентов.
func (s *Service) ListUsers() ([]domain.User, error) {
	return s.users.List()
}

// UpdateUser меняет указанные поля клиента.
func (s *Service) UpdateUser(id string, input UpdateUserInput) (domain.User, error) {
	user, err := s.users.Get(id)
	if err != nil {
		return domain.User{}, err
	}

	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.Address != nil {
		user.Address = *input.Address
	}
	user.UpdatedAt = time.Now().UTC()

	if errs := user.Validate(); len(errs) > 0 {
		return domain.User{}, domain.NewValidationError(errs)
	}
	if err := s.users.Save(user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// DeleteUser удаляет клиента. Клиент с заказами не удаляется:
// история заказов ссылается на него.
func (s *Service) DeleteUser(id string) error {
	if _, err := s.users.Get(id); err != nil {
		return err
	}
	count, err := s.orders.CountByUser(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrUserHasOrders
	}
	if err := s.users.Delete(id); err != nil {
		return err
	}
	s.logger.WithField("user_id", id).Info("user deleted")
	return nil
}

// CheckPhone проверяет, зарегистрирован ли телефон, и возвращает клиента.
func (s *Service) CheckPhone(phone string) (PhoneCheck, error) {
	if errs := domain.ValidatePhone(phone); len(errs) > 0 {
		return PhoneCheck{}, domain.NewValidationError(errs)
	}
	user, err := s.users.GetByPhone(phone)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return PhoneCheck{Exists: false}, nil
		}
		return PhoneCheck{}, err
	}
	return PhoneCheck{Exists: true, User: &user}, nil
}
