package memory

import (
	"sort"
	"sync"

	"github.com/yuridenisov/oims/internal/domain"
)

// userRepositoryInMemory — простая in-memory реализация UserRepository.
type userRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.User
}

// NewUserRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewUserRepository() domain.UserRepository {
	return &userRepositoryInMemory{
		items: make(map[string]domain.User),
	}
}

// Create сохраняет нового клиента, охраняя уникальность телефона.
func (r *userRepositoryInMemory) Create(user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.Phone == user.Phone {
			return domain.ErrPhoneConflict
		}
	}
	r.items[user.ID] = user
	return nil
}

// Get возвращает клиента или ErrUserNotFound.
func (r *userRepositoryInMemory) Get(id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.items[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

// GetByPhone ищет клиента по бизнес-ключу.
func (r *userRepositoryInMemory) GetByPhone(phone string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.items {
		if user.Phone == phone {
			return user, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

// List возвращает клиентов, новые первыми.
func (r *userRepositoryInMemory) List() ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.User, 0, len(r.items))
	for _, user := range r.items {
		result = append(result, user)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

// Save перезаписывает клиента, проверяя занятость телефона другими записями.
func (r *userRepositoryInMemory) Save(user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	for id, existing := range r.items {
		if id != user.ID && existing.Phone == user.Phone {
			return domain.ErrPhoneConflict
		}
	}
	r.items[user.ID] = user
	return nil
}

// Delete удаляет запись клиента.
func (r *userRepositoryInMemory) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.items, id)
	return nil
}

// Count возвращает размер справочника.
func (r *userRepositoryInMemory) Count() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items), nil
}

var _ domain.UserRepository = (*userRepositoryInMemory)(nil)
