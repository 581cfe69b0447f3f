package storage

import (
	"context"
	"sync"

	"thermo-monitor/internal/domain/entity"
	"thermo-monitor/internal/domain/port"
)

// MemoryUserRepository in-memory хранилище состояний диалога.
// Хранит копии, поэтому изменения пользователя видны только через Update.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[int64]entity.User
}

// NewMemoryUserRepository создаёт новое in-memory хранилище
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[int64]entity.User),
	}
}

// Get возвращает копию пользователя, создаёт нового если не найден
func (r *MemoryUserRepository) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[userID]
	if !exists {
		user = *entity.NewUser(userID, chatID)
		r.users[userID] = user
	}

	return &user, nil
}

// Update меняет пользователя под блокировкой хранилища
func (r *MemoryUserRepository) Update(ctx context.Context, userID, chatID int64, apply func(*entity.User) error) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[userID]
	if !exists {
		user = *entity.NewUser(userID, chatID)
	}
	if err := apply(&user); err != nil {
		return nil, err
	}
	r.users[userID] = user

	return &user, nil
}

// Len возвращает число известных пользователей
func (r *MemoryUserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// Проверка реализации интерфейса
var _ port.UserRepository = (*MemoryUserRepository)(nil)
