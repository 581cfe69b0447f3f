package app

import (
	"context"
	"errors"
	"fmt"

	"thermo-monitor/internal/domain/entity"
	"thermo-monitor/internal/domain/port"
)

// ErrBusy возвращается, если измерение пользователя уже обрабатывается
var ErrBusy = errors.New("user is busy")

// UserService ведёт диалоги пользователей бота
type UserService struct {
	repo port.UserRepository
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

// update атомарно применяет изменение к пользователю
func (s *UserService) update(ctx context.Context, userID, chatID int64, apply func(*entity.User) error) (*entity.User, error) {
	user, err := s.repo.Update(ctx, userID, chatID, apply)
	if err != nil {
		return nil, fmt.Errorf("update user %d: %w", userID, err)
	}
	return user, nil
}

func (s *UserService) SetState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	return s.update(ctx, userID, chatID, func(u *entity.User) error {
		u.SetState(state)
		return nil
	})
}

// BeginInput переводит пользователя к ручному вводу температур
func (s *UserService) BeginInput(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingTemps)
}

// BeginImage переводит пользователя к загрузке термограммы
func (s *UserService) BeginImage(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingImage)
}

// TryBeginProcessing переводит пользователя в обработку, если он ещё не занят.
// Проверка и смена состояния выполняются одним шагом.
func (s *UserService) TryBeginProcessing(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.update(ctx, userID, chatID, func(u *entity.User) error {
		if u.Busy() {
			return ErrBusy
		}
		u.SetState(entity.StateProcessing)
		return nil
	})
}

// Complete запоминает сохранённое измерение и возвращает в меню
func (s *UserService) Complete(ctx context.Context, userID, chatID, measurementID int64) (*entity.User, error) {
	return s.update(ctx, userID, chatID, func(u *entity.User) error {
		u.Complete(measurementID)
		return nil
	})
}

func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}
