package entity

// UserState состояние диалога с пользователем бота
type UserState string

const (
	StateMainMenu      UserState = "main_menu"      // главное меню
	StateAwaitingTemps UserState = "awaiting_temps" // ждём восемь температур
	StateAwaitingImage UserState = "awaiting_image" // ждём термограмму
	StateProcessing    UserState = "processing"     // измерение анализируется
)

// User пользователь бота и его диалог
type User struct {
	ID                int64     // Telegram User ID
	ChatID            int64     // Telegram Chat ID
	State             UserState // текущее состояние диалога
	LastMeasurementID int64     // последнее измерение, отправленное пользователем
}

// NewUser создаёт пользователя в главном меню
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:     userID,
		ChatID: chatID,
		State:  StateMainMenu,
	}
}

// SetState обновляет состояние пользователя
func (u *User) SetState(state UserState) {
	u.State = state
}

// Busy сообщает, что по пользователю уже идёт обработка
func (u *User) Busy() bool {
	return u.State == StateProcessing
}

// Complete запоминает измерение и возвращает пользователя в главное меню
func (u *User) Complete(measurementID int64) {
	u.LastMeasurementID = measurementID
	u.State = StateMainMenu
}
