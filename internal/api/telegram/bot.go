package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	app "thermo-monitor/internal/application"
	"thermo-monitor/internal/domain/entity"
)

const (
	msgStart = `🩺 <b>BreastHealth Monitor</b>

Добро пожаловать в систему мониторинга температуры молочных желез.

Выберите действие:`

	msgHelp = `🩺 <b>BreastHealth Monitor — справка</b>

<b>Команды:</b>
/start — главное меню
/status — текущий статус
/input — ввести температуры вручную
/image — загрузить термограмму
/history — история измерений
/simulate — тестовое измерение
/cancel — отменить текущее действие

<b>Как пользоваться:</b>
1️⃣ Введите температуры восьми зон или загрузите термограмму
2️⃣ Система рассчитает асимметрию и уровень риска
3️⃣ Получите заключение и рекомендации

⚠️ <i>Система не заменяет консультацию врача!</i>`

	msgAwaitingTemps = `📝 <b>Ввод температур</b>

Введите 8 значений через пробел или запятую.
Порядок: L1, L2, L3, L4, R1, R2, R3, R4

<i>Пример: 36.4 36.5 36.3 36.4 36.8 37.0 36.9 36.7</i>

Для отмены отправьте /cancel`

	msgAwaitingImage = `📷 <b>Загрузка термограммы</b>

Отправьте инфракрасное изображение молочных желез.
Поддерживаемые форматы: JPG, PNG

Для отмены отправьте /cancel`

	msgCancelled      = "❌ Действие отменено."
	msgUnknownCommand = "❓ Неизвестная команда. Используйте /help для справки."
	msgChooseAction   = "Выберите действие в меню:"
	msgSendImage      = "📷 Пожалуйста, отправьте изображение (JPG или PNG)."
	msgBusy           = "⏳ Предыдущее измерение ещё обрабатывается, подождите."
	msgProcessing     = "⏳ Анализируем изображение..."
	msgNoData         = "📊 <b>Статус</b>\n\nНет данных для анализа.\nДобавьте измерение или загрузите термограмму."
	msgNoConclusion   = "🤖 <b>AI Анализ</b>\n\nНет данных для анализа."
	msgStorageError   = "❌ Ошибка получения данных. Попробуйте позже."
	msgImageTooLarge  = "❌ Файл слишком большой."
	msgImageError     = "❌ Не удалось обработать изображение. Попробуйте ещё раз."
	msgInputErrorFmt  = "❌ Ошибка: %s\n\nПопробуйте ещё раз или отправьте /cancel для отмены."
)

const (
	cbStatus     = "status"
	cbInputTemps = "input_temps"
	cbUpload     = "upload_image"
	cbHistory    = "history"
	cbConclusion = "ai_analysis"
)

// botAPI часть клиента Telegram, которой пользуется бот
type botAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Bot представляет Telegram-бота
type Bot struct {
	api          botAPI
	users        *app.UserService
	measurements *app.MeasurementService
	httpClient   *http.Client
	logger       *zap.Logger
	wg           sync.WaitGroup
}

// NewBot создаёт нового бота
func NewBot(token string, users *app.UserService, measurements *app.MeasurementService, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("telegram")
	logger.Info("authorized", zap.String("account", api.Self.UserName))

	return newBot(api, users, measurements, logger), nil
}

func newBot(api botAPI, users *app.UserService, measurements *app.MeasurementService, logger *zap.Logger) *Bot {
	return &Bot{
		api:          api,
		users:        users,
		measurements: measurements,
		httpClient:   http.DefaultClient,
		logger:       logger,
	}
}

// Run запускает основной цикл обработки обновлений до отмены контекста.
// Каждое обновление обрабатывается в своей горутине.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.handleUpdate(ctx, update)
			}()
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("update handler panicked", zap.Any("panic", r), zap.Int("update_id", update.UpdateID))
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.From != nil:
		b.handleMessage(ctx, update.Message)
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	user, err := b.users.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		b.logger.Error("get user", zap.Int64("user_id", msg.From.ID), zap.Error(err))
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg, user)
		return
	}

	if user.Busy() {
		b.sendMessage(msg.Chat.ID, msgBusy)
		return
	}

	// Изображение принимается в любом состоянии, кроме ввода температур
	if fileID, ok := imageFileID(msg); ok && user.State != entity.StateAwaitingTemps {
		b.handleImage(ctx, user, fileID, imageName(msg))
		return
	}

	switch user.State {
	case entity.StateAwaitingTemps:
		b.handleTemperatures(ctx, user, msg.Text)
	case entity.StateAwaitingImage:
		b.sendMessage(user.ChatID, msgSendImage)
	default:
		b.sendMenu(user.ChatID, msgChooseAction)
	}
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	switch msg.Command() {
	case "start":
		b.resetState(ctx, user)
		b.sendMenu(user.ChatID, msgStart)

	case "help":
		b.sendMessage(user.ChatID, msgHelp)

	case "status":
		b.sendStatus(ctx, user.ChatID)

	case "input":
		b.beginInput(ctx, user)

	case "image":
		b.beginImage(ctx, user)

	case "history":
		b.sendHistory(ctx, user)

	case "simulate":
		b.simulate(ctx, user)

	case "cancel":
		b.resetState(ctx, user)
		b.sendMenu(user.ChatID, msgCancelled)

	default:
		b.sendMessage(user.ChatID, msgUnknownCommand)
	}
}

// handleCallback обрабатывает нажатия кнопок меню
func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Warn("answer callback", zap.Error(err))
	}
	if cb.Message == nil || cb.From == nil {
		return
	}

	user, err := b.users.Get(ctx, cb.From.ID, cb.Message.Chat.ID)
	if err != nil {
		b.logger.Error("get user", zap.Int64("user_id", cb.From.ID), zap.Error(err))
		return
	}

	switch cb.Data {
	case cbStatus:
		b.sendStatus(ctx, user.ChatID)
	case cbInputTemps:
		b.beginInput(ctx, user)
	case cbUpload:
		b.beginImage(ctx, user)
	case cbHistory:
		b.sendHistory(ctx, user)
	case cbConclusion:
		b.sendConclusion(ctx, user.ChatID)
	default:
		b.logger.Debug("unknown callback", zap.String("data", cb.Data))
	}
}

func (b *Bot) beginInput(ctx context.Context, user *entity.User) {
	if _, err := b.users.BeginInput(ctx, user.ID, user.ChatID); err != nil {
		b.logger.Error("set state", zap.Int64("user_id", user.ID), zap.Error(err))
		return
	}
	b.sendMessage(user.ChatID, msgAwaitingTemps)
}

func (b *Bot) beginImage(ctx context.Context, user *entity.User) {
	if _, err := b.users.BeginImage(ctx, user.ID, user.ChatID); err != nil {
		b.logger.Error("set state", zap.Int64("user_id", user.ID), zap.Error(err))
		return
	}
	b.sendMessage(user.ChatID, msgAwaitingImage)
}

// tryBeginProcessing занимает пользователя под одно измерение
func (b *Bot) tryBeginProcessing(ctx context.Context, user *entity.User) bool {
	_, err := b.users.TryBeginProcessing(ctx, user.ID, user.ChatID)
	switch {
	case errors.Is(err, app.ErrBusy):
		b.sendMessage(user.ChatID, msgBusy)
		return false
	case err != nil:
		b.logger.Error("set state", zap.Int64("user_id", user.ID), zap.Error(err))
		return false
	}
	return true
}

// complete запоминает измерение пользователя
func (b *Bot) complete(ctx context.Context, user *entity.User, measurementID int64) {
	if _, err := b.users.Complete(ctx, user.ID, user.ChatID, measurementID); err != nil {
		b.logger.Error("complete measurement", zap.Int64("user_id", user.ID), zap.Error(err))
	}
}

func (b *Bot) resetState(ctx context.Context, user *entity.User) {
	if _, err := b.users.Cancel(ctx, user.ID, user.ChatID); err != nil {
		b.logger.Error("reset state", zap.Int64("user_id", user.ID), zap.Error(err))
	}
}

// handleTemperatures разбирает ручной ввод и сохраняет измерение
func (b *Bot) handleTemperatures(ctx context.Context, user *entity.User, text string) {
	temps, err := parseTemperatures(text)
	if err != nil {
		b.sendMessage(user.ChatID, fmt.Sprintf(msgInputErrorFmt, html.EscapeString(err.Error())))
		return
	}

	if !b.tryBeginProcessing(ctx, user) {
		return
	}
	defer b.resetState(ctx, user)

	m, err := b.measurements.Record(ctx, app.MeasurementInput{
		DeviceID:     fmt.Sprintf("telegram:%d", user.ID),
		Source:       entity.SourceTelegram,
		Temperatures: temps,
	})
	if err != nil {
		b.logger.Error("record measurement", zap.Int64("user_id", user.ID), zap.Error(err))
		b.sendMenu(user.ChatID, msgStorageError)
		return
	}

	b.complete(ctx, user, m.ID)
	b.sendMenu(user.ChatID, formatMeasurement(m))
}

// handleImage скачивает термограмму и передаёт её на анализ
func (b *Bot) handleImage(ctx context.Context, user *entity.User, fileID, name string) {
	if !b.tryBeginProcessing(ctx, user) {
		return
	}
	defer b.resetState(ctx, user)

	b.sendMessage(user.ChatID, msgProcessing)

	data, err := b.downloadFile(ctx, fileID)
	if err != nil {
		b.logger.Error("download image", zap.String("file_id", fileID), zap.Error(err))
		b.sendMenu(user.ChatID, msgImageError)
		return
	}

	res, err := b.measurements.UploadImage(ctx, name, data)
	switch {
	case errors.Is(err, app.ErrImageTooLarge):
		b.sendMenu(user.ChatID, msgImageTooLarge)
		return
	case err != nil:
		b.logger.Error("upload image", zap.Int64("user_id", user.ID), zap.Error(err))
		b.sendMenu(user.ChatID, msgImageError)
		return
	}

	b.complete(ctx, user, res.Measurement.ID)
	b.sendMenu(user.ChatID, formatImageUpload(res))
}

func (b *Bot) simulate(ctx context.Context, user *entity.User) {
	m, err := b.measurements.Simulate(ctx)
	if err != nil {
		b.logger.Error("simulate", zap.Error(err))
		b.sendMenu(user.ChatID, msgStorageError)
		return
	}
	b.complete(ctx, user, m.ID)
	b.sendMenu(user.ChatID, formatMeasurement(m))
}

func (b *Bot) sendStatus(ctx context.Context, chatID int64) {
	m, err := b.measurements.Latest(ctx)
	switch {
	case errors.Is(err, app.ErrNotFound):
		b.sendMenu(chatID, msgNoData)
	case err != nil:
		b.logger.Error("latest measurement", zap.Error(err))
		b.sendMenu(chatID, msgStorageError)
	default:
		b.sendMenu(chatID, formatStatus(m))
	}
}

func (b *Bot) sendHistory(ctx context.Context, user *entity.User) {
	list, err := b.measurements.History(ctx, app.HistoryQuery{Limit: historyLimit})
	if err != nil {
		b.logger.Error("history", zap.Error(err))
		b.sendMenu(user.ChatID, msgStorageError)
		return
	}
	b.sendMenu(user.ChatID, formatHistory(list, user.LastMeasurementID))
}

func (b *Bot) sendConclusion(ctx context.Context, chatID int64) {
	m, err := b.measurements.Latest(ctx)
	switch {
	case errors.Is(err, app.ErrNotFound):
		b.sendMenu(chatID, msgNoConclusion)
	case err != nil:
		b.logger.Error("latest measurement", zap.Error(err))
		b.sendMenu(chatID, msgStorageError)
	default:
		b.sendMenu(chatID, formatConclusion(m))
	}
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// imageFileID возвращает файл изображения: фото максимального размера или документ image/*
func imageFileID(msg *tgbotapi.Message) (string, bool) {
	if len(msg.Photo) > 0 {
		return msg.Photo[len(msg.Photo)-1].FileID, true
	}
	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/") {
		return msg.Document.FileID, true
	}
	return "", false
}

func imageName(msg *tgbotapi.Message) string {
	if msg.Document != nil && msg.Document.FileName != "" {
		return msg.Document.FileName
	}
	return "thermal.jpg"
}

func mainKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📊 Текущий статус", cbStatus)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📝 Ввести температуры", cbInputTemps)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📷 Загрузить термограмму", cbUpload)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📈 История", cbHistory)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🤖 AI Анализ", cbConclusion)),
	)
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	b.send(chatID, text, nil)
}

// sendMenu отправляет сообщение с клавиатурой главного меню
func (b *Bot) sendMenu(chatID int64, text string) {
	b.send(chatID, text, mainKeyboard())
}

func (b *Bot) send(chatID int64, text string, markup any) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
