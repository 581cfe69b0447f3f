package telegram

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	app "thermo-monitor/internal/application"
	"thermo-monitor/internal/domain/entity"
	"thermo-monitor/internal/infrastructure/sensor"
	"thermo-monitor/internal/infrastructure/storage"
	"thermo-monitor/internal/infrastructure/vision"
)

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.MessageConfig
	answered int
	stopped  bool
	fileURL  string
	updates  chan tgbotapi.Update
}

func (f *fakeAPI) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	f.answered++
	f.mu.Unlock()
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetFileDirectURL(fileID string) (string, error) {
	return f.fileURL + "/" + fileID, nil
}

func (f *fakeAPI) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

type botFixture struct {
	bot   *Bot
	api   *fakeAPI
	users *app.UserService
}

func newBotFixture(t *testing.T) *botFixture {
	t.Helper()
	dir := t.TempDir()

	repo, err := storage.NewSQLiteMeasurementRepository(filepath.Join(dir, "thermo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	images, err := storage.NewFileImageStorage(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	logger := zaptest.NewLogger(t)
	engine := app.NewEngine(app.NewAnalyzer(app.DefaultThresholds()), app.NewConclusionService(nil, 0, logger))
	measurements := app.NewMeasurementService(app.MeasurementOptions{
		Engine:    engine,
		Repo:      repo,
		Sensor:    sensor.NewSimulated(),
		Extractor: vision.NewColorMappingExtractor(),
		Images:    images,
		Logger:    logger,
	})

	api := &fakeAPI{updates: make(chan tgbotapi.Update)}
	users := app.NewUserService(storage.NewMemoryUserRepository())
	return &botFixture{
		bot:   newBot(api, users, measurements, logger),
		api:   api,
		users: users,
	}
}

func textMessage(text string) *tgbotapi.Message {
	msg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: 7},
		Chat: &tgbotapi.Chat{ID: 70},
		Text: text,
	}
	if len(text) > 0 && text[0] == '/' {
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}}
	}
	return msg
}

func (f *botFixture) state(t *testing.T) entity.UserState {
	t.Helper()
	user, err := f.users.Get(context.Background(), 7, 70)
	require.NoError(t, err)
	return user.State
}

func TestBot_StartShowsMenu(t *testing.T) {
	f := newBotFixture(t)
	f.bot.handleMessage(context.Background(), textMessage("/start"))

	msg := f.api.last(t)
	require.Equal(t, int64(70), msg.ChatID)
	require.Equal(t, msgStart, msg.Text)
	require.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	require.IsType(t, tgbotapi.InlineKeyboardMarkup{}, msg.ReplyMarkup)
}

func TestBot_UnknownCommand(t *testing.T) {
	f := newBotFixture(t)
	f.bot.handleMessage(context.Background(), textMessage("/diagnose"))
	require.Equal(t, msgUnknownCommand, f.api.last(t).Text)
}

func TestBot_ManualInputFlow(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	f.bot.handleMessage(ctx, textMessage("/input"))
	require.Equal(t, entity.StateAwaitingTemps, f.state(t))
	require.Equal(t, msgAwaitingTemps, f.api.last(t).Text)

	f.bot.handleMessage(ctx, textMessage("36.4 36.5"))
	require.Contains(t, f.api.last(t).Text, "Ошибка")
	require.Equal(t, entity.StateAwaitingTemps, f.state(t))

	f.bot.handleMessage(ctx, textMessage("36.0 36.0 36.0 36.0 38.5 38.5 38.5 38.5"))
	reply := f.api.last(t).Text
	require.Contains(t, reply, "Данные сохранены")
	require.Contains(t, reply, "HIGH")
	require.Equal(t, entity.StateMainMenu, f.state(t))

	f.bot.handleMessage(ctx, textMessage("/status"))
	require.Contains(t, f.api.last(t).Text, "Текущий статус")

	f.bot.handleMessage(ctx, textMessage("/history"))
	require.Contains(t, f.api.last(t).Text, "👤")
}

func TestBot_CancelReturnsToMenu(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	f.bot.handleMessage(ctx, textMessage("/image"))
	require.Equal(t, entity.StateAwaitingImage, f.state(t))

	f.bot.handleMessage(ctx, textMessage("hello"))
	require.Equal(t, msgSendImage, f.api.last(t).Text)

	f.bot.handleMessage(ctx, textMessage("/cancel"))
	require.Equal(t, entity.StateMainMenu, f.state(t))
	require.Equal(t, msgCancelled, f.api.last(t).Text)
}

func TestBot_BusyUserIsAsked(t *testing.T) {
	f := newBotFixture(t)
	_, err := f.users.TryBeginProcessing(context.Background(), 7, 70)
	require.NoError(t, err)

	f.bot.handleMessage(context.Background(), textMessage("36.4"))
	require.Equal(t, msgBusy, f.api.last(t).Text)
}

func TestBot_SecondMeasurementWaitsForFirst(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	f.bot.handleMessage(ctx, textMessage("/input"))
	user, err := f.users.Get(ctx, 7, 70)
	require.NoError(t, err)

	// другое обновление уже заняло пользователя после проверки состояния
	_, err = f.users.TryBeginProcessing(ctx, 7, 70)
	require.NoError(t, err)

	f.bot.handleTemperatures(ctx, user, "36.0 36.0 36.0 36.0 36.0 36.0 36.0 36.0")
	require.Equal(t, msgBusy, f.api.last(t).Text)
	require.Equal(t, entity.StateProcessing, f.state(t))
}

func TestBot_CallbacksWithoutData(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	cb := &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{ID: 7},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 70}},
		Data:    cbStatus,
	}
	f.bot.handleCallback(ctx, cb)
	require.Equal(t, msgNoData, f.api.last(t).Text)

	cb.Data = cbConclusion
	f.bot.handleCallback(ctx, cb)
	require.Equal(t, msgNoConclusion, f.api.last(t).Text)

	cb.Data = cbHistory
	f.bot.handleCallback(ctx, cb)
	require.Contains(t, f.api.last(t).Text, "Нет записей")

	cb.Data = cbInputTemps
	f.bot.handleCallback(ctx, cb)
	require.Equal(t, entity.StateAwaitingTemps, f.state(t))

	require.Equal(t, 4, f.api.answered)
}

func TestBot_SimulateAndConclusion(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	f.bot.handleMessage(ctx, textMessage("/simulate"))
	require.Contains(t, f.api.last(t).Text, "Данные сохранены")

	f.bot.handleCallback(ctx, &tgbotapi.CallbackQuery{
		ID:      "cb-2",
		From:    &tgbotapi.User{ID: 7},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 70}},
		Data:    cbConclusion,
	})
	require.Contains(t, f.api.last(t).Text, "AI Анализ")
	require.Contains(t, f.api.last(t).Text, "норм")
}

func TestBot_PhotoUpload(t *testing.T) {
	f := newBotFixture(t)

	img := image.NewNRGBA(image.Rect(0, 0, 40, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()
	f.api.fileURL = srv.URL

	msg := textMessage("")
	msg.Photo = []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}}
	f.bot.handleMessage(context.Background(), msg)

	reply := f.api.last(t).Text
	require.Contains(t, reply, "Изображение проанализировано")
	require.Contains(t, reply, "36.0°C")
	require.NotContains(t, reply, "ориентировочные")
	require.Equal(t, entity.StateMainMenu, f.state(t))
}

func TestBot_RunStopsOnCancel(t *testing.T) {
	f := newBotFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.bot.Run(ctx) }()

	f.api.updates <- tgbotapi.Update{UpdateID: 1, Message: textMessage("/help")}
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("bot did not stop")
	}
	require.True(t, f.api.stopped)
	require.Equal(t, msgHelp, f.api.last(t).Text)
}
