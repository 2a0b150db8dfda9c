package usecase

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/iamvkosarev/pink-ai-bot/config"
	"github.com/iamvkosarev/pink-ai-bot/internal/model"
	in_memory "github.com/iamvkosarev/pink-ai-bot/internal/storage/in-memory"
	"github.com/iamvkosarev/pink-ai-bot/pkg/local"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOwnerID = int64(7)

type fakeBot struct {
	mu       sync.Mutex
	sent     []api.Chattable
	requests []api.Chattable
	lastID   int
	updates  chan api.Update
	// rejectHTML fails every message sent in HTML parse mode
	rejectHTML bool
}

func (f *fakeBot) Send(c api.Chattable) (api.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(api.MessageConfig); ok && f.rejectHTML && msg.ParseMode == api.ModeHTML {
		return api.Message{}, errors.New("Bad Request: can't parse entities")
	}
	f.sent = append(f.sent, c)
	f.lastID++
	return api.Message{MessageID: f.lastID}, nil
}

func (f *fakeBot) Request(c api.Chattable) (*api.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &api.APIResponse{Ok: true}, nil
}

func (f *fakeBot) GetUpdatesChan(api.UpdateConfig) api.UpdatesChannel {
	return f.updates
}

func (f *fakeBot) StopReceivingUpdates() {}

func (f *fakeBot) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var texts []string
	for _, c := range f.sent {
		if msg, ok := c.(api.MessageConfig); ok {
			texts = append(texts, msg.Text)
		}
	}
	return texts
}

func (f *fakeBot) lastSent() api.Chattable {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeBot) deletions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int
	for _, c := range f.requests {
		if _, ok := c.(api.DeleteMessageConfig); ok {
			n++
		}
	}
	return n
}

type telegramFixture struct {
	bot      *fakeBot
	text     *fakeText
	image    *fakeImage
	telegram *TelegramUsecase
}

func newTelegramFixture(t *testing.T) telegramFixture {
	t.Helper()
	chatCfg := config.Chat{MaxHistory: 50, RequestTimeout: 5 * time.Second}
	history := NewHistoryUsecase(HistoryUsecaseDeps{HistoryStorage: in_memory.NewHistoryStorage()}, chatCfg)
	text := &fakeText{answer: "Sure, **here** it is"}
	image := &fakeImage{}
	chat := NewChatUsecase(
		ChatUsecaseDeps{Intent: NewIntentUsecase(), History: history, Text: text, Image: image},
		chatCfg,
	)
	theme := NewThemeUsecase(ThemeUsecaseDeps{ThemeStorage: in_memory.NewThemeStorage()})

	bot := &fakeBot{updates: make(chan api.Update)}
	telegram, err := NewTelegramUsecase(
		config.Telegram{OwnerTelegramID: testOwnerID},
		TelegramUsecaseDeps{Bot: bot, Chat: chat, History: history, Theme: theme},
	)
	require.NoError(t, err)
	telegram.now = func() time.Time { return time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC) }
	return telegramFixture{bot: bot, text: text, image: image, telegram: telegram}
}

func ownerMessage(text string) incoming {
	return incoming{chatID: 100, userID: testOwnerID, lang: local.Eng, text: text}
}

func ownerCommand(command, args string) incoming {
	in := ownerMessage("/" + command)
	in.command = command
	in.args = args
	return in
}

func ownerCallback(data string, messageID int) incoming {
	return incoming{chatID: 100, userID: testOwnerID, lang: local.Eng, callbackID: "cb", callbackData: data, messageID: messageID}
}

func TestNewTelegramUsecase_RegistersCommands(t *testing.T) {
	f := newTelegramFixture(t)
	require.Len(t, f.bot.requests, 1)
	_, ok := f.bot.requests[0].(api.SetMyCommandsConfig)
	assert.True(t, ok)
}

func TestTelegramUsecase_RejectsStrangers(t *testing.T) {
	f := newTelegramFixture(t)
	in := ownerMessage("hello")
	in.userID = 99

	require.NoError(t, f.telegram.handle(context.Background(), in))
	f.telegram.inflight.Wait()

	assert.Equal(t, []string{TextUserNoAccess.Text(local.Eng)}, f.bot.texts())
	assert.Equal(t, 0, f.telegram.History.Len())
}

func TestTelegramUsecase_AnswersMessage(t *testing.T) {
	f := newTelegramFixture(t)

	require.NoError(t, f.telegram.handle(context.Background(), ownerMessage("what is a black hole")))
	f.telegram.inflight.Wait()

	msg, ok := f.bot.lastSent().(api.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, "Sure, <b>here</b> it is", msg.Text)
	assert.Equal(t, api.ModeHTML, msg.ParseMode)
	assert.Equal(t, []string{"what is a black hole"}, f.text.calls())
	assert.Equal(t, 2, f.telegram.History.Len())
}

func TestTelegramUsecase_BusyNotice(t *testing.T) {
	f := newTelegramFixture(t)
	f.text.release = make(chan struct{})

	require.NoError(t, f.telegram.handle(context.Background(), ownerMessage("first")))
	require.Eventually(t, func() bool {
		return f.telegram.Chat.State() == model.GenerationStateAwaitingResponse
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, f.telegram.handle(context.Background(), ownerMessage("second")))
	require.Eventually(t, func() bool {
		for _, text := range f.bot.texts() {
			if text == html.EscapeString(TextBusy.Text(local.Eng)) {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	close(f.text.release)
	f.telegram.inflight.Wait()
	assert.Equal(t, []string{"first"}, f.text.calls())
	assert.Equal(t, 2, f.telegram.History.Len())
}

func TestTelegramUsecase_ErrorIsRendered(t *testing.T) {
	f := newTelegramFixture(t)
	f.text.err = model.NewHTTPError(429, "slow down")

	require.NoError(t, f.telegram.handle(context.Background(), ownerMessage("question")))
	f.telegram.inflight.Wait()

	assert.Equal(t, []string{html.EscapeString(TextErrorRateLimited.Text(local.Eng))}, f.bot.texts())
	assert.Equal(t, model.GenerationStateIdle, f.telegram.Chat.State())
}

func TestTelegramUsecase_ClearFlow(t *testing.T) {
	f := newTelegramFixture(t)
	ctx := context.Background()
	require.NoError(t, f.telegram.handle(ctx, ownerMessage("hello")))
	f.telegram.inflight.Wait()
	_, err := f.telegram.Theme.Toggle(ctx)
	require.NoError(t, err)

	require.NoError(t, f.telegram.handle(ctx, ownerCommand(CommandClear, "")))
	confirm, ok := f.bot.lastSent().(api.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, TextClearConfirm.Text(local.Eng), confirm.Text)
	assert.NotNil(t, confirm.ReplyMarkup)

	require.NoError(t, f.telegram.handle(ctx, ownerCallback(CallbackClearNo, 2)))
	assert.Equal(t, 2, f.telegram.History.Len())

	require.NoError(t, f.telegram.handle(ctx, ownerCallback(CallbackClearYes, 2)))
	assert.Equal(t, 0, f.telegram.History.Len())
	assert.Equal(t, model.ThemeLight, f.telegram.Theme.Current(), "clearing keeps the theme")
	assert.Equal(t, html.EscapeString(TextCleared.Text(local.Eng)), f.bot.texts()[len(f.bot.texts())-1])
}

func TestTelegramUsecase_Export(t *testing.T) {
	f := newTelegramFixture(t)
	ctx := context.Background()
	require.NoError(t, f.telegram.handle(ctx, ownerMessage("hello")))
	f.telegram.inflight.Wait()

	require.NoError(t, f.telegram.handle(ctx, ownerCommand(CommandExport, "")))

	doc, ok := f.bot.lastSent().(api.DocumentConfig)
	require.True(t, ok)
	file, ok := doc.File.(api.FileBytes)
	require.True(t, ok)
	assert.Equal(t, "chat-history-2024-03-09.json", file.Name)

	messages, err := model.DecodeMessages(file.Bytes)
	require.NoError(t, err)
	current := f.telegram.History.Messages()
	require.Len(t, messages, len(current))
	for i := range current {
		assert.Equal(t, current[i].ID, messages[i].ID)
		assert.Equal(t, current[i].Content, messages[i].Content)
	}
	assert.Equal(t, 2, f.telegram.History.Len(), "export does not mutate the log")
}

func TestTelegramUsecase_Theme(t *testing.T) {
	f := newTelegramFixture(t)

	require.NoError(t, f.telegram.handle(context.Background(), ownerCommand(CommandTheme, "")))
	assert.Equal(t, model.ThemeLight, f.telegram.Theme.Current())
	assert.Contains(t, f.bot.texts()[0], "light")
}

func TestTelegramUsecase_Menus(t *testing.T) {
	f := newTelegramFixture(t)
	ctx := context.Background()

	require.NoError(t, f.telegram.handle(ctx, ownerCommand(CommandSettings, "")))
	assert.Len(t, f.bot.sent, 1)
	assert.Equal(t, 0, f.bot.deletions())

	// the same command closes it again
	require.NoError(t, f.telegram.handle(ctx, ownerCommand(CommandSettings, "")))
	assert.Len(t, f.bot.sent, 1)
	assert.Equal(t, 1, f.bot.deletions())

	// opening another menu closes the previous one
	require.NoError(t, f.telegram.handle(ctx, ownerCommand(CommandTools, "")))
	require.NoError(t, f.telegram.handle(ctx, ownerCommand(CommandUser, "")))
	assert.Equal(t, 2, f.bot.deletions())
	menu, ok := f.bot.lastSent().(api.MessageConfig)
	require.True(t, ok)
	assert.Contains(t, menu.Text, TextAuthUnchecked.Text(local.Eng))

	// any other update closes open menus
	require.NoError(t, f.telegram.handle(ctx, ownerCommand(CommandHelp, "")))
	assert.Equal(t, 3, f.bot.deletions())
}

func TestTelegramUsecase_Image(t *testing.T) {
	f := newTelegramFixture(t)
	ctx := context.Background()

	require.NoError(t, f.telegram.handle(ctx, ownerCommand(CommandImage, "  ")))
	f.telegram.inflight.Wait()
	assert.Equal(t, []string{html.EscapeString(TextImageEmptyPrompt.Text(local.Eng))}, f.bot.texts())
	assert.Empty(t, f.image.prompts)

	require.NoError(t, f.telegram.handle(ctx, ownerCommand(CommandImage, "a red fox")))
	f.telegram.inflight.Wait()

	photo, ok := f.bot.lastSent().(api.PhotoConfig)
	require.True(t, ok)
	file, ok := photo.File.(api.FileBytes)
	require.True(t, ok)
	assert.Equal(t, "a red fox.jpg", file.Name)
	assert.Equal(t, pngBytes, file.Bytes)
	assert.Equal(t, []string{"a red fox"}, f.image.prompts)
	assert.Equal(t, 0, f.telegram.History.Len())
}

func TestTelegramUsecase_UnknownCommand(t *testing.T) {
	f := newTelegramFixture(t)
	require.NoError(t, f.telegram.handle(context.Background(), ownerCommand("nope", "")))
	assert.Equal(t, []string{html.EscapeString(TextCommandUnknown.Text(local.Eng))}, f.bot.texts())
}

func TestTelegramUsecase_RunStopsOnCancel(t *testing.T) {
	f := newTelegramFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, f.telegram.Run(ctx))
}

func TestTelegramUsecase_RejectedHTMLFallsBackToPlainText(t *testing.T) {
	f := newTelegramFixture(t)
	f.bot.rejectHTML = true

	require.NoError(t, f.telegram.handle(context.Background(), ownerMessage("what is a black hole")))
	f.telegram.inflight.Wait()

	msg, ok := f.bot.lastSent().(api.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, "Sure, here it is", msg.Text)
	assert.Empty(t, msg.ParseMode)
}

func TestTelegramUsecase_LongReplyIsSplit(t *testing.T) {
	f := newTelegramFixture(t)
	f.text.answer = strings.Repeat("word ", 2000)

	require.NoError(t, f.telegram.handle(context.Background(), ownerMessage("tell me a long story")))
	f.telegram.inflight.Wait()

	texts := f.bot.texts()
	require.Len(t, texts, 3)
	var total int
	for _, text := range texts {
		assert.LessOrEqual(t, utf8.RuneCountInString(text), maxMessageLength)
		total += strings.Count(text, "word")
	}
	assert.Equal(t, 2000, total)
}

func TestTelegramUsecase_AnswersAfterShutdown(t *testing.T) {
	f := newTelegramFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	f.text.release = make(chan struct{})

	require.NoError(t, f.telegram.handle(ctx, ownerMessage("question")))
	require.Eventually(t, func() bool {
		return len(f.text.calls()) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	close(f.text.release)
	f.telegram.inflight.Wait()

	assert.Equal(t, []string{"Sure, <b>here</b> it is"}, f.bot.texts())
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))
	assert.Equal(t, []string{"one", "two"}, splitMessage("one\ntwo", 5))
	assert.Equal(t, []string{"abc de", "fg"}, splitMessage("abc de fg", 7))
	assert.Equal(t, []string{"abcde", "fgh"}, splitMessage("abcdefgh", 5))
	assert.Equal(t, []string{"привет", "мир"}, splitMessage("привет мир", 7))
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "a <b> & c", plainText("<b>a</b> &lt;b&gt; &amp; <i>c</i>"))
	assert.Equal(t, "x := 1", plainText("<pre><code>x := 1</code></pre>"))
}

func TestUserErrorText(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{model.ErrBusy, TextBusy.Text(local.Eng)},
		{fmt.Errorf("wrapped: %w", context.DeadlineExceeded), TextErrorTimeout.Text(local.Eng)},
		{model.ErrMissingCredential, TextErrorMissingCredential.Text(local.Eng)},
		{model.NewHTTPError(401, ""), TextErrorUnauthorized.Text(local.Eng)},
		{model.NewHTTPError(400, ""), TextErrorBadRequest.Text(local.Eng)},
		{model.NewHTTPError(404, ""), TextErrorModelNotFound.Text(local.Eng)},
		{model.NewHTTPError(503, ""), TextErrorModelLoading.Text(local.Eng)},
		{model.NewHTTPError(500, ""), "🔥 API error 500"},
		{model.ErrEmptyOrInvalidPayload, TextErrorEmptyPayload.Text(local.Eng)},
		{model.ErrMalformedResponse, TextErrorMalformed.Text(local.Eng)},
		{errors.New("dial tcp: refused"), TextErrorGeneric.Text(local.Eng)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, userErrorText(local.Eng, tt.err), tt.err.Error())
	}
}

func TestImageFileName(t *testing.T) {
	assert.Equal(t, "a fox.jpg", imageFileName(" a fox "))
	assert.Equal(t, "cats_dogs.jpg", imageFileName("cats/dogs"))
}
