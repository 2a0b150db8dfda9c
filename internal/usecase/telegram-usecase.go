package usecase

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/iamvkosarev/pink-ai-bot/config"
	"github.com/iamvkosarev/pink-ai-bot/internal/model"
	"github.com/iamvkosarev/pink-ai-bot/pkg/local"
	"github.com/sourcegraph/conc"
	"golang.org/x/time/rate"
)

const (
	CommandStart    = "start"
	CommandHelp     = "help"
	CommandSettings = "settings"
	CommandTools    = "tools"
	CommandUser     = "user"
	CommandClear    = "clear"
	CommandExport   = "export"
	CommandTheme    = "theme"
	CommandImage    = "image"

	CallbackTheme     = "theme"
	CallbackClear     = "clear"
	CallbackClearYes  = "clear:yes"
	CallbackClearNo   = "clear:no"
	CallbackExport    = "export"
	CallbackImage     = "image"
	CallbackAuthCheck = "auth"

	// Telegram drops a chat action after about five seconds.
	chatActionInterval = 4 * time.Second
	maxMessageLength   = 4096
)

var htmlTag = regexp.MustCompile(`</?[a-z]+>`)

type Bot interface {
	Send(c api.Chattable) (api.Message, error)
	Request(c api.Chattable) (*api.APIResponse, error)
	GetUpdatesChan(config api.UpdateConfig) api.UpdatesChannel
	StopReceivingUpdates()
}

type TelegramUsecaseDeps struct {
	Bot       Bot
	Chat      *ChatUsecase
	History   *HistoryUsecase
	Theme     *ThemeUsecase
	AuthProbe *AuthProbeUsecase
}

type menuMessage struct {
	chatID    int64
	messageID int
}

// TelegramUsecase is the presentation layer: it turns updates from the bot
// owner into chat, history and theme operations and renders the results.
type TelegramUsecase struct {
	TelegramUsecaseDeps
	cfg      config.Telegram
	limiter  *rate.Limiter
	inflight *conc.WaitGroup
	now      func() time.Time

	mu    sync.Mutex
	menus map[string]menuMessage
}

// incoming is the part of an update the bot acts on.
type incoming struct {
	chatID       int64
	userID       int64
	messageID    int
	lang         local.Language
	text         string
	command      string
	args         string
	callbackID   string
	callbackData string
}

func NewTelegramUsecase(cfg config.Telegram, deps TelegramUsecaseDeps) (*TelegramUsecase, error) {
	limit := rate.Inf
	burst := 1
	if cfg.SendRatePerSec > 0 {
		limit = rate.Limit(cfg.SendRatePerSec)
		burst = max(1, int(cfg.SendRatePerSec))
	}

	_, err := deps.Bot.Request(
		api.NewSetMyCommands(
			[]api.BotCommand{
				{Command: CommandHelp, Description: "Get help"},
				{Command: CommandImage, Description: "Generate an image from a description"},
				{Command: CommandSettings, Description: "Settings menu"},
				{Command: CommandTools, Description: "Tools menu"},
				{Command: CommandUser, Description: "Account menu"},
				{Command: CommandClear, Description: "Clear chat history"},
				{Command: CommandExport, Description: "Download chat history"},
				{Command: CommandTheme, Description: "Switch light and dark theme"},
			}...,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set bot commands: %w", err)
	}

	return &TelegramUsecase{
		TelegramUsecaseDeps: deps,
		cfg:                 cfg,
		limiter:             rate.NewLimiter(limit, burst),
		inflight:            conc.NewWaitGroup(),
		now:                 time.Now,
		menus:               make(map[string]menuMessage),
	}, nil
}

// Run polls updates until ctx is cancelled, then waits for requests that
// are still being answered.
func (t *TelegramUsecase) Run(ctx context.Context) error {
	u := api.NewUpdate(0)
	u.Timeout = t.cfg.UpdateTimeout

	updates := t.Bot.GetUpdatesChan(u)
	defer t.inflight.Wait()

	for {
		select {
		case <-ctx.Done():
			t.Bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			in, ok := parseUpdate(update)
			if !ok {
				continue
			}
			if err := t.handle(ctx, in); err != nil {
				log.Printf("error handling update %d: %v", update.UpdateID, err)
			}
		}
	}
}

func parseUpdate(update api.Update) (incoming, bool) {
	var in incoming
	switch {
	case update.Message != nil:
		msg := update.Message
		in.chatID = msg.Chat.ID
		in.messageID = msg.MessageID
		in.text = msg.Text
		if msg.From != nil {
			in.userID = msg.From.ID
			in.lang = local.ParseLanguage(msg.From.LanguageCode)
		}
		if msg.IsCommand() {
			in.command = msg.Command()
			in.args = msg.CommandArguments()
		}
	case update.CallbackQuery != nil:
		query := update.CallbackQuery
		in.callbackID = query.ID
		in.callbackData = query.Data
		if query.From != nil {
			in.userID = query.From.ID
			in.lang = local.ParseLanguage(query.From.LanguageCode)
		}
		if query.Message != nil {
			in.chatID = query.Message.Chat.ID
			in.messageID = query.Message.MessageID
		}
	default:
		return incoming{}, false
	}
	if in.lang == "" {
		in.lang = local.DefaultLanguage
	}
	return in, true
}

func (t *TelegramUsecase) handle(ctx context.Context, in incoming) error {
	if in.userID != t.cfg.OwnerTelegramID {
		if in.callbackID != "" {
			t.answerCallback(ctx, in.callbackID)
		}
		t.sendText(ctx, in.chatID, TextUserNoAccess.Text(in.lang))
		return nil
	}

	if !isMenuCommand(in.command) {
		t.closeMenus(ctx)
	}

	switch {
	case in.callbackID != "":
		return t.handleCallback(ctx, in)
	case in.command != "":
		return t.handleCommand(ctx, in)
	default:
		t.startChatRequest(ctx, in)
		return nil
	}
}

func (t *TelegramUsecase) handleCommand(ctx context.Context, in incoming) error {
	switch in.command {
	case CommandStart:
		t.sendText(ctx, in.chatID, TextCommandStart.Text(in.lang))
	case CommandHelp:
		t.sendText(ctx, in.chatID, TextCommandHelp.Text(in.lang))
	case CommandSettings, CommandTools, CommandUser:
		return t.toggleMenu(ctx, in)
	case CommandClear:
		return t.askClear(ctx, in)
	case CommandExport:
		return t.sendExport(ctx, in)
	case CommandTheme:
		t.toggleTheme(ctx, in)
	case CommandImage:
		t.startImageRequest(ctx, in, in.args)
	default:
		t.sendText(ctx, in.chatID, TextCommandUnknown.Text(in.lang))
	}
	return nil
}

func (t *TelegramUsecase) handleCallback(ctx context.Context, in incoming) error {
	t.answerCallback(ctx, in.callbackID)

	switch in.callbackData {
	case CallbackTheme:
		t.toggleTheme(ctx, in)
	case CallbackClear:
		return t.askClear(ctx, in)
	case CallbackClearYes:
		t.deleteMessage(ctx, in.chatID, in.messageID)
		if err := t.History.Clear(ctx); err != nil {
			t.sendText(ctx, in.chatID, TextErrorStorage.Text(in.lang))
			return fmt.Errorf("failed to clear history: %w", err)
		}
		t.sendText(ctx, in.chatID, TextCleared.Text(in.lang))
	case CallbackClearNo:
		t.deleteMessage(ctx, in.chatID, in.messageID)
		t.sendText(ctx, in.chatID, TextClearCancelled.Text(in.lang))
	case CallbackExport:
		return t.sendExport(ctx, in)
	case CallbackImage:
		t.sendText(ctx, in.chatID, TextImageEmptyPrompt.Text(in.lang))
	case CallbackAuthCheck:
		t.checkAuth(ctx, in)
	default:
		log.Printf("unknown callback data %q", in.callbackData)
	}
	return nil
}

func (t *TelegramUsecase) startChatRequest(ctx context.Context, in incoming) {
	// an accepted request is answered even when polling stops meanwhile
	ctx = context.WithoutCancel(ctx)
	t.inflight.Go(
		func() {
			stop := t.indicate(ctx, in.chatID, api.ChatTyping)
			reply, err := t.Chat.HandleUserRequest(ctx, in.lang, in.text)
			stop()
			if err != nil {
				if !errors.Is(err, model.ErrBusy) {
					log.Printf("failed to answer message: %v", err)
				}
				t.sendText(ctx, in.chatID, userErrorText(in.lang, err))
				return
			}
			if reply.Image != nil {
				t.sendPhoto(ctx, in.chatID, *reply.Image, reply.Text, imageFileName(in.text))
				return
			}
			t.sendHTML(ctx, in.chatID, reply.Text)
		},
	)
}

func (t *TelegramUsecase) startImageRequest(ctx context.Context, in incoming, prompt string) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		t.sendText(ctx, in.chatID, TextImageEmptyPrompt.Text(in.lang))
		return
	}
	ctx = context.WithoutCancel(ctx)
	t.inflight.Go(
		func() {
			stop := t.indicate(ctx, in.chatID, api.ChatUploadPhoto)
			image, err := t.Chat.HandleImageRequest(ctx, prompt)
			stop()
			if err != nil {
				if errors.Is(err, model.ErrBusy) {
					t.sendText(ctx, in.chatID, TextImageBusy.Text(in.lang))
					return
				}
				log.Printf("failed to generate image: %v", err)
				t.sendText(ctx, in.chatID, userErrorText(in.lang, err))
				return
			}
			caption := TextImageCaption.Format(in.lang, html.EscapeString(prompt))
			t.sendPhoto(ctx, in.chatID, image, caption, imageFileName(prompt))
		},
	)
}

// indicate repeats a chat action until the returned stop func is called.
func (t *TelegramUsecase) indicate(ctx context.Context, chatID int64, action string) func() {
	ctx, cancel := context.WithCancel(ctx)
	wg := conc.NewWaitGroup()
	wg.Go(
		func() {
			ticker := time.NewTicker(chatActionInterval)
			defer ticker.Stop()
			for {
				if err := t.request(ctx, api.NewChatAction(chatID, action)); err != nil {
					if ctx.Err() == nil {
						log.Printf("failed to send chat action: %v", err)
					}
				}
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
			}
		},
	)
	return func() {
		cancel()
		wg.Wait()
	}
}

func (t *TelegramUsecase) toggleMenu(ctx context.Context, in incoming) error {
	t.mu.Lock()
	_, wasOpen := t.menus[in.command]
	t.mu.Unlock()

	t.closeMenus(ctx)
	if wasOpen {
		return nil
	}

	msg := api.NewMessage(in.chatID, html.EscapeString(t.menuText(in)))
	msg.ParseMode = api.ModeHTML
	msg.ReplyMarkup = t.menuKeyboard(in)
	sent, err := t.send(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to send %s menu: %w", in.command, err)
	}

	t.mu.Lock()
	t.menus[in.command] = menuMessage{chatID: in.chatID, messageID: sent.MessageID}
	t.mu.Unlock()
	return nil
}

func (t *TelegramUsecase) menuText(in incoming) string {
	icon := themeIcon(t.Theme.Current())
	switch in.command {
	case CommandSettings:
		return TextMenuSettings.Format(in.lang, icon)
	case CommandTools:
		return TextMenuTools.Format(in.lang, icon)
	default:
		return TextMenuUser.Format(in.lang, icon, t.History.Len(), t.authStatusText(in.lang))
	}
}

func (t *TelegramUsecase) menuKeyboard(in incoming) api.InlineKeyboardMarkup {
	switch in.command {
	case CommandSettings:
		next := t.Theme.Current().Toggle()
		label := TextButtonTheme.Format(in.lang, themeIcon(next)+" "+string(next))
		return api.NewInlineKeyboardMarkup(
			api.NewInlineKeyboardRow(api.NewInlineKeyboardButtonData(label, CallbackTheme)),
		)
	case CommandTools:
		return api.NewInlineKeyboardMarkup(
			api.NewInlineKeyboardRow(api.NewInlineKeyboardButtonData(TextButtonImage.Text(in.lang), CallbackImage)),
			api.NewInlineKeyboardRow(api.NewInlineKeyboardButtonData(TextButtonExport.Text(in.lang), CallbackExport)),
			api.NewInlineKeyboardRow(api.NewInlineKeyboardButtonData(TextButtonClear.Text(in.lang), CallbackClear)),
		)
	default:
		return api.NewInlineKeyboardMarkup(
			api.NewInlineKeyboardRow(api.NewInlineKeyboardButtonData(TextButtonAuthCheck.Text(in.lang), CallbackAuthCheck)),
		)
	}
}

func (t *TelegramUsecase) closeMenus(ctx context.Context) {
	t.mu.Lock()
	open := t.menus
	t.menus = make(map[string]menuMessage)
	t.mu.Unlock()

	for _, menu := range open {
		t.deleteMessage(ctx, menu.chatID, menu.messageID)
	}
}

func isMenuCommand(command string) bool {
	switch command {
	case CommandSettings, CommandTools, CommandUser:
		return true
	default:
		return false
	}
}

func (t *TelegramUsecase) askClear(ctx context.Context, in incoming) error {
	msg := api.NewMessage(in.chatID, html.EscapeString(TextClearConfirm.Text(in.lang)))
	msg.ParseMode = api.ModeHTML
	msg.ReplyMarkup = api.NewInlineKeyboardMarkup(
		api.NewInlineKeyboardRow(
			api.NewInlineKeyboardButtonData(TextClearYes.Text(in.lang), CallbackClearYes),
			api.NewInlineKeyboardButtonData(TextClearNo.Text(in.lang), CallbackClearNo),
		),
	)
	if _, err := t.send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send clear confirmation: %w", err)
	}
	return nil
}

func (t *TelegramUsecase) sendExport(ctx context.Context, in incoming) error {
	data, err := t.History.Export()
	if err != nil {
		t.sendText(ctx, in.chatID, TextErrorGeneric.Text(in.lang))
		return err
	}
	doc := api.NewDocument(in.chatID, api.FileBytes{Name: ExportFileName(t.now()), Bytes: data})
	doc.Caption = TextExportCaption.Format(in.lang, t.History.Len())
	if _, err = t.send(ctx, doc); err != nil {
		return fmt.Errorf("failed to send history export: %w", err)
	}
	return nil
}

func (t *TelegramUsecase) toggleTheme(ctx context.Context, in incoming) {
	theme, err := t.Theme.Toggle(ctx)
	if err != nil {
		log.Printf("failed to toggle theme: %v", err)
	}
	t.sendText(ctx, in.chatID, TextThemeSwitched.Format(in.lang, themeIcon(theme), theme))
}

func (t *TelegramUsecase) checkAuth(ctx context.Context, in incoming) {
	if t.AuthProbe == nil {
		t.sendText(ctx, in.chatID, TextAuthUnchecked.Text(in.lang))
		return
	}
	probeCtx, cancel := context.WithTimeout(ctx, authProbeTimeout)
	defer cancel()
	_ = t.AuthProbe.Probe(probeCtx)
	t.sendText(ctx, in.chatID, t.authStatusText(in.lang))
}

func (t *TelegramUsecase) authStatusText(lang local.Language) string {
	if t.AuthProbe == nil {
		return TextAuthUnchecked.Text(lang)
	}
	status := t.AuthProbe.Status()
	switch {
	case !status.Checked:
		return TextAuthUnchecked.Text(lang)
	case status.Err != nil:
		return TextAuthFailed.Format(lang, status.Err)
	default:
		return TextAuthOK.Text(lang)
	}
}

// userErrorText renders one message per error kind.
func userErrorText(lang local.Language, err error) string {
	var httpErr *model.HTTPError
	switch {
	case errors.Is(err, model.ErrBusy):
		return TextBusy.Text(lang)
	case errors.Is(err, context.DeadlineExceeded):
		return TextErrorTimeout.Text(lang)
	case errors.Is(err, model.ErrMissingCredential):
		return TextErrorMissingCredential.Text(lang)
	case errors.Is(err, model.ErrUnauthorized):
		return TextErrorUnauthorized.Text(lang)
	case errors.Is(err, model.ErrRateLimited):
		return TextErrorRateLimited.Text(lang)
	case errors.Is(err, model.ErrBadRequest):
		return TextErrorBadRequest.Text(lang)
	case errors.Is(err, model.ErrModelNotFound):
		return TextErrorModelNotFound.Text(lang)
	case errors.Is(err, model.ErrModelLoading):
		return TextErrorModelLoading.Text(lang)
	case errors.Is(err, model.ErrEmptyOrInvalidPayload):
		return TextErrorEmptyPayload.Text(lang)
	case errors.Is(err, model.ErrMalformedResponse):
		return TextErrorMalformed.Text(lang)
	case errors.As(err, &httpErr):
		return TextErrorHTTP.Format(lang, httpErr.StatusCode)
	default:
		return TextErrorGeneric.Text(lang)
	}
}

func imageFileName(prompt string) string {
	return strings.ReplaceAll(strings.TrimSpace(prompt), "/", "_") + ".jpg"
}

func (t *TelegramUsecase) sendText(ctx context.Context, chatID int64, text string) {
	t.sendHTML(ctx, chatID, html.EscapeString(text))
}

// sendHTML delivers text in chunks Telegram accepts. A chunk rejected in
// HTML mode is resent as plain text, and if that fails too the owner gets
// the generic error message.
func (t *TelegramUsecase) sendHTML(ctx context.Context, chatID int64, text string) {
	for _, chunk := range splitMessage(text, maxMessageLength) {
		msg := api.NewMessage(chatID, chunk)
		msg.ParseMode = api.ModeHTML
		_, err := t.send(ctx, msg)
		if err == nil {
			continue
		}
		log.Printf("failed to send html message to bot: %v", err)

		if _, err = t.send(ctx, api.NewMessage(chatID, plainText(chunk))); err == nil {
			continue
		}
		log.Printf("failed to send plain message to bot: %v", err)

		if _, err = t.send(ctx, api.NewMessage(chatID, TextErrorGeneric.Text(local.DefaultLanguage))); err != nil {
			log.Printf("failed to send error message to bot: %v", err)
		}
		return
	}
}

// splitMessage cuts text into pieces of at most limit runes, preferring line
// breaks and then spaces as cut points.
func splitMessage(text string, limit int) []string {
	var chunks []string
	runes := []rune(text)
	for len(runes) > limit {
		cut := lastIndexRune(runes[:limit], '\n')
		if cut <= 0 {
			cut = lastIndexRune(runes[:limit], ' ')
		}
		if cut <= 0 {
			cut = limit
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
		if len(runes) > 0 && (runes[0] == '\n' || runes[0] == ' ') {
			runes = runes[1:]
		}
	}
	if len(runes) > 0 || len(chunks) == 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}

func lastIndexRune(runes []rune, r rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}

// plainText strips the tags produced by markup.Format and unescapes entities.
func plainText(text string) string {
	return html.UnescapeString(htmlTag.ReplaceAllString(text, ""))
}

func (t *TelegramUsecase) sendPhoto(ctx context.Context, chatID int64, image model.Image, caption, name string) {
	photo := api.NewPhoto(chatID, api.FileBytes{Name: name, Bytes: image.Data})
	photo.Caption = caption
	photo.ParseMode = api.ModeHTML
	if _, err := t.send(ctx, photo); err != nil {
		log.Printf("failed to send photo to bot: %v", err)
	}
}

func (t *TelegramUsecase) deleteMessage(ctx context.Context, chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	if err := t.request(ctx, api.NewDeleteMessage(chatID, messageID)); err != nil {
		log.Printf("failed to delete message %d: %v", messageID, err)
	}
}

func (t *TelegramUsecase) answerCallback(ctx context.Context, callbackID string) {
	if err := t.request(ctx, api.NewCallback(callbackID, "")); err != nil {
		log.Printf("failed to answer callback: %v", err)
	}
}

func (t *TelegramUsecase) send(ctx context.Context, c api.Chattable) (api.Message, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return api.Message{}, err
	}
	return t.Bot.Send(c)
}

func (t *TelegramUsecase) request(ctx context.Context, c api.Chattable) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := t.Bot.Request(c)
	return err
}
