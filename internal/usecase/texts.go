package usecase

import (
	"github.com/iamvkosarev/pink-ai-bot/internal/model"
	"github.com/iamvkosarev/pink-ai-bot/pkg/local"
)

var cannedReplies = map[model.Intent][]local.TextSet{
	model.IntentGreeting: {
		local.NewSet("Hello! How can I help you today? 😊", local.NewTrans(local.Rus, "Привет! Чем могу помочь? 😊")),
		local.NewSet("Hi there! What's on your mind? 👋", local.NewTrans(local.Rus, "Привет! О чём поговорим? 👋")),
	},
	model.IntentGoodbye: {
		local.NewSet("Goodbye! Have a great day! 👋", local.NewTrans(local.Rus, "Пока! Хорошего дня! 👋")),
		local.NewSet("See you later! 😸", local.NewTrans(local.Rus, "До встречи! 😸")),
	},
	model.IntentThanks: {
		local.NewSet("You're welcome! 😊", local.NewTrans(local.Rus, "Пожалуйста! 😊")),
		local.NewSet("Happy to help!", local.NewTrans(local.Rus, "Рад помочь!")),
	},
}

var (
	TextMathResult = local.NewSet(
		"The result is: %s",
		local.NewTrans(local.Rus, "Результат: %s"),
	)
	TextMathInvalid = local.NewSet(
		"I couldn't solve that math problem. It seems to be invalid. 🤔",
		local.NewTrans(local.Rus, "Не получилось решить этот пример. Похоже, он некорректен. 🤔"),
	)
	TextImageCaption = local.NewSet(
		"🖼 %s",
		local.NewTrans(local.Rus, "🖼 %s"),
	)

	TextCommandStart = local.NewSet(
		"Hi, I'm Pink 🌸 Ask me anything, or use /image to draw a picture. /settings, /tools and /user open the menus.",
		local.NewTrans(local.Rus, "Привет, я Pink 🌸 Спрашивайте что угодно или используйте /image, чтобы нарисовать картинку. /settings, /tools и /user открывают меню."),
	)
	TextCommandHelp = local.NewSet(
		"Write a message to chat. /image <description> generates a picture. /clear wipes the history, /export downloads it, /theme switches light and dark.",
		local.NewTrans(local.Rus, "Напишите сообщение, чтобы пообщаться. /image <описание> создаёт картинку. /clear очищает историю, /export выгружает её, /theme переключает светлую и тёмную тему."),
	)
	TextCommandUnknown = local.NewSet(
		"I don't know that command",
		local.NewTrans(local.Rus, "Я не знаю такой команды"),
	)
	TextUserNoAccess = local.NewSet(
		"You are not allowed to use this bot",
		local.NewTrans(local.Rus, "У вас нет доступа к этому боту"),
	)
	TextBusy = local.NewSet(
		"⏳ Still working on your previous message, please wait.",
		local.NewTrans(local.Rus, "⏳ Ещё отвечаю на предыдущее сообщение, подождите."),
	)
	TextImageBusy = local.NewSet(
		"⏳ An image is already being generated, please wait.",
		local.NewTrans(local.Rus, "⏳ Картинка уже генерируется, подождите."),
	)
	TextImageEmptyPrompt = local.NewSet(
		"Please type a description for the image you'd like to generate: /image <description>",
		local.NewTrans(local.Rus, "Опишите картинку, которую нужно создать: /image <описание>"),
	)

	TextClearConfirm = local.NewSet(
		"Are you sure you want to clear the entire chat history?",
		local.NewTrans(local.Rus, "Точно очистить всю историю чата?"),
	)
	TextClearYes = local.NewSet("Yes, clear", local.NewTrans(local.Rus, "Да, очистить"))
	TextClearNo  = local.NewSet("Cancel", local.NewTrans(local.Rus, "Отмена"))
	TextCleared  = local.NewSet(
		"🧹 Chat history cleared.",
		local.NewTrans(local.Rus, "🧹 История чата очищена."),
	)
	TextClearCancelled = local.NewSet(
		"History kept.",
		local.NewTrans(local.Rus, "История сохранена."),
	)
	TextExportCaption = local.NewSet(
		"📦 %d messages exported.",
		local.NewTrans(local.Rus, "📦 Выгружено сообщений: %d."),
	)
	TextThemeSwitched = local.NewSet(
		"%s Theme switched to %s.",
		local.NewTrans(local.Rus, "%s Тема переключена: %s."),
	)

	TextMenuSettings = local.NewSet("%s Settings", local.NewTrans(local.Rus, "%s Настройки"))
	TextMenuTools    = local.NewSet("%s Tools", local.NewTrans(local.Rus, "%s Инструменты"))
	TextMenuUser     = local.NewSet(
		"%s Account\nMessages in history: %d\nImage token: %s",
		local.NewTrans(local.Rus, "%s Аккаунт\nСообщений в истории: %d\nТокен картинок: %s"),
	)
	TextButtonTheme     = local.NewSet("Switch to %s", local.NewTrans(local.Rus, "Переключить на %s"))
	TextButtonClear     = local.NewSet("🧹 Clear history", local.NewTrans(local.Rus, "🧹 Очистить историю"))
	TextButtonExport    = local.NewSet("📦 Export history", local.NewTrans(local.Rus, "📦 Выгрузить историю"))
	TextButtonImage     = local.NewSet("🖼 Generate image", local.NewTrans(local.Rus, "🖼 Создать картинку"))
	TextButtonAuthCheck = local.NewSet("🔑 Check token", local.NewTrans(local.Rus, "🔑 Проверить токен"))

	TextAuthUnchecked = local.NewSet("not checked yet", local.NewTrans(local.Rus, "ещё не проверен"))
	TextAuthOK        = local.NewSet("✅ works", local.NewTrans(local.Rus, "✅ работает"))
	TextAuthFailed    = local.NewSet("⚠️ failed (%v)", local.NewTrans(local.Rus, "⚠️ ошибка (%v)"))

	TextErrorGeneric = local.NewSet(
		"Sorry, I'm having trouble connecting. Please try again later.",
		local.NewTrans(local.Rus, "Извините, не удаётся связаться с сервисом. Попробуйте позже."),
	)
	TextErrorTimeout = local.NewSet(
		"⌛ The request took too long and was cancelled. Please try again.",
		local.NewTrans(local.Rus, "⌛ Запрос выполнялся слишком долго и был отменён. Попробуйте снова."),
	)
	TextErrorMissingCredential = local.NewSet(
		"A valid API key is required. Ask the bot owner to configure it.",
		local.NewTrans(local.Rus, "Нужен действующий API-ключ. Попросите владельца бота настроить его."),
	)
	TextErrorUnauthorized = local.NewSet(
		"❌ Invalid API key. The bot owner needs to check the token.",
		local.NewTrans(local.Rus, "❌ Неверный API-ключ. Владельцу бота нужно проверить токен."),
	)
	TextErrorRateLimited = local.NewSet(
		"⏰ Rate limit exceeded. Try again in a minute.",
		local.NewTrans(local.Rus, "⏰ Превышен лимит запросов. Попробуйте через минуту."),
	)
	TextErrorBadRequest = local.NewSet(
		"🚫 Bad request – maybe the prompt is too long or malformed.",
		local.NewTrans(local.Rus, "🚫 Некорректный запрос – возможно, описание слишком длинное."),
	)
	TextErrorModelNotFound = local.NewSet(
		"❓ Model not found.",
		local.NewTrans(local.Rus, "❓ Модель не найдена."),
	)
	TextErrorModelLoading = local.NewSet(
		"⏳ Model is loading. Wait a few seconds and retry.",
		local.NewTrans(local.Rus, "⏳ Модель загружается. Подождите несколько секунд и повторите."),
	)
	TextErrorEmptyPayload = local.NewSet(
		"Received an empty or non-image response from the model.",
		local.NewTrans(local.Rus, "Модель вернула пустой ответ или не картинку."),
	)
	TextErrorMalformed = local.NewSet(
		"Invalid API response format.",
		local.NewTrans(local.Rus, "Неожиданный формат ответа API."),
	)
	TextErrorHTTP = local.NewSet(
		"🔥 API error %d",
		local.NewTrans(local.Rus, "🔥 Ошибка API %d"),
	)
	TextErrorStorage = local.NewSet(
		"Failed to save your history. Try later",
		local.NewTrans(local.Rus, "Не удалось сохранить историю. Попробуйте позже"),
	)
)
