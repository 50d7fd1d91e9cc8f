package telegrambot

import (
	"fmt"
	"time"

	"github.com/muhsaibcf/mcf-bot/internal/editwindow"
	"github.com/muhsaibcf/mcf-bot/internal/logger"
	"github.com/muhsaibcf/mcf-bot/internal/storage"
	tele "gopkg.in/telebot.v3"
)

// Config представляет конфигурацию Telegram-бота
type Config struct {
	Token             string        // Токен бота
	AdminIDs          []int64       // ID администраторов
	BotName           string        // Имя фонда для приветствий
	SupportContact    string        // Контакт поддержки
	SupportLink       string        // Ссылка поддержки для QR-кода
	CSVPollInterval   time.Duration // Интервал проверки файла таблицы
	PollCheckInterval time.Duration // Интервал закрытия опросов
}

// Кнопки меню. Уникальные имена фиксированы, чтобы колбэки
// переживали перезапуск бота.
var (
	btnView    = tele.Btn{Unique: "menu_view"}
	btnEdit    = tele.Btn{Unique: "menu_edit"}
	btnWallet  = tele.Btn{Unique: "menu_wallet"}
	btnPolls   = tele.Btn{Unique: "menu_polls"}
	btnSupport = tele.Btn{Unique: "menu_support"}
	btnLogout  = tele.Btn{Unique: "menu_logout"}
	btnLang    = tele.Btn{Unique: "lang"}
	btnField   = tele.Btn{Unique: "fld"}
	btnVote    = tele.Btn{Unique: "vote"}
)

// Bot представляет бота фонда
type Bot struct {
	bot    *tele.Bot
	roster storage.Roster
	state  *storage.StateStore
	window *editwindow.Window
	logger logger.Logger
	config Config
	stop   chan struct{}
}

// NewBot создает нового бота
func NewBot(config Config, roster storage.Roster, state *storage.StateStore, window *editwindow.Window, logger logger.Logger) (*Bot, error) {
	pref := tele.Settings{
		Token:  config.Token,
		Poller: &tele.LongPoller{Timeout: 10},
	}

	bot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания бота: %w", err)
	}

	return &Bot{
		bot:    bot,
		roster: roster,
		state:  state,
		window: window,
		logger: logger,
		config: config,
		stop:   make(chan struct{}),
	}, nil
}

// Start запускает бота
func (b *Bot) Start() error {
	b.logger.Info("Запуск бота фонда")

	// Пользовательские команды
	b.bot.Handle("/start", b.handleStart)
	b.bot.Handle("/menu", b.handleMenu)
	b.bot.Handle(tele.OnText, b.handleText)

	// Колбэки меню
	b.bot.Handle(&btnView, b.handleViewButton)
	b.bot.Handle(&btnEdit, b.handleEditButton)
	b.bot.Handle(&btnWallet, b.handleWalletButton)
	b.bot.Handle(&btnPolls, b.handlePollsButton)
	b.bot.Handle(&btnSupport, b.handleSupportButton)
	b.bot.Handle(&btnLogout, b.handleLogoutButton)
	b.bot.Handle(&btnLang, b.handleLangButton)
	b.bot.Handle(&btnField, b.handleFieldButton)
	b.bot.Handle(&btnVote, b.handleVoteButton)

	// Административные команды
	b.bot.Handle("/all", b.handleAll)
	b.bot.Handle("/reload", b.handleReload)
	b.bot.Handle("/broadcast", b.handleBroadcast)
	b.bot.Handle("/enable_edit", b.handleEnableEdit)
	b.bot.Handle("/disable_edit", b.handleDisableEdit)
	b.bot.Handle("/adduser", b.handleAddUser)
	b.bot.Handle("/create_poll", b.handleCreatePoll)
	b.bot.Handle("/post_results", b.handlePostResults)
	b.bot.Handle("/credit", b.handleCredit)
	b.bot.Handle("/stats", b.handleStats)
	b.bot.Handle("/backup", b.handleBackup)
	b.bot.Handle("/find", b.handleFind)
	b.bot.Handle("/help", b.handleHelp)

	// Фоновые циклы
	go b.runCSVWatcher()
	go b.runPollCloser()
	go b.runWindowReminder()

	// Запуск бота
	go b.bot.Start()

	return nil
}

// Stop останавливает бота
func (b *Bot) Stop() error {
	b.logger.Info("Остановка бота фонда")
	close(b.stop)
	b.bot.Stop()
	return nil
}

// isAdmin проверяет, входит ли пользователь в список администраторов
func (b *Bot) isAdmin(id int64) bool {
	for _, adminID := range b.config.AdminIDs {
		if adminID == id {
			return true
		}
	}
	return false
}

// notifyAdmins отправляет сообщение всем администраторам
func (b *Bot) notifyAdmins(text string) {
	for _, adminID := range b.config.AdminIDs {
		if _, err := b.bot.Send(&tele.User{ID: adminID}, text); err != nil {
			b.logger.Errorf("Ошибка отправки сообщения администратору %d: %v", adminID, err)
		}
	}
}
