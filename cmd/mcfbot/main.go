package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/muhsaibcf/mcf-bot/internal/config"
	"github.com/muhsaibcf/mcf-bot/internal/editwindow"
	"github.com/muhsaibcf/mcf-bot/internal/logger"
	"github.com/muhsaibcf/mcf-bot/internal/middleware"
	"github.com/muhsaibcf/mcf-bot/internal/statusserver"
	"github.com/muhsaibcf/mcf-bot/internal/storage"
	"github.com/muhsaibcf/mcf-bot/internal/telegrambot"
)

func main() {
	configPath := flag.String("c", "cmd/mcfbot/config.yaml", "путь к файлу конфигурации")
	flag.Parse()

	// .env удобен при локальном запуске, на хостинге его нет
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		panic(err)
	}

	conf, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.NewZapLogger(conf)
	if err != nil {
		panic(err)
	}
	log.Info("Initialized logger")

	if conf.Bot.Token == "" {
		log.Error("BOT_TOKEN is not set")
		panic("BOT_TOKEN is not set")
	}

	// Первичная загрузка таблицы с удаленного источника, если файла нет
	if conf.Data.RemoteURL != "" {
		if _, err := os.Stat(conf.Data.CSVPath); os.IsNotExist(err) {
			log.Infof("Fetching roster from %s", conf.Data.RemoteURL)
			if err := storage.FetchCSV(conf.Data.RemoteURL, conf.Data.CSVPath); err != nil {
				log.Errorf("Failed to fetch remote roster: %v", err)
			}
		}
	}

	log.Info("Initializing CSV roster")
	roster, err := storage.NewCSVRoster(conf.Data.CSVPath, conf.BackupDir())
	if err != nil {
		log.Errorf("Failed to initialize roster: %v", err)
		panic(err)
	}
	log.Infof("Roster loaded, %d rows", roster.Len())

	state, err := storage.NewStateStore(conf.Data.Dir)
	if err != nil {
		log.Errorf("Failed to initialize state store: %v", err)
		panic(err)
	}

	// Начало окна редактирования переживает перезапуски
	start, ok := state.WindowStart()
	if !ok {
		start = time.Now()
		if err := state.SetWindowStart(start); err != nil {
			log.Errorf("Failed to persist window start: %v", err)
		}
	}
	window := editwindow.New(start, conf.Window.Days, conf.Data.ReadOnly)
	log.Infof("Edit window: start %s, %d days, read-only %v", start.Format(time.RFC3339), conf.Window.Days, conf.Data.ReadOnly)

	bot, err := telegrambot.NewBot(telegrambot.Config{
		Token:             conf.Bot.Token,
		AdminIDs:          conf.Bot.AdminIDs,
		BotName:           conf.Bot.Name,
		SupportContact:    conf.Bot.SupportContact,
		SupportLink:       conf.Bot.SupportLink,
		CSVPollInterval:   time.Duration(conf.Data.CSVPollInterval) * time.Second,
		PollCheckInterval: time.Duration(conf.Data.PollCheckInterval) * time.Second,
	}, roster, state, window, log)
	if err != nil {
		log.Errorf("Failed to create bot: %v", err)
		panic(err)
	}

	if err := bot.Start(); err != nil {
		log.Errorf("Failed to start bot: %v", err)
		panic(err)
	}

	// Статусный сервер для проверок хостинга
	router := statusserver.NewRouter(roster, state, window, log)
	server := statusserver.NewStatusServer(conf.Status.RunAddress, router, log)

	hLogger := middleware.NewHTTPLoger(log)
	server.AddMidleware(hLogger.HTTPLogHandler)

	go server.RunServer()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Initialized shutdown")
	if err := bot.Stop(); err != nil {
		log.Errorf("Cann't stop bot %s", err)
	}
	if err := server.Shutdown(context.Background()); err != nil {
		log.Errorf("Cann't stop server %s", err)
	}

	if err := log.Close(); err != nil {
		panic(err)
	}
}
