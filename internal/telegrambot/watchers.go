package telegrambot

import (
	"fmt"
	"time"
)

// Интервал проверки напоминаний об окне редактирования.
const reminderInterval = time.Hour

// runCSVWatcher перечитывает файл таблицы при изменении
func (b *Bot) runCSVWatcher() {
	interval := b.config.CSVPollInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			changed, err := b.roster.Reload()
			if err != nil {
				b.logger.Errorf("Ошибка перезагрузки ростера: %v", err)
				continue
			}
			if changed {
				b.logger.Infof("Ростер перечитан с диска, строк: %d", b.roster.Len())
			}
		}
	}
}

// runPollCloser закрывает просроченные опросы и рассылает итоги
func (b *Bot) runPollCloser() {
	interval := b.config.PollCheckInterval
	if interval <= 0 {
		interval = 20 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			expired, err := b.state.ExpirePolls(time.Now())
			if err != nil {
				b.logger.Errorf("Ошибка сохранения закрытых опросов: %v", err)
			}
			for _, poll := range expired {
				b.logger.Infof("Опрос %s закрыт", poll.Id)
				b.notifyAdmins(formatPollResults(poll))
			}
		}
	}
}

// reminderText возвращает текст напоминания для администраторов либо
// пустую строку, если сегодня напоминать не о чем. Отсчет идет только
// по оставшимся дням: режим только для чтения напоминаний не отменяет.
func (b *Bot) reminderText(now time.Time) string {
	left := b.window.DaysLeft(now)
	switch {
	case left == 3 || left == 1:
		return fmt.Sprintf("Edit window reminder: %d day(s) left.", left)
	case b.window.DaysSince(now) == b.window.Days()+1:
		return "The edit window closed today."
	}
	return ""
}

// runWindowReminder раз в сутки напоминает администраторам о закрытии
// окна редактирования: за 3 дня, за 1 день и в день закрытия
func (b *Bot) runWindowReminder() {
	ticker := time.NewTicker(reminderInterval)
	defer ticker.Stop()

	lastDate := ""
	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			now := time.Now()
			date := now.Format("2006-01-02")
			if date == lastDate {
				continue
			}

			text := b.reminderText(now)
			if text == "" {
				continue
			}

			lastDate = date
			b.logger.Infof("Напоминание об окне редактирования: %s", text)
			b.notifyAdmins(text)
		}
	}
}
