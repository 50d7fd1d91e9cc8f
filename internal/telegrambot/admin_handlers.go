package telegrambot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/muhsaibcf/mcf-bot/internal/models"
	"github.com/muhsaibcf/mcf-bot/internal/storage"
	tele "gopkg.in/telebot.v3"
)

const adminHelp = `Admin commands:
/all — list roster rows
/find <email_or_phone> — search the roster
/adduser FullName|Email|Phone|AdmissionNumber|Course|Address — add a row
/credit <row_index> <amount> — credit a wallet
/reload — reload the roster from disk
/backup — back up the roster file
/broadcast <text> — message all verified users
/enable_edit — open the edit window
/disable_edit — close the edit window
/create_poll Title | opt1,opt2 | minutes — create a poll
/post_results <poll_id> — post poll tallies
/stats — bot statistics`

// requireAdmin отправляет отказ, если отправитель не администратор
func (b *Bot) requireAdmin(c tele.Context) bool {
	if b.isAdmin(c.Sender().ID) {
		return true
	}
	b.logger.Infof("Пользователь %d попытался выполнить %s", c.Sender().ID, c.Text())
	if err := c.Send("You don't have access to this command."); err != nil {
		b.logger.Errorf("Ошибка отправки отказа чату %d: %v", c.Sender().ID, err)
	}
	return false
}

// handleHelp обрабатывает команду /help
func (b *Bot) handleHelp(c tele.Context) error {
	if !b.requireAdmin(c) {
		return nil
	}
	return c.Send(adminHelp)
}

// handleAll обрабатывает команду /all
func (b *Bot) handleAll(c tele.Context) error {
	if !b.requireAdmin(c) {
		return nil
	}

	records := b.roster.All()
	if len(records) == 0 {
		return c.Send("The roster is empty.")
	}

	lines := make([]string, 0, len(records))
	for _, rec := range records {
		lines = append(lines, fmt.Sprintf("%d. %s | %s | %s | wallet %s",
			rec.Index+1,
			rec.Get(models.ColFullName),
			rec.Get(models.ColEmail),
			rec.Get(models.ColPhone),
			rec.Get(models.ColWallet)))
	}

	for _, chunk := range ChunkLines(lines, messageLimit) {
		if err := c.Send(chunk); err != nil {
			return err
		}
	}
	return nil
}

// handleFind обрабатывает команду /find
func (b *Bot) handleFind(c tele.Context) error {
	if !b.requireAdmin(c) {
		return nil
	}

	term := strings.TrimSpace(c.Message().Payload)
	if term == "" {
		return c.Send("Usage: /find <email_or_phone>")
	}

	records := b.roster.Search(term)
	if len(records) == 0 {
		return c.Send("No matching rows.")
	}

	var parts []string
	for _, rec := range records {
		parts = append(parts, fmt.Sprintf("Row %d:\n%s", rec.Index+1, b.formatRecord(rec)))
	}
	for _, chunk := range ChunkLines(parts, messageLimit) {
		if err := c.Send(chunk); err != nil {
			return err
		}
	}
	return nil
}

// handleAddUser обрабатывает команду /adduser
func (b *Bot) handleAddUser(c tele.Context) error {
	if !b.requireAdmin(c) {
		return nil
	}

	parts := SplitPipe(c.Message().Payload)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return c.Send("Usage: /adduser FullName|Email|Phone|AdmissionNumber|Course|Address")
	}

	columns := []string{
		models.ColFullName,
		models.ColEmail,
		models.ColPhone,
		models.ColAdmissionNumber,
		models.ColCourse,
		models.ColAddress,
	}
	values := make(map[string]string)
	for i, column := range columns {
		if i >= len(parts) {
			break
		}
		values[column] = parts[i]
	}
	values[models.ColEmail] = models.NormalizeEmail(values[models.ColEmail])
	values[models.ColPhone] = models.NormalizePhone(values[models.ColPhone])

	index, err := b.roster.Append(values)
	if err != nil {
		b.logger.Errorf("Ошибка добавления строки: %v", err)
		return c.Send(fmt.Sprintf("Failed to add the row: %v", err))
	}

	b.logger.Infof("Администратор %d добавил строку %d", c.Sender().ID, index)
	return c.Send(fmt.Sprintf("Added row %d: %s (%s)", index+1, values[models.ColFullName], values[models.ColEmail]))
}

// handleCredit обрабатывает команду /credit
func (b *Bot) handleCredit(c tele.Context) error {
	if !b.requireAdmin(c) {
		return nil
	}

	args := strings.Fields(c.Message().Payload)
	if len(args) != 2 {
		return c.Send("Usage: /credit <row_index> <amount>")
	}

	row, err := strconv.Atoi(args[0])
	if err != nil || row < 1 {
		return c.Send("Row index must be a positive number.")
	}
	amount, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return c.Send("Amount must be a number.")
	}

	index := row - 1
	balance, err := b.roster.Credit(index, amount)
	if err != nil {
		b.logger.Errorf("Ошибка пополнения кошелька строки %d: %v", index, err)
		return c.Send(fmt.Sprintf("Failed to credit row %d: %v", row, err))
	}

	b.logger.Infof("Администратор %d пополнил кошелек строки %d на %.2f", c.Sender().ID, index, amount)

	// Сообщаем студенту, если у него есть активная сессия
	for _, sess := range b.state.VerifiedSessions(time.Now()) {
		if sess.Index == index {
			if _, err := b.bot.Send(&tele.User{ID: sess.ChatID}, trf(sess.Lang, "wallet_balance", balance)); err != nil {
				b.logger.Errorf("Ошибка уведомления чата %d: %v", sess.ChatID, err)
			}
		}
	}

	return c.Send(fmt.Sprintf("Row %d credited with %.2f, new balance %.2f", row, amount, balance))
}

// handleReload обрабатывает команду /reload
func (b *Bot) handleReload(c tele.Context) error {
	if !b.requireAdmin(c) {
		return nil
	}

	changed, err := b.roster.Reload()
	if err != nil {
		b.logger.Errorf("Ошибка перезагрузки ростера: %v", err)
		return c.Send(fmt.Sprintf("Reload failed: %v", err))
	}
	if !changed {
		return c.Send("The roster file has not changed.")
	}

	b.logger.Infof("Администратор %d перезагрузил ростер", c.Sender().ID)
	return c.Send(fmt.Sprintf("Roster reloaded, %d rows.", b.roster.Len()))
}

// handleBackup обрабатывает команду /backup
func (b *Bot) handleBackup(c tele.Context) error {
	if !b.requireAdmin(c) {
		return nil
	}

	path, err := b.roster.Backup("manual")
	if err != nil {
		b.logger.Errorf("Ошибка резервного копирования: %v", err)
		return c.Send(fmt.Sprintf("Backup failed: %v", err))
	}
	if path == "" {
		return c.Send("Nothing to back up.")
	}

	b.logger.Infof("Администратор %d создал резервную копию %s", c.Sender().ID, path)
	return c.Send("Backup created: " + path)
}

// handleBroadcast обрабатывает команду /broadcast
func (b *Bot) handleBroadcast(c tele.Context) error {
	if !b.requireAdmin(c) {
		return nil
	}

	text := strings.TrimSpace(c.Message().Payload)
	if text == "" {
		return c.Send("Usage: /broadcast <text>")
	}

	sent := b.broadcast(func(sess *models.Session) string { return text })
	b.logger.Infof("Администратор %d разослал сообщение %d чатам", c.Sender().ID, sent)
	return c.Send(fmt.Sprintf("Broadcast sent to %d user(s).", sent))
}

// broadcast отправляет сообщение всем верифицированным сессиям.
// Текст строится для каждой сессии отдельно ради локализации.
func (b *Bot) broadcast(text func(*models.Session) string) int {
	sent := 0
	for _, sess := range b.state.VerifiedSessions(time.Now()) {
		if _, err := b.bot.Send(&tele.User{ID: sess.ChatID}, text(sess)); err != nil {
			b.logger.Errorf("Ошибка отправки сообщения чату %d: %v", sess.ChatID, err)
			continue
		}
		sent++
	}
	return sent
}

// handleEnableEdit обрабатывает команду /enable_edit
func (b *Bot) handleEnableEdit(c tele.Context) error {
	if !b.requireAdmin(c) {
		return nil
	}

	now := time.Now()
	b.window.Enable(now)
	if err := b.state.SetWindowStart(now); err != nil {
		b.logger.Errorf("Ошибка сохранения начала окна: %v", err)
	}

	b.logger.Infof("Администратор %d открыл окно редактирования", c.Sender().ID)

	days := b.window.Days()
	sent := b.broadcast(func(sess *models.Session) string {
		return trf(sess.Lang, "window_open", days)
	})

	return c.Send(fmt.Sprintf("Edit window opened for %d days, %d user(s) notified.", days, sent))
}

// handleDisableEdit обрабатывает команду /disable_edit
func (b *Bot) handleDisableEdit(c tele.Context) error {
	if !b.requireAdmin(c) {
		return nil
	}

	now := time.Now()
	b.window.Disable(now)
	if err := b.state.SetWindowStart(b.window.Start()); err != nil {
		b.logger.Errorf("Ошибка сохранения начала окна: %v", err)
	}

	b.logger.Infof("Администратор %d закрыл окно редактирования", c.Sender().ID)
	return c.Send("Edit window closed.")
}

// handleCreatePoll обрабатывает команду /create_poll
func (b *Bot) handleCreatePoll(c tele.Context) error {
	if !b.requireAdmin(c) {
		return nil
	}

	parts := SplitPipe(c.Message().Payload)
	if len(parts) != 3 || parts[0] == "" {
		return c.Send("Usage: /create_poll Title | opt1,opt2 | minutes")
	}

	var options []string
	for _, opt := range strings.Split(parts[1], ",") {
		opt = strings.TrimSpace(opt)
		if opt != "" {
			options = append(options, opt)
		}
	}
	if len(options) < 2 {
		return c.Send("A poll needs at least two options.")
	}

	minutes, err := strconv.Atoi(parts[2])
	if err != nil || minutes < 1 {
		return c.Send("Poll duration must be a positive number of minutes.")
	}

	poll := models.NewPoll(parts[0], options, time.Now().Add(time.Duration(minutes)*time.Minute))
	if err := b.state.AddPoll(poll); err != nil {
		b.logger.Errorf("Ошибка сохранения опроса: %v", err)
		return c.Send("Failed to save the poll.")
	}

	b.logger.Infof("Администратор %d создал опрос %s", c.Sender().ID, poll.Id)

	// Рассылаем опрос верифицированным пользователям
	sent := 0
	for _, sess := range b.state.VerifiedSessions(time.Now()) {
		if _, err := b.bot.Send(&tele.User{ID: sess.ChatID}, trf(sess.Lang, "new_poll", poll.Title), b.pollMarkup(poll)); err != nil {
			b.logger.Errorf("Ошибка отправки опроса чату %d: %v", sess.ChatID, err)
			continue
		}
		sent++
	}

	return c.Send(fmt.Sprintf("Poll %s created and sent to %d user(s). It closes at %s.",
		poll.Id, sent, poll.EndsAt.Format("15:04 02.01.2006")))
}

// handlePostResults обрабатывает команду /post_results
func (b *Bot) handlePostResults(c tele.Context) error {
	if !b.requireAdmin(c) {
		return nil
	}

	arg := strings.TrimSpace(c.Message().Payload)
	if arg == "" {
		return c.Send("Usage: /post_results <poll_id>")
	}

	pollID, err := uuid.Parse(arg)
	if err != nil {
		return c.Send("Invalid poll id.")
	}

	poll, err := b.state.ClosePoll(pollID)
	if err != nil {
		if errors.Is(err, storage.ErrPollNotFound) {
			return c.Send("Poll not found.")
		}
		b.logger.Errorf("Ошибка закрытия опроса %s: %v", pollID, err)
		return c.Send("Failed to close the poll.")
	}

	b.notifyAdmins(formatPollResults(poll))
	return nil
}

// handleStats обрабатывает команду /stats
func (b *Bot) handleStats(c tele.Context) error {
	if !b.requireAdmin(c) {
		return nil
	}

	now := time.Now()
	editing := "closed"
	if b.window.Allowed(now) {
		editing = fmt.Sprintf("open, %d day(s) left", b.window.DaysLeft(now))
	}

	return c.Send(fmt.Sprintf(
		"Roster rows: %d\nVerified sessions: %d\nOpen polls: %d\nEditing: %s",
		b.roster.Len(),
		len(b.state.VerifiedSessions(now)),
		len(b.state.OpenPolls(now)),
		editing))
}

// formatPollResults форматирует итоги опроса со счетчиками и процентами
func formatPollResults(poll *models.Poll) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Poll results: %s\n", poll.Title)

	total := poll.TotalVotes()
	for _, opt := range poll.Options {
		count := poll.Votes[opt]
		percent := 0.0
		if total > 0 {
			percent = float64(count) / float64(total) * 100
		}
		fmt.Fprintf(&sb, "%s: %d (%.1f%%)\n", opt, count, percent)
	}
	fmt.Fprintf(&sb, "Total votes: %d", total)
	return sb.String()
}
