package telegrambot

import (
	"bytes"
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

// handleStart обрабатывает команду /start
func (b *Bot) handleStart(c tele.Context) error {
	chatID := c.Sender().ID
	b.logger.Infof("Пользователь %d запустил бота", chatID)

	if b.isAdmin(chatID) {
		return b.handleHelp(c)
	}

	sess, ok := b.state.Session(chatID)
	if ok && sess.Active(time.Now()) {
		return b.sendMenu(c, sess)
	}

	// Начинаем диалог верификации с выбора языка
	sess = &models.Session{
		ChatID: chatID,
		Stage:  models.StageAskLang,
	}
	if err := b.state.PutSession(sess); err != nil {
		b.logger.Errorf("Ошибка сохранения сессии %d: %v", chatID, err)
	}

	markup := &tele.ReplyMarkup{}
	english := markup.Data("English", btnLang.Unique, LangEnglish)
	hausa := markup.Data("Hausa", btnLang.Unique, LangHausa)
	markup.Inline(markup.Row(english, hausa))

	return c.Send(trf(LangEnglish, "choose_lang", b.config.BotName), markup)
}

// handleMenu обрабатывает команду /menu
func (b *Bot) handleMenu(c tele.Context) error {
	sess, ok := b.verifiedSession(c)
	if !ok {
		return nil
	}
	return b.sendMenu(c, sess)
}

// handleLangButton обрабатывает выбор языка
func (b *Bot) handleLangButton(c tele.Context) error {
	chatID := c.Sender().ID
	lang := strings.TrimSpace(c.Data())
	if lang != LangEnglish && lang != LangHausa {
		lang = LangEnglish
	}

	sess, ok := b.state.Session(chatID)
	if !ok {
		sess = &models.Session{ChatID: chatID}
	}
	sess.Lang = lang

	if sess.Active(time.Now()) {
		if err := b.state.PutSession(sess); err != nil {
			b.logger.Errorf("Ошибка сохранения сессии %d: %v", chatID, err)
		}
		if err := c.Respond(); err != nil {
			return err
		}
		return b.sendMenu(c, sess)
	}

	sess.Stage = models.StageAskEmail
	if err := b.state.PutSession(sess); err != nil {
		b.logger.Errorf("Ошибка сохранения сессии %d: %v", chatID, err)
	}

	if err := c.Respond(); err != nil {
		return err
	}
	return c.Send(tr(lang, "ask_email"))
}

// handleText обрабатывает текстовые сообщения по текущему этапу диалога
func (b *Bot) handleText(c tele.Context) error {
	chatID := c.Sender().ID
	text := strings.TrimSpace(c.Text())

	sess, ok := b.state.Session(chatID)
	if !ok {
		if b.isAdmin(chatID) {
			return nil
		}
		return c.Send(tr(LangEnglish, "not_verified"))
	}

	switch sess.Stage {
	case models.StageAskEmail:
		return b.stepEmail(c, sess, text)
	case models.StageAskPhone:
		return b.stepPhone(c, sess, text)
	case models.StageEditValue:
		return b.stepEditValue(c, sess, text)
	}

	if sess.Active(time.Now()) {
		return b.sendMenu(c, sess)
	}
	return c.Send(tr(sess.Lang, "not_verified"))
}

// stepEmail запоминает введенный адрес и запрашивает телефон
func (b *Bot) stepEmail(c tele.Context, sess *models.Session, text string) error {
	sess.EmailTry = models.NormalizeEmail(text)
	sess.Stage = models.StageAskPhone
	if err := b.state.PutSession(sess); err != nil {
		b.logger.Errorf("Ошибка сохранения сессии %d: %v", sess.ChatID, err)
	}
	return c.Send(tr(sess.Lang, "ask_phone"))
}

// stepPhone сверяет пару email+телефон с ростером
func (b *Bot) stepPhone(c tele.Context, sess *models.Session, text string) error {
	phone := models.NormalizePhone(text)
	rec, err := b.roster.Find(sess.EmailTry, phone)
	if err != nil {
		if !errors.Is(err, storage.ErrRecordNotFound) {
			b.logger.Errorf("Ошибка поиска по ростеру: %v", err)
			return c.Send(tr(sess.Lang, "error_generic"))
		}
		b.logger.Infof("Верификация не удалась для чата %d", sess.ChatID)
		sess.Stage = models.StageAskEmail
		sess.EmailTry = ""
		if err := b.state.PutSession(sess); err != nil {
			b.logger.Errorf("Ошибка сохранения сессии %d: %v", sess.ChatID, err)
		}
		return c.Send(trf(sess.Lang, "not_found", b.config.SupportContact))
	}

	sess.Verified = true
	sess.Index = rec.Index
	sess.VerifiedUntil = time.Now().Add(models.SessionTTL)
	sess.Stage = ""
	sess.EmailTry = ""
	if err := b.state.PutSession(sess); err != nil {
		b.logger.Errorf("Ошибка сохранения сессии %d: %v", sess.ChatID, err)
	}

	b.logger.Infof("Чат %d верифицирован как строка %d", sess.ChatID, rec.Index)

	if err := c.Send(trf(sess.Lang, "verified", rec.Get(models.ColFullName))); err != nil {
		return err
	}
	return b.sendMenu(c, sess)
}

// stepEditValue записывает новое значение выбранного поля
func (b *Bot) stepEditValue(c tele.Context, sess *models.Session, text string) error {
	field := sess.EditingField
	sess.Stage = ""
	sess.EditingField = ""
	if err := b.state.PutSession(sess); err != nil {
		b.logger.Errorf("Ошибка сохранения сессии %d: %v", sess.ChatID, err)
	}

	if !sess.Active(time.Now()) {
		return c.Send(tr(sess.Lang, "not_verified"))
	}
	if !b.window.Allowed(time.Now()) {
		if b.window.ReadOnly() {
			return c.Send(tr(sess.Lang, "read_only"))
		}
		return c.Send(tr(sess.Lang, "window_closed"))
	}

	old, err := b.roster.UpdateField(sess.Index, field, text)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrImmutableColumn):
			return c.Send(trf(sess.Lang, "immutable", b.config.SupportContact))
		case errors.Is(err, storage.ErrUnknownColumn):
			return c.Send(tr(sess.Lang, "error_generic"))
		default:
			b.logger.Errorf("Ошибка обновления поля %s для строки %d: %v", field, sess.Index, err)
			return c.Send(tr(sess.Lang, "error_generic"))
		}
	}

	b.logger.Infof("Строка %d: поле %s изменено", sess.Index, field)

	if old == "" {
		old = "—"
	}
	return c.Send(trf(sess.Lang, "updated", field, old, text))
}

// sendMenu отправляет главное меню
func (b *Bot) sendMenu(c tele.Context, sess *models.Session) error {
	markup := &tele.ReplyMarkup{}
	view := markup.Data(tr(sess.Lang, "btn_view"), btnView.Unique)
	edit := markup.Data(tr(sess.Lang, "btn_edit"), btnEdit.Unique)
	wallet := markup.Data(tr(sess.Lang, "btn_wallet"), btnWallet.Unique)
	polls := markup.Data(tr(sess.Lang, "btn_polls"), btnPolls.Unique)
	support := markup.Data(tr(sess.Lang, "btn_support"), btnSupport.Unique)
	logout := markup.Data(tr(sess.Lang, "btn_logout"), btnLogout.Unique)
	markup.Inline(
		markup.Row(view, edit),
		markup.Row(wallet, polls),
		markup.Row(support, logout),
	)
	return c.Send(tr(sess.Lang, "menu_title"), markup)
}

// verifiedSession возвращает активную сессию или отправляет приглашение
// пройти верификацию
func (b *Bot) verifiedSession(c tele.Context) (*models.Session, bool) {
	chatID := c.Sender().ID
	sess, ok := b.state.Session(chatID)
	if !ok || !sess.Active(time.Now()) {
		lang := LangEnglish
		if ok {
			lang = sess.Lang
		}
		if err := c.Send(tr(lang, "not_verified")); err != nil {
			b.logger.Errorf("Ошибка отправки сообщения чату %d: %v", chatID, err)
		}
		return nil, false
	}
	return sess, true
}

// handleViewButton показывает запись студента
func (b *Bot) handleViewButton(c tele.Context) error {
	sess, ok := b.verifiedSession(c)
	if !ok {
		return c.Respond()
	}

	rec, err := b.roster.Get(sess.Index)
	if err != nil {
		b.logger.Errorf("Ошибка чтения строки %d: %v", sess.Index, err)
		if err := c.Respond(); err != nil {
			return err
		}
		return c.Send(tr(sess.Lang, "error_generic"))
	}

	if err := c.Respond(); err != nil {
		return err
	}
	return c.Send(tr(sess.Lang, "record_header") + "\n" + b.formatRecord(rec))
}

// handleEditButton показывает список редактируемых полей
func (b *Bot) handleEditButton(c tele.Context) error {
	sess, ok := b.verifiedSession(c)
	if !ok {
		return c.Respond()
	}

	now := time.Now()
	if !b.window.Allowed(now) {
		if err := c.Respond(); err != nil {
			return err
		}
		if b.window.ReadOnly() {
			return c.Send(tr(sess.Lang, "read_only"))
		}
		return c.Send(tr(sess.Lang, "window_closed"))
	}

	markup := &tele.ReplyMarkup{}
	var row []tele.Btn
	var rows []tele.Row
	for _, column := range b.roster.EditableColumns() {
		row = append(row, markup.Data(column, btnField.Unique, column))
		if len(row) == 2 {
			rows = append(rows, markup.Row(row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, markup.Row(row...))
	}
	markup.Inline(rows...)

	if err := c.Respond(); err != nil {
		return err
	}
	text := tr(sess.Lang, "choose_field") + "\n" + trf(sess.Lang, "days_left", b.window.DaysLeft(now))
	return c.Send(text, markup)
}

// handleFieldButton запрашивает новое значение выбранного поля
func (b *Bot) handleFieldButton(c tele.Context) error {
	sess, ok := b.verifiedSession(c)
	if !ok {
		return c.Respond()
	}

	column := strings.TrimSpace(c.Data())
	editable := false
	for _, col := range b.roster.EditableColumns() {
		if col == column {
			editable = true
			break
		}
	}
	if !editable {
		if err := c.Respond(); err != nil {
			return err
		}
		return c.Send(trf(sess.Lang, "immutable", b.config.SupportContact))
	}

	sess.Stage = models.StageEditValue
	sess.EditingField = column
	if err := b.state.PutSession(sess); err != nil {
		b.logger.Errorf("Ошибка сохранения сессии %d: %v", sess.ChatID, err)
	}

	if err := c.Respond(); err != nil {
		return err
	}
	return c.Send(trf(sess.Lang, "enter_value", column))
}

// handleWalletButton показывает баланс кошелька
func (b *Bot) handleWalletButton(c tele.Context) error {
	sess, ok := b.verifiedSession(c)
	if !ok {
		return c.Respond()
	}

	rec, err := b.roster.Get(sess.Index)
	if err != nil {
		b.logger.Errorf("Ошибка чтения строки %d: %v", sess.Index, err)
		if err := c.Respond(); err != nil {
			return err
		}
		return c.Send(tr(sess.Lang, "error_generic"))
	}

	if err := c.Respond(); err != nil {
		return err
	}
	return c.Send(trf(sess.Lang, "wallet_balance", rec.Wallet()))
}

// handlePollsButton показывает открытые опросы с кнопками голосования
func (b *Bot) handlePollsButton(c tele.Context) error {
	sess, ok := b.verifiedSession(c)
	if !ok {
		return c.Respond()
	}

	if err := c.Respond(); err != nil {
		return err
	}

	polls := b.state.OpenPolls(time.Now())
	if len(polls) == 0 {
		return c.Send(tr(sess.Lang, "no_polls"))
	}

	for _, poll := range polls {
		if err := c.Send(trf(sess.Lang, "new_poll", poll.Title), b.pollMarkup(poll)); err != nil {
			return err
		}
	}
	return nil
}

// pollMarkup строит клавиатуру с вариантами опроса
func (b *Bot) pollMarkup(poll *models.Poll) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	var rows []tele.Row
	for i, opt := range poll.Options {
		btn := markup.Data(opt, btnVote.Unique, poll.Id.String(), strconv.Itoa(i))
		rows = append(rows, markup.Row(btn))
	}
	markup.Inline(rows...)
	return markup
}

// handleVoteButton записывает голос
func (b *Bot) handleVoteButton(c tele.Context) error {
	sess, ok := b.verifiedSession(c)
	if !ok {
		return c.Respond()
	}

	parts := strings.Split(c.Data(), "|")
	if len(parts) != 2 {
		return c.Respond()
	}

	pollID, err := uuid.Parse(strings.TrimSpace(parts[0]))
	if err != nil {
		return c.Respond()
	}
	option, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return c.Respond()
	}

	// Проверка и запись голоса атомарны внутри хранилища
	poll, err := b.state.Vote(pollID, sess.Index, option, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrPollClosed):
			return c.Respond(&tele.CallbackResponse{Text: tr(sess.Lang, "poll_closed")})
		case errors.Is(err, storage.ErrAlreadyVoted):
			return c.Respond(&tele.CallbackResponse{Text: tr(sess.Lang, "already_voted")})
		case errors.Is(err, storage.ErrPollNotFound), errors.Is(err, storage.ErrUnknownOption):
			return c.Respond()
		default:
			b.logger.Errorf("Ошибка сохранения голоса в опросе %s: %v", pollID, err)
			return c.Respond(&tele.CallbackResponse{Text: tr(sess.Lang, "error_generic")})
		}
	}

	b.logger.Infof("Строка %d проголосовала в опросе %s", sess.Index, poll.Id)
	return c.Respond(&tele.CallbackResponse{Text: tr(sess.Lang, "vote_recorded")})
}

// handleSupportButton отправляет контакт поддержки и QR-код ссылки
func (b *Bot) handleSupportButton(c tele.Context) error {
	sess, ok := b.verifiedSession(c)
	if !ok {
		return c.Respond()
	}

	if err := c.Respond(); err != nil {
		return err
	}

	text := trf(sess.Lang, "support_text", b.config.SupportContact)
	if b.config.SupportLink == "" {
		return c.Send(text)
	}

	qrCode, err := GenerateQRCode(b.config.SupportLink, 256)
	if err != nil {
		b.logger.Errorf("Ошибка генерации QR-кода: %v", err)
		return c.Send(text)
	}

	photo := &tele.Photo{
		File:    tele.FromReader(bytes.NewReader(qrCode)),
		Caption: text,
	}
	return c.Send(photo)
}

// handleLogoutButton завершает сессию
func (b *Bot) handleLogoutButton(c tele.Context) error {
	chatID := c.Sender().ID
	lang := LangEnglish
	if sess, ok := b.state.Session(chatID); ok {
		lang = sess.Lang
	}

	if err := b.state.DeleteSession(chatID); err != nil {
		b.logger.Errorf("Ошибка удаления сессии %d: %v", chatID, err)
	}
	b.logger.Infof("Чат %d вышел из системы", chatID)

	if err := c.Respond(); err != nil {
		return err
	}
	return c.Send(tr(lang, "logged_out"))
}

// formatRecord форматирует запись студента в порядке колонок ростера
func (b *Bot) formatRecord(rec *models.Record) string {
	var sb strings.Builder
	for _, column := range b.roster.Columns() {
		fmt.Fprintf(&sb, "%s: %s\n", column, rec.Get(column))
	}
	return strings.TrimRight(sb.String(), "\n")
}
