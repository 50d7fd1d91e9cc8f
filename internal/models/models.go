package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Имена колонок ростера, используемые в системе
const (
	ColAdmissionNumber = "AdmissionNumber"
	ColFullName        = "FullName"
	ColEmail           = "Email"
	ColPhone           = "Phone"
	ColDateOfBirth     = "DateOfBirth"
	ColBankName        = "BankName"
	ColAccountNumber   = "AccountNumber"
	ColCourse          = "Course"
	ColAddress         = "Address"
	ColWallet          = "Wallet"
	ColTimestamp       = "Timestamp"
)

// RequiredColumns — колонки, которые всегда присутствуют в ростере;
// недостающие добавляются пустыми при загрузке.
var RequiredColumns = []string{
	ColAdmissionNumber,
	ColFullName,
	ColEmail,
	ColPhone,
	ColDateOfBirth,
	ColBankName,
	ColAccountNumber,
	ColCourse,
	ColAddress,
	ColWallet,
	ColTimestamp,
}

// ImmutableColumns — колонки, которые студент не может изменять.
var ImmutableColumns = map[string]bool{
	ColAdmissionNumber: true,
	ColEmail:           true,
	ColPhone:           true,
	ColWallet:          true,
	ColTimestamp:       true,
}

// Record представляет одну строку ростера. Набор колонок динамический:
// CSV может содержать административные колонки помимо обязательных, и они
// должны переживать перезапись файла, поэтому значения хранятся по имени
// колонки.
type Record struct {
	Index  int               `json:"index"`
	Values map[string]string `json:"values"`
}

// NewRecord создает пустую запись для заданного индекса строки.
func NewRecord(index int) *Record {
	return &Record{
		Index:  index,
		Values: make(map[string]string),
	}
}

// Get возвращает значение колонки, пустую строку если её нет.
func (r *Record) Get(column string) string {
	return r.Values[column]
}

// Set сохраняет значение колонки.
func (r *Record) Set(column, value string) {
	r.Values[column] = value
}

// Clone возвращает глубокую копию записи.
func (r *Record) Clone() *Record {
	c := NewRecord(r.Index)
	for k, v := range r.Values {
		c.Values[k] = v
	}
	return c
}

// Wallet возвращает баланс кошелька числом; пустые и некорректные
// значения считаются нулем.
func (r *Record) Wallet() float64 {
	v, err := strconv.ParseFloat(r.Values[ColWallet], 64)
	if err != nil {
		return 0
	}
	return v
}

// SetWallet сохраняет баланс кошелька.
func (r *Record) SetWallet(amount float64) {
	r.Values[ColWallet] = strconv.FormatFloat(amount, 'f', -1, 64)
}

// NormalizeEmail приводит адрес к каноническому виду: без пробелов по
// краям, в нижнем регистре.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone убирает из номера пробелы, дефисы и скобки. Применяется
// и к вводу пользователя, и к значению из ростера, чтобы форматирование
// номера в таблице не мешало верификации.
func NormalizePhone(phone string) string {
	var sb strings.Builder
	for _, r := range strings.TrimSpace(phone) {
		switch r {
		case ' ', '-', '(', ')':
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Этапы диалогов верификации и редактирования
const (
	StageAskLang   = "ask_lang"
	StageAskEmail  = "ask_email"
	StageAskPhone  = "ask_phone"
	StageEditValue = "edit_value"
)

// SessionTTL — срок действия верификации.
const SessionTTL = 24 * time.Hour

// Session представляет состояние диалога одного чата.
type Session struct {
	ChatID        int64     `json:"chat_id"`
	Verified      bool      `json:"verified"`
	Index         int       `json:"index"`
	VerifiedUntil time.Time `json:"verified_until"`
	Stage         string    `json:"stage,omitempty"`
	EmailTry      string    `json:"email_try,omitempty"`
	EditingField  string    `json:"editing_field,omitempty"`
	Lang          string    `json:"lang,omitempty"`
}

// Active сообщает, верифицирована ли сессия и не истек ли её срок.
func (s *Session) Active(now time.Time) bool {
	return s != nil && s.Verified && now.Before(s.VerifiedUntil)
}

// Clone возвращает копию сессии.
func (s *Session) Clone() *Session {
	c := *s
	return &c
}

// Poll представляет опрос, созданный администратором. Голоса считаются
// по строкам ростера, поэтому студент не может проголосовать дважды из
// разных чатов.
type Poll struct {
	Id        uuid.UUID      `json:"id"`
	Title     string         `json:"title"`
	Options   []string       `json:"options"`
	Votes     map[string]int `json:"votes"`
	Voters    map[int]string `json:"voters"`
	EndsAt    time.Time      `json:"ends_at"`
	Closed    bool           `json:"closed"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewPoll создает открытый опрос с нулевыми счетчиками.
func NewPoll(title string, options []string, endsAt time.Time) *Poll {
	votes := make(map[string]int, len(options))
	for _, opt := range options {
		votes[opt] = 0
	}
	return &Poll{
		Id:        uuid.New(),
		Title:     title,
		Options:   options,
		Votes:     votes,
		Voters:    make(map[int]string),
		EndsAt:    endsAt,
		CreatedAt: time.Now(),
	}
}

// Open сообщает, принимает ли опрос голоса.
func (p *Poll) Open(now time.Time) bool {
	return !p.Closed && now.Before(p.EndsAt)
}

// HasVoted сообщает, голосовала ли уже эта строка ростера.
func (p *Poll) HasVoted(index int) bool {
	_, ok := p.Voters[index]
	return ok
}

// Vote записывает голос за вариант с заданной позицией.
func (p *Poll) Vote(index int, option int) {
	opt := p.Options[option]
	p.Votes[opt]++
	p.Voters[index] = opt
}

// Clone возвращает глубокую копию опроса.
func (p *Poll) Clone() *Poll {
	c := *p
	c.Options = append([]string{}, p.Options...)
	c.Votes = make(map[string]int, len(p.Votes))
	for k, v := range p.Votes {
		c.Votes[k] = v
	}
	c.Voters = make(map[int]string, len(p.Voters))
	for k, v := range p.Voters {
		c.Voters[k] = v
	}
	return &c
}

// TotalVotes возвращает количество записанных голосов.
func (p *Poll) TotalVotes() int {
	total := 0
	for _, n := range p.Votes {
		total += n
	}
	return total
}
