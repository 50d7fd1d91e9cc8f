package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/muhsaibcf/mcf-bot/internal/models"
)

// Константы для имен файлов состояния
const (
	SessionsFileName = "sessions.json"
	PollsFileName    = "polls.json"
	WindowFileName   = "window.json"
)

// windowState — сериализуемое состояние окна редактирования.
type windowState struct {
	StartDate time.Time `json:"start_date"`
}

// StateStore хранит сессии, опросы и дату начала окна редактирования в
// JSON-файлах. Данные загружаются при старте и сохраняются при каждой
// мутации. Обработчики бота работают в параллельных горутинах, поэтому
// наружу отдаются только копии, а все изменения выполняются внутри
// хранилища под мьютексом.
type StateStore struct {
	mu       sync.Mutex
	sessions map[int64]*models.Session
	polls    map[uuid.UUID]*models.Poll
	window   *windowState

	dataDir string
}

// NewStateStore создает новое хранилище состояния.
func NewStateStore(dataDir string) (*StateStore, error) {
	// Создаем директорию, если она не существует
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	st := &StateStore{
		sessions: make(map[int64]*models.Session),
		polls:    make(map[uuid.UUID]*models.Poll),
		dataDir:  dataDir,
	}

	if err := st.loadSessions(); err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	if err := st.loadPolls(); err != nil {
		return nil, fmt.Errorf("failed to load polls: %w", err)
	}
	if err := st.loadWindow(); err != nil {
		return nil, fmt.Errorf("failed to load window state: %w", err)
	}

	return st, nil
}

// readJSON читает JSON-файл в out. Отсутствующий, пустой или битый файл
// не является ошибкой: состояние в таком случае начинается с чистого
// листа, как это делал и предыдущий вариант бота.
func (st *StateStore) readJSON(name string, out any) (bool, error) {
	filePath := filepath.Join(st.dataDir, name)

	data, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if len(data) == 0 {
		return false, nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return false, nil
	}

	return true, nil
}

// writeJSON сериализует данные и записывает файл.
func (st *StateStore) writeJSON(name string, in any) error {
	filePath := filepath.Join(st.dataDir, name)

	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	return nil
}

// loadSessions загружает сессии из файла.
func (st *StateStore) loadSessions() error {
	var sessions []*models.Session
	if _, err := st.readJSON(SessionsFileName, &sessions); err != nil {
		return err
	}
	for _, s := range sessions {
		st.sessions[s.ChatID] = s
	}
	return nil
}

// saveSessions сохраняет сессии в файл. Вызывается с захваченным mu.
func (st *StateStore) saveSessions() error {
	sessions := make([]*models.Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		sessions = append(sessions, s)
	}
	return st.writeJSON(SessionsFileName, sessions)
}

// loadPolls загружает опросы из файла.
func (st *StateStore) loadPolls() error {
	var polls []*models.Poll
	if _, err := st.readJSON(PollsFileName, &polls); err != nil {
		return err
	}
	for _, p := range polls {
		st.polls[p.Id] = p
	}
	return nil
}

// savePolls сохраняет опросы в файл. Вызывается с захваченным mu.
func (st *StateStore) savePolls() error {
	polls := make([]*models.Poll, 0, len(st.polls))
	for _, p := range st.polls {
		polls = append(polls, p)
	}
	return st.writeJSON(PollsFileName, polls)
}

// loadWindow загружает состояние окна редактирования.
func (st *StateStore) loadWindow() error {
	var ws windowState
	ok, err := st.readJSON(WindowFileName, &ws)
	if err != nil {
		return err
	}
	if ok && !ws.StartDate.IsZero() {
		st.window = &ws
	}
	return nil
}

// Методы для работы с сессиями

// Session возвращает копию сессии чата.
func (st *StateStore) Session(chatID int64) (*models.Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[chatID]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// PutSession сохраняет сессию чата.
func (st *StateStore) PutSession(session *models.Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.sessions[session.ChatID] = session.Clone()
	return st.saveSessions()
}

// DeleteSession удаляет сессию чата.
func (st *StateStore) DeleteSession(chatID int64) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	delete(st.sessions, chatID)
	return st.saveSessions()
}

// Sessions возвращает копии всех сессий.
func (st *StateStore) Sessions() []*models.Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	sessions := make([]*models.Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		sessions = append(sessions, s.Clone())
	}
	return sessions
}

// VerifiedSessions возвращает сессии, верифицированные на данный момент.
func (st *StateStore) VerifiedSessions(now time.Time) []*models.Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	var sessions []*models.Session
	for _, s := range st.sessions {
		if s.Active(now) {
			sessions = append(sessions, s.Clone())
		}
	}
	return sessions
}

// Методы для работы с опросами

// Poll возвращает копию опроса по идентификатору.
func (st *StateStore) Poll(id uuid.UUID) (*models.Poll, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	p, ok := st.polls[id]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// AddPoll добавляет новый опрос.
func (st *StateStore) AddPoll(poll *models.Poll) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.polls[poll.Id] = poll.Clone()
	return st.savePolls()
}

// UpdatePoll сохраняет измененный опрос.
func (st *StateStore) UpdatePoll(poll *models.Poll) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.polls[poll.Id] = poll.Clone()
	return st.savePolls()
}

// Vote записывает голос строки ростера за вариант опроса. Проверка
// повторного голоса и запись выполняются атомарно.
func (st *StateStore) Vote(id uuid.UUID, row, option int, now time.Time) (*models.Poll, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	p, ok := st.polls[id]
	if !ok {
		return nil, ErrPollNotFound
	}
	if option < 0 || option >= len(p.Options) {
		return nil, ErrUnknownOption
	}
	if !p.Open(now) {
		return nil, ErrPollClosed
	}
	if p.HasVoted(row) {
		return nil, ErrAlreadyVoted
	}

	p.Vote(row, option)

	if err := st.savePolls(); err != nil {
		// Откатываем голос, чтобы память не расходилась с диском
		p.Votes[p.Options[option]]--
		delete(p.Voters, row)
		return nil, err
	}

	return p.Clone(), nil
}

// ClosePoll закрывает опрос и возвращает его итоговое состояние.
func (st *StateStore) ClosePoll(id uuid.UUID) (*models.Poll, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	p, ok := st.polls[id]
	if !ok {
		return nil, ErrPollNotFound
	}

	if !p.Closed {
		p.Closed = true
		if err := st.savePolls(); err != nil {
			p.Closed = false
			return nil, err
		}
	}

	return p.Clone(), nil
}

// ExpirePolls закрывает опросы с истекшим сроком и возвращает их копии.
func (st *StateStore) ExpirePolls(now time.Time) ([]*models.Poll, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	var expired []*models.Poll
	for _, p := range st.polls {
		if p.Closed || now.Before(p.EndsAt) {
			continue
		}
		p.Closed = true
		expired = append(expired, p.Clone())
	}

	if len(expired) == 0 {
		return nil, nil
	}

	if err := st.savePolls(); err != nil {
		return expired, err
	}
	return expired, nil
}

// Polls возвращает копии всех опросов.
func (st *StateStore) Polls() []*models.Poll {
	st.mu.Lock()
	defer st.mu.Unlock()

	polls := make([]*models.Poll, 0, len(st.polls))
	for _, p := range st.polls {
		polls = append(polls, p.Clone())
	}
	return polls
}

// OpenPolls возвращает опросы, принимающие голоса на данный момент.
func (st *StateStore) OpenPolls(now time.Time) []*models.Poll {
	st.mu.Lock()
	defer st.mu.Unlock()

	var polls []*models.Poll
	for _, p := range st.polls {
		if p.Open(now) {
			polls = append(polls, p.Clone())
		}
	}
	return polls
}

// Методы для работы с окном редактирования

// WindowStart возвращает сохраненную дату начала окна редактирования.
func (st *StateStore) WindowStart() (time.Time, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.window == nil {
		return time.Time{}, false
	}
	return st.window.StartDate, true
}

// SetWindowStart сохраняет дату начала окна редактирования.
func (st *StateStore) SetWindowStart(start time.Time) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.window = &windowState{StartDate: start}
	return st.writeJSON(WindowFileName, st.window)
}
