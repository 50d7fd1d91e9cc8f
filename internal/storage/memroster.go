package storage

import (
	"strings"
	"sync"
	"time"

	"github.com/muhsaibcf/mcf-bot/internal/models"
)

// MemRoster реализует интерфейс Roster в памяти. Используется в тестах
// и как запасной вариант, когда файл недоступен.
type MemRoster struct {
	mu      sync.RWMutex
	columns []string
	records []*models.Record
	mtime   time.Time
}

// NewMemRoster создает хранилище в памяти с обязательными колонками.
func NewMemRoster() *MemRoster {
	return &MemRoster{
		columns: append([]string{}, models.RequiredColumns...),
		mtime:   time.Now(),
	}
}

func (m *MemRoster) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func (m *MemRoster) Columns() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string{}, m.columns...)
}

func (m *MemRoster) EditableColumns() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var editable []string
	for _, c := range m.columns {
		if !models.ImmutableColumns[c] {
			editable = append(editable, c)
		}
	}
	return editable
}

func (m *MemRoster) Get(index int) (*models.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if index < 0 || index >= len(m.records) {
		return nil, ErrRecordNotFound
	}
	return m.records[index].Clone(), nil
}

func (m *MemRoster) All() []*models.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]*models.Record, 0, len(m.records))
	for _, rec := range m.records {
		records = append(records, rec.Clone())
	}
	return records
}

func (m *MemRoster) Find(email, phone string) (*models.Record, error) {
	email = models.NormalizeEmail(email)
	phone = models.NormalizePhone(phone)

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, rec := range m.records {
		recEmail := models.NormalizeEmail(rec.Get(models.ColEmail))
		recPhone := models.NormalizePhone(rec.Get(models.ColPhone))
		if recEmail != "" && recEmail == email && recPhone == phone {
			return rec.Clone(), nil
		}
	}

	return nil, ErrRecordNotFound
}

func (m *MemRoster) Search(term string) []*models.Record {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var found []*models.Record
	for _, rec := range m.records {
		email := strings.ToLower(rec.Get(models.ColEmail))
		phone := rec.Get(models.ColPhone)
		if strings.Contains(email, term) || strings.Contains(phone, term) {
			found = append(found, rec.Clone())
		}
	}
	return found
}

func (m *MemRoster) UpdateField(index int, column, value string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if index < 0 || index >= len(m.records) {
		return "", ErrRecordNotFound
	}
	if models.ImmutableColumns[column] {
		return "", ErrImmutableColumn
	}

	known := false
	for _, c := range m.columns {
		if c == column {
			known = true
			break
		}
	}
	if !known {
		return "", ErrUnknownColumn
	}

	rec := m.records[index]
	old := rec.Get(column)
	rec.Set(column, value)
	m.mtime = time.Now()
	return old, nil
}

func (m *MemRoster) Append(values map[string]string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := models.NewRecord(len(m.records))
	for _, c := range m.columns {
		rec.Set(c, values[c])
	}
	if rec.Get(models.ColWallet) == "" {
		rec.Set(models.ColWallet, "0")
	}
	rec.Set(models.ColTimestamp, time.Now().UTC().Format(time.RFC3339))

	m.records = append(m.records, rec)
	m.mtime = time.Now()
	return rec.Index, nil
}

func (m *MemRoster) Credit(index int, amount float64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if index < 0 || index >= len(m.records) {
		return 0, ErrRecordNotFound
	}

	rec := m.records[index]
	balance := rec.Wallet() + amount
	rec.SetWallet(balance)
	m.mtime = time.Now()
	return balance, nil
}

// Reload для хранилища в памяти ничего не делает.
func (m *MemRoster) Reload() (bool, error) {
	return false, nil
}

// Backup для хранилища в памяти ничего не делает.
func (m *MemRoster) Backup(reason string) (string, error) {
	return "", nil
}

// ModTime возвращает время последней мутации.
func (m *MemRoster) ModTime() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mtime
}
