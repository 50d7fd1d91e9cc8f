package storage

import (
	"errors"
	"time"

	"github.com/muhsaibcf/mcf-bot/internal/models"
)

// Ошибки хранилища
var (
	ErrRecordNotFound  = errors.New("record not found")
	ErrUnknownColumn   = errors.New("unknown column")
	ErrImmutableColumn = errors.New("column is immutable")
	ErrPollNotFound    = errors.New("poll not found")
	ErrPollClosed      = errors.New("poll is closed")
	ErrAlreadyVoted    = errors.New("already voted")
	ErrUnknownOption   = errors.New("unknown poll option")
)

// Roster представляет интерфейс доступа к ростеру студентов.
type Roster interface {
	// Чтение
	Len() int
	Columns() []string
	EditableColumns() []string
	Get(index int) (*models.Record, error)
	All() []*models.Record
	Find(email, phone string) (*models.Record, error)
	Search(term string) []*models.Record

	// Запись: каждая мутация делает резервную копию и атомарно
	// переписывает файл
	UpdateField(index int, column, value string) (string, error)
	Append(values map[string]string) (int, error)
	Credit(index int, amount float64) (float64, error)

	// Обслуживание
	Reload() (bool, error)
	Backup(reason string) (string, error)
	ModTime() time.Time
}
