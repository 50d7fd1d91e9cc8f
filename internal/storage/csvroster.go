package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/muhsaibcf/mcf-bot/internal/models"
)

// CSVRoster реализует интерфейс Roster с хранением данных в CSV-файле.
// Файл читается целиком в память; каждая мутация делает резервную копию
// и атомарно переписывает файл.
type CSVRoster struct {
	mu        sync.RWMutex
	path      string
	backupDir string
	columns   []string
	records   []*models.Record
	mtime     time.Time
}

// NewCSVRoster создает новое CSV-хранилище. Отсутствующий файл создается
// с обязательными колонками.
func NewCSVRoster(path, backupDir string) (*CSVRoster, error) {
	// Создаем директорию для резервных копий, если она не существует
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	r := &CSVRoster{
		path:      path,
		backupDir: backupDir,
	}

	// Если файл не существует, создаем его с заголовком
	if _, err := os.Stat(path); os.IsNotExist(err) {
		r.columns = append([]string{}, models.RequiredColumns...)
		if err := r.write(); err != nil {
			return nil, fmt.Errorf("failed to create roster file: %w", err)
		}
	}

	if err := r.load(); err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}

	return r, nil
}

// load читает CSV-файл в память.
func (r *CSVRoster) load() error {
	f, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("failed to open roster file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // строки могут быть короче заголовка

	rows, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read roster file: %w", err)
	}

	var columns []string
	if len(rows) > 0 {
		columns = append(columns, rows[0]...)
	}

	// Добавляем недостающие обязательные колонки
	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[c] = true
	}
	for _, c := range models.RequiredColumns {
		if !have[c] {
			columns = append(columns, c)
		}
	}

	var records []*models.Record
	if len(rows) > 1 {
		for i, row := range rows[1:] {
			rec := models.NewRecord(i)
			for j, c := range columns {
				if j < len(row) {
					rec.Set(c, row[j])
				} else {
					rec.Set(c, "")
				}
			}
			records = append(records, rec)
		}
	}

	info, err := os.Stat(r.path)
	if err != nil {
		return fmt.Errorf("failed to stat roster file: %w", err)
	}

	r.columns = columns
	r.records = records
	r.mtime = info.ModTime()

	return nil
}

// write переписывает CSV-файл атомарно: сначала во временный файл,
// затем переименование.
func (r *CSVRoster) write() error {
	tmp := r.path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(r.columns); err != nil {
		f.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, rec := range r.records {
		row := make([]string, len(r.columns))
		for j, c := range r.columns {
			row[j] = rec.Get(c)
		}
		if err := writer.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush roster file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("failed to replace roster file: %w", err)
	}

	if info, err := os.Stat(r.path); err == nil {
		r.mtime = info.ModTime()
	}

	return nil
}

// save делает резервную копию и переписывает файл.
func (r *CSVRoster) save() error {
	if _, err := os.Stat(r.path); err == nil {
		if _, err := r.backup(); err != nil {
			return err
		}
	}
	return r.write()
}

// backup копирует текущий файл в директорию резервных копий.
func (r *CSVRoster) backup() (string, error) {
	src, err := os.Open(r.path)
	if err != nil {
		return "", fmt.Errorf("failed to open roster file: %w", err)
	}
	defer src.Close()

	name := fmt.Sprintf("data_%s.csv", time.Now().UTC().Format("20060102_150405"))
	dstPath := filepath.Join(r.backupDir, name)

	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to copy roster file: %w", err)
	}

	return dstPath, nil
}

// Backup создает резервную копию по запросу администратора.
func (r *CSVRoster) Backup(reason string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.backup()
}

// ModTime возвращает время последней модификации файла ростера.
func (r *CSVRoster) ModTime() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mtime
}

// Reload перечитывает файл, если он изменился на диске. Возвращает,
// была ли выполнена перезагрузка.
func (r *CSVRoster) Reload() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, err := os.Stat(r.path)
	if err != nil {
		return false, fmt.Errorf("failed to stat roster file: %w", err)
	}

	if info.ModTime().Equal(r.mtime) {
		return false, nil
	}

	if err := r.load(); err != nil {
		return false, err
	}

	return true, nil
}

// Len возвращает количество строк ростера.
func (r *CSVRoster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Columns возвращает колонки в порядке файла.
func (r *CSVRoster) Columns() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string{}, r.columns...)
}

// EditableColumns возвращает колонки, доступные студенту для изменения:
// все, кроме неизменяемых.
func (r *CSVRoster) EditableColumns() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var editable []string
	for _, c := range r.columns {
		if !models.ImmutableColumns[c] {
			editable = append(editable, c)
		}
	}
	return editable
}

// Get возвращает запись по индексу строки.
func (r *CSVRoster) Get(index int) (*models.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index < 0 || index >= len(r.records) {
		return nil, ErrRecordNotFound
	}
	return r.records[index].Clone(), nil
}

// All возвращает все записи ростера.
func (r *CSVRoster) All() []*models.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]*models.Record, 0, len(r.records))
	for _, rec := range r.records {
		records = append(records, rec.Clone())
	}
	return records
}

// Find ищет запись по паре email+телефон. Email сравнивается без учета
// регистра, телефон нормализуется с обеих сторон: форматирование номера
// в таблице не должно мешать верификации.
func (r *CSVRoster) Find(email, phone string) (*models.Record, error) {
	email = models.NormalizeEmail(email)
	phone = models.NormalizePhone(phone)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.records {
		recEmail := models.NormalizeEmail(rec.Get(models.ColEmail))
		recPhone := models.NormalizePhone(rec.Get(models.ColPhone))
		if recEmail != "" && recEmail == email && recPhone == phone {
			return rec.Clone(), nil
		}
	}

	return nil, ErrRecordNotFound
}

// Search ищет записи по подстроке email или телефона.
func (r *CSVRoster) Search(term string) []*models.Record {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var found []*models.Record
	for _, rec := range r.records {
		email := strings.ToLower(rec.Get(models.ColEmail))
		phone := rec.Get(models.ColPhone)
		if strings.Contains(email, term) || strings.Contains(phone, term) {
			found = append(found, rec.Clone())
		}
	}
	return found
}

// UpdateField изменяет значение колонки и сохраняет файл. Возвращает
// прежнее значение.
func (r *CSVRoster) UpdateField(index int, column, value string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index < 0 || index >= len(r.records) {
		return "", ErrRecordNotFound
	}
	if models.ImmutableColumns[column] {
		return "", ErrImmutableColumn
	}

	known := false
	for _, c := range r.columns {
		if c == column {
			known = true
			break
		}
	}
	if !known {
		return "", ErrUnknownColumn
	}

	rec := r.records[index]
	old := rec.Get(column)
	rec.Set(column, value)

	if err := r.save(); err != nil {
		// Откатываем изменение, чтобы память не расходилась с диском
		rec.Set(column, old)
		return "", err
	}

	return old, nil
}

// Append добавляет новую запись в конец ростера. Неизвестные колонки
// игнорируются. Возвращает индекс новой строки.
func (r *CSVRoster) Append(values map[string]string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := models.NewRecord(len(r.records))
	for _, c := range r.columns {
		rec.Set(c, values[c])
	}
	if rec.Get(models.ColWallet) == "" {
		rec.Set(models.ColWallet, "0")
	}
	rec.Set(models.ColTimestamp, time.Now().UTC().Format(time.RFC3339))

	r.records = append(r.records, rec)

	if err := r.save(); err != nil {
		r.records = r.records[:len(r.records)-1]
		return 0, err
	}

	return rec.Index, nil
}

// Credit увеличивает баланс кошелька записи. Возвращает новый баланс.
func (r *CSVRoster) Credit(index int, amount float64) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index < 0 || index >= len(r.records) {
		return 0, ErrRecordNotFound
	}

	rec := r.records[index]
	old := rec.Get(models.ColWallet)
	balance := rec.Wallet() + amount
	rec.SetWallet(balance)

	if err := r.save(); err != nil {
		rec.Set(models.ColWallet, old)
		return 0, err
	}

	return balance, nil
}
