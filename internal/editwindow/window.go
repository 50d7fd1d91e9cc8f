package editwindow

import (
	"sync"
	"time"
)

// disabledShift — на сколько дней в прошлое сдвигается начало окна при
// отключении редактирования.
const disabledShift = -1000

// Window представляет окно редактирования: период в Days дней, начиная
// с даты Start, в течение которого студенты могут менять свои данные.
type Window struct {
	mu       sync.RWMutex
	start    time.Time
	days     int
	readOnly bool
}

// New создает окно редактирования.
func New(start time.Time, days int, readOnly bool) *Window {
	return &Window{
		start:    start,
		days:     days,
		readOnly: readOnly,
	}
}

// Start возвращает дату начала окна.
func (w *Window) Start() time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.start
}

// Days возвращает длительность окна в днях.
func (w *Window) Days() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.days
}

// DaysSince возвращает номер текущего дня окна: день запуска — первый.
func (w *Window) DaysSince(now time.Time) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return int(now.Sub(w.start).Hours()/24) + 1
}

// DaysLeft возвращает количество оставшихся дней редактирования.
func (w *Window) DaysLeft(now time.Time) int {
	left := w.Days() - (w.DaysSince(now) - 1)
	if left < 0 {
		return 0
	}
	return left
}

// ReadOnly сообщает, работает ли ростер только на чтение.
func (w *Window) ReadOnly() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.readOnly
}

// Allowed сообщает, разрешено ли редактирование сейчас.
func (w *Window) Allowed(now time.Time) bool {
	w.mu.RLock()
	readOnly := w.readOnly
	w.mu.RUnlock()
	if readOnly {
		return false
	}
	return w.DaysSince(now) <= w.Days()
}

// Enable открывает окно заново: отсчет начинается с переданного момента.
func (w *Window) Enable(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.start = now
}

// Disable закрывает окно, сдвигая начало далеко в прошлое.
func (w *Window) Disable(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.start = now.AddDate(0, 0, disabledShift)
}
