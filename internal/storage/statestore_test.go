package storage

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/muhsaibcf/mcf-bot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateStoreSessions(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	store, err := NewStateStore(dir)
	require.NoError(t, err)

	_, ok := store.Session(100)
	assert.False(t, ok)

	sess := &models.Session{
		ChatID:        100,
		Verified:      true,
		Index:         3,
		VerifiedUntil: now.Add(models.SessionTTL),
		Lang:          "ha",
	}
	require.NoError(t, store.PutSession(sess))

	got, ok := store.Session(100)
	require.True(t, ok)
	assert.Equal(t, 3, got.Index)
	assert.True(t, got.Active(now))

	// Сессии переживают перезапуск
	reopened, err := NewStateStore(dir)
	require.NoError(t, err)
	got, ok = reopened.Session(100)
	require.True(t, ok)
	assert.Equal(t, "ha", got.Lang)
	assert.True(t, got.Active(now))

	// Удаление
	require.NoError(t, reopened.DeleteSession(100))
	_, ok = reopened.Session(100)
	assert.False(t, ok)
}

func TestStateStoreVerifiedSessions(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	store, err := NewStateStore(dir)
	require.NoError(t, err)

	// Активная, просроченная и неверифицированная сессии
	require.NoError(t, store.PutSession(&models.Session{
		ChatID: 1, Verified: true, VerifiedUntil: now.Add(time.Hour),
	}))
	require.NoError(t, store.PutSession(&models.Session{
		ChatID: 2, Verified: true, VerifiedUntil: now.Add(-time.Hour),
	}))
	require.NoError(t, store.PutSession(&models.Session{
		ChatID: 3, Stage: models.StageAskEmail,
	}))

	verified := store.VerifiedSessions(now)
	require.Len(t, verified, 1)
	assert.Equal(t, int64(1), verified[0].ChatID)

	assert.Len(t, store.Sessions(), 3)
}

func TestStateStorePolls(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	store, err := NewStateStore(dir)
	require.NoError(t, err)

	poll := models.NewPoll("Next meeting day", []string{"Saturday", "Sunday"}, now.Add(time.Hour))
	require.NoError(t, store.AddPoll(poll))

	_, err = store.Vote(poll.Id, 0, 0, now)
	require.NoError(t, err)
	_, err = store.Vote(poll.Id, 1, 1, now)
	require.NoError(t, err)
	_, err = store.Vote(poll.Id, 2, 0, now)
	require.NoError(t, err)

	// Голоса переживают перезапуск
	reopened, err := NewStateStore(dir)
	require.NoError(t, err)
	got, ok := reopened.Poll(poll.Id)
	require.True(t, ok)
	assert.Equal(t, 2, got.Votes["Saturday"])
	assert.Equal(t, 1, got.Votes["Sunday"])
	assert.Equal(t, 3, got.TotalVotes())
	assert.True(t, got.HasVoted(1))
	assert.False(t, got.HasVoted(5))

	// Открытые опросы
	open := reopened.OpenPolls(now)
	require.Len(t, open, 1)

	closed, err := reopened.ClosePoll(poll.Id)
	require.NoError(t, err)
	assert.True(t, closed.Closed)
	assert.Empty(t, reopened.OpenPolls(now))
}

func TestStateStoreVoteRules(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	store, err := NewStateStore(dir)
	require.NoError(t, err)

	poll := models.NewPoll("Next meeting day", []string{"Saturday", "Sunday"}, now.Add(time.Hour))
	require.NoError(t, store.AddPoll(poll))

	_, err = store.Vote(poll.Id, 0, 0, now)
	require.NoError(t, err)

	// Повторный голос той же строки
	_, err = store.Vote(poll.Id, 0, 1, now)
	assert.ErrorIs(t, err, ErrAlreadyVoted)

	// Неизвестный вариант
	_, err = store.Vote(poll.Id, 1, 5, now)
	assert.ErrorIs(t, err, ErrUnknownOption)

	// Голос после окончания срока
	_, err = store.Vote(poll.Id, 1, 0, now.Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrPollClosed)

	// Несуществующий опрос
	_, err = store.Vote(uuid.New(), 1, 0, now)
	assert.ErrorIs(t, err, ErrPollNotFound)

	// Голос в закрытом вручную опросе
	_, err = store.ClosePoll(poll.Id)
	require.NoError(t, err)
	_, err = store.Vote(poll.Id, 1, 0, now)
	assert.ErrorIs(t, err, ErrPollClosed)
}

// Обработчики бота работают в параллельных горутинах, поэтому
// голосование проверяется под нагрузкой.
func TestStateStoreConcurrentVotes(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	store, err := NewStateStore(dir)
	require.NoError(t, err)

	poll := models.NewPoll("Next meeting day", []string{"Saturday", "Sunday"}, now.Add(time.Hour))
	require.NoError(t, store.AddPoll(poll))

	// Разные строки голосуют одновременно: все голоса учитываются
	var wg sync.WaitGroup
	for row := 0; row < 40; row++ {
		wg.Add(1)
		go func(row int) {
			defer wg.Done()
			_, err := store.Vote(poll.Id, row, row%2, now)
			assert.NoError(t, err)
		}(row)
	}
	wg.Wait()

	got, ok := store.Poll(poll.Id)
	require.True(t, ok)
	assert.Equal(t, 40, got.TotalVotes())
	assert.Equal(t, 20, got.Votes["Saturday"])
	assert.Equal(t, 20, got.Votes["Sunday"])

	// Одна строка голосует из многих горутин: проходит ровно один голос
	var successes int64
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(option int) {
			defer wg.Done()
			if _, err := store.Vote(poll.Id, 100, option%2, now); err == nil {
				atomic.AddInt64(&successes, 1)
			} else {
				assert.ErrorIs(t, err, ErrAlreadyVoted)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), successes)
	got, ok = store.Poll(poll.Id)
	require.True(t, ok)
	assert.Equal(t, 41, got.TotalVotes())
}

func TestStateStoreExpirePolls(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	store, err := NewStateStore(dir)
	require.NoError(t, err)

	expired := models.NewPoll("Old poll", []string{"A", "B"}, now.Add(-time.Minute))
	open := models.NewPoll("Fresh poll", []string{"A", "B"}, now.Add(time.Hour))
	require.NoError(t, store.AddPoll(expired))
	require.NoError(t, store.AddPoll(open))

	closed, err := store.ExpirePolls(now)
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, expired.Id, closed[0].Id)
	assert.True(t, closed[0].Closed)

	// Повторный проход ничего не закрывает
	closed, err = store.ExpirePolls(now)
	require.NoError(t, err)
	assert.Empty(t, closed)

	got, ok := store.Poll(expired.Id)
	require.True(t, ok)
	assert.True(t, got.Closed)

	got, ok = store.Poll(open.Id)
	require.True(t, ok)
	assert.False(t, got.Closed)
}

// Хранилище отдает наружу только копии: их изменение не должно влиять
// на сохраненное состояние.
func TestStateStoreReturnsCopies(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	store, err := NewStateStore(dir)
	require.NoError(t, err)

	poll := models.NewPoll("Next meeting day", []string{"Saturday", "Sunday"}, now.Add(time.Hour))
	require.NoError(t, store.AddPoll(poll))

	got, ok := store.Poll(poll.Id)
	require.True(t, ok)
	got.Vote(0, 0)
	got.Closed = true

	fresh, ok := store.Poll(poll.Id)
	require.True(t, ok)
	assert.Equal(t, 0, fresh.TotalVotes())
	assert.False(t, fresh.Closed)

	sess := &models.Session{ChatID: 1, Verified: true, VerifiedUntil: now.Add(time.Hour), Index: 3}
	require.NoError(t, store.PutSession(sess))

	gotSess, ok := store.Session(1)
	require.True(t, ok)
	gotSess.Index = 9

	freshSess, ok := store.Session(1)
	require.True(t, ok)
	assert.Equal(t, 3, freshSess.Index)
}

func TestStateStoreWindowStart(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStateStore(dir)
	require.NoError(t, err)

	_, ok := store.WindowStart()
	assert.False(t, ok)

	start := time.Now().Truncate(time.Second)
	require.NoError(t, store.SetWindowStart(start))

	reopened, err := NewStateStore(dir)
	require.NoError(t, err)
	got, ok := reopened.WindowStart()
	require.True(t, ok)
	assert.True(t, got.Equal(start))
}

func TestStateStoreCorruptFiles(t *testing.T) {
	dir := t.TempDir()

	// Испорченные файлы состояния не мешают запуску
	for _, name := range []string{SessionsFileName, PollsFileName, WindowFileName} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{broken"), 0644))
	}

	store, err := NewStateStore(dir)
	require.NoError(t, err)
	assert.Empty(t, store.Sessions())
	assert.Empty(t, store.Polls())
	_, ok := store.WindowStart()
	assert.False(t, ok)
}
