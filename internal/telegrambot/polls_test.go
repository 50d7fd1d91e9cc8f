package telegrambot

import (
	"testing"
	"time"

	"github.com/muhsaibcf/mcf-bot/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestPollVoting(t *testing.T) {
	now := time.Now()
	poll := models.NewPoll("Next meeting day", []string{"Saturday", "Sunday"}, now.Add(time.Hour))

	assert.True(t, poll.Open(now))
	assert.False(t, poll.HasVoted(0))

	poll.Vote(0, 0)
	poll.Vote(1, 0)
	poll.Vote(2, 1)

	assert.True(t, poll.HasVoted(0))
	assert.True(t, poll.HasVoted(2))
	assert.Equal(t, 2, poll.Votes["Saturday"])
	assert.Equal(t, 1, poll.Votes["Sunday"])
	assert.Equal(t, 3, poll.TotalVotes())

	// Опрос закрывается по времени и по флагу
	assert.False(t, poll.Open(now.Add(2*time.Hour)))
	poll.Closed = true
	assert.False(t, poll.Open(now))
}

func TestFormatPollResults(t *testing.T) {
	now := time.Now()

	t.Run("WithVotes", func(t *testing.T) {
		poll := models.NewPoll("Next meeting day", []string{"Saturday", "Sunday"}, now.Add(time.Hour))
		poll.Vote(0, 0)
		poll.Vote(1, 0)
		poll.Vote(2, 0)
		poll.Vote(3, 1)

		text := formatPollResults(poll)
		assert.Contains(t, text, "Poll results: Next meeting day")
		assert.Contains(t, text, "Saturday: 3 (75.0%)")
		assert.Contains(t, text, "Sunday: 1 (25.0%)")
		assert.Contains(t, text, "Total votes: 4")
	})

	t.Run("NoVotes", func(t *testing.T) {
		poll := models.NewPoll("Empty poll", []string{"A", "B"}, now.Add(time.Hour))

		text := formatPollResults(poll)
		assert.Contains(t, text, "A: 0 (0.0%)")
		assert.Contains(t, text, "B: 0 (0.0%)")
		assert.Contains(t, text, "Total votes: 0")
	})
}

func TestPollMarkup(t *testing.T) {
	bot := &Bot{}
	poll := models.NewPoll("Next meeting day", []string{"Saturday", "Sunday"}, time.Now().Add(time.Hour))

	markup := bot.pollMarkup(poll)
	assert.Len(t, markup.InlineKeyboard, 2)
	assert.Equal(t, "Saturday", markup.InlineKeyboard[0][0].Text)
	assert.Contains(t, markup.InlineKeyboard[0][0].Data, poll.Id.String())
}
