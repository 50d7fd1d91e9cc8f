package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Lowercase", "user@example.com", "user@example.com"},
		{"Uppercase", "USER@EXAMPLE.COM", "user@example.com"},
		{"Mixed", "User@Example.Com", "user@example.com"},
		{"WithSpaces", "  user@example.com  ", "user@example.com"},
		{"Empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeEmail(tt.input))
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Plain", "+2348011111111", "+2348011111111"},
		{"WithSpaces", "+234 801 111 1111", "+2348011111111"},
		{"WithDashes", "+234-801-111-1111", "+2348011111111"},
		{"WithParens", "(0801) 111-1111", "08011111111"},
		{"Trimmed", "  08011111111  ", "08011111111"},
		{"Empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePhone(tt.input))
		})
	}
}

func TestRecordClone(t *testing.T) {
	rec := NewRecord(1)
	rec.Set(ColFullName, "Aisha Bello")

	clone := rec.Clone()
	clone.Set(ColFullName, "Changed")

	assert.Equal(t, "Aisha Bello", rec.Get(ColFullName))
}

func TestSessionClone(t *testing.T) {
	sess := &Session{ChatID: 1, Verified: true, Index: 3, Lang: "ha"}

	clone := sess.Clone()
	clone.Index = 7
	clone.Lang = "en"

	assert.Equal(t, 3, sess.Index)
	assert.Equal(t, "ha", sess.Lang)
}

func TestPollClone(t *testing.T) {
	poll := NewPoll("Next meeting day", []string{"Saturday", "Sunday"}, time.Now().Add(time.Hour))
	poll.Vote(0, 0)

	clone := poll.Clone()
	clone.Vote(1, 1)
	clone.Closed = true

	// Изменения копии не видны оригиналу
	assert.Equal(t, 1, poll.TotalVotes())
	assert.False(t, poll.HasVoted(1))
	assert.False(t, poll.Closed)
	assert.Equal(t, 2, clone.TotalVotes())
}
