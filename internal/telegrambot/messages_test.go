package telegrambot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTr(t *testing.T) {
	assert.Equal(t, messages[LangEnglish]["ask_email"], tr(LangEnglish, "ask_email"))
	assert.Equal(t, messages[LangHausa]["ask_email"], tr(LangHausa, "ask_email"))

	// Неизвестный язык и пустой язык откатываются на английский
	assert.Equal(t, messages[LangEnglish]["ask_email"], tr("fr", "ask_email"))
	assert.Equal(t, messages[LangEnglish]["ask_email"], tr("", "ask_email"))

	// Неизвестный ключ возвращается как есть
	assert.Equal(t, "no_such_key", tr(LangEnglish, "no_such_key"))
}

func TestTrf(t *testing.T) {
	text := trf(LangEnglish, "days_left", 3)
	assert.Contains(t, text, "3")
}

// Языки должны покрывать один и тот же набор ключей
func TestMessageKeyParity(t *testing.T) {
	for key := range messages[LangEnglish] {
		_, ok := messages[LangHausa][key]
		assert.True(t, ok, "missing hausa translation for %q", key)
	}
	for key := range messages[LangHausa] {
		_, ok := messages[LangEnglish][key]
		assert.True(t, ok, "missing english translation for %q", key)
	}
}
