package statusserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/muhsaibcf/mcf-bot/internal/editwindow"
	"github.com/muhsaibcf/mcf-bot/internal/models"
	"github.com/muhsaibcf/mcf-bot/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Info(mes string)               {}
func (nopLogger) Infof(str string, arg ...any)  {}
func (nopLogger) Error(mess string)             {}
func (nopLogger) Errorf(str string, arg ...any) {}
func (nopLogger) Debug(mess string)             {}
func (nopLogger) Debugf(str string, arg ...any) {}

func TestStatusRoutes(t *testing.T) {
	roster := storage.NewMemRoster()
	_, err := roster.Append(map[string]string{
		models.ColFullName: "Aisha Bello",
		models.ColEmail:    "aisha@example.com",
		models.ColPhone:    "+2348011111111",
	})
	require.NoError(t, err)

	state, err := storage.NewStateStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, state.AddPoll(models.NewPoll("Next meeting day", []string{"Saturday", "Sunday"}, time.Now().Add(time.Hour))))

	window := editwindow.New(time.Now(), 7, false)

	router := NewRouter(roster, state, window, nopLogger{})
	server := httptest.NewServer(router)
	defer server.Close()

	t.Run("Ping", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/ping")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("Health", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var info struct {
			Rows           int  `json:"rows"`
			EditingAllowed bool `json:"editing_allowed"`
			DaysLeft       int  `json:"days_left"`
			OpenPolls      int  `json:"open_polls"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))

		assert.Equal(t, 1, info.Rows)
		assert.True(t, info.EditingAllowed)
		assert.Equal(t, 7, info.DaysLeft)
		assert.Equal(t, 1, info.OpenPolls)
	})
}
