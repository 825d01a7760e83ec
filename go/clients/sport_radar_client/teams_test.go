package sport_radar_client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/draftroom/go/clients"
	"github.com/mcdev12/draftroom/go/internal/models"
)

const hierarchyFixture = `{
  "league": {"id": "nfl", "name": "National Football League", "alias": "NFL"},
  "conferences": [
    {"alias": "AFC", "name": "American Football Conference", "divisions": [
      {"name": "AFC West", "teams": [
        {"id": "6680", "name": "Chiefs", "market": "Kansas City", "alias": "KC"},
        {"id": "0000", "name": "TBD", "alias": ""}
      ]}
    ]},
    {"alias": "NFC", "name": "National Football Conference", "divisions": [
      {"name": "NFC East", "teams": [
        {"id": "386b", "name": "Eagles", "market": "Philadelphia", "alias": "PHI"},
        {"id": "e627", "name": "Commanders", "market": "Washington", "alias": "WAS"}
      ]}
    ]}
  ]
}`

func newTestClient(t *testing.T, status int, body string) *SportRadarClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v7/en/league/hierarchy.json", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get(APIKeyParam))
		assert.Equal(t, JsonContentType, r.Header.Get(JsonHeader))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewSportRadarClientWithURL(srv.URL, "secret")
}

func TestTeamsFromHierarchy(t *testing.T) {
	client := newTestClient(t, http.StatusOK, hierarchyFixture)

	teams, err := client.Teams(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Team{
		{ID: "KC", Name: "Kansas City Chiefs", Conference: "AFC", Division: "West"},
		{ID: "PHI", Name: "Philadelphia Eagles", Conference: "NFC", Division: "East"},
		{ID: "WAS", Name: "Washington Commanders", Conference: "NFC", Division: "East"},
	}, teams)
}

func TestTeamsErrorStatus(t *testing.T) {
	client := newTestClient(t, http.StatusForbidden, `{"message":"Not Authorized"}`)

	_, err := client.Teams(context.Background())
	require.Error(t, err)
	var statusErr *clients.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "Not Authorized")
}

func TestTeamsEmptyHierarchy(t *testing.T) {
	client := newTestClient(t, http.StatusOK, `{"conferences": []}`)

	_, err := client.Teams(context.Background())
	assert.ErrorContains(t, err, "no teams")
}
