package remoteconfig

import (
	"context"
	"testing"
	"time"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidiaz1251/apostolV2/internal/domain"
	"github.com/davidiaz1251/apostolV2/internal/logging"
	"github.com/davidiaz1251/apostolV2/internal/remote/rest"
)

const fetchPath = "/v1/projects/apostol/namespaces/firebase:fetch"

func newTestClient(interval time.Duration, online func() bool) *Client {
	c := NewClient(Options{
		ProjectID:        "apostol",
		APIKey:           "k",
		AppID:            "1:123:android:abc",
		MinFetchInterval: interval,
		Rest: rest.Options{
			Logger:     logging.NullLogger(),
			Online:     online,
			RetryDelay: time.Millisecond,
		},
	})
	gock.InterceptClient(c.HTTPClient())
	return c
}

func TestFetchAndActivate(t *testing.T) {
	defer gock.Off()
	c := newTestClient(time.Minute, nil)

	assert.Empty(t, c.GetString("temas_version"))

	gock.New("https://firebaseremoteconfig.googleapis.com").
		Post(fetchPath).
		MatchParam("key", "k").
		Reply(200).
		JSON(map[string]any{
			"entries": map[string]string{"temas_version": "1712000000000"},
			"state":   "UPDATE",
		})

	require.NoError(t, c.FetchAndActivate(context.Background()))
	assert.Equal(t, "1712000000000", c.GetString("temas_version"))
	assert.Empty(t, c.GetString("other"))
	assert.True(t, gock.IsDone())
}

func TestFetchIsThrottled(t *testing.T) {
	defer gock.Off()
	c := newTestClient(time.Minute, nil)

	gock.New("https://firebaseremoteconfig.googleapis.com").
		Post(fetchPath).
		Times(1).
		Reply(200).
		JSON(map[string]any{"entries": map[string]string{"temas_version": "1"}})

	require.NoError(t, c.FetchAndActivate(context.Background()))
	// A second fetch inside the interval is served from the cached template
	require.NoError(t, c.FetchAndActivate(context.Background()))
	assert.Equal(t, "1", c.GetString("temas_version"))
	assert.True(t, gock.IsDone())
}

func TestFetchAfterIntervalHitsNetwork(t *testing.T) {
	defer gock.Off()
	c := newTestClient(20*time.Millisecond, nil)

	gock.New("https://firebaseremoteconfig.googleapis.com").Post(fetchPath).
		Reply(200).JSON(map[string]any{"entries": map[string]string{"temas_version": "1"}})
	gock.New("https://firebaseremoteconfig.googleapis.com").Post(fetchPath).
		Reply(200).JSON(map[string]any{"entries": map[string]string{"temas_version": "2"}})

	require.NoError(t, c.FetchAndActivate(context.Background()))
	time.Sleep(40 * time.Millisecond)
	require.NoError(t, c.FetchAndActivate(context.Background()))
	assert.Equal(t, "2", c.GetString("temas_version"))
}

func TestFailedFetchKeepsActiveValues(t *testing.T) {
	defer gock.Off()
	c := newTestClient(20*time.Millisecond, nil)

	gock.New("https://firebaseremoteconfig.googleapis.com").Post(fetchPath).
		Reply(200).JSON(map[string]any{"entries": map[string]string{"temas_version": "7"}})
	gock.New("https://firebaseremoteconfig.googleapis.com").Post(fetchPath).Reply(401)

	require.NoError(t, c.FetchAndActivate(context.Background()))
	time.Sleep(40 * time.Millisecond)

	err := c.FetchAndActivate(context.Background())
	var fetchErr *domain.RemoteFetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.ErrorIs(t, err, domain.ErrAuthFailed)
	assert.Equal(t, "7", c.GetString("temas_version"))
}

func TestOfflineFetchFailsFast(t *testing.T) {
	defer gock.Off()
	c := newTestClient(time.Minute, func() bool { return false })

	err := c.FetchAndActivate(context.Background())
	assert.ErrorIs(t, err, domain.ErrOffline)
}
