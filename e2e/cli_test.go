package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/civlobby/internal/cli"
	"github.com/mcoot/civlobby/internal/factory"
	"github.com/mcoot/civlobby/internal/model"
)

// cliRunner executes CLI commands in-process against a test server
type cliRunner struct {
	serverURL string
	tokenFile string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()
	t.Setenv("CIVLOBBY_TOKEN", "")

	return &cliRunner{
		serverURL: serverURL,
		tokenFile: filepath.Join(t.TempDir(), "token"),
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	return r.exec(context.Background(), append([]string{"--token-file", r.tokenFile}, args...)...)
}

func (r *cliRunner) runWithToken(token string, args ...string) (string, error) {
	return r.exec(context.Background(), append([]string{
		"--token", token,
		"--token-file", filepath.Join(filepath.Dir(r.tokenFile), "unused"),
	}, args...)...)
}

func (r *cliRunner) exec(ctx context.Context, args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--output", "json",
	}, args...)

	var out bytes.Buffer
	cmd := cli.NewRootCmd()
	cmd.SetArgs(fullArgs)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

// testServer runs the full application behind a real HTTP listener
type testServer struct {
	app *factory.App
	url string
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	app, err := factory.New(factory.Config{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = app.Fanout.Run(ctx) }()

	srv := httptest.NewServer(app.Router())
	t.Cleanup(func() {
		app.Registry.Close()
		srv.Close()
		cancel()
		_ = app.Close()
	})

	return &testServer{app: app, url: srv.URL}
}

func parseJSON[T any](t *testing.T, output string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(output), &v), "output: %s", output)
	return v
}

// guest signs in a guest and returns the session token
func guest(t *testing.T, r *cliRunner, name string) string {
	t.Helper()
	out, err := r.run("user", "guest", name, "--no-save")
	require.NoError(t, err, out)
	result := parseJSON[cli.AuthResult](t, out)
	require.NotEmpty(t, result.SessionToken)
	return result.SessionToken
}

func TestCLI_Health(t *testing.T) {
	server := startTestServer(t)
	r := newCLIRunner(t, server.url)

	out, err := r.run("health")
	require.NoError(t, err)

	health := parseJSON[cli.HealthResult](t, out)
	assert.Equal(t, "ok", health.Status)
}

func TestCLI_GuestSavesToken(t *testing.T) {
	server := startTestServer(t)
	r := newCLIRunner(t, server.url)

	out, err := r.run("user", "guest", "Alice")
	require.NoError(t, err, out)
	auth := parseJSON[cli.AuthResult](t, out)
	assert.Equal(t, "Alice", auth.User.DisplayName)

	// The saved token is picked up by the next command
	out, err = r.run("user", "me")
	require.NoError(t, err, out)
	me := parseJSON[cli.User](t, out)
	assert.Equal(t, auth.User.ID, me.ID)

	out, err = r.run("user", "logout")
	require.NoError(t, err, out)

	_, err = r.run("user", "me")
	require.Error(t, err)
}

func TestCLI_Catalog(t *testing.T) {
	server := startTestServer(t)
	r := newCLIRunner(t, server.url)

	out, err := r.run("catalog", "colors")
	require.NoError(t, err, out)
	colors := parseJSON[cli.Catalog](t, out)
	assert.NotEmpty(t, colors.Colors)

	out, err = r.run("catalog", "civs")
	require.NoError(t, err, out)
	civs := parseJSON[cli.Catalog](t, out)
	assert.NotEmpty(t, civs.Civilizations)
}

func TestCLI_RoomLifecycle(t *testing.T) {
	server := startTestServer(t)
	r := newCLIRunner(t, server.url)

	host := guest(t, r, "Host")
	player := guest(t, r, "Player")

	out, err := r.runWithToken(host, "room", "create", "Friday Night", "--max-players", "3")
	require.NoError(t, err, out)
	room := parseJSON[cli.Room](t, out)
	assert.Equal(t, "Friday Night", room.Name)
	assert.Equal(t, "waiting", room.Status)
	require.Len(t, room.Members, 1)

	out, err = r.runWithToken(player, "room", "list")
	require.NoError(t, err, out)
	page := parseJSON[cli.RoomPage](t, out)
	require.Len(t, page.Rooms, 1)
	assert.Equal(t, 1, page.Rooms[0].MemberCount)

	out, err = r.runWithToken(player, "room", "join", room.InviteCode)
	require.NoError(t, err, out)
	joined := parseJSON[cli.Room](t, out)
	assert.Len(t, joined.Members, 2)

	out, err = r.runWithToken(player, "room", "current")
	require.NoError(t, err, out)
	current := parseJSON[cli.CurrentRoom](t, out)
	require.NotNil(t, current.Room)
	assert.Equal(t, room.ID, current.Room.ID)

	// Joining a second room is rejected with the API's error code
	_, err = r.runWithToken(player, "room", "create", "Another")
	var apiErr *cli.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "ALREADY_IN_ROOM", apiErr.Code)

	out, err = r.runWithToken(player, "room", "leave")
	require.NoError(t, err, out)
	left := parseJSON[cli.LeaveResult](t, out)
	assert.False(t, left.DeletedRoom)

	out, err = r.runWithToken(player, "room", "current")
	require.NoError(t, err, out)
	assert.Nil(t, parseJSON[cli.CurrentRoom](t, out).Room)

	out, err = r.runWithToken(host, "room", "delete")
	require.NoError(t, err, out)

	_, err = r.runWithToken(host, "room", "get", room.ID)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "ROOM_NOT_FOUND", apiErr.Code)
}

func TestCLI_KickAndBots(t *testing.T) {
	server := startTestServer(t)
	r := newCLIRunner(t, server.url)

	host := guest(t, r, "Host")
	player := guest(t, r, "Player")

	out, err := r.runWithToken(host, "room", "create", "Kicks", "--max-players", "4")
	require.NoError(t, err, out)
	room := parseJSON[cli.Room](t, out)

	_, err = r.runWithToken(player, "room", "join", room.ID, "--id")
	require.NoError(t, err)

	out, err = r.runWithToken(host, "room", "add-bot")
	require.NoError(t, err, out)
	withBot := parseJSON[cli.Room](t, out)
	require.Len(t, withBot.Members, 3)
	assert.True(t, withBot.Members[2].IsBot)

	// Only the host may kick
	_, err = r.runWithToken(player, "room", "kick", withBot.Members[2].ID, "--room", room.ID)
	var apiErr *cli.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "NOT_HOST", apiErr.Code)

	out, err = r.runWithToken(host, "room", "kick", withBot.Members[1].ID)
	require.NoError(t, err, out)
	afterKick := parseJSON[cli.Room](t, out)
	assert.Len(t, afterKick.Members, 2)

	out, err = r.runWithToken(player, "room", "current")
	require.NoError(t, err, out)
	assert.Nil(t, parseJSON[cli.CurrentRoom](t, out).Room)
}

func TestCLI_GameSetupFlow(t *testing.T) {
	server := startTestServer(t)
	r := newCLIRunner(t, server.url)

	host := guest(t, r, "Host")
	player := guest(t, r, "Player")

	out, err := r.runWithToken(host, "room", "create", "Setup", "--max-players", "2")
	require.NoError(t, err, out)
	room := parseJSON[cli.Room](t, out)

	_, err = r.runWithToken(player, "room", "join", room.InviteCode)
	require.NoError(t, err)

	out, err = r.runWithToken(host, "game", "start")
	require.NoError(t, err, out)
	assert.Equal(t, "configuring", parseJSON[cli.Room](t, out).Status)

	out, err = r.runWithToken(host, "catalog", "colors")
	require.NoError(t, err, out)
	colors := parseJSON[cli.Catalog](t, out).Colors
	require.GreaterOrEqual(t, len(colors), 2)

	out, err = r.runWithToken(host, "catalog", "civs")
	require.NoError(t, err, out)
	civs := parseJSON[cli.Catalog](t, out).Civilizations
	require.GreaterOrEqual(t, len(civs), 2)

	_, err = r.runWithToken(host, "game", "config", "--civ", civs[0], "--color", colors[0])
	require.NoError(t, err)

	// Colors are exclusive within a room
	_, err = r.runWithToken(player, "game", "config", "--civ", civs[1], "--color", colors[0])
	var apiErr *cli.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "COLOR_TAKEN", apiErr.Code)

	_, err = r.runWithToken(player, "game", "config", "--civ", civs[1], "--color", colors[1])
	require.NoError(t, err)

	out, err = r.runWithToken(host, "game", "configs", room.ID)
	require.NoError(t, err, out)
	configs := parseJSON[cli.RoomConfigs](t, out)
	require.Len(t, configs.Players, 2)

	out, err = r.runWithToken(host, "game", "ready")
	require.NoError(t, err, out)
	assert.False(t, parseJSON[cli.ReadyResult](t, out).AllReady)

	// Beginning before everyone is ready fails
	_, err = r.runWithToken(host, "game", "begin")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "ROOM_NOT_READY", apiErr.Code)

	out, err = r.runWithToken(player, "game", "ready")
	require.NoError(t, err, out)
	assert.True(t, parseJSON[cli.ReadyResult](t, out).AllReady)

	out, err = r.runWithToken(host, "game", "begin")
	require.NoError(t, err, out)
	launch := parseJSON[cli.GameLaunch](t, out)
	assert.NotEmpty(t, launch.SessionID)
	assert.Len(t, launch.Players, 2)
	assert.Equal(t, "playing", launch.Room.Status)
}

func TestCLI_StopGameResetsSetup(t *testing.T) {
	server := startTestServer(t)
	r := newCLIRunner(t, server.url)

	host := guest(t, r, "Host")
	player := guest(t, r, "Player")

	out, err := r.runWithToken(host, "room", "create", "Stops", "--max-players", "2")
	require.NoError(t, err, out)
	room := parseJSON[cli.Room](t, out)
	_, err = r.runWithToken(player, "room", "join", room.InviteCode)
	require.NoError(t, err)

	_, err = r.runWithToken(host, "game", "start")
	require.NoError(t, err)
	_, err = r.runWithToken(player, "game", "ready")
	require.NoError(t, err)

	out, err = r.runWithToken(player, "game", "cancel-ready")
	require.NoError(t, err, out)

	out, err = r.runWithToken(host, "game", "stop")
	require.NoError(t, err, out)
	stopped := parseJSON[cli.Room](t, out)
	assert.Equal(t, "waiting", stopped.Status)
	for _, m := range stopped.Members {
		assert.False(t, m.IsReady)
	}
}

func TestCLI_Events(t *testing.T) {
	server := startTestServer(t)
	r := newCLIRunner(t, server.url)

	host := guest(t, r, "Host")
	player := guest(t, r, "Player")

	out, err := r.runWithToken(host, "room", "create", "Events", "--max-players", "3")
	require.NoError(t, err, out)
	room := parseJSON[cli.Room](t, out)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var (
		wg        sync.WaitGroup
		streamOut string
		streamErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		streamOut, streamErr = r.exec(ctx,
			"--token", host,
			"events", "--json", "--room", room.ID, "--limit", "2")
	}()

	require.Eventually(t, func() bool {
		return len(server.app.Registry.Subscribers(model.RoomID(room.ID))) == 1
	}, 5*time.Second, 10*time.Millisecond)

	_, err = r.runWithToken(player, "room", "join", room.InviteCode)
	require.NoError(t, err)

	wg.Wait()
	require.NoError(t, streamErr)

	lines := strings.Split(strings.TrimSpace(streamOut), "\n")
	require.Len(t, lines, 2, streamOut)

	first := parseJSON[cli.SSEEvent](t, lines[0])
	assert.Equal(t, "connected", first.Event)

	second := parseJSON[cli.SSEEvent](t, lines[1])
	assert.Equal(t, "room:player_joined", second.Event)
	assert.Contains(t, second.Data, "Player")
}

func TestCLI_EventsRejectsNonMember(t *testing.T) {
	server := startTestServer(t)
	r := newCLIRunner(t, server.url)

	host := guest(t, r, "Host")
	outsider := guest(t, r, "Outsider")

	out, err := r.runWithToken(host, "room", "create", "Private")
	require.NoError(t, err, out)
	room := parseJSON[cli.Room](t, out)

	_, err = r.runWithToken(outsider, "events", "--room", room.ID)
	var apiErr *cli.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.Status)
}
