package api_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/fillblank/internal/api"
	"github.com/mcoot/fillblank/internal/api/apierr"
	"github.com/mcoot/fillblank/internal/api/response"
	"github.com/mcoot/fillblank/internal/factory"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	// Mocked clock and random keep deals deterministic: lowest card IDs first
	app := factory.NewTestApp()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, app.LoadTestCards(ctx))
	t.Cleanup(func() { _ = app.Close() })

	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		AuthService:    app.AuthService,
		GameController: app.GameController,
		Catalog:        app.Catalog,
		HubManager:     app.HubManager,
		BaseURL:        "https://cards.example.com",
	})

	return &testServer{
		handler: router,
		app:     app,
	}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}

func TestCreateGuestPlayer(t *testing.T) {
	ts := newTestServer(t)

	body := map[string]string{"display_name": "Alice"}
	rr := ts.request(http.MethodPost, "/api/v1/players/guest", body, "")

	assert.Equal(t, http.StatusCreated, rr.Code)

	var resp response.AuthResponse
	err := json.Unmarshal(rr.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.Equal(t, "Alice", resp.Player.DisplayName)
	assert.True(t, resp.Player.IsGuest)
	assert.True(t, strings.HasPrefix(resp.Player.AvatarURL, "https://www.gravatar.com/avatar/"))
	assert.NotEmpty(t, resp.SessionToken)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, resp.SessionToken, cookies[0].Value)
}

func TestCreateGuestPlayerRequiresName(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/players/guest", map[string]string{"display_name": " "}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assertErrorCode(t, rr, apierr.CodeInvalidName)
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	registerBody := map[string]string{
		"username":     "alice",
		"password":     "secret123",
		"display_name": "Alice",
		"email":        "alice@example.com",
	}
	rr := ts.request(http.MethodPost, "/api/v1/players/register", registerBody, "")
	assert.Equal(t, http.StatusCreated, rr.Code)

	var registerResp response.AuthResponse
	err := json.Unmarshal(rr.Body.Bytes(), &registerResp)
	require.NoError(t, err)
	assert.False(t, registerResp.Player.IsGuest)

	loginBody := map[string]string{
		"username": "alice",
		"password": "secret123",
	}
	rr = ts.request(http.MethodPost, "/api/v1/players/login", loginBody, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var loginResp response.AuthResponse
	err = json.Unmarshal(rr.Body.Bytes(), &loginResp)
	require.NoError(t, err)
	assert.Equal(t, registerResp.Player.ID, loginResp.Player.ID)
	assert.Equal(t, registerResp.Player.AvatarURL, loginResp.Player.AvatarURL)

	rr = ts.request(http.MethodPost, "/api/v1/players/login", map[string]string{"username": "alice", "password": "nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGetMeAndLogout(t *testing.T) {
	ts := newTestServer(t)
	token := createGuestPlayer(t, ts, "Bob")

	rr := ts.request(http.MethodGet, "/api/v1/players/me", nil, token)
	assert.Equal(t, http.StatusOK, rr.Code)

	var meResp response.Player
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &meResp))
	assert.Equal(t, "Bob", meResp.DisplayName)

	rr = ts.request(http.MethodPost, "/api/v1/players/logout", nil, token)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/players/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestUnauthorizedWithoutToken(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/players/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/games", map[string]string{"name": "friday"}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestListCardSets(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/cardsets", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp response.CardSetList
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.CardSets, 2)
	assert.Equal(t, "base", resp.CardSets[0].Name)
	assert.Equal(t, 3, resp.CardSets[0].BlackCount)
	assert.Equal(t, 40, resp.CardSets[0].WhiteCount)
}

func TestCreateGame(t *testing.T) {
	ts := newTestServer(t)
	token := createGuestPlayer(t, ts, "Alice")

	body := map[string]any{"name": "friday", "card_sets": []string{"base"}, "losing_cards": "return"}
	rr := ts.request(http.MethodPost, "/api/v1/games", body, token)
	require.Equal(t, http.StatusCreated, rr.Code)

	var view response.GameView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, "friday", view.Name)
	assert.Equal(t, "submission", view.Phase)
	assert.Equal(t, "Alice", view.Czar)
	assert.Equal(t, "Alice", view.You)
	assert.True(t, view.IsCzar)
	assert.False(t, view.CanSubmit)
	assert.Len(t, view.Hand, 3)
	assert.Equal(t, "Why can't I sleep at night? ______.", view.Prompt)

	// Same name again
	other := createGuestPlayer(t, ts, "Bob")
	rr = ts.request(http.MethodPost, "/api/v1/games", map[string]string{"name": "friday"}, other)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assertErrorCode(t, rr, apierr.CodeGameNameTaken)

	rr = ts.request(http.MethodPost, "/api/v1/games", map[string]any{"name": "big", "hand_size": 99}, other)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assertErrorCode(t, rr, apierr.CodeInvalidConfig)

	rr = ts.request(http.MethodPost, "/api/v1/games", map[string]any{"name": "odd", "card_sets": []string{"nope"}}, other)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assertErrorCode(t, rr, apierr.CodeCardSetNotFound)
}

func TestListGames(t *testing.T) {
	ts := newTestServer(t)
	token := createGuestPlayer(t, ts, "Alice")
	id := createGame(t, ts, token, "friday")

	rr := ts.request(http.MethodGet, "/api/v1/games", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var list response.GameList
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Games, 1)
	assert.Equal(t, id, list.Games[0].ID)
	assert.Equal(t, 1, list.Games[0].PlayerCount)

	rr = ts.request(http.MethodPost, "/api/v1/games/"+id+"/leave", nil, token)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/games", nil, "")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Empty(t, list.Games)

	rr = ts.request(http.MethodGet, "/api/v1/games?active=false", nil, "")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Len(t, list.Games, 1)

	rr = ts.request(http.MethodGet, "/api/v1/games?active=maybe", nil, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestJoinByNameCreatesThenJoins(t *testing.T) {
	ts := newTestServer(t)
	alice := createGuestPlayer(t, ts, "Alice")
	bob := createGuestPlayer(t, ts, "Bob")

	first := joinByName(t, ts, alice, "friday")
	assert.Equal(t, "Alice", first.Czar)

	second := joinByName(t, ts, bob, "friday")
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, second.Players, 2)
	assert.True(t, second.CanSubmit)

	// Alice rejoining is a no-op
	again := joinByName(t, ts, alice, "friday")
	assert.Len(t, again.Players, 2)
}

func TestObserverView(t *testing.T) {
	ts := newTestServer(t)
	token := createGuestPlayer(t, ts, "Alice")
	id := createGame(t, ts, token, "friday")

	rr := ts.request(http.MethodGet, "/api/v1/games/"+id, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var view response.GameView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Empty(t, view.You)
	assert.Empty(t, view.Hand)
	assert.Len(t, view.Players, 1)

	rr = ts.request(http.MethodGet, "/api/v1/games/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assertErrorCode(t, rr, apierr.CodeGameNotFound)
}

func TestFullRoundFlow(t *testing.T) {
	ts := newTestServer(t)
	alice := createGuestPlayer(t, ts, "Alice")
	bob := createGuestPlayer(t, ts, "Bob")
	carol := createGuestPlayer(t, ts, "Carol")

	id := createGame(t, ts, alice, "friday")
	bobView := joinGame(t, ts, bob, id)
	carolView := joinGame(t, ts, carol, id)

	// The czar cannot submit
	rr := ts.request(http.MethodPost, "/api/v1/games/"+id+"/submissions", map[string]any{"card_ids": []int{1}}, alice)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assertErrorCode(t, rr, apierr.CodeNotYourTurn)

	// Cards must come from your own hand
	rr = ts.request(http.MethodPost, "/api/v1/games/"+id+"/submissions", map[string]any{"card_ids": []int{carolView.Hand[0].ID}}, bob)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assertErrorCode(t, rr, apierr.CodeCardNotInHand)

	// Bob and Carol submit
	view := submit(t, ts, bob, id, bobView.Hand[0].ID)
	assert.False(t, view.CanSubmit)
	assert.NotEmpty(t, view.OwnSubmission)
	assert.Len(t, view.Hand, 2)

	view = submit(t, ts, carol, id, carolView.Hand[0].ID)
	assert.Equal(t, "selection", view.Phase)

	// Submitting twice fails
	rr = ts.request(http.MethodPost, "/api/v1/games/"+id+"/submissions", map[string]any{"card_ids": []int{carolView.Hand[1].ID}}, carol)
	assert.Equal(t, http.StatusConflict, rr.Code)

	// Only the czar sees the entries
	rr = ts.request(http.MethodGet, "/api/v1/games/"+id, nil, alice)
	require.Equal(t, http.StatusOK, rr.Code)
	var czarView response.GameView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &czarView))
	assert.True(t, czarView.CanSelect)
	require.Len(t, czarView.Choices, 2)
	assert.Empty(t, view.Choices)

	// Bob cannot judge
	rr = ts.request(http.MethodPost, "/api/v1/games/"+id+"/winner", map[string]any{"choice": 0}, bob)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// Both or neither of choice and player_name is rejected
	rr = ts.request(http.MethodPost, "/api/v1/games/"+id+"/winner", map[string]any{}, alice)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = ts.request(http.MethodPost, "/api/v1/games/"+id+"/winner", map[string]any{"choice": 0, "player_name": "Bob"}, alice)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Alice picks the second entry, Carol's
	rr = ts.request(http.MethodPost, "/api/v1/games/"+id+"/winner", map[string]any{"choice": 1}, alice)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, 2, view.RoundNumber)
	assert.Equal(t, "Bob", view.Czar)
	require.NotNil(t, view.LastRound)
	assert.Equal(t, "Carol", view.LastRound.Winner)

	// History records the round
	rr = ts.request(http.MethodGet, "/api/v1/games/"+id+"/history", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var history response.History
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &history))
	require.Len(t, history.Rounds, 1)
	assert.Equal(t, "Carol", history.Rounds[0].Winner)
	assert.Equal(t, "Alice", history.Rounds[0].Czar)
	assert.Len(t, history.Rounds[0].Entries, 2)
}

func TestStartRoundRedrawsPrompt(t *testing.T) {
	ts := newTestServer(t)
	alice := createGuestPlayer(t, ts, "Alice")
	bob := createGuestPlayer(t, ts, "Bob")
	id := createGame(t, ts, alice, "friday")
	joinGame(t, ts, bob, id)

	rr := ts.request(http.MethodPost, "/api/v1/games/"+id+"/rounds", nil, bob)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/games/"+id+"/rounds", nil, alice)
	require.Equal(t, http.StatusOK, rr.Code)

	var view response.GameView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, 2, view.RoundNumber)
	assert.Equal(t, "Alice", view.Czar)
	assert.Equal(t, 2, view.Pick)
}

func TestLeaveGame(t *testing.T) {
	ts := newTestServer(t)
	alice := createGuestPlayer(t, ts, "Alice")
	bob := createGuestPlayer(t, ts, "Bob")
	id := createGame(t, ts, alice, "friday")
	joinGame(t, ts, bob, id)

	// The czar leaves; Bob takes over
	rr := ts.request(http.MethodPost, "/api/v1/games/"+id+"/leave", nil, alice)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/games/"+id, nil, bob)
	var view response.GameView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, "Bob", view.Czar)
	assert.Len(t, view.Players, 1)

	// Leaving twice fails
	rr = ts.request(http.MethodPost, "/api/v1/games/"+id+"/leave", nil, alice)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assertErrorCode(t, rr, apierr.CodeNotInGame)
}

func TestSameDisplayNameCannotActForAnotherPlayer(t *testing.T) {
	ts := newTestServer(t)
	alice := createGuestPlayer(t, ts, "Alice")
	bob := createGuestPlayer(t, ts, "Bob")
	impostor := createGuestPlayer(t, ts, "Bob")
	id := createGame(t, ts, alice, "friday")
	bobView := joinGame(t, ts, bob, id)
	require.Len(t, bobView.Hand, 3)

	// The impostor only gets the observer view
	rr := ts.request(http.MethodGet, "/api/v1/games/"+id, nil, impostor)
	require.Equal(t, http.StatusOK, rr.Code)
	var view response.GameView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Empty(t, view.You)
	assert.Empty(t, view.Hand)
	assert.False(t, view.CanSubmit)

	// Bob's cards cannot be played by the impostor
	rr = ts.request(http.MethodPost, "/api/v1/games/"+id+"/submissions", map[string]any{"card_ids": []int{bobView.Hand[0].ID}}, impostor)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assertErrorCode(t, rr, apierr.CodeNotInGame)

	// Nor can the impostor give up Bob's seat
	rr = ts.request(http.MethodPost, "/api/v1/games/"+id+"/leave", nil, impostor)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assertErrorCode(t, rr, apierr.CodeNotInGame)

	// Joining under the same name is refused
	rr = ts.request(http.MethodPost, "/api/v1/games/"+id+"/join", nil, impostor)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assertErrorCode(t, rr, apierr.CodeNameTaken)

	// The real Bob is untouched and cannot take a second seat
	rr = ts.request(http.MethodGet, "/api/v1/games/"+id, nil, bob)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, "Bob", view.You)
	assert.Equal(t, bobView.Hand, view.Hand)
	assert.True(t, view.CanSubmit)
	assert.Len(t, view.Players, 2)

	rr = ts.request(http.MethodPost, "/api/v1/games/"+id+"/join", nil, bob)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assertErrorCode(t, rr, apierr.CodeAlreadyJoined)

	submit(t, ts, bob, id, bobView.Hand[0].ID)
}

func TestQRCode(t *testing.T) {
	ts := newTestServer(t)
	token := createGuestPlayer(t, ts, "Alice")
	id := createGame(t, ts, token, "friday")

	rr := ts.request(http.MethodGet, "/api/v1/games/"+id+"/qr", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("\x89PNG")))

	rr = ts.request(http.MethodGet, "/api/v1/games/missing/qr", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestEventsStreamsGameChanges(t *testing.T) {
	ts := newTestServer(t)
	server := httptest.NewServer(ts.handler)
	defer server.Close()

	alice := createGuestPlayer(t, ts, "Alice")
	bob := createGuestPlayer(t, ts, "Bob")
	id := createGame(t, ts, alice, "friday")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/v1/games/"+id+"/events?token="+alice, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	waitForLine(t, lines, "event: connected")

	joinGame(t, ts, bob, id)
	waitForLine(t, lines, "event: player_joined")
	require.True(t, lines.Scan())
	assert.Contains(t, lines.Text(), `"player":"Bob"`)
}

// Helper functions

func assertErrorCode(t *testing.T, rr *httptest.ResponseRecorder, code string) {
	t.Helper()

	var resp apierr.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, code, resp.Error.Code)
}

func waitForLine(t *testing.T, lines *bufio.Scanner, want string) {
	t.Helper()

	for lines.Scan() {
		if lines.Text() == want {
			return
		}
	}
	t.Fatalf("stream ended before %q: %v", want, lines.Err())
}

func createGuestPlayer(t *testing.T, ts *testServer, displayName string) string {
	t.Helper()

	body := map[string]string{"display_name": displayName}
	rr := ts.request(http.MethodPost, "/api/v1/players/guest", body, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp response.AuthResponse
	err := json.Unmarshal(rr.Body.Bytes(), &resp)
	require.NoError(t, err)

	return resp.SessionToken
}

func createGame(t *testing.T, ts *testServer, token, name string) string {
	t.Helper()

	rr := ts.request(http.MethodPost, "/api/v1/games", map[string]string{"name": name}, token)
	require.Equal(t, http.StatusCreated, rr.Code)

	var view response.GameView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	return view.ID
}

func joinGame(t *testing.T, ts *testServer, token, id string) response.GameView {
	t.Helper()

	rr := ts.request(http.MethodPost, "/api/v1/games/"+id+"/join", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)

	var view response.GameView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	return view
}

func joinByName(t *testing.T, ts *testServer, token, name string) response.GameView {
	t.Helper()

	rr := ts.request(http.MethodPost, "/api/v1/games/join", map[string]string{"name": name}, token)
	require.Equal(t, http.StatusOK, rr.Code)

	var view response.GameView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	return view
}

func submit(t *testing.T, ts *testServer, token, id string, cards ...int) response.GameView {
	t.Helper()

	rr := ts.request(http.MethodPost, "/api/v1/games/"+id+"/submissions", map[string]any{"card_ids": cards}, token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var view response.GameView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	return view
}
