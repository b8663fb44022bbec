package routes

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storymap/internal/config"
	"storymap/internal/models"
	"storymap/internal/store"
)

// testContext stands in for testing.T.Context (Go 1.24+): a context that is
// canceled when the test finishes.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

func setup(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	config.App = &config.Settings{DataDir: dir, MediaURLPrefix: "/media", MaxUploadMB: 5, MapToken: "tok"}
	s, err := store.New(dir, "/media")
	require.NoError(t, err)
	config.Store = s
	return SetupRouter(io.Discard)
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

// seedChain writes n places (slugs p0..) with a route feature per hop.
func seedChain(t *testing.T, n int) {
	t.Helper()
	var places []models.Place
	var routes []*models.RouteFeature
	for i := 0; i < n; i++ {
		slug := "p" + string(rune('0'+i))
		places = append(places, models.Place{
			Slug:      slug,
			Title:     strings.ToUpper(slug),
			Coords:    models.NewCoords(float64(i), float64(i)),
			DateStart: "200" + string(rune('0'+i)),
		})
		if i > 0 {
			prev := "p" + string(rune('0'+i-1))
			routes = append(routes, models.NewRouteFeature(prev, slug, i,
				[][2]float64{{float64(i - 1), float64(i - 1)}, {float64(i), float64(i)}}))
		}
	}
	ctx := testContext(t)
	require.NoError(t, config.Store.SavePlaces(ctx, places))
	require.NoError(t, config.Store.SaveRoutes(ctx, routes))
}

func TestGetPlacesEmpty(t *testing.T) {
	r := setup(t)

	w := do(t, r, http.MethodGet, "/api/places", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"places":[]}`, w.Body.String())
}

func TestSaveThenLoadPlaces(t *testing.T) {
	r := setup(t)
	places := []models.Place{
		{Slug: "b", Title: "B", Coords: models.NewCoords(1, 2), DateStart: "1960"},
		{Slug: "a", Title: "A", Coords: models.NewCoords(3, 4), DateStart: "1960", Tags: []string{"x"}},
	}

	w := do(t, r, http.MethodPost, "/api/places", gin.H{"places": places})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	w = do(t, r, http.MethodGet, "/api/places", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Places []models.Place `json:"places"`
	}
	decode(t, w, &got)
	assert.Equal(t, places, got.Places, "the file keeps the submitted order")

	w = do(t, r, http.MethodPost, "/api/places", gin.H{"places": places})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"unchanged":true}`, w.Body.String())
}

func TestSavePlacesRejectsBadBody(t *testing.T) {
	r := setup(t)

	w := do(t, r, http.MethodPost, "/api/places", gin.H{"nope": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func upload(t *testing.T, r http.Handler, kind, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/places?type="+kind, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUploadSanitizesFilename(t *testing.T) {
	r := setup(t)

	w := upload(t, r, "image", "my photo.png", "pixels")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got struct {
		URL string `json:"url"`
	}
	decode(t, w, &got)
	assert.Equal(t, "/media/images/my_photo.png", got.URL)

	_, err := os.Stat(filepath.Join(config.Store.MediaRoot(), "images", "my_photo.png"))
	require.NoError(t, err)

	w = do(t, r, http.MethodGet, got.URL, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pixels", w.Body.String())
}

func TestUploadRejectsUnknownTypeAndMissingFile(t *testing.T) {
	r := setup(t)

	assert.Equal(t, http.StatusBadRequest, upload(t, r, "pdf", "a.pdf", "x").Code)
	assert.Equal(t, http.StatusBadRequest, upload(t, r, "audio", "", "").Code)
}

func TestSaveRoutesKeepsMetadata(t *testing.T) {
	r := setup(t)
	doc := `{"type":"FeatureCollection","name":"tour","features":[]}`
	require.NoError(t, os.WriteFile(filepath.Join(config.Store.Dir(), store.RoutesFile), []byte(doc), 0o644))

	body := `{"routes":[{"type":"Feature","geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]},"properties":{"fromSlug":"a","toSlug":"b","order":2,"mode":"train"}}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/routes", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, http.MethodGet, "/api/routes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Routes struct {
			Type     string            `json:"type"`
			Name     string            `json:"name"`
			Features []json.RawMessage `json:"features"`
		} `json:"routes"`
	}
	decode(t, w, &got)
	assert.Equal(t, "FeatureCollection", got.Routes.Type)
	assert.Equal(t, "tour", got.Routes.Name)
	require.Len(t, got.Routes.Features, 1)
	assert.Contains(t, string(got.Routes.Features[0]), `"train"`)
}

func TestJourneyPlanCatchUp(t *testing.T) {
	r := setup(t)
	seedChain(t, 6)

	w := do(t, r, http.MethodGet, "/api/journey/plan?from=0&to=5", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got struct {
		Plan struct {
			To           int   `json:"to"`
			CatchUp      []int `json:"catchUp"`
			CompletesHop int   `json:"completesHop"`
			Camera       []struct {
				Phase      int   `json:"phase"`
				DurationMs int64 `json:"durationMs"`
			} `json:"camera"`
			Route struct {
				RouteID string `json:"routeId"`
			} `json:"route"`
		} `json:"plan"`
	}
	decode(t, w, &got)
	assert.Equal(t, 5, got.Plan.To)
	assert.Equal(t, []int{0, 1, 2, 3}, got.Plan.CatchUp)
	assert.Equal(t, 4, got.Plan.CompletesHop)
	require.Len(t, got.Plan.Camera, 3)
	assert.EqualValues(t, 1200, got.Plan.Camera[0].DurationMs)
	assert.Equal(t, "p4->p5", got.Plan.Route.RouteID)

	w = do(t, r, http.MethodGet, "/api/journey/plan?from=0&to=99", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &got)
	assert.Equal(t, 5, got.Plan.To)

	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/api/journey/plan?to=x", nil).Code)
}

func TestGetJourneySkipsMalformed(t *testing.T) {
	r := setup(t)
	require.NoError(t, config.Store.SavePlaces(testContext(t), []models.Place{
		{Title: "B", DateStart: "1960", Coords: models.NewCoords(1, 1)},
		{Title: "A", DateStart: "1960", Coords: models.NewCoords(2, 2)},
		{Title: "Bad", Coords: models.Coords(`[]`)},
	}))

	w := do(t, r, http.MethodGet, "/api/journey", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Places  []models.Place `json:"places"`
		Skipped int            `json:"skipped"`
	}
	decode(t, w, &got)
	require.Len(t, got.Places, 2)
	assert.Equal(t, "A", got.Places[0].Title)
	assert.Equal(t, 1, got.Skipped)
}

func TestJourneyWithFewerThanTwoPlaces(t *testing.T) {
	r := setup(t)
	seedChain(t, 1)

	w := do(t, r, http.MethodGet, "/api/journey", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]json.RawMessage
	decode(t, w, &got)
	assert.JSONEq(t, `[]`, string(got["segments"]))
}

func writePlacesFile(t *testing.T, raw string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(config.Store.Dir(), store.PlacesFile), []byte(raw), 0o644))
}

func TestMalformedCoordsAreSkippedNotFatal(t *testing.T) {
	r := setup(t)
	writePlacesFile(t, `[
  {"slug":"str","title":"Str","coords":["106.6","10.7"],"dateStart":"1911"},
  {"slug":"nul","title":"Nul","coords":[null,10],"dateStart":"1912"},
  {"slug":"obj","title":"Obj","coords":{"lng":1,"lat":2},"dateStart":"1913"},
  {"slug":"ok","title":"Ok","coords":[106.6,10.7],"dateStart":"1914"}
]`)

	w := do(t, r, http.MethodGet, "/api/places", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var all struct {
		Places []json.RawMessage `json:"places"`
	}
	decode(t, w, &all)
	require.Len(t, all.Places, 4)
	assert.JSONEq(t, `{"slug":"nul","title":"Nul","coords":[null,10],"dateStart":"1912"}`, string(all.Places[1]))

	w = do(t, r, http.MethodGet, "/api/journey", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var j struct {
		Places  []models.Place `json:"places"`
		Skipped int            `json:"skipped"`
	}
	decode(t, w, &j)
	require.Len(t, j.Places, 1)
	assert.Equal(t, "ok", j.Places[0].Slug)
	assert.Equal(t, 3, j.Skipped)

	body := `{"places":[{"title":"X","coords":["a","b"]}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/places", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestSavePlacesKeepsUnknownMembers(t *testing.T) {
	r := setup(t)
	body := `{"places":[{"slug":"hue","title":"Hue","coords":[107.6,16.5],"notes":"keep me","rank":3}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/places", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	first, err := os.ReadFile(filepath.Join(config.Store.Dir(), store.PlacesFile))
	require.NoError(t, err)
	assert.Contains(t, string(first), `"notes": "keep me"`)
	assert.Contains(t, string(first), `"rank": 3`)

	places, err := config.Store.LoadPlaces(testContext(t))
	require.NoError(t, err)
	require.NoError(t, config.Store.SavePlaces(testContext(t), places))
	second, err := os.ReadFile(filepath.Join(config.Store.Dir(), store.PlacesFile))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestUpsertAndDeletePlace(t *testing.T) {
	r := setup(t)
	seedChain(t, 2)

	w := do(t, r, http.MethodPut, "/api/places/p1", models.Place{Slug: "p1", Title: "Renamed", Coords: models.NewCoords(1, 1), DateStart: "2001"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"ok":true,"index":1,"count":2}`, w.Body.String())

	w = do(t, r, http.MethodPut, "/api/places/p1", models.Place{Slug: "p1", Title: "Renamed", Coords: models.NewCoords(1, 1), DateStart: "2001"})
	assert.JSONEq(t, `{"ok":true,"unchanged":true,"index":1}`, w.Body.String())

	w = do(t, r, http.MethodPut, "/api/places/hue", models.Place{Slug: "hue", Title: "Hue", Coords: models.NewCoords(107.6, 16.5)})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"index":2,"count":3}`, w.Body.String())

	w = do(t, r, http.MethodDelete, "/api/places/p0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"index":0,"count":2}`, w.Body.String())

	places, err := config.Store.LoadPlaces(testContext(t))
	require.NoError(t, err)
	require.Len(t, places, 2)
	assert.Equal(t, "Renamed", places[0].Title)
	assert.Equal(t, "hue", places[1].Slug)

	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodDelete, "/api/places/rome", nil).Code)
}

func TestPlaceDetail(t *testing.T) {
	r := setup(t)
	require.NoError(t, config.Store.SavePlaces(testContext(t), []models.Place{
		{Slug: "lisbon", Title: "Lisbon", Coords: models.NewCoords(1, 1), LevelTexts: &models.LevelTexts{Primary: "**Port**"}},
	}))

	w := do(t, r, http.MethodGet, "/api/places/lisbon/detail", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Detail struct {
			Key  string `json:"key"`
			HTML struct {
				Primary string `json:"primary"`
			} `json:"html"`
		} `json:"detail"`
	}
	decode(t, w, &got)
	assert.Equal(t, "lisbon", got.Detail.Key)
	assert.Contains(t, got.Detail.HTML.Primary, `<strong>Port</strong>`)

	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/api/places/rome/detail", nil).Code)
}

func TestQuizDrawAndScore(t *testing.T) {
	r := setup(t)
	bank := `[{"id":"q1","question":"Capital of Portugal?","options":["Lisbon","Porto"],"answer":"Lisbon"},
	          {"id":"q2","question":"Capital of Spain?","options":["Madrid","Seville"],"answer":"Madrid"},
	          {"id":"q3","question":"River in Lisbon?","options":["Tagus","Douro"],"answer":"Tagus"}]`
	require.NoError(t, os.WriteFile(filepath.Join(config.Store.Dir(), store.QuizFile), []byte(bank), 0o644))

	w := do(t, r, http.MethodGet, "/api/quiz?count=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var set struct {
		Set models.QuizSet `json:"set"`
	}
	decode(t, w, &set)
	assert.Len(t, set.Set.Questions, 2)
	for _, q := range set.Set.Questions {
		assert.Empty(t, q.Answer)
	}

	w = do(t, r, http.MethodPost, "/api/quiz/score", gin.H{
		"setId":   set.Set.ID,
		"answers": []models.QuizAnswer{{QuestionID: "q1", Answer: "lisbon"}, {QuestionID: "q2", Answer: "Seville"}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		Result models.QuizResult `json:"result"`
	}
	decode(t, w, &res)
	assert.Equal(t, 1, res.Result.Correct)
	assert.Equal(t, 2, res.Result.Total)
}

func TestClientConfigAndHealth(t *testing.T) {
	r := setup(t)

	w := do(t, r, http.MethodGet, "/api/config", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"mapToken":"tok"}`, w.Body.String())

	w = do(t, r, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestJourneyWebSocketSession(t *testing.T) {
	r := setup(t)
	seedChain(t, 3)
	config.App.AutoPlayDelay = 10 * time.Millisecond

	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/journey"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	type msg struct {
		Kind string `json:"kind"`
		Step int    `json:"step"`
		Hops []int  `json:"hops"`
	}
	read := func() msg {
		conn.SetReadDeadline(time.Now().Add(10 * time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var m msg
		require.NoError(t, json.Unmarshal(data, &m))
		return m
	}

	assert.Equal(t, "ready", read().Kind)

	require.NoError(t, conn.WriteJSON(gin.H{"action": "step", "target": 2}))
	var sawCatchUp bool
	for {
		m := read()
		if m.Kind == "progress" && assert.ObjectsAreEqual([]int{0}, m.Hops) {
			sawCatchUp = true
		}
		if m.Kind == "arrive" {
			assert.Equal(t, 2, m.Step)
			break
		}
	}
	assert.True(t, sawCatchUp)

	require.NoError(t, conn.WriteJSON(gin.H{"action": "bogus"}))
	assert.Equal(t, "error", read().Kind)
}
