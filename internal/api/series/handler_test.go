package series_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"series-catalog/database"
	routes "series-catalog/internal/app/http"
	"series-catalog/internal/domain/catalog"
	"series-catalog/internal/lock"
	"series-catalog/internal/media"
)

type testServer struct {
	r         *gin.Engine
	db        *gorm.DB
	mediaRoot string
}

func newServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "catalog.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	mediaRoot := t.TempDir()
	r := gin.New()
	routes.RegisterRoutes(r, db, media.NewStore(mediaRoot), lock.NewLocker(), mediaRoot)

	return &testServer{r: r, db: db, mediaRoot: mediaRoot}
}

type filePart struct {
	field string
	name  string
	data  []byte
}

func (ts *testServer) doMultipart(t *testing.T, method, url string, fields map[string][]string, files []filePart) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, vals := range fields {
		for _, v := range vals {
			require.NoError(t, w.WriteField(key, v))
		}
	}
	for _, f := range files {
		fw, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = fw.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	ts.r.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) doJSON(t *testing.T, method, url string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, url, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.r.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) get(t *testing.T, url string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	ts.r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	return rec
}

func (ts *testServer) genre(t *testing.T, nombre string) catalog.Genre {
	t.Helper()
	g := catalog.Genre{Nombre: nombre}
	require.NoError(t, ts.db.Create(&g).Error)
	return g
}

func (ts *testServer) tag(t *testing.T, nombre string) catalog.Tag {
	t.Helper()
	tag := catalog.Tag{Nombre: nombre}
	require.NoError(t, ts.db.Create(&tag).Error)
	return tag
}

func (ts *testServer) actor(t *testing.T, nombre string) catalog.Actor {
	t.Helper()
	a := catalog.Actor{Nombre: nombre}
	require.NoError(t, ts.db.Create(&a).Error)
	return a
}

func decodeSerie(t *testing.T, rec *httptest.ResponseRecorder) catalog.Serie {
	t.Helper()
	var s catalog.Serie
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s), rec.Body.String())
	return s
}

func (ts *testServer) createSerie(t *testing.T, fields map[string][]string, files []filePart) catalog.Serie {
	t.Helper()
	rec := ts.doMultipart(t, http.MethodPost, "/series", fields, files)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeSerie(t, rec)
}

func (ts *testServer) diskPath(publicPath string) string {
	return filepath.Join(ts.mediaRoot, filepath.FromSlash(strings.TrimPrefix(publicPath, "/")))
}

func genreNames(gs []catalog.Genre) []string {
	names := make([]string, 0, len(gs))
	for _, g := range gs {
		names = append(names, g.Nombre)
	}
	return names
}

// ------------------------------
// create
// ------------------------------

func TestCreatePosterRoundTrip(t *testing.T) {
	ts := newServer(t)

	s := ts.createSerie(t,
		map[string][]string{"titulo": {"Show A"}},
		[]filePart{{field: "posterFile", name: "cover.png", data: []byte("png-bytes")}},
	)

	require.NotNil(t, s.Poster)
	assert.True(t, strings.HasPrefix(*s.Poster, "/posters/"), *s.Poster)
	assert.Contains(t, *s.Poster, "show-a")

	data, err := os.ReadFile(ts.diskPath(*s.Poster))
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)

	// persisted path must resolve as a URL
	rec := ts.get(t, *s.Poster)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png-bytes", rec.Body.String())
}

func TestCreateRequiresTitulo(t *testing.T) {
	ts := newServer(t)

	rec := ts.doMultipart(t, http.MethodPost, "/series", map[string][]string{"sinopsis": {"x"}}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateWithRelations(t *testing.T) {
	ts := newServer(t)
	drama := ts.genre(t, "Drama")
	romance := ts.genre(t, "Romance")
	bl := ts.tag(t, "BL")
	earth := ts.actor(t, "Earth Pirapat")

	s := ts.createSerie(t, map[string][]string{
		"titulo":     {"A Tale of Thousand Stars"},
		"temporadas": {"1"},
		"estado":     {"FINALIZADA"},
		"genreIds[]": {drama.ID, romance.ID},
		"tagIds[]":   {bl.ID},
		"actores":    {`[{"actorId":"` + earth.ID + `","personaje":"Phupha","tipoRol":"PRINCIPAL"}]`},
	}, nil)

	assert.ElementsMatch(t, []string{"Drama", "Romance"}, genreNames(s.Generos))
	require.Len(t, s.Tags, 1)
	assert.Equal(t, "BL", s.Tags[0].Nombre)
	require.Len(t, s.Actores, 1)
	assert.Equal(t, earth.ID, s.Actores[0].ActorID)
	assert.Equal(t, "PRINCIPAL", s.Actores[0].TipoRol)
	require.NotNil(t, s.Actores[0].Actor)
	assert.Equal(t, "Earth Pirapat", s.Actores[0].Actor.Nombre)
}

func TestCreateUnknownGenreWritesNoFile(t *testing.T) {
	ts := newServer(t)

	rec := ts.doMultipart(t, http.MethodPost, "/series",
		map[string][]string{"titulo": {"Show A"}, "genreIds[]": {"nope"}},
		[]filePart{{field: "posterFile", name: "c.png", data: []byte("x")}},
	)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "nope")

	// relation ids are resolved before any media mutation
	matches, _ := filepath.Glob(filepath.Join(ts.mediaRoot, "posters", "*"))
	assert.Empty(t, matches)
}

// ------------------------------
// update: media semantics
// ------------------------------

func TestUpdateClearPoster(t *testing.T) {
	ts := newServer(t)
	s := ts.createSerie(t,
		map[string][]string{"titulo": {"Show A"}},
		[]filePart{{field: "posterFile", name: "c.png", data: []byte("x")}},
	)
	oldDisk := ts.diskPath(*s.Poster)

	rec := ts.doMultipart(t, http.MethodPut, "/series/"+s.ID, map[string][]string{"poster": {""}}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated := decodeSerie(t, rec)
	assert.Nil(t, updated.Poster)

	_, err := os.Stat(oldDisk)
	assert.True(t, os.IsNotExist(err), "old poster file must be deleted")
}

func TestUpdateClearPosterWhenFileAlreadyGone(t *testing.T) {
	ts := newServer(t)
	s := ts.createSerie(t,
		map[string][]string{"titulo": {"Show A"}},
		[]filePart{{field: "posterFile", name: "c.png", data: []byte("x")}},
	)
	require.NoError(t, os.Remove(ts.diskPath(*s.Poster)))

	// deletion of a missing file is still success
	rec := ts.doMultipart(t, http.MethodPut, "/series/"+s.ID, map[string][]string{"poster": {""}}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Nil(t, decodeSerie(t, rec).Poster)
}

func TestUpdateKeepPoster(t *testing.T) {
	ts := newServer(t)
	s := ts.createSerie(t,
		map[string][]string{"titulo": {"Show A"}},
		[]filePart{{field: "posterFile", name: "c.png", data: []byte("x")}},
	)

	rec := ts.doMultipart(t, http.MethodPut, "/series/"+s.ID, map[string][]string{"sinopsis": {"better now"}}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	updated := decodeSerie(t, rec)
	require.NotNil(t, updated.Poster)
	assert.Equal(t, *s.Poster, *updated.Poster)
	_, err := os.Stat(ts.diskPath(*s.Poster))
	assert.NoError(t, err)
}

func TestUpdateReplacePoster(t *testing.T) {
	ts := newServer(t)
	s := ts.createSerie(t,
		map[string][]string{"titulo": {"Show A"}},
		[]filePart{{field: "posterFile", name: "old.png", data: []byte("old")}},
	)
	oldDisk := ts.diskPath(*s.Poster)

	rec := ts.doMultipart(t, http.MethodPut, "/series/"+s.ID, nil,
		[]filePart{{field: "posterFile", name: "new.jpg", data: []byte("new")}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated := decodeSerie(t, rec)
	require.NotNil(t, updated.Poster)
	assert.NotEqual(t, *s.Poster, *updated.Poster)
	assert.True(t, strings.HasSuffix(*updated.Poster, ".jpg"))

	_, err := os.Stat(oldDisk)
	assert.True(t, os.IsNotExist(err), "replaced file must be deleted after the write")
	data, err := os.ReadFile(ts.diskPath(*updated.Poster))
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), data)
}

func TestUpdateReplacePosterUsesIncomingTitleForNaming(t *testing.T) {
	ts := newServer(t)
	s := ts.createSerie(t, map[string][]string{"titulo": {"Old Name"}}, nil)

	rec := ts.doMultipart(t, http.MethodPut, "/series/"+s.ID,
		map[string][]string{"titulo": {"New Name"}},
		[]filePart{{field: "posterFile", name: "c.png", data: []byte("x")}})
	require.Equal(t, http.StatusOK, rec.Code)

	updated := decodeSerie(t, rec)
	require.NotNil(t, updated.Poster)
	assert.Contains(t, *updated.Poster, "new-name")
}

// ------------------------------
// update: relation semantics
// ------------------------------

func TestRelationReplaceIsIdempotent(t *testing.T) {
	ts := newServer(t)
	g1 := ts.genre(t, "Drama")
	g2 := ts.genre(t, "Comedia")
	s := ts.createSerie(t, map[string][]string{"titulo": {"Show A"}}, nil)

	for i := 0; i < 2; i++ {
		rec := ts.doMultipart(t, http.MethodPut, "/series/"+s.ID,
			map[string][]string{"genreIds[]": {g1.ID, g2.ID}}, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.ElementsMatch(t, []string{"Drama", "Comedia"}, genreNames(decodeSerie(t, rec).Generos))
	}
}

func TestRelationOmissionVsEmpty(t *testing.T) {
	ts := newServer(t)
	g := ts.genre(t, "Drama")
	s := ts.createSerie(t, map[string][]string{
		"titulo":     {"Show A"},
		"genreIds[]": {g.ID},
	}, nil)

	// no genreIds[] key at all: membership untouched
	rec := ts.doMultipart(t, http.MethodPut, "/series/"+s.ID, map[string][]string{"pais": {"Tailandia"}}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Drama"}, genreNames(decodeSerie(t, rec).Generos))

	// key present with zero entries: clear all
	rec = ts.doMultipart(t, http.MethodPut, "/series/"+s.ID, map[string][]string{"genreIds[]": {""}}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeSerie(t, rec).Generos)
}

func TestUnknownRelationIDFailsFast(t *testing.T) {
	ts := newServer(t)
	drama := ts.genre(t, "Drama")
	s := ts.createSerie(t, map[string][]string{
		"titulo":     {"Show A"},
		"genreIds[]": {drama.ID},
	}, nil)

	rec := ts.doMultipart(t, http.MethodPut, "/series/"+s.ID,
		map[string][]string{"genreIds[]": {drama.ID, "nonexistent"}}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "nonexistent")

	// membership unchanged from before the call
	got := ts.get(t, "/series/"+s.ID)
	require.Equal(t, http.StatusOK, got.Code)
	assert.Equal(t, []string{"Drama"}, genreNames(decodeSerie(t, got).Generos))
}

// The concrete reconciliation scenario: clear the poster and replace
// the genre set in one request, title untouched.
func TestClearPosterAndReplaceGenresTogether(t *testing.T) {
	ts := newServer(t)
	drama := ts.genre(t, "Drama")
	romance := ts.genre(t, "Romance")
	s := ts.createSerie(t,
		map[string][]string{"titulo": {"Show A"}, "genreIds[]": {drama.ID}},
		[]filePart{{field: "posterFile", name: "c.jpg", data: []byte("x")}},
	)
	oldDisk := ts.diskPath(*s.Poster)

	rec := ts.doMultipart(t, http.MethodPut, "/series/"+s.ID, map[string][]string{
		"poster":     {""},
		"genreIds[]": {drama.ID, romance.ID},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated := decodeSerie(t, rec)
	assert.Nil(t, updated.Poster)
	assert.ElementsMatch(t, []string{"Drama", "Romance"}, genreNames(updated.Generos))
	assert.Equal(t, "Show A", updated.Titulo)

	_, err := os.Stat(oldDisk)
	assert.True(t, os.IsNotExist(err))
}

// ------------------------------
// update: scalars
// ------------------------------

func TestUpdateScalarNullVsAbsent(t *testing.T) {
	ts := newServer(t)
	s := ts.createSerie(t, map[string][]string{
		"titulo": {"Show A"},
		"año":    {"2021"},
		"rating": {"8.5"},
	}, nil)

	// empty nullable -> explicit null; unparseable -> untouched
	rec := ts.doMultipart(t, http.MethodPut, "/series/"+s.ID, map[string][]string{
		"año":    {""},
		"rating": {"abc"},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated := decodeSerie(t, rec)
	assert.Nil(t, updated.Anio)
	require.NotNil(t, updated.Rating)
	assert.Equal(t, 8.5, *updated.Rating)
}

func TestUpdateNotFound(t *testing.T) {
	ts := newServer(t)

	rec := ts.doMultipart(t, http.MethodPut, "/series/missing", map[string][]string{"pais": {"Japón"}}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ------------------------------
// delete
// ------------------------------

func TestDeleteRemovesRecordFilesAndMemberships(t *testing.T) {
	ts := newServer(t)
	g := ts.genre(t, "Drama")
	a := ts.actor(t, "Mix Sahaphap")
	s := ts.createSerie(t,
		map[string][]string{
			"titulo":     {"Show A"},
			"genreIds[]": {g.ID},
			"actores":    {`[{"actorId":"` + a.ID + `"}]`},
		},
		[]filePart{{field: "posterFile", name: "c.png", data: []byte("x")}},
	)
	posterDisk := ts.diskPath(*s.Poster)

	rec := ts.doMultipart(t, http.MethodDelete, "/series/"+s.ID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, ts.get(t, "/series/"+s.ID).Code)

	_, err := os.Stat(posterDisk)
	assert.True(t, os.IsNotExist(err))

	var joinRows int64
	require.NoError(t, ts.db.Model(&catalog.SerieActor{}).Where("serie_id = ?", s.ID).Count(&joinRows).Error)
	assert.Zero(t, joinRows)

	// referenced entities survive
	var genres int64
	require.NoError(t, ts.db.Model(&catalog.Genre{}).Count(&genres).Error)
	assert.EqualValues(t, 1, genres)
}

func TestDeleteNotFound(t *testing.T) {
	ts := newServer(t)
	rec := ts.doMultipart(t, http.MethodDelete, "/series/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ------------------------------
// reads
// ------------------------------

func TestListNewestFirstWithActorCount(t *testing.T) {
	ts := newServer(t)
	a := ts.actor(t, "Bright Vachirawit")
	ts.createSerie(t, map[string][]string{"titulo": {"First"}}, nil)
	ts.createSerie(t, map[string][]string{
		"titulo":  {"Second"},
		"actores": {`[{"actorId":"` + a.ID + `"}]`},
	}, nil)

	rec := ts.get(t, "/series")
	require.Equal(t, http.StatusOK, rec.Code)

	var items []struct {
		Titulo       string `json:"titulo"`
		ActoresCount int64  `json:"actoresCount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 2)

	byTitle := map[string]int64{}
	for _, it := range items {
		byTitle[it.Titulo] = it.ActoresCount
	}
	assert.EqualValues(t, 0, byTitle["First"])
	assert.EqualValues(t, 1, byTitle["Second"])
}

func TestSearchByTitle(t *testing.T) {
	ts := newServer(t)
	ts.createSerie(t, map[string][]string{"titulo": {"Bad Buddy"}, "año": {"2021"}}, nil)
	ts.createSerie(t, map[string][]string{"titulo": {"Semantic Error"}}, nil)

	rec := ts.get(t, "/series/search?query=bad")
	require.Equal(t, http.StatusOK, rec.Code)

	var results []struct {
		Titulo string `json:"titulo"`
		Anio   *int   `json:"año"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "Bad Buddy", results[0].Titulo)
	require.NotNil(t, results[0].Anio)
	assert.Equal(t, 2021, *results[0].Anio)
}

// ------------------------------
// media lookup
// ------------------------------

func TestMediaLookup(t *testing.T) {
	ts := newServer(t)
	require.NoError(t, os.MkdirAll(filepath.Join(ts.mediaRoot, "posters"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(ts.mediaRoot, "posters", "bad-buddy.jpg"), []byte("x"), 0o644))

	rec := ts.doJSON(t, http.MethodPost, "/media/lookup", map[string]string{"title": "Bad Buddy"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/posters/bad-buddy.jpg")

	rec = ts.doJSON(t, http.MethodPost, "/media/lookup", map[string]string{"title": "Nope", "type": "banner"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/img/default-banner.jpg")

	rec = ts.doJSON(t, http.MethodPost, "/media/lookup", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
