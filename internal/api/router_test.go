package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"minibank/internal/config"
	"minibank/internal/db"
	"minibank/internal/domain"
	"minibank/internal/flash"
	"minibank/internal/middleware"
	"minibank/internal/repository"
	"minibank/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
	logrus.SetOutput(io.Discard)
}

type testApp struct {
	router http.Handler
	db     *gorm.DB
	repo   repository.UserRepository
}

func newTestApp(t *testing.T, flashes flash.Store) *testApp {
	t.Helper()
	cfg := &config.Config{DBDriver: config.DriverSQLite, DBPath: filepath.Join(t.TempDir(), "bank.db")}
	gdb, err := db.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	log := logrus.New()
	log.SetOutput(io.Discard)
	repo := repository.NewUserRepository(gdb)
	r, err := NewRouter(Deps{
		Repo:    repo,
		Bank:    service.NewBank(repo, log),
		Flashes: flashes,
		Session: middleware.SessionConfig{Secret: testSecret, TTL: time.Hour},
		Log:     log,
	})
	require.NoError(t, err)
	return &testApp{router: r, db: gdb, repo: repo}
}

// browser keeps cookies between requests like a user agent
type browser struct {
	t       *testing.T
	app     *testApp
	cookies map[string]*http.Cookie
}

func (a *testApp) browser(t *testing.T) *browser {
	return &browser{t: t, app: a, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	b.app.router.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return w
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

// submit posts a form, checks the redirect and returns the page it lands on
func (b *browser) submit(path string, form url.Values, wantLocation string) string {
	b.t.Helper()
	w := b.post(path, form)
	require.Equal(b.t, http.StatusSeeOther, w.Code)
	require.Equal(b.t, wantLocation, w.Header().Get("Location"))
	page := b.get(wantLocation)
	require.Equal(b.t, http.StatusOK, page.Code)
	return page.Body.String()
}

func creds(username, password string) url.Values {
	return url.Values{"username": {username}, "password": {password}}
}

func amount(v string) url.Values {
	return url.Values{"amount": {v}}
}

func (a *testApp) user(t *testing.T, username string) *domain.User {
	t.Helper()
	var u domain.User
	require.NoError(t, a.db.Where("username = ?", username).Take(&u).Error)
	return &u
}

func (a *testApp) count(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, a.db.Model(&domain.User{}).Count(&n).Error)
	return n
}

func runAliceScenario(t *testing.T, app *testApp) {
	b := app.browser(t)

	page := b.submit("/signup", creds("alice", "pw1"), "/login")
	assert.Contains(t, page, "Account created! Please log in.")

	page = b.submit("/login", creds("alice", "pw1"), "/")
	assert.Contains(t, page, "Logged in successfully!")
	assert.Contains(t, page, `<strong id="username">alice</strong>`)
	assert.Contains(t, page, `<strong id="balance">0.00</strong>`)

	page = b.submit("/credit", amount("100"), "/")
	assert.Contains(t, page, "Credited 100.00 successfully!")
	assert.Contains(t, page, `<strong id="balance">100.00</strong>`)
	assert.Equal(t, 100.0, app.user(t, "alice").Balance)

	page = b.submit("/debit", amount("40"), "/")
	assert.Contains(t, page, "Debited 40.00 successfully!")
	assert.Equal(t, 60.0, app.user(t, "alice").Balance)

	page = b.submit("/debit", amount("1000"), "/")
	assert.Contains(t, page, "Insufficient balance.")
	assert.Contains(t, page, `<strong id="balance">60.00</strong>`)
	assert.Equal(t, 60.0, app.user(t, "alice").Balance)

	page = b.get("/").Body.String()
	assert.NotContains(t, page, "Insufficient balance.", "flash messages show once")
}

func TestAliceScenarioWithCookieFlashes(t *testing.T) {
	runAliceScenario(t, newTestApp(t, flash.NewCookieStore(time.Minute, false)))
}

func TestAliceScenarioWithRedisFlashes(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	runAliceScenario(t, newTestApp(t, flash.NewRedisStore(rdb, time.Minute, false)))
}

func TestDuplicateSignup(t *testing.T) {
	app := newTestApp(t, flash.NewCookieStore(time.Minute, false))
	b := app.browser(t)

	b.submit("/signup", creds("bob", "x"), "/login")
	page := b.submit("/signup", creds("bob", "y"), "/signup")

	assert.Contains(t, page, "Username already exists. Please choose another.")
	assert.Equal(t, int64(1), app.count(t))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(app.user(t, "bob").Password), []byte("x")))
}

func TestSignupRequiresBothFields(t *testing.T) {
	app := newTestApp(t, flash.NewCookieStore(time.Minute, false))
	b := app.browser(t)

	page := b.submit("/signup", creds("", "pw"), "/signup")
	assert.Contains(t, page, "Username and password are required.")
	page = b.submit("/signup", creds("zoe", ""), "/signup")
	assert.Contains(t, page, "Username and password are required.")
	page = b.submit("/signup", creds(strings.Repeat("z", 101), "pw"), "/signup")
	assert.Contains(t, page, "Username must be at most 100 characters.")
	assert.Equal(t, int64(0), app.count(t))
}

func TestSignupRejectsOverlongPassword(t *testing.T) {
	app := newTestApp(t, flash.NewCookieStore(time.Minute, false))
	b := app.browser(t)

	page := b.submit("/signup", creds("zoe", strings.Repeat("p", 73)), "/signup")
	assert.Contains(t, page, "Password must be at most 72 bytes.")
	assert.Equal(t, int64(0), app.count(t))

	b.submit("/signup", creds("zoe", strings.Repeat("p", 72)), "/login")
	assert.Equal(t, int64(1), app.count(t))
}

func TestPasswordIsStoredHashed(t *testing.T) {
	app := newTestApp(t, flash.NewCookieStore(time.Minute, false))
	app.browser(t).submit("/signup", creds("carol", "hunter2"), "/login")

	stored := app.user(t, "carol").Password
	assert.NotEqual(t, "hunter2", stored)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored), []byte("hunter2")))
}

func TestLoginFailureMessagesMatch(t *testing.T) {
	app := newTestApp(t, flash.NewCookieStore(time.Minute, false))
	b := app.browser(t)
	b.submit("/signup", creds("alice", "pw1"), "/login")

	wrongPassword := b.submit("/login", creds("alice", "nope"), "/login")
	unknownUser := b.submit("/login", creds("mallory", "pw1"), "/login")

	assert.Contains(t, wrongPassword, "Invalid credentials. Please try again.")
	assert.Equal(t, wrongPassword, unknownUser)
	_, hasSession := b.cookies[middleware.SessionCookie]
	assert.False(t, hasSession)
}

func TestAnonymousRequestsRedirectToLogin(t *testing.T) {
	app := newTestApp(t, flash.NewCookieStore(time.Minute, false))
	b := app.browser(t)
	b.submit("/signup", creds("alice", "pw1"), "/login")

	for _, w := range []*httptest.ResponseRecorder{
		b.get("/"),
		b.post("/credit", amount("100")),
		b.post("/debit", amount("1")),
	} {
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))
	}
	assert.Equal(t, 0.0, app.user(t, "alice").Balance)
}

func TestInvalidAmountsAreRejected(t *testing.T) {
	app := newTestApp(t, flash.NewCookieStore(time.Minute, false))
	b := app.browser(t)
	b.submit("/signup", creds("alice", "pw1"), "/login")
	b.submit("/login", creds("alice", "pw1"), "/")
	b.submit("/credit", amount("10"), "/")

	for _, raw := range []string{"", "abc", "-5", "0", "NaN", "0.001", "1e50000000", "1e-50000000"} {
		for _, path := range []string{"/credit", "/debit"} {
			page := b.submit(path, amount(raw), "/")
			assert.Contains(t, page, "Please enter a positive amount with at most two decimals.", "%s %q", path, raw)
		}
	}
	assert.Equal(t, 10.0, app.user(t, "alice").Balance)
}

func TestTamperedSessionIsAnonymous(t *testing.T) {
	app := newTestApp(t, flash.NewCookieStore(time.Minute, false))
	b := app.browser(t)
	b.submit("/signup", creds("alice", "pw1"), "/login")
	b.submit("/login", creds("alice", "pw1"), "/")

	b.cookies[middleware.SessionCookie].Value += "x"
	w := b.get("/")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	_, stillThere := b.cookies[middleware.SessionCookie]
	assert.False(t, stillThere, "a bad session cookie is cleared")
}

func TestSessionForDeletedUserIsAnonymous(t *testing.T) {
	app := newTestApp(t, flash.NewCookieStore(time.Minute, false))
	b := app.browser(t)
	b.submit("/signup", creds("alice", "pw1"), "/login")
	b.submit("/login", creds("alice", "pw1"), "/")

	require.NoError(t, app.db.Where("username = ?", "alice").Delete(&domain.User{}).Error)

	w := b.post("/credit", amount("5"))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestSignupWhileLoggedIn(t *testing.T) {
	app := newTestApp(t, flash.NewCookieStore(time.Minute, false))
	b := app.browser(t)
	b.submit("/signup", creds("alice", "pw1"), "/login")
	b.submit("/login", creds("alice", "pw1"), "/")

	b.submit("/signup", creds("dave", "pw2"), "/login")
	assert.Equal(t, int64(2), app.count(t))
}

func TestStorageFailureRendersErrorPage(t *testing.T) {
	app := newTestApp(t, flash.NewCookieStore(time.Minute, false))
	b := app.browser(t)
	b.submit("/signup", creds("alice", "pw1"), "/login")

	sqlDB, err := app.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	w := b.post("/login", creds("alice", "pw1"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Something went wrong")
}

func TestRequestIDHeader(t *testing.T) {
	app := newTestApp(t, flash.NewCookieStore(time.Minute, false))
	w := app.browser(t).get("/login")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
