package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/swing-festival-finder/internal/auth"
	"github.com/iliyamo/swing-festival-finder/internal/middleware"
	"github.com/iliyamo/swing-festival-finder/internal/model"
	"github.com/iliyamo/swing-festival-finder/internal/queue"
	"github.com/iliyamo/swing-festival-finder/internal/repository"
)

type fakeUsers struct {
	byID map[uint64]*model.User
}

func newFakeUsers() *fakeUsers { return &fakeUsers{byID: map[uint64]*model.User{}} }

func (f *fakeUsers) Create(_ context.Context, email, name, password string, cost int) (model.User, error) {
	email = repository.NormalizeEmail(email)
	for _, u := range f.byID {
		if u.Email == email {
			return model.User{}, repository.ErrEmailExists
		}
	}
	hash, err := auth.HashPassword(password, cost)
	if err != nil {
		return model.User{}, err
	}
	u := &model.User{ID: uint64(len(f.byID) + 1), Email: email, Name: name, PasswordHash: hash}
	f.byID[u.ID] = u
	return *u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	email = repository.NormalizeEmail(email)
	for _, u := range f.byID {
		if u.Email == email {
			return *u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	if u, ok := f.byID[id]; ok {
		return *u, nil
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUsers) MarkVerified(_ context.Context, id uint64) error {
	if u, ok := f.byID[id]; ok && u.EmailVerifiedAt == nil {
		now := time.Now().UTC()
		u.EmailVerifiedAt = &now
	}
	return nil
}

type storedToken struct {
	userID  uint64
	exp     time.Time
	revoked bool
}

type fakeTokens struct {
	refresh map[string]*storedToken
	verify  map[string]*storedToken
	// staleReads makes ValidateRefresh ignore revocation, like a read that
	// raced with another request's revoke.
	staleReads bool
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{refresh: map[string]*storedToken{}, verify: map[string]*storedToken{}}
}

func (f *fakeTokens) StoreRefresh(_ context.Context, userID uint64, hash string, exp time.Time) error {
	f.refresh[hash] = &storedToken{userID: userID, exp: exp}
	return nil
}

func (f *fakeTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	t, ok := f.refresh[hash]
	if !ok || (t.revoked && !f.staleReads) || time.Now().After(t.exp) {
		return 0, repository.ErrNotFound
	}
	return t.userID, nil
}

func (f *fakeTokens) RevokeByHash(_ context.Context, hash string) error {
	t, ok := f.refresh[hash]
	if !ok || t.revoked {
		return repository.ErrNotFound
	}
	t.revoked = true
	return nil
}

func (f *fakeTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	for _, t := range f.refresh {
		if t.userID == userID {
			t.revoked = true
		}
	}
	return nil
}

func (f *fakeTokens) StoreVerification(_ context.Context, userID uint64, hash string, exp time.Time) error {
	f.verify[hash] = &storedToken{userID: userID, exp: exp}
	return nil
}

func (f *fakeTokens) ConsumeVerification(_ context.Context, hash string) (uint64, error) {
	t, ok := f.verify[hash]
	if !ok || t.revoked || time.Now().After(t.exp) {
		return 0, repository.ErrNotFound
	}
	t.revoked = true
	return t.userID, nil
}

type authFixture struct {
	h      *AuthHandler
	users  *fakeUsers
	tokens *fakeTokens
	pub    *fakePublisher
}

func newAuthFixture() authFixture {
	f := authFixture{users: newFakeUsers(), tokens: newFakeTokens(), pub: &fakePublisher{}}
	f.h = &AuthHandler{
		Users:      f.users,
		Tokens:     f.tokens,
		Access:     issuer,
		Queue:      f.pub,
		Log:        zap.NewNop(),
		BcryptCost: bcrypt.MinCost,
		RefreshTTL: time.Hour,
		VerifyTTL:  time.Hour,
	}
	return f
}

func (f authFixture) routes() *echo.Echo {
	e := newEcho()
	e.POST("/api/auth/register", f.h.Register)
	e.POST("/api/auth/login", f.h.Login)
	e.POST("/api/auth/refresh", f.h.Refresh)
	e.POST("/api/auth/logout", f.h.Logout)
	e.POST("/api/auth/verify", f.h.Verify)
	e.GET("/api/auth/session", f.h.Session, middleware.OptionalAuth(issuer))
	return e
}

func TestRegisterIssuesPairAndQueuesVerification(t *testing.T) {
	f := newAuthFixture()
	e := f.routes()

	rec := call(e, http.MethodPost, "/api/auth/register",
		`{"email":" Frankie@Example.com ","password":"shim-sham-1","name":"Frankie"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body authResp
	decode(t, rec, &body)
	assert.Equal(t, "frankie@example.com", body.User.Email)
	assert.False(t, body.User.Verified)
	assert.NotEmpty(t, body.Access.Token)
	require.NotNil(t, body.Refresh)
	assert.Len(t, body.Refresh.Raw, 96)
	assert.Contains(t, f.tokens.refresh, auth.HashToken(body.Refresh.Raw))

	require.Len(t, f.pub.sent, 1)
	assert.Equal(t, queue.VerificationRequestedQueue, f.pub.sent[0].queue)
	msg := f.pub.sent[0].msg.(queue.VerificationRequested)
	assert.Equal(t, "frankie@example.com", msg.Email)
	assert.Contains(t, f.tokens.verify, auth.HashToken(msg.Token))
}

func TestRegisterValidation(t *testing.T) {
	f := newAuthFixture()
	e := f.routes()

	rec := call(e, http.MethodPost, "/api/auth/register", `{"email":"nope","password":"longenough"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email: must be a valid e-mail address", decode(t, rec, nil).Error)

	rec = call(e, http.MethodPost, "/api/auth/register", `{"email":"a@b.c","password":"short"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.Equal(t, http.StatusCreated, call(e, http.MethodPost, "/api/auth/register", `{"email":"a@b.c","password":"longenough"}`, "").Code)
	rec = call(e, http.MethodPost, "/api/auth/register", `{"email":"A@B.C","password":"longenough"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogin(t *testing.T) {
	f := newAuthFixture()
	e := f.routes()
	_, err := f.users.Create(context.Background(), "norma@example.com", "Norma", "big-apple-37", bcrypt.MinCost)
	require.NoError(t, err)

	rec := call(e, http.MethodPost, "/api/auth/login", `{"email":"NORMA@example.com","password":"big-apple-37"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body authResp
	decode(t, rec, &body)
	s, err := issuer.Parse(body.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, "norma@example.com", s.User.Email)

	for _, b := range []string{
		`{"email":"norma@example.com","password":"wrong-password"}`,
		`{"email":"ghost@example.com","password":"big-apple-37"}`,
	} {
		rec := call(e, http.MethodPost, "/api/auth/login", b, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "invalid credentials", decode(t, rec, nil).Error)
	}
	assert.Equal(t, http.StatusBadRequest, call(e, http.MethodPost, "/api/auth/login", `{}`, "").Code)
}

func TestRefreshRotatesToken(t *testing.T) {
	f := newAuthFixture()
	e := f.routes()

	var reg authResp
	decode(t, call(e, http.MethodPost, "/api/auth/register", `{"email":"al@example.com","password":"minsky-hop"}`, ""), &reg)
	old := reg.Refresh.Raw

	rec := call(e, http.MethodPost, "/api/auth/refresh", `{"refreshToken":"`+old+`"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var next authResp
	decode(t, rec, &next)
	require.NotNil(t, next.Refresh)
	assert.NotEqual(t, old, next.Refresh.Raw)

	rec = call(e, http.MethodPost, "/api/auth/refresh", `{"refreshToken":"`+old+`"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, http.StatusBadRequest, call(e, http.MethodPost, "/api/auth/refresh", `{}`, "").Code)
}

func TestRefreshConcurrentReuseIsRejected(t *testing.T) {
	f := newAuthFixture()
	e := f.routes()

	var reg authResp
	decode(t, call(e, http.MethodPost, "/api/auth/register", `{"email":"leon@example.com","password":"jams-1935"}`, ""), &reg)
	body := `{"refreshToken":"` + reg.Refresh.Raw + `"}`

	f.tokens.staleReads = true
	require.Equal(t, http.StatusOK, call(e, http.MethodPost, "/api/auth/refresh", body, "").Code)

	rec := call(e, http.MethodPost, "/api/auth/refresh", body, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid refresh token", decode(t, rec, nil).Error)
	assert.Len(t, f.tokens.refresh, 2)
}

func TestLogout(t *testing.T) {
	f := newAuthFixture()
	e := f.routes()

	var reg authResp
	decode(t, call(e, http.MethodPost, "/api/auth/register", `{"email":"dean@example.com","password":"collins-1"}`, ""), &reg)

	rec := call(e, http.MethodPost, "/api/auth/logout", `{"refreshToken":"`+reg.Refresh.Raw+`"}`, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, f.tokens.refresh[auth.HashToken(reg.Refresh.Raw)].revoked)

	var login authResp
	decode(t, call(e, http.MethodPost, "/api/auth/login", `{"email":"dean@example.com","password":"collins-1"}`, ""), &login)
	rec = call(e, http.MethodPost, "/api/auth/logout", "", login.Access.Token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, f.tokens.refresh[auth.HashToken(login.Refresh.Raw)].revoked)

	assert.Equal(t, http.StatusBadRequest, call(e, http.MethodPost, "/api/auth/logout", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(e, http.MethodPost, "/api/auth/logout", "", "garbage").Code)
}

func TestVerifyMarksUserVerified(t *testing.T) {
	f := newAuthFixture()
	e := f.routes()
	require.Equal(t, http.StatusCreated,
		call(e, http.MethodPost, "/api/auth/register", `{"email":"ella@example.com","password":"a-tisket-a"}`, "").Code)
	raw := f.pub.sent[0].msg.(queue.VerificationRequested).Token

	rec := call(e, http.MethodPost, "/api/auth/verify", `{"token":"`+raw+`"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body authResp
	decode(t, rec, &body)
	assert.True(t, body.User.Verified)
	assert.Nil(t, body.Refresh)
	s, err := issuer.Parse(body.Access.Token)
	require.NoError(t, err)
	assert.True(t, s.User.Verified)

	rec = call(e, http.MethodPost, "/api/auth/verify", `{"token":"`+raw+`"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "token: is invalid or expired", decode(t, rec, nil).Error)
}

func TestSession(t *testing.T) {
	f := newAuthFixture()
	e := f.routes()

	rec := call(e, http.MethodGet, "/api/auth/session", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", string(decode(t, rec, nil).Data))

	rec = call(e, http.MethodGet, "/api/auth/session", "", "expired-or-forged")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", string(decode(t, rec, nil).Data))

	var s model.Session
	decode(t, call(e, http.MethodGet, "/api/auth/session", "", tokenFor(t, 42, true)), &s)
	assert.Equal(t, uint64(42), s.User.ID)
	assert.True(t, s.User.Verified)
}
