package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"socialnet/internal/model"
	"socialnet/internal/transport/http/middleware"
)

var (
	alice = model.Identity{UserID: 1}
	admin = model.Identity{UserID: 99, IsAdmin: true}

	testSession = model.Session{TokenID: "jti-1", ExpiresAt: time.Now().Add(time.Hour)}
)

type request struct {
	method  string
	pattern string
	target  string
	body    string
	actor   *model.Identity
	header  map[string]string
}

// serve routes a single request through chi so URL params resolve as in production.
func serve(t *testing.T, h http.HandlerFunc, req request) *httptest.ResponseRecorder {
	t.Helper()

	router := chi.NewRouter()
	router.Method(req.method, req.pattern, h)

	var body io.Reader
	if req.body != "" {
		body = strings.NewReader(req.body)
	}
	r := httptest.NewRequest(req.method, req.target, body)
	if req.body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.header {
		r.Header.Set(k, v)
	}
	if req.actor != nil {
		r = r.WithContext(middleware.WithIdentity(r.Context(), *req.actor, testSession))
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, r)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func nopLogger() *zap.Logger { return zap.NewNop() }

// --- fakes ---

type fakeAccounts struct {
	register       func(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
	login          func(ctx context.Context, req *model.LoginRequest) (*model.User, error)
	changePassword func(ctx context.Context, userID int64, req *model.ChangePasswordRequest) error
}

func (f *fakeAccounts) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	return f.register(ctx, req)
}

func (f *fakeAccounts) Login(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	return f.login(ctx, req)
}

func (f *fakeAccounts) ChangePassword(ctx context.Context, userID int64, req *model.ChangePasswordRequest) error {
	return f.changePassword(ctx, userID, req)
}

type fakeSessions struct {
	revoked   []model.Session
	revokeErr error
}

func (f *fakeSessions) IssueToken(userID int64) (string, model.Session, error) {
	return "signed-token", testSession, nil
}

func (f *fakeSessions) Revoke(_ context.Context, session model.Session) error {
	if f.revokeErr != nil {
		return f.revokeErr
	}
	f.revoked = append(f.revoked, session)
	return nil
}

type fakeProfiles struct {
	getProfile    func(ctx context.Context, viewer model.Identity, id int64) (*model.Profile, error)
	updateProfile func(ctx context.Context, actor model.Identity, targetID int64, req *model.UpdateProfileRequest) (*model.User, error)
	delete        func(ctx context.Context, actor model.Identity, targetID int64) error
}

func (f *fakeProfiles) GetProfile(ctx context.Context, viewer model.Identity, id int64) (*model.Profile, error) {
	return f.getProfile(ctx, viewer, id)
}

func (f *fakeProfiles) UpdateProfile(ctx context.Context, actor model.Identity, targetID int64, req *model.UpdateProfileRequest) (*model.User, error) {
	return f.updateProfile(ctx, actor, targetID, req)
}

func (f *fakeProfiles) Delete(ctx context.Context, actor model.Identity, targetID int64) error {
	return f.delete(ctx, actor, targetID)
}

// fakeGraph fails every operation with err and lists blocked.
type fakeGraph struct {
	err     error
	blocked []model.UserSummary
	calls   []string
}

func (f *fakeGraph) record(op string) error {
	f.calls = append(f.calls, op)
	return f.err
}

func (f *fakeGraph) Follow(context.Context, model.Identity, int64) error   { return f.record("follow") }
func (f *fakeGraph) Unfollow(context.Context, model.Identity, int64) error { return f.record("unfollow") }
func (f *fakeGraph) Block(context.Context, model.Identity, int64) error    { return f.record("block") }
func (f *fakeGraph) Unblock(context.Context, model.Identity, int64) error  { return f.record("unblock") }

func (f *fakeGraph) BlockedUsers(context.Context, model.Identity) ([]model.UserSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.blocked, nil
}

type fakePosts struct {
	create     func(ctx context.Context, actor model.Identity, req *model.CreatePostRequest) (*model.Post, error)
	update     func(ctx context.Context, actor model.Identity, postID int64, req *model.UpdatePostRequest) (*model.Post, error)
	toggleLike func(ctx context.Context, actor model.Identity, postID int64) (*model.Post, bool, error)
	delete     func(ctx context.Context, actor model.Identity, postID int64) error
	timeline   func(ctx context.Context, actor model.Identity, q model.TimelineQuery) ([]model.Post, error)
	getOne     func(ctx context.Context, postID int64) (*model.Post, error)
}

func (f *fakePosts) Create(ctx context.Context, actor model.Identity, req *model.CreatePostRequest) (*model.Post, error) {
	return f.create(ctx, actor, req)
}

func (f *fakePosts) Update(ctx context.Context, actor model.Identity, postID int64, req *model.UpdatePostRequest) (*model.Post, error) {
	return f.update(ctx, actor, postID, req)
}

func (f *fakePosts) ToggleLike(ctx context.Context, actor model.Identity, postID int64) (*model.Post, bool, error) {
	return f.toggleLike(ctx, actor, postID)
}

func (f *fakePosts) Delete(ctx context.Context, actor model.Identity, postID int64) error {
	return f.delete(ctx, actor, postID)
}

func (f *fakePosts) Timeline(ctx context.Context, actor model.Identity, q model.TimelineQuery) ([]model.Post, error) {
	return f.timeline(ctx, actor, q)
}

func (f *fakePosts) GetOne(ctx context.Context, postID int64) (*model.Post, error) {
	return f.getOne(ctx, postID)
}

type fakeComments struct {
	create      func(ctx context.Context, actor model.Identity, postID int64, text string) (*model.Comment, error)
	update      func(ctx context.Context, actor model.Identity, postID, commentID int64, text string) (*model.Comment, error)
	toggleLike  func(ctx context.Context, actor model.Identity, postID, commentID int64) (*model.Comment, bool, error)
	delete      func(ctx context.Context, actor model.Identity, postID, commentID int64) error
	listForUser func(ctx context.Context, viewer model.Identity, userID int64) ([]model.Comment, error)
}

func (f *fakeComments) Create(ctx context.Context, actor model.Identity, postID int64, text string) (*model.Comment, error) {
	return f.create(ctx, actor, postID, text)
}

func (f *fakeComments) Update(ctx context.Context, actor model.Identity, postID, commentID int64, text string) (*model.Comment, error) {
	return f.update(ctx, actor, postID, commentID, text)
}

func (f *fakeComments) ToggleLike(ctx context.Context, actor model.Identity, postID, commentID int64) (*model.Comment, bool, error) {
	return f.toggleLike(ctx, actor, postID, commentID)
}

func (f *fakeComments) Delete(ctx context.Context, actor model.Identity, postID, commentID int64) error {
	return f.delete(ctx, actor, postID, commentID)
}

func (f *fakeComments) ListForUser(ctx context.Context, viewer model.Identity, userID int64) ([]model.Comment, error) {
	return f.listForUser(ctx, viewer, userID)
}
