package service

import (
	"context"
	"sync"

	"socialnet/internal/model"
	"socialnet/internal/worker"
)

// =============================================================================
// MOCK REPOSITORIES
// =============================================================================
//
// Each mock implements the repository interface with optional function fields.
// A nil field falls back to a neutral default so tests only stub what they use.

type mockUserRepository struct {
	createFn         func(ctx context.Context, user *model.User) error
	getByIDFn        func(ctx context.Context, id int64) (*model.User, error)
	getByEmailFn     func(ctx context.Context, email string) (*model.User, error)
	existsByEmailFn  func(ctx context.Context, email string) (bool, error)
	updatePasswordFn func(ctx context.Context, id int64, hash string) error
	updateProfileFn  func(ctx context.Context, id int64, changes model.ProfileChanges) (*model.User, error)
	deleteCascadeFn  func(ctx context.Context, id int64) (*model.DeletedUser, error)

	// Track calls for assertions
	createCalls []*model.User
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	m.createCalls = append(m.createCalls, user)
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.existsByEmailFn != nil {
		return m.existsByEmailFn(ctx, email)
	}
	return false, nil
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	if m.updatePasswordFn != nil {
		return m.updatePasswordFn(ctx, id, hash)
	}
	return nil
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, id int64, changes model.ProfileChanges) (*model.User, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, id, changes)
	}
	return &model.User{ID: id}, nil
}

func (m *mockUserRepository) DeleteCascade(ctx context.Context, id int64) (*model.DeletedUser, error) {
	if m.deleteCascadeFn != nil {
		return m.deleteCascadeFn(ctx, id)
	}
	return &model.DeletedUser{ID: id}, nil
}

// mockGraphRepository keeps edges and blocks in memory, mirroring the SQL semantics.
type mockGraphRepository struct {
	mu      sync.Mutex
	follows map[[2]int64]bool
	blocks  map[[2]int64]model.Block
	err     error

	unblockPolicies []model.UnblockPolicy
	names           map[int64]string
}

func newMockGraph() *mockGraphRepository {
	return &mockGraphRepository{
		follows: map[[2]int64]bool{},
		blocks:  map[[2]int64]model.Block{},
		names:   map[int64]string{},
	}
}

func (m *mockGraphRepository) Follow(_ context.Context, followerID, followeeID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	key := [2]int64{followerID, followeeID}
	if m.follows[key] {
		return false, nil
	}
	m.follows[key] = true
	return true, nil
}

func (m *mockGraphRepository) Unfollow(_ context.Context, followerID, followeeID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	key := [2]int64{followerID, followeeID}
	if !m.follows[key] {
		return false, nil
	}
	delete(m.follows, key)
	return true, nil
}

func (m *mockGraphRepository) Block(_ context.Context, blockerID, blockedID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	key := [2]int64{blockerID, blockedID}
	if _, ok := m.blocks[key]; ok {
		return false, nil
	}
	incoming := [2]int64{blockedID, blockerID}
	m.blocks[key] = model.Block{
		BlockerID:       blockerID,
		BlockedID:       blockedID,
		SeveredIncoming: m.follows[incoming],
		SeveredOutgoing: m.follows[key],
	}
	delete(m.follows, key)
	delete(m.follows, incoming)
	return true, nil
}

func (m *mockGraphRepository) Unblock(_ context.Context, blockerID, blockedID int64, policy model.UnblockPolicy) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unblockPolicies = append(m.unblockPolicies, policy)
	if m.err != nil {
		return false, m.err
	}
	key := [2]int64{blockerID, blockedID}
	block, ok := m.blocks[key]
	if !ok {
		return false, nil
	}
	delete(m.blocks, key)
	for _, edge := range block.RestoredEdges(policy) {
		m.follows[[2]int64{edge.FollowerID, edge.FolloweeID}] = true
	}
	return true, nil
}

func (m *mockGraphRepository) Followers(_ context.Context, userID int64) ([]model.UserSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.UserSummary{}
	for edge := range m.follows {
		if edge[1] == userID {
			out = append(out, model.UserSummary{ID: edge[0], UserName: m.names[edge[0]]})
		}
	}
	return out, m.err
}

func (m *mockGraphRepository) Following(_ context.Context, userID int64) ([]model.UserSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.UserSummary{}
	for edge := range m.follows {
		if edge[0] == userID {
			out = append(out, model.UserSummary{ID: edge[1], UserName: m.names[edge[1]]})
		}
	}
	return out, m.err
}

func (m *mockGraphRepository) Blocked(_ context.Context, userID int64) ([]model.UserSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.UserSummary{}
	for key := range m.blocks {
		if key[0] == userID {
			out = append(out, model.UserSummary{ID: key[1], UserName: m.names[key[1]]})
		}
	}
	return out, m.err
}

func (m *mockGraphRepository) isFollowing(followerID, followeeID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.follows[[2]int64{followerID, followeeID}]
}

type mockPostRepository struct {
	createFn     func(ctx context.Context, post *model.Post) error
	getByIDFn    func(ctx context.Context, postID int64) (*model.Post, error)
	updateFn     func(ctx context.Context, postID int64, changes model.PostChanges) error
	deleteFn     func(ctx context.Context, postID int64) error
	toggleLikeFn func(ctx context.Context, postID, userID int64) (bool, error)
	timelineFn   func(ctx context.Context, userID int64, q model.TimelineQuery) ([]model.Post, error)

	deleteCalls []int64
}

func (m *mockPostRepository) Create(ctx context.Context, post *model.Post) error {
	if m.createFn != nil {
		return m.createFn(ctx, post)
	}
	return nil
}

func (m *mockPostRepository) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, postID)
	}
	return nil, model.ErrPostNotFound
}

func (m *mockPostRepository) Update(ctx context.Context, postID int64, changes model.PostChanges) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, postID, changes)
	}
	return nil
}

func (m *mockPostRepository) Delete(ctx context.Context, postID int64) error {
	m.deleteCalls = append(m.deleteCalls, postID)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, postID)
	}
	return nil
}

func (m *mockPostRepository) ToggleLike(ctx context.Context, postID, userID int64) (bool, error) {
	if m.toggleLikeFn != nil {
		return m.toggleLikeFn(ctx, postID, userID)
	}
	return true, nil
}

func (m *mockPostRepository) Timeline(ctx context.Context, userID int64, q model.TimelineQuery) ([]model.Post, error) {
	if m.timelineFn != nil {
		return m.timelineFn(ctx, userID, q)
	}
	return []model.Post{}, nil
}

type mockCommentRepository struct {
	createFn        func(ctx context.Context, c *model.Comment) error
	getByIDFn       func(ctx context.Context, commentID int64) (*model.Comment, error)
	updateFn        func(ctx context.Context, commentID int64, text string) error
	deleteFn        func(ctx context.Context, commentID int64) error
	toggleLikeFn    func(ctx context.Context, commentID, userID int64) (bool, error)
	listByPostIDsFn func(ctx context.Context, postIDs []int64) (map[int64][]model.Comment, error)
	listByCreatorFn func(ctx context.Context, userID int64) ([]model.Comment, error)

	deleteCalls []int64
}

func (m *mockCommentRepository) Create(ctx context.Context, c *model.Comment) error {
	if m.createFn != nil {
		return m.createFn(ctx, c)
	}
	return nil
}

func (m *mockCommentRepository) GetByID(ctx context.Context, commentID int64) (*model.Comment, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, commentID)
	}
	return nil, model.ErrCommentNotFound
}

func (m *mockCommentRepository) Update(ctx context.Context, commentID int64, text string) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, commentID, text)
	}
	return nil
}

func (m *mockCommentRepository) Delete(ctx context.Context, commentID int64) error {
	m.deleteCalls = append(m.deleteCalls, commentID)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, commentID)
	}
	return nil
}

func (m *mockCommentRepository) ToggleLike(ctx context.Context, commentID, userID int64) (bool, error) {
	if m.toggleLikeFn != nil {
		return m.toggleLikeFn(ctx, commentID, userID)
	}
	return true, nil
}

func (m *mockCommentRepository) ListByPostIDs(ctx context.Context, postIDs []int64) (map[int64][]model.Comment, error) {
	if m.listByPostIDsFn != nil {
		return m.listByPostIDsFn(ctx, postIDs)
	}
	return map[int64][]model.Comment{}, nil
}

func (m *mockCommentRepository) ListByCreator(ctx context.Context, userID int64) ([]model.Comment, error) {
	if m.listByCreatorFn != nil {
		return m.listByCreatorFn(ctx, userID)
	}
	return []model.Comment{}, nil
}

// =============================================================================
// MEDIA FAKES
// =============================================================================

type fakeMedia struct {
	ingestFn  func(ctx context.Context, kind model.ImageKind, src *model.ImageSource) (*model.UploadResult, error)
	publicURL string

	ingested []model.ImageKind
}

func (f *fakeMedia) Ingest(ctx context.Context, kind model.ImageKind, src *model.ImageSource) (*model.UploadResult, error) {
	f.ingested = append(f.ingested, kind)
	if f.ingestFn != nil {
		return f.ingestFn(ctx, kind, src)
	}
	key := kind.Folder() + "/new.jpg"
	return &model.UploadResult{URL: "https://cdn.test/" + key, Key: key}, nil
}

func (f *fakeMedia) Delete(context.Context, string) error { return nil }

func (f *fakeMedia) KeyFromURL(url string) string {
	prefix := "https://cdn.test/"
	if len(url) > len(prefix) && url[:len(prefix)] == prefix {
		return url[len(prefix):]
	}
	return ""
}

type fakeCleaner struct {
	jobs []worker.CleanupJob
}

func (f *fakeCleaner) Enqueue(job worker.CleanupJob) {
	f.jobs = append(f.jobs, job)
}

func (f *fakeCleaner) keys() []string {
	var out []string
	for _, j := range f.jobs {
		out = append(out, j.Keys...)
	}
	return out
}
