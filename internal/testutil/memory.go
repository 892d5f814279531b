// AngelaMos | 2026
// memory.go

// Package testutil provides in-memory stand-ins for the stores so services
// and routers can be exercised without Postgres, Mongo, Redis or MinIO.
package testutil

import (
	"bytes"
	"context"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/blog-api/internal/core"
	"github.com/carterperez-dev/blog-api/internal/media"
	"github.com/carterperez-dev/blog-api/internal/post"
	"github.com/carterperez-dev/blog-api/internal/user"
)

type UserRepo struct {
	mu    sync.Mutex
	users map[string]user.User
	order []string
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: map[string]user.User{}}
}

func (r *UserRepo) NewID() string {
	return uuid.New().String()
}

func (r *UserRepo) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == u.Email {
			return core.ErrDuplicateKey
		}
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	u.TokenVersion = 0
	r.users[u.ID] = *u
	r.order = append(r.order, u.ID)
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, core.ErrNotFound
}

func (r *UserRepo) Update(_ context.Context, u *user.User, revoke bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[u.ID]
	if !ok {
		return core.ErrNotFound
	}
	for id, other := range r.users {
		if id != u.ID && other.Email == u.Email {
			return core.ErrDuplicateKey
		}
	}

	u.UpdatedAt = time.Now().UTC()
	u.TokenVersion = existing.TokenVersion
	if revoke {
		u.TokenVersion++
	}
	r.users[u.ID] = *u
	return nil
}

func (r *UserRepo) UpdatePassword(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return core.ErrNotFound
	}
	u.PasswordHash = hash
	r.users[id] = u
	return nil
}

func (r *UserRepo) IncrementTokenVersion(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return core.ErrNotFound
	}
	u.TokenVersion++
	r.users[id] = u
	return nil
}

func (r *UserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return core.ErrNotFound
	}
	delete(r.users, id)
	r.order = slices.DeleteFunc(r.order, func(v string) bool { return v == id })
	return nil
}

func (r *UserRepo) List(_ context.Context) ([]user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := make([]user.User, 0, len(r.order))
	for _, id := range r.order {
		users = append(users, r.users[id])
	}
	return users, nil
}

func (r *UserRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if err != nil {
		return false, nil
	}
	return true, nil
}

type PostRepo struct {
	mu    sync.Mutex
	posts map[string]post.Post
	order []string
}

func NewPostRepo() *PostRepo {
	return &PostRepo{posts: map[string]post.Post{}}
}

func (r *PostRepo) NewID() string {
	return uuid.New().String()
}

func (r *PostRepo) Create(_ context.Context, p *post.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.posts[p.ID] = *p
	r.order = append(r.order, p.ID)
	return nil
}

func (r *PostRepo) GetByID(_ context.Context, id string) (*post.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &p, nil
}

func (r *PostRepo) List(_ context.Context) ([]post.Post, error) {
	return r.filter(func(post.Post) bool { return true }), nil
}

func (r *PostRepo) ListByAuthor(_ context.Context, authorID string) ([]post.Post, error) {
	return r.filter(func(p post.Post) bool { return p.AuthorID == authorID }), nil
}

func (r *PostRepo) filter(keep func(post.Post) bool) []post.Post {
	r.mu.Lock()
	defer r.mu.Unlock()

	posts := []post.Post{}
	for i := len(r.order) - 1; i >= 0; i-- {
		if p := r.posts[r.order[i]]; keep(p) {
			posts = append(posts, p)
		}
	}
	return posts
}

func (r *PostRepo) Update(_ context.Context, p *post.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[p.ID]; !ok {
		return core.ErrNotFound
	}
	p.UpdatedAt = time.Now().UTC().Add(time.Millisecond)
	r.posts[p.ID] = *p
	return nil
}

func (r *PostRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[id]; !ok {
		return core.ErrNotFound
	}
	delete(r.posts, id)
	r.order = slices.DeleteFunc(r.order, func(v string) bool { return v == id })
	return nil
}

func (r *PostRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.posts)), nil
}

type storedObject struct {
	data        []byte
	contentType string
}

// ObjectStore is a media.Store held in memory.
type ObjectStore struct {
	mu      sync.Mutex
	objects map[string]storedObject
}

func NewObjectStore() *ObjectStore {
	return &ObjectStore{objects: map[string]storedObject{}}
}

func (s *ObjectStore) Put(_ context.Context, key string, upload *media.Upload) error {
	data, err := io.ReadAll(upload.Reader())
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = storedObject{data: data, contentType: upload.ContentType}
	return nil
}

func (s *ObjectStore) Get(_ context.Context, key string) (*media.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &media.Object{
		Body:        io.NopCloser(bytes.NewReader(obj.data)),
		Size:        int64(len(obj.data)),
		ContentType: obj.contentType,
	}, nil
}

func (s *ObjectStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *ObjectStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

func (s *ObjectStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

type Denylist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewDenylist() *Denylist {
	return &Denylist{revoked: map[string]time.Time{}}
}

func (d *Denylist) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.revoked[tokenID] = expiresAt
	return nil
}

func (d *Denylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.revoked[tokenID]
	return ok, nil
}

// PNG is the smallest valid PNG, enough for content sniffing.
var PNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4,
	0x89, 0x00, 0x00, 0x00, 0x0d, 0x49, 0x44, 0x41,
	0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00,
	0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae,
	0x42, 0x60, 0x82,
}
