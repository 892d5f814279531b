// AngelaMos | 2026
// service.go

package post

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/blog-api/internal/core"
	"github.com/carterperez-dev/blog-api/internal/media"
	"github.com/carterperez-dev/blog-api/internal/policy"
)

type Service struct {
	repo  Repository
	store media.Store
}

func NewService(repo Repository, store media.Store) *Service {
	return &Service{
		repo:  repo,
		store: store,
	}
}

// Create is admin only. A denied caller never reaches storage.
func (s *Service) Create(
	ctx context.Context,
	caller policy.Subject,
	req CreatePostRequest,
) (_ *PostResponse, err error) {
	ctx, span := core.StartSpan(ctx, "post.create", callerAttrs(caller)...)
	defer func() { core.EndSpan(span, err) }()

	if err := policy.Authorize(caller, policy.PostCreate, ""); err != nil {
		return nil, err
	}

	post := &Post{
		ID:       s.repo.NewID(),
		Title:    req.Title,
		Content:  req.Content,
		AuthorID: caller.UserID,
		Tags:     ParseTags(req.Tags),
	}

	if req.Image != nil {
		key, err := s.putImage(ctx, post.ID, req.Image)
		if err != nil {
			return nil, err
		}
		post.ImageKey = &key
	}

	if err := s.repo.Create(ctx, post); err != nil {
		s.removeImage(ctx, post.ImageKey)
		return nil, err
	}

	resp := ToPostResponse(post)
	return &resp, nil
}

// List returns every post, or only the caller's when mine is set.
func (s *Service) List(
	ctx context.Context,
	caller policy.Subject,
	mine bool,
) (*PostListResponse, error) {
	if err := policy.Authorize(caller, policy.PostRead, ""); err != nil {
		return nil, err
	}

	var (
		posts []Post
		err   error
	)

	if mine {
		if caller.IsAnonymous() {
			return nil, fmt.Errorf("list own posts: %w", core.ErrUnauthorized)
		}
		posts, err = s.repo.ListByAuthor(ctx, caller.UserID)
	} else {
		posts, err = s.repo.List(ctx)
	}
	if err != nil {
		return nil, err
	}

	resp := ToPostListResponse(posts)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*PostResponse, error) {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := ToPostResponse(post)
	return &resp, nil
}

// Update checks existence, then ownership, then that something changes.
func (s *Service) Update(
	ctx context.Context,
	caller policy.Subject,
	id string,
	req UpdatePostRequest,
) (_ *PostResponse, err error) {
	ctx, span := core.StartSpan(ctx, "post.update",
		append(callerAttrs(caller), attribute.String("post.id", id))...)
	defer func() { core.EndSpan(span, err) }()

	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := policy.Authorize(caller, policy.PostUpdate, post.AuthorID); err != nil {
		return nil, err
	}

	if req.Empty() {
		return nil, fmt.Errorf("update post: %w", core.ErrNoFields)
	}

	if req.Title != nil {
		post.Title = *req.Title
	}
	if req.Content != nil {
		post.Content = *req.Content
	}
	if req.Tags != nil {
		post.Tags = ParseTags(*req.Tags)
	}

	oldImage := post.ImageKey
	if req.Image != nil {
		key, putErr := s.putImage(ctx, post.ID, req.Image)
		if putErr != nil {
			return nil, putErr
		}
		post.ImageKey = &key
	}

	if err := s.repo.Update(ctx, post); err != nil {
		if req.Image != nil {
			s.removeImage(ctx, post.ImageKey)
		}
		return nil, err
	}

	if req.Image != nil {
		s.removeImage(ctx, oldImage)
	}

	resp := ToPostResponse(post)
	return &resp, nil
}

func (s *Service) Delete(
	ctx context.Context,
	caller policy.Subject,
	id string,
) (err error) {
	ctx, span := core.StartSpan(ctx, "post.delete",
		append(callerAttrs(caller), attribute.String("post.id", id))...)
	defer func() { core.EndSpan(span, err) }()

	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := policy.Authorize(caller, policy.PostDelete, post.AuthorID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.removeImage(ctx, post.ImageKey)
	return nil
}

func (s *Service) OpenImage(ctx context.Context, id string) (*media.Object, error) {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !post.HasImage() {
		return nil, fmt.Errorf("post image: %w", core.ErrNotFound)
	}

	return s.store.Get(ctx, *post.ImageKey)
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func (s *Service) putImage(
	ctx context.Context,
	postID string,
	upload *media.Upload,
) (string, error) {
	key := media.NewKey(media.KindPost, postID)
	if err := s.store.Put(ctx, key, upload); err != nil {
		return "", fmt.Errorf("store post image: %w", err)
	}
	return key, nil
}

func (s *Service) removeImage(ctx context.Context, key *string) {
	if key == nil || *key == "" {
		return
	}
	if err := s.store.Delete(ctx, *key); err != nil {
		slog.Warn("post image cleanup failed", "key", *key, "error", err)
	}
}

func callerAttrs(caller policy.Subject) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("caller.id", caller.UserID),
		attribute.String("caller.role", caller.Role),
	}
}
