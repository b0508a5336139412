package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hrd-community/hrd-backend/internal/domain"
	"github.com/hrd-community/hrd-backend/internal/repository"
)

type CreatePostInput struct {
	Title      string
	Content    string
	Type       string
	Categories []string
	Tags       []string
	Media      []string
}

type UpdatePostInput struct {
	Title      *string
	Content    *string
	Categories []string
	Tags       []string
	Media      []string
}

// PostService manages community posts. New posts start PENDING and become
// publicly visible only after an admin approves them.
type PostService struct {
	posts repository.PostRepository
}

func NewPostService(posts repository.PostRepository) *PostService {
	return &PostService{posts: posts}
}

func (s *PostService) Create(ctx context.Context, authorID string, in CreatePostInput) (*domain.Post, error) {
	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if title == "" || content == "" {
		return nil, fmt.Errorf("%w: title and content are required", ErrInvalidInput)
	}
	postType := in.Type
	if postType == "" {
		postType = domain.PostTypeText
	}
	switch postType {
	case domain.PostTypeText:
	case domain.PostTypeImage, domain.PostTypeVideo:
		if len(in.Media) == 0 {
			return nil, fmt.Errorf("%w: %s posts require media", ErrInvalidInput, strings.ToLower(postType))
		}
	default:
		return nil, fmt.Errorf("%w: unknown post type %q", ErrInvalidInput, in.Type)
	}

	post := &domain.Post{
		AuthorID:   authorID,
		Title:      title,
		Content:    content,
		Type:       postType,
		Status:     domain.PostStatusPending,
		Categories: in.Categories,
		Tags:       in.Tags,
		Media:      in.Media,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// PublicFeedFilter narrows the public feed. All fields are optional.
type PublicFeedFilter struct {
	Query    string
	Category string
	Tag      string
	Limit    int
	Offset   int
}

// ListPublic returns approved posts only, regardless of caller.
func (s *PostService) ListPublic(ctx context.Context, f PublicFeedFilter) ([]domain.Post, int64, error) {
	return s.posts.List(ctx, repository.PostFilter{
		Status:   domain.PostStatusApproved,
		Category: f.Category,
		Tag:      f.Tag,
		Query:    strings.TrimSpace(f.Query),
		Limit:    f.Limit,
		Offset:   f.Offset,
	})
}

// ListForModeration returns posts in any status for the admin console.
func (s *PostService) ListForModeration(ctx context.Context, status string, limit, offset int) ([]domain.Post, int64, error) {
	if status != "" {
		switch status {
		case domain.PostStatusPending, domain.PostStatusApproved, domain.PostStatusRejected:
		default:
			return nil, 0, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
		}
	}
	return s.posts.List(ctx, repository.PostFilter{Status: status, Limit: limit, Offset: offset})
}

// Get returns a post, hiding unapproved posts from everyone but their author
// and admins.
func (s *PostService) Get(ctx context.Context, id, viewerID string, viewerIsAdmin bool) (*domain.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	if post.Status != domain.PostStatusApproved && post.AuthorID != viewerID && !viewerIsAdmin {
		return nil, ErrPostNotFound
	}
	return post, nil
}

// Update lets the author edit their post. Edits drop the post back to
// PENDING so changed content passes moderation again.
func (s *PostService) Update(ctx context.Context, id, callerID string, callerIsAdmin bool, in UpdatePostInput) (*domain.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	if post.AuthorID != callerID && !callerIsAdmin {
		return nil, ErrForbidden
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
		}
		post.Title = title
	}
	if in.Content != nil {
		content := strings.TrimSpace(*in.Content)
		if content == "" {
			return nil, fmt.Errorf("%w: content cannot be empty", ErrInvalidInput)
		}
		post.Content = content
	}
	if in.Categories != nil {
		post.Categories = in.Categories
	}
	if in.Tags != nil {
		post.Tags = in.Tags
	}
	if in.Media != nil {
		post.Media = in.Media
	}
	if !callerIsAdmin {
		post.Status = domain.PostStatusPending
	}

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return post, nil
}

func (s *PostService) Delete(ctx context.Context, id, callerID string, callerIsAdmin bool) error {
	post, err := s.posts.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrPostNotFound
	}
	if err != nil {
		return err
	}
	if post.AuthorID != callerID && !callerIsAdmin {
		return ErrForbidden
	}
	return s.posts.Delete(ctx, id)
}

// Moderate sets a post's status to APPROVED or REJECTED.
func (s *PostService) Moderate(ctx context.Context, id, status string) (*domain.Post, error) {
	switch status {
	case domain.PostStatusApproved, domain.PostStatusRejected:
	default:
		return nil, fmt.Errorf("%w: moderation status must be APPROVED or REJECTED", ErrInvalidInput)
	}
	post, err := s.posts.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	post.Status = status
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("moderate post: %w", err)
	}
	return post, nil
}
