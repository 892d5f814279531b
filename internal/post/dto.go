// AngelaMos | 2026
// dto.go

package post

import (
	"time"

	"github.com/carterperez-dev/blog-api/internal/media"
)

type CreatePostRequest struct {
	Title   string `validate:"required,min=1,max=200"`
	Content string `validate:"required"`
	Tags    string `validate:"omitempty,max=1000"`
	Image   *media.Upload
}

// UpdatePostRequest is a partial update. Nil fields are left alone.
type UpdatePostRequest struct {
	Title   *string `validate:"omitempty,min=1,max=200"`
	Content *string `validate:"omitempty,min=1"`
	Tags    *string `validate:"omitempty,max=1000"`
	Image   *media.Upload
}

func (r UpdatePostRequest) Empty() bool {
	return r.Title == nil && r.Content == nil && r.Tags == nil && r.Image == nil
}

type PostResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AuthorID  string    `json:"author_id"`
	Tags      []string  `json:"tags"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PostListResponse struct {
	Posts []PostResponse `json:"posts"`
	Total int            `json:"total"`
}

func ToPostResponse(p *Post) PostResponse {
	tags := []string(p.Tags)
	if tags == nil {
		tags = []string{}
	}

	resp := PostResponse{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		AuthorID:  p.AuthorID,
		Tags:      tags,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.HasImage() {
		resp.ImageURL = media.ImageURL(media.KindPost, p.ID)
	}
	return resp
}

func ToPostListResponse(posts []Post) PostListResponse {
	responses := make([]PostResponse, 0, len(posts))
	for i := range posts {
		responses = append(responses, ToPostResponse(&posts[i]))
	}
	return PostListResponse{Posts: responses, Total: len(responses)}
}
