// AngelaMos | 2026
// entity.go

package post

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Post struct {
	ID        string    `db:"id"`
	Title     string    `db:"title"`
	Content   string    `db:"content"`
	AuthorID  string    `db:"author_id"`
	Tags      Tags      `db:"tags"`
	ImageKey  *string   `db:"image_key"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (p *Post) HasImage() bool {
	return p.ImageKey != nil && *p.ImageKey != ""
}

// Tags is an ordered tag list stored as a JSONB array.
type Tags []string

func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

func (t *Tags) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*t = Tags{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan tags: unsupported type %T", src)
	}

	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return fmt.Errorf("scan tags: %w", err)
	}
	if tags == nil {
		tags = []string{}
	}
	*t = tags
	return nil
}

// ParseTags splits a comma separated list, trimming each entry and dropping
// empty ones. Order is preserved.
func ParseTags(raw string) Tags {
	tags := Tags{}
	for _, part := range strings.Split(raw, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
