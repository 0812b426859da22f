// internal/domain/models/post.go
package models

import (
	"time"
)

// Post is a piece of content under exactly one topic. Its lifecycle is
// owned by the topic: deleting the topic removes every post with it.
type Post struct {
	ID      string `bson:"_id,omitempty" json:"id"`
	TopicID string `bson:"topic_id" json:"topic_id"`

	Title   string `bson:"title" json:"title"`
	Content string `bson:"content,omitempty" json:"content,omitempty"`

	Author     string `bson:"author" json:"author"`
	AuthorName string `bson:"-" json:"author_name,omitempty"` // resolved at read time, never stored

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
