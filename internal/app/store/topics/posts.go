// internal/app/store/topics/posts.go
package topicstore

import (
	"context"
	"errors"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/linlinlin97264/topic-manage/internal/app/policy/topicpolicy"
	"github.com/linlinlin97264/topic-manage/internal/app/store/docstore"
	"github.com/linlinlin97264/topic-manage/internal/app/system/apperror"
	"github.com/linlinlin97264/topic-manage/internal/app/system/htmlsanitize"
	"github.com/linlinlin97264/topic-manage/internal/app/system/limits"
	"github.com/linlinlin97264/topic-manage/internal/app/system/normalize"
	"github.com/linlinlin97264/topic-manage/internal/domain/models"
)

// AddPost creates a post under a topic. Owners and editors may post;
// readers cannot. Posts do not participate in the topic's version.
func (s *Store) AddPost(ctx context.Context, uid, topicID, title, content string) (models.Post, error) {
	if uid == "" {
		return models.Post{}, apperror.Unauthenticated()
	}
	t, err := s.load(ctx, topicID)
	if err != nil {
		return models.Post{}, err
	}
	if !topicpolicy.CanEdit(t, uid) {
		return models.Post{}, apperror.PermissionDenied("you cannot post to this topic")
	}
	title = normalize.Name(title)
	if err := validatePost(title, content); err != nil {
		return models.Post{}, err
	}

	p := models.Post{
		ID:        s.ds.NewID(),
		TopicID:   topicID,
		Title:     title,
		Content:   htmlsanitize.Sanitize(content),
		Author:    uid,
		CreatedAt: time.Now().UTC(),
	}
	fields, err := docstore.FieldsOf(p)
	if err != nil {
		return models.Post{}, apperror.Transport(err)
	}
	if err := s.ds.Put(ctx, postPath(topicID, p.ID), fields); err != nil {
		return models.Post{}, apperror.Transport(err)
	}
	p.AuthorName = s.users.DisplayName(ctx, uid)
	return p, nil
}

// EditPost rewrites a post's title and content. The author may edit
// their own post; the topic owner may edit any post.
func (s *Store) EditPost(ctx context.Context, uid, topicID, postID, title, content string) (models.Post, error) {
	if uid == "" {
		return models.Post{}, apperror.Unauthenticated()
	}
	t, err := s.load(ctx, topicID)
	if err != nil {
		return models.Post{}, err
	}
	if !topicpolicy.CanAccess(t, uid) {
		return models.Post{}, apperror.PermissionDenied("you do not have access to this topic")
	}
	p, err := s.loadPost(ctx, topicID, postID)
	if err != nil {
		return models.Post{}, err
	}
	if p.Author != uid && !topicpolicy.IsOwner(t, uid) {
		return models.Post{}, apperror.PermissionDenied("you cannot edit this post")
	}
	title = normalize.Name(title)
	if err := validatePost(title, content); err != nil {
		return models.Post{}, err
	}

	p.Title = title
	p.Content = htmlsanitize.Sanitize(content)
	err = s.ds.Update(ctx, postPath(topicID, postID), docstore.Fields{
		"title":   p.Title,
		"content": p.Content,
	})
	if err != nil {
		if errors.Is(err, docstore.ErrNoDocument) {
			return models.Post{}, apperror.NotFound("post", postID)
		}
		return models.Post{}, apperror.Transport(err)
	}
	p.AuthorName = s.users.DisplayName(ctx, p.Author)
	return p, nil
}

// RemovePost deletes a post. The author may remove their own post; the
// topic owner may remove any post.
func (s *Store) RemovePost(ctx context.Context, uid, topicID, postID string) error {
	if uid == "" {
		return apperror.Unauthenticated()
	}
	t, err := s.load(ctx, topicID)
	if err != nil {
		return err
	}
	if !topicpolicy.CanAccess(t, uid) {
		return apperror.PermissionDenied("you do not have access to this topic")
	}
	p, err := s.loadPost(ctx, topicID, postID)
	if err != nil {
		return err
	}
	if p.Author != uid && !topicpolicy.IsOwner(t, uid) {
		return apperror.PermissionDenied("you cannot remove this post")
	}
	if err := s.ds.Delete(ctx, postPath(topicID, postID)); err != nil {
		return apperror.Transport(err)
	}
	return nil
}

// GetPost loads one post from a topic the caller can access.
func (s *Store) GetPost(ctx context.Context, uid, topicID, postID string) (models.Post, error) {
	if uid == "" {
		return models.Post{}, apperror.Unauthenticated()
	}
	t, err := s.load(ctx, topicID)
	if err != nil {
		return models.Post{}, err
	}
	if !topicpolicy.CanAccess(t, uid) {
		return models.Post{}, apperror.PermissionDenied("you do not have access to this topic")
	}
	p, err := s.loadPost(ctx, topicID, postID)
	if err != nil {
		return models.Post{}, err
	}
	p.AuthorName = s.users.DisplayName(ctx, p.Author)
	return p, nil
}

// ListPosts returns a topic's posts, newest first.
func (s *Store) ListPosts(ctx context.Context, uid, topicID string) ([]models.Post, error) {
	if uid == "" {
		return nil, apperror.Unauthenticated()
	}
	t, err := s.load(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if !topicpolicy.CanAccess(t, uid) {
		return nil, apperror.PermissionDenied("you do not have access to this topic")
	}

	docs, err := s.ds.Query(ctx, docstore.DocPath("topics", topicID)+"/posts", nil)
	if err != nil {
		return nil, apperror.Transport(err)
	}
	out := make([]models.Post, 0, len(docs))
	authors := make([]string, 0, len(docs))
	for _, doc := range docs {
		p, err := decodePost(doc, topicID)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
		authors = append(authors, p.Author)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	names := s.users.DisplayNames(ctx, authors)
	for i := range out {
		out[i].AuthorName = names[out[i].Author]
	}
	return out, nil
}

func (s *Store) loadPost(ctx context.Context, topicID, postID string) (models.Post, error) {
	doc, err := s.ds.Get(ctx, postPath(topicID, postID))
	if err != nil {
		if errors.Is(err, docstore.ErrNoDocument) {
			return models.Post{}, apperror.NotFound("post", postID)
		}
		return models.Post{}, apperror.Transport(err)
	}
	return decodePost(doc, topicID)
}

func decodePost(doc docstore.Document, topicID string) (models.Post, error) {
	var p models.Post
	if err := doc.Decode(&p); err != nil {
		return models.Post{}, apperror.Transport(err)
	}
	p.ID = doc.ID
	p.TopicID = topicID
	return p, nil
}

func postPath(topicID, postID string) string {
	return docstore.DocPath("topics", topicID, "posts", postID)
}

func validatePost(title, content string) error {
	if title == "" {
		return apperror.InvalidArgument("title", "is required")
	}
	if utf8.RuneCountInString(title) > limits.MaxPostTitleLen {
		return apperror.InvalidArgument("title", "too long")
	}
	if len(content) > limits.MaxPostContentSize {
		return apperror.InvalidArgument("content", "too long")
	}
	return nil
}
