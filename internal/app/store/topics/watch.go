// internal/app/store/topics/watch.go
package topicstore

import (
	"context"
	"strings"

	"github.com/linlinlin97264/topic-manage/internal/app/policy/topicpolicy"
	"github.com/linlinlin97264/topic-manage/internal/app/store/docstore"
	"github.com/linlinlin97264/topic-manage/internal/app/system/apperror"
	"github.com/linlinlin97264/topic-manage/internal/domain/models"
)

// TopicEvent is one observed change to a watched topic. Topic is nil
// when the topic was deleted.
type TopicEvent struct {
	Type    docstore.EventType
	TopicID string
	Topic   *models.Topic
}

// PostEvent is one observed change to a watched topic's posts. Post is
// nil when the post was deleted.
type PostEvent struct {
	Type   docstore.EventType
	PostID string
	Post   *models.Post
}

// Watch streams changes to every topic the caller can access until ctx
// ends. Access is evaluated per event: a put for a topic the caller can
// no longer see is dropped, and a delete is forwarded only if the
// caller saw the topic while it existed.
func (s *Store) Watch(ctx context.Context, uid string) (<-chan TopicEvent, error) {
	if uid == "" {
		return nil, apperror.Unauthenticated()
	}
	visible, err := s.List(ctx, uid)
	if err != nil {
		return nil, err
	}
	events, err := s.ds.Watch(ctx, "topics")
	if err != nil {
		return nil, apperror.Transport(err)
	}

	seen := make(map[string]bool, len(visible))
	for _, t := range visible {
		seen[t.ID] = true
	}

	out := make(chan TopicEvent, 1)
	go func() {
		defer close(out)
		for ev := range events {
			id := ev.Path[strings.LastIndex(ev.Path, "/")+1:]
			te := TopicEvent{Type: ev.Type, TopicID: id}
			switch ev.Type {
			case docstore.EventPut:
				t, err := decodeTopic(ev.Doc)
				if err != nil {
					continue
				}
				if !topicpolicy.CanAccess(t, uid) {
					delete(seen, id)
					continue
				}
				seen[id] = true
				s.decorate(ctx, &t)
				te.Topic = &t
			case docstore.EventDelete:
				if !seen[id] {
					continue
				}
				delete(seen, id)
			}
			select {
			case out <- te:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// WatchPosts streams changes to a topic's posts until ctx ends.
func (s *Store) WatchPosts(ctx context.Context, uid, topicID string) (<-chan PostEvent, error) {
	if _, err := s.Get(ctx, uid, topicID); err != nil {
		return nil, err
	}
	events, err := s.ds.Watch(ctx, docstore.DocPath("topics", topicID)+"/posts")
	if err != nil {
		return nil, apperror.Transport(err)
	}

	out := make(chan PostEvent, 1)
	go func() {
		defer close(out)
		for ev := range events {
			id := ev.Path[strings.LastIndex(ev.Path, "/")+1:]
			pe := PostEvent{Type: ev.Type, PostID: id}
			if ev.Type == docstore.EventPut {
				p, err := decodePost(ev.Doc, topicID)
				if err != nil {
					continue
				}
				p.AuthorName = s.users.DisplayName(ctx, p.Author)
				pe.Post = &p
			}
			select {
			case out <- pe:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
