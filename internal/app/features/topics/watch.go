// internal/app/features/topics/watch.go
package topics

import (
	"encoding/json"
	"net/http"

	"github.com/linlinlin97264/topic-manage/internal/app/store/docstore"
	"github.com/linlinlin97264/topic-manage/internal/app/system/httpjson"
	"github.com/linlinlin97264/topic-manage/internal/domain/models"
)

type topicEventPayload struct {
	Type    docstore.EventType `json:"type"`
	TopicID string             `json:"topic_id"`
	Topic   *models.Topic      `json:"topic,omitempty"`
}

type postEventPayload struct {
	Type   docstore.EventType `json:"type"`
	PostID string             `json:"post_id"`
	Post   *models.Post       `json:"post,omitempty"`
}

// HandleWatch handles GET /api/topics/watch: a Server-Sent Events
// stream of changes to every topic the caller can access. The stream
// stays open until the client disconnects.
func (h *Handler) HandleWatch(w http.ResponseWriter, r *http.Request) {
	uid, err := principal(r)
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	// The watch lives as long as the request, so it uses the request
	// context directly rather than a handler timeout.
	events, err := h.Topics.Watch(r.Context(), uid)
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	startStream(w, flusher)
	for ev := range events {
		writeEvent(w, flusher, topicEventPayload{
			Type:    ev.Type,
			TopicID: ev.TopicID,
			Topic:   ev.Topic,
		})
	}
}

// HandleWatchPosts handles GET /api/topics/{topicID}/posts/watch.
func (h *Handler) HandleWatchPosts(w http.ResponseWriter, r *http.Request) {
	uid, err := principal(r)
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	events, err := h.Topics.WatchPosts(r.Context(), uid, topicID(r))
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	startStream(w, flusher)
	for ev := range events {
		writeEvent(w, flusher, postEventPayload{
			Type:   ev.Type,
			PostID: ev.PostID,
			Post:   ev.Post,
		})
	}
}

func startStream(w http.ResponseWriter, flusher http.Flusher) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// An initial comment establishes the stream on the client side.
	_, _ = w.Write([]byte(": stream started\n\n"))
	flusher.Flush()
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_, _ = w.Write([]byte("data: "))
	_, _ = w.Write(data)
	_, _ = w.Write([]byte("\n\n"))
	flusher.Flush()
}
