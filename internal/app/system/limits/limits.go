// internal/app/system/limits/limits.go
package limits

// Field and request body size limits.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxTopicNameLen is the maximum length of a topic name in runes.
	MaxTopicNameLen = 120

	// MaxDescriptionSize is the maximum size in bytes of a topic description.
	MaxDescriptionSize = 16 << 10 // 16 KB

	// MaxPostTitleLen is the maximum length of a post title in runes.
	MaxPostTitleLen = 200

	// MaxPostContentSize is the maximum size in bytes of a post body.
	MaxPostContentSize = 256 << 10 // 256 KB

	// MaxJSONBody is the maximum size for JSON API request bodies.
	MaxJSONBody = 1 << 20 // 1 MB
)
