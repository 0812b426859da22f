// internal/app/store/docstore/path.go
package docstore

import (
	"fmt"
	"strings"
)

// Paths alternate collection and document segments:
//
//	topics                     collection path (1 segment)
//	topics/t1                  document path   (2 segments)
//	topics/t1/posts            collection path (3 segments)
//	topics/t1/posts/p1         document path   (4 segments)
//
// One level of nesting is supported, which covers every path this
// service uses.

// DocPath joins segments into a document path.
func DocPath(parts ...string) string {
	return strings.Join(parts, "/")
}

// parsedPath is the broken-down form shared by both backends.
type parsedPath struct {
	segments []string
}

func parsePath(path string) (parsedPath, error) {
	if path == "" {
		return parsedPath{}, fmt.Errorf("empty path")
	}
	segs := strings.Split(path, "/")
	for _, s := range segs {
		if s == "" {
			return parsedPath{}, fmt.Errorf("path %q has an empty segment", path)
		}
	}
	if len(segs) > 4 {
		return parsedPath{}, fmt.Errorf("path %q nests too deep", path)
	}
	return parsedPath{segments: segs}, nil
}

func parseDocPath(path string) (parsedPath, error) {
	p, err := parsePath(path)
	if err != nil {
		return parsedPath{}, err
	}
	if len(p.segments)%2 != 0 {
		return parsedPath{}, fmt.Errorf("%q is a collection path, not a document path", path)
	}
	return p, nil
}

func parseCollectionPath(path string) (parsedPath, error) {
	p, err := parsePath(path)
	if err != nil {
		return parsedPath{}, err
	}
	if len(p.segments)%2 == 0 {
		return parsedPath{}, fmt.Errorf("%q is a document path, not a collection path", path)
	}
	return p, nil
}

// id returns the final document segment.
func (p parsedPath) id() string {
	return p.segments[len(p.segments)-1]
}

// collection returns the physical collection name: collection segments
// joined with an underscore ("topics", "topics_posts").
func (p parsedPath) collection() string {
	n := len(p.segments)
	if n%2 == 0 {
		n-- // drop the trailing document segment
	}
	var cols []string
	for i := 0; i < n; i += 2 {
		cols = append(cols, p.segments[i])
	}
	return strings.Join(cols, "_")
}

// parentDocPath returns the owning document path for nested paths, or
// "" at the top level.
func (p parsedPath) parentDocPath() string {
	if len(p.segments) <= 2 {
		return ""
	}
	return strings.Join(p.segments[:2], "/")
}

// collectionPath returns the collection path the document belongs to.
func (p parsedPath) collectionPath() string {
	if len(p.segments)%2 != 0 {
		return strings.Join(p.segments, "/")
	}
	return strings.Join(p.segments[:len(p.segments)-1], "/")
}
