package docstore

import "testing"

func TestParseDocPath(t *testing.T) {
	tests := []struct {
		path    string
		wantErr bool
	}{
		{"topics/t1", false},
		{"topics/t1/posts/p1", false},
		{"users/u1", false},
		{"topics", true},            // collection path
		{"topics/t1/posts", true},   // collection path
		{"", true},
		{"topics//posts/p1", true}, // empty segment
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := parseDocPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseDocPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestParseCollectionPath(t *testing.T) {
	tests := []struct {
		path    string
		wantErr bool
	}{
		{"topics", false},
		{"topics/t1/posts", false},
		{"topics/t1", true}, // document path
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := parseCollectionPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseCollectionPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestPathCollection(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"topics/t1", "topics"},
		{"topics/t1/posts/p1", "topics_posts"},
		{"topics/t1/posts", "topics_posts"},
		{"users/u1", "users"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			p, err := parsePath(tt.path)
			if err != nil {
				t.Fatalf("parsePath(%q): %v", tt.path, err)
			}
			if got := p.collection(); got != tt.want {
				t.Errorf("collection() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPathParentAndCollectionPath(t *testing.T) {
	p, err := parseDocPath("topics/t1/posts/p1")
	if err != nil {
		t.Fatal(err)
	}
	if got := p.parentDocPath(); got != "topics/t1" {
		t.Errorf("parentDocPath() = %q, want %q", got, "topics/t1")
	}
	if got := p.collectionPath(); got != "topics/t1/posts" {
		t.Errorf("collectionPath() = %q, want %q", got, "topics/t1/posts")
	}
	if got := p.id(); got != "p1" {
		t.Errorf("id() = %q, want %q", got, "p1")
	}

	top, err := parseDocPath("topics/t1")
	if err != nil {
		t.Fatal(err)
	}
	if got := top.parentDocPath(); got != "" {
		t.Errorf("top-level parentDocPath() = %q, want empty", got)
	}
}
