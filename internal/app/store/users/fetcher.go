package userstore

import (
	"context"

	"github.com/linlinlin97264/topic-manage/internal/app/system/auth"
	"github.com/linlinlin97264/topic-manage/internal/app/system/timeouts"
)

// Fetcher implements auth.UserFetcher to load fresh profile data on
// each request.
type Fetcher struct {
	users *Store
}

// NewFetcher creates a UserFetcher backed by the user directory.
func NewFetcher(users *Store) *Fetcher {
	return &Fetcher{users: users}
}

// FetchUser retrieves a profile by UID and returns nil if the profile
// is not found or if any error occurs. This implements auth.UserFetcher.
func (f *Fetcher) FetchUser(ctx context.Context, uid string) *auth.SessionUser {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	u, err := f.users.GetByID(ctx, uid)
	if err != nil {
		return nil
	}
	return &auth.SessionUser{
		UID:   u.UID,
		Name:  u.DisplayName(),
		Email: u.Email,
	}
}

// DisplayNames resolves a set of UIDs to display names in one pass.
// Missing profiles resolve to "Unknown user" rather than an error.
func (s *Store) DisplayNames(ctx context.Context, uids []string) map[string]string {
	out := make(map[string]string, len(uids))
	for _, uid := range uids {
		if _, seen := out[uid]; seen {
			continue
		}
		out[uid] = s.DisplayName(ctx, uid)
	}
	return out
}
