package mention

import (
	"context"
	"regexp"
	"strings"

	"liftly.app/liftly/internal/model"
	userRepo "liftly.app/liftly/internal/modules/user/repository"
)

var handlePattern = regexp.MustCompile(`@([A-Za-z0-9_]+)`)

// MentionService turns raw post text into resolved user records. Absence of
// mentions is not an error.
type MentionService interface {
	// ExtractHandles returns the distinct handle tokens in body, excluding
	// authorHandle (no self-notifications). Order follows first appearance.
	ExtractHandles(body, authorHandle string) []string
	// Resolve maps handles to user records through the account store,
	// case-insensitively. Unknown handles are dropped.
	Resolve(ctx context.Context, handles []string) ([]*model.User, error)
}

type mentionService struct {
	userRepo userRepo.UserRepository
}

func NewMentionService(userRepo userRepo.UserRepository) MentionService {
	return &mentionService{userRepo: userRepo}
}

func (s *mentionService) ExtractHandles(body, authorHandle string) []string {
	matches := handlePattern.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	var handles []string
	for _, m := range matches {
		handle := m[1]
		key := strings.ToLower(handle)
		if key == strings.ToLower(authorHandle) {
			continue
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		handles = append(handles, handle)
	}

	return handles
}

func (s *mentionService) Resolve(ctx context.Context, handles []string) ([]*model.User, error) {
	if len(handles) == 0 {
		return nil, nil
	}
	return s.userRepo.ResolveHandles(ctx, handles)
}
