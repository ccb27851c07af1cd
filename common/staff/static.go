package staff

import (
	"context"
	"strings"

	"github.com/tradepost/go-mediation/models"
)

var _ models.StaffDirectory = &StaticDirectory{}

// StaticDirectory answers staff lookups from a fixed list of identities loaded at startup.
type StaticDirectory struct {
	staff map[string]bool
}

func NewStaticDirectory(actorIds []string) *StaticDirectory {
	staff := make(map[string]bool, len(actorIds))
	for _, actorId := range actorIds {
		if actorId = strings.TrimSpace(actorId); len(actorId) > 0 {
			staff[actorId] = true
		}
	}
	return &StaticDirectory{staff}
}

func (s StaticDirectory) IsMediatorStaff(ctx context.Context, actorId string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.staff[actorId], nil
}

func (s StaticDirectory) Size() int {
	return len(s.staff)
}
