package remote

import (
	"github.com/traojudge/core/ids"
	"github.com/traojudge/core/xerr"
)

func parseResourceId(s string) (ids.ResourceId, error) {
	if s == "" {
		return ids.ResourceId{}, xerr.ErrInvalidResourceId(s)
	}
	rid, err := ids.ParseResourceId(s)
	if err != nil {
		return ids.ResourceId{}, xerr.ErrInvalidResourceId(s)
	}
	return rid, nil
}
