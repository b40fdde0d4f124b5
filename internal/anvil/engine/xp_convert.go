package engine

import (
	"fmt"

	"github.com/rsned/anvil-crafting-server/internal/anvil/xp"
	"github.com/rsned/anvil-crafting-server/pkg/anvil"
)

// XPConvert executes the xp_convert tool logic. Each request field that is
// set produces the matching response field.
func (e *Engine) XPConvert(req anvil.XPConvertRequest) (*anvil.XPConvertResponse, error) {
	resp := &anvil.XPConvertResponse{}
	asked := false

	if req.Level != nil {
		asked = true
		v, err := xp.LevelToXPFloat(*req.Level)
		if err != nil {
			return nil, err
		}
		resp.XPForLevel = &v
	}

	if req.XP != nil {
		asked = true
		v, err := xp.XPToLevel(*req.XP)
		if err != nil {
			return nil, err
		}
		resp.LevelForXP = &v
	}

	if req.FromLevel != nil || req.ToLevel != nil {
		if req.FromLevel == nil || req.ToLevel == nil {
			return nil, fmt.Errorf("%w: from_level and to_level must be given together", ErrInvalidRequest)
		}
		asked = true
		v, err := xp.XPBetweenLevels(*req.FromLevel, *req.ToLevel)
		if err != nil {
			return nil, err
		}
		resp.XPBetween = &v
	}

	if len(req.StepCosts) > 0 {
		asked = true
		incremental, err := xp.IncrementalXP(req.StepCosts)
		if err != nil {
			return nil, err
		}
		bulk, err := xp.BulkXP(req.StepCosts)
		if err != nil {
			return nil, err
		}
		resp.IncrementalXP = &incremental
		resp.BulkXP = &bulk
	}

	if !asked {
		return nil, fmt.Errorf("%w: nothing to convert", ErrInvalidRequest)
	}
	return resp, nil
}
