package adaptive

import (
	"github.com/saaga0h/jeeves-adaptive/internal/boundary"
)

// Range widths and caps that keep some adaptive variation after a boost
const (
	NarrowRangeWidth = 35
	MediumRangeWidth = 45
	NarrowRangeCap   = 30
	WideRangeCap     = 50
	ResidualRange    = 5
)

// Zone result statuses
const (
	StatusOK           = "ok"
	StatusCapped       = "capped"
	StatusCollapsed    = "collapsed"
	StatusInvalidRange = "invalid_range"
)

// Contributions are the per-source offsets for one zone on one tick.
// Sources disabled for the zone are already zero.
type Contributions struct {
	Manual        int `json:"manual"`
	Scene         int `json:"scene"`
	Environmental int `json:"environmental"`
	Sunset        int `json:"sunset"`
	Wake          int `json:"wake"`

	ManualWarmth int `json:"manual_warmth"`
	SceneWarmth  int `json:"scene_warmth"`
}

// Brightness is the raw combined brightness offset
func (c Contributions) Brightness() int {
	return c.Manual + c.Scene + c.Environmental + c.Sunset + c.Wake
}

// Warmth is the combined color temperature offset
func (c Contributions) Warmth() int {
	return c.ManualWarmth + c.SceneWarmth
}

// CapEvent records a boost that was reduced to protect the zone's range
type CapEvent struct {
	ZoneID  string `json:"zone_id"`
	Raw     int    `json:"raw"`
	Applied int    `json:"applied"`
	Width   int    `json:"width"`
}

// ZoneResult is the outcome of combining one zone
type ZoneResult struct {
	ZoneID        string               `json:"zone_id"`
	Status        string               `json:"status"`
	Contributions Contributions        `json:"contributions"`
	RawOffset     int                  `json:"raw_offset"`
	AppliedOffset int                  `json:"applied_offset"`
	WarmthOffset  int                  `json:"warmth_offset"`
	Boundaries    *boundary.Boundaries `json:"boundaries,omitempty"`
	Cap           *CapEvent            `json:"cap,omitempty"`
	Error         string               `json:"error,omitempty"`
}

// BoostCap returns the largest positive offset a range of the given width takes
func BoostCap(width int) int {
	switch {
	case width < NarrowRangeWidth:
		return NarrowRangeCap
	case width < MediumRangeWidth:
		return width - ResidualRange
	default:
		return WideRangeCap
	}
}

// Combine sums a zone's contributions, caps positive totals by range width and
// runs the boundary engines. An invalid range yields an invalid_range result
// instead of an error so other zones are unaffected.
func Combine(r boundary.ZoneRange, c Contributions) ZoneResult {
	res := ZoneResult{
		ZoneID:        r.ZoneID,
		Contributions: c,
		RawOffset:     c.Brightness(),
		WarmthOffset:  c.Warmth(),
	}

	if err := r.Validate(); err != nil {
		res.Status = StatusInvalidRange
		res.Error = err.Error()
		return res
	}

	res.AppliedOffset = res.RawOffset
	if res.RawOffset > 0 {
		width := r.Width()
		if limit := BoostCap(width); res.RawOffset > limit {
			res.AppliedOffset = limit
			res.Cap = &CapEvent{
				ZoneID:  r.ZoneID,
				Raw:     res.RawOffset,
				Applied: limit,
				Width:   width,
			}
		}
	}

	bounds, err := r.Apply(res.AppliedOffset, res.WarmthOffset)
	if err != nil {
		res.Status = StatusInvalidRange
		res.Error = err.Error()
		return res
	}
	res.Boundaries = &bounds

	switch {
	case bounds.Collapsed:
		res.Status = StatusCollapsed
	case res.Cap != nil:
		res.Status = StatusCapped
	default:
		res.Status = StatusOK
	}
	return res
}
