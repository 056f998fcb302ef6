package indicator

import "github.com/rodrigo-brito/taengine/model"

// VWAP is the cumulative volume weighted average of the typical price. It never
// resets by itself: the caller calls Reset at its session boundaries.
type VWAP struct {
	priceVolume float64
	volume      float64
}

func NewVWAP() *VWAP {
	return &VWAP{}
}

func (v *VWAP) Update(bar model.PriceBar) {
	v.priceVolume += bar.TypicalPrice() * bar.Volume
	v.volume += bar.Volume
}

// Value is unset while the session has no traded volume.
func (v *VWAP) Value() (float64, bool) {
	if v.volume == 0 {
		return 0, false
	}
	return v.priceVolume / v.volume, true
}

func (v *VWAP) Reset() {
	v.priceVolume = 0
	v.volume = 0
}
