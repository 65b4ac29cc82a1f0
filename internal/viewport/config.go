package viewport

import (
	"errors"
	"fmt"
)

// ============================================================
// Configuration
// ============================================================

const (
	DefaultMinScale        = 0.5
	DefaultMaxScale        = 4.0
	DefaultInitialScale    = 1.0
	DefaultWheelStep       = 0.15
	DefaultDoubleClickStep = 0.5
	DefaultTapSlop         = 4.0  // px до признания нажатия перетаскиванием
	DefaultPanStep         = 30.0 // px на одно нажатие стрелки
)

var ErrInvalidConfig = errors.New("invalid viewport config")

// Config задаёт границы масштаба и шаги жестов. Нулевые поля получают значения по умолчанию.
type Config struct {
	MinScale               float64 `yaml:"min_scale" json:"minScale,omitempty"`
	MaxScale               float64 `yaml:"max_scale" json:"maxScale,omitempty"`
	InitialScale           float64 `yaml:"initial_scale" json:"initialScale,omitempty"`
	WheelStep              float64 `yaml:"wheel_step" json:"wheelStep,omitempty"`
	DoubleClickStep        float64 `yaml:"dbl_click_step" json:"dblClickStep,omitempty"`
	DisableDoubleClickZoom bool    `yaml:"disable_double_click_zoom" json:"disableDoubleClickZoom,omitempty"`
	TapSlop                float64 `yaml:"tap_slop" json:"tapSlop,omitempty"`
	PanStep                float64 `yaml:"pan_step" json:"panStep,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		MinScale:        DefaultMinScale,
		MaxScale:        DefaultMaxScale,
		InitialScale:    DefaultInitialScale,
		WheelStep:       DefaultWheelStep,
		DoubleClickStep: DefaultDoubleClickStep,
		TapSlop:         DefaultTapSlop,
		PanStep:         DefaultPanStep,
	}
}

func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.MinScale == 0 {
		c.MinScale = d.MinScale
	}
	if c.MaxScale == 0 {
		c.MaxScale = d.MaxScale
	}
	if c.InitialScale == 0 {
		c.InitialScale = d.InitialScale
	}
	if c.WheelStep == 0 {
		c.WheelStep = d.WheelStep
	}
	if c.DoubleClickStep == 0 {
		c.DoubleClickStep = d.DoubleClickStep
	}
	if c.TapSlop == 0 {
		c.TapSlop = d.TapSlop
	}
	if c.PanStep == 0 {
		c.PanStep = d.PanStep
	}
	return c
}

func (c Config) Validate() error {
	switch {
	case c.MinScale <= 0:
		return fmt.Errorf("%w: min scale must be positive", ErrInvalidConfig)
	case c.MaxScale < c.MinScale:
		return fmt.Errorf("%w: max scale %g below min scale %g", ErrInvalidConfig, c.MaxScale, c.MinScale)
	case c.InitialScale < c.MinScale || c.InitialScale > c.MaxScale:
		return fmt.Errorf("%w: initial scale %g outside [%g, %g]", ErrInvalidConfig, c.InitialScale, c.MinScale, c.MaxScale)
	case c.WheelStep < 0 || c.WheelStep >= 1:
		return fmt.Errorf("%w: wheel step must be in [0, 1)", ErrInvalidConfig)
	case c.DoubleClickStep < 0:
		return fmt.Errorf("%w: double click step must not be negative", ErrInvalidConfig)
	case c.TapSlop < 0 || c.PanStep < 0:
		return fmt.Errorf("%w: slop and pan step must not be negative", ErrInvalidConfig)
	}
	return nil
}

func (c Config) clamp(scale float64) float64 {
	return min(c.MaxScale, max(c.MinScale, scale))
}
