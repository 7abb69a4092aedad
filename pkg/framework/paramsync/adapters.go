package paramsync

import "github.com/justyntemme/scripthost/pkg/framework/param"

// HostParameters is the host-facing side of a parameter set.
type HostParameters interface {
	// Normalized returns the host's current value for index in [0,1].
	// Called from the audio thread; must not block. ok is false when no
	// parameter is live at index.
	Normalized(index int) (value float64, ok bool)

	// SetNormalizedNotifyingHost sets the value and tells the host about it
	// (automation recording, UI refresh). Control plane only; may block.
	SetNormalizedNotifyingHost(index int, value float64)
}

// EngineParameters is the embedded engine's side of a parameter set.
type EngineParameters interface {
	// RangeAndValue returns the native value and the live range. Called from
	// the audio thread; must not block. ok is false while the engine has no
	// parameter at index (unloaded, reloading, or index past its count).
	RangeAndValue(index int) (r Reading, ok bool)

	// SetNativeValue writes a native value. Called from the audio thread.
	SetNativeValue(index int, value float64)
}

// Reading is one observation of an engine parameter.
type Reading struct {
	Value float64
	Range param.Range
}
