// Package script embeds a Lua runtime (gopher-lua) as the scripting engine
// whose parameters the host automates.
//
// A script declares its parameters while it loads:
//
//	local gain = host.declare{name = "gain", min = 0, max = 2, default = 1, unit = "dB"}
//	host.declare{name = "freq", min = 20, max = 2000, default = 440, unit = "Hz"}
//
//	function on_tick(dt)
//	  host.set("freq", host.get("freq") * 1.01)
//	end
//
// The Lua state runs only on the control plane (Load, Tick). Parameter values
// live outside Lua in fixed atomic slots, so the audio thread can read and
// write them through RangeAndValue and SetNativeValue without touching the
// interpreter.
package script
