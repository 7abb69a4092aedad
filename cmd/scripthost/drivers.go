//go:build !headless

package main

// Registers the RtMidi driver used for MIDI input ports.
import _ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
