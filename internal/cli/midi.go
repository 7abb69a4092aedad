package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/justyntemme/scripthost/pkg/midi"
)

// listMIDIPorts is replaced in tests, where no driver is registered.
var listMIDIPorts = midi.Ports

// MIDIPorts is the payload of "midi ports".
type MIDIPorts struct {
	Inputs []string `json:"inputs"`
}

// NewMIDICommand creates the midi command group.
func NewMIDICommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "midi",
		Short: "Inspect MIDI devices",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "ports",
		Short: "List MIDI input ports",
		Long: `List the MIDI input ports the driver can see. Any of these names can be
given to "run --midi-port" or set as midi.port in the config file.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := listMIDIPorts()
			if err != nil {
				return WrapExitError(ExitFailure, "failed to list MIDI ports", err)
			}
			ports := MIDIPorts{Inputs: append([]string{}, names...)}
			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(ports, func(w io.Writer) error {
				if len(ports.Inputs) == 0 {
					_, err := fmt.Fprintln(w, "no MIDI inputs")
					return err
				}
				for i, name := range ports.Inputs {
					if _, err := fmt.Fprintf(w, "%d  %s\n", i, name); err != nil {
						return err
					}
				}
				return nil
			})
		},
	})
	return cmd
}
