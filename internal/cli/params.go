package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/justyntemme/scripthost/pkg/framework/param"
	"github.com/justyntemme/scripthost/pkg/plugin"
)

// ParamInfo describes one published parameter.
type ParamInfo struct {
	Index      int     `json:"index"`
	ID         uint32  `json:"id"`
	Name       string  `json:"name"`
	Unit       string  `json:"unit,omitempty"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Step       float64 `json:"step,omitempty"`
	Normalized float64 `json:"normalized"`
	Display    string  `json:"display"`
}

// ScriptInfo describes a loaded script.
type ScriptInfo struct {
	Script string      `json:"script"`
	UID    string      `json:"uid"`
	Params []ParamInfo `json:"params"`
}

// NewParamsCommand creates the params command.
func NewParamsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "params <script.lua>",
		Short: "List the parameters a script declares",
		Long: `Load a script without audio and print the parameters it publishes to the
host, with their ranges and default values.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			cfg.Script = args[0]
			if err := cfg.Validate(); err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			log, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			inst := plugin.NewInstance(HostInfo, plugin.WithLogger(log))
			defer inst.Close()
			if err := inst.LoadFile(cfg.Script); err != nil {
				return WrapExitError(ExitCommandError, "failed to load script", err)
			}

			info := describe(inst)
			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(info, func(w io.Writer) error {
				return writeParamTable(w, info)
			})
		},
	}
}

func describe(inst *plugin.Instance) ScriptInfo {
	info := ScriptInfo{
		Script: inst.Engine().Name(),
		UID:    inst.Info().UUID().String(),
		Params: []ParamInfo{},
	}
	for i, p := range inst.Parameters().All() {
		info.Params = append(info.Params, describeParam(i, p))
	}
	return info
}

func describeParam(index int, p *param.Parameter) ParamInfo {
	v := p.GetValue()
	return ParamInfo{
		Index:      index,
		ID:         p.ID,
		Name:       p.Name,
		Unit:       p.Unit,
		Min:        p.Range.Min,
		Max:        p.Range.Max,
		Step:       p.Range.Step,
		Normalized: v,
		Display:    p.FormatValue(v),
	}
}

const nameWidth = 20

func writeParamTable(w io.Writer, info ScriptInfo) error {
	fmt.Fprintf(w, "%s  uid=%s\n", info.Script, info.UID)
	if len(info.Params) == 0 {
		_, err := fmt.Fprintln(w, "no parameters")
		return err
	}
	fmt.Fprintf(w, "%3s  %s  %10s  %10s  %6s  %s\n", "#", fitName("NAME", nameWidth), "MIN", "MAX", "NORM", "VALUE")
	for _, p := range info.Params {
		_, err := fmt.Fprintf(w, "%3d  %s  %10g  %10g  %6.3f  %s\n",
			p.Index, fitName(p.Name, nameWidth), p.Min, p.Max, p.Normalized, strings.TrimSpace(p.Display+" "+unitSuffix(p)))
		if err != nil {
			return err
		}
	}
	return nil
}

// unitSuffix returns the unit unless a unit formatter already put it in
// the display string.
func unitSuffix(p ParamInfo) string {
	if format, _ := param.FormatterFor(p.Unit); format != nil {
		return ""
	}
	return p.Unit
}

// fitName pads or truncates to a display width, counting wide runes as
// two cells.
func fitName(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}
