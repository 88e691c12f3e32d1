package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
	"github.com/spaghettifunk/lumen/engine/renderer/software"
	"github.com/spaghettifunk/lumen/engine/renderer/vulkan"
)

var usageNames = map[string]metadata.GraphicsFormatUsage{
	"sample":           metadata.UsageSample,
	"linear":           metadata.UsageLinear,
	"render":           metadata.UsageRender,
	"blend":            metadata.UsageBlend,
	"getpixels":        metadata.UsageGetPixels,
	"setpixels":        metadata.UsageSetPixels,
	"setpixels32":      metadata.UsageSetPixels32,
	"readpixels":       metadata.UsageReadPixels,
	"loadstore":        metadata.UsageLoadStore,
	"msaa2x":           metadata.UsageMSAA2x,
	"msaa4x":           metadata.UsageMSAA4x,
	"msaa8x":           metadata.UsageMSAA8x,
	"stencilsampling":  metadata.UsageStencilSampling,
	"stencil-sampling": metadata.UsageStencilSampling,
}

// parseUsage reads a comma separated list of usage names.
func parseUsage(s string) (metadata.GraphicsFormatUsage, error) {
	var u metadata.GraphicsFormatUsage
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		flag, ok := usageNames[part]
		if !ok {
			return 0, fmt.Errorf("unknown usage %q", part)
		}
		u |= flag
	}
	return u, nil
}

func newFormatsCommand() *cobra.Command {
	var (
		probe bool
		usage string
	)
	cmd := &cobra.Command{
		Use:   "formats",
		Short: "List graphics formats and the usage the device grants them",
		Long: `List every graphics format with its layout and usage flags. The usage
comes from the configured capability table, or from the GPU with --probe.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			want, err := parseUsage(usage)
			if err != nil {
				return err
			}
			caps, err := capabilities(probe)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Device: %s\n", caps.DeviceName())
			fmt.Fprintln(cmd.OutOrStdout(), formatTable(caps, want))
			return nil
		},
	}
	cmd.Flags().BoolVar(&probe, "probe", false, "read format support from the GPU through Vulkan")
	cmd.Flags().StringVar(&usage, "usage", "", "only list formats granting every usage in this comma separated list")
	return cmd
}

func capabilities(probe bool) (native.Capabilities, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if probe || cfg.Renderer.Backend == "vulkan" {
		return vulkan.ProbeCapabilities(cfg.Renderer.ApplicationName)
	}
	return software.NewTableCapabilities(cfg.Renderer), nil
}

func formatTable(caps native.Capabilities, want metadata.GraphicsFormatUsage) *table.Table {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Value", "Format", "Bytes", "Components", "sRGB", "Usage")
	for _, f := range metadata.AllGraphicsFormats() {
		u := caps.FormatUsage(f)
		if want != metadata.UsageNone && !u.Has(want) {
			continue
		}
		info, _ := f.Info()
		t.Row(
			strconv.Itoa(int(f)),
			info.Name,
			strconv.Itoa(info.BlockSize),
			strconv.Itoa(info.Components),
			strconv.FormatBool(info.SRGB),
			u.String(),
		)
	}
	return t
}
