package commands

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/spaghettifunk/lumen/engine/renderer/vulkan"
)

var headingStyle = lipgloss.NewStyle().Bold(true)

func newProbeCommand() *cobra.Command {
	var (
		validation  bool
		deviceIndex int
		extensions  bool
	)
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Show the capabilities of the GPU",
		Long: `Create a Vulkan instance, select a physical device and print the
limits, features and format support the renderer would use.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			caps, err := vulkan.ProbeCapabilities(cfg.Renderer.ApplicationName,
				vulkan.WithValidation(validation),
				vulkan.WithDeviceIndex(deviceIndex),
			)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, headingStyle.Render(caps.Name))
			fmt.Fprintln(out, deviceTable(caps))
			if extensions {
				fmt.Fprintln(out, headingStyle.Render("Extensions"))
				names := append([]string(nil), caps.Extensions...)
				sort.Strings(names)
				for _, name := range names {
					fmt.Fprintln(out, "  "+name)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&validation, "validation", false, "enable the Khronos validation layer when installed")
	cmd.Flags().IntVar(&deviceIndex, "device", -1, "physical device index (-1 picks the best one)")
	cmd.Flags().BoolVar(&extensions, "extensions", false, "list the device extensions")
	return cmd
}

func deviceTable(caps *vulkan.DeviceCapabilities) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		Row("Type", caps.Type).
		Row("API version", caps.APIVersion).
		Row("Max texture size", strconv.Itoa(caps.TextureSize)).
		Row("Max cubemap size", strconv.Itoa(caps.CubemapSize)).
		Row("Max sample count", strconv.Itoa(caps.SampleCount)).
		Row("Features", caps.FeatureSet.String()).
		Row("Extensions", strconv.Itoa(len(caps.Extensions)))
}
