package chunkbench

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/benchkit/chunkbench/internal/device"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List the devices the benchmark runtime can target",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := device.NewHostRuntime()
		devices := rt.Devices()
		if len(devices) == 0 {
			return fmt.Errorf("no compatible devices found")
		}

		headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
		rowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("86"))

		fmt.Println(headerStyle.Render("Available devices:"))
		for _, info := range devices {
			mem := "n/a"
			if info.TotalMemoryBytes > 0 {
				mem = fmt.Sprintf("%.1f GB", float64(info.TotalMemoryBytes)/(1024*1024*1024))
			}
			fmt.Println(rowStyle.Render(fmt.Sprintf("  [%d] %s (memory: %s)", info.Index, info.Name, mem)))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
