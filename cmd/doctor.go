package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check environment and configuration health",
		Run: func(cmd *cobra.Command, args []string) {
			runDoctor()
		},
	}
}

// runDoctor reports which keys are present without printing their values.
func runDoctor() {
	fmt.Println("coralcrew doctor")
	fmt.Printf("  Version:  %s\n", Version)
	fmt.Printf("  OS:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  Go:       %s\n", runtime.Version())
	fmt.Println()

	cfg, err := loadSettings()
	if err != nil {
		fmt.Printf("  Config load error: %s\n", err)
		return
	}

	fmt.Println("  Broker:")
	coralURL, err := cfg.CoralURL()
	if err != nil {
		fmt.Printf("    Coral URL:  NOT CONFIGURED (%v)\n", err)
	} else {
		fmt.Printf("    Coral URL:  %s\n", coralURL)
	}
	checkKey("Agent ID", cfg.Coral.AgentID != "")

	fmt.Println()
	fmt.Println("  Keys:")
	checkKey("MODEL_API_KEY", cfg.Model.APIKey != "")
	checkKey("TENWEB_API_KEY", cfg.TenWeb.APIKey != "")
	checkKey("ELEVENLABS_API_KEY", cfg.ElevenLabs.APIKey != "")
	checkKey("FAL_KEY", cfg.FAL.Key != "")

	fmt.Println()
	fmt.Println("  Storage:")
	fmt.Printf("    Backend:    %s\n", cfg.Storage.Backend)
	if cfg.Storage.Backend == "s3" {
		checkKey("S3 bucket", cfg.Storage.S3Bucket != "")
		checkKey("S3 region", cfg.Storage.S3Region != "")
	}

	fmt.Println()
	fmt.Println("  Bundled images:")
	checkFile("Background", cfg.Video.BackgroundImage)
	checkFile("Person", cfg.Video.PersonImage)
	checkFile("Product", cfg.Video.ProductImage)

	fmt.Println()
	if cfg.Tracing.Endpoint != "" {
		fmt.Printf("  Tracing:    %s (%s)\n", cfg.Tracing.Endpoint, cfg.Tracing.Protocol)
	} else {
		fmt.Println("  Tracing:    disabled")
	}
}

func checkKey(name string, present bool) {
	status := "MISSING"
	if present {
		status = "set"
	}
	fmt.Printf("    %-20s %s\n", name+":", status)
}

func checkFile(name, path string) {
	if path == "" {
		fmt.Printf("    %-12s (not configured)\n", name+":")
		return
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Printf("    %-12s %s (NOT FOUND)\n", name+":", path)
		return
	}
	fmt.Printf("    %-12s %s (OK)\n", name+":", path)
}
