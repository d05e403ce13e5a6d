package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func crewCmd() *cobra.Command {
	var only []string
	cmd := &cobra.Command{
		Use:   "crew",
		Short: "Run the full agent crew (tenweb, video, onboarding) in one process",
		RunE: func(cmd *cobra.Command, args []string) error {
			all := map[string]agentSpec{
				"tenweb":     tenwebSpec(),
				"video":      videoSpec(),
				"onboarding": onboardingSpec(),
			}

			var specs []agentSpec
			if len(only) == 0 {
				for _, name := range []string{"tenweb", "video", "onboarding"} {
					specs = append(specs, all[name])
				}
			} else {
				for _, name := range only {
					spec, ok := all[name]
					if !ok {
						return fmt.Errorf("unknown agent %q (choose from: tenweb, video, onboarding)", name)
					}
					specs = append(specs, spec)
				}
			}

			return runCrew(specs)
		},
	}
	cmd.Flags().StringSliceVar(&only, "only", nil, "run only the named agents (comma separated)")
	return cmd
}
