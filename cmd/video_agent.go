package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/coralcrew/internal/config"
	"github.com/nextlevelbuilder/coralcrew/internal/fal"
	"github.com/nextlevelbuilder/coralcrew/internal/providers"
	"github.com/nextlevelbuilder/coralcrew/internal/tools"
	"github.com/nextlevelbuilder/coralcrew/internal/tts"
	"github.com/nextlevelbuilder/coralcrew/internal/video"
)

const videoPersona = `You are the video generation agent. You perform instructions coming from other agents using your tools.

Think about the content of the instruction and check the list of your tools. Check each tool schema and make a plan, then call only the tools you need to complete the instruction. When generating a video, pass the narration text to generate_video; include image_url only when the instruction provides one. When asked to composite a product into a scene, use compose_product_image and pass its resulting URL to generate_video if a video is also requested.

Your final answer should state what was produced, including any URLs or request IDs the tools returned.`

func videoSpec() agentSpec {
	return agentSpec{
		DefaultID:   "video-agent",
		Description: "Agent that generates narrated videos from text via ElevenLabs TTS and FAL rendering",
		Persona:     videoPersona,
		RegisterFn: func(ctx context.Context, cfg *config.Settings, reg *tools.Registry, _ providers.Provider) error {
			falClient := fal.NewClient(fal.Config{
				Key:          cfg.FAL.Key,
				RESTBase:     cfg.FAL.RESTBase,
				QueueBase:    cfg.FAL.QueueBase,
				PollInterval: cfg.FAL.PollInterval,
			})
			storage, err := buildStorage(ctx, cfg, falClient)
			if err != nil {
				return err
			}
			cache := fal.NewAssetCache(storage)

			ttsProvider := tts.NewElevenLabsProvider(tts.ElevenLabsConfig{
				APIKey:       cfg.ElevenLabs.APIKey,
				BaseURL:      cfg.ElevenLabs.BaseURL,
				VoiceID:      cfg.ElevenLabs.VoiceID,
				ModelID:      cfg.ElevenLabs.ModelID,
				OutputFormat: cfg.ElevenLabs.OutputFormat,
			})

			reg.Register(video.NewGenerateVideoTool(ttsProvider, falClient, storage, cache, video.GenerateVideoConfig{
				FabricModel:    cfg.FAL.FabricModel,
				BackgroundPath: cfg.Video.BackgroundImage,
			}))

			composer := fal.NewComposer(falClient, storage, cache, fal.ComposerConfig{
				Model:            cfg.FAL.ProductHoldingModel,
				ExtraArgs:        cfg.FAL.ProductHoldingExtraArgs,
				PersonImagePath:  cfg.Video.PersonImage,
				ProductImagePath: cfg.Video.ProductImage,
			})
			reg.Register(video.NewComposeProductImageTool(composer))
			return nil
		},
	}
}

func videoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "video",
		Short: "Run the narrated-video generation agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSingle(videoSpec())
		},
	}
}
