package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/peachtree-labs/happyhour/internal/extract"
	"github.com/peachtree-labs/happyhour/internal/persist"
	"github.com/peachtree-labs/happyhour/internal/session"
	"github.com/peachtree-labs/happyhour/pkg/anthropic"
	"github.com/peachtree-labs/happyhour/pkg/places"
)

var (
	extractText   string
	extractName   string
	extractImages []string
	extractSave   bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract a structured deal from text and menu photos",
	Long:  "Runs one extraction pass over the supplied input, matches it against the venue directory, and prints the result. With --save the confirmed deal is persisted immediately.",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		extractor := extract.NewService(
			anthropic.NewClient(cfg.Anthropic.Key),
			cfg.Anthropic.Model,
			cfg.Anthropic.MaxTokens,
			time.Duration(cfg.Extract.TimeoutSecs)*time.Second,
		)

		var placesClient places.Client
		if cfg.Places.Key != "" {
			placesClient = places.NewClient(cfg.Places.Key)
		}
		saver := persist.NewSaver(st, placesClient, cfg.Places.Region)
		controller := session.NewController(extractor, st, saver)

		sess := controller.Start(cmd.Context())
		sess.Text = extractText
		sess.RestaurantName = extractName
		for _, path := range extractImages {
			img, err := loadImage(path)
			if err != nil {
				return err
			}
			sess.Images = append(sess.Images, img)
		}

		sess, err = controller.Process(cmd.Context(), sess)
		if err != nil {
			return err
		}
		if sess.Warning != "" {
			zap.L().Warn(sess.Warning)
		}
		if sess.Match != nil {
			zap.L().Info("matched existing venue",
				zap.String("id", sess.Match.ID),
				zap.String("restaurant", sess.Match.RestaurantName),
			)
		}

		out, err := json.MarshalIndent(sess.Deal, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))

		if !extractSave {
			return nil
		}
		sess, err = controller.Confirm(cmd.Context(), sess)
		if err != nil {
			return err
		}
		zap.L().Info("venue saved", zap.String("id", sess.Saved.ID))
		return nil
	},
}

func loadImage(path string) (extract.Image, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return extract.Image{}, err
	}
	mediaType := mime.TypeByExtension(filepath.Ext(path))
	if mediaType == "" {
		mediaType = "image/jpeg"
	}
	return extract.Image{
		Base64:    base64.StdEncoding.EncodeToString(raw),
		MediaType: mediaType,
	}, nil
}

func init() {
	extractCmd.Flags().StringVar(&extractText, "text", "", "free-text deal description")
	extractCmd.Flags().StringVar(&extractName, "name", "", "restaurant name hint")
	extractCmd.Flags().StringSliceVar(&extractImages, "image", nil, "menu photo path (repeatable)")
	extractCmd.Flags().BoolVar(&extractSave, "save", false, "persist the extracted deal")
	rootCmd.AddCommand(extractCmd)
}
