package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	aiutils "canvas_ai_server/internal/ai/utils"
	"canvas_ai_server/internal/build"
	"canvas_ai_server/internal/publish"

	"github.com/spf13/cobra"
)

var currentOutDir string

var currentCmd = &cobra.Command{
	Use:   "current",
	Short: "Print the latest page version, or export its files with --out",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		pages, closeStore, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		page, err := build.NewService(nil, pages, cfg.BuildTimeout).Current(cmd.Context())
		if err != nil {
			return err
		}
		if currentOutDir == "" {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(page)
		}

		n, err := aiutils.SaveFilesDisk(currentOutDir, page.Files)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(currentOutDir, publish.PreviewFile), []byte(page.Content), 0o644); err != nil {
			return fmt.Errorf("write preview: %w", err)
		}
		log.Printf("exported version %d (%d files + preview) to %s", page.Version, n, currentOutDir)
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every stored page version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		pages, closeStore, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeStore()
		return build.NewService(nil, pages, cfg.BuildTimeout).Reset(cmd.Context())
	},
}

func init() {
	currentCmd.Flags().StringVar(&currentOutDir, "out", "", "Directory to write the page files and preview.html into")
}
