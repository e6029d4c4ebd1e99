package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "vconvtest",
	Short: "Browser test agent for a YouTube-to-MP4 conversion site",
	Long: "vconvtest drives a video-conversion site through a checkpoint sequence, " +
		"captures screenshots, extracts their text via OCR, and classifies outcomes " +
		"with an LLM. Results land as JSON, with optional webhook, upload, and " +
		"notification delivery.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
