package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const starterConfig = `# vconvtest configuration
target_url: "https://converter.example.com"

dirs:
  screenshots: screenshots
  videos: videos
  logs: logs

browser:
  headless: true
  record_video: false

timeouts:
  navigation: 30s
  load_state: 10s
  selector: 2s
  indicator_find: 5s
  poll_interval: 5s
  max_conversion_wait: 120s
  fallback_wait: 60s
  close_grace: 3s

groq:
  api_key: "${GROQ_API_KEY}"
  model: llama3-8b-8192

ocr:
  binary: tesseract
  timeout: 30s

# schedule:
#   cron: "0 */6 * * *"
#   youtube_url: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
#   test_name: youtube_conversion

# webhook:
#   url: "https://reports.example.com/hooks/vconvtest"
#   auth_type: bearer
#   auth_token: "${WEBHOOK_TOKEN}"

# upload:
#   provider: minio
#   settings:
#     endpoint: "minio.example.com:9000"
#     access_key: "${MINIO_ACCESS_KEY}"
#     secret_key: "${MINIO_SECRET_KEY}"
#     bucket: vconvtest-artifacts

# services:
#   telegram:
#     url: "telegram://${TELEGRAM_TOKEN}@telegram"
#     params:
#       chats: "${TELEGRAM_CHAT}"
#
# notify:
#   - telegram
`

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a starter configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "config.yaml"
		if len(args) == 1 {
			path = args[0]
		}

		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists, refusing to overwrite", path)
		}

		if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
		fmt.Printf("Wrote starter configuration to %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
