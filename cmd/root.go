package cmd

import (
	"fmt"
	u "net/url"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tanq16/kisame/internal"
	"github.com/tanq16/kisame/internal/output"
	"github.com/tanq16/kisame/internal/utils"
)

var (
	totalSize     int64
	expectedSHA   string
	chunkSize     int64
	retries       int
	outputPath    string
	urlListFile   string
	numWorkers    int
	timeout       time.Duration
	kaTimeout     time.Duration
	userAgent     string
	proxyURL      string
	proxyUsername string
	proxyPassword string
	headers       []string
	debug         bool
)

var KisameVersion = "dev"

var rootCmd = &cobra.Command{
	Use:   "kisame [URL]",
	Short: "Kisame retrieves files from HTTP servers with broken range handling",
	Long: `Kisame downloads a file of known total length from an HTTP server that
treats range bounds as exclusive, omits Content-Range, and silently truncates
large responses. It fetches fixed-size windows sequentially, reassembles them
in memory, and verifies the result against an expected SHA-256 digest.`,
	Version: KisameVersion,
	Args:    cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		utils.InitLogger(debug)
		if len(args) == 0 && urlListFile == "" {
			output.PrintError("No URL or URL list provided")
			os.Exit(1)
		}
		if urlListFile != "" && len(args) > 0 {
			output.PrintError("Cannot specify url argument and --urllist together, choose one")
			os.Exit(1)
		}
		if chunkSize <= 0 {
			output.PrintError("Chunk size must be positive")
			os.Exit(1)
		}
		if userAgent == "randomize" {
			userAgent = utils.GetRandomUserAgent()
		}
		// Check if proxy URL contains auth
		parsedProxy, err := u.Parse(proxyURL)
		if err == nil && parsedProxy.User != nil && proxyUsername == "" {
			proxyUsername = parsedProxy.User.Username()
			if password, set := parsedProxy.User.Password(); set {
				proxyPassword = password
			}
			// Remove auth from URL to send in clientConfig
			parsedProxy.User = nil
			proxyURL = parsedProxy.String()
		}
		clientConfig := utils.HTTPClientConfig{
			Timeout:       timeout,
			KATimeout:     kaTimeout,
			ProxyURL:      proxyURL,
			ProxyUsername: proxyUsername,
			ProxyPassword: proxyPassword,
			UserAgent:     userAgent,
			Headers:       utils.ParseHeaderArgs(headers),
		}
		var entries []utils.DownloadEntry
		if len(args) > 0 {
			url := args[0]
			if _, err := u.Parse(url); err != nil {
				output.PrintError("Invalid URL format")
				os.Exit(1)
			}
			if !cmd.Flags().Changed("size") {
				output.PrintError("Expected total size is required (--size)")
				os.Exit(1)
			}
			if totalSize < 0 {
				output.PrintError("Expected size must be non-negative")
				os.Exit(1)
			}
			if _, err := utils.NormalizeSHA256(expectedSHA); err != nil {
				output.PrintError(fmt.Sprintf("Invalid digest: %v", err))
				os.Exit(1)
			}
			entries = []utils.DownloadEntry{{
				URL:        url,
				Size:       totalSize,
				SHA256:     expectedSHA,
				OutputPath: outputPath,
			}}
			if outputPath != "" {
				if _, err := os.Stat(outputPath); err == nil {
					entries[0].OutputPath = utils.RenewOutputPath(outputPath)
				}
			}
			numWorkers = 1
			output.PrintInfo(fmt.Sprintf("Expected total size: %s (%d bytes)", output.FormatBytes(uint64(totalSize)), totalSize))
		} else {
			entries, err = utils.ReadDownloadList(urlListFile)
			if err != nil {
				output.PrintError(fmt.Sprintf("Failed to read URL list file: %v", err))
				os.Exit(1)
			}
			output.PrintHeader(fmt.Sprintf("Downloading %d entries", len(entries)))
		}
		if _, err := internal.BatchDownload(entries, numWorkers, chunkSize, retries, clientConfig); err != nil {
			fmt.Println()
			output.PrintError("Encountered failed operation(s)")
			os.Exit(1)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().Int64VarP(&totalSize, "size", "s", 0, "Expected total size in bytes (required for single URL mode)")
	rootCmd.Flags().StringVar(&expectedSHA, "sha256", "", "Expected SHA-256 digest (hex); computed digest is printed when omitted")
	rootCmd.Flags().Int64VarP(&chunkSize, "chunk-size", "c", utils.DefaultChunkSize, "Window size per range request; keep below the server's truncation threshold")
	rootCmd.Flags().IntVarP(&retries, "retries", "r", utils.DefaultRetries, "Attempts per window before aborting")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (assembled bytes are only hashed when omitted)")
	rootCmd.Flags().StringVarP(&urlListFile, "urllist", "l", "", "Path to YAML file containing download entries")
	rootCmd.Flags().IntVarP(&numWorkers, "workers", "w", 1, "Number of list entries to download in parallel")
	rootCmd.Flags().DurationVarP(&timeout, "timeout", "t", 3*time.Minute, "Request timeout (eg. 5s, 10m)")
	rootCmd.Flags().DurationVarP(&kaTimeout, "keep-alive-timeout", "k", 90*time.Second, "Keep-alive timeout for client (eg. 10s, 1m, 80s)")
	rootCmd.Flags().StringVarP(&userAgent, "user-agent", "a", utils.ToolUserAgent, "User agent")
	rootCmd.Flags().StringVarP(&proxyURL, "proxy", "p", "", "HTTP/HTTPS proxy URL (e.g., proxy.example.com:8080)")
	rootCmd.Flags().StringVar(&proxyUsername, "proxy-username", "", "Proxy username (if not provided in proxy URL)")
	rootCmd.Flags().StringVar(&proxyPassword, "proxy-password", "", "Proxy password (if not provided in proxy URL)")
	rootCmd.Flags().StringArrayVarP(&headers, "header", "H", []string{}, "Custom headers (like 'Authorization: Basic dXNlcjpwYXNz'); can be specified multiple times")

	// flags without shorthand
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
}
