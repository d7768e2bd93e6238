// Package cli provides the csvstat command-line interface. It runs the same
// upload, statistics and chart operations as the HTTP service against a
// local file.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvviz/internal/config"
	"github.com/JonMunkholm/csvviz/internal/core"
	"github.com/JonMunkholm/csvviz/internal/logging"
)

// Version information (set at build time).
var Version = "1.0.0"

// loadOptions are the persistent flags that shape how a file is read.
type loadOptions struct {
	maxSize      string
	sanitizeUTF8 bool
	logLevel     string
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	opts := &loadOptions{}

	rootCmd := &cobra.Command{
		Use:   "csvstat",
		Short: "csvstat - inspect, summarize and chart CSV files",
		Long: `csvstat reads a CSV file with the same parser and type inference as
the upload service, then prints its statistics, a page of rows, or the
chart figure the service would return.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logging.SetupWriter(cmd.ErrOrStderr(), opts.logLevel, "text")
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.maxSize, "max-size", "16MB", "Maximum file size in bytes, or with a KB, MB or GB suffix")
	rootCmd.PersistentFlags().BoolVar(&opts.sanitizeUTF8, "sanitize-utf8", false, "Replace invalid UTF-8 bytes instead of failing")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug|info|warn|error)")

	rootCmd.AddCommand(newDescribeCommand(opts))
	rootCmd.AddCommand(newHeadCommand(opts))
	rootCmd.AddCommand(newChartCommand(opts))

	return rootCmd
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", errorText(err))
		return 1
	}
	return 0
}

// errorText prefers the service's client-facing message.
func errorText(err error) string {
	if core.IsDomainError(err) {
		return core.PublicMessage(err)
	}
	return err.Error()
}

// load parses path into a fresh service and returns the dataset id.
func (o *loadOptions) load(ctx context.Context, path string) (*core.Service, string, error) {
	maxSize, err := config.ParseSize(o.maxSize)
	if err != nil || maxSize <= 0 {
		return nil, "", fmt.Errorf("invalid --max-size %q", o.maxSize)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, "", err
	}

	svc := core.NewService(nil, nil, core.Options{
		MaxFileSize:  maxSize,
		SanitizeUTF8: o.sanitizeUTF8,
	})
	res, err := svc.Upload(ctx, core.UploadInput{
		Filename: filepath.Base(path),
		Size:     info.Size(),
		Body:     f,
	})
	if err != nil {
		return nil, "", err
	}
	return svc, res.DatasetID, nil
}
