package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maauso/gridcomposer/internal/bootstrap"
	"github.com/maauso/gridcomposer/internal/compose"
	"github.com/maauso/gridcomposer/internal/config"
	"github.com/maauso/gridcomposer/internal/layout"
)

var errBadSlotFlag = errors.New("slot must be INDEX=PATH")

// composeOpts holds the command-line flags for the compose command.
type composeOpts struct {
	layout   string
	slots    []string // INDEX=PATH pairs
	width    int
	height   int
	duration float64 // forced duration in seconds, 0 to derive it
	publish  bool    // upload the result to S3
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "gridcompose",
		Short:        "Compose images and videos into a single grid layout",
		SilenceUsage: true,
	}
	root.AddCommand(newComposeCmd())
	root.AddCommand(newLayoutsCmd())
	return root
}

func newComposeCmd() *cobra.Command {
	opts := composeOpts{width: 1920, height: 1080}

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Render a composite JPEG or MP4 and print the result as JSON",
		Example: `  gridcompose compose --layout quad --width 1280 --height 720 \
    --slot 0=a.jpg --slot 1=b.png --slot 2=talk.mp4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCompose(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.layout, "layout", "l", "", "layout: "+layoutNames())
	cmd.Flags().StringArrayVarP(&opts.slots, "slot", "s", nil, "slot source as INDEX=PATH (repeatable)")
	cmd.Flags().IntVar(&opts.width, "width", opts.width, "canvas width in pixels")
	cmd.Flags().IntVar(&opts.height, "height", opts.height, "canvas height in pixels")
	cmd.Flags().Float64VarP(&opts.duration, "duration", "d", 0, "force video duration in seconds")
	cmd.Flags().BoolVar(&opts.publish, "publish", false, "upload the composite to the configured S3 bucket")
	_ = cmd.MarkFlagRequired("layout")
	_ = cmd.MarkFlagRequired("slot")

	return cmd
}

func newLayoutsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layouts",
		Short: "List supported layouts and their slot counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, t := range layout.Types {
				n, err := layout.RequiredSlots(t)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-18s %d\n", t, n)
			}
			return nil
		},
	}
}

func runCompose(cmd *cobra.Command, opts composeOpts) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := cfg.NewLogger()
	slog.SetDefault(logger)
	logger.Debug("configuration loaded", slog.String("config", cfg.String()))

	if opts.publish && !cfg.S3Enabled() {
		return fmt.Errorf("--publish requires S3_BUCKET and S3_REGION")
	}

	req, err := buildRequest(opts)
	if err != nil {
		return err
	}

	deps, err := bootstrap.NewDependencies(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}

	res, err := deps.Composer.Compose(ctx, req)
	if err != nil {
		return err
	}

	if opts.publish {
		url, err := deps.Publisher.Publish(ctx, res.Name, res.Path, res.MimeType)
		if err != nil {
			return fmt.Errorf("publish %s: %w", res.Name, err)
		}
		res.URL = url
		logger.Info("composite published", slog.String("url", url))
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// buildRequest parses slot flags and sniffs each source once.
func buildRequest(opts composeOpts) (compose.Request, error) {
	paths, err := parseSlots(opts.slots)
	if err != nil {
		return compose.Request{}, err
	}

	slots := make(map[int]compose.Source, len(paths))
	for idx, p := range paths {
		src, err := compose.DetectSource(p)
		if err != nil {
			return compose.Request{}, fmt.Errorf("slot %d: %w", idx, err)
		}
		slots[idx] = src
	}

	return compose.Request{
		Layout:            layout.Type(opts.layout),
		Slots:             slots,
		Width:             opts.width,
		Height:            opts.height,
		ForcedDurationSec: opts.duration,
	}, nil
}

// parseSlots turns INDEX=PATH pairs into a map. Duplicate indices are rejected.
func parseSlots(specs []string) (map[int]string, error) {
	out := make(map[int]string, len(specs))
	for _, s := range specs {
		rawIdx, path, ok := strings.Cut(s, "=")
		if !ok || strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("%w: %q", errBadSlotFlag, s)
		}
		idx, err := strconv.Atoi(strings.TrimSpace(rawIdx))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", errBadSlotFlag, s)
		}
		if _, dup := out[idx]; dup {
			return nil, fmt.Errorf("slot %d given more than once", idx)
		}
		out[idx] = path
	}
	return out, nil
}

func layoutNames() string {
	names := make([]string, len(layout.Types))
	for i, t := range layout.Types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
