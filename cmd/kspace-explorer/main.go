// Command kspace-explorer inspects images in the frequency domain.
//
// Usage:
//
//	kspace-explorer inspect photo.png
//	kspace-explorer inspect photo.png --radius 24
//	kspace-explorer serve --addr :8080 --watch ~/images
//	kspace-explorer config init
//
// The inspect command runs the pipeline once and writes the rendered
// spectrum and reconstruction next to the input. The serve command
// starts the interactive viewer.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-kspace/internal/config"
	"github.com/cwbudde/algo-kspace/internal/imaging"
	"github.com/cwbudde/algo-kspace/internal/logging"
	"github.com/cwbudde/algo-kspace/internal/session"
	"github.com/cwbudde/algo-kspace/internal/webui"
	"github.com/cwbudde/algo-kspace/kspace/render"
	"github.com/cwbudde/algo-kspace/kspace/transform"
	"github.com/cwbudde/algo-kspace/measure/quality"
)

const version = "0.3.0"

// root carries shared state from the persistent pre-run into the
// subcommands.
type root struct {
	cfgPath string
	cfg     *config.Config
	log     *slog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	r := &root{}

	cmd := &cobra.Command{
		Use:   "kspace-explorer",
		Short: "Inspect images through their 2D frequency spectrum",
		Long: `kspace-explorer transforms grayscale images into centered k-space,
renders the spectrum, and reconstructs images from circular low-pass
masks, either one-shot on the command line or interactively in the
browser.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(r.cfgPath)
			if err != nil {
				return err
			}
			r.cfg = cfg
			r.log = logging.New(cfg.Logging.Level, cfg.Logging.Format)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&r.cfgPath, "config", "c", "", "config file path")

	cmd.AddCommand(newInspectCmd(r))
	cmd.AddCommand(newServeCmd(r))
	cmd.AddCommand(newConfigCmd(r))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// inspectOptions are the one-shot pipeline parameters. A zero radius
// means no mask: the reconstruction uses the full spectrum.
type inspectOptions struct {
	cx     int
	cy     int
	radius int
	maxDim int
	outDir string
}

func newInspectCmd(r *root) *cobra.Command {
	var opts inspectOptions

	cmd := &cobra.Command{
		Use:   "inspect <image>",
		Short: "Transform an image once and write spectrum and reconstruction",
		Long: `Run an image through the forward transform, optionally apply a
circular mask, and write <name>-kspace.png and <name>-recon.png.

Examples:
  kspace-explorer inspect photo.png
  kspace-explorer inspect photo.png --radius 24
  kspace-explorer inspect photo.png --cx 100 --cy 80 --radius 16 --out-dir out`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.maxDim == 0 {
				opts.maxDim = r.cfg.Engine.MaxDim
			}
			return runInspect(args[0], opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&opts.cx, "cx", -1, "mask center column (default: spectrum center)")
	cmd.Flags().IntVar(&opts.cy, "cy", -1, "mask center row (default: spectrum center)")
	cmd.Flags().IntVar(&opts.radius, "radius", 0, "mask radius in pixels (0 = no mask)")
	cmd.Flags().IntVar(&opts.maxDim, "max-dim", 0, "largest image edge before downscaling (0 = config value)")
	cmd.Flags().StringVarP(&opts.outDir, "out-dir", "o", ".", "output directory")

	return cmd
}

func runInspect(path string, opts inspectOptions, out io.Writer) error {
	img, err := imaging.Open(path)
	if err != nil {
		return err
	}
	grid, err := imaging.Grid(img, opts.maxDim)
	if err != nil {
		return err
	}
	spec, err := transform.Forward(grid)
	if err != nil {
		return err
	}

	var mask *transform.Mask
	retained := 1.0
	if opts.radius > 0 {
		m := transform.Mask{CX: opts.cx, CY: opts.cy, Radius: opts.radius}
		if m.CX < 0 {
			m.CX = grid.Cols() / 2
		}
		if m.CY < 0 {
			m.CY = grid.Rows() / 2
		}
		if err := m.Validate(); err != nil {
			return err
		}
		if retained, err = quality.RetainedEnergy(spec, m); err != nil {
			return err
		}
		mask = &m
	}

	rec, err := transform.Inverse(spec, mask)
	if err != nil {
		return err
	}
	metrics, err := quality.Compare(grid, rec)
	if err != nil {
		return err
	}

	heat, err := render.SpectrumHeat(spec)
	if err != nil {
		return err
	}
	view, err := render.Samples(rec)
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	kspacePath := filepath.Join(opts.outDir, base+"-kspace.png")
	reconPath := filepath.Join(opts.outDir, base+"-recon.png")
	if err := imaging.WritePNG(kspacePath, heat); err != nil {
		return err
	}
	if err := imaging.WritePNG(reconPath, view); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "image\t%s\n", filepath.Base(path))
	fmt.Fprintf(tw, "size\t%d x %d (cols x rows)\n", grid.Cols(), grid.Rows())
	if mask != nil {
		fmt.Fprintf(tw, "mask\t(%d, %d) r%d\n", mask.CX, mask.CY, mask.Radius)
	} else {
		fmt.Fprintf(tw, "mask\tfull spectrum\n")
	}
	fmt.Fprintf(tw, "retained\t%.1f%%\n", 100*retained)
	fmt.Fprintf(tw, "rmse\t%.3f\n", metrics.RMSE)
	if math.IsInf(metrics.PSNR, 1) {
		fmt.Fprintf(tw, "psnr\texact\n")
	} else {
		fmt.Fprintf(tw, "psnr\t%.2f dB\n", metrics.PSNR)
	}
	if math.IsNaN(metrics.Correlation) {
		fmt.Fprintf(tw, "correlation\tn/a\n")
	} else {
		fmt.Fprintf(tw, "correlation\t%.4f\n", metrics.Correlation)
	}
	fmt.Fprintf(tw, "k-space\t%s\n", kspacePath)
	fmt.Fprintf(tw, "recon\t%s\n", reconPath)

	return tw.Flush()
}

func newServeCmd(r *root) *cobra.Command {
	var (
		addr     string
		watchDir string
		noDB     bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the interactive k-space viewer",
		Long: `Start an HTTP server with the browser viewer: upload images or drop
them into a watched directory, drag the mask circle, and watch the
reconstruction update live.

Examples:
  kspace-explorer serve
  kspace-explorer serve --addr :9090 --watch ~/incoming
  kspace-explorer serve --no-db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				r.cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("watch") {
				r.cfg.Server.WatchDir = watchDir
			}

			var store *session.Store
			if !noDB && r.cfg.Session.DatabasePath != "" {
				var err error
				store, err = session.Open(r.cfg.Session.DatabasePath)
				if err != nil {
					r.log.Warn("session journal disabled", "path", r.cfg.Session.DatabasePath, "error", err)
					store = nil
				} else {
					defer store.Close()
					r.log.Info("session journal open", "path", r.cfg.Session.DatabasePath)
				}
			}

			srv := webui.New(r.cfg, store, r.log)
			defer srv.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address (host:port)")
	cmd.Flags().StringVar(&watchDir, "watch", "", "directory to watch for new images")
	cmd.Flags().BoolVar(&noDB, "no-db", false, "disable the session journal")

	return cmd
}

func newConfigCmd(r *root) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialize configuration",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(r.cfg)
			if err != nil {
				return err
			}
			cmd.Print(string(data))
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the current configuration to disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := r.cfgPath
			if path == "" {
				path = config.DefaultPath()
			}
			if err := config.Save(r.cfg, path); err != nil {
				return err
			}
			cmd.Println("configuration written to " + path)
			return nil
		},
	}

	cmd.AddCommand(showCmd, initCmd)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("kspace-explorer " + version)
		},
	}
}
