// redate shifts the "date taken" of every photo under a directory.
package main

import (
	goflag "flag"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/tstromberg/redate/pkg/config"
	"github.com/tstromberg/redate/pkg/redate"
	"github.com/tstromberg/redate/pkg/shift"
	"github.com/tstromberg/redate/pkg/walk"
)

const version = "0.1.0"

// codec is a redate.Codec that holds a process open.
type codec interface {
	redate.Codec
	Close() error
}

type options struct {
	offset      shift.Offset
	workers     int
	dryRun      bool
	printConfig bool
	configPath  string
	exiftool    string

	newCodec func(redate.ExifToolOptions) (codec, error)
}

func main() {
	klog.InitFlags(nil)

	cmd := newRootCmd(newExifTool)
	cmd.PersistentFlags().AddGoFlagSet(goflag.CommandLine)

	err := cmd.Execute()
	klog.Flush()
	if err != nil {
		os.Exit(1)
	}
}

func newExifTool(o redate.ExifToolOptions) (codec, error) {
	et, err := redate.NewExifTool(o)
	if err != nil {
		return nil, err
	}
	return et, nil
}

func newRootCmd(newCodec func(redate.ExifToolOptions) (codec, error)) *cobra.Command {
	opts := &options{newCodec: newCodec}

	cmd := &cobra.Command{
		Use:     "redate <folder_path>",
		Short:   "Shift the date taken of every photo in a folder",
		Long:    "redate walks a folder recursively and moves the EXIF DateTimeOriginal and DateTimeDigitized of every supported image by a fixed offset, rewriting each file in place.",
		Version: version,
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.printConfig {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.printConfig {
				return printConfig(cmd, opts)
			}
			return run(cmd, opts, args[0])
		},
		SilenceUsage: true,
	}

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	f := cmd.Flags()
	f.IntVar(&opts.offset.Years, "years", 0, "number of years to add")
	f.IntVar(&opts.offset.Months, "months", 0, "number of months to add")
	f.IntVar(&opts.offset.Days, "days", 0, "number of days to add")
	f.IntVar(&opts.offset.Hours, "hours", 0, "number of hours to add")
	f.IntVar(&opts.offset.Minutes, "minutes", 0, "number of minutes to add")
	f.IntVar(&opts.workers, "workers", 1, "number of files to process in parallel")
	f.BoolVarP(&opts.dryRun, "dry-run", "n", false, "report new dates without writing them")
	f.StringVar(&opts.configPath, "config", "", "path to a TOML config file")
	f.StringVar(&opts.exiftool, "exiftool", "", "path to the exiftool binary")
	f.BoolVar(&opts.printConfig, "print-config", false, "print the effective config as TOML and exit")

	return cmd
}

// settings merges the config file with any flags given explicitly.
func settings(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		c, err := config.ReadFromFile(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = c
	}

	f := cmd.Flags()
	if f.Changed("workers") {
		cfg.Workers = opts.workers
	}
	if f.Changed("dry-run") {
		cfg.DryRun = opts.dryRun
	}
	if f.Changed("exiftool") {
		cfg.ExiftoolPath = opts.exiftool
	}
	return cfg, cfg.Validate()
}

func printConfig(cmd *cobra.Command, opts *options) error {
	cfg, err := settings(cmd, opts)
	if err != nil {
		return err
	}
	return config.Write(cmd.OutOrStdout(), cfg)
}

func run(cmd *cobra.Command, opts *options, root string) error {
	cfg, err := settings(cmd, opts)
	if err != nil {
		return err
	}

	w, err := walk.New(root)
	if err != nil {
		return err
	}

	if opts.offset.IsZero() {
		klog.Warningf("offset is zero: timestamps will be rewritten unchanged")
	}
	klog.Infof("shifting %s by %s with %d worker(s)", root, opts.offset, cfg.Workers)

	var rws []*redate.Rewriter
	for i := 0; i < cfg.Workers; i++ {
		c, err := opts.newCodec(redate.ExifToolOptions{Binary: cfg.ExiftoolPath, BackupOriginal: cfg.BackupOriginal})
		if err != nil {
			closeAll(rws)
			return err
		}
		rws = append(rws, &redate.Rewriter{Codec: c, Offset: opts.offset, DryRun: cfg.DryRun})
	}
	defer closeAll(rws)

	sum := redate.Run(w.Paths(), rws, func(r redate.Result) {
		cmd.Println(r.String())
	})
	cmd.Println(sum.String())

	if n := sum.Failed(); n > 0 {
		return fmt.Errorf("%d of %d files failed", n, sum.Total())
	}
	return nil
}

func closeAll(rws []*redate.Rewriter) {
	for _, rw := range rws {
		c, ok := rw.Codec.(codec)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			klog.Errorf("failed to close exiftool: %v", err)
		}
	}
}
