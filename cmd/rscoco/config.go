package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sensorable/rscoco"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Keys of the settings shared by all conversion commands.
const (
	keyConfig  = "config"
	keyIDs     = "ids"
	keyDims    = "dims"
	keyWorkers = "workers"
	keyClip    = "clip"
	keyIndent  = "indent"
	keyQuiet   = "quiet"
)

// setupGlobalFlags defines the persistent flags of the root command and binds them to v.
func setupGlobalFlags(cmd *cobra.Command, v *viper.Viper) error {
	fs := cmd.PersistentFlags()
	fs.String(keyConfig, "", "The config file `path` (default ./rscoco.yaml or ~/.config/rscoco/rscoco.yaml)")
	fs.String(keyIDs, "numeric", "Image id `strategy` {numeric, sequential}")
	fs.String(keyDims, "header", "Image size `strategy` {header, decode}")
	fs.Int(keyWorkers, 0, "Concurrent image reads (0 uses the number of CPUs)")
	fs.Bool(keyClip, false, "Clip bounding boxes to their images (always on for xview)")
	fs.String(keyIndent, "", "Indent `string` for pretty-printed JSON output")
	fs.BoolP(keyQuiet, "q", false, "Disable progress bars")

	return bindFlags(v, "", fs)
}

// bindFlags binds all flags in fs to v. Keys are prefixed with "prefix." unless prefix is empty,
// which keeps identically named flags of different commands apart.
func bindFlags(v *viper.Viper, prefix string, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		key := f.Name
		if prefix != "" {
			key = prefix + "." + f.Name
		}
		err = v.BindPFlag(key, f)
	})
	if err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}

// loadConfig reads the config file, if any, and enables RSCOCO_* environment variables. A missing
// default config file is not an error.
func loadConfig(v *viper.Viper) error {
	v.SetEnvPrefix("rscoco")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path := v.GetString(keyConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %q: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("rscoco")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home + "/.config/rscoco")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

// conversionOptions builds the converter options from the shared settings.
func conversionOptions(v *viper.Viper, stderr io.Writer) (rscoco.Options, error) {
	var opts rscoco.Options

	switch s := v.GetString(keyIDs); s {
	case "numeric":
		opts.IDs = rscoco.NumericIDs{}
	case "sequential":
		opts.IDs = rscoco.NewSequentialIDs()
	default:
		return opts, fmt.Errorf("invalid --%s %q, must be numeric or sequential", keyIDs, s)
	}

	switch s := v.GetString(keyDims); s {
	case "header":
		opts.Dimensions = rscoco.HeaderDimensions{}
	case "decode":
		opts.Dimensions = rscoco.DecodedDimensions{}
	default:
		return opts, fmt.Errorf("invalid --%s %q, must be header or decode", keyDims, s)
	}

	opts.Workers = v.GetInt(keyWorkers)
	if opts.Workers < 0 {
		return opts, fmt.Errorf("invalid --%s %d, must not be negative", keyWorkers, opts.Workers)
	}
	opts.Clip = v.GetBool(keyClip)
	if !v.GetBool(keyQuiet) {
		opts.Progress = stderr
	}

	return opts, nil
}

// requireSettings returns an error naming the first of the keys under prefix that is empty.
func requireSettings(v *viper.Viper, prefix string, keys ...string) error {
	for _, k := range keys {
		if v.GetString(prefix+"."+k) == "" {
			return fmt.Errorf("missing required --%s", k)
		}
	}
	return nil
}
