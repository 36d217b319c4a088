package main

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/sensorable/rscoco"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// fair1mCommand converts a directory of FAIR1M XML label files.
func fair1mCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fair1m",
		Short: "Convert FAIR1M XML labels to COCO",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSettings(v, "fair1m", "labels", "output"); err != nil {
				return err
			}
			opts, err := conversionOptions(v, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			res, err := rscoco.FromFAIR1M(filepath.Clean(v.GetString("fair1m.labels")), opts)
			if err != nil {
				return fmt.Errorf("failed to parse the input: %w", err)
			}
			return writeResult(v, res, filepath.Clean(v.GetString("fair1m.output")))
		},
	}

	cmd.Flags().String("labels", "", "The `path` to the directory of XML label files")
	cmd.Flags().StringP("output", "o", "", "The COCO JSON output `path`")
	if err := bindFlags(v, "fair1m", cmd.Flags()); err != nil {
		panic(err)
	}

	return cmd
}

// dotaCommand converts DOTA images and text labels.
func dotaCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dota",
		Short: "Convert DOTA text labels to COCO",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSettings(v, "dota", "images", "labels"); err != nil {
				return err
			}
			opts, err := conversionOptions(v, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			src := rscoco.DOTASource{
				ImageDir: filepath.Clean(v.GetString("dota.images")),
				LabelDir: filepath.Clean(v.GetString("dota.labels")),
				Version:  v.GetString("dota.version"),
			}
			if meta := v.GetString("dota.meta"); meta != "" {
				src.MetaDir = filepath.Clean(meta)
			}
			if classes := v.GetString("dota.classes"); classes != "" {
				if src.Categories, err = rscoco.LoadCategoryFile(classes); err != nil {
					return err
				}
			}

			// Defaults to COCO.json next to the image directory.
			out := v.GetString("dota.output")
			if out == "" {
				out = filepath.Join(filepath.Dir(src.ImageDir), "COCO.json")
			}

			res, err := rscoco.FromDOTA(src, opts)
			if err != nil {
				return fmt.Errorf("failed to parse the input: %w", err)
			}
			return writeResult(v, res, filepath.Clean(out))
		},
	}

	cmd.Flags().String("images", "", "The `path` to the image directory")
	cmd.Flags().String("labels", "", "The `path` to the directory of label text files")
	cmd.Flags().String("meta", "", "The `path` to the directory of label files with imagesource/gsd headers")
	cmd.Flags().String("classes", "", "A file `path` with id:name lines; categories are created on demand if empty")
	cmd.Flags().String("version", "1.0", "The dataset `version` for the info block")
	cmd.Flags().StringP("output", "o", "", "The COCO JSON output `path` (default COCO.json next to the image directory)")
	if err := bindFlags(v, "dota", cmd.Flags()); err != nil {
		panic(err)
	}

	return cmd
}

// xviewCommand converts the xView GeoJSON labels.
func xviewCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xview",
		Short: "Convert xView GeoJSON labels to COCO",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSettings(v, "xview", "geojson", "classes", "images"); err != nil {
				return err
			}
			opts, err := conversionOptions(v, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			geojson := filepath.Clean(v.GetString("xview.geojson"))
			out := v.GetString("xview.output")
			if out == "" {
				out = strings.TrimSuffix(geojson, filepath.Ext(geojson)) + ".json"
			}
			out = filepath.Clean(out)
			if out == geojson {
				return fmt.Errorf("the label input and output paths cannot be identical")
			}

			res, err := rscoco.FromXView(geojson, filepath.Clean(v.GetString("xview.classes")),
				filepath.Clean(v.GetString("xview.images")), opts)
			if err != nil {
				return fmt.Errorf("failed to parse the input: %w", err)
			}
			return writeResult(v, res, out)
		},
	}

	cmd.Flags().String("geojson", "", "The `path` to the xView GeoJSON label file")
	cmd.Flags().String("classes", "", "The `path` to the id:name class file")
	cmd.Flags().String("images", "", "The `path` to the image directory (may contain one level of subdirectories)")
	cmd.Flags().StringP("output", "o", "", "The COCO JSON output `path` (default: the GeoJSON path with .json extension)")
	if err := bindFlags(v, "xview", cmd.Flags()); err != nil {
		panic(err)
	}

	return cmd
}

// statsCommand prints a summary of a COCO file.
func statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <coco.json>",
		Short: "Print per-category statistics of a COCO file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := rscoco.ReadDataset(args[0])
			if err != nil {
				return err
			}
			return rscoco.Summarize(ds).Write(cmd.OutOrStdout())
		},
	}
}

// tfrecordCommand exports a COCO file and its images as TFRecord shards.
func tfrecordCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tfrecord <coco.json>",
		Short: "Export a COCO file and its images as TFRecord files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSettings(v, "tfrecord", "images", "output", "label-map"); err != nil {
				return err
			}
			numShards := v.GetInt("tfrecord.num-shards")
			if numShards < 1 {
				return fmt.Errorf("invalid --num-shards %d, must be at least 1", numShards)
			}

			ds, err := rscoco.ReadDataset(args[0])
			if err != nil {
				return err
			}
			out := filepath.Clean(v.GetString("tfrecord.output"))
			written, err := rscoco.WriteTFRecord(out,
				filepath.Clean(v.GetString("tfrecord.label-map")),
				filepath.Clean(v.GetString("tfrecord.images")), ds, numShards)
			if err != nil {
				return fmt.Errorf("conversion failed: %w", err)
			}
			if written < len(ds.Images) {
				return fmt.Errorf("only %d of %d images could be converted, see the log above",
					written, len(ds.Images))
			}

			log.Printf("Successfully wrote %d images to %s", written, out)
			return nil
		},
	}

	cmd.Flags().String("images", "", "The `path` to the image directory")
	cmd.Flags().StringP("output", "o", "", "The TFRecord output `path` (shard suffixes are added when -num-shards > 1)")
	cmd.Flags().String("label-map", "", "The label map output `path`")
	cmd.Flags().Int("num-shards", 1, "The number of shard files to create")
	if err := bindFlags(v, "tfrecord", cmd.Flags()); err != nil {
		panic(err)
	}

	return cmd
}

// filterCommand removes annotations and images from a COCO file.
func filterCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter <coco.json>",
		Short: "Filter the annotations and images of a COCO file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSettings(v, "filter", "output"); err != nil {
				return err
			}
			ds, err := rscoco.ReadDataset(args[0])
			if err != nil {
				return err
			}

			ds.Filter(rscoco.FilterOptions{
				Categories:         v.GetStringSlice("filter.categories"),
				MinWidth:           v.GetFloat64("filter.min-width"),
				MinHeight:          v.GetFloat64("filter.min-height"),
				MinAspectRatio:     v.GetFloat64("filter.min-aspect-ratio"),
				MaxAspectRatio:     v.GetFloat64("filter.max-aspect-ratio"),
				RequireAnnotations: v.GetBool("filter.require-annotations"),
			})
			return writeResult(v, &rscoco.Result{Dataset: ds},
				filepath.Clean(v.GetString("filter.output")))
		},
	}

	cmd.Flags().StringSlice("categories", nil, "Comma separated category `names` to keep (default all)")
	cmd.Flags().Float64("min-width", 0, "Minimum bbox width in pixels")
	cmd.Flags().Float64("min-height", 0, "Minimum bbox height in pixels")
	cmd.Flags().Float64("min-aspect-ratio", 0, "Minimum bbox width/height (0 disables the check)")
	cmd.Flags().Float64("max-aspect-ratio", 0, "Maximum bbox width/height (0 disables the check)")
	cmd.Flags().Bool("require-annotations", false, "Remove images without annotations")
	cmd.Flags().StringP("output", "o", "", "The COCO JSON output `path`")
	if err := bindFlags(v, "filter", cmd.Flags()); err != nil {
		panic(err)
	}

	return cmd
}

// splitCommand randomly splits a COCO file into several files, e.g. for training and validation.
func splitCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split <coco.json>",
		Short: "Randomly split the images of a COCO file into several files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			splits := v.GetIntSlice("split.splits")
			outputs := v.GetStringSlice("split.outputs")
			if len(outputs) != len(splits) {
				return fmt.Errorf("--outputs needs one path per split, got %d for %d splits",
					len(outputs), len(splits))
			}

			ds, err := rscoco.ReadDataset(args[0])
			if err != nil {
				return err
			}
			parts, err := ds.Split(splits, v.GetInt64("split.seed"))
			if err != nil {
				return err
			}
			for i, part := range parts {
				if err := writeResult(v, &rscoco.Result{Dataset: part},
					filepath.Clean(outputs[i])); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntSlice("splits", []int{80, 100}, "Cumulative split `percentages`, ending with 100")
	cmd.Flags().StringSlice("outputs", nil, "Comma separated COCO JSON output `paths`, one per split")
	cmd.Flags().Int64("seed", 1, "The random `seed`; the same seed yields the same split")
	if err := bindFlags(v, "split", cmd.Flags()); err != nil {
		panic(err)
	}

	return cmd
}

// writeResult logs the warnings of res and writes its dataset to out.
func writeResult(v *viper.Viper, res *rscoco.Result, out string) error {
	for _, w := range res.Warnings {
		log.Print(w)
	}
	if n := len(res.Warnings); n > 0 {
		log.Printf("%d warnings", n)
	}
	if res.Clip != (rscoco.ClipStats{}) {
		log.Printf("Clipping corrected %d low and %d high boxes and removed %d",
			res.Clip.Low, res.Clip.High, res.Clip.Removed)
	}

	ds := res.Dataset
	if err := rscoco.WriteDataset(out, ds, v.GetString(keyIndent)); err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	log.Printf("Successfully wrote %d images, %d categories and %d annotations to %s",
		len(ds.Images), len(ds.Categories), len(ds.Annotations), out)
	return nil
}
