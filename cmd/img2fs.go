package cmd

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/google/go-containerregistry/pkg/name"
	containerregistry "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/tarball"
	"github.com/josephlewis42/dooros/core/vfs"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const (
	// WhiteoutPrefix prefix means file is a whiteout.
	WhiteoutPrefix = ".wh."
	// WhiteoutOpaqueDir hides everything lower layers put in its directory.
	WhiteoutOpaqueDir = WhiteoutPrefix + WhiteoutPrefix + ".opq"
)

var (
	img2fsMaxSize int64
	img2fsRoot    string
)

// img2fs converts a Docker image to a filesystem document
var img2fs = &cobra.Command{
	Use:   "img2fs INPUT_TAR OUTPUT_YAML [TAG]",
	Short: "Convert a docker image to a filesystem document.",
	Long: `Convert a docker image to a filesystem document for a machine.

Prepare an image by running the following:

	docker pull some-image:latest
	docker save some-image:latest > some-image.tar
	dooros img2fs some-image.tar filesystem.yaml

Binary files and files larger than --max-size are kept empty.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		inputPath := args[0]
		outputPath := args[1]

		// Find the tag associated with the image.
		var tag name.Tag
		if len(args) == 3 {
			var err error
			tag, err = name.NewTag(args[2])
			if err != nil {
				return err
			}
		} else {
			manifest, err := tarball.LoadManifest(func() (io.ReadCloser, error) {
				return os.Open(inputPath)
			})
			if err != nil {
				return err
			}

			if len(manifest) != 1 {
				var tags []string
				for _, m := range manifest {
					tags = append(tags, m.RepoTags...)
				}

				return fmt.Errorf("multiple tags found in the input, specify one of: %q", tags)
			}
			tag, err = name.NewTag(manifest[0].RepoTags[0])
			if err != nil {
				return err
			}
		}

		image, err := tarball.ImageFromPath(inputPath, &tag)
		if err != nil {
			return err
		}

		layers, err := image.Layers()
		if err != nil {
			return err
		}

		doc, err := imageDocument(layers, img2fsRoot, img2fsMaxSize)
		if err != nil {
			return err
		}

		return os.WriteFile(outputPath, doc, 0644)
	},
}

// imageDocument flattens the layers and renders the tree under root as a
// filesystem document.
func imageDocument(layers []containerregistry.Layer, root string, maxSize int64) ([]byte, error) {
	flat := afero.NewMemMapFs()
	if err := flattenLayers(layers, flat, maxSize); err != nil {
		return nil, err
	}

	dir, err := vfs.Import(flat, root, maxSize)
	if err != nil {
		return nil, err
	}
	return vfs.MarshalDocument(dir)
}

// flattenLayers applies the layers in order, honoring whiteouts. Contents of
// files over maxSize are dropped.
func flattenLayers(layers []containerregistry.Layer, out afero.Fs, maxSize int64) error {
	for layerIdx, layer := range layers {
		if err := applyLayer(layer, out, maxSize); err != nil {
			return fmt.Errorf("layer[%d]: %w", layerIdx, err)
		}
	}
	return nil
}

func applyLayer(layer containerregistry.Layer, out afero.Fs, maxSize int64) error {
	ul, err := layer.Uncompressed()
	if err != nil {
		return fmt.Errorf("couldn't decompress: %w", err)
	}
	defer ul.Close()

	tarReader := tar.NewReader(ul)
	for {
		hdr, err := tarReader.Next()
		if err == io.EOF {
			return nil // End of archive
		}
		if err != nil {
			return fmt.Errorf("couldn't read next file: %w", err)
		}

		name := path.Clean("/" + hdr.Name)
		dir, base := path.Split(name)

		switch {
		case base == WhiteoutOpaqueDir:
			if err := out.RemoveAll(dir); err != nil {
				return err
			}
			if err := out.MkdirAll(dir, 0755); err != nil {
				return err
			}
		case strings.HasPrefix(base, WhiteoutPrefix):
			if err := out.RemoveAll(path.Join(dir, strings.TrimPrefix(base, WhiteoutPrefix))); err != nil {
				return err
			}
		case hdr.Typeflag == tar.TypeDir:
			if err := out.MkdirAll(name, 0755); err != nil {
				return err
			}
		case hdr.Typeflag == tar.TypeReg:
			if err := out.MkdirAll(dir, 0755); err != nil {
				return err
			}
			var content []byte
			if maxSize <= 0 || hdr.Size <= maxSize {
				if content, err = io.ReadAll(tarReader); err != nil {
					return err
				}
			}
			if err := afero.WriteFile(out, name, content, 0644); err != nil {
				return err
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(img2fs)

	img2fs.Flags().Int64Var(&img2fsMaxSize, "max-size", 64*1024, "Largest file, in bytes, whose contents are kept. 0 keeps all.")
	img2fs.Flags().StringVar(&img2fsRoot, "root", "/", "Directory of the image to use as the machine's root.")
}
