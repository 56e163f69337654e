package addons

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Discovery is the result of listing a package source directory.
type Discovery struct {
	// Names holds package file names in listing order.
	Names []string
	// Previews maps a package name to the path of its preview image.
	Previews map[string]string
	// Sizes maps a package name to its size in bytes.
	Sizes map[string]int64
}

// Discover lists dir and returns the package files found there, paired with
// a preview image when one named like the package (with PreviewExt) sits in
// the same directory.
func Discover(fs afero.Fs, dir string) (*Discovery, error) {
	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, &DiscoveryError{Dir: dir, Err: err}
	}

	all := make(map[string]struct{}, len(infos))
	for _, info := range infos {
		all[info.Name()] = struct{}{}
	}

	d := &Discovery{
		Previews: make(map[string]string),
		Sizes:    make(map[string]int64),
	}

	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || !strings.HasSuffix(name, PackageExt) {
			continue
		}

		d.Names = append(d.Names, name)
		d.Sizes[name] = info.Size()

		preview := strings.TrimSuffix(name, PackageExt) + PreviewExt
		if _, ok := all[preview]; ok {
			d.Previews[name] = filepath.Join(dir, preview)
		}
	}

	return d, nil
}
