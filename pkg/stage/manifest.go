// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package stage

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/walteh/dirpipe/pkg/pipeline"
	"gitlab.com/tozd/go/errors"
)

// 📄 Entry is one queued file
type Entry struct {
	Index int    // position in the manifest
	Name  string // base name
	Path  string // absolute path
}

// 📋 Manifest is the list of files a stage works on, taken once before any
// processing so that files arriving mid-run are left for the next run.
type Manifest struct {
	Dir     string
	Entries []Entry
}

// Len returns the number of queued files.
func (m *Manifest) Len() int {
	return len(m.Entries)
}

// Snapshot lists the files directly inside dir in name order. Directories,
// the pipeline marker and names matching one of the ignore globs are skipped.
func Snapshot(dir string, ignore []string) (*Manifest, error) {
	names, err := listFiles(dir, ignore)
	if err != nil {
		return nil, err
	}

	m := &Manifest{Dir: dir, Entries: make([]Entry, 0, len(names))}
	for i, name := range names {
		m.Entries = append(m.Entries, Entry{
			Index: i,
			Name:  name,
			Path:  filepath.Join(dir, name),
		})
	}
	return m, nil
}

// listFiles returns the sorted base names of the regular files in dir.
func listFiles(dir string, ignore []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Errorf("reading directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if pipeline.IsMarker(e.Name()) {
			continue
		}

		isDir := e.IsDir()
		if e.Type()&fs.ModeSymlink != 0 {
			info, err := os.Stat(filepath.Join(dir, e.Name()))
			if err != nil {
				// dangling link, nothing to process
				continue
			}
			isDir = info.IsDir()
		}
		if isDir {
			continue
		}

		skip, err := matchesAny(e.Name(), ignore)
		if err != nil {
			return nil, err
		}
		if skip {
			continue
		}

		names = append(names, e.Name())
	}

	// os.ReadDir already sorts by name
	return names, nil
}

func matchesAny(name string, patterns []string) (bool, error) {
	for _, pattern := range patterns {
		ok, err := doublestar.Match(pattern, name)
		if err != nil {
			return false, errors.Errorf("matching ignore pattern %q: %w", pattern, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Drain removes every manifest file from disk. Files already gone are skipped.
func (m *Manifest) Drain() (int, error) {
	removed := 0
	for _, e := range m.Entries {
		if err := os.Remove(e.Path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return removed, errors.Errorf("removing %s: %w", e.Path, err)
		}
		removed++
	}
	return removed, nil
}

// DrainDir removes every regular file directly inside dir, keeping
// subdirectories and the pipeline marker.
func DrainDir(dir string) (int, error) {
	m, err := Snapshot(dir, nil)
	if err != nil {
		return 0, err
	}
	return m.Drain()
}
