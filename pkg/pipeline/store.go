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

package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 💾 Save writes the pipeline into its marker file. The content is written
// to a temp file next to the marker and renamed over it.
func Save(ctx context.Context, p *Pipeline) error {
	if err := p.Validate(); err != nil {
		return errors.Errorf("validating pipeline: %w", err)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return errors.Errorf("encoding pipeline: %w", err)
	}

	if err := writeFileAtomic(p.MarkerPath(), append(data, '\n')); err != nil {
		return err
	}

	zerolog.Ctx(ctx).Info().Str("path", p.MarkerPath()).Msg("config file saved")
	return nil
}

func writeFileAtomic(path string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Errorf("renaming temp file: %w", err)
	}

	return nil
}

// 📖 Load reads the marker file under root.
//
// A missing root or marker yields *ConfigNotFoundError. Malformed JSON,
// unknown or missing fields, trailing data, relative paths and a broken
// directory chain yield *ConfigCorruptError.
func Load(ctx context.Context, root string) (*Pipeline, error) {
	logger := zerolog.Ctx(ctx)

	abs, err := filepath.Abs(os.ExpandEnv(root))
	if err != nil {
		return nil, errors.Errorf("resolving pipeline folder: %w", err)
	}
	path := filepath.Join(abs, MarkerName)

	logger.Debug().Str("path", path).Msg("loading pipeline config")

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &ConfigNotFoundError{Path: path, Err: err}
		}
		return nil, errors.Errorf("checking pipeline folder: %w", err)
	}
	if !info.IsDir() {
		return nil, &ConfigNotFoundError{Path: path, Err: errors.Errorf("%s is not a directory", abs)}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &ConfigNotFoundError{Path: path, Err: err}
		}
		return nil, errors.Errorf("reading config file: %w", err)
	}

	var p Pipeline
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&p); err != nil {
		return nil, &ConfigCorruptError{Path: path, Err: errors.Errorf("parsing JSON: %w", err)}
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, &ConfigCorruptError{Path: path, Err: errors.Errorf("parsing JSON: unexpected data after the pipeline object at offset %d", decoder.InputOffset())}
	}

	if p.Stages == nil {
		p.Stages = []Stage{}
	}

	if err := p.Validate(); err != nil {
		return nil, &ConfigCorruptError{Path: path, Err: err}
	}

	if filepath.Clean(p.Root) != abs {
		logger.Warn().
			Str("folder", p.Root).
			Str("loaded_from", abs).
			Msg("pipeline folder recorded in config differs from the folder it was loaded from")
	}

	logger.Info().Int("stages", len(p.Stages)).Str("path", path).Msg("pipeline config loaded")

	return &p, nil
}
