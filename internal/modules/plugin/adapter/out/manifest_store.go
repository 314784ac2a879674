package out

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"mobtime/internal/modules/plugin/domain"
	pluginout "mobtime/internal/modules/plugin/port/out"
)

// Manifest files probed in order; the first one present wins.
var manifestFiles = []string{"plugins.yaml", "plugins.yml", "plugins.json"}

// FileManifestStore reads the plugin list from dir. Relative binary paths
// resolve against dir. Unknown fields are rejected in both formats.
type FileManifestStore struct {
	dir string
}

func NewFileManifestStore(dir string) pluginout.ManifestStore {
	return &FileManifestStore{dir: dir}
}

func (s *FileManifestStore) Load(_ context.Context) ([]domain.Manifest, error) {
	for _, name := range manifestFiles {
		path := filepath.Join(s.dir, name)
		raw, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read plugin manifests: %w", err)
		}
		manifests, err := decodeManifests(name, raw)
		if err != nil {
			return nil, fmt.Errorf("decode plugin manifests %s: %w", path, err)
		}
		for i := range manifests {
			if bin := manifests[i].Binary; bin != "" && !filepath.IsAbs(bin) {
				manifests[i].Binary = filepath.Join(s.dir, bin)
			}
		}
		return manifests, nil
	}
	return []domain.Manifest{}, nil
}

func decodeManifests(name string, raw []byte) ([]domain.Manifest, error) {
	manifests := []domain.Manifest{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return manifests, nil
	}
	if filepath.Ext(name) == ".json" {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&manifests); err != nil {
			return nil, err
		}
		return manifests, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&manifests); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return manifests, nil
}
