/*
Copyright 2024 The Torrust Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package templateengine is the template engine and renderer (C4,
// spec.md §4.2): bundled //go:embed templates rendered with text/template
// into a per-environment build directory, published atomically via a
// .staging/ directory renamed into place, with the previous render backed
// up to .prev/.
package templateengine

import (
	"bytes"
	"embed"
	"io/fs"
	"path"
	"strings"
	"text/template"

	"github.com/spf13/afero"

	"github.com/torrust/tracker-deployer/internal/apperrors"
)

//go:embed all:templates
var bundled embed.FS

const templatesRoot = "templates"

// Engine renders bundled templates into a build directory on fs. fs is an
// afero.Fs rather than the real OS filesystem directly, matching
// internal/repository's testability pattern.
type Engine struct {
	fs       afero.Fs
	buildDir string // e.g. build/<env-name>
}

// New binds an Engine to the build directory for one environment.
func New(fs afero.Fs, buildDir string) *Engine {
	return &Engine{fs: fs, buildDir: buildDir}
}

// Family identifies one renderable artifact tree (spec.md §4.2: "a
// subdirectory named by the artifact family").
type Family string

const (
	FamilyTofuLxd     Family = "tofu/lxd"
	FamilyTofuHetzner Family = "tofu/hetzner"
	FamilyAnsible     Family = "ansible"
	FamilyRelease     Family = "release"
)

// renderedFile is one template's output, relative to the family root.
type renderedFile struct {
	relPath string
	content []byte
	mode    fs.FileMode
}

// render executes every template under templates/<family> against data and
// returns the rendered files, stripping the ".tmpl" suffix from each name.
func render(family Family, data interface{}) ([]renderedFile, error) {
	root := path.Join(templatesRoot, string(family))
	var out []renderedFile

	err := fs.WalkDir(bundled, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		raw, err := bundled.ReadFile(p)
		if err != nil {
			return err
		}
		tmpl, err := template.New(d.Name()).Option("missingkey=error").Parse(string(raw))
		if err != nil {
			return apperrors.Wrapf(apperrors.KindTemplateRender, err, "template %s failed to parse", p)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return apperrors.Wrapf(apperrors.KindTemplateRender, err, "template %s failed to render", p)
		}

		rel := strings.TrimPrefix(p, root+"/")
		rel = strings.TrimSuffix(rel, ".tmpl")
		mode := fs.FileMode(0o644)
		if strings.Contains(rel, "secrets") {
			mode = 0o600
		}
		out = append(out, renderedFile{relPath: rel, content: buf.Bytes(), mode: mode})
		return nil
	})
	if err != nil {
		if ae, ok := err.(*apperrors.Error); ok {
			return nil, ae
		}
		return nil, apperrors.Wrapf(apperrors.KindTemplateRender, err, "failed to walk templates for family %s", family)
	}
	if len(out) == 0 {
		return nil, apperrors.Newf(apperrors.KindTemplateRender, "no templates found for family %s", family)
	}
	return out, nil
}

// Render renders family with data into e.buildDir/<family>, publishing
// atomically: write to .staging/<family>, back up any existing family
// directory to .prev/<family>, then rename staging into place.
//
// Refuses (ArtifactConflict) if a .staging/<family> directory is already
// present from an interrupted prior render — it may belong to a tool
// still reading from it.
func (e *Engine) Render(family Family, data interface{}) error {
	files, err := render(family, data)
	if err != nil {
		return err
	}

	staging := path.Join(e.buildDir, ".staging", string(family))
	target := path.Join(e.buildDir, string(family))
	prev := path.Join(e.buildDir, ".prev", string(family))

	if exists, _ := afero.DirExists(e.fs, staging); exists {
		return apperrors.Newf(apperrors.KindArtifactConflict,
			"staging directory %s already exists from an interrupted render", staging).
			WithHint("remove it manually after confirming no tool is using it, then retry")
	}

	if err := e.fs.MkdirAll(staging, 0o755); err != nil {
		return apperrors.Wrapf(apperrors.KindIoError, err, "failed to create staging directory %s", staging)
	}
	for _, f := range files {
		dst := path.Join(staging, f.relPath)
		if err := e.fs.MkdirAll(path.Dir(dst), 0o755); err != nil {
			return apperrors.Wrapf(apperrors.KindIoError, err, "failed to create directory for %s", dst)
		}
		if err := afero.WriteFile(e.fs, dst, f.content, f.mode); err != nil {
			return apperrors.Wrapf(apperrors.KindIoError, err, "failed to write %s", dst)
		}
	}

	if exists, _ := afero.DirExists(e.fs, target); exists {
		if err := e.fs.RemoveAll(prev); err != nil {
			return apperrors.Wrapf(apperrors.KindIoError, err, "failed to clear previous backup %s", prev)
		}
		if err := e.fs.MkdirAll(path.Dir(prev), 0o755); err != nil {
			return apperrors.Wrapf(apperrors.KindIoError, err, "failed to create backup parent for %s", prev)
		}
		if err := e.fs.Rename(target, prev); err != nil {
			return apperrors.Wrapf(apperrors.KindIoError, err, "failed to back up %s to %s", target, prev)
		}
	}

	if err := e.fs.MkdirAll(path.Dir(target), 0o755); err != nil {
		return apperrors.Wrapf(apperrors.KindIoError, err, "failed to create parent of %s", target)
	}
	if err := e.fs.Rename(staging, target); err != nil {
		return apperrors.Wrapf(apperrors.KindIoError, err, "failed to publish %s", target)
	}
	return nil
}

// PathFor returns the absolute path of family's rendered tree, for callers
// (adapters, handlers) that need to point a tool at it.
func (e *Engine) PathFor(family Family) string {
	return path.Join(e.buildDir, string(family))
}
