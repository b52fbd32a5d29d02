// Package registry keeps every mind map known to the process: maps loaded in
// memory and maps discovered under the output directory. All methods are safe
// for concurrent use.
package registry

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"mindmap-server/internal/model"
	"mindmap-server/internal/pkg/logger"
	"mindmap-server/internal/render"

	"github.com/patrickmn/go-cache"
)

const module = "MindmapRegistry"

// pulldownSeparator keeps the options aligned with the template's indentation.
const pulldownSeparator = "\n          "

// ArtifactRenderer produces the self-contained download document of a map.
type ArtifactRenderer interface {
	Artifact(uuid, content string, label *string) string
}

type Registry struct {
	mu      sync.RWMutex
	loaded  map[string]*model.LoadedEntry
	local   map[string]model.LocalEntry
	outpath string

	renderer  ArtifactRenderer
	artifacts *cache.Cache
	logger    logger.ILogger

	// readFile is replaced in tests to count or fail disk reads
	readFile func(name string) ([]byte, error)
}

// SaveReport summarises one SaveMindmap run.
type SaveReport struct {
	Saved  int
	Failed int
}

// New scans outpath one level deep and records every `<uuid>/<uuid>.json`
// as a local map. Nothing is read into memory yet.
func New(outpath string, renderer ArtifactRenderer, log logger.ILogger) *Registry {
	return newRegistry(outpath, renderer, log, os.ReadFile)
}

func newRegistry(outpath string, renderer ArtifactRenderer, log logger.ILogger, readFile func(string) ([]byte, error)) *Registry {
	r := &Registry{
		loaded:    make(map[string]*model.LoadedEntry),
		local:     make(map[string]model.LocalEntry),
		outpath:   outpath,
		renderer:  renderer,
		artifacts: cache.New(1*time.Hour, 10*time.Minute),
		logger:    log,
		readFile:  readFile,
	}
	r.scan()
	return r
}

func (r *Registry) scan() {
	entries, err := os.ReadDir(r.outpath)
	if err != nil {
		r.logger.Error(module, "Failed to read output directory", map[string]interface{}{"path": r.outpath, "error": err.Error()})
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		uuid := entry.Name()
		dir := filepath.Join(r.outpath, uuid)
		jsonPath := filepath.Join(dir, uuid+".json")
		if !isRegularFile(jsonPath) {
			continue
		}

		var label *string
		labelPath := filepath.Join(dir, uuid+".txt")
		if isRegularFile(labelPath) {
			data, err := r.readFile(labelPath)
			if err != nil {
				r.logger.Error(module, "Failed to read label", map[string]interface{}{"path": labelPath, "error": err.Error()})
			} else {
				text := string(data)
				label = &text
			}
		}

		r.local[uuid] = model.LocalEntry{JSONPath: jsonPath, Label: label}
	}

	r.logger.Info(module, "Scanned output directory", map[string]interface{}{"path": r.outpath, "local": len(r.local)})
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Pulldown returns one picker option per known map with uuid selected. A uuid
// the registry has never seen is appended as a selected option. Order is
// unspecified.
func (r *Registry) Pulldown(uuid string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pulldown(uuid)
}

func (r *Registry) pulldown(uuid string) []string {
	options := make(map[string]string, len(r.loaded)+len(r.local)+1)

	// loaded first: it holds maps not yet on disk and is authoritative for labels
	for k, v := range r.loaded {
		options[k] = render.Option(k, v.Label, k == uuid)
	}
	for k, v := range r.local {
		if _, ok := options[k]; ok {
			continue
		}
		options[k] = render.Option(k, v.Label, k == uuid)
	}
	if _, ok := options[uuid]; !ok {
		options[uuid] = render.Option(uuid, nil, true)
	}

	out := make([]string, 0, len(options))
	for _, opt := range options {
		out = append(out, opt)
	}
	return out
}

// HTMLPulldown is Pulldown joined for splicing into the template.
func (r *Registry) HTMLPulldown(uuid string) string {
	return strings.Join(r.Pulldown(uuid), pulldownSeparator)
}

// GetLocalMindmap returns the stored content and label of uuid, reading it
// from disk the first time a local map is asked for. The returned pulldown
// reflects any map loaded by this call. A nil result means the map is
// unknown or could not be read.
func (r *Registry) GetLocalMindmap(uuid string) (*model.Stored, string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result *model.Stored
	if v, ok := r.loaded[uuid]; ok {
		result = &model.Stored{Content: v.Content, Label: v.Label}
	} else if l, ok := r.local[uuid]; ok {
		data, err := r.readFile(l.JSONPath)
		if err != nil {
			r.logger.Error(module, "Failed to read mindmap", map[string]interface{}{"uuid": uuid, "path": l.JSONPath, "error": err.Error()})
		} else {
			content := string(data)
			r.loaded[uuid] = &model.LoadedEntry{Content: content, Label: l.Label, Dirty: false}
			result = &model.Stored{Content: content, Label: l.Label}
			r.logger.Info(module, "Loaded mindmap from disk", map[string]interface{}{"uuid": uuid})
		}
	}

	return result, strings.Join(r.pulldown(uuid), pulldownSeparator)
}

// UpdateLoadedMindmap replaces the in-memory content and label of uuid and
// marks it dirty. It never touches disk.
func (r *Registry) UpdateLoadedMindmap(uuid, content string, label *string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.loaded[uuid]; ok {
		r.logger.Info(module, "Update mindmap", map[string]interface{}{"uuid": uuid})
		v.Content, v.Label, v.Dirty = content, label, true
	} else {
		r.logger.Info(module, "Create mindmap", map[string]interface{}{"uuid": uuid})
		r.loaded[uuid] = &model.LoadedEntry{Content: content, Label: label, Dirty: true}
	}
	r.artifacts.Delete(uuid)
}

// HTMLContent returns the download artifact of uuid if it is loaded.
func (r *Registry) HTMLContent(uuid string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.loaded[uuid]
	if !ok {
		return "", false
	}
	return r.artifact(uuid, v), true
}

// artifact must be called with r.mu held. Readers may race to fill the same
// key; they render identical documents.
func (r *Registry) artifact(uuid string, v *model.LoadedEntry) string {
	if x, found := r.artifacts.Get(uuid); found {
		return x.(string)
	}
	html := r.renderer.Artifact(uuid, v.Content, v.Label)
	r.artifacts.Set(uuid, html, cache.DefaultExpiration)
	return html
}

// SaveMindmap writes every dirty loaded map to `<outpath>/<uuid>/`. Failures
// are logged and skipped. Dirty bits stay set and an existing label file is
// left in place when the label is absent.
func (r *Registry) SaveMindmap() SaveReport {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var report SaveReport
	for uuid, v := range r.loaded {
		if !v.Dirty {
			continue
		}
		if r.save(uuid, v) {
			report.Saved++
		} else {
			report.Failed++
		}
	}

	r.logger.Info(module, "Saved mindmaps", map[string]interface{}{"saved": report.Saved, "failed": report.Failed})
	return report
}

func (r *Registry) save(uuid string, v *model.LoadedEntry) bool {
	dir := filepath.Join(r.outpath, uuid)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		r.logger.Error(module, "Failed to create mindmap directory", map[string]interface{}{"uuid": uuid, "path": dir, "error": err.Error()})
		return false
	}

	// fixed order: html, json, then label
	type file struct {
		kind string
		name string
		data string
	}
	files := []file{
		{"html", uuid + ".html", r.artifact(uuid, v)},
		{"data", uuid + ".json", v.Content},
	}
	if text, ok := model.LabelOf(v.Label); ok {
		files = append(files, file{"label", uuid + ".txt", text})
	}

	ok := true
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, []byte(f.data), 0o644); err != nil {
			r.logger.Error(module, "Failed to save mindmap "+f.kind, map[string]interface{}{"uuid": uuid, "path": path, "error": err.Error()})
			ok = false
		}
	}
	return ok
}

// Len reports how many maps are in memory and how many were found on disk.
func (r *Registry) Len() (loaded, local int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.loaded), len(r.local)
}

// IsDirty reports whether uuid is loaded with unsaved changes.
func (r *Registry) IsDirty(uuid string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.loaded[uuid]
	return ok && v.Dirty
}
