// Package output renders a processed step as a text table, a JSON document
// or an MCNP source deck, and writes the artifacts atomically.
package output

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"fisdef/internal/decay"
	"fisdef/internal/distribution"
	"fisdef/internal/inventory"
	"fisdef/internal/logging"
	"fisdef/internal/spectrum"
)

// Artifact is everything known about one processed step.
type Artifact struct {
	RunID     string
	Step      *inventory.Step
	Radiation decay.RadiationType
	Sort      spectrum.SortKey
	Entries   []spectrum.Entry
	Source    *distribution.Source // nil when there is no distribution
}

// Format selects a renderer and its file extension.
type Format int

const (
	FormatText Format = iota
	FormatJSON
	FormatMCNP
)

// Ext returns the file extension without the dot.
func (f Format) Ext() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatMCNP:
		return "i"
	default:
		return "txt"
	}
}

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatMCNP:
		return "mcnp"
	default:
		return "text"
	}
}

// Render writes a in format f.
func (f Format) Render(w io.Writer, a *Artifact) error {
	switch f {
	case FormatJSON:
		return JSON(w, a)
	case FormatMCNP:
		return MCNPDeck(w, a)
	default:
		return TextTable(w, a)
	}
}

// Path builds "<prefix>_<index>.<ext>".
func Path(prefix string, index int, ext string) string {
	return prefix + "_" + strconv.Itoa(index) + "." + ext
}

// Writer writes artifacts. Writes to the same path are serialized and every
// file is replaced atomically, so a reader sees either the previous content
// or the complete new content.
type Writer struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewWriter returns a ready Writer.
func NewWriter() *Writer {
	return &Writer{locks: make(map[string]*sync.Mutex)}
}

func (w *Writer) lock(path string) func() {
	w.mu.Lock()
	l, ok := w.locks[path]
	if !ok {
		l = &sync.Mutex{}
		w.locks[path] = l
	}
	w.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// WriteArtifact renders a in format f to Path(prefix, step index, ext) and
// returns the path actually written.
func (w *Writer) WriteArtifact(prefix string, f Format, a *Artifact) (string, error) {
	path := Path(prefix, a.Step.Index, f.Ext())
	return w.Write(path, func(out io.Writer) error { return f.Render(out, a) })
}

// Write renders into memory and then replaces path. Parent directories are
// created; when that fails the file goes to the working directory instead.
func (w *Writer) Write(path string, render func(io.Writer) error) (string, error) {
	log := logging.Get(logging.CategoryOutput)

	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		fallback := filepath.Base(path)
		log.Warnf("could not create %s (%v), writing %s instead", dir, err, fallback)
		path, dir = fallback, "."
	}

	unlock := w.lock(path)
	defer unlock()

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath) // Clean up
		return "", fmt.Errorf("failed to rename temp file: %w", err)
	}

	log.Debugf("wrote %s (%d bytes)", path, buf.Len())
	return path, nil
}
