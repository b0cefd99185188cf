// Package assets indexes the files of a task directory and locates the images
// and attachments belonging to each task number.
//
// The directory is listed once; task enumeration and every per-task lookup
// are answered from that snapshot.
package assets

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/kamachkin/Moodle-XML-generator/internal/errors"
	"github.com/kamachkin/Moodle-XML-generator/internal/ident"
)

// Default extension sets.
var (
	DefaultImageExtensions     = []string{".png", ".jpg", ".jpeg"}
	DefaultAuxiliaryExtensions = []string{
		".txt", ".csv", ".xlsx", ".xls", ".doc", ".docx", ".pdf",
		".zip", ".rar", ".json", ".xml", ".html", ".py", ".cpp", ".pas",
	}
)

// Kind distinguishes images rendered inline from downloadable attachments.
type Kind int

const (
	PrimaryImage Kind = iota
	AuxiliaryFile
)

func (k Kind) String() string {
	if k == AuxiliaryFile {
		return "auxiliary"
	}
	return "image"
}

// File is an asset belonging to a task.
type File struct {
	Path string // Directory joined with Name
	Name string // Name as listed in the directory
	Kind Kind
}

// Options configure a scan.
type Options struct {
	ImageExtensions     []string // Defaults to DefaultImageExtensions
	AuxiliaryExtensions []string // Defaults to DefaultAuxiliaryExtensions
	Exclude             []string // File names left out of the index
	Logger              *slog.Logger
}

type entry struct {
	name string // as listed
	base string // NFC-normalized name without extension
	kind Kind
	id   ident.ID
}

// Index is a snapshot of one directory listing.
type Index struct {
	dir     string
	entries []entry
	byTask  map[int][]int // task number -> positions in entries
	logger  *slog.Logger
}

// Scan lists dir (without recursion) and indexes its image and auxiliary files.
func Scan(dir string, opts Options) (*Index, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("failed to list directory %s", dir))
	}

	names := make([]string, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		names = append(names, de.Name())
	}

	return NewIndex(dir, names, opts), nil
}

// NewIndex builds an index from an explicit listing of names inside dir.
func NewIndex(dir string, names []string, opts Options) *Index {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	images := extSet(opts.ImageExtensions, DefaultImageExtensions)
	aux := extSet(opts.AuxiliaryExtensions, DefaultAuxiliaryExtensions)
	exclude := make(map[string]bool, len(opts.Exclude))
	for _, name := range opts.Exclude {
		exclude[norm.NFC.String(name)] = true
	}

	ix := &Index{
		dir:    dir,
		byTask: make(map[int][]int),
		logger: logger,
	}

	for _, name := range names {
		normalized := norm.NFC.String(name)
		if exclude[normalized] {
			continue
		}

		ext := strings.ToLower(filepath.Ext(normalized))
		var kind Kind
		switch {
		case images[ext]:
			kind = PrimaryImage
		case aux[ext]:
			kind = AuxiliaryFile
		default:
			continue
		}

		id, rule, ok := ident.Match(normalized)
		if !ok {
			logger.Debug("assets.unmatched", "file", name)
			continue
		}
		logger.Debug("assets.matched", "file", name, "task", id.Number, "suffix", id.Suffix, "rule", rule)

		ix.entries = append(ix.entries, entry{
			name: name,
			base: ident.StripExt(normalized),
			kind: kind,
			id:   id,
		})
		ix.byTask[id.Number] = append(ix.byTask[id.Number], len(ix.entries)-1)
	}

	return ix
}

// Dir returns the indexed directory.
func (ix *Index) Dir() string {
	return ix.dir
}

// Len returns the number of indexed files that resolved to a task.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Tasks returns every task number named by an image file, ascending.
func (ix *Index) Tasks() []int {
	var tasks []int
	for n, positions := range ix.byTask {
		for _, p := range positions {
			if ix.entries[p].kind == PrimaryImage {
				tasks = append(tasks, n)
				break
			}
		}
	}
	sort.Ints(tasks)
	return tasks
}

// Images returns the images of task n sorted by name: files named by a
// canonical template plus every image carrying a part suffix for n.
func (ix *Index) Images(n int) []File {
	return ix.locate(n, PrimaryImage, ident.ImageBases(n))
}

// Auxiliary returns the attachments of task n sorted by name: files named by a
// canonical template plus every attachment carrying a part suffix for n.
func (ix *Index) Auxiliary(n int) []File {
	return ix.locate(n, AuxiliaryFile, ident.AttachmentBases(n))
}

func (ix *Index) locate(n int, kind Kind, canonical []string) []File {
	bases := make(map[string]bool, len(canonical))
	for _, b := range canonical {
		bases[b] = true
	}

	seen := make(map[string]bool)
	var files []File
	for _, p := range ix.byTask[n] {
		e := ix.entries[p]
		if e.kind != kind {
			continue
		}
		if !bases[e.base] && !e.id.HasSuffix() {
			continue
		}
		path := filepath.Join(ix.dir, e.name)
		if seen[path] {
			continue
		}
		seen[path] = true
		files = append(files, File{Path: path, Name: e.name, Kind: kind})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files
}

func extSet(exts, defaults []string) map[string]bool {
	if len(exts) == 0 {
		exts = defaults
	}
	set := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = true
	}
	return set
}
