package digestcache

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"mediasort/internal/faults"
	"mediasort/internal/logging"
)

const (
	// DefaultSidecarName is the reserved cache filename inside each directory.
	DefaultSidecarName = ".secure_hashes"
	// DefaultBlockSize is the read size used while hashing.
	DefaultBlockSize = 64 * 1024

	// Save stages the sidecar in "<sidecar>.tmp<random>" before renaming it.
	tempInfix = ".tmp"
	fieldCount = 4
)

// ErrChanged reports that a file's size or modification time moved while it
// was being hashed, so the digest cannot be trusted.
var ErrChanged = errors.New("file changed while hashing")

// Options configures a cache.
type Options struct {
	SidecarName string
	BlockSize   int
	Logger      *slog.Logger
}

// Cache is the in-memory digest cache for one directory.
type Cache struct {
	fsys      afero.Fs
	dir       string
	sidecar   string
	blockSize int
	logger    *slog.Logger
	entries   map[string]Entry
	stats     Stats
}

// Load reads the sidecar in dir, keeping only entries whose filename is in
// currentFiles and whose size and modification time match a fresh stat.
func Load(fsys afero.Fs, dir string, currentFiles []string, opts Options) (*Cache, error) {
	c := &Cache{
		fsys:      fsys,
		dir:       dir,
		sidecar:   opts.SidecarName,
		blockSize: opts.BlockSize,
		logger:    logging.NewComponentLogger(opts.Logger, "digestcache"),
		entries:   make(map[string]Entry),
	}
	if c.sidecar == "" {
		c.sidecar = DefaultSidecarName
	}
	if c.blockSize <= 0 {
		c.blockSize = DefaultBlockSize
	}

	data, err := afero.ReadFile(fsys, c.Path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c, nil
		}
		return nil, faults.Wrap(faults.ErrIO, "dedup", "load cache", "read "+c.Path(), err)
	}

	rows, err := parseRows(c.Path(), data)
	if err != nil {
		return nil, err
	}

	present := make(map[string]struct{}, len(currentFiles))
	for _, name := range currentFiles {
		present[name] = struct{}{}
	}
	for _, row := range rows {
		c.stats.Loaded++
		if _, ok := present[row.Filename]; !ok {
			c.stats.Dropped++
			continue
		}
		info, err := fsys.Stat(filepath.Join(dir, row.Filename))
		if err != nil || !row.Matches(info.Size(), info.ModTime()) {
			c.stats.Dropped++
			continue
		}
		c.entries[row.Filename] = row
	}

	c.logger.Debug("loaded digest cache",
		logging.String("path", c.Path()),
		logging.Int("rows", c.stats.Loaded),
		logging.Int("valid", len(c.entries)),
		logging.Int("dropped", c.stats.Dropped),
	)
	return c, nil
}

// parseRows validates every row of a sidecar. Later rows for the same filename
// replace earlier ones.
func parseRows(path string, data []byte) ([]Entry, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	var rows []Entry
	index := make(map[string]int)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, corrupt(path, 0, "unparseable csv", err)
		}
		line, _ := reader.FieldPos(0)
		entry, err := parseRow(record)
		if err != nil {
			return nil, corrupt(path, line, err.Error(), nil)
		}
		if i, ok := index[entry.Filename]; ok {
			rows[i] = entry
			continue
		}
		index[entry.Filename] = len(rows)
		rows = append(rows, entry)
	}
	return rows, nil
}

func parseRow(record []string) (Entry, error) {
	if len(record) != fieldCount {
		return Entry{}, fmt.Errorf("expected %d fields, found %d", fieldCount, len(record))
	}
	if record[0] == "" {
		return Entry{}, errors.New("empty filename")
	}
	if !validDigest(record[1]) {
		return Entry{}, fmt.Errorf("invalid digest %q", record[1])
	}
	size, err := strconv.ParseInt(record[2], 10, 64)
	if err != nil || size < 0 {
		return Entry{}, fmt.Errorf("invalid size %q", record[2])
	}
	stamp, err := strconv.ParseFloat(record[3], 64)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid modification time %q", record[3])
	}
	return Entry{Filename: record[0], Digest: record[1], Size: size, ModifiedAt: Stamp(stamp)}, nil
}

func corrupt(path string, line int, reason string, err error) error {
	msg := fmt.Sprintf("%s: %s", path, reason)
	if line > 0 {
		msg = fmt.Sprintf("%s row %d: %s", path, line, reason)
	}
	return faults.Wrap(faults.ErrCacheCorrupt, "dedup", "load cache", msg, err)
}

// Path returns the sidecar location.
func (c *Cache) Path() string {
	return filepath.Join(c.dir, c.sidecar)
}

// IsReserved reports whether name belongs to the cache itself and must never
// be treated as a data file.
func (c *Cache) IsReserved(name string) bool {
	return IsReservedName(name, c.sidecar)
}

// IsReservedName is IsReserved for callers without a loaded cache.
func IsReservedName(name, sidecar string) bool {
	if sidecar == "" {
		sidecar = DefaultSidecarName
	}
	return name == sidecar || strings.HasPrefix(name, sidecar+tempInfix)
}

// Lookup returns the entry for filename if one is held.
func (c *Cache) Lookup(filename string) (Entry, bool) {
	entry, ok := c.entries[filename]
	return entry, ok
}

// DigestOf returns the digest of filename, serving a valid entry when possible
// and hashing the file otherwise. Fresh digests are recorded in the cache.
func (c *Cache) DigestOf(filename string) (string, error) {
	path := filepath.Join(c.dir, filename)
	before, err := c.fsys.Stat(path)
	if err != nil {
		return "", err
	}
	if entry, ok := c.entries[filename]; ok && entry.Matches(before.Size(), before.ModTime()) {
		c.stats.Reused++
		return entry.Digest, nil
	}

	digest, err := HashFile(c.fsys, path, c.blockSize)
	if err != nil {
		return "", faults.Wrap(faults.ErrIO, "dedup", "hash", filename, err)
	}

	after, err := c.fsys.Stat(path)
	if err != nil {
		return "", err
	}
	if after.Size() != before.Size() || !after.ModTime().Equal(before.ModTime()) {
		delete(c.entries, filename)
		return "", fmt.Errorf("%s: %w", path, ErrChanged)
	}

	c.entries[filename] = Entry{
		Filename:   filename,
		Digest:     digest,
		Size:       before.Size(),
		ModifiedAt: StampOf(before.ModTime()),
	}
	c.stats.Hashed++
	return digest, nil
}

// Forget removes filename from the cache.
func (c *Cache) Forget(filename string) {
	delete(c.entries, filename)
}

// Len returns the number of held entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Entries returns the held entries sorted by filename.
func (c *Cache) Entries() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out
}

// Stats returns the counters accumulated since Load.
func (c *Cache) Stats() Stats {
	return c.stats
}

// Save persists the cache. A non-empty cache replaces the sidecar atomically;
// an empty one removes it so no empty sidecar is left behind.
func (c *Cache) Save() error {
	path := c.Path()
	if len(c.entries) == 0 {
		if err := c.fsys.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return faults.Wrap(faults.ErrIO, "dedup", "save cache", "remove empty "+path, err)
		}
		return nil
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	for _, entry := range c.Entries() {
		record := []string{entry.Filename, entry.Digest, strconv.FormatInt(entry.Size, 10), entry.ModifiedAt.String()}
		if err := writer.Write(record); err != nil {
			return faults.Wrap(faults.ErrIO, "dedup", "save cache", "encode "+path, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return faults.Wrap(faults.ErrIO, "dedup", "save cache", "encode "+path, err)
	}

	tmp, err := afero.TempFile(c.fsys, c.dir, c.sidecar+tempInfix+"*")
	if err != nil {
		return faults.Wrap(faults.ErrIO, "dedup", "save cache", "create temp in "+c.dir, err)
	}
	tmpPath := tmp.Name()
	_, err = tmp.Write(buf.Bytes())
	if err == nil {
		err = c.fsys.Chmod(tmpPath, 0o644)
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = c.fsys.Remove(tmpPath)
		return faults.Wrap(faults.ErrIO, "dedup", "save cache", "write "+tmpPath, err)
	}
	if err := c.fsys.Rename(tmpPath, path); err != nil {
		_ = c.fsys.Remove(tmpPath)
		return faults.Wrap(faults.ErrIO, "dedup", "save cache", "replace "+path, err)
	}
	c.logger.Debug("saved digest cache", logging.String("path", path), logging.Int("entries", len(c.entries)))
	return nil
}
