package extractor

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/teamcutter/unarc/internal/domain"
)

// Stats describes a finished extraction.
type Stats struct {
	Format  domain.Format
	Entries int64
	Bytes   int64
	Root    string
}

type dirMeta struct {
	mode    os.FileMode
	modTime time.Time
}

type pendingLink struct {
	name   string
	target string
}

// engine runs one extraction. It is not safe for concurrent use.
type engine struct {
	cfg    Config
	format domain.Format
	log    logrus.FieldLogger

	ws    *workspace
	root  string
	buf   []byte
	dirs  map[string]dirMeta
	links map[string]pendingLink
	order []string
	stats Stats
}

func run(cfg Config, f domain.Format, archive, dest string) (Stats, error) {
	dest, err := filepath.Abs(dest)
	if err != nil {
		return Stats{}, domain.IO(err)
	}

	e := &engine{
		cfg:    cfg,
		format: f,
		log: cfg.Logger().WithFields(logrus.Fields{
			"archive": archive,
			"format":  f.String(),
		}),
		buf:   make([]byte, cfg.BufferSize()),
		dirs:  make(map[string]dirMeta),
		links: make(map[string]pendingLink),
		stats: Stats{Format: f},
	}

	if err := e.extract(archive, dest); err != nil {
		e.log.WithError(err).Debug("extraction failed")
		return Stats{}, err
	}

	e.log.WithFields(logrus.Fields{
		"dest":    dest,
		"entries": e.stats.Entries,
		"bytes":   e.stats.Bytes,
	}).Debug("extraction committed")
	return e.stats, nil
}

func (e *engine) extract(archive, dest string) error {
	if err := checkDestination(dest); err != nil {
		return err
	}

	sink := e.cfg.ProgressSink()
	src, err := openSource(e.format, archive, sink, e.log)
	if err != nil {
		return err
	}
	defer src.Close()

	if e.cfg.StripRootDir() {
		entries, err := src.Scan()
		if err != nil {
			return err
		}
		if e.root, err = rootPrefix(entries); err != nil {
			return err
		}
		e.stats.Root = e.root
	}

	ws, err := newWorkspace(dest)
	if err != nil {
		return err
	}
	e.ws = ws
	defer func() {
		if err := ws.discard(); err != nil {
			e.log.WithError(err).Warn("failed to remove workspace")
		}
	}()

	sink.SetTotal(src.Total())

	stream, err := src.Stream()
	if err != nil {
		return err
	}
	defer stream.Close()

	for {
		entry, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if err := e.apply(entry, stream); err != nil {
			return err
		}
	}

	if err := e.createLinks(); err != nil {
		return err
	}
	if err := e.finalizeDirs(); err != nil {
		return err
	}
	if err := ws.commit(dest); err != nil {
		return err
	}

	sink.Finish()
	return nil
}

func (e *engine) apply(entry *domain.Entry, stream entryStream) error {
	cleaned, err := cleanName(entry.Name)
	if err != nil {
		return err
	}
	rel, keep := stripRoot(cleaned, e.root)
	if !keep {
		return nil
	}

	if err := e.checkAncestors(entry.Name, rel); err != nil {
		return err
	}
	// a later entry replaces a symlink that has not been created yet
	e.dropLink(rel, entry.Kind != domain.EntryDir)

	if err := e.ensureParent(entry.Name, rel); err != nil {
		return err
	}
	target := filepath.Join(e.ws.dir, filepath.FromSlash(rel))

	e.log.WithFields(logrus.Fields{
		"entry": entry.Name,
		"kind":  entry.Kind.String(),
	}).Debug("extracting")

	switch entry.Kind {
	case domain.EntryDir:
		err = e.writeDir(rel, target, entry)
	case domain.EntryFile:
		err = e.writeFile(rel, target, entry, stream)
	case domain.EntrySymlink:
		err = e.addLink(rel, entry)
	case domain.EntryHardlink:
		err = e.writeHardlink(rel, target, entry)
	default:
		e.log.WithField("entry", entry.Name).Info("skipping entry of unknown kind")
		return nil
	}
	if err != nil {
		return err
	}

	e.stats.Entries++
	return nil
}

// checkAncestors rejects entries that would be written below a symlink.
func (e *engine) checkAncestors(name, rel string) error {
	for dir := path.Dir(rel); dir != "."; dir = path.Dir(dir) {
		if _, ok := e.links[dir]; ok {
			return domain.UnsafePath(name, fmt.Errorf("parent %s is a symlink", dir))
		}
	}
	return nil
}

func (e *engine) dropLink(rel string, subtree bool) {
	delete(e.links, rel)
	if !subtree {
		return
	}
	prefix := rel + "/"
	for name := range e.links {
		if strings.HasPrefix(name, prefix) {
			delete(e.links, name)
		}
	}
}

func (e *engine) ensureParent(name, rel string) error {
	dir := path.Dir(rel)
	if err := e.ws.mkdir(dir); err != nil {
		return err
	}
	parent := filepath.Join(e.ws.dir, filepath.FromSlash(dir))
	resolved, err := filepath.EvalSymlinks(parent)
	if err != nil {
		return domain.IO(err)
	}
	if !within(e.ws.real, resolved) {
		return domain.UnsafePath(name, errTraversal)
	}
	return nil
}

// removeExisting clears the way for a later entry at the same path. An
// existing directory survives when the new entry is a directory too.
func removeExisting(target string, keepDir bool) error {
	fi, err := os.Lstat(target)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return domain.IO(err)
	}
	if fi.IsDir() {
		if keepDir {
			return nil
		}
		return domain.IO(os.RemoveAll(target))
	}
	return domain.IO(os.Remove(target))
}

func (e *engine) writeDir(rel, target string, entry *domain.Entry) error {
	if err := removeExisting(target, true); err != nil {
		return err
	}
	if err := e.ws.mkdir(rel); err != nil {
		return err
	}

	mode := entry.Mode.Perm()
	if mode == 0 {
		mode = 0755
	}
	e.dirs[rel] = dirMeta{mode: mode, modTime: entry.ModTime}
	return nil
}

func (e *engine) writeFile(rel, target string, entry *domain.Entry, stream entryStream) error {
	if err := removeExisting(target, false); err != nil {
		return err
	}
	e.forgetDirs(rel)

	mode := entry.Mode.Perm()
	if mode == 0 {
		mode = 0644
	}

	rc, err := stream.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return domain.IO(err)
	}

	n, err := e.copy(out, rc)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = domain.IO(cerr)
	}
	if err != nil {
		return err
	}
	e.stats.Bytes += n

	if err := os.Chmod(target, mode); err != nil {
		return domain.IO(err)
	}
	if !entry.ModTime.IsZero() {
		if err := os.Chtimes(target, entry.ModTime, entry.ModTime); err != nil {
			return domain.IO(err)
		}
	}
	return nil
}

// copy streams r into w through the engine's buffer. Read failures belong
// to the decoder, write failures to the filesystem.
func (e *engine) copy(w io.Writer, r io.Reader) (int64, error) {
	var written int64
	for {
		nr, rerr := r.Read(e.buf)
		if nr > 0 {
			nw, werr := w.Write(e.buf[:nr])
			written += int64(nw)
			if werr != nil {
				return written, domain.IO(werr)
			}
			if nw != nr {
				return written, domain.IO(io.ErrShortWrite)
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, domain.DecodeError(e.format, rerr)
		}
	}
}

func (e *engine) forgetDirs(rel string) {
	delete(e.dirs, rel)
	prefix := rel + "/"
	for name := range e.dirs {
		if strings.HasPrefix(name, prefix) {
			delete(e.dirs, name)
		}
	}
}

func (e *engine) addLink(rel string, entry *domain.Entry) error {
	if err := linkTargetLexical(rel, entry.Linkname); err != nil {
		return domain.UnsafePath(entry.Name, err)
	}
	if _, ok := e.links[rel]; !ok {
		e.order = append(e.order, rel)
	}
	e.links[rel] = pendingLink{name: entry.Name, target: entry.Linkname}
	return nil
}

func (e *engine) writeHardlink(rel, target string, entry *domain.Entry) error {
	cleaned, err := cleanName(entry.Linkname)
	if err != nil {
		return domain.UnsafePath(entry.Name, fmt.Errorf("hardlink target %s: %w", entry.Linkname, err))
	}
	linkRel, keep := stripRoot(cleaned, e.root)
	if !keep {
		return domain.UnsafePath(entry.Name, fmt.Errorf("hardlink target %s is not a file", entry.Linkname))
	}
	if linkRel == rel {
		return nil
	}
	if err := e.checkAncestors(entry.Name, linkRel); err != nil {
		return err
	}
	if _, ok := e.links[linkRel]; ok {
		return domain.UnsafePath(entry.Name, fmt.Errorf("hardlink target %s is a symlink", entry.Linkname))
	}

	src := filepath.Join(e.ws.dir, filepath.FromSlash(linkRel))
	fi, err := os.Lstat(src)
	if err != nil || !fi.Mode().IsRegular() {
		return domain.UnsafePath(entry.Name, fmt.Errorf("hardlink target %s has not been extracted", entry.Linkname))
	}

	if err := removeExisting(target, false); err != nil {
		return err
	}
	e.forgetDirs(rel)
	if err := os.Link(src, target); err != nil {
		return domain.IO(err)
	}
	return nil
}

// createLinks materializes symlinks once every file and directory is in
// place, then checks each one against what is actually on disk.
func (e *engine) createLinks() error {
	var created []string
	for _, rel := range e.order {
		link, ok := e.links[rel]
		if !ok {
			continue
		}
		target := filepath.Join(e.ws.dir, filepath.FromSlash(rel))
		if err := removeExisting(target, false); err != nil {
			return err
		}
		e.forgetDirs(rel)
		if err := os.Symlink(link.target, target); err != nil {
			return domain.IO(err)
		}
		created = append(created, rel)
	}

	for _, rel := range created {
		link := e.links[rel]
		dir := filepath.Join(e.ws.real, filepath.FromSlash(path.Dir(rel)))
		if _, err := resolveInRoot(e.ws.real, dir, link.target, 0); err != nil {
			return domain.UnsafePath(link.name, fmt.Errorf("symlink target %s: %w", link.target, err))
		}
	}
	return nil
}

// finalizeDirs applies directory modes deepest first so a read-only
// directory never blocks work inside it.
func (e *engine) finalizeDirs() error {
	rels := make([]string, 0, len(e.dirs))
	for rel := range e.dirs {
		rels = append(rels, rel)
	}
	sort.Slice(rels, func(i, j int) bool {
		return strings.Count(rels[i], "/") > strings.Count(rels[j], "/")
	})

	for _, rel := range rels {
		meta := e.dirs[rel]
		target := filepath.Join(e.ws.dir, filepath.FromSlash(rel))
		resolved, err := filepath.EvalSymlinks(target)
		if err != nil || resolved != filepath.Join(e.ws.real, filepath.FromSlash(rel)) {
			continue
		}
		if !meta.modTime.IsZero() {
			if err := os.Chtimes(target, meta.modTime, meta.modTime); err != nil {
				return domain.IO(err)
			}
		}
		if err := os.Chmod(target, meta.mode); err != nil {
			return domain.IO(err)
		}
	}
	return nil
}
