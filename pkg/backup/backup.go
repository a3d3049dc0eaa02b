// Package backup implements the end-to-end ingest data flow:
// Source -> (TreeBuilder per directory) -> file items -> Chunker -> raw
// chunks -> ChunkPipeline -> packed blob writes, wired over a locked,
// decrypted repository and finished with one new Index and one new
// Snapshot.
package backup

import (
	"fmt"
	"io"
	"time"

	"github.com/dechst-go/dechst/pkg/chunker"
	cborcodec "github.com/dechst-go/dechst/pkg/codec/cbor"
	"github.com/dechst-go/dechst/pkg/id"
	"github.com/dechst-go/dechst/pkg/obj"
	objtree "github.com/dechst-go/dechst/pkg/obj/tree"
	"github.com/dechst-go/dechst/pkg/repo"
	"github.com/dechst-go/dechst/pkg/source"
	"github.com/dechst-go/dechst/pkg/tree"
)

// DefaultPackTargetSize is the blob-region size a Pack is flushed at once
// exceeded, chosen so a single pack holds a few hundred average-sized
// chunks without growing unbounded in memory.
const DefaultPackTargetSize = 4 * 1024 * 1024 // 4 MiB

// Options configures one Backup call. A zero Options is valid: PackTargetSize
// falls back to DefaultPackTargetSize.
type Options struct {
	PackTargetSize int
	Tags           []string
	Name           string
	Description    string
	Parent         *id.Id
}

// Result is what a completed Backup run produced.
type Result struct {
	SnapshotID id.Id
	Snapshot   obj.Snapshot
}

// Backup walks src from its top level, chunking every file with FastCDC,
// pipelining each chunk and each directory's Tree blob, packing them via lr,
// and finally writing one new Index and one new Snapshot. lr must hold at
// least pack:Exclusive, index:Exclusive, and snapshot:Exclusive (repo.WriteLock
// satisfies this). root is recorded on the Snapshot as the nominal source path
// (a filesystem path, or "stdin" for stdinsource.StdinSource).
func Backup(lr *repo.LockedRepo, src source.Source, root string, opts Options) (Result, error) {
	targetSize := opts.PackTargetSize
	if targetSize <= 0 {
		targetSize = DefaultPackTargetSize
	}

	known, err := knownBlobIDs(lr)
	if err != nil {
		return Result{}, fmt.Errorf("backup: load existing index: %w", err)
	}

	cdc, err := chunker.New(lr.Pipeline().Opts.Chunker)
	if err != nil {
		return Result{}, fmt.Errorf("backup: construct chunker: %w", err)
	}

	w := newPackWriter(lr, targetSize)
	ing := &ingester{lr: lr, src: src, cdc: cdc, known: known, w: w}

	builder := tree.NewBuilder()
	if err := ing.walk(builder, nil, nil); err != nil {
		return Result{}, err
	}

	rootTreeID, err := builder.Finalize(ing.writeTree)
	if err != nil {
		return Result{}, fmt.Errorf("backup: finalize tree: %w", err)
	}

	packEntries, err := w.finish()
	if err != nil {
		return Result{}, fmt.Errorf("backup: flush final pack: %w", err)
	}

	if len(packEntries) > 0 {
		idx := obj.Index{Packs: packEntries}
		if _, err := lr.IndexWrite(idx); err != nil {
			return Result{}, fmt.Errorf("backup: write index: %w", err)
		}
	}

	snap := obj.NewSnapshot(rootTreeID, root)
	snap.Tags = opts.Tags
	snap.Name = opts.Name
	snap.Description = opts.Description
	snap.Parent = opts.Parent

	snapID, err := lr.SnapshotWrite(snap)
	if err != nil {
		return Result{}, fmt.Errorf("backup: write snapshot: %w", err)
	}
	snap.ID = snapID

	return Result{SnapshotID: snapID, Snapshot: snap}, nil
}

// knownBlobIDs collects every blob id already referenced by a live Index,
// so Backup can skip re-packing content it has already stored.
func knownBlobIDs(lr *repo.LockedRepo) (map[id.Id]bool, error) {
	known := make(map[id.Id]bool)
	it, err := lr.Indices()
	if err != nil {
		return nil, err
	}
	for it.Next() {
		idx, err := lr.IndexRead(it.Id())
		if err != nil {
			return nil, err
		}
		for _, pe := range idx.Packs {
			for _, be := range pe.Blobs {
				known[be.ID] = true
			}
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return known, nil
}

// ingester holds the state threaded through one Backup call's directory walk.
type ingester struct {
	lr    *repo.LockedRepo
	src   source.Source
	cdc   *chunker.FastCDC
	known map[id.Id]bool
	w     *packWriter
}

// walk lists dir's children (dir is nil for the source's top level) and adds
// each to builder at dirPath. A child directory's own node is added at
// dirPath before walk recurses into it at dirPath+name; a child file is
// fully chunked and packed before its node is added. dirPath is the path at
// which dir's own children live (empty for the top level).
func (ing *ingester) walk(builder *tree.Builder, dir source.Item, dirPath []string) error {
	it, err := ing.src.Iter(dir)
	if err != nil {
		return fmt.Errorf("backup: list children: %w", err)
	}

	for it.Next() {
		child := it.Item()
		node, err := ing.src.Node(child)
		if err != nil {
			return err
		}

		if child.CanDescend() {
			builder.Add(dirPath, node)
			childPath := make([]string, len(dirPath)+1)
			copy(childPath, dirPath)
			childPath[len(dirPath)] = node.Name
			if err := ing.walk(builder, child, childPath); err != nil {
				return err
			}
			continue
		}

		if node.Kind.Kind == objtree.KindFile {
			blobs, err := ing.chunkFile(child)
			if err != nil {
				return fmt.Errorf("backup: chunk %q: %w", node.Name, err)
			}
			node.Kind.Blobs = blobs
		}
		builder.Add(dirPath, node)
	}
	if err := it.Err(); err != nil {
		return fmt.Errorf("backup: list children: %w", err)
	}
	return nil
}

// chunkFile reads item's bytes, splits them with FastCDC, and packs any
// chunk not already known, returning every chunk's content id in order.
func (ing *ingester) chunkFile(item source.Item) ([]id.Id, error) {
	r, err := ing.src.Read(item)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	c := ing.cdc.NewChunker(r)
	var blobs []id.Id
	for {
		chunk, err := c.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		blobID := ing.lr.Identify(chunk)
		blobs = append(blobs, blobID)
		if ing.known[blobID] {
			continue
		}
		if err := ing.w.add(blobID, obj.BlobKindData, chunk); err != nil {
			return nil, err
		}
		ing.known[blobID] = true
	}
	return blobs, nil
}

// writeTree is the tree.WriteFunc Backup's Builder.Finalize drives: it
// serializes t, identifies and packs it as a Tree blob, and returns the id
// its subtree was stored under so the parent Directory node's Subtree field
// can be set.
func (ing *ingester) writeTree(path []string, t objtree.Tree) (id.Id, error) {
	raw, err := cborcodec.Marshal(t)
	if err != nil {
		return id.Id{}, fmt.Errorf("backup: serialize tree: %w", err)
	}
	treeID := ing.lr.Identify(raw)
	if ing.known[treeID] {
		return treeID, nil
	}
	if err := ing.w.add(treeID, obj.BlobKindTree, raw); err != nil {
		return id.Id{}, err
	}
	ing.known[treeID] = true
	return treeID, nil
}

// packWriter accumulates processed blobs and flushes them into Pack
// objects once their combined processed size reaches targetSize, never
// holding more than one pack's worth of bytes in memory at a time.
type packWriter struct {
	lr         *repo.LockedRepo
	targetSize int
	pending    []obj.ProcessedBlob
	pendingLen int
	entries    []obj.PackEntry
}

func newPackWriter(lr *repo.LockedRepo, targetSize int) *packWriter {
	return &packWriter{lr: lr, targetSize: targetSize}
}

// add pipelines raw under blobID/kind and appends it to the pending pack,
// then flushes the pending pack once its processed size reaches targetSize.
func (w *packWriter) add(blobID id.Id, kind obj.BlobKind, raw []byte) error {
	processed, err := w.lr.Pipeline().Process(raw)
	if err != nil {
		return fmt.Errorf("backup: process blob %s: %w", blobID, err)
	}
	w.pending = append(w.pending, obj.ProcessedBlob{
		ID:             blobID,
		Kind:           kind,
		Processed:      processed,
		UnprocessedLen: uint32(len(raw)),
	})
	w.pendingLen += len(processed)
	if w.pendingLen >= w.targetSize {
		return w.flushPending()
	}
	return nil
}

// flushPending assembles every pending blob into one Pack, writes it, and
// appends the resulting PackEntry to w.entries. A no-op when nothing is
// pending, so it is safe to call unconditionally from finish.
func (w *packWriter) flushPending() error {
	if len(w.pending) == 0 {
		return nil
	}

	raw, blobEntries, err := obj.AssemblePack(w.pending)
	if err != nil {
		return fmt.Errorf("backup: assemble pack: %w", err)
	}

	packID := w.lr.Identify(raw)
	if err := w.lr.PackWrite(packID, raw); err != nil {
		return fmt.Errorf("backup: write pack %s: %w", packID, err)
	}

	now := time.Now().UTC()
	size := uint32(len(raw))
	w.entries = append(w.entries, obj.PackEntry{ID: packID, Blobs: blobEntries, Time: &now, Size: &size})

	w.pending = nil
	w.pendingLen = 0
	return nil
}

// finish flushes any remaining partial pack and returns every PackEntry
// produced across the packWriter's lifetime, in the order the packs were
// written.
func (w *packWriter) finish() ([]obj.PackEntry, error) {
	if err := w.flushPending(); err != nil {
		return nil, err
	}
	return w.entries, nil
}
