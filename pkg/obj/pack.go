package obj

import (
	"encoding/binary"
	"fmt"

	cborcodec "github.com/dechst-go/dechst/pkg/codec/cbor"
	"github.com/dechst-go/dechst/pkg/id"
)

// HeaderEntry describes one blob stored in a Pack's header, mirroring
// BlobEntry but without an Offset: header entries are read in order and the
// reader reconstructs offsets by walking ProcessedLen as it goes.
type HeaderEntry struct {
	Kind           BlobKind `cbor:"kind"`
	ProcessedLen   uint32   `cbor:"processed_len"`
	UnprocessedLen uint32   `cbor:"unprocessed_len"`
	ID             id.Id    `cbor:"id"`
}

// PackHeader is the in-memory form of a Pack's header. AssemblePack
// serializes it as plain CBOR between the blob region and the header_len
// trailer; the header is not pipelined.
type PackHeader struct {
	Entries []HeaderEntry `cbor:"entries"`
}

// Pack is the container format for a run of processed blobs: a blob region
// followed by a serialized PackHeader, followed by a fixed trailer recording
// the header's length so a reader can seek straight to it without scanning
// the blob region. Unlike every other object kind, a Pack's raw
// bytes are never themselves wrapped in CBOR or pipelined as a whole: only
// AssemblePack's exact byte layout is compatibility-critical, so Pack exists
// here only to carry Kind() for code that needs an Object value to refer to
// the kind generically.
type Pack struct{}

// Kind implements Object.
func (Pack) Kind() Kind { return KindPack }

// headerLenSize is the width of the trailing little-endian header_len
// field.
const headerLenSize = 4

// ProcessedBlob is one blob ready to be packed: bytes already through the
// full ChunkPipeline, alongside the identifying metadata a pack's header
// records about it. UnprocessedLen is the plaintext length before Process
// ran, carried so a reader can size its output buffer without guessing at
// the compression ratio.
type ProcessedBlob struct {
	ID             id.Id
	Kind           BlobKind
	Processed      []byte
	UnprocessedLen uint32
}

// AssemblePack concatenates blobs' Processed bytes into the blob region,
// builds and serializes the PackHeader trailer, and appends the header_len
// LE trailer. The resulting byte layout is compatibility-critical: readers
// seek to it from the end of the file. It also returns the BlobEntry for
// each blob with its Offset resolved, ready to fold into an
// Index.PackEntry.
func AssemblePack(blobs []ProcessedBlob) (raw []byte, entries []BlobEntry, err error) {
	var blobRegion []byte
	header := PackHeader{Entries: make([]HeaderEntry, 0, len(blobs))}
	entries = make([]BlobEntry, 0, len(blobs))

	var offset uint32
	for _, b := range blobs {
		processedLen := uint32(len(b.Processed))
		blobRegion = append(blobRegion, b.Processed...)
		header.Entries = append(header.Entries, HeaderEntry{
			Kind:           b.Kind,
			ProcessedLen:   processedLen,
			UnprocessedLen: b.UnprocessedLen,
			ID:             b.ID,
		})
		entries = append(entries, BlobEntry{
			ID:             b.ID,
			Kind:           b.Kind,
			Offset:         offset,
			ProcessedLen:   processedLen,
			UnprocessedLen: b.UnprocessedLen,
		})
		offset += processedLen
	}

	headerBytes, err := cborcodec.Marshal(header)
	if err != nil {
		return nil, nil, fmt.Errorf("obj: serialize pack header: %w", err)
	}

	raw = make([]byte, 0, len(blobRegion)+len(headerBytes)+headerLenSize)
	raw = append(raw, blobRegion...)
	raw = append(raw, headerBytes...)
	var trailer [headerLenSize]byte
	binary.LittleEndian.PutUint32(trailer[:], uint32(len(headerBytes)))
	raw = append(raw, trailer[:]...)

	return raw, entries, nil
}

// DisassemblePack reverses AssemblePack: it reads the trailing header_len,
// slices out and deserializes the PackHeader, and returns the blob region
// alongside the header's entries with their offsets resolved.
func DisassemblePack(raw []byte) (blobRegion []byte, entries []BlobEntry, err error) {
	if len(raw) < headerLenSize {
		return nil, nil, fmt.Errorf("obj: pack too short (%d bytes)", len(raw))
	}
	trailer := raw[len(raw)-headerLenSize:]
	headerLen := binary.LittleEndian.Uint32(trailer)

	headerStart := len(raw) - headerLenSize - int(headerLen)
	if headerStart < 0 {
		return nil, nil, fmt.Errorf("obj: pack header_len %d exceeds pack size %d", headerLen, len(raw))
	}

	var header PackHeader
	if err := cborcodec.Unmarshal(raw[headerStart:len(raw)-headerLenSize], &header); err != nil {
		return nil, nil, fmt.Errorf("obj: deserialize pack header: %w", err)
	}

	blobRegion = raw[:headerStart]
	entries = make([]BlobEntry, 0, len(header.Entries))
	var offset uint32
	for _, e := range header.Entries {
		entries = append(entries, BlobEntry{
			ID:             e.ID,
			Kind:           e.Kind,
			Offset:         offset,
			ProcessedLen:   e.ProcessedLen,
			UnprocessedLen: e.UnprocessedLen,
		})
		offset += e.ProcessedLen
	}
	if offset != uint32(len(blobRegion)) {
		return nil, nil, fmt.Errorf("obj: pack header sums to %d bytes, blob region is %d", offset, len(blobRegion))
	}

	return blobRegion, entries, nil
}

// BlobBytes slices blobRegion (as returned by DisassemblePack) down to the
// Processed bytes of a single entry.
func (e BlobEntry) BlobBytes(blobRegion []byte) ([]byte, error) {
	end := uint64(e.Offset) + uint64(e.ProcessedLen)
	if end > uint64(len(blobRegion)) {
		return nil, fmt.Errorf("obj: blob %s offset/len exceeds blob region", e.ID)
	}
	return blobRegion[e.Offset:end], nil
}
