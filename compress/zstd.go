package compress

// ZstdCompressor compresses blocks with Zstandard. Best ratio of the built-in
// codecs, suited to archival result files where size wins over speed.
//
// Two implementations exist: the default pure-Go one (klauspost/compress) and
// a cgo one (valyala/gozstd) selected with the gozstd build tag.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd codec.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
