package schematic

import (
	"fmt"
	"io"
	"os"

	"github.com/arloliu/schemsearch/compress"
	"github.com/arloliu/schemsearch/endian"
	"github.com/arloliu/schemsearch/errs"
	"github.com/arloliu/schemsearch/format"
	"github.com/arloliu/schemsearch/internal/options"
	"github.com/arloliu/schemsearch/nbt"
)

type decoderConfig struct {
	compression format.CompressionType
	maxSize     int64
	engine      endian.EndianEngine
}

// DecoderOption configures Decode, DecodeReader and Load.
type DecoderOption = options.Option[*decoderConfig]

// WithCompression forces the envelope instead of detecting it from magic bytes.
func WithCompression(ctype format.CompressionType) DecoderOption {
	return options.New(func(cfg *decoderConfig) error {
		if _, err := compress.GetCodec(ctype); err != nil {
			return err
		}
		cfg.compression = ctype

		return nil
	})
}

// WithMaxDecompressedSize limits the size of the decompressed NBT document.
func WithMaxDecompressedSize(n int64) DecoderOption {
	return options.New(func(cfg *decoderConfig) error {
		if n <= 0 {
			return fmt.Errorf("max decompressed size must be positive, got %d", n)
		}
		cfg.maxSize = n

		return nil
	})
}

// WithByteOrder selects the NBT byte order. Sponge schematics are big-endian,
// which is the default.
func WithByteOrder(engine endian.EndianEngine) DecoderOption {
	return options.NoError(func(cfg *decoderConfig) {
		cfg.engine = engine
	})
}

func newDecoderConfig(opts []DecoderOption) (*decoderConfig, error) {
	cfg := &decoderConfig{
		maxSize: compress.DefaultDecompressLimit,
		engine:  endian.GetBigEndianEngine(),
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Decode decodes a schematic file.
//
// The envelope (gzip, zstd, s2, lz4 or none) is detected from the magic
// bytes unless WithCompression forces one. A root holding a single
// "Schematic" compound, as written by Sponge v3 tools, is unwrapped.
//
// The schema version comes from the Version field (byte, short or int). When
// it is absent the version is inferred structurally with the priority
// Blocks (V3), BlockEntities (V2), TileEntities (V1).
//
// Parameters:
//   - data: Raw file bytes
//   - opts: Decoder options
//
// Returns:
//   - Schematic: *V1, *V2 or *V3
//   - error: *errs.DecodeError wrapping an errs sentinel
func Decode(data []byte, opts ...DecoderOption) (Schematic, error) {
	cfg, err := newDecoderConfig(opts)
	if err != nil {
		return nil, err
	}

	return cfg.decode(data)
}

// DecodeReader reads r to the end and decodes the schematic it contains.
func DecodeReader(r io.Reader, opts ...DecoderOption) (Schematic, error) {
	cfg, err := newDecoderConfig(opts)
	if err != nil {
		return nil, err
	}

	// Compressed files are far smaller than the decompression limit.
	data, err := io.ReadAll(io.LimitReader(r, cfg.maxSize+1))
	if err != nil {
		return nil, errs.WithPath("", fmt.Errorf("%w: %w", errs.ErrIO, err))
	}
	if int64(len(data)) > cfg.maxSize {
		return nil, errs.WithPath("", errs.ErrDecompressLimit)
	}

	return cfg.decode(data)
}

// Load reads and decodes the schematic file at path. Every error carries path.
func Load(path string, opts ...DecoderOption) (Schematic, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.WithPath(path, fmt.Errorf("%w: %w", errs.ErrIO, err))
	}
	defer f.Close()

	s, err := DecodeReader(f, opts...)
	if err != nil {
		return nil, errs.WithPath(path, err)
	}

	return s, nil
}

func (cfg *decoderConfig) decode(data []byte) (Schematic, error) {
	ctype := cfg.compression
	if ctype == 0 {
		ctype = compress.Detect(data)
	}
	codec, err := compress.GetCodec(ctype)
	if err != nil {
		return nil, errs.WithPath("", err)
	}

	document, err := codec.DecompressLimit(data, cfg.maxSize)
	if err != nil {
		return nil, errs.WithPath("", err)
	}

	_, root, err := nbt.Decode(document, cfg.engine)
	if err != nil {
		return nil, errs.WithPath("", err)
	}

	return FromNBT(root)
}

// FromNBT builds a schematic from an already parsed NBT root compound.
func FromNBT(root nbt.Compound) (Schematic, error) {
	root = unwrap(root)

	version, err := detectVersion(root)
	if err != nil {
		return nil, err
	}

	var s Schematic
	switch version {
	case format.V1:
		s, err = readV1(root)
	case format.V2:
		s, err = readV2(root)
	case format.V3:
		s, err = readV3(root)
	}
	if err != nil {
		return nil, err
	}

	if err := Validate(s); err != nil {
		return nil, err
	}

	return s, nil
}

func unwrap(root nbt.Compound) nbt.Compound {
	if len(root) != 1 {
		return root
	}
	if inner, ok := root["Schematic"].(nbt.Compound); ok {
		return inner
	}

	return root
}

func detectVersion(root nbt.Compound) (format.Version, error) {
	if _, ok := root["Version"]; ok {
		v, err := readInt(root, "Version")
		if err != nil {
			return 0, err
		}
		version := format.Version(v) //nolint:gosec
		if v < 0 || v > 255 || !version.IsValid() {
			return 0, errs.Field("Version", fmt.Errorf("%w: %d", errs.ErrUnknownVersion, v))
		}

		return version, nil
	}

	if _, ok := root["Blocks"].(nbt.Compound); ok {
		return format.V3, nil
	}
	if _, ok := root["BlockEntities"]; ok {
		return format.V2, nil
	}
	if _, ok := root["TileEntities"]; ok {
		return format.V1, nil
	}

	return 0, errs.Field("Version", errs.ErrUnknownVersion)
}

func readCommon(c nbt.Compound) (Data, error) {
	var (
		d   Data
		err error
	)
	if d.Width, err = readDimension(c, "Width"); err != nil {
		return d, err
	}
	if d.Height, err = readDimension(c, "Height"); err != nil {
		return d, err
	}
	if d.Length, err = readDimension(c, "Length"); err != nil {
		return d, err
	}
	if d.Offset, err = readPosition(c, "Offset"); err != nil {
		return d, err
	}
	if d.Metadata, err = readMetadata(c); err != nil {
		return d, err
	}

	return d, nil
}

func readV1(c nbt.Compound) (*V1, error) {
	d, err := readCommon(c)
	if err != nil {
		return nil, err
	}
	if d.PaletteMax, err = readInt(c, "PaletteMax"); err != nil {
		return nil, err
	}
	if d.Palette, err = readPalette(c, "Palette"); err != nil {
		return nil, err
	}
	if d.BlockData, err = readBlockData(c, "BlockData"); err != nil {
		return nil, err
	}
	if d.BlockEntities, _, err = readEntries(c, "TileEntities"); err != nil {
		return nil, err
	}

	return NewV1(d), nil
}

func readV2(c nbt.Compound) (*V2, error) {
	d, err := readCommon(c)
	if err != nil {
		return nil, err
	}
	if d.DataVersion, err = readInt(c, "DataVersion"); err != nil {
		return nil, err
	}
	if d.PaletteMax, err = readInt(c, "PaletteMax"); err != nil {
		return nil, err
	}
	if d.Palette, err = readPalette(c, "Palette"); err != nil {
		return nil, err
	}
	if d.BlockData, err = readBlockData(c, "BlockData"); err != nil {
		return nil, err
	}
	if d.BlockEntities, _, err = readEntries(c, "BlockEntities"); err != nil {
		return nil, err
	}
	if d.Entities, err = readEntities(c); err != nil {
		return nil, err
	}

	return NewV2(d), nil
}

func readV3(c nbt.Compound) (*V3, error) {
	d, err := readCommon(c)
	if err != nil {
		return nil, err
	}
	if d.DataVersion, err = readInt(c, "DataVersion"); err != nil {
		return nil, err
	}

	v, err := lookup(c, "Blocks")
	if err != nil {
		return nil, err
	}
	blocks, ok := v.(nbt.Compound)
	if !ok {
		return nil, wrongType("Blocks", v)
	}
	if d.Palette, err = readPalette(blocks, "Palette"); err != nil {
		return nil, errs.Field("Blocks", err)
	}
	if d.BlockData, err = readBlockData(blocks, "Data", "BlockData"); err != nil {
		return nil, errs.Field("Blocks", err)
	}
	if d.BlockEntities, _, err = readEntries(blocks, "BlockEntities"); err != nil {
		return nil, errs.Field("Blocks", err)
	}
	if d.Entities, err = readEntities(c); err != nil {
		return nil, err
	}

	return NewV3(d), nil
}

// Validate checks that the block data of s matches its dimensions and that
// every id has a palette entry.
//
// Returns:
//   - error: errs.ErrDimensionMismatch or errs.ErrInvalidBlockID wrapped in a
//     *errs.DecodeError naming the BlockData field
func Validate(s Schematic) error {
	field := "BlockData"
	if s.Version() == format.V3 {
		field = "Blocks.Data"
	}

	data := s.BlockData()
	if want := Volume(s); len(data) != want {
		return errs.Field(field, fmt.Errorf("%w: got %d blocks, want %dx%dx%d=%d",
			errs.ErrDimensionMismatch, len(data), s.Width(), s.Height(), s.Length(), want))
	}

	names := s.Palette().Names()
	for i, id := range data {
		if id < 0 || int(id) >= len(names) || names[id] == "" {
			x, y, z := Coords(int(s.Width()), int(s.Length()), i)
			return errs.Field(field, fmt.Errorf("%w: id %d at (%d, %d, %d)", errs.ErrInvalidBlockID, id, x, y, z))
		}
	}

	return nil
}
