package compress

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/arloliu/schemsearch/errs"
	"github.com/arloliu/schemsearch/format"
	"github.com/stretchr/testify/require"
)

func getAllCodecs() map[string]Codec {
	return map[string]Codec{
		"NoOp": NewNoOpCompressor(),
		"Gzip": NewGzipCompressor(),
		"LZ4":  NewLZ4Compressor(),
		"S2":   NewS2Compressor(),
		"Zstd": NewZstdCompressor(),
	}
}

func TestCreateCodec(t *testing.T) {
	tests := []struct {
		ctype   format.CompressionType
		wantErr bool
	}{
		{format.CompressionNone, false},
		{format.CompressionGzip, false},
		{format.CompressionZstd, false},
		{format.CompressionS2, false},
		{format.CompressionLZ4, false},
		{format.CompressionType(0), true},
		{format.CompressionType(99), true},
	}

	for _, tt := range tests {
		t.Run(tt.ctype.String(), func(t *testing.T) {
			codec, err := CreateCodec(tt.ctype, "schematic")
			if tt.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), "invalid schematic compression")
				require.Nil(t, codec)

				return
			}
			require.NoError(t, err)
			require.NotNil(t, codec)

			builtin, err := GetCodec(tt.ctype)
			require.NoError(t, err)
			require.IsType(t, codec, builtin)
		})
	}
}

func TestGetCodec_Unsupported(t *testing.T) {
	_, err := GetCodec(format.CompressionType(42))
	require.Error(t, err)
}

func TestAllCodecs_EmptyData(t *testing.T) {
	for name, codec := range getAllCodecs() {
		t.Run(name, func(t *testing.T) {
			decompressed, err := codec.Decompress(nil)
			require.NoError(t, err)
			require.Empty(t, decompressed)

			compressed, err := codec.Compress([]byte{})
			require.NoError(t, err)

			decompressed, err = codec.Decompress(compressed)
			require.NoError(t, err)
			require.Empty(t, decompressed)
		})
	}
}

func TestAllCodecs_RoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{name: "single_byte", data: []byte{0x0a}},
		{name: "small_text", data: []byte("minecraft:stone")},
		{name: "repeated_palette", data: bytes.Repeat([]byte("minecraft:oak_stairs[facing=north]"), 200)},
		{
			name: "block_data",
			data: func() []byte {
				data := make([]byte, 16*1024)
				for i := range data {
					data[i] = byte((i*7 + i/64) % 23)
				}

				return data
			}(),
		},
		{name: "highly_compressible", data: make([]byte, 1024*1024)},
	}

	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			for _, tc := range testCases {
				t.Run(tc.name, func(t *testing.T) {
					compressed, err := codec.Compress(tc.data)
					require.NoError(t, err)
					require.NotNil(t, compressed)

					decompressed, err := codec.Decompress(compressed)
					require.NoError(t, err)
					require.Equal(t, tc.data, decompressed)
				})
			}
		})
	}
}

func TestAllCodecs_InvalidData(t *testing.T) {
	invalidInputs := []struct {
		name string
		data []byte
	}{
		{name: "random_bytes", data: []byte{0xFF, 0xFF, 0xFF, 0xFF}},
		{name: "text_as_compressed", data: []byte("this is not compressed data")},
		{name: "corrupted_header", data: []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}},
	}

	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			if codecName == "NoOp" {
				t.Skip("NoOp codec doesn't validate data")
			}

			for _, input := range invalidInputs {
				t.Run(input.name, func(t *testing.T) {
					_, err := codec.Decompress(input.data)
					require.Error(t, err)
				})
			}
		})
	}
}

func TestGzip_InvalidDataIsErrDecompress(t *testing.T) {
	_, err := NewGzipCompressor().Decompress([]byte("not gzip"))
	require.ErrorIs(t, err, errs.ErrDecompress)
}

func TestAllCodecs_Limit(t *testing.T) {
	data := make([]byte, 64*1024)

	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			compressed, err := codec.Compress(data)
			require.NoError(t, err)

			_, err = codec.DecompressLimit(compressed, 1024)
			require.ErrorIs(t, err, errs.ErrDecompressLimit)

			out, err := codec.DecompressLimit(compressed, int64(len(data)))
			require.NoError(t, err)
			require.Len(t, out, len(data))
		})
	}
}

func TestDetect(t *testing.T) {
	payload := bytes.Repeat([]byte{0x0a, 0x00, 0x00}, 100)

	for _, ctype := range []format.CompressionType{
		format.CompressionGzip,
		format.CompressionZstd,
		format.CompressionS2,
		format.CompressionLZ4,
	} {
		t.Run(ctype.String(), func(t *testing.T) {
			codec, err := GetCodec(ctype)
			require.NoError(t, err)

			compressed, err := codec.Compress(payload)
			require.NoError(t, err)
			require.Equal(t, ctype, Detect(compressed))

			out, detected, err := Decompress(compressed, 0)
			require.NoError(t, err)
			require.Equal(t, ctype, detected)
			require.Equal(t, payload, out)
		})
	}

	t.Run("plain", func(t *testing.T) {
		require.Equal(t, format.CompressionNone, Detect(payload))
		require.Equal(t, format.CompressionNone, Detect(nil))
		require.Equal(t, format.CompressionNone, Detect([]byte{0x1f}))

		out, detected, err := Decompress(payload, 0)
		require.NoError(t, err)
		require.Equal(t, format.CompressionNone, detected)
		require.Equal(t, payload, out)
	})
}

func TestAllCodecs_ConcurrentUsage(t *testing.T) {
	const numGoroutines = 20
	testData := bytes.Repeat([]byte("minecraft:stone,minecraft:dirt,"), 64)

	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			compressed, err := codec.Compress(testData)
			require.NoError(t, err)

			done := make(chan error, numGoroutines*2)
			for range numGoroutines {
				go func() {
					_, err := codec.Compress(testData)
					done <- err
				}()

				go func() {
					decompressed, err := codec.Decompress(compressed)
					if err != nil {
						done <- err
						return
					}
					if !bytes.Equal(testData, decompressed) {
						done <- fmt.Errorf("decompressed data mismatch")
						return
					}
					done <- nil
				}()
			}

			for range numGoroutines * 2 {
				require.NoError(t, <-done)
			}
		})
	}
}

func BenchmarkGzipDecompress(b *testing.B) {
	data := bytes.Repeat([]byte("minecraft:oak_planks"), 4096)
	compressed, err := NewGzipCompressor().Compress(data)
	require.NoError(b, err)

	codec := NewGzipCompressor()
	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	for b.Loop() {
		_, _ = codec.Decompress(compressed)
	}
}
