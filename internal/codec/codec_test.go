package codec

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_RoundTrip_ByCategory(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	payload := make([]byte, 4096)
	_, _ = rnd.Read(payload)

	// по одному представителю каждой категории из таблицы типов
	names := []string{"photo.png", "clip.mp4", "song.mp3", "report.pdf", "backup.zip", "unknown.bin"}
	for _, n := range names {
		t.Run(n, func(t *testing.T) {
			mt := DetectMIME(n)
			enc := Encode(mt, payload)
			blob, err := Decode(enc)
			require.NoError(t, err)
			assert.Equal(t, mt, blob.MimeType)
			assert.Equal(t, payload, blob.Data)
		})
	}
}

func TestEncodeDecode_EmptyAndArbitraryBytes(t *testing.T) {
	for _, data := range [][]byte{{}, {0}, {0xff, 0x00, 0x10}, []byte("hello, world\n")} {
		blob, err := Decode(Encode("text/plain", data))
		require.NoError(t, err)
		assert.Equal(t, len(data), len(blob.Data))
		if len(data) > 0 {
			assert.Equal(t, data, blob.Data)
		}
	}
}

func TestEncode_EmptyMimeDefaults(t *testing.T) {
	enc := Encode("", []byte("x"))
	assert.Equal(t, "data:application/octet-stream;base64,eA==", enc)
	mt, err := MediaType(enc)
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", mt)
}

func TestDecode_Malformed(t *testing.T) {
	cases := map[string]string{
		"no prefix":     "text/plain;base64,aGk=",
		"no comma":      "data:text/plain;base64",
		"not base64":    "data:text/plain,hello",
		"broken base64": "data:text/plain;base64,@@@",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(in)
			assert.True(t, errors.Is(err, ErrDecode), "got %v", err)
		})
	}
}

func TestCategoryOf(t *testing.T) {
	assert.Equal(t, CategoryImage, CategoryOf("A.JPG"))
	assert.Equal(t, CategoryVideo, CategoryOf("a.mkv"))
	assert.Equal(t, CategoryAudio, CategoryOf("a.ogg"))
	assert.Equal(t, CategoryDocument, CategoryOf("notes.txt"))
	assert.Equal(t, CategoryArchive, CategoryOf("a.tar.gz"))
	assert.Equal(t, CategoryOther, CategoryOf("Makefile"))
	assert.Equal(t, CategoryOther, CategoryOf("a.exe"))
}

func TestDetectMIME(t *testing.T) {
	assert.Equal(t, "image/png", DetectMIME("x.PNG"))
	assert.Equal(t, "text/plain", DetectMIME("readme.txt"))
	assert.Equal(t, "application/octet-stream", DetectMIME("noext"))
}
