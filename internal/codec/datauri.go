// Package codec переводит содержимое файла в самоописывающую текстовую форму
// (data URI) и обратно.
package codec

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrDecode возвращается для повреждённого или не-data-URI содержимого.
var ErrDecode = errors.New("decode error")

const defaultMIME = "application/octet-stream"

// Blob — сырое содержимое файла вместе с MIME-типом.
type Blob struct {
	MimeType string
	Data     []byte
}

// Encode собирает data URI вида data:<mime>;base64,<payload>.
// Пустой MIME заменяется на application/octet-stream.
func Encode(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = defaultMIME
	}
	var b strings.Builder
	b.Grow(len("data:;base64,") + len(mimeType) + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString("data:")
	b.WriteString(mimeType)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String()
}

// Decode разбирает строку, созданную Encode (или FileReader.readAsDataURL).
func Decode(s string) (Blob, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return Blob{}, fmt.Errorf("%w: missing data: prefix", ErrDecode)
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Blob{}, fmt.Errorf("%w: missing payload separator", ErrDecode)
	}
	mediaType, isBase64 := strings.CutSuffix(header, ";base64")
	if mediaType == "" {
		mediaType = defaultMIME
	}
	if !isBase64 {
		// readAsDataURL всегда отдаёт base64; percent-encoded форма нам не встречается
		return Blob{}, fmt.Errorf("%w: only base64 payloads are supported", ErrDecode)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Blob{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return Blob{MimeType: mediaType, Data: data}, nil
}

// MediaType возвращает MIME-тип из заголовка data URI без декодирования payload.
func MediaType(s string) (string, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", fmt.Errorf("%w: missing data: prefix", ErrDecode)
	}
	header, _, ok := strings.Cut(rest, ",")
	if !ok {
		return "", fmt.Errorf("%w: missing payload separator", ErrDecode)
	}
	mt, _ := strings.CutSuffix(header, ";base64")
	if mt == "" {
		mt = defaultMIME
	}
	return mt, nil
}
