package service

import (
	"fmt"
	"net/url"
	"strings"

	"FileShelf/internal/model"
)

// Параметры запроса постоянной ссылки.
const (
	ParamOpen = "open"
	ParamName = "name"
)

// LinkGenerator строит постоянные ссылки на файлы активной коллекции.
type LinkGenerator struct {
	files   *FileRepository
	pageURL string
}

// NewLinkGenerator: pageURL это адрес страницы полки (origin + path), без запроса.
func NewLinkGenerator(files *FileRepository, pageURL string) *LinkGenerator {
	return &LinkGenerator{files: files, pageURL: pageURL}
}

// componentEscaper возвращает символы, которые encodeURIComponent не кодирует.
var componentEscaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// escape кодирует как encodeURIComponent.
func escape(s string) string {
	return componentEscaper.Replace(url.QueryEscape(s))
}

// PermanentLink для изображений возвращает само data URI, для остальных —
// ссылку на страницу с параметрами open и name. ok=false, если файла нет.
func (g *LinkGenerator) PermanentLink(id string) (string, bool, error) {
	rec, err := g.files.Find(id)
	if err != nil {
		return "", false, err
	}
	if rec == nil {
		return "", false, nil
	}
	if rec.IsImage() {
		return rec.EncodedContent, true, nil
	}
	u, err := url.Parse(g.pageURL)
	if err != nil {
		return "", false, fmt.Errorf("%w: page url: %v", ErrValidation, err)
	}
	u.RawQuery = ParamOpen + "=" + escape(rec.ID) + "&" + ParamName + "=" + escape(rec.Name)
	u.Fragment = ""
	return u.String(), true, nil
}

// SharedLink: результат разбора входящей ссылки.
type SharedLink struct {
	Record      model.FileRecord
	DisplayName string // имя из ссылки; "file", если не передано
	Preview     bool   // image/* и text/* показываются, остальное скачивается
}

// ResolveShared ищет файл из параметров ссылки в коллекции активного пользователя.
// Без параметра open возвращает nil, nil.
func (g *LinkGenerator) ResolveShared(q url.Values) (*SharedLink, error) {
	id := q.Get(ParamOpen)
	if id == "" {
		return nil, nil
	}
	rec, err := g.files.Find(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, id)
	}
	name := q.Get(ParamName)
	if name == "" {
		name = "file"
	}
	return &SharedLink{Record: *rec, DisplayName: name, Preview: rec.IsPreviewable()}, nil
}
