//go:build js && wasm

// Команда wasm публикует полку в браузере как глобальный объект fileShelf
// поверх window.localStorage.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"syscall/js"

	"FileShelf/internal/model"
	"FileShelf/internal/repo/localstorage"
	"FileShelf/internal/service"

	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	defer logger.Sync()

	store, err := localstorage.New()
	if err != nil {
		sugar.Fatalw("localStorage unavailable", "error", err)
	}

	loc := js.Global().Get("location")
	pageURL := loc.Get("origin").String() + loc.Get("pathname").String()

	b := &bridge{
		shelf: service.NewShelf(store, service.Callbacks{}, service.Options{
			Quota:   &model.QuotaConfig{LimitBytes: model.DefaultLimitBytes},
			PageURL: pageURL,
			Logger:  sugar,
		}),
		logger: sugar,
	}
	js.Global().Set("fileShelf", b.exports())
	sugar.Infow("file shelf ready", "page", pageURL)

	select {}
}

type bridge struct {
	shelf  *service.Shelf
	logger *zap.SugaredLogger
}

// toJS переводит значение в объект JS через JSON.
func toJS(v any) js.Value {
	data, err := json.Marshal(v)
	if err != nil {
		return errorValue(err)
	}
	return js.Global().Get("JSON").Call("parse", string(data))
}

func errorValue(err error) js.Value {
	kind := "error"
	var qe *service.QuotaExceededError
	switch {
	case errors.As(err, &qe):
		return toJS(map[string]any{"error": err.Error(), "kind": "quota", "shortfall": qe.Shortfall()})
	case errors.Is(err, service.ErrNoActiveIdentity):
		kind = "identity"
	case errors.Is(err, service.ErrValidation):
		kind = "validation"
	case errors.Is(err, service.ErrInvalidFormat):
		kind = "format"
	case errors.Is(err, service.ErrImportDeclined):
		kind = "declined"
	case errors.Is(err, service.ErrFileNotFound):
		kind = "not_found"
	}
	return toJS(map[string]any{"error": err.Error(), "kind": kind})
}

func arg(args []js.Value, i int) js.Value {
	if i < len(args) {
		return args[i]
	}
	return js.Undefined()
}

func str(v js.Value) string {
	if v.Type() != js.TypeString {
		return ""
	}
	return v.String()
}

func (b *bridge) exports() js.Value {
	fns := map[string]func(args []js.Value) any{
		"setCallbacks":    b.setCallbacks,
		"register":        b.register,
		"current":         func([]js.Value) any { return toJS(b.shelf.Current()) },
		"logout":          b.logout,
		"list":            b.list,
		"upload":          b.upload,
		"download":        b.download,
		"remove":          b.remove,
		"exportJSON":      b.exportJSON,
		"importJSON":      b.importJSON,
		"link":            b.link,
		"usage":           b.usage,
		"requestIncrease": b.requestIncrease,
		"resolveShared":   b.resolveShared,
	}
	obj := js.Global().Get("Object").New()
	for name, fn := range fns {
		obj.Set(name, js.FuncOf(func(_ js.Value, args []js.Value) any { return fn(args) }))
	}
	return obj
}

// setCallbacks({onUploadProgress, onUploadComplete, onUploadError, onQuotaExceeded, onImportConflict})
// onQuotaExceeded(used, requested, limit) возвращает новый лимит в байтах или null.
func (b *bridge) setCallbacks(args []js.Value) any {
	o := arg(args, 0)
	if o.Type() != js.TypeObject {
		return errorValue(service.ErrValidation)
	}
	fn := func(name string) (js.Value, bool) {
		f := o.Get(name)
		return f, f.Type() == js.TypeFunction
	}
	var cb service.Callbacks
	if f, ok := fn("onUploadProgress"); ok {
		cb.OnUploadProgress = func(cur, total int, name string) { f.Invoke(cur, total, name) }
	}
	if f, ok := fn("onUploadComplete"); ok {
		cb.OnUploadComplete = func(n int) { f.Invoke(n) }
	}
	if f, ok := fn("onUploadError"); ok {
		cb.OnUploadError = func(name string, err error) { f.Invoke(name, err.Error()) }
	}
	if f, ok := fn("onQuotaExceeded"); ok {
		cb.OnQuotaExceeded = func(used, requested, limit int64) service.QuotaDecision {
			r := f.Invoke(used, requested, limit)
			if r.Type() != js.TypeNumber {
				return service.Abandon()
			}
			return service.RaiseLimit(int64(r.Float()))
		}
	}
	if f, ok := fn("onImportConflict"); ok {
		cb.OnImportConflict = func(owner string) bool { return f.Invoke(owner).Truthy() }
	}
	b.shelf.SetCallbacks(cb)
	return js.Null()
}

func (b *bridge) register(args []js.Value) any {
	u, err := b.shelf.Register(str(arg(args, 0)), str(arg(args, 1)))
	if err != nil {
		return errorValue(err)
	}
	return toJS(u)
}

func (b *bridge) logout([]js.Value) any {
	if err := b.shelf.Logout(); err != nil {
		return errorValue(err)
	}
	return js.Null()
}

// list(term): записи без содержимого.
func (b *bridge) list(args []js.Value) any {
	files, err := b.shelf.Search(str(arg(args, 0)))
	if err != nil {
		return errorValue(err)
	}
	for i := range files {
		files[i].EncodedContent = ""
	}
	return toJS(files)
}

// upload([{name, type, bytes: Uint8Array}, ...]) возвращает количество загруженных файлов.
func (b *bridge) upload(args []js.Value) any {
	arr := arg(args, 0)
	if arr.Type() != js.TypeObject {
		return errorValue(service.ErrValidation)
	}
	n := arr.Length()
	items := make([]service.UploadItem, 0, n)
	for i := 0; i < n; i++ {
		f := arr.Index(i)
		data := make([]byte, f.Get("bytes").Get("length").Int())
		js.CopyBytesToGo(data, f.Get("bytes"))
		items = append(items, service.UploadItem{
			Name:     str(f.Get("name")),
			MimeType: str(f.Get("type")),
			Size:     int64(len(data)),
			Open:     func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
		})
	}
	added, err := b.shelf.Upload(items)
	if err != nil {
		b.logger.Warnw("upload failed", "added", added, "error", err)
		return errorValue(err)
	}
	return added
}

// download(id): {name, type, data} где data это data URI.
func (b *bridge) download(args []js.Value) any {
	rec, _, err := b.shelf.Download(str(arg(args, 0)))
	if err != nil {
		return errorValue(err)
	}
	return toJS(map[string]string{"name": rec.Name, "type": rec.MimeType, "data": rec.EncodedContent})
}

func (b *bridge) remove(args []js.Value) any {
	ok, err := b.shelf.Delete(str(arg(args, 0)))
	if err != nil {
		return errorValue(err)
	}
	return ok
}

// exportJSON(): {fileName, json}.
func (b *bridge) exportJSON([]js.Value) any {
	doc, err := b.shelf.Export()
	if err != nil {
		return errorValue(err)
	}
	data, err := service.MarshalDocument(doc)
	if err != nil {
		return errorValue(err)
	}
	return toJS(map[string]string{"fileName": service.ExportFileName(doc.ExportedAt), "json": string(data)})
}

func (b *bridge) importJSON(args []js.Value) any {
	n, err := b.shelf.Import([]byte(str(arg(args, 0))))
	if err != nil {
		return errorValue(err)
	}
	return n
}

func (b *bridge) link(args []js.Value) any {
	link, ok, err := b.shelf.PermanentLink(str(arg(args, 0)))
	if err != nil {
		return errorValue(err)
	}
	if !ok {
		return js.Null()
	}
	return link
}

func (b *bridge) usage([]js.Value) any {
	u, err := b.shelf.Usage()
	if err != nil {
		return errorValue(err)
	}
	return toJS(map[string]any{"used": u.UsedBytes, "limit": u.LimitBytes, "percent": u.Percent, "display": u.String()})
}

func (b *bridge) requestIncrease(args []js.Value) any {
	v := arg(args, 0)
	var limit int64
	switch v.Type() {
	case js.TypeNumber:
		limit = int64(v.Float())
	case js.TypeString:
		n, err := service.ParseLimit(v.String())
		if err != nil {
			return errorValue(err)
		}
		limit = n
	default:
		return errorValue(service.ErrValidation)
	}
	ok, err := b.shelf.RequestIncrease(limit)
	if err != nil {
		return errorValue(err)
	}
	return ok
}

// resolveShared(location.search): {record, name, preview} или null.
func (b *bridge) resolveShared(args []js.Value) any {
	q, err := url.ParseQuery(trimQuestion(str(arg(args, 0))))
	if err != nil {
		return errorValue(err)
	}
	link, err := b.shelf.ResolveShared(q)
	if err != nil {
		return errorValue(err)
	}
	if link == nil {
		return js.Null()
	}
	return toJS(map[string]any{"record": link.Record, "name": link.DisplayName, "preview": link.Preview})
}

func trimQuestion(s string) string {
	if len(s) > 0 && s[0] == '?' {
		return s[1:]
	}
	return s
}
