package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"FileShelf/internal/codec"
	"FileShelf/internal/config"
	"FileShelf/internal/service"

	"github.com/dustin/go-humanize"
)

type uploadCmd struct{}

func (uploadCmd) Name() string        { return "upload" }
func (uploadCmd) Description() string { return "Загрузить файлы на полку" }
func (uploadCmd) Usage() string       { return "upload <path>..." }

func (uploadCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}
	items := make([]service.UploadItem, 0, len(args))
	for _, p := range args {
		st, err := os.Stat(p)
		if err != nil {
			return err
		}
		if st.IsDir() {
			return fmt.Errorf("%s: is a directory", p)
		}
		path := p
		items = append(items, service.UploadItem{
			Name: filepath.Base(p),
			Size: st.Size(),
			Open: func() (io.ReadCloser, error) { return os.Open(path) },
		})
	}

	shelf, done, err := openShelf(cfg, false)
	if err != nil {
		return err
	}
	defer done()
	n, err := shelf.Upload(items)
	if n > 0 {
		fmt.Fprintf(Out, "Загружено файлов: %d\n", n)
	}
	if err != nil {
		return err
	}
	if u, err := shelf.Usage(); err == nil {
		fmt.Fprintf(Out, "Занято: %s (%.1f%%)\n", u, u.Percent)
	}
	return nil
}

type listCmd struct{}

func (listCmd) Name() string        { return "list" }
func (listCmd) Description() string { return "Показать файлы (с фильтром по имени или типу)" }
func (listCmd) Usage() string       { return "list [term]" }

func (listCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	if len(args) > 1 {
		return ErrUsage
	}
	term := ""
	if len(args) == 1 {
		term = args[0]
	}
	shelf, done, err := openShelf(cfg, false)
	if err != nil {
		return err
	}
	defer done()
	files, err := shelf.Search(term)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(Out, "Нет файлов")
		return nil
	}
	for _, f := range files {
		large := ""
		if f.IsLarge {
			large = " (large)"
		}
		fmt.Fprintf(Out, "- %s  %s  %s  %s  %s%s\n",
			f.ID, f.Name, codec.CategoryOf(f.Name), humanize.IBytes(uint64(f.SizeBytes)),
			humanize.Time(f.UploadedAt), large)
	}
	fmt.Fprintf(Out, "Всего: %d\n", len(files))
	return nil
}

type downloadCmd struct{}

func (downloadCmd) Name() string        { return "download" }
func (downloadCmd) Description() string { return "Сохранить файл с полки на диск" }
func (downloadCmd) Usage() string       { return "download <id> [dest]" }

func (downloadCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return ErrUsage
	}
	shelf, done, err := openShelf(cfg, false)
	if err != nil {
		return err
	}
	defer done()
	rec, blob, err := shelf.Download(args[0])
	if err != nil {
		return err
	}
	dest := filepath.Base(rec.Name)
	if len(args) == 2 {
		dest = args[1]
		if st, err := os.Stat(dest); err == nil && st.IsDir() {
			dest = filepath.Join(dest, filepath.Base(rec.Name))
		}
	}
	if err := os.WriteFile(dest, blob.Data, 0o600); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Сохранено: %s (%s)\n", dest, humanize.IBytes(uint64(len(blob.Data))))
	return nil
}

type deleteCmd struct{}

func (deleteCmd) Name() string        { return "delete" }
func (deleteCmd) Description() string { return "Удалить файл с полки" }
func (deleteCmd) Usage() string       { return "delete <id>" }

func (deleteCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	shelf, done, err := openShelf(cfg, false)
	if err != nil {
		return err
	}
	defer done()
	removed, err := shelf.Delete(args[0])
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: %s", service.ErrFileNotFound, args[0])
	}
	fmt.Fprintln(Out, "Удалено")
	return nil
}

type linkCmd struct{}

func (linkCmd) Name() string        { return "link" }
func (linkCmd) Description() string { return "Постоянная ссылка на файл" }
func (linkCmd) Usage() string       { return "link <id>" }

func (linkCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	shelf, done, err := openShelf(cfg, false)
	if err != nil {
		return err
	}
	defer done()
	link, ok, err := shelf.PermanentLink(args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", service.ErrFileNotFound, args[0])
	}
	fmt.Fprintln(Out, link)
	return nil
}

type quotaCmd struct{}

func (quotaCmd) Name() string        { return "quota" }
func (quotaCmd) Description() string { return "Показать занятое место или задать новый лимит" }
func (quotaCmd) Usage() string       { return "quota [new-limit]" }

var errLimitBelowUsage = errors.New("limit must be positive and not below used space")

func (quotaCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	if len(args) > 1 {
		return ErrUsage
	}
	shelf, done, err := openShelf(cfg, false)
	if err != nil {
		return err
	}
	defer done()
	if len(args) == 1 {
		n, err := service.ParseLimit(args[0])
		if err != nil {
			return err
		}
		ok, err := shelf.RequestIncrease(n)
		if err != nil {
			return err
		}
		if !ok {
			return errLimitBelowUsage
		}
	}
	u, err := shelf.Usage()
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Занято: %s (%.1f%%)\n", u, u.Percent)
	return nil
}

func init() {
	RegisterCmd(uploadCmd{})
	RegisterCmd(listCmd{})
	RegisterCmd(downloadCmd{})
	RegisterCmd(deleteCmd{})
	RegisterCmd(linkCmd{})
	RegisterCmd(quotaCmd{})
}
