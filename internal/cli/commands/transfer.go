package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"FileShelf/internal/config"
	"FileShelf/internal/service"
)

type exportCmd struct{}

func (exportCmd) Name() string        { return "export" }
func (exportCmd) Description() string { return "Сохранить резервную копию файлов в JSON" }
func (exportCmd) Usage() string       { return "export [file]" }

func (exportCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	if len(args) > 1 {
		return ErrUsage
	}
	shelf, done, err := openShelf(cfg, false)
	if err != nil {
		return err
	}
	defer done()
	doc, err := shelf.Export()
	if err != nil {
		return err
	}
	data, err := service.MarshalDocument(doc)
	if err != nil {
		return err
	}
	dest := service.ExportFileName(time.Now())
	if len(args) == 1 {
		dest = args[0]
	}
	if err := os.WriteFile(dest, data, 0o600); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Экспортировано файлов: %d в %s\n", len(doc.Files), dest)
	return nil
}

type importCmd struct{}

func (importCmd) Name() string        { return "import" }
func (importCmd) Description() string { return "Добавить файлы из резервной копии" }
func (importCmd) Usage() string       { return "import <file> [--yes]" }

func (importCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	var path string
	yes := false
	for _, a := range args {
		switch {
		case a == "--yes" || a == "-y":
			yes = true
		case path == "":
			path = a
		default:
			return ErrUsage
		}
	}
	if path == "" {
		return ErrUsage
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	shelf, done, err := openShelf(cfg, yes)
	if err != nil {
		return err
	}
	defer done()
	n, err := shelf.Import(data)
	if n > 0 || err == nil {
		fmt.Fprintf(Out, "Импортировано файлов: %d\n", n)
	}
	return err
}

func init() {
	RegisterCmd(exportCmd{})
	RegisterCmd(importCmd{})
}
