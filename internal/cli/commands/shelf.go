package commands

import (
	"bufio"
	"fmt"
	"strings"

	"FileShelf/internal/cli/bootstrap"
	"FileShelf/internal/config"
	"FileShelf/internal/service"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// newLogger — в обычном режиме CLI молчит, с -debug пишет в stderr.
func newLogger(cfg *config.Config) *zap.SugaredLogger {
	if !cfg.Debug {
		return zap.NewNop().Sugar()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}

// openShelf открывает полку с обработчиками, которые спрашивают пользователя в терминале.
// assumeYes — импорт чужой копии без вопроса.
func openShelf(cfg *config.Config, assumeYes bool) (*service.Shelf, func() error, error) {
	in := bufio.NewReader(In)
	cb := service.Callbacks{
		OnUploadProgress: func(cur, total int, name string) {
			fmt.Fprintf(Out, "[%d/%d] %s\n", cur, total, name)
		},
		OnUploadError: func(name string, err error) {
			if name != "" {
				fmt.Fprintf(Out, "Не удалось загрузить %s: %v\n", name, err)
			}
		},
		OnQuotaExceeded: func(used, requested, limit int64) service.QuotaDecision {
			short := used + requested - limit
			fmt.Fprintf(Out, "Недостаточно места: занято %s из %s, нужно ещё %s.\n",
				humanize.IBytes(uint64(used)), humanize.IBytes(uint64(limit)), humanize.IBytes(uint64(short)))
			fmt.Fprint(Out, "Новый лимит (MiB или размер, пусто — отмена): ")
			answer := readLine(in)
			if answer == "" {
				return service.Abandon()
			}
			n, err := service.ParseLimit(answer)
			if err != nil {
				fmt.Fprintf(Out, "Некорректный лимит: %v\n", err)
				return service.Abandon()
			}
			return service.RaiseLimit(n)
		},
		OnImportConflict: func(owner string) bool {
			if assumeYes {
				return true
			}
			fmt.Fprintf(Out, "Копия принадлежит пользователю %s. Импортировать? [y/N]: ", owner)
			switch strings.ToLower(readLine(in)) {
			case "y", "yes", "д", "да":
				return true
			}
			return false
		},
	}
	return bootstrap.OpenShelf(cfg, cb, newLogger(cfg))
}

func readLine(r *bufio.Reader) string {
	s, _ := r.ReadString('\n')
	return strings.TrimSpace(s)
}
