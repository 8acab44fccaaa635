package commands

import (
	"context"
	"fmt"

	"FileShelf/internal/config"
)

type registerCmd struct{}

func (registerCmd) Name() string        { return "register" }
func (registerCmd) Description() string { return "Создать пользователя и сделать его активным" }
func (registerCmd) Usage() string       { return "register <name> [secret]" }

func (registerCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return ErrUsage
	}
	secret := ""
	if len(args) == 2 {
		secret = args[1]
	}
	shelf, done, err := openShelf(cfg, false)
	if err != nil {
		return err
	}
	defer done()
	u, err := shelf.Register(args[0], secret)
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Добро пожаловать, %s (%s)\n", u.DisplayName, u.UserID)
	return nil
}

type whoamiCmd struct{}

func (whoamiCmd) Name() string        { return "whoami" }
func (whoamiCmd) Description() string { return "Показать активного пользователя" }
func (whoamiCmd) Usage() string       { return "whoami" }

func (whoamiCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	shelf, done, err := openShelf(cfg, false)
	if err != nil {
		return err
	}
	defer done()
	u := shelf.Current()
	if u == nil {
		fmt.Fprintln(Out, "Нет активного пользователя")
		return nil
	}
	fmt.Fprintf(Out, "%s (%s), с %s\n", u.DisplayName, u.UserID, u.CreatedAt.Local().Format("2006-01-02 15:04"))
	return nil
}

type logoutCmd struct{}

func (logoutCmd) Name() string        { return "logout" }
func (logoutCmd) Description() string { return "Выйти (файлы остаются в хранилище)" }
func (logoutCmd) Usage() string       { return "logout" }

func (logoutCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	shelf, done, err := openShelf(cfg, false)
	if err != nil {
		return err
	}
	defer done()
	if err := shelf.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(Out, "Вы вышли")
	return nil
}

func init() {
	RegisterCmd(registerCmd{})
	RegisterCmd(whoamiCmd{})
	RegisterCmd(logoutCmd{})
}
