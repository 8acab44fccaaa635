package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"FileShelf/internal/config"
)

// ErrUsage возвращается командой при неверных аргументах: диспетчер печатает её Usage.
var ErrUsage = errors.New("usage")

// Command — подкоманда CLI полки.
type Command interface {
	// Name — имя, которое набирает пользователь: "upload".
	Name() string
	// Description — одна строка для общей справки.
	Description() string
	// Usage — строка вызова: "upload <path>...".
	Usage() string
	// Run выполняет команду; args без имени команды.
	Run(ctx context.Context, cfg *config.Config, args []string) error
}

var registry = map[string]Command{}

// Out — куда CLI пишет вывод. В тестах подменяется буфером.
var Out io.Writer = os.Stdout

// In — источник ответов на вопросы (нехватка места, импорт чужой копии).
var In io.Reader = os.Stdin

// RegisterCmd добавляет команду в реестр; вызывается из init() файла команды.
// Повторное имя — ошибка программиста.
func RegisterCmd(cmd Command) {
	name := strings.ToLower(cmd.Name())
	if _, ok := registry[name]; ok {
		panic(fmt.Sprintf("commands: %q registered twice", name))
	}
	registry[name] = cmd
}

// Get ищет команду без учёта регистра.
func Get(name string) (Command, bool) {
	c, ok := registry[strings.ToLower(name)]
	return c, ok
}

// List возвращает команды, отсортированные по имени.
func List() []Command {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]Command, len(names))
	for i, n := range names {
		out[i] = registry[n]
	}
	return out
}

// globalFlags попадают в справку перед списком команд.
var globalFlags = [][2]string{
	{"-d <dsn>", "memory, fs:<dir>, postgres://... или путь к SQLite (STORE_DSN)"},
	{"-limit <size>", "лимит по умолчанию: число в MiB или \"150MB\" (DEFAULT_LIMIT)"},
	{"-store-max <bytes>", "ёмкость хранилища, 0 без ограничения (STORE_MAX_BYTES)"},
	{"-debug", "подробный лог в stderr"},
}

// FormatGlobalUsage собирает общую справку.
func FormatGlobalUsage() string {
	var b strings.Builder
	b.WriteString("FileShelf CLI\n\n")
	b.WriteString("Usage:\n  shelf [flags] <command> [args]\n  shelf help <command>\n\n")
	b.WriteString("Flags:\n")
	for _, f := range globalFlags {
		fmt.Fprintf(&b, "  %-20s %s\n", f[0], f[1])
	}
	b.WriteString("\nCommands:\n")
	for _, c := range List() {
		fmt.Fprintf(&b, "  %-28s %s\n", c.Usage(), c.Description())
	}
	return b.String()
}
