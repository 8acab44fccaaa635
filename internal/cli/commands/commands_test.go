package commands

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"FileShelf/internal/cli/bootstrap"
	"FileShelf/internal/config"
	"FileShelf/internal/model"
	"FileShelf/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestConfig — полка в sqlite-файле во временном каталоге, чтобы состояние
// переживало отдельные запуски команд.
func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		StoreDSN:     filepath.Join(dir, "shelf.db"),
		DefaultLimit: "100",
		PageURL:      "http://localhost:8081/",
	}
}

// run выполняет команду с заданным вводом и возвращает код выхода и вывод.
func run(t *testing.T, cfg *config.Config, input string, args ...string) (int, string) {
	t.Helper()
	oldIn := In
	In = strings.NewReader(input)
	defer func() { In = oldIn }()
	var code int
	out := withStdoutCapture(t, func() { code = Dispatch(context.Background(), cfg, args) })
	return code, out
}

// files возвращает содержимое полки активного пользователя в обход CLI.
func files(t *testing.T, cfg *config.Config) []model.FileRecord {
	t.Helper()
	shelf, done, err := bootstrap.OpenShelf(cfg, service.Callbacks{}, nil)
	require.NoError(t, err)
	defer done()
	list, err := shelf.List()
	require.NoError(t, err)
	return list
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestCommands_RequireIdentity(t *testing.T) {
	cfg := newTestConfig(t)
	code, out := run(t, cfg, "", "list")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, service.ErrNoActiveIdentity.Error())

	code, out = run(t, cfg, "", "whoami")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Нет активного пользователя")
}

func TestCommands_UsageErrors(t *testing.T) {
	cfg := newTestConfig(t)
	for _, args := range [][]string{
		{"register"},
		{"upload"},
		{"download"},
		{"delete"},
		{"link"},
		{"import"},
		{"import", "a", "b"},
		{"quota", "1", "2"},
	} {
		code, _ := run(t, cfg, "", args...)
		assert.Equal(t, 2, code, "%v", args)
	}
}

func TestCommands_Lifecycle(t *testing.T) {
	cfg := newTestConfig(t)

	code, out := run(t, cfg, "", "register", "alice", "pw")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "alice")

	code, out = run(t, cfg, "", "whoami")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "user_alice_")

	txt := writeTemp(t, "notes.txt", "hello shelf")
	png := writeTemp(t, "pic.png", "\x89PNG")
	code, out = run(t, cfg, "", "upload", txt, png)
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "[1/2] notes.txt")
	assert.Contains(t, out, "[2/2] pic.png")
	assert.Contains(t, out, "Загружено файлов: 2")

	list := files(t, cfg)
	require.Len(t, list, 2)

	code, out = run(t, cfg, "", "list", "note")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "notes.txt")
	assert.NotContains(t, out, "pic.png")
	assert.Contains(t, out, "Всего: 1")

	code, out = run(t, cfg, "", "link", list[0].ID)
	require.Equal(t, 0, code)
	assert.Equal(t, "http://localhost:8081/?open="+list[0].ID+"&name=notes.txt\n", out)

	code, out = run(t, cfg, "", "link", list[1].ID)
	require.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(out, "data:image/png;base64,"))

	destDir := t.TempDir()
	code, out = run(t, cfg, "", "download", list[0].ID, destDir)
	require.Equal(t, 0, code, out)
	got, err := os.ReadFile(filepath.Join(destDir, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello shelf", string(got))

	code, _ = run(t, cfg, "", "download", "missing", destDir)
	assert.Equal(t, 1, code)

	code, _ = run(t, cfg, "", "delete", list[1].ID)
	require.Equal(t, 0, code)
	code, out = run(t, cfg, "", "delete", list[1].ID)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "file not found")
	assert.Len(t, files(t, cfg), 1)

	code, _ = run(t, cfg, "", "logout")
	require.Equal(t, 0, code)
	code, _ = run(t, cfg, "", "list")
	assert.Equal(t, 1, code)
}

func TestCommands_ExportImportForeign(t *testing.T) {
	cfg := newTestConfig(t)
	backup := filepath.Join(t.TempDir(), "backup.json")

	code, _ := run(t, cfg, "", "register", "alice")
	require.Equal(t, 0, code)
	code, _ = run(t, cfg, "", "upload", writeTemp(t, "a.txt", "0123456789"))
	require.Equal(t, 0, code)
	code, out := run(t, cfg, "", "export", backup)
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "Экспортировано файлов: 1")

	code, _ = run(t, cfg, "", "register", "bob")
	require.Equal(t, 0, code)

	// отказ в терминале
	code, out = run(t, cfg, "n\n", "import", backup)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Импортировать? [y/N]")
	assert.Empty(t, files(t, cfg))

	code, out = run(t, cfg, "y\n", "import", backup)
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "Импортировано файлов: 1")

	// повторный импорт без вопроса ничего не добавляет
	code, out = run(t, cfg, "", "import", backup, "--yes")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "Импортировано файлов: 0")

	list := files(t, cfg)
	require.Len(t, list, 1)
	assert.Contains(t, list[0].OwnerID, "user_bob_")

	code, out = run(t, cfg, "", "import", writeTemp(t, "bad.json", `{"files": 1}`))
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "invalid format")
}

func TestCommands_QuotaPrompt(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.DefaultLimit = "10 B"

	code, _ := run(t, cfg, "", "register", "alice")
	require.Equal(t, 0, code)

	big := writeTemp(t, "big.bin", strings.Repeat("x", 30))

	// пустой ответ — отказ
	code, out := run(t, cfg, "\n", "upload", big)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Недостаточно места")
	assert.Empty(t, files(t, cfg))

	code, out = run(t, cfg, "64 B\n", "upload", big)
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "Загружено файлов: 1")

	code, out = run(t, cfg, "", "quota")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "30 B/64 B")

	code, out = run(t, cfg, "", "quota", "20 B")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, errLimitBelowUsage.Error())

	// слишком малое и слишком большое число мегабайт — ошибка ввода, а не нехватка места
	for _, in := range []string{"0.0000001", "1e20"} {
		code, out = run(t, cfg, "", "quota", in)
		assert.Equal(t, 1, code)
		assert.Contains(t, out, service.ErrValidation.Error(), in)
		assert.NotContains(t, out, errLimitBelowUsage.Error(), in)
	}

	code, out = run(t, cfg, "", "quota", "1")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "30 B/1.0 MiB")
}
