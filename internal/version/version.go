package version

import "fmt"

// Заполняются при сборке:
//
//	go build -ldflags "-X github.com/vladislavdragonenkov/ecom/internal/version.version=v1.2.0 -X ...commit=$(git rev-parse --short HEAD)"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Info возвращает версию, коммит и дату сборки.
func Info() (v, c, d string) { return version, commit, date }

// GetVersion возвращает версию сборки; попадает в ответ /healthz.
func GetVersion() string { return version }

// GetCommit возвращает хэш коммита сборки.
func GetCommit() string { return commit }

// GetDate возвращает дату сборки.
func GetDate() string { return date }

// String форматирует сведения о сборке одной строкой для логов.
func String() string {
	return fmt.Sprintf("version=%s commit=%s date=%s", version, commit, date)
}

// Banner: строка для вывода по флагу -version.
func Banner(binary string) string {
	return binary + " " + String()
}
