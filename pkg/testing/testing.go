package testing

import (
	"os"
	"path"
	"runtime"
)

func init() {
	// tests run from the repository root so relative paths (logs/, .env) resolve the same way as in cmd/
	//
	//   import (
	//     _ "liyu1981.xyz/coldchain-monitor/pkg/testing"
	//   )

	_, filename, _, _ := runtime.Caller(0)
	dir := path.Join(path.Dir(filename), "..", "..")
	if err := os.Chdir(dir); err != nil {
		panic(err)
	}
}
