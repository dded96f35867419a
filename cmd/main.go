package main

import (
	"context"

	"github.com/MHC32/momentum/internal/app"
)

func main() {
	app.InitDefaultLogger()
	app.MustReadEnv()
	app.MustInitApplicationLogger()

	app.MustOpenStorage()
	defer app.CloseStorage()

	app.InitServices()
	app.RestoreSession(context.Background())
	defer app.StopSync()

	app.MustListenAndServeHTTP()
}
