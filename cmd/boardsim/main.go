// Command boardsim serves a simulated sensor board on /ws for local runs of the console.
package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"sensor_console/internal/boardsim"
	"sensor_console/internal/logger"
	"sensor_console/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
)

func main() {
	viper.SetDefault("port", "8081")
	viper.SetDefault("tick", 2*time.Second)
	viper.SetDefault("seed", uint64(time.Now().UnixNano()))
	viper.SetDefault("log.level", logger.InfoLevel)
	viper.SetEnvPrefix("boardsim")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	log := logger.Get(viper.GetString("log.level"))
	gin.SetMode(gin.ReleaseMode)

	board := boardsim.NewBoard(viper.GetUint64("seed"), log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go board.Run(ctx, viper.GetDuration("tick"))

	srv := &server.Server{}
	go func() {
		log.Infow("board simulator listening", "port", viper.GetString("port"))
		if err := srv.Run(viper.GetString("port"), board.Routes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
