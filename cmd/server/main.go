package main

import (
	"github.com/Luismorlan/microblog/server"
	"github.com/Luismorlan/microblog/server/middlewares"
	. "github.com/Luismorlan/microblog/utils"
	"github.com/Luismorlan/microblog/utils/dotenv"
	. "github.com/Luismorlan/microblog/utils/flag"
	. "github.com/Luismorlan/microblog/utils/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	Parse()

	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}
	InitLogger()

	middlewares.Setup()

	db, err := GetDBConnection()
	if err != nil {
		Log.Fatal("fail to connect to database: ", err)
	}
	DatabaseSetupAndMigration(db)

	// Default With the Logger and Recovery middleware already attached
	router := gin.Default()
	router.Use(cors.Default())

	api := server.NewAPIServer(db)
	api.RegisterRoutes(router)

	Log.Info("api server starts up")
	if err := router.Run(ListenAddr); err != nil {
		Log.Fatal("api server exited: ", err)
	}
}
