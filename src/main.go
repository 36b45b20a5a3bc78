package main

import (
	"esm/src/boot"
	"esm/src/config"
	"esm/src/controllers"
	"esm/src/middlewares"
	"esm/src/types"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"regexp"
	"strconv"
	"time"

	"github.com/covalenthq/lumberjack"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	_ "github.com/joho/godotenv/autoload"
)

const (
	apiPrefix string = "/api/v1"
)

var serviceDateValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(string)
	datetime, err := time.Parse(config.TIME_PARSE_FORMAT, date)
	if err != nil {
		return false
	}
	if ok {
		today := time.Now()
		if today.After(datetime) {
			return false
		}
	}
	return true
}

func setupRouter() *gin.Engine {
	router := gin.Default()
	router.Use(middlewares.SecureHeaders)
	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, "ok")
	})
	return router
}

func maintenanceModeMiddleware(g *gin.Engine) *gin.Engine {
	g.Use(func(ctx *gin.Context) {
		mm := os.Getenv("MAINTENANCE_MODE")
		on, err := strconv.ParseBool(mm)
		if err == nil && on {
			log.Println("server is under maintenance")
			ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, "server is under maintenance")
			return
		}
	})
	return g
}

func apiv1Group(g *gin.Engine) *gin.RouterGroup {
	apiv1 := g.Group(apiPrefix)
	return apiv1
}

func publicRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1 = listingPublicHandlers(apiv1)

	auth := apiv1.Group("/auth")
	auth.
		POST("/otp/request", func(ctx *gin.Context) {
			status, err := controllers.AuthRequestOTP(ctx)
			if err != nil {
				log.Printf("Error on AuthRequestOTP: %s\n", err.Error())
				ctx.JSON(status, gin.H{"success": false, "message": "Could not send a login code"})
				return
			}
			ctx.JSON(status, gin.H{"success": true, "message": "If the address is valid, a login code has been sent"})
		}).
		POST("/otp/verify", func(ctx *gin.Context) {
			token, status, err := controllers.AuthVerifyOTP(ctx)
			if err != nil {
				log.Printf("Error on AuthVerifyOTP: %s\n", err.Error())
				ctx.JSON(status, gin.H{"success": false, "message": "Could not verify the login code"})
				return
			}
			ctx.JSON(status, gin.H{"success": true, "data": gin.H{"token": token}})
		})

	return apiv1
}

func initLogger() {
	cwd, _ := os.Getwd()
	serverLogs := path.Join(cwd, "logs", "server.log")
	apiLogs := path.Join(cwd, "logs", "api.log")
	gin.ForceConsoleColor()

	f, _ := os.Create(apiLogs)
	gin.DefaultWriter = io.MultiWriter(f, os.Stdout)
	log.SetOutput(&lumberjack.Logger{
		Filename:   serverLogs,
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	})
}

func main() {
	apiEnv := os.Getenv("API_ENV")
	if apiEnv == "local" {
		cwd, _ := os.Getwd()
		if err := godotenv.Load(path.Join(cwd, ".env")); err != nil {
			panic(err)
		}
	}
	initLogger()

	boot.InitDb()
	boot.InitScheduler()

	router := setupRouter()

	appHost := os.Getenv("APP_HOST")
	if apiEnv == "local" {
		router.Use(cors.Default())
	} else {
		cc := cors.DefaultConfig()
		cc.AllowMethods = append(cc.AllowMethods, "GET", "POST", "PATCH", "PUT", "DELETE", "HEAD")
		cc.AllowHeaders = append(cc.AllowHeaders, "Origin", "Authorization")
		cc.AllowOriginFunc = func(origin string) bool {
			match, _ := regexp.MatchString(appHost, origin)
			return match
		}
		cc.AllowCredentials = true
		cc.AllowAllOrigins = false
		router.Use(cors.New(cc))
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("bookabledate", serviceDateValidatorFunc)
	}

	router = maintenanceModeMiddleware(router)

	publicRoutes(router)

	authorized := router.Group(apiPrefix)
	authorized.Use(middlewares.AuthMiddleware)
	{
		authorized = userHandlers(authorized)
		authorized = bookingHandlers(authorized)
		authorized = paymentHandlers(authorized)
		authorized = reviewHandlers(authorized)
	}

	vendor := router.Group(apiPrefix)
	vendor.Use(middlewares.AuthMiddleware, middlewares.RequireRole(types.ROLE_VENDOR, types.ROLE_ADMIN))
	{
		vendor = listingVendorHandlers(vendor)
		vendor = vendorHandlers(vendor)
	}

	admin := router.Group(apiPrefix)
	admin.Use(middlewares.AuthMiddleware, middlewares.RequireRole(types.ROLE_ADMIN))
	{
		admin = reviewAdminHandlers(admin)
	}

	defer boot.StopScheduler()
	if err := router.Run(":9090"); err != nil {
		log.Fatalf("error: %s", err.Error())
	}
}
