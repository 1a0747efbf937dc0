package server

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/apex/log"
	"github.com/go-playground/validator"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/mappichat/heatmap-engine/src/engine"
	"github.com/mappichat/heatmap-engine/src/project_types"
	"github.com/mappichat/heatmap-engine/src/utils"
)

var validate = validator.New()

// requireJWT rejects requests without a bearer token signed by a key in jwks.
func requireJWT(jwks *keyfunc.JWKS) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == "" || tokenString == header {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}
		token, err := jwt.Parse(tokenString, jwks.Keyfunc)
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}
		return c.Next()
	}
}

func sendArtifact(c *fiber.Ctx, dataDir string, file string) error {
	filePath := path.Join(dataDir, file)
	if !utils.FileExists(filePath) {
		return fiber.NewError(fiber.StatusNotFound, file+" not generated")
	}
	return c.SendFile(filePath)
}

// NewApp serves the artifacts written by the generate subcommand. A nil
// jwks leaves the heatmap routes open.
func NewApp(dataDir string, options *project_types.EngineOptions, jwks *keyfunc.JWKS) *fiber.App {
	app := fiber.New()

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Healthy")
	})

	app.Get("/cities", func(c *fiber.Ctx) error {
		return sendArtifact(c, dataDir, engine.CitiesIndexFile)
	})

	heatmaps := app.Group("/heatmap")
	if jwks != nil {
		heatmaps.Use(requireJWT(jwks))
	}

	heatmaps.Get("/:city/:tier?", func(c *fiber.Ctx) error {
		log.Infof("/heatmap: %s", time.Now())
		params := struct {
			City string `validate:"required"`
			Tier string `validate:"required,oneof=full standard compact points geojson"`
		}{
			City: c.Params("city"),
			Tier: c.Params("tier", string(project_types.TierStandard)),
		}
		if err := validate.Struct(params); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if _, ok := options.City(params.City); !ok {
			return fiber.NewError(fiber.StatusNotFound, "unknown city "+params.City)
		}
		return sendArtifact(c, dataDir, engine.ArtifactFile(params.City, project_types.Tier(params.Tier)))
	})

	heatmaps.Get("/:city/res/:resolution", func(c *fiber.Ctx) error {
		log.Infof("/heatmap/res: %s", time.Now())
		resolution, err := c.ParamsInt("resolution")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Var(resolution, "min=0,max=15"); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		city := c.Params("city")
		if _, ok := options.City(city); !ok {
			return fiber.NewError(fiber.StatusNotFound, "unknown city "+city)
		}
		return sendArtifact(c, dataDir, engine.ParentArtifactFile(city, resolution))
	})

	return app
}

func RunServer(dataDir string, options *project_types.EngineOptions, jwks *keyfunc.JWKS, port int) error {
	app := NewApp(dataDir, options, jwks)
	return app.Listen(fmt.Sprintf(":%d", port))
}
