package main

import (
	"errors"
	"os"
	"path"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/apex/log"
	"github.com/mappichat/heatmap-engine/src/database"
	"github.com/mappichat/heatmap-engine/src/engine"
	"github.com/mappichat/heatmap-engine/src/fileio"
	"github.com/mappichat/heatmap-engine/src/project_types"
	"github.com/mappichat/heatmap-engine/src/server"
	"github.com/mappichat/heatmap-engine/src/utils"
	"github.com/spf13/pflag"
)

const usage = "run using one of these subcommands: generate, serve, dbwrite, stats"

type dbwriteArgs struct {
	configPath string
	cities     []string
	connection string
}

// parseDbwriteArgs reads the flags after the data directory. The connection
// string is the first positional argument, or DATABASE_URL when omitted.
func parseDbwriteArgs(args []string) (dbwriteArgs, error) {
	parsed := dbwriteArgs{}
	cmd := pflag.NewFlagSet("dbwrite", pflag.ContinueOnError)
	cmd.StringVarP(&parsed.configPath, "config", "c", "", "path to engine config file (yaml)")
	cmd.StringSliceVar(&parsed.cities, "cities", nil, "comma separated city keys (default all configured cities)")
	if err := cmd.Parse(args); err != nil {
		return parsed, err
	}

	parsed.connection = os.Getenv("DATABASE_URL")
	if cmd.NArg() > 0 {
		parsed.connection = cmd.Arg(0)
	}
	if parsed.connection == "" {
		return parsed, errors.New("no connection string given and DATABASE_URL is unset")
	}
	return parsed, nil
}

func loadOptions(configPath string) project_types.EngineOptions {
	options, err := fileio.LoadOptions(configPath)
	if err != nil {
		log.WithError(err).Fatal("loading config")
	}
	return options
}

func main() {
	startTime := time.Now()

	utils.ConfigureEnv()
	if len(os.Args) < 2 {
		log.Fatal(usage)
	}

	switch os.Args[1] {
	case "generate":
		if len(os.Args) < 3 {
			log.Fatal("generate subcommand has one argument: [poi-input-directory]")
		}
		inDir := os.Args[2]

		cmd := pflag.NewFlagSet("generate", pflag.ExitOnError)
		var resolution int
		var configPath string
		var outDir string
		var cities []string
		var encodings []string
		var parentResolutions []int
		var workers int
		var skipExisting bool
		cmd.IntVarP(&resolution, "resolution", "r", utils.DefaultResolution, "h3 resolution used to bin pois")
		cmd.StringVarP(&configPath, "config", "c", "", "path to engine config file (yaml)")
		cmd.StringVarP(&outDir, "out", "o", "./public", "artifact output directory")
		cmd.StringSliceVar(&cities, "cities", nil, "comma separated city keys (default all configured cities)")
		cmd.StringSliceVarP(&encodings, "encodings", "e", nil, "encodings to write: full, standard, compact, points, geojson")
		cmd.IntSliceVar(&parentResolutions, "parent-resolutions", nil, "coarser resolutions to also write compact artifacts for")
		cmd.IntVarP(&workers, "workers", "w", 0, "cities processed concurrently (default GOMAXPROCS)")
		cmd.BoolVar(&skipExisting, "skip-existing", false, "skip cities that already have output files")
		cmd.Parse(os.Args[3:])

		options := loadOptions(configPath)
		if cmd.Changed("resolution") {
			options.Resolution = resolution
		}
		if cmd.Changed("encodings") {
			options.Encodings = options.Encodings[:0]
			for _, encoding := range encodings {
				options.Encodings = append(options.Encodings, project_types.Tier(encoding))
			}
		}
		if cmd.Changed("parent-resolutions") {
			options.ParentResolutions = parentResolutions
		}
		if cmd.Changed("workers") {
			options.Workers = workers
		}
		if err := fileio.ValidateOptions(&options); err != nil {
			log.WithError(err).Fatal("invalid flags")
		}
		if len(cities) == 0 {
			for _, city := range options.Cities {
				cities = append(cities, city.Key)
			}
		}

		log.Infof("generating heatmaps for %v at resolution %d", cities, options.Resolution)
		created := time.Now()
		results := engine.GenerateAndWriteCities(fileio.DirSource{Dir: inDir}, cities, &options, outDir, skipExisting, created)

		index := engine.BuildCitiesIndex(&options, outDir, created)
		indexPath, err := engine.WriteCitiesIndex(index, outDir)
		if err != nil {
			log.WithError(err).Fatal("writing cities index")
		}

		for key, result := range results {
			log.Infof("%s: %d hexagons, %d pois, %d skipped", key, len(result.Cells), result.Stats.Added, result.Stats.Skipped)
		}
		log.Infof("cities index saved: %s", indexPath)
		log.Info(time.Since(startTime).String())
	case "serve":
		if len(os.Args) < 3 {
			log.Fatal("serve subcommand has one argument: [data-directory]")
		}
		dataDir := os.Args[2]

		cmd := pflag.NewFlagSet("serve", pflag.ExitOnError)
		var port int
		var configPath string
		var jwksURL string
		cmd.IntVarP(&port, "port", "p", 8080, "serving port")
		cmd.StringVarP(&configPath, "config", "c", "", "path to engine config file (yaml)")
		cmd.StringVar(&jwksURL, "jwks", os.Getenv("JWKS_URL"), "jwks url used to verify bearer tokens; empty disables auth")
		cmd.Parse(os.Args[3:])

		options := loadOptions(configPath)
		var jwks *keyfunc.JWKS
		if jwksURL != "" {
			var err error
			jwks, err = utils.JwksCreatePublicKey(jwksURL, time.Hour)
			if err != nil {
				log.WithError(err).Fatal("loading jwks")
			}
		}

		log.Info(time.Since(startTime).String())
		if err := server.RunServer(dataDir, &options, jwks, port); err != nil {
			log.WithError(err).Fatal("server stopped")
		}
	case "dbwrite":
		if len(os.Args) < 3 {
			log.Fatal("dbwrite subcommand has arguments: [data-directory] [sql-connection-string]")
		}
		dataDir := os.Args[2]

		args, err := parseDbwriteArgs(os.Args[3:])
		if err != nil {
			log.WithError(err).Fatal("dbwrite")
		}
		configPath, cities, connectionString := args.configPath, args.cities, args.connection

		options := loadOptions(configPath)
		if len(cities) == 0 {
			for _, city := range options.Cities {
				cities = append(cities, city.Key)
			}
		}

		db, err := database.SqlInitialize(connectionString)
		if err != nil {
			log.WithError(err).Fatal("connecting to database")
		}

		log.Info("creating tables")
		if err := database.CreateTables(db); err != nil {
			log.WithError(err).Fatal("creating tables")
		}

		for _, key := range cities {
			standardPath := path.Join(dataDir, engine.ArtifactFile(key, project_types.TierStandard))
			if !utils.FileExists(standardPath) {
				log.WithField("city", key).Warnf("%s not found, run generate first", standardPath)
				continue
			}
			standard, err := fileio.ReadStandardEncoding(standardPath)
			if err != nil {
				log.WithError(err).Fatal("reading standard encoding")
			}
			created, err := time.Parse(time.RFC3339, standard.Meta.Created)
			if err != nil {
				created = time.Now()
			}
			runID, err := database.InsertRun(db, standard.Meta, created)
			if err != nil {
				log.WithError(err).Fatal("inserting run")
			}

			log.WithField("city", key).Info("populating cells")
			if err := database.PopulateCells(db, runID, standard); err != nil {
				log.WithError(err).Fatal("populating cells")
			}

			pointsPath := path.Join(dataDir, engine.ArtifactFile(key, project_types.TierPoints))
			if !utils.FileExists(pointsPath) {
				log.WithField("city", key).Warnf("%s not found, skipping points", pointsPath)
				continue
			}
			points, err := fileio.ReadPointsEncoding(pointsPath)
			if err != nil {
				log.WithError(err).Fatal("reading points encoding")
			}
			log.WithField("city", key).Info("populating points")
			if err := database.PopulatePoints(db, runID, points.Points); err != nil {
				log.WithError(err).Fatal("populating points")
			}
		}

		log.Info(time.Since(startTime).String())
	case "stats":
		if len(os.Args) < 3 {
			log.Fatal("stats subcommand has one argument: [full-encoding-path]")
		}
		encoding, err := fileio.ReadFullEncoding(os.Args[2])
		if err != nil {
			log.WithError(err).Fatal("reading full encoding")
		}
		stats := fileio.PeakStats(encoding)
		log.Infof("hexagons: %d, pois: %d", stats.HexCount, stats.PoiCount)
		log.Infof("peak intensity mean: %f, standard deviation: %f", stats.Mean, stats.StdDev)
	default:
		log.Fatal(usage)
	}
}
