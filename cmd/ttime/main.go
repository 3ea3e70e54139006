package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	tt "github.com/usgs/neic-traveltime-sub004"
)

// loadConfig reads an EngineConfig from a YAML file, per spec.md 9's
// "explicit configuration struct" replacement for module-level globals.
func loadConfig(path string) (tt.EngineConfig, error) {
	var cfg tt.EngineConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func queryAction(cCtx *cli.Context) error {
	cfg, err := loadConfig(cCtx.String("config"))
	if err != nil {
		return err
	}
	reg, err := tt.NewRegistry(cfg)
	if err != nil {
		return err
	}
	defer reg.Close()

	engine := tt.NewEngine(reg)
	req := tt.QueryRequest{
		DepthKm:            cCtx.Float64("depth"),
		DeltaDeg:           cCtx.Float64("delta"),
		ElevKm:             cCtx.Float64("elev"),
		ReturnAllPhases:    cCtx.Bool("all-phases"),
		ReturnBackBranches: cCtx.Bool("back-branches"),
		Tectonic:           cCtx.Bool("tectonic"),
		UseRSTT:            cCtx.Bool("rstt"),
	}
	if phases := cCtx.StringSlice("phase"); len(phases) > 0 {
		req.PhaseList = phases
	}
	if srcLat := cCtx.Float64("src-lat"); cCtx.IsSet("src-lat") {
		req.Geographic = true
		req.SrcLat = srcLat
		req.SrcLon = cCtx.Float64("src-lon")
		req.RcvLat = cCtx.Float64("rcv-lat")
		req.RcvLon = cCtx.Float64("rcv-lon")
		req.RcvAzimuth = cCtx.Float64("rcv-azimuth")
	}

	arrivals, err := engine.Query(cCtx.String("model"), req)
	if err != nil {
		return err
	}
	for _, a := range arrivals {
		log.Printf("%-8s tt=%8.3f dTdD=%7.3f dTdZ=%8.4f spread=%6.3f observ=%10.1f window=%6.3f group=%s/%s regional=%v canUse=%v",
			a.PhaseCode, a.Tt, a.DTdD, a.DTdZ, a.Spread, a.Observ, a.Window, a.PhaseGroup, a.AuxGroup, a.Regional, a.CanUse)
	}
	return nil
}

func warmAction(cCtx *cli.Context) error {
	cfg, err := loadConfig(cCtx.String("config"))
	if err != nil {
		return err
	}
	reg, err := tt.NewRegistry(cfg)
	if err != nil {
		return err
	}
	defer reg.Close()

	names := cCtx.StringSlice("model")
	if len(names) == 0 {
		for name := range cfg.ModelFiles {
			names = append(names, name)
		}
	}
	return reg.Warm(names...)
}

func main() {
	app := &cli.App{
		Name:  "ttime",
		Usage: "compute seismic body-wave travel times from a radial Earth model",
		Commands: []*cli.Command{
			{
				Name:  "query",
				Usage: "compute arrivals for one depth/distance query",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Usage: "path to an EngineConfig YAML file", Required: true},
					&cli.StringFlag{Name: "model", Usage: "model name", Value: "ak135"},
					&cli.Float64Flag{Name: "depth", Usage: "source depth, km"},
					&cli.Float64Flag{Name: "delta", Usage: "distance, degrees"},
					&cli.Float64Flag{Name: "elev", Usage: "receiver elevation, km"},
					&cli.StringSliceFlag{Name: "phase", Usage: "restrict to these phase code prefixes"},
					&cli.BoolFlag{Name: "all-phases", Usage: "return depth/surface-reflected variants too"},
					&cli.BoolFlag{Name: "back-branches", Usage: "do not strip repeated back-branch phase codes"},
					&cli.BoolFlag{Name: "tectonic", Usage: "apply tectonic-region crustal phase remapping"},
					&cli.BoolFlag{Name: "rstt", Usage: "treat regional phases as RSTT-corrected"},
					&cli.Float64Flag{Name: "src-lat", Usage: "source latitude, degrees (enables geographic corrections)"},
					&cli.Float64Flag{Name: "src-lon", Usage: "source longitude, degrees"},
					&cli.Float64Flag{Name: "rcv-lat", Usage: "receiver latitude, degrees"},
					&cli.Float64Flag{Name: "rcv-lon", Usage: "receiver longitude, degrees"},
					&cli.Float64Flag{Name: "rcv-azimuth", Usage: "source-to-receiver azimuth, degrees"},
				},
				Action: queryAction,
			},
			{
				Name:  "warm",
				Usage: "build (or rebuild) reference tables for one or more models",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Usage: "path to an EngineConfig YAML file", Required: true},
					&cli.StringSliceFlag{Name: "model", Usage: "model names to warm; defaults to every configured model"},
				},
				Action: warmAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
