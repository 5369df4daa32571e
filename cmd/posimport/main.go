// Command posimport detects the POS system behind an export file, proposes
// a field mapping, validates every row and prints the result as JSON.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/posimport/internal/config"
	"github.com/JonMunkholm/posimport/internal/detect"
	"github.com/JonMunkholm/posimport/internal/issue"
	"github.com/JonMunkholm/posimport/internal/logging"
	"github.com/JonMunkholm/posimport/internal/mapping"
	"github.com/JonMunkholm/posimport/internal/schema"
	"github.com/JonMunkholm/posimport/internal/source"
	"github.com/JonMunkholm/posimport/internal/store"
	"github.com/JonMunkholm/posimport/internal/validation"
)

type options struct {
	path         string
	importType   string
	saveTemplate string
	noTemplates  bool
}

// result is the JSON document written to stdout.
type result struct {
	Detection    detect.Result      `json:"detection"`
	TemplateID   *uuid.UUID         `json:"template_id,omitempty"`
	Mapping      *mapping.Set       `json:"mapping"`
	MappingCheck mapping.Check      `json:"mapping_check"`
	Report       *validation.Report `json:"report"`
}

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	var opts options
	flag.StringVar(&opts.importType, "type", "", "import type (menu, inventory, sales, recipes, customers); detected when empty")
	flag.StringVar(&opts.saveTemplate, "save-template", "", "save the resulting mapping as a template with this name")
	flag.BoolVar(&opts.noTemplates, "no-templates", false, "ignore stored templates")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] FILE\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	opts.path = flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out, err := run(ctx, cfg, opts)
	if out != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(out); encErr != nil {
			slog.Error("failed to write result", "error", encErr)
		}
	}
	if err != nil {
		msg := issue.MapError(err)
		slog.Error("import failed", "error", err, "code", msg.Code)
		fmt.Fprintf(os.Stderr, "%s: %s. %s\n", msg.Code, msg.Message, msg.Action)
		os.Exit(1)
	}
	if out.Report == nil || !out.Report.IsValid {
		os.Exit(3)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options) (*result, error) {
	detectWeights, mapWeights, err := loadWeights(cfg.Import.WeightsFile)
	if err != nil {
		return nil, err
	}

	detector := detect.New(
		detect.WithWeights(detectWeights),
		detect.WithWorkers(cfg.Import.Workers),
	)
	mapper := mapping.New(
		mapping.WithWeights(mapWeights),
		mapping.WithSampleRows(cfg.Import.SampleSize),
	)
	engine := validation.New(validation.WithOptions(validation.Options{
		DuplicateSeverity: issue.ParseSeverity(cfg.Import.DuplicateSeverity),
		PriceMin:          cfg.Import.PriceMin,
		PriceMax:          cfg.Import.PriceMax,
		Workers:           cfg.Import.Workers,
		ChunkSize:         cfg.Import.ChunkSize,
	}))

	src := source.FileSource{Path: opts.path}
	sample, err := src.Sample(cfg.Import.SampleSize)
	if err != nil {
		return nil, err
	}

	det, err := detector.BestMatch(ctx, sample)
	if err != nil {
		return nil, err
	}
	slog.Info("format detected", "pos_system", det.POSSystem, "confidence", det.Confidence)
	if len(sample.Headers) == 0 {
		slog.Warn("no header row found, manual mapping required", "file", sample.Filename)
		return &result{Detection: det}, nil
	}

	importType := schema.ImportType(opts.importType)
	if importType == "" {
		importType = det.Suggestions.RecommendedImportType
	}
	if _, err := schema.MustGet(importType); err != nil {
		return nil, fmt.Errorf("cannot determine import type, pass -type: %w", err)
	}

	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer closeRepo()

	out := &result{Detection: det}

	if repo != nil && !opts.noTemplates {
		matches, err := store.MatchTemplates(ctx, repo, importType, sample.Headers)
		if err != nil {
			slog.Warn("template matching failed", "error", err)
		} else if len(matches) > 0 {
			best := matches[0].Template
			slog.Info("using template", "name", best.Name, "score", matches[0].MatchScore)
			out.Mapping = best.Set
			out.TemplateID = &best.ID
		}
	}
	if out.Mapping == nil {
		if out.Mapping, err = mapper.DetectMappings(sample.Headers, sample.Rows, importType); err != nil {
			return nil, err
		}
	}
	out.MappingCheck = mapper.ValidateMappings(out.Mapping, importType)

	it, err := src.Rows()
	if err != nil {
		return out, err
	}
	defer it.Close()

	out.Report, err = engine.ValidateChunks(ctx, mapper, it, out.Mapping, func(p mapping.Progress) {
		slog.Debug("chunk validated", "chunk", p.Chunk, "rows", p.RowsProcessed)
	})
	if err != nil {
		return out, err
	}
	slog.Info("validation finished",
		"rows", out.Report.Summary.TotalRows,
		"valid", out.Report.IsValid,
		"quality", out.Report.Summary.QualityScore,
	)

	if repo != nil {
		if out.TemplateID != nil {
			if err := repo.RecordUsage(ctx, *out.TemplateID, out.Report.IsValid); err != nil {
				slog.Warn("failed to record template usage", "error", err)
			}
		}
		if opts.saveTemplate != "" {
			tpl, err := store.NewTemplate(opts.saveTemplate, out.Mapping)
			if err != nil {
				return out, err
			}
			if err := repo.Save(ctx, tpl); err != nil {
				return out, err
			}
			slog.Info("template saved", "name", tpl.Name, "id", tpl.ID)
		}
	} else if opts.saveTemplate != "" {
		slog.Warn("no database configured, template not saved")
	}

	return out, nil
}

// loadWeights reads both weight sections from the optional YAML file.
func loadWeights(path string) (detect.Weights, mapping.Weights, error) {
	if path == "" {
		return detect.DefaultWeights(), mapping.DefaultWeights(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return detect.Weights{}, mapping.Weights{}, fmt.Errorf("read weights file: %w", err)
	}
	dw, err := detect.LoadWeights(bytes.NewReader(data))
	if err != nil {
		return detect.Weights{}, mapping.Weights{}, err
	}
	mw, err := mapping.LoadWeights(bytes.NewReader(data))
	if err != nil {
		return detect.Weights{}, mapping.Weights{}, err
	}
	return dw, mw, nil
}

// openRepository connects to the template store when a database is
// configured. The returned repository is nil otherwise.
func openRepository(ctx context.Context, cfg *config.Config) (store.TemplateRepository, func(), error) {
	if !cfg.Database.HasDatabase() {
		return nil, func() {}, nil
	}

	pool, err := store.Connect(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		return nil, nil, err
	}
	repo := store.NewPgRepository(pool)
	if err := repo.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("prepare template store: %w", err)
	}
	return repo, pool.Close, nil
}
