package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/hadi77ir/go-paginate/internal/config"
	"github.com/hadi77ir/go-paginate/internal/logger"
	"github.com/hadi77ir/go-paginate/paginate"
	"github.com/hadi77ir/go-paginate/stores/mongodb"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// queryFlags are the per-query flags of the root command
type queryFlags struct {
	filter     string
	page       int
	offset     int
	limit      int
	cursor     string
	sort       string
	sel        string
	populate   []string
	leanWithID bool
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	var configFile string
	var qf queryFlags
	v := config.New()

	rootCmd := &cobra.Command{
		Use:   "paginate",
		Short: "Print one page of a MongoDB collection as JSON",
		Long: `Print one page of a MongoDB collection as JSON.

Settings come from flags, the optional config file and PAGINATE_* environment
variables (e.g. PAGINATE_MONGO_URI), in that order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, configFile)
			if err != nil {
				return err
			}
			opts, err := buildOptions(cmd.Flags(), &qf)
			if err != nil {
				return err
			}
			filter, err := parseFilter(qf.filter)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cmd.OutOrStdout(), cfg, filter, opts)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&configFile, "config", "c", "", "config file (yaml, json or toml)")
	flags.String("uri", "", "MongoDB connection URI")
	flags.String("database", "", "database name")
	flags.String("collection", "", "collection name")
	flags.Bool("consistent", false, "read total and page from one snapshot")
	flags.String("log-level", "", "log level (debug, info, warn, error)")

	addQueryFlags(flags, &qf)

	_ = v.BindPFlag("mongo.uri", flags.Lookup("uri"))
	_ = v.BindPFlag("mongo.database", flags.Lookup("database"))
	_ = v.BindPFlag("mongo.collection", flags.Lookup("collection"))
	_ = v.BindPFlag("defaults.consistent", flags.Lookup("consistent"))
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))

	rootCmd.AddCommand(NewVersionCommand())
	return rootCmd
}

func run(ctx context.Context, out io.Writer, cfg *config.Config, filter bson.M, opts *paginate.Options) error {
	log, err := logger.New(&cfg.Log)
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	connectCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.Timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("disconnect failed")
		}
	}()

	coll := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
	p, err := paginate.NewPaginator(mongodb.NewStore(coll, &mongodb.Options{MaxTime: cfg.Mongo.MaxTime}), &paginate.Config{
		Defaults:   paginate.Options{Limit: paginate.Int(cfg.Defaults.Limit), LeanWithID: paginate.Bool(cfg.Defaults.LeanWithID)},
		MaxLimit:   cfg.Defaults.MaxLimit,
		Consistent: cfg.Defaults.Consistent,
		Logger:     &log,
	})
	if err != nil {
		return err
	}

	page, err := paginate.Fetch[bson.M](ctx, p, filter, opts)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(page)
}

func addQueryFlags(flags *pflag.FlagSet, qf *queryFlags) {
	flags.StringVarP(&qf.filter, "filter", "f", "", "filter as MongoDB extended JSON, e.g. '{\"name\": \"Student #10\"}'")
	flags.IntVarP(&qf.page, "page", "p", 1, "page number (page mode)")
	flags.IntVarP(&qf.offset, "offset", "o", 0, "records to skip (offset mode)")
	flags.IntVarP(&qf.limit, "limit", "l", 10, "page size; 0 only counts")
	flags.StringVar(&qf.cursor, "cursor", "", "continuation cursor from a previous page")
	flags.StringVarP(&qf.sort, "sort", "s", "", "sort, e.g. '-birthdate name'")
	flags.StringVar(&qf.sel, "select", "", "projection, e.g. 'name -_id'")
	flags.StringArrayVar(&qf.populate, "populate", nil, "reference to expand as path=collection (repeatable)")
	flags.BoolVar(&qf.leanWithID, "lean-with-id", true, "add an id string field mirroring _id")
}

// buildOptions turns the flags that were actually set into pagination options
// Unset flags are left nil so the configured defaults apply
func buildOptions(flags *pflag.FlagSet, qf *queryFlags) (*paginate.Options, error) {
	opts := &paginate.Options{Lean: paginate.Bool(true)}

	if flags.Changed("page") && flags.Changed("offset") {
		return nil, fmt.Errorf("%w: --page and --offset are mutually exclusive", paginate.ErrInvalidOptions)
	}
	if flags.Changed("page") {
		opts.Page = paginate.Int(qf.page)
	}
	if flags.Changed("offset") {
		opts.Offset = paginate.Int(qf.offset)
	}
	if flags.Changed("limit") {
		opts.Limit = paginate.Int(qf.limit)
	}
	if flags.Changed("lean-with-id") {
		opts.LeanWithID = paginate.Bool(qf.leanWithID)
	}
	opts.Cursor = qf.cursor

	var err error
	if opts.Sort, err = parseSort(qf.sort); err != nil {
		return nil, err
	}
	if opts.Select, err = parseSelect(qf.sel); err != nil {
		return nil, err
	}
	if opts.Populate, err = parsePopulate(qf.populate); err != nil {
		return nil, err
	}
	return opts, opts.Validate()
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "paginate", Version)
		},
	}
}

// Version is set at build time with -ldflags "-X .../commands.Version=..."
var Version = "dev"
