package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/flowsift/flowsift/internal/logging"
	"github.com/flowsift/flowsift/pkg/dataset"
)

var (
	cfgFile string
	verbose bool
	seed    int64

	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "flowsift",
	Short: "Tree-based classification for network activity records",
	Long: `flowsift trains and evaluates tree-based classifiers on labeled
network activity datasets: IP activity logs and normal/anomalous flow
records. It reports standard metrics, ranks feature importances, tunes
hyperparameters with cross-validated grid search, and can score live
packet captures with a saved model.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		bindFlags(cmd)
		log = logging.New(verbose)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default flowsift.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 42, "random seed")
}

// initConfig reads the optional viper config file.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("flowsift")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.flowsift")
	}
	viper.SetEnvPrefix("FLOWSIFT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

// bindFlags backfills unset command flags from the config file, keyed as
// "<command>.<flag>". Explicit flags always win.
func bindFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key := cmd.Name() + "." + f.Name
		if !f.Changed && viper.IsSet(key) {
			_ = cmd.Flags().Set(f.Name, viper.GetString(key))
		}
	})
}

// dataFlags is the dataset selection shared by most commands: either a
// single labeled CSV, or one CSV per class.
type dataFlags struct {
	data      string
	normal    string
	anomalous string
	label     string
	noHeader  bool
}

func (df *dataFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&df.data, "data", "", "labeled CSV with one label column")
	cmd.Flags().StringVar(&df.normal, "normal", "", "CSV of class-0 records (pairs with --anomalous)")
	cmd.Flags().StringVar(&df.anomalous, "anomalous", "", "CSV of class-1 records (pairs with --normal)")
	cmd.Flags().StringVar(&df.label, "label", "", "label column name (default: last column)")
	cmd.Flags().BoolVar(&df.noHeader, "no-header", false, "CSV has no header row")
}

// twoSource reports whether per-class source files were given.
func (df *dataFlags) twoSource() bool {
	return df.normal != "" || df.anomalous != ""
}

// loadSources loads the per-class source files.
func (df *dataFlags) loadSources() ([]*dataset.Dataset, error) {
	if df.normal == "" || df.anomalous == "" {
		return nil, fmt.Errorf("--normal and --anomalous must be given together")
	}

	opts := []dataset.LoaderOption{dataset.WithHeader(!df.noHeader)}
	normal, err := dataset.LoadClassSource(df.normal, 0, opts...)
	if err != nil {
		return nil, err
	}
	anomalous, err := dataset.LoadClassSource(df.anomalous, 1, opts...)
	if err != nil {
		return nil, err
	}
	return []*dataset.Dataset{normal, anomalous}, nil
}

// loadMerged loads the full dataset regardless of source layout.
func (df *dataFlags) loadMerged() (*dataset.Dataset, error) {
	if df.twoSource() {
		sources, err := df.loadSources()
		if err != nil {
			return nil, err
		}
		return sources[0].Concat(sources[1])
	}
	if df.data == "" {
		return nil, fmt.Errorf("either --data or --normal/--anomalous is required")
	}

	opts := []dataset.LoaderOption{dataset.WithHeader(!df.noHeader)}
	if df.label != "" {
		opts = append(opts, dataset.WithLabelColumn(df.label))
	}
	return dataset.NewLoader(opts...).Load(df.data)
}

func parseIntList(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		var v int
		if _, err := fmt.Sscanf(strings.TrimSpace(p), "%d", &v); err != nil {
			return nil, fmt.Errorf("bad integer list %q", s)
		}
		out = append(out, v)
	}
	return out, nil
}
