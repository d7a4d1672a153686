package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	flowio "github.com/flowsift/flowsift/pkg/io"
	"github.com/flowsift/flowsift/pkg/io/jsonl"
	"github.com/flowsift/flowsift/pkg/io/pcap"
	"github.com/flowsift/flowsift/pkg/modelfile"
)

var captureFlags struct {
	modelFile string
	pcapFile  string
	iface     string
	filter    string
	out       string
}

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Score packet captures with a saved model",
	Long: `Capture extracts per-packet features from a PCAP file or a live
interface and scores each packet with a saved model, emitting one JSON
line per packet. Interrupt with Ctrl-C when capturing live.`,
	RunE: runCapture,
}

func init() {
	captureCmd.Flags().StringVar(&captureFlags.modelFile, "model-file", "", "saved model file (required)")
	captureCmd.Flags().StringVar(&captureFlags.pcapFile, "pcap", "", "capture file to score")
	captureCmd.Flags().StringVar(&captureFlags.iface, "iface", "", "interface to capture from")
	captureCmd.Flags().StringVar(&captureFlags.filter, "filter", "", "BPF filter expression")
	captureCmd.Flags().StringVar(&captureFlags.out, "out", "", "JSONL output file (default stdout)")
	_ = captureCmd.MarkFlagRequired("model-file")

	rootCmd.AddCommand(captureCmd)
}

func runCapture(cmd *cobra.Command, args []string) error {
	if (captureFlags.pcapFile == "") == (captureFlags.iface == "") {
		return fmt.Errorf("exactly one of --pcap or --iface is required")
	}

	kind, model, scaler, err := modelfile.Load(captureFlags.modelFile)
	if err != nil {
		return err
	}
	log.Info().Str("kind", kind).Msg("model loaded")

	source, err := openSource()
	if err != nil {
		return err
	}
	defer source.Close()

	var writer flowio.Writer
	if captureFlags.out != "" {
		if writer, err = jsonl.NewWriter(captureFlags.out); err != nil {
			return err
		}
	} else {
		writer = jsonl.NewStdoutWriter()
	}
	defer writer.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	samples, err := source.Stream(ctx)
	if err != nil {
		return err
	}

	classes := model.Classes()
	scored := 0
	for sample := range samples {
		row := sample
		if scaler != nil {
			scaled, err := scaler.Transform([][]float64{row})
			if err != nil {
				log.Debug().Err(err).Msg("skipping sample")
				continue
			}
			row = scaled[0]
		}

		probas, err := model.PredictProba([][]float64{row})
		if err != nil {
			log.Debug().Err(err).Msg("skipping sample")
			continue
		}

		best := 0
		for i, p := range probas[0] {
			if p > probas[0][best] {
				best = i
			}
		}
		label := classes[best]

		if err := writer.Write(flowio.Result{
			Timestamp: time.Now().UnixNano(),
			Label:     label,
			Anomalous: label == 1,
			Score:     probas[0][best],
			Features:  sample,
		}); err != nil {
			return err
		}
		scored++
	}

	log.Info().Int("packets", scored).Msg("capture finished")
	return nil
}

func openSource() (*pcap.Source, error) {
	opts := []pcap.Option{}
	if captureFlags.filter != "" {
		opts = append(opts, pcap.WithFilter(captureFlags.filter))
	}
	if captureFlags.pcapFile != "" {
		return pcap.OpenFile(captureFlags.pcapFile, opts...)
	}
	return pcap.OpenLive(captureFlags.iface, opts...)
}
