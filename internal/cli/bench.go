package cli

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/riposte/http"
	"github.com/wesleyorama2/riposte/internal/metrics"
)

var benchCmd = &cobra.Command{
	Use:   "bench URL",
	Short: "Benchmark a URL with concurrent GET requests",
	Long: `Bench fires a fixed number of GET requests at a URL from concurrent
workers and reports latency percentiles. Each worker owns its own client
and response buffer, so the measured engine never allocates per request.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBench(cmd, args[0])
	},
}

func init() {
	addRequestFlags(benchCmd, false)
	benchCmd.Flags().IntP("requests", "n", 100, "Total number of requests")
	benchCmd.Flags().IntP("concurrency", "c", 4, "Number of concurrent workers")
}

func runBench(cmd *cobra.Command, arg string) error {
	opts, err := parseRequestOptions(cmd, false)
	if err != nil {
		return err
	}
	url, err := opts.resolveURL(arg)
	if err != nil {
		return err
	}

	total, _ := cmd.Flags().GetInt("requests")
	workers, _ := cmd.Flags().GetInt("concurrency")
	if total < 1 || workers < 1 {
		return fmt.Errorf("requests and concurrency must be at least 1")
	}
	if workers > total {
		workers = total
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Benchmarking %s: %d requests, %d workers\n", url, total, workers)

	recorder := metrics.NewRecorder()
	var issued atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// One client and one buffer per worker: calls on a client
			// serialize on its transmit buffer.
			client, err := opts.newClient()
			if err != nil {
				return
			}
			buf := http.NewBuffer(opts.bufferSize)

			for issued.Add(1) <= int64(total) {
				ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
				start := time.Now()
				resp, received, err := client.Get(ctx, url, opts.headers, buf)
				latency := time.Since(start)
				cancel()

				success := err == nil && !resp.IsError()
				recorder.Record(latency, success, received)
			}
		}()
	}
	wg.Wait()

	printSummary(cmd, recorder.Snapshot(), opts.noColor)
	return nil
}

func printSummary(cmd *cobra.Command, s metrics.Summary, noColor bool) {
	out := cmd.OutOrStdout()

	headline := color.New(color.Bold)
	if noColor {
		headline.DisableColor()
	}

	fmt.Fprintf(out, "\n%s\n", headline.Sprint("Summary"))
	fmt.Fprintf(out, "  Requests:    %d (%d ok, %d failed)\n", s.Total, s.Success, s.Failed)
	fmt.Fprintf(out, "  Duration:    %s\n", s.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(out, "  Throughput:  %.1f req/s\n", s.Throughput)
	fmt.Fprintf(out, "  Bytes:       %d\n", s.Bytes)
	fmt.Fprintf(out, "\n%s\n", headline.Sprint("Latency"))
	fmt.Fprintf(out, "  min   %s\n", s.Min.Round(time.Microsecond))
	fmt.Fprintf(out, "  mean  %s\n", s.Mean.Round(time.Microsecond))
	fmt.Fprintf(out, "  p50   %s\n", s.P50.Round(time.Microsecond))
	fmt.Fprintf(out, "  p90   %s\n", s.P90.Round(time.Microsecond))
	fmt.Fprintf(out, "  p99   %s\n", s.P99.Round(time.Microsecond))
	fmt.Fprintf(out, "  max   %s\n", s.Max.Round(time.Microsecond))
}
