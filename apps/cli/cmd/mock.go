package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/fitcheck/packages/core/env"
	"github.com/abdul-hamid-achik/fitcheck/packages/mock"
)

var (
	mockPortFlag      int
	mockDelayFlag     string
	mockVerboseFlag   bool
	mockUnhealthyFlag bool
	mockFailFlag      []string
)

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Start an in-memory FitTogether API",
	Long: `Start an HTTP server implementing the FitTogether endpoints in memory,
so the suite can run without a deployment. State is lost on exit.

Failures can be forced per route to see how the suite reacts:
  --fail <route>=<status>[:detail]

Routes: health, register, login, me, create_challenge, list_challenges,
my_challenges, join_challenge, log_progress, user_progress, leaderboard,
warnings.

Examples:
  fitcheck mock
  fitcheck mock --port 9000 --delay 100ms
  fitcheck mock --unhealthy
  fitcheck mock --fail join_challenge=404:"Challenge not found"`,
	Args: cobra.NoArgs,
	RunE: mockCommand,
}

func init() {
	mockCmd.Flags().IntVarP(&mockPortFlag, "port", "p", env.Int("FITCHECK_MOCK_PORT", 8001), "Port to run the mock server on (env: FITCHECK_MOCK_PORT)")
	mockCmd.Flags().StringVarP(&mockDelayFlag, "delay", "d", "0", "Delay to add to all responses (e.g., 100ms, 1s)")
	mockCmd.Flags().BoolVarP(&mockVerboseFlag, "verbose", "v", false, "Enable request logging")
	mockCmd.Flags().BoolVar(&mockUnhealthyFlag, "unhealthy", false, "Report an unhealthy status from the health endpoint")
	mockCmd.Flags().StringArrayVar(&mockFailFlag, "fail", nil, "Force a route to fail: <route>=<status>[:detail] (repeatable)")
}

func mockCommand(cmd *cobra.Command, args []string) error {
	var delay time.Duration
	if mockDelayFlag != "0" {
		var err error
		delay, err = time.ParseDuration(mockDelayFlag)
		if err != nil {
			return configError("invalid delay value %q: %w", mockDelayFlag, err)
		}
	}

	opts := []mock.Option{
		mock.WithPort(mockPortFlag),
		mock.WithDelay(delay),
		mock.WithVerbose(mockVerboseFlag),
	}
	if mockUnhealthyFlag {
		opts = append(opts, mock.WithUnhealthy())
	}

	var faulted []string
	for _, spec := range mockFailFlag {
		route, fault, err := parseFault(spec)
		if err != nil {
			return configError("%w", err)
		}
		faulted = append(faulted, route)
		opts = append(opts, mock.WithFault(route, fault))
	}

	server := mock.NewServer(opts...)
	known := make(map[string]bool)
	for _, route := range server.Routes() {
		known[route.Name] = true
	}
	for _, route := range faulted {
		if !known[route] {
			return configError("unknown route %q in --fail", route)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return failure(server.Start(ctx))
}

// parseFault reads <route>=<status>[:detail]
func parseFault(spec string) (string, mock.Fault, error) {
	route, rest, ok := strings.Cut(spec, "=")
	if !ok || route == "" {
		return "", mock.Fault{}, fmt.Errorf("invalid --fail %q (expected <route>=<status>[:detail])", spec)
	}

	statusText, detail, _ := strings.Cut(rest, ":")
	var status int
	if _, err := fmt.Sscanf(statusText, "%d", &status); err != nil || status < 100 || status > 599 {
		return "", mock.Fault{}, fmt.Errorf("invalid status %q in --fail %q", statusText, spec)
	}

	return route, mock.Fault{Status: status, Detail: strings.Trim(detail, `"`)}, nil
}
