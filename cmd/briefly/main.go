package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/briefly/internal/logging"
	"github.com/hrygo/briefly/internal/profile"
	"github.com/hrygo/briefly/internal/version"
	"github.com/hrygo/briefly/server"
)

var (
	rootCmd = &cobra.Command{
		Use:   "briefly",
		Short: `Turn spoken or typed work updates into structured weekly reports.`,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			// Systemd units supply the environment themselves.
			if !isRunningAsSystemdService() {
				_ = godotenv.Load()
			}
			return nil
		},
		Run: func(_ *cobra.Command, _ []string) {
			instanceProfile := &profile.Profile{
				Mode:        viper.GetString("mode"),
				Addr:        viper.GetString("addr"),
				Port:        viper.GetInt("port"),
				InstanceURL: viper.GetString("instance-url"),
				Version:     version.GetCurrentVersion(viper.GetString("mode")),
			}
			instanceProfile.FromEnv()
			if err := instanceProfile.Validate(); err != nil {
				panic(err)
			}
			logging.Setup(instanceProfile.Mode)

			ctx, cancel := context.WithCancel(context.Background())
			s, err := server.NewServer(ctx, instanceProfile)
			if err != nil {
				cancel()
				slog.Error("failed to create server", "error", err)
				return
			}

			c := make(chan os.Signal, 1)
			// Trigger graceful shutdown on SIGINT or SIGTERM.
			signal.Notify(c, terminationSignals...)

			if err := s.Start(ctx); err != nil {
				slog.Error("failed to start server", "error", err)
				cancel()
				return
			}

			printGreetings(instanceProfile)

			go func() {
				<-c
				s.Shutdown(ctx)
				cancel()
			}()

			// Wait for CTRL-C.
			<-ctx.Done()
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(version.String())
			if version.BuildTime != "unknown" {
				fmt.Printf("Built: %s\n", version.BuildTime)
			}
		},
	}
)

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("port", 8081)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8081, "port of server")
	rootCmd.PersistentFlags().String("instance-url", "", "the public url of your briefly instance")

	for _, key := range []string{"mode", "addr", "port", "instance-url"} {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("briefly")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(versionCmd)
}

func printGreetings(profile *profile.Profile) {
	fmt.Printf("Briefly %s started successfully!\n", profile.Version)

	if profile.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
	}
	fmt.Printf("Mode: %s\n", profile.Mode)
	fmt.Printf("LLM: %s (%s), enabled: %v\n", profile.ALLMProvider, profile.ALLMModel, profile.IsAIEnabled())
	if !profile.IsAuthConfigured() {
		fmt.Fprint(os.Stderr, "BRIEFLY_AUTH_SECRET is not set, authenticated routes will return 401\n")
	}

	if len(profile.Addr) == 0 {
		fmt.Printf("Server running on port %d\n", profile.Port)
		fmt.Printf("Access Briefly at: http://localhost:%d\n", profile.Port)
	} else {
		fmt.Printf("Server running on %s:%d\n", profile.Addr, profile.Port)
		fmt.Printf("Access Briefly at: http://%s:%d\n", profile.Addr, profile.Port)
	}
	if profile.InstanceURL != "" {
		fmt.Printf("Public URL: %s\n", profile.InstanceURL)
	}
}

// isRunningAsSystemdService detects if the process is running under systemd
func isRunningAsSystemdService() bool {
	return os.Getenv("INVOCATION_ID") != "" || os.Getenv("WATCHDOG_USEC") != ""
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
